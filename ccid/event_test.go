package ccid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataEventBounds(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		max    int
		expect int
	}{
		{"within bounds", 2, MaxATRSize, 2},
		{"at the bound", MaxATRSize, MaxATRSize, MaxATRSize},
		{"oversized ATR truncated", 64, MaxATRSize, MaxATRSize},
		{"oversized APDU truncated", 300, MaxAPDUSize, MaxAPDUSize},
		{"empty", 0, MaxATRSize, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]byte, tc.size)
			for i := range data {
				data[i] = byte(i)
			}
			e := newDataEvent(CardInsert, data, tc.max)
			assert.Equal(t, tc.expect, len(e.Data))
			assert.Equal(t, data[:tc.expect], e.Data)
		})
	}
}

func TestDataEventCopiesPayload(t *testing.T) {
	data := []byte{0x3B, 0x00}
	e := newDataEvent(CardInsert, data, MaxATRSize)
	data[0] = 0xFF
	assert.Equal(t, []byte{0x3B, 0x00}, e.Data)
}

func TestEventKindString(t *testing.T) {
	assert.Equal(t, "READER_INSERT", ReaderInsert.String())
	assert.Equal(t, "RESPONSE_APDU", ResponseAPDU.String())
	assert.Equal(t, "UNKNOWN", EventKind(42).String())
}
