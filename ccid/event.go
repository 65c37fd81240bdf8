package ccid

import (
	log "github.com/sirupsen/logrus"
)

const (
	// MaxATRSize is the largest answer-to-reset a card is allowed to report.
	MaxATRSize = 40
	// MaxAPDUSize is the largest APDU buffer exchanged with a session.
	MaxAPDUSize = 270
)

type EventKind uint32

const (
	ReaderInsert EventKind = iota
	ReaderRemove
	CardInsert
	CardRemove
	GuestAPDU
	ResponseAPDU
	CardError
)

func (k EventKind) String() string {
	switch k {
	case ReaderInsert:
		return "READER_INSERT"
	case ReaderRemove:
		return "READER_REMOVE"
	case CardInsert:
		return "CARD_INSERT"
	case CardRemove:
		return "CARD_REMOVE"
	case GuestAPDU:
		return "GUEST_APDU"
	case ResponseAPDU:
		return "RESPONSE_APDU"
	case CardError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Event is a single record moving between the worker goroutines and the
// dispatcher. Data is set for the ATR and APDU kinds only, and Code for
// CardError only.
type Event struct {
	Kind EventKind
	Data []byte
	Code uint64
}

func newEvent(kind EventKind) *Event {
	return &Event{Kind: kind}
}

func newErrorEvent(code uint64) *Event {
	return &Event{Kind: CardError, Code: code}
}

// newDataEvent copies data into a fresh event, truncating anything beyond the
// given bound. The payload is copied so the caller is free to reuse its buffer.
func newDataEvent(kind EventKind, data []byte, max int) *Event {
	if len(data) > max {
		log.Warnf("%v payload of %v bytes truncated to %v", kind, len(data), max)
		data = data[:max]
	}
	d := make([]byte, len(data))
	copy(d, data)
	return &Event{Kind: kind, Data: d}
}
