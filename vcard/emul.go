package vcard

import (
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	// BackendEmulated mirrors a local reader with a built-in soft card.
	BackendEmulated = "emulated"
	// BackendCertificates serves stored certificates through the soft card.
	BackendCertificates = "certificates"
)

// Answer-to-reset reported by the soft card.
var defaultATR = []byte{0x3B, 0x68, 0x00, 0xFF, 'V', 'C', 'A', 'R', 'D', '0'}

var ReaderBusyErr = errors.New("a reader is already attached")

// Config selects the emulator backend. The certificates backend needs all
// three certificate names and optionally a store path.
type Config struct {
	Backend string
	Cert1   string
	Cert2   string
	Cert3   string
	Store   string
}

// Emulator is an in-process NotificationSource with a single virtual reader.
// AttachReader, DetachReader, InsertCard and RemoveCard drive the scenario;
// each pushes the matching notification to whoever is blocked in WaitNext.
type Emulator struct {
	notifications chan Notification

	mu     sync.Mutex
	reader *softSession
	files  [][]byte
}

// NewEmulator validates the configuration and builds the source. No
// goroutines are started here; a bad configuration never gets as far as
// spawning workers.
func NewEmulator(cfg Config) (*Emulator, error) {
	e := &Emulator{
		notifications: make(chan Notification, 32),
	}

	switch cfg.Backend {
	case "", BackendEmulated:
		e.files = [][]byte{[]byte("soft card")}
	case BackendCertificates:
		if cfg.Cert1 == "" || cfg.Cert2 == "" || cfg.Cert3 == "" {
			return nil, errors.New("the certificates backend needs cert1, cert2 and cert3")
		}
		store, err := OpenCertStore(cfg.Store)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		for _, name := range []string{cfg.Cert1, cfg.Cert2, cfg.Cert3} {
			c, err := store.ReadCert(name)
			if err != nil {
				return nil, fmt.Errorf("certificate %v: %v", name, err)
			}
			e.files = append(e.files, c.Data)
		}
	default:
		return nil, fmt.Errorf("bad backend %q, the options are: %v (default), %v", cfg.Backend, BackendEmulated, BackendCertificates)
	}
	return e, nil
}

func (e *Emulator) WaitNext() Notification {
	return <-e.notifications
}

func (e *Emulator) PushQuit() {
	e.notifications <- Notification{Kind: NotifyQuit}
}

// AttachReader makes the virtual reader appear. Only one reader is supported
// at a time.
func (e *Emulator) AttachReader() error {
	e.mu.Lock()
	if e.reader != nil {
		e.mu.Unlock()
		return ReaderBusyErr
	}
	e.reader = &softSession{name: "Virtual Reader 0", atr: defaultATR, files: e.files}
	s := e.reader
	e.mu.Unlock()
	e.notifications <- Notification{Kind: NotifyReaderAttach, Session: s}
	return nil
}

func (e *Emulator) DetachReader() {
	e.mu.Lock()
	s := e.reader
	e.reader = nil
	e.mu.Unlock()
	if s == nil {
		log.Debug("detach with no reader attached, ignoring")
		return
	}
	e.notifications <- Notification{Kind: NotifyReaderDetach, Session: s}
}

func (e *Emulator) InsertCard() {
	e.notify(NotifyCardInsert)
}

func (e *Emulator) RemoveCard() {
	e.notify(NotifyCardRemove)
}

func (e *Emulator) notify(kind NotificationKind) {
	e.mu.Lock()
	s := e.reader
	e.mu.Unlock()
	if s == nil {
		log.Debugf("%v with no reader attached, ignoring", kind)
		return
	}
	e.notifications <- Notification{Kind: kind, Session: s}
}

// softSession is the emulated reader+card. It answers a minimal APDU set:
// SELECT (INS A4) picks one of the readable files, READ BINARY (INS B0)
// returns a slice of it. Everything else gets an "instruction not supported"
// status word.
type softSession struct {
	name string
	atr  []byte

	mu       sync.Mutex
	files    [][]byte
	selected int
	released bool
}

func (s *softSession) Name() string {
	return s.name
}

func (s *softSession) PowerOn() ([]byte, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, StatusNoCard
	}
	atr := make([]byte, len(s.atr))
	copy(atr, s.atr)
	return atr, StatusOK
}

func (s *softSession) Transmit(command []byte) ([]byte, Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, StatusNoCard
	}
	if len(command) < 4 {
		return []byte{0x67, 0x00}, StatusOK
	}

	ins := command[1]
	switch ins {
	case 0xA4: // SELECT
		if len(command) < 6 {
			// no body, keep the current selection
			return []byte{0x90, 0x00}, StatusOK
		}
		idx := int(command[5])
		if idx >= len(s.files) {
			return []byte{0x6A, 0x82}, StatusOK
		}
		s.selected = idx
		return []byte{0x90, 0x00}, StatusOK
	case 0xB0: // READ BINARY
		file := s.files[s.selected]
		offset := int(command[2])<<8 | int(command[3])
		if offset > len(file) {
			return []byte{0x6B, 0x00}, StatusOK
		}
		length := len(file) - offset
		if len(command) >= 5 && int(command[4]) > 0 && int(command[4]) < length {
			length = int(command[4])
		}
		resp := make([]byte, 0, length+2)
		resp = append(resp, file[offset:offset+length]...)
		return append(resp, 0x90, 0x00), StatusOK
	}
	log.Debugf("unsupported instruction %#02x", ins)
	return []byte{0x6D, 0x00}, StatusOK
}

func (s *softSession) Release() {
	s.mu.Lock()
	s.released = true
	s.mu.Unlock()
}
