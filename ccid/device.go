package ccid

import (
	"errors"
	"sync"
	"time"

	"github.com/callebjorkell/ccid-bridge/vcard"
	log "github.com/sirupsen/logrus"
)

var ShutdownTimeoutErr = errors.New("worker did not confirm termination in time")

// Callbacks are invoked from DrainAndDispatch, on whichever goroutine runs
// the consumer loop. Unrelated kinds may arrive in any order relative to each
// other, so implementations should not assume e.g. a response never precedes
// a bus attach.
type Callbacks interface {
	BusAttach()
	BusDetach()
	CardInserted()
	CardRemoved()
	CardError(code uint64)
	ResponseAPDU(data []byte)
}

type Option func(*Device)

// WithShutdownTimeout bounds how long Stop waits for each worker.
func WithShutdownTimeout(d time.Duration) Option {
	return func(dev *Device) {
		dev.shutdownTimeout = d
	}
}

// Device bridges the session source and the APDU worker to a single consumer
// event loop. All state lives on the struct; two devices never share
// anything.
type Device struct {
	source    vcard.NotificationSource
	callbacks Callbacks

	events   *eventQueue
	requests *apduQueue

	readerMu sync.Mutex
	reader   vcard.Session

	atrMu sync.Mutex
	atr   []byte

	shutdownTimeout time.Duration
	eventsDone      chan struct{}
	apduDone        chan struct{}
}

func NewDevice(source vcard.NotificationSource, callbacks Callbacks, opts ...Option) *Device {
	d := &Device{
		source:          source,
		callbacks:       callbacks,
		events:          newEventQueue(),
		requests:        newAPDUQueue(),
		shutdownTimeout: 5 * time.Second,
		eventsDone:      make(chan struct{}),
		apduDone:        make(chan struct{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Start spawns the notification worker and the APDU worker.
func (d *Device) Start() {
	go d.eventLoop()
	go d.apduLoop()
}

// Stop tears both workers down and waits for them to confirm. The source
// gets a quit notification, the APDU worker a quit flag plus broadcast; the
// wait on either is bounded so a wedged session call surfaces as an error
// instead of hanging teardown forever.
func (d *Device) Stop() error {
	d.source.PushQuit()
	d.requests.stop()

	deadline := time.NewTimer(d.shutdownTimeout)
	defer deadline.Stop()
	for _, done := range []chan struct{}{d.apduDone, d.eventsDone} {
		select {
		case <-done:
		case <-deadline.C:
			return ShutdownTimeoutErr
		}
	}

	d.readerMu.Lock()
	if d.reader != nil {
		d.reader.Release()
		d.reader = nil
	}
	d.readerMu.Unlock()
	return nil
}

// APDUFromGuest queues one guest command for the worker. It never blocks on
// the session being present; commands submitted while no card is up are
// dropped by the worker.
func (d *Device) APDUFromGuest(data []byte) {
	d.requests.submit(newDataEvent(GuestAPDU, data, MaxAPDUSize))
}

// ATR returns a copy of the answer-to-reset from the most recently
// dispatched card insert, or nil if no card has come up yet.
func (d *Device) ATR() []byte {
	d.atrMu.Lock()
	defer d.atrMu.Unlock()
	if d.atr == nil {
		return nil
	}
	atr := make([]byte, len(d.atr))
	copy(atr, d.atr)
	return atr
}

// Wakeup signals that DrainAndDispatch has work. The channel holds at most
// one pending token; a single receive can correspond to any number of queued
// events.
func (d *Device) Wakeup() <-chan struct{} {
	return d.events.wakeup
}

// DrainAndDispatch detaches everything currently queued and runs the
// matching callback for each event, in the order pushed. Call it from the
// consumer loop only.
func (d *Device) DrainAndDispatch() {
	for _, e := range d.events.detach() {
		log.Debugf("dispatching %v", e.Kind)
		switch e.Kind {
		case ResponseAPDU:
			d.callbacks.ResponseAPDU(e.Data)
		case ReaderInsert:
			d.callbacks.BusAttach()
		case ReaderRemove:
			d.callbacks.BusDetach()
		case CardInsert:
			d.setATR(e.Data)
			d.callbacks.CardInserted()
		case CardRemove:
			d.callbacks.CardRemoved()
		case CardError:
			d.callbacks.CardError(e.Code)
		default:
			log.Warnf("unexpected event %v, ignoring", e.Kind)
		}
	}
}

func (d *Device) setATR(atr []byte) {
	if len(atr) > MaxATRSize {
		log.Warnf("ATR of %v bytes truncated to %v", len(atr), MaxATRSize)
		atr = atr[:MaxATRSize]
	}
	d.atrMu.Lock()
	d.atr = atr
	d.atrMu.Unlock()
}

func (d *Device) currentReader() vcard.Session {
	d.readerMu.Lock()
	defer d.readerMu.Unlock()
	return d.reader
}

// eventLoop blocks on the notification source and translates each
// notification into an event. Only the quit notification stops it; anything
// malformed or aimed at a session other than the held one is skipped.
func (d *Device) eventLoop() {
	defer close(d.eventsDone)
	for {
		n := d.source.WaitNext()
		if n.Kind == vcard.NotifyQuit {
			log.Debug("event worker stopping")
			return
		}
		if n.Session == nil {
			log.Warnf("%v without a session, ignoring", n.Kind)
			continue
		}
		if n.Kind != vcard.NotifyReaderAttach && n.Session != d.currentReader() {
			log.Debugf("%v for another session, ignoring", n.Kind)
			continue
		}
		switch n.Kind {
		case vcard.NotifyReaderAttach:
			d.readerMu.Lock()
			if d.reader != nil {
				held := d.reader.Name()
				d.readerMu.Unlock()
				log.Infof("reader attach ignored, already using %v", held)
				continue
			}
			d.reader = n.Session
			d.readerMu.Unlock()
			log.Debugf("reader attached: %v", n.Session.Name())
			d.events.push(newEvent(ReaderInsert))
		case vcard.NotifyReaderDetach:
			d.readerMu.Lock()
			if d.reader != nil {
				d.reader.Release()
				d.reader = nil
			}
			d.readerMu.Unlock()
			log.Debugf("reader detached: %v", n.Session.Name())
			d.events.push(newEvent(ReaderRemove))
		case vcard.NotifyCardInsert:
			atr, status := n.Session.PowerOn()
			if status != vcard.StatusOK {
				log.Warnf("power on failed: %v", status)
				d.events.push(newErrorEvent(uint64(status)))
				continue
			}
			d.events.push(newDataEvent(CardInsert, atr, MaxATRSize))
		case vcard.NotifyCardRemove:
			d.events.push(newEvent(CardRemove))
		default:
			log.Warnf("unexpected notification %v, ignoring", n.Kind)
		}
	}
}

// apduLoop drains guest commands one at a time, strictly in submission
// order, and pushes the outcome of each onto the event queue.
func (d *Device) apduLoop() {
	defer close(d.apduDone)
	for {
		e := d.requests.next()
		if e == nil {
			log.Debug("APDU worker stopping")
			return
		}
		if e.Kind != GuestAPDU {
			log.Warnf("unexpected request %v on the APDU queue, ignoring", e.Kind)
			continue
		}
		reader := d.currentReader()
		if reader == nil {
			log.Debug("dropping guest APDU, no reader attached")
			continue
		}
		resp, status := reader.Transmit(e.Data)
		if status != vcard.StatusOK {
			d.events.push(newErrorEvent(uint64(status)))
			continue
		}
		log.Debugf("got back APDU of length %v", len(resp))
		d.events.push(newDataEvent(ResponseAPDU, resp, MaxAPDUSize))
	}
}
