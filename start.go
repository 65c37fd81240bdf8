package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/callebjorkell/ccid-bridge/ccid"
	"github.com/callebjorkell/ccid-bridge/vcard"
	log "github.com/sirupsen/logrus"
)

// selectCard is the demo command sent when a card comes up, so a response
// can be seen flowing back through the bridge.
var selectCard = []byte{0x00, 0xA4, 0x04, 0x00, 0x01, 0x00}

type busPrinter struct {
	device *ccid.Device
}

func (b *busPrinter) BusAttach() {
	fmt.Println("Reader attached")
}

func (b *busPrinter) BusDetach() {
	fmt.Println("Reader detached")
}

func (b *busPrinter) CardInserted() {
	fmt.Printf("Card inserted, ATR: % X\n", b.device.ATR())
	b.device.APDUFromGuest(selectCard)
}

func (b *busPrinter) CardRemoved() {
	fmt.Println("Card removed...")
}

func (b *busPrinter) CardError(code uint64) {
	log.Errorf("card error %v", code)
}

func (b *busPrinter) ResponseAPDU(data []byte) {
	fmt.Printf("Card answered: % X\n", data)
}

func startBridge() {
	emul, err := vcard.NewEmulator(vcard.Config{
		Backend: *startBackend,
		Cert1:   *cert1,
		Cert2:   *cert2,
		Cert3:   *cert3,
		Store:   *db,
	})
	if err != nil {
		log.Fatal(err)
	}

	cb := &busPrinter{}
	device := ccid.NewDevice(emul, cb)
	cb.device = device
	device.Start()

	if err := emul.AttachReader(); err != nil {
		log.Fatal(err)
	}
	emul.InsertCard()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-device.Wakeup():
			device.DrainAndDispatch()
		case <-signalChan:
			log.Info("Shutting down...")
			if err := device.Stop(); err != nil {
				log.Fatal(err)
			}
			return
		}
	}
}
