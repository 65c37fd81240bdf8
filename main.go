package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app   = kingpin.New("ccid-bridge", "Emulated CCID smart card. Bridges a virtual reader and card to a guest-facing event loop, mirroring a soft card or serving stored certificates.")
	debug = app.Flag("debug", "Turn on debug logging.").Bool()
	db    = app.Flag("db", "Location of the certificate store.").String()

	start        = app.Command("start", "Start the card bridge and begin delivering reader and card events.")
	startBackend = start.Flag("backend", "Card backend to use. One of: emulated, certificates.").Default("emulated").String()
	cert1        = start.Flag("cert1", "First certificate name for the certificates backend.").String()
	cert2        = start.Flag("cert2", "Second certificate name for the certificates backend.").String()
	cert3        = start.Flag("cert3", "Third certificate name for the certificates backend.").String()

	add     = app.Command("add", "Add a certificate to the store.")
	addName = add.Arg("name", "The name the certificate is stored under.").Required().String()
	addFile = add.Arg("file", "File containing the certificate bytes.").Required().String()

	dump     = app.Command("dump", "Dump stored certificates onto standard out.")
	dumpName = dump.Flag("name", "Dump a single certificate instead of listing all of them.").String()

	remove     = app.Command("remove", "Delete a certificate from the store.")
	removeName = remove.Arg("name", "The name of the certificate to delete.").Required().String()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	switch cmd {
	case start.FullCommand():
		startBridge()
	case add.FullCommand():
		addCert(*addName, *addFile)
	case dump.FullCommand():
		if *dumpName == "" {
			dumpAll()
		} else {
			dumpCert(*dumpName)
		}
	case remove.FullCommand():
		removeCert(*removeName)
	default:
		kingpin.FatalUsage("Unrecognized command")
	}
}
