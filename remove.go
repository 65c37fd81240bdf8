package main

import (
	"github.com/callebjorkell/ccid-bridge/vcard"
	log "github.com/sirupsen/logrus"
)

func removeCert(name string) {
	store, err := vcard.OpenCertStore(*db)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if err := store.DeleteCert(name); err != nil {
		log.Warnf("Could not remove certificate %v: %v", name, err.Error())
	}
}
