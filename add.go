package main

import (
	"fmt"
	"io/ioutil"

	"github.com/callebjorkell/ccid-bridge/vcard"
	log "github.com/sirupsen/logrus"
)

func addCert(name, file string) {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		log.Fatal(err)
	}

	store, err := vcard.OpenCertStore(*db)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	if err := store.StoreCert(vcard.Certificate{Name: name, Data: data}); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Stored certificate %v (%v bytes)\n", name, len(data))
}
