package main

import (
	"encoding/hex"
	"fmt"

	"github.com/callebjorkell/ccid-bridge/vcard"
	log "github.com/sirupsen/logrus"
)

func dumpAll() {
	store, err := vcard.OpenCertStore(*db)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	c, err := store.ReadAll()
	if err != nil {
		log.Fatal(err)
	}

	if len(*c) > 0 {
		fmt.Println("                 Name │ Bytes")
		fmt.Println("──────────────────────┼──────")
	} else {
		fmt.Println("No certificates found in the store...")
	}
	for _, cert := range *c {
		name := cert.Name
		if len(name) > 20 {
			name = fmt.Sprintf("%.19v…", name)
		}
		fmt.Printf("%21v │ %5v\n", name, len(cert.Data))
	}
}

func dumpCert(name string) {
	store, err := vcard.OpenCertStore(*db)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	c, err := store.ReadCert(name)
	if err != nil {
		log.Error(err)
		return
	}
	fmt.Println(c.Name)
	fmt.Println(hex.Dump(c.Data))
}
