package vcard

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/buntdb"
)

const DefaultStorePath = "certs.db"

// Certificate is a named credential blob served by the certificates backend.
type Certificate struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

type CertStore struct {
	instance *buntdb.DB
}

func OpenCertStore(path string) (*CertStore, error) {
	if path == "" {
		path = DefaultStorePath
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &CertStore{instance: db}, nil
}

func (s *CertStore) Close() error {
	return s.instance.Close()
}

func (s *CertStore) StoreCert(c Certificate) error {
	return s.instance.Update(func(tx *buntdb.Tx) error {
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if _, _, err := tx.Set(getCertKey(c.Name), string(data), nil); err != nil {
			return err
		}
		return nil
	})
}

func (s *CertStore) ReadCert(name string) (Certificate, error) {
	var c Certificate
	err := s.instance.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(getCertKey(name))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(v), &c)
	})
	return c, err
}

func (s *CertStore) ReadAll() (*[]Certificate, error) {
	certs := make([]Certificate, 0)
	err := s.instance.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, value string) bool {
			var c Certificate
			if err := json.Unmarshal([]byte(value), &c); err != nil {
				return false
			}
			certs = append(certs, c)
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	return &certs, nil
}

func (s *CertStore) DeleteCert(name string) error {
	return s.instance.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(getCertKey(name))
		return err
	})
}

func getCertKey(name string) string {
	return fmt.Sprintf("cert:%v", name)
}
