// Package sessionstore keeps in-progress registration sessions in a bbolt file so that a
// conversation can continue after a restart.
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/gratefultolord/qabul_bot/internal/registration"
)

var sessionsBucket = []byte("sessions")

type Bolt struct {
	db *bolt.DB
}

func Open(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sessionstore.Open: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("sessionstore.Open: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sessionstore.Open: %w", err)
	}

	return &Bolt{db: db}, nil
}

func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) Load(_ context.Context, id string) (registration.Session, bool, error) {
	var (
		session registration.Session
		found   bool
	)

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &session)
	})
	if err != nil {
		return registration.Session{}, false, fmt.Errorf("Bolt.Load: %w", err)
	}
	if found && session.Fields == nil {
		session.Fields = make(map[registration.Field]string)
	}

	return session, found, nil
}

func (s *Bolt) Save(_ context.Context, session registration.Session) error {
	enc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("Bolt.Save: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(session.ID), enc)
	})
	if err != nil {
		return fmt.Errorf("Bolt.Save: %w", err)
	}

	return nil
}

func (s *Bolt) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(id))
	})
	if err != nil {
		return fmt.Errorf("Bolt.Delete: %w", err)
	}

	return nil
}
