// Package store persists users, rooms and messages in BadgerDB. Values are
// JSON documents; keys encode the access pattern (prefix scans, time-ordered
// message history).
package store

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

// Open opens (or creates) the badger database at path.
func Open(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "store").Str("path", path).Msg("badger opened")
	return db, nil
}
