// Package pebblekv is a sorted engine stored in a Pebble database.
package pebblekv

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/jacentio/judy/jhash"
)

var (
	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("pebblekv: engine closed")

	// ErrUnsupportedValue is returned when the codec cannot encode a value.
	ErrUnsupportedValue error = jhash.InputError("pebblekv: unsupported value type")
)

// Config holds configuration for an Engine.
type Config struct {
	// InMemory keeps the database in memory instead of dir.
	InMemory bool

	// Sync makes every write durable before it returns.
	Sync bool

	// Codec encodes values. Default: BytesCodec
	Codec Codec
}

// DefaultConfig returns an on-disk configuration with synced writes.
func DefaultConfig() Config {
	return Config{
		Sync:  true,
		Codec: BytesCodec{},
	}
}

func (c *Config) validate() {
	if c.Codec == nil {
		c.Codec = BytesCodec{}
	}
}

// Engine stores keys in a Pebble database.
type Engine struct {
	db        *pebble.DB
	codec     Codec
	writeOpts *pebble.WriteOptions
}

// Open opens or creates the database in dir.
func Open(dir string, config Config) (*Engine, error) {
	config.validate()

	opts := &pebble.Options{}
	if config.InMemory {
		opts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble database: %w", err)
	}

	writeOpts := pebble.NoSync
	if config.Sync {
		writeOpts = pebble.Sync
	}
	return &Engine{db: db, codec: config.Codec, writeOpts: writeOpts}, nil
}

// Get returns the value stored under key.
func (e *Engine) Get(key string) (any, bool, error) {
	if e.db == nil {
		return nil, false, ErrClosed
	}
	data, closer, err := e.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()

	v, err := e.codec.Unmarshal(data)
	if err != nil {
		return nil, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return v, true, nil
}

// Put stores value under key.
func (e *Engine) Put(key string, value any) (bool, error) {
	if e.db == nil {
		return false, ErrClosed
	}
	data, err := e.codec.Marshal(value)
	if err != nil {
		return false, err
	}
	replaced, err := e.has(key)
	if err != nil {
		return false, err
	}
	if err := e.db.Set([]byte(key), data, e.writeOpts); err != nil {
		return false, err
	}
	return replaced, nil
}

// Delete removes key.
func (e *Engine) Delete(key string) (any, bool, error) {
	old, found, err := e.Get(key)
	if err != nil || !found {
		return nil, false, err
	}
	if err := e.db.Delete([]byte(key), e.writeOpts); err != nil {
		return nil, false, err
	}
	return old, true, nil
}

// Ceiling returns the smallest key >= key.
func (e *Engine) Ceiling(key string) (string, any, bool, error) {
	return e.seek(func(it *pebble.Iterator) bool { return it.SeekGE([]byte(key)) })
}

// Floor returns the largest key <= key.
func (e *Engine) Floor(key string) (string, any, bool, error) {
	return e.seek(func(it *pebble.Iterator) bool { return it.SeekLT([]byte(key + "\x00")) })
}

// Higher returns the smallest key > key.
func (e *Engine) Higher(key string) (string, any, bool, error) {
	return e.seek(func(it *pebble.Iterator) bool { return it.SeekGE([]byte(key + "\x00")) })
}

// Lower returns the largest key < key.
func (e *Engine) Lower(key string) (string, any, bool, error) {
	return e.seek(func(it *pebble.Iterator) bool { return it.SeekLT([]byte(key)) })
}

// Last returns the largest key.
func (e *Engine) Last() (string, any, bool, error) {
	return e.seek(func(it *pebble.Iterator) bool { return it.Last() })
}

// Len counts the stored keys.
func (e *Engine) Len() (int, error) {
	if e.db == nil {
		return 0, ErrClosed
	}
	iter, err := e.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	return n, iter.Error()
}

// Close flushes and closes the database.
func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	db := e.db
	e.db = nil
	return db.Close()
}

func (e *Engine) has(key string) (bool, error) {
	_, closer, err := e.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

// seek opens an iterator, positions it with move and decodes the entry
// it lands on.
func (e *Engine) seek(move func(*pebble.Iterator) bool) (string, any, bool, error) {
	if e.db == nil {
		return "", nil, false, ErrClosed
	}
	iter, err := e.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return "", nil, false, err
	}
	defer iter.Close()

	if !move(iter) {
		return "", nil, false, iter.Error()
	}
	key := string(iter.Key())
	v, err := e.codec.Unmarshal(iter.Value())
	if err != nil {
		return "", nil, false, fmt.Errorf("decode %q: %w", key, err)
	}
	return key, v, true, nil
}
