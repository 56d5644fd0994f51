package jhash

import (
	"errors"
	"fmt"
	"iter"

	"github.com/jacentio/judy/engine/treemap"
)

// MapFunc is called by Map once per entry in ascending key order.
// Returning StopMap ends the walk without error; any other non-nil error
// ends it and is returned by Map.
type MapFunc func(key string, value any) error

// Hash is a string-keyed associative container over a sorted Engine.
//
// A Hash is not safe for concurrent use; callers serialize access to a
// handle.
type Hash struct {
	engine    Engine
	config    Config
	metrics   *metrics
	size      int
	maxKeyLen int
	closed    bool
}

// New creates a Hash over engine. The initial size is taken from the
// engine, so a Hash can wrap an engine that already holds data.
func New(engine Engine, config Config) *Hash {
	config.validate()
	h := &Hash{
		engine:  engine,
		config:  config,
		metrics: newMetrics(config.Registerer),
	}

	n, err := engine.Len()
	if err != nil {
		_ = h.fault("New", "count entries", err)
		return h
	}
	h.size = n
	return h
}

// Init creates an empty in-memory Hash with the default configuration.
func Init() *Hash {
	return New(treemap.New(), DefaultConfig())
}

// Size returns the number of keys stored.
func (h *Hash) Size() int {
	return h.size
}

// MaxKeyLen returns the length of the longest key passed to or returned
// from this handle.
func (h *Hash) MaxKeyLen() int {
	return h.maxKeyLen
}

// Get returns the value stored under key, or ErrNotFound.
func (h *Hash) Get(key string) (value any, err error) {
	defer func() { h.metrics.observe("get", err) }()
	if h.closed {
		return nil, ErrClosed
	}
	h.seen(key)

	v, found, err := h.engine.Get(key)
	if err != nil {
		return nil, h.fault("Get", "retrieve key", err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return v, nil
}

// Insert stores value under key, replacing any existing value.
func (h *Hash) Insert(key string, value any) (err error) {
	defer func() { h.metrics.observe("insert", err) }()
	if h.closed {
		return ErrClosed
	}
	h.seen(key)

	replaced, err := h.engine.Put(key, value)
	if err != nil {
		return h.fault("Insert", "store key", err)
	}
	if !replaced {
		h.size++
	}
	return nil
}

// Create stores value under key only if key is absent.
// It returns ErrAlreadyExists and leaves the stored value alone otherwise.
func (h *Hash) Create(key string, value any) (err error) {
	defer func() { h.metrics.observe("create", err) }()
	if h.closed {
		return ErrClosed
	}
	h.seen(key)

	if c, ok := h.engine.(Creator); ok {
		created, err := c.Create(key, value)
		if err != nil {
			return h.fault("Create", "store new key", err)
		}
		if !created {
			return ErrAlreadyExists
		}
		h.size++
		return nil
	}

	_, found, err := h.engine.Get(key)
	if err != nil {
		return h.fault("Create", "probe key", err)
	}
	if found {
		return ErrAlreadyExists
	}
	if _, err := h.engine.Put(key, value); err != nil {
		return h.fault("Create", "store new key", err)
	}
	h.size++
	return nil
}

// Update replaces the value stored under key, or returns ErrNotFound.
func (h *Hash) Update(key string, value any) (err error) {
	defer func() { h.metrics.observe("update", err) }()
	if h.closed {
		return ErrClosed
	}
	h.seen(key)

	if u, ok := h.engine.(Updater); ok {
		updated, err := u.Update(key, value)
		if err != nil {
			return h.fault("Update", "replace key", err)
		}
		if !updated {
			return ErrNotFound
		}
		return nil
	}

	_, found, err := h.engine.Get(key)
	if err != nil {
		return h.fault("Update", "probe key", err)
	}
	if !found {
		return ErrNotFound
	}
	if _, err := h.engine.Put(key, value); err != nil {
		return h.fault("Update", "replace key", err)
	}
	return nil
}

// Delete removes key, or returns ErrNotFound. The cleanup callback, if
// configured, receives the removed entry.
func (h *Hash) Delete(key string) (err error) {
	defer func() { h.metrics.observe("delete", err) }()
	if h.closed {
		return ErrClosed
	}
	h.seen(key)

	old, found, err := h.engine.Delete(key)
	if err != nil {
		return h.fault("Delete", "remove key", err)
	}
	if !found {
		return ErrNotFound
	}
	h.size--
	if h.config.Cleanup != nil {
		h.config.Cleanup(key, old)
	}
	return nil
}

// Map calls fn for every entry in ascending key order.
//
// fn may modify the Hash; the walk resumes after the last key it visited.
func (h *Hash) Map(fn MapFunc) (err error) {
	defer func() { h.metrics.observe("map", err) }()
	if h.closed {
		return ErrClosed
	}

	k, v, ok, err := h.engine.Ceiling("")
	for {
		if err != nil {
			return h.fault("Map", "walk entries", err)
		}
		if !ok {
			return nil
		}
		h.seen(k)
		if err := fn(k, v); err != nil {
			if errors.Is(err, StopMap) {
				return nil
			}
			return err
		}
		if h.closed {
			return ErrClosed
		}
		k, v, ok, err = h.engine.Higher(k)
	}
}

// All returns an iterator over every entry in ascending key order.
// Engine faults end the sequence early and go to the error policy.
func (h *Hash) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		_ = h.Map(func(k string, v any) error {
			if !yield(k, v) {
				return StopMap
			}
			return nil
		})
	}
}

// Free drops every entry, passing each to the cleanup callback, and closes
// the engine. Calling Free again is a no-op.
func (h *Hash) Free() (err error) {
	if h.closed {
		return nil
	}
	defer func() { h.metrics.observe("free", err) }()

	var walkErr error
	if h.config.Cleanup != nil {
		walkErr = h.Map(func(k string, v any) error {
			h.config.Cleanup(k, v)
			return nil
		})
	}

	size := h.size
	h.closed = true
	h.size = 0
	if err := h.engine.Close(); err != nil {
		return h.fault("Free", "close engine", err)
	}
	h.config.Logger.Debug("hash freed",
		"entries", size,
		"maxKeyLen", h.maxKeyLen,
	)
	return walkErr
}

// fault hands an engine error to the error policy and wraps it for the caller.
// Rejected keys and values go straight back to the caller.
func (h *Hash) fault(api, message string, err error) error {
	if errors.Is(err, ErrInvalidInput) {
		return fmt.Errorf("jhash: %s: %w", api, err)
	}
	h.config.ErrorPolicy.Report(api, message, err)
	return &EngineError{API: api, Message: message, cause: err}
}

func (h *Hash) seen(key string) {
	if len(key) > h.maxKeyLen {
		h.maxKeyLen = len(key)
	}
}
