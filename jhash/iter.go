package jhash

// Iter is a cursor over the keys of a Hash in sorted order.
//
// A new Iter is positioned on its first entry:
//
//	it := h.IterFromStart("")
//	defer it.Close()
//	for ; it.Valid(); it.Next() {
//	    fmt.Println(it.Key(), it.Value())
//	}
//	if err := it.Err(); err != nil {
//	    return err
//	}
//
// When a move runs off either end the cursor keeps its last key and
// value, Valid reports false and later moves continue from that key.
// A cursor created where no entry matches holds its starting key instead,
// so it can still move once entries exist on either side of it.
type Iter struct {
	hash      *Hash
	key       string
	value     any
	anchored  bool
	atEnd     bool
	valid     bool
	closed    bool
	maxKeyLen int
	err       error
}

// IterFromStart returns a cursor on the first key >= start.
// An empty start begins at the smallest key.
func (h *Hash) IterFromStart(start string) *Iter {
	it := &Iter{hash: h}
	if h.closed {
		it.err = ErrClosed
		return it
	}
	k, v, ok, err := h.engine.Ceiling(start)
	it.position("IterFromStart", start, false, k, v, ok, err)
	return it
}

// IterFromEnd returns a cursor on the last key <= start.
// An empty start begins at the largest key.
func (h *Hash) IterFromEnd(start string) *Iter {
	it := &Iter{hash: h}
	if h.closed {
		it.err = ErrClosed
		return it
	}
	var (
		k   string
		v   any
		ok  bool
		err error
	)
	if start == "" {
		k, v, ok, err = h.engine.Last()
	} else {
		k, v, ok, err = h.engine.Floor(start)
	}
	it.position("IterFromEnd", start, true, k, v, ok, err)
	return it
}

// Next moves to the following key and reports whether the cursor is valid.
func (it *Iter) Next() bool {
	if !it.movable() {
		return false
	}
	if it.atEnd {
		it.valid = false
		return false
	}
	k, v, ok, err := it.hash.engine.Higher(it.key)
	return it.land("IterNext", k, v, ok, err)
}

// Prev moves to the preceding key and reports whether the cursor is valid.
func (it *Iter) Prev() bool {
	if !it.movable() {
		return false
	}
	var (
		k   string
		v   any
		ok  bool
		err error
	)
	if it.atEnd {
		k, v, ok, err = it.hash.engine.Last()
	} else {
		k, v, ok, err = it.hash.engine.Lower(it.key)
	}
	return it.land("IterPrev", k, v, ok, err)
}

// Valid reports whether the cursor is on an entry.
func (it *Iter) Valid() bool {
	return it.valid
}

// Key returns the key under the cursor.
func (it *Iter) Key() string {
	return it.key
}

// Value returns the value under the cursor. The Hash does not own it.
func (it *Iter) Value() any {
	return it.value
}

// MaxKeyLen returns the length of the longest key this cursor visited.
func (it *Iter) MaxKeyLen() int {
	return it.maxKeyLen
}

// Err returns the error that stopped the cursor, if any. Running off
// either end is not an error.
func (it *Iter) Err() error {
	return it.err
}

// Close releases the cursor.
func (it *Iter) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.valid = false
	it.value = nil
	return nil
}

func (it *Iter) movable() bool {
	switch {
	case it.closed, it.hash.closed:
		it.valid = false
		it.err = ErrClosed
		return false
	case it.err != nil, !it.anchored:
		return false
	}
	return true
}

// position places a new cursor. When nothing matches, the cursor holds
// start, or the very end for IterFromEnd(""), and is not valid.
func (it *Iter) position(api, start string, fromEnd bool, k string, v any, ok bool, err error) {
	it.hash.seen(start)
	if it.land(api, k, v, ok, err) || it.err != nil {
		return
	}
	it.key, it.anchored = start, true
	it.atEnd = fromEnd && start == ""
}

func (it *Iter) land(api, k string, v any, ok bool, err error) bool {
	if err != nil {
		it.valid = false
		it.err = it.hash.fault(api, "move cursor", err)
		return false
	}
	if !ok {
		it.valid = false
		return false
	}
	it.key, it.value = k, v
	it.anchored, it.valid = true, true
	it.atEnd = false
	if len(k) > it.maxKeyLen {
		it.maxKeyLen = len(k)
	}
	it.hash.seen(k)
	return true
}
