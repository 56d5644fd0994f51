package jhash

// Engine is the sorted associative array a Hash delegates to.
//
// Keys are ordered bytewise. The positional methods return the matching
// key and value with ok set, or ok false when no key qualifies. A non-nil
// error is always an engine fault, never an absent key.
type Engine interface {
	// Get returns the value stored under key.
	Get(key string) (value any, found bool, err error)

	// Put stores value under key and reports whether it replaced an
	// existing value.
	Put(key string, value any) (replaced bool, err error)

	// Delete removes key and returns the value it held.
	Delete(key string) (old any, found bool, err error)

	// Ceiling returns the smallest key >= key.
	Ceiling(key string) (k string, v any, ok bool, err error)

	// Floor returns the largest key <= key.
	Floor(key string) (k string, v any, ok bool, err error)

	// Higher returns the smallest key > key.
	Higher(key string) (k string, v any, ok bool, err error)

	// Lower returns the largest key < key.
	Lower(key string) (k string, v any, ok bool, err error)

	// Last returns the largest key.
	Last() (k string, v any, ok bool, err error)

	// Len returns the number of stored keys.
	Len() (int, error)

	// Close releases the engine.
	Close() error
}

// Creator is implemented by engines that can store a key only if it is
// absent in a single step. Hash.Create uses it when available.
type Creator interface {
	Create(key string, value any) (created bool, err error)
}

// Updater is implemented by engines that can replace a value only if the
// key is present in a single step. Hash.Update uses it when available.
type Updater interface {
	Update(key string, value any) (updated bool, err error)
}
