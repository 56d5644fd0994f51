// Package jhash provides a string-keyed associative container over a
// sorted key-value engine.
//
// A [Hash] keeps its keys in bytewise order, so besides the usual lookups
// it can walk every entry in order and hand out cursors that move in
// either direction. The ordering itself comes from the wrapped [Engine];
// the package ships with an in-memory red-black tree (engine/treemap),
// Pebble (engine/pebblekv) and DynamoDB (engine/dynamo).
//
// # Quick Start
//
//	h := jhash.Init()
//	defer h.Free()
//
//	_ = h.Insert("apple", 1)
//	if err := h.Create("apple", 2); errors.Is(err, jhash.ErrAlreadyExists) {
//	    // still 1
//	}
//
//	_ = h.Map(func(key string, value any) error {
//	    fmt.Println(key, value)
//	    return nil
//	})
//
// # Writes
//
//   - [Hash.Insert] stores a value, replacing what was there
//   - [Hash.Create] stores a value only if the key is absent
//   - [Hash.Update] replaces a value only if the key is present
//   - [Hash.Delete] removes a key
//
// Values are opaque to the Hash. It never copies or frees what a value
// refers to; use [Config.Cleanup] to be told when an entry is dropped by
// Delete or Free.
//
// # Cursors
//
// [Hash.IterFromStart] and [Hash.IterFromEnd] return an [Iter] already
// positioned on an entry. Next and Prev move it one key and report whether
// it is still on an entry. A cursor that found no entry keeps its starting
// key and moves from there.
//
// # Errors
//
// Lookups and writes report their outcome through return values:
//
//   - [ErrNotFound] - Get, Update or Delete on an absent key
//   - [ErrAlreadyExists] - Create on a present key
//   - [ErrClosed] - use after Free
//   - [ErrInvalidInput] - the engine cannot store the key or value
//   - [*EngineError] - the engine failed
//
// Engines mark rejected keys and values with [InputError]; those go back to
// the caller only. Engine failures are also handed to the configured
// [ErrorPolicy], which
// can log them ([StderrPolicy]), log and exit ([StderrExitPolicy]), log and
// crash with a core dump ([StderrDumpCorePolicy]) or drop them
// ([IgnorePolicy]). Each Hash carries its own policy.
//
// # Thread Safety
//
// A Hash and its cursors are not safe for concurrent use.
package jhash
