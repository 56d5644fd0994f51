package dynamo

import (
	"errors"

	"github.com/jacentio/judy/jhash"
)

var (
	// ErrEmptyKey is returned for the empty key, which DynamoDB cannot store
	// as a sort key.
	ErrEmptyKey error = jhash.InputError("dynamo: empty key")

	// ErrKeyTooLong is returned for keys longer than MaxKeyLen bytes.
	ErrKeyTooLong error = jhash.InputError("dynamo: key exceeds sort key limit")

	// ErrUnsupportedValue is returned for values attributevalue cannot
	// marshal.
	ErrUnsupportedValue error = jhash.InputError("dynamo: unsupported value type")

	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("dynamo: engine closed")
)
