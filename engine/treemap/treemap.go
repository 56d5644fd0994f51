// Package treemap is an in-memory sorted engine backed by a red-black tree.
package treemap

import (
	"errors"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("treemap: engine closed")

// Engine stores keys in a red-black tree ordered bytewise.
type Engine struct {
	tree *redblacktree.Tree
}

// New creates an empty Engine.
func New() *Engine {
	return &Engine{tree: redblacktree.NewWithStringComparator()}
}

// Get returns the value stored under key.
func (e *Engine) Get(key string) (any, bool, error) {
	if e.tree == nil {
		return nil, false, ErrClosed
	}
	v, found := e.tree.Get(key)
	return v, found, nil
}

// Put stores value under key.
func (e *Engine) Put(key string, value any) (bool, error) {
	if e.tree == nil {
		return false, ErrClosed
	}
	_, replaced := e.tree.Get(key)
	e.tree.Put(key, value)
	return replaced, nil
}

// Delete removes key.
func (e *Engine) Delete(key string) (any, bool, error) {
	if e.tree == nil {
		return nil, false, ErrClosed
	}
	old, found := e.tree.Get(key)
	if !found {
		return nil, false, nil
	}
	e.tree.Remove(key)
	return old, true, nil
}

// Ceiling returns the smallest key >= key.
func (e *Engine) Ceiling(key string) (string, any, bool, error) {
	if e.tree == nil {
		return "", nil, false, ErrClosed
	}
	return entry(e.tree.Ceiling(key))
}

// Floor returns the largest key <= key.
func (e *Engine) Floor(key string) (string, any, bool, error) {
	if e.tree == nil {
		return "", nil, false, ErrClosed
	}
	return entry(e.tree.Floor(key))
}

// Higher returns the smallest key > key. key+"\x00" is the smallest string
// ordered after key.
func (e *Engine) Higher(key string) (string, any, bool, error) {
	if e.tree == nil {
		return "", nil, false, ErrClosed
	}
	return entry(e.tree.Ceiling(key + "\x00"))
}

// Lower returns the largest key < key.
func (e *Engine) Lower(key string) (string, any, bool, error) {
	if e.tree == nil {
		return "", nil, false, ErrClosed
	}
	node, found := e.tree.Floor(key)
	if !found {
		return "", nil, false, nil
	}
	if node.Key.(string) == key {
		node = predecessor(node)
	}
	return entry(node, node != nil)
}

// Last returns the largest key.
func (e *Engine) Last() (string, any, bool, error) {
	if e.tree == nil {
		return "", nil, false, ErrClosed
	}
	node := e.tree.Right()
	return entry(node, node != nil)
}

// Len returns the number of stored keys.
func (e *Engine) Len() (int, error) {
	if e.tree == nil {
		return 0, ErrClosed
	}
	return e.tree.Size(), nil
}

// Close drops the tree.
func (e *Engine) Close() error {
	if e.tree != nil {
		e.tree.Clear()
		e.tree = nil
	}
	return nil
}

func entry(node *redblacktree.Node, found bool) (string, any, bool, error) {
	if !found || node == nil {
		return "", nil, false, nil
	}
	return node.Key.(string), node.Value, true, nil
}

// predecessor returns the in-order predecessor of node, or nil.
func predecessor(node *redblacktree.Node) *redblacktree.Node {
	if node.Left != nil {
		n := node.Left
		for n.Right != nil {
			n = n.Right
		}
		return n
	}
	for node.Parent != nil && node == node.Parent.Left {
		node = node.Parent
	}
	return node.Parent
}
