package jhash_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/judy/engine/treemap"
	"github.com/jacentio/judy/jhash"
)

func filled(t *testing.T, ks ...string) *jhash.Hash {
	t.Helper()
	h := newHash(t)
	for _, k := range ks {
		require.NoError(t, h.Insert(k, "v:"+k))
	}
	return h
}

func forward(it *jhash.Iter) []string {
	var out []string
	for ; it.Valid(); it.Next() {
		out = append(out, it.Key())
	}
	return out
}

func backward(it *jhash.Iter) []string {
	var out []string
	for ; it.Valid(); it.Prev() {
		out = append(out, it.Key())
	}
	return out
}

func TestIterMatchesMap(t *testing.T) {
	h := filled(t, "m", "a", "z", "ab", "", "b")

	it := h.IterFromStart("")
	defer it.Close()

	assert.Equal(t, keys(t, h), forward(it))
	assert.NoError(t, it.Err())
}

func TestIterFromEndDescending(t *testing.T) {
	in := []string{"m", "a", "z", "ab", "b"}
	h := filled(t, in...)

	it := h.IterFromEnd("")
	defer it.Close()

	want := append([]string(nil), in...)
	sort.Sort(sort.Reverse(sort.StringSlice(want)))
	assert.Equal(t, want, backward(it))
}

func TestIterStartingPoints(t *testing.T) {
	h := filled(t, "b", "d", "f")

	next := (*jhash.Iter).Next
	prev := (*jhash.Iter).Prev

	tests := []struct {
		name   string
		it     *jhash.Iter
		want   string
		wantOK bool
		move   func(*jhash.Iter) bool
		then   string
		thenOK bool
	}{
		{"start exact", h.IterFromStart("d"), "d", true, next, "f", true},
		{"start between", h.IterFromStart("c"), "d", true, prev, "b", true},
		{"start past end", h.IterFromStart("g"), "g", false, next, "g", false},
		{"start past end then prev", h.IterFromStart("g"), "g", false, prev, "f", true},
		{"end exact", h.IterFromEnd("d"), "d", true, prev, "b", true},
		{"end between", h.IterFromEnd("e"), "d", true, next, "f", true},
		{"end before all", h.IterFromEnd("a"), "a", false, prev, "a", false},
		{"end before all then next", h.IterFromEnd("a"), "a", false, next, "b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer tt.it.Close()
			assert.Equal(t, tt.wantOK, tt.it.Valid())
			assert.Equal(t, tt.want, tt.it.Key())
			if tt.wantOK {
				assert.Equal(t, "v:"+tt.want, tt.it.Value())
			}

			assert.Equal(t, tt.thenOK, tt.move(tt.it))
			assert.Equal(t, tt.then, tt.it.Key())
			assert.NoError(t, tt.it.Err())
		})
	}
}

func TestIterOnEmptyHashSeesLaterInserts(t *testing.T) {
	h := newHash(t)

	first := h.IterFromStart("")
	defer first.Close()
	last := h.IterFromEnd("")
	defer last.Close()
	require.False(t, first.Valid())
	require.False(t, last.Valid())

	require.NoError(t, h.Insert("m", "v:m"))
	require.NoError(t, h.Insert("x", "v:x"))

	require.True(t, first.Next())
	assert.Equal(t, "m", first.Key())

	assert.False(t, last.Next())
	require.True(t, last.Prev())
	assert.Equal(t, "x", last.Key())
	require.True(t, last.Prev())
	assert.Equal(t, "m", last.Key())
}

func TestIterExhaustedKeepsPosition(t *testing.T) {
	h := filled(t, "a", "b", "c")

	it := h.IterFromStart("b")
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, "c", it.Key())

	assert.False(t, it.Next())
	assert.False(t, it.Valid())
	assert.NoError(t, it.Err())
	assert.Equal(t, "c", it.Key())

	assert.False(t, it.Next())

	require.True(t, it.Prev())
	assert.Equal(t, "b", it.Key())
}

func TestIterEmptyHash(t *testing.T) {
	h := newHash(t)

	for _, it := range []*jhash.Iter{h.IterFromStart(""), h.IterFromEnd("")} {
		assert.False(t, it.Valid())
		assert.False(t, it.Next())
		assert.False(t, it.Prev())
		assert.NoError(t, it.Err())
		require.NoError(t, it.Close())
	}
}

func TestIterSeesConcurrentWrites(t *testing.T) {
	h := filled(t, "a", "c")

	it := h.IterFromStart("")
	defer it.Close()
	require.Equal(t, "a", it.Key())

	require.NoError(t, h.Insert("b", "v:b"))
	require.NoError(t, h.Delete("c"))

	require.True(t, it.Next())
	assert.Equal(t, "b", it.Key())
	assert.False(t, it.Next())
}

func TestIterMaxKeyLen(t *testing.T) {
	h := filled(t, "a", "abcd", "ab")

	it := h.IterFromStart("ab")
	defer it.Close()
	assert.Equal(t, 2, it.MaxKeyLen())

	forward(it)
	assert.Equal(t, 4, it.MaxKeyLen())
}

func TestIterClose(t *testing.T) {
	h := filled(t, "a", "b")

	it := h.IterFromStart("")
	require.NoError(t, it.Close())
	require.NoError(t, it.Close())

	assert.False(t, it.Valid())
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), jhash.ErrClosed)
}

func TestIterAfterFree(t *testing.T) {
	h := jhash.New(treemap.New(), jhash.DefaultConfig())
	require.NoError(t, h.Insert("a", nil))
	require.NoError(t, h.Insert("b", nil))

	it := h.IterFromStart("")
	require.True(t, it.Valid())
	require.NoError(t, h.Free())

	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), jhash.ErrClosed)

	late := h.IterFromEnd("")
	assert.False(t, late.Valid())
	assert.ErrorIs(t, late.Err(), jhash.ErrClosed)
}

func TestIterEngineFault(t *testing.T) {
	var reports []report
	e := &faultyEngine{Engine: treemap.New(), fail: map[string]bool{}}
	h := jhash.New(e, recordingConfig(&reports))
	defer h.Free()
	require.NoError(t, h.Insert("a", nil))
	require.NoError(t, h.Insert("b", nil))

	it := h.IterFromStart("")
	defer it.Close()

	e.fail["higher"] = true
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), errBoom)
	require.Len(t, reports, 1)
	assert.Equal(t, "IterNext", reports[0].api)

	e.fail["higher"] = false
	assert.False(t, it.Next())
}
