package dynamo

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/judy/engine/dynamo/dynamotest"
	"github.com/jacentio/judy/jhash"
)

var (
	_ jhash.Engine  = (*Engine)(nil)
	_ jhash.Creator = (*Engine)(nil)
	_ jhash.Updater = (*Engine)(nil)
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, cfg Config) (*Engine, *dynamotest.Table, *clock) {
	t.Helper()
	api := dynamotest.New()
	c := &clock{t: time.Unix(1700000000, 0)}
	e := New(api, cfg)
	e.now = c.now
	t.Cleanup(func() { _ = e.Close() })
	return e, api, c
}

func TestNew(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{Namespace: "users", NumShards: 4})

	assert.Equal(t, "jhash", e.Config().Table)
	assert.Equal(t, []string{"users#00", "users#01", "users#02", "users#03"}, e.partitions)
}

func TestPutGet(t *testing.T) {
	e, api, _ := newTestEngine(t, DefaultConfig())

	replaced, err := e.Put("alpha", "one")
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = e.Put("alpha", "two")
	require.NoError(t, err)
	assert.True(t, replaced)

	v, found, err := e.Get("alpha")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "two", v)
	assert.Equal(t, 1, api.Len())

	_, found, err = e.Get("beta")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestValueTypes(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultConfig())

	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"string", "text", "text"},
		{"bytes", []byte{1, 2, 3}, []byte{1, 2, 3}},
		{"nil", nil, nil},
		{"number", 42, float64(42)},
		{"map", map[string]any{"n": "v"}, map[string]any{"n": "v"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Put(tt.name, tt.value)
			require.NoError(t, err)

			v, found, err := e.Get(tt.name)
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestKeyLimits(t *testing.T) {
	e, api, _ := newTestEngine(t, DefaultConfig())
	long := strings.Repeat("k", MaxKeyLen+1)

	_, err := e.Put("", "v")
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = e.Create(long, "v")
	assert.ErrorIs(t, err, ErrKeyTooLong)
	_, err = e.Update("", "v")
	assert.ErrorIs(t, err, ErrEmptyKey)

	_, found, err := e.Get(long)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = e.Delete("")
	require.NoError(t, err)
	assert.False(t, found)

	_, err = e.Put(strings.Repeat("k", MaxKeyLen), "v")
	require.NoError(t, err)
	assert.Equal(t, 1, api.Len())
}

func TestCreateUpdate(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultConfig())

	updated, err := e.Update("k", "v0")
	require.NoError(t, err)
	assert.False(t, updated, "update of a missing key")

	created, err := e.Create("k", "v1")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = e.Create("k", "v2")
	require.NoError(t, err)
	assert.False(t, created, "create of an existing key")

	updated, err = e.Update("k", "v3")
	require.NoError(t, err)
	assert.True(t, updated)

	v, _, err := e.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v3", v)
}

func TestDelete(t *testing.T) {
	e, api, _ := newTestEngine(t, DefaultConfig())

	_, err := e.Put("k", "v")
	require.NoError(t, err)

	old, found, err := e.Delete("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", old)
	assert.Equal(t, 0, api.Len())

	_, found, err = e.Delete("k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestOrderedLookups(t *testing.T) {
	for _, shards := range []int{1, 8} {
		e, _, _ := newTestEngine(t, Config{NumShards: shards})
		for _, k := range []string{"a", "ab", "b", "ba", "c"} {
			_, err := e.Put(k, "value of "+k)
			require.NoError(t, err)
		}

		tests := []struct {
			name string
			move func(string) (string, any, bool, error)
			key  string
			want string // "" means no result
		}{
			{"ceiling empty", e.Ceiling, "", "a"},
			{"ceiling between", e.Ceiling, "aa", "ab"},
			{"ceiling exact", e.Ceiling, "c", "c"},
			{"ceiling past end", e.Ceiling, "d", ""},
			{"floor empty", e.Floor, "", ""},
			{"floor exact", e.Floor, "b", "b"},
			{"floor between", e.Floor, "bz", "ba"},
			{"floor before start", e.Floor, "0", ""},
			{"higher empty", e.Higher, "", "a"},
			{"higher exact", e.Higher, "a", "ab"},
			{"higher last", e.Higher, "c", ""},
			{"lower empty", e.Lower, "", ""},
			{"lower first", e.Lower, "a", ""},
			{"lower exact", e.Lower, "b", "ab"},
			{"lower past end", e.Lower, "zz", "c"},
		}

		for _, tt := range tests {
			k, v, ok, err := tt.move(tt.key)
			require.NoError(t, err, "%d shards: %s", shards, tt.name)
			assert.Equal(t, tt.want != "", ok, "%d shards: %s", shards, tt.name)
			assert.Equal(t, tt.want, k, "%d shards: %s", shards, tt.name)
			if ok {
				assert.Equal(t, "value of "+k, v)
			}
		}

		k, _, ok, err := e.Last()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "c", k)
	}
}

func TestOrderedLookups_Empty(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{NumShards: 4})

	_, _, ok, err := e.Ceiling("")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, ok, err = e.Last()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderedLookups_FanOut(t *testing.T) {
	e, api, _ := newTestEngine(t, Config{NumShards: 4})

	_, _, _, err := e.Ceiling("")
	require.NoError(t, err)
	assert.Equal(t, 4, api.Queries())
}

func TestOrderedLookups_LongBound(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultConfig())
	limit := "m" + strings.Repeat("x", MaxKeyLen-1)
	long := limit + "x"

	for _, k := range []string{"m", limit, "n"} {
		_, err := e.Put(k, k)
		require.NoError(t, err)
	}

	k, _, _, err := e.Ceiling(long)
	require.NoError(t, err)
	assert.Equal(t, "n", k)

	k, _, _, err = e.Higher(long)
	require.NoError(t, err)
	assert.Equal(t, "n", k)

	k, _, _, err = e.Floor(long)
	require.NoError(t, err)
	assert.Equal(t, limit, k)

	k, _, _, err = e.Lower(long)
	require.NoError(t, err)
	assert.Equal(t, limit, k)
}

func TestLen(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{NumShards: 8})

	for _, k := range []string{"a", "b", "c", "d", "e"} {
		_, err := e.Put(k, k)
		require.NoError(t, err)
	}
	_, _, err := e.Delete("c")
	require.NoError(t, err)

	n, err := e.Len()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestTTL(t *testing.T) {
	e, api, c := newTestEngine(t, Config{TTL: time.Minute})

	_, err := e.Put("a", "a")
	require.NoError(t, err)
	_, err = e.Put("x", "x")
	require.NoError(t, err)
	c.advance(30 * time.Second)
	_, err = e.Put("b", "b")
	require.NoError(t, err)

	c.advance(40 * time.Second)

	_, found, err := e.Get("a")
	require.NoError(t, err)
	assert.False(t, found, "expired key reads as absent")

	n, err := e.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, api.Len(), "expired items stay in the table")

	k, _, ok, err := e.Ceiling("")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", k)

	k, _, ok, err = e.Last()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", k)

	updated, err := e.Update("a", "a2")
	require.NoError(t, err)
	assert.False(t, updated)

	created, err := e.Create("a", "a2")
	require.NoError(t, err)
	assert.True(t, created)

	replaced, err := e.Put("x", "x2")
	require.NoError(t, err)
	assert.False(t, replaced)

	v, found, err := e.Get("a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a2", v)
}

func TestAPIErrors(t *testing.T) {
	e, api, _ := newTestEngine(t, Config{NumShards: 2})
	boom := errors.New("throttled")
	api.Fail(boom)

	_, _, err := e.Get("k")
	assert.ErrorIs(t, err, boom)

	_, err = e.Put("k", "v")
	assert.ErrorIs(t, err, boom)

	_, err = e.Create("k", "v")
	assert.ErrorIs(t, err, boom)

	_, _, err = e.Delete("k")
	assert.ErrorIs(t, err, boom)

	_, _, _, err = e.Ceiling("k")
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "partition")

	_, err = e.Len()
	assert.ErrorIs(t, err, boom)
}

// stallingAPI fails queries on one partition and holds the others until
// their context ends.
type stallingAPI struct {
	*dynamotest.Table
	failPK   string
	canceled atomic.Int32
}

func (s *stallingAPI) Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	if pk, ok := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS); ok && pk.Value == s.failPK {
		return nil, errors.New("throttled")
	}
	<-ctx.Done()
	s.canceled.Add(1)
	return nil, ctx.Err()
}

func TestFanOutCancelsOnError(t *testing.T) {
	api := &stallingAPI{Table: dynamotest.New()}
	e := New(api, Config{NumShards: 4, Timeout: time.Minute})
	api.failPK = e.partitions[2]

	start := time.Now()
	_, _, _, err := e.Ceiling("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Contains(t, err.Error(), e.partitions[2])
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, int32(3), api.canceled.Load())
}

func TestInvalidInputThroughHash(t *testing.T) {
	e, api, _ := newTestEngine(t, DefaultConfig())
	var reports int
	h := jhash.New(e, jhash.Config{ErrorPolicy: jhash.ErrorPolicyFunc(func(string, string, error) {
		reports++
	})})

	err := h.Insert("", "v")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, err, jhash.ErrInvalidInput)
	assert.ErrorIs(t, h.Create(strings.Repeat("k", MaxKeyLen+1), "v"), jhash.ErrInvalidInput)

	assert.Zero(t, reports)
	assert.Zero(t, h.Size())
	assert.Zero(t, api.Len())
}

func TestClosed(t *testing.T) {
	e, _, _ := newTestEngine(t, DefaultConfig())
	require.NoError(t, e.Close())

	_, _, err := e.Get("k")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.Put("k", "v")
	assert.ErrorIs(t, err, ErrClosed)
	_, _, err = e.Delete("k")
	assert.ErrorIs(t, err, ErrClosed)
	_, _, _, err = e.Floor("")
	assert.ErrorIs(t, err, ErrClosed)
	_, _, _, err = e.Last()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = e.Len()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHashOverEngine(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{NumShards: 4})
	h := jhash.New(e, jhash.Config{ErrorPolicy: jhash.IgnorePolicy()})

	for _, k := range []string{"pear", "apple", "fig"} {
		require.NoError(t, h.Insert(k, k))
	}
	assert.ErrorIs(t, h.Create("fig", "x"), jhash.ErrAlreadyExists)
	assert.ErrorIs(t, h.Update("kiwi", "x"), jhash.ErrNotFound)
	assert.Equal(t, 3, h.Size())

	var got []string
	it := h.IterFromEnd("")
	for ; it.Valid(); it.Prev() {
		got = append(got, it.Key())
	}
	require.NoError(t, it.Err())
	require.NoError(t, it.Close())
	assert.Equal(t, []string{"pear", "fig", "apple"}, got)

	// A second handle over the same table sees the stored size.
	h2 := jhash.New(New(e.client, e.Config()), jhash.Config{ErrorPolicy: jhash.IgnorePolicy()})
	assert.Equal(t, 3, h2.Size())
}
