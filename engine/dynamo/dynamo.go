package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/jacentio/judy/internal/shard"
)

// Engine stores keys as sort keys of a DynamoDB table.
type Engine struct {
	client     API
	config     Config
	partitions []string
	now        func() time.Time
	closed     bool
}

// New creates a new Engine. The client stays owned by the caller.
func New(client API, config Config) *Engine {
	config.validate()
	return &Engine{
		client:     client,
		config:     config,
		partitions: shard.Partitions(config.Namespace, config.NumShards),
		now:        time.Now,
	}
}

// Config returns the validated configuration.
func (e *Engine) Config() Config {
	return e.config
}

// partitionKey computes the partition a key is stored under.
func (e *Engine) partitionKey(key string) string {
	return shard.PartitionKey(e.config.Namespace, key, e.config.NumShards)
}

func (e *Engine) primaryKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: e.partitionKey(key)},
		AttrSK: &types.AttributeValueMemberS{Value: key},
	}
}

func (e *Engine) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), e.config.Timeout)
}

// Get returns the value stored under key. Keys the table cannot hold are
// reported as absent.
func (e *Engine) Get(key string) (any, bool, error) {
	if e.closed {
		return nil, false, ErrClosed
	}
	if checkKey(key) != nil {
		return nil, false, nil
	}
	ctx, cancel := e.context()
	defer cancel()

	result, err := e.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(e.config.Table),
		Key:            e.primaryKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, err
	}
	if result.Item == nil || IsExpired(result.Item, e.now()) {
		return nil, false, nil
	}

	item, err := unmarshalItem(result.Item)
	if err != nil {
		return nil, false, err
	}
	return item.Value, true, nil
}

// Put stores value under key.
func (e *Engine) Put(key string, value any) (bool, error) {
	item, err := e.marshalItem(key, value)
	if err != nil {
		return false, err
	}
	ctx, cancel := e.context()
	defer cancel()

	result, err := e.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:    aws.String(e.config.Table),
		Item:         item,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, err
	}
	return len(result.Attributes) > 0 && !IsExpired(result.Attributes, e.now()), nil
}

// Create stores value under key only if the key is absent or expired.
func (e *Engine) Create(key string, value any) (bool, error) {
	return e.conditionalPut(key, value, AbsentCondition())
}

// Update replaces the value under key only if the key is live.
func (e *Engine) Update(key string, value any) (bool, error) {
	return e.conditionalPut(key, value, LiveCondition())
}

func (e *Engine) conditionalPut(key string, value any, condition string) (bool, error) {
	item, err := e.marshalItem(key, value)
	if err != nil {
		return false, err
	}
	ctx, cancel := e.context()
	defer cancel()

	_, err = e.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(e.config.Table),
		Item:                      item,
		ConditionExpression:       aws.String(condition),
		ExpressionAttributeNames:  TTLFilterNames(),
		ExpressionAttributeValues: TTLFilterValues(e.now()),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes key and returns the value it held.
func (e *Engine) Delete(key string) (any, bool, error) {
	if e.closed {
		return nil, false, ErrClosed
	}
	if checkKey(key) != nil {
		return nil, false, nil
	}
	ctx, cancel := e.context()
	defer cancel()

	result, err := e.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(e.config.Table),
		Key:          e.primaryKey(key),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, false, err
	}
	if len(result.Attributes) == 0 || IsExpired(result.Attributes, e.now()) {
		return nil, false, nil
	}

	old, err := unmarshalItem(result.Attributes)
	if err != nil {
		return nil, true, err
	}
	return old.Value, true, nil
}

// bound describes an ordered lookup: the sort key comparison, its operand
// and the scan direction. An empty op matches every key.
type bound struct {
	op      string
	key     string
	forward bool
}

// better reports whether a is closer to the bound than b.
func (b bound) better(a, c string) bool {
	if b.forward {
		return a < c
	}
	return a > c
}

// Ceiling returns the smallest key >= key.
func (e *Engine) Ceiling(key string) (string, any, bool, error) {
	switch {
	case key == "":
		return e.first(bound{forward: true})
	case len(key) > MaxKeyLen:
		return e.first(bound{op: ">", key: key[:MaxKeyLen], forward: true})
	}
	return e.first(bound{op: ">=", key: key, forward: true})
}

// Floor returns the largest key <= key.
func (e *Engine) Floor(key string) (string, any, bool, error) {
	if key == "" {
		return e.none()
	}
	if len(key) > MaxKeyLen {
		key = key[:MaxKeyLen]
	}
	return e.first(bound{op: "<=", key: key})
}

// Higher returns the smallest key > key.
func (e *Engine) Higher(key string) (string, any, bool, error) {
	if key == "" {
		return e.first(bound{forward: true})
	}
	if len(key) > MaxKeyLen {
		key = key[:MaxKeyLen]
	}
	return e.first(bound{op: ">", key: key, forward: true})
}

// Lower returns the largest key < key.
func (e *Engine) Lower(key string) (string, any, bool, error) {
	switch {
	case key == "":
		return e.none()
	case len(key) > MaxKeyLen:
		return e.first(bound{op: "<=", key: key[:MaxKeyLen]})
	}
	return e.first(bound{op: "<", key: key})
}

// Last returns the largest key.
func (e *Engine) Last() (string, any, bool, error) {
	return e.first(bound{})
}

func (e *Engine) none() (string, any, bool, error) {
	if e.closed {
		return "", nil, false, ErrClosed
	}
	return "", nil, false, nil
}

// first returns the live item closest to b across all partitions.
func (e *Engine) first(b bound) (string, any, bool, error) {
	if e.closed {
		return "", nil, false, ErrClosed
	}
	ctx, cancel := e.context()
	defer cancel()

	var (
		mu   sync.Mutex
		best *Item
	)
	err := e.eachPartition(ctx, func(ctx context.Context, pk string) error {
		item, ok, err := e.firstInPartition(ctx, pk, b)
		if err != nil || !ok {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		if best == nil || b.better(item.Key, best.Key) {
			best = &item
		}
		return nil
	})
	if err != nil {
		return "", nil, false, err
	}
	if best == nil {
		return "", nil, false, nil
	}
	return best.Key, best.Value, true, nil
}

func (e *Engine) firstInPartition(ctx context.Context, pk string, b bound) (Item, bool, error) {
	keyCond := "pk = :pk"
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
	}
	if b.op != "" {
		keyCond += " AND sk " + b.op + " :sk"
		values[":sk"] = &types.AttributeValueMemberS{Value: b.key}
	}

	// Expired items still come back from a query, so read a few at a time
	// until a live one turns up.
	pageSize := int32(1)
	if e.config.TTL > 0 {
		pageSize = 16
	}

	paginator := dynamodb.NewQueryPaginator(e.client, &dynamodb.QueryInput{
		TableName:                 aws.String(e.config.Table),
		KeyConditionExpression:    aws.String(keyCond),
		ExpressionAttributeValues: values,
		ScanIndexForward:          aws.Bool(b.forward),
		ConsistentRead:            aws.Bool(true),
		Limit:                     aws.Int32(pageSize),
	})

	now := e.now()
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return Item{}, false, err
		}
		for _, raw := range page.Items {
			if IsExpired(raw, now) {
				continue
			}
			item, err := unmarshalItem(raw)
			if err != nil {
				return Item{}, false, err
			}
			return item, true, nil
		}
	}
	return Item{}, false, nil
}

// Len counts the live items of the namespace.
func (e *Engine) Len() (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	ctx, cancel := e.context()
	defer cancel()

	now := e.now()
	var (
		mu    sync.Mutex
		total int
	)
	err := e.eachPartition(ctx, func(ctx context.Context, pk string) error {
		paginator := dynamodb.NewQueryPaginator(e.client, &dynamodb.QueryInput{
			TableName:                aws.String(e.config.Table),
			KeyConditionExpression:   aws.String("pk = :pk"),
			FilterExpression:         aws.String(TTLFilterExpr()),
			ExpressionAttributeNames: TTLFilterNames(),
			ExpressionAttributeValues: mergeExprValues(
				map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: pk}},
				TTLFilterValues(now),
			),
			Select:         types.SelectCount,
			ConsistentRead: aws.Bool(true),
		})

		count := 0
		for paginator.HasMorePages() {
			page, err := paginator.NextPage(ctx)
			if err != nil {
				return err
			}
			count += int(page.Count)
		}

		mu.Lock()
		total += count
		mu.Unlock()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Close marks the engine closed. The DynamoDB client is left untouched.
func (e *Engine) Close() error {
	e.closed = true
	return nil
}

// eachPartition runs fn once per partition, in parallel when sharded.
// The first failure cancels the queries still running.
func (e *Engine) eachPartition(ctx context.Context, fn func(ctx context.Context, pk string) error) error {
	// Fast path for single shard (default)
	if len(e.partitions) == 1 {
		return fn(ctx, e.partitions[0])
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, pk := range e.partitions {
		g.Go(func() error {
			if err := fn(ctx, pk); err != nil {
				return fmt.Errorf("partition %s: %w", pk, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// marshalItem builds the stored form of key and value.
func (e *Engine) marshalItem(key string, value any) (map[string]types.AttributeValue, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if err := checkKey(key); err != nil {
		return nil, err
	}
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	item := e.primaryKey(key)
	item[AttrValue] = av
	if e.config.TTL > 0 {
		expires := e.now().Add(e.config.TTL).Unix()
		item[AttrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expires, 10)}
	}
	return item, nil
}
