package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute names of a stored item.
const (
	AttrPK    = "pk"
	AttrSK    = "sk"
	AttrValue = "v"
	AttrTTL   = "ttl"
)

// MaxKeyLen is the longest key DynamoDB accepts as a sort key, in bytes.
const MaxKeyLen = 1024

// API is the subset of the DynamoDB client the engine uses.
// *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Item represents a stored key and its decoded value.
type Item struct {
	// Key is the hash key (the table's sort key).
	Key string

	// Value is the decoded value.
	Value any

	// PK is the partition the item lives in.
	PK string

	// TTL is the expiry as Unix seconds, or 0.
	TTL int64
}

// unmarshalItem converts a DynamoDB item to an Item.
func unmarshalItem(raw map[string]types.AttributeValue) (Item, error) {
	var item Item
	if v, ok := raw[AttrSK].(*types.AttributeValueMemberS); ok {
		item.Key = v.Value
	}
	if v, ok := raw[AttrPK].(*types.AttributeValueMemberS); ok {
		item.PK = v.Value
	}
	if v, ok := raw[AttrTTL].(*types.AttributeValueMemberN); ok {
		item.TTL, _ = strconv.ParseInt(v.Value, 10, 64)
	}
	if av, ok := raw[AttrValue]; ok {
		if err := attributevalue.Unmarshal(av, &item.Value); err != nil {
			return Item{}, fmt.Errorf("unmarshal value of %q: %w", item.Key, err)
		}
	}
	return item, nil
}

func checkKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if len(key) > MaxKeyLen {
		return ErrKeyTooLong
	}
	return nil
}
