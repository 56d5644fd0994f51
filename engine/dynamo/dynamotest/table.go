// Package dynamotest provides an in-memory stand-in for the DynamoDB
// client used by the dynamo engine.
package dynamotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Attribute names the dynamo engine stores items under.
const (
	attrPK  = "pk"
	attrSK  = "sk"
	attrTTL = "ttl"
)

// Table is an in-memory DynamoDB table that understands the requests the
// dynamo engine sends: key lookups, conditional puts, paginated range
// queries over one partition and the TTL filter.
type Table struct {
	mu      sync.Mutex
	items   map[string]map[string]map[string]types.AttributeValue // pk -> sk -> item
	fail    error
	queries int
}

// New returns an empty Table.
func New() *Table {
	return &Table{items: make(map[string]map[string]map[string]types.AttributeValue)}
}

// Fail makes every later call return err. A nil err restores the table.
func (t *Table) Fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fail = err
}

// Queries returns the number of Query calls served so far.
func (t *Table) Queries() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.queries
}

func attrS(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (t *Table) lookup(key map[string]types.AttributeValue) map[string]types.AttributeValue {
	return t.items[attrS(key, attrPK)][attrS(key, attrSK)]
}

func (t *Table) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return nil, t.fail
	}
	return &dynamodb.GetItemOutput{Item: t.lookup(in.Key)}, nil
}

func (t *Table) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return nil, t.fail
	}

	old := t.lookup(in.Item)
	if in.ConditionExpression != nil {
		ok, err := t.condition(aws.ToString(in.ConditionExpression), old, in.ExpressionAttributeValues)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}

	pk, sk := attrS(in.Item, attrPK), attrS(in.Item, attrSK)
	if t.items[pk] == nil {
		t.items[pk] = make(map[string]map[string]types.AttributeValue)
	}
	t.items[pk][sk] = in.Item

	out := &dynamodb.PutItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

func (t *Table) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return nil, t.fail
	}

	old := t.lookup(in.Key)
	delete(t.items[attrS(in.Key, attrPK)], attrS(in.Key, attrSK))

	out := &dynamodb.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

func (t *Table) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queries++
	if t.fail != nil {
		return nil, t.fail
	}

	values := in.ExpressionAttributeValues
	cond := aws.ToString(in.KeyConditionExpression)
	head, rangeCond, hasRange := strings.Cut(cond, " AND ")
	if head != "pk = :pk" {
		return nil, fmt.Errorf("dynamotest: unsupported key condition %q", cond)
	}
	partition := t.items[attrS(values, ":pk")]

	var op, operand string
	if hasRange {
		parts := strings.Fields(rangeCond)
		if len(parts) != 3 || parts[0] != attrSK || parts[2] != ":sk" {
			return nil, fmt.Errorf("dynamotest: unsupported range condition %q", rangeCond)
		}
		op, operand = parts[1], attrS(values, ":sk")
	}

	keys := make([]string, 0, len(partition))
	for sk := range partition {
		if !hasRange || compare(sk, op, operand) {
			keys = append(keys, sk)
		}
	}
	sort.Strings(keys)
	if in.ScanIndexForward != nil && !*in.ScanIndexForward {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	if in.ExclusiveStartKey != nil {
		start := attrS(in.ExclusiveStartKey, attrSK)
		for i, sk := range keys {
			if sk == start {
				keys = keys[i+1:]
				break
			}
		}
	}

	out := &dynamodb.QueryOutput{}
	if in.Limit != nil && int(*in.Limit) < len(keys) {
		keys = keys[:*in.Limit]
		last := partition[keys[len(keys)-1]]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			attrPK: last[attrPK],
			attrSK: last[attrSK],
		}
	}

	for _, sk := range keys {
		item := partition[sk]
		out.ScannedCount++
		if in.FilterExpression != nil {
			if aws.ToString(in.FilterExpression) != ttlFilter {
				return nil, fmt.Errorf("dynamotest: unsupported filter %q", aws.ToString(in.FilterExpression))
			}
			if expiredAt(item, values) {
				continue
			}
		}
		out.Count++
		if in.Select != types.SelectCount {
			out.Items = append(out.Items, item)
		}
	}
	return out, nil
}

func (t *Table) condition(expr string, old, values map[string]types.AttributeValue) (bool, error) {
	live := old != nil && !expiredAt(old, values)
	switch {
	case strings.HasPrefix(expr, "attribute_exists("+attrSK+")"):
		return live, nil
	case strings.HasPrefix(expr, "attribute_not_exists("+attrSK+")"):
		return !live, nil
	}
	return false, fmt.Errorf("dynamotest: unsupported condition %q", expr)
}

// Len returns the number of stored items, expired ones included.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, p := range t.items {
		n += len(p)
	}
	return n
}

const ttlFilter = "attribute_not_exists(#ttl) OR #ttl > :now"

// expiredAt evaluates the ttl attribute against the request's :now value.
func expiredAt(item, values map[string]types.AttributeValue) bool {
	ttl, ok := item[attrTTL].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	now, ok := values[":now"].(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	var t, n int64
	fmt.Sscan(ttl.Value, &t)
	fmt.Sscan(now.Value, &n)
	return t <= n
}

func compare(sk, op, operand string) bool {
	switch op {
	case ">=":
		return sk >= operand
	case ">":
		return sk > operand
	case "<=":
		return sk <= operand
	case "<":
		return sk < operand
	}
	return false
}
