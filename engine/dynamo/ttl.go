package dynamo

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// IsExpired checks if an item carries a TTL at or before now.
func IsExpired(item map[string]types.AttributeValue, now time.Time) bool {
	ttlAttr, exists := item[AttrTTL]
	if !exists {
		return false // No TTL = live
	}
	ttlNum, ok := ttlAttr.(*types.AttributeValueMemberN)
	if !ok {
		return false
	}
	ttl, err := strconv.ParseInt(ttlNum.Value, 10, 64)
	if err != nil {
		return false
	}
	return ttl <= now.Unix()
}

// TTLFilterExpr returns the filter expression that excludes expired items.
func TTLFilterExpr() string {
	return "attribute_not_exists(#ttl) OR #ttl > :now"
}

// TTLFilterNames returns expression attribute names for TTL filter.
func TTLFilterNames() map[string]string {
	return map[string]string{"#ttl": AttrTTL}
}

// TTLFilterValues returns expression attribute values for TTL filter.
func TTLFilterValues(now time.Time) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		":now": &types.AttributeValueMemberN{
			Value: strconv.FormatInt(now.Unix(), 10),
		},
	}
}

// LiveCondition returns the condition expression for an item that exists
// and has not expired.
func LiveCondition() string {
	return "attribute_exists(sk) AND (attribute_not_exists(#ttl) OR #ttl > :now)"
}

// AbsentCondition returns the condition expression for an item that is
// missing or expired.
func AbsentCondition() string {
	return "attribute_not_exists(sk) OR #ttl <= :now"
}

// mergeExprValues merges multiple expression attribute value maps.
func mergeExprValues(maps ...map[string]types.AttributeValue) map[string]types.AttributeValue {
	result := make(map[string]types.AttributeValue)
	for _, m := range maps {
		for k, v := range m {
			result[k] = v
		}
	}
	return result
}
