// Package shard provides partition key generation for sharded DynamoDB tables.
package shard

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// PartitionKey computes the partition a key is stored under.
// With numShards=1, all keys go to shard "00".
// With numShards>1, keys are distributed across shards based on their hash.
func PartitionKey(namespace, key string, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("%s#00", namespace)
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", namespace, shard)
}

// Partitions returns every partition key of namespace, in shard order.
func Partitions(namespace string, numShards int) []string {
	if numShards <= 1 {
		return []string{fmt.Sprintf("%s#00", namespace)}
	}
	out := make([]string, numShards)
	for i := range out {
		out[i] = fmt.Sprintf("%s#%02x", namespace, i)
	}
	return out
}

// Namespace extracts the namespace from a partition key.
// It returns pk unchanged if pk carries no shard suffix.
func Namespace(pk string) string {
	i := strings.LastIndexByte(pk, '#')
	if i < 0 || len(pk)-i != 3 {
		return pk
	}
	return pk[:i]
}
