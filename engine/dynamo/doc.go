// Package dynamo is a sorted engine stored in a DynamoDB table.
//
// Keys become the sort key of a partition, so DynamoDB keeps them in
// bytewise order and range queries give the positional lookups a
// jhash.Hash needs.
//
// # Table Schema
//
//	pk  (S, partition key)  namespace#NN shard
//	sk  (S, sort key)       hash key
//	v                       value, marshaled with attributevalue
//	ttl (N)                 optional expiry, Unix seconds
//
// Several hashes can share a table under different namespaces.
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards for higher write throughput:
//
//	cfg := dynamo.DefaultConfig()
//	cfg.Namespace = "sessions"
//	cfg.NumShards = 16
//	engine := dynamo.New(client, cfg)
//	h := jhash.New(engine, jhash.DefaultConfig())
//
// With NumShards > 1 every ordered lookup queries all shards in parallel
// and keeps the closest key.
//
// # Expiry
//
// Setting [Config.TTL] stamps writes with a ttl attribute. Enable DynamoDB
// TTL on that attribute to have expired items removed; until then they read
// as absent. The stream package turns those removals into cleanup calls.
//
// # Errors
//
//   - [ErrEmptyKey] - DynamoDB cannot store an empty sort key
//   - [ErrKeyTooLong] - key longer than [MaxKeyLen]
//   - [ErrClosed] - use after Close
package dynamo
