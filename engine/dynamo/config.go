package dynamo

import "time"

// Config holds configuration for an Engine.
type Config struct {
	// Table is the DynamoDB table name. The table needs a string partition
	// key "pk" and a string sort key "sk".
	// Default: "jhash"
	Table string

	// Namespace separates hashes sharing one table.
	// Default: "default"
	Namespace string

	// NumShards is the number of partitions keys are spread across.
	// Higher values raise write throughput; ordered reads query every
	// shard in parallel and merge.
	// Default: 1 (no sharding, single query)
	// Max: 256
	NumShards int

	// TTL stamps every write with an expiry. Expired items read as absent
	// until DynamoDB removes them.
	// Default: 0 (no expiry)
	TTL time.Duration

	// Timeout bounds each engine call.
	// Default: 10s
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults for a single unsharded hash.
func DefaultConfig() Config {
	return Config{
		Table:     "jhash",
		Namespace: "default",
		NumShards: 1,
		Timeout:   10 * time.Second,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.Table == "" {
		c.Table = "jhash"
	}
	if c.Namespace == "" {
		c.Namespace = "default"
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > 256 {
		c.NumShards = 256
	}
	if c.TTL < 0 {
		c.TTL = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}
