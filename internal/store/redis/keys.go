package redis

import (
	"fmt"
	"strings"
)

// DefaultKeyPrefix namespaces every key written by qrforge.
const DefaultKeyPrefix = "qrforge"

// Keyspace maps logical store keys onto prefixed Redis keys.
type Keyspace struct {
	prefix string
}

// NewKeyspace normalises prefix; an empty prefix selects DefaultKeyPrefix.
func NewKeyspace(prefix string) Keyspace {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return Keyspace{prefix: prefix + ":"}
}

// Key returns the Redis key for a logical key.
func (k Keyspace) Key(name string) string {
	return k.prefix + name
}

// Pattern matches every key in the keyspace.
func (k Keyspace) Pattern() string {
	return k.prefix + "*"
}

// Extract returns the logical key from a Redis key.
func (k Keyspace) Extract(key string) (string, error) {
	if len(key) <= len(k.prefix) || !strings.HasPrefix(key, k.prefix) {
		return "", fmt.Errorf("invalid key for prefix %q: %s", k.prefix, key)
	}
	return key[len(k.prefix):], nil
}
