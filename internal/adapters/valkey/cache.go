// Package valkey stores serialized directory reads in Valkey.
package valkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// DefaultKeyPrefix namespaces every key written by the service.
const DefaultKeyPrefix = "clinicmap:"

// scanBatch is the COUNT hint used when evicting by prefix.
const scanBatch = 200

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`)

// Cache is a ports.CacheService backed by a Valkey client.
type Cache struct {
	client valkey.Client
	prefix string
}

// New connects to addr. An empty keyPrefix selects DefaultKeyPrefix.
func New(addr, keyPrefix string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("valkey connect %s: %w", addr, err)
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &Cache{client: client, prefix: keyPrefix}, nil
}

// Get returns domain.ErrNotFound on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
	switch {
	case valkey.IsValkeyNil(err):
		return nil, domain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("valkey get %s: %w", key, err)
	}
	return b, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	cmd := c.client.B().Set().Key(c.prefix + key).Value(valkey.BinaryString(value)).
		Ex(time.Duration(ttlSeconds) * time.Second).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Do(ctx, c.client.B().Del().Key(c.prefix+key).Build()).Error(); err != nil {
		return fmt.Errorf("valkey del %s: %w", key, err)
	}
	return nil
}

// DeletePrefix unlinks every key starting with prefix, scanning in batches.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := globEscaper.Replace(c.prefix+prefix) + "*"
	var cursor uint64
	for {
		entry, err := c.client.Do(ctx, c.client.B().Scan().Cursor(cursor).
			Match(pattern).Count(scanBatch).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("valkey scan %s: %w", prefix, err)
		}
		if len(entry.Elements) > 0 {
			if err := c.client.Do(ctx, c.client.B().Unlink().Key(entry.Elements...).Build()).Error(); err != nil {
				return fmt.Errorf("valkey unlink %s: %w", prefix, err)
			}
		}
		if entry.Cursor == 0 {
			return nil
		}
		cursor = entry.Cursor
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Do(ctx, c.client.B().Ping().Build()).Error()
}

func (c *Cache) Close() {
	c.client.Close()
}
