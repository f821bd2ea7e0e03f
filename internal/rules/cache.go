// Package rules provides a read-through cache over the stored compliance
// rules. Rule sets change rarely compared to how often they are evaluated,
// so evaluations read from the cache and every rule mutation invalidates it.
package rules

import (
	"context"
	"sync"

	"github.com/flightline/casa-compliance/internal/domain"
	"github.com/flightline/casa-compliance/internal/storage"
)

// Cache caches active rules per target record type.
type Cache struct {
	store storage.Storage

	mu     sync.RWMutex
	byType map[string][]*domain.ComplianceRule
}

// NewCache creates a rule cache backed by the given store.
func NewCache(store storage.Storage) *Cache {
	return &Cache{
		store:  store,
		byType: make(map[string][]*domain.ComplianceRule),
	}
}

// ActiveRules returns the active rules targeting the given record type,
// loading them from storage on a cache miss.
func (c *Cache) ActiveRules(ctx context.Context, recordType string) ([]*domain.ComplianceRule, error) {
	c.mu.RLock()
	rules, ok := c.byType[recordType]
	c.mu.RUnlock()
	if ok {
		return rules, nil
	}

	rules, err := c.store.ListRules(ctx, domain.RuleFilter{
		TargetRecordType: recordType,
		ActiveOnly:       true,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byType[recordType] = rules
	c.mu.Unlock()
	return rules, nil
}

// Invalidate drops all cached rule sets. Called after any rule mutation.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.byType = make(map[string][]*domain.ComplianceRule)
	c.mu.Unlock()
}
