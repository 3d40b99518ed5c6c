package check_entitlement

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/domain"
)

var _ contracts.EntitlementChecker = (*StaticChecker)(nil)

// StaticChecker is an in-memory EntitlementChecker for tests and previews
type StaticChecker struct {
	mu       sync.RWMutex
	entitled map[string]bool
}

func NewStaticChecker(entitled ...string) *StaticChecker {
	c := &StaticChecker{entitled: make(map[string]bool, len(entitled))}
	for _, id := range entitled {
		c.entitled[id] = true
	}
	return c
}

// Set grants or revokes the entitlement of userID
func (c *StaticChecker) Set(userID string, entitled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entitled[userID] = entitled
}

func (c *StaticChecker) IsEntitled(_ context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("%w: user id cannot be empty", domain.ErrInvalidArgument)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entitled[userID], nil
}
