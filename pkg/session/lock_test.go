package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/claimdesk/intake/pkg/adapters/memory"
	"github.com/claimdesk/intake/pkg/domain"
	"github.com/claimdesk/intake/pkg/persistence"
	"github.com/claimdesk/intake/pkg/registry"
)

func TestManager_LockLifecycle(t *testing.T) {
	adapter := persistence.New(memory.NewStore(), persistence.WithDebounce(time.Hour))
	mgr := NewManager(registry.Default(), adapter)
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		key := domain.ProgressKey{UserID: fmt.Sprintf("user-%d", i), OrganizationID: "o", Variant: domain.VariantManual}
		_ = mgr.WithLock(ctx, key, func(context.Context) error { return nil })
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory", lockCount)
	}
}
