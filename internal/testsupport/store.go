package testsupport

import (
	"context"
	"testing"

	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/config"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/model"
	"github.com/Data-to-Insight-Center/sead-virtual-archive-sub024/internal/sipstore"
)

// MustOpenStore opens a sipstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sipstore.Store {
	t.Helper()

	store, err := sipstore.Open(cfg)
	if err != nil {
		t.Fatalf("sipstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Stager is the subset of staging operations the helpers below need.
type Stager interface {
	AddSIP(ctx context.Context, pkg *model.Package) (string, error)
}

// MustStage stages pkg and returns its submission id.
func MustStage(t testing.TB, stager Stager, pkg *model.Package) string {
	t.Helper()

	id, err := stager.AddSIP(context.Background(), pkg)
	if err != nil {
		t.Fatalf("AddSIP: %v", err)
	}
	return id
}
