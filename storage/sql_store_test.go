package storage

import (
	"context"
	"fmt"
	"testing"

	"idealista-watcher/utils"
)

// setupTestStore creates an in-memory SQLite store for testing.
func setupTestStore(t *testing.T) *SQLStore {
	t.Helper()

	st, err := OpenSQLite(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSQLStoreSeenEmpty(t *testing.T) {
	st := setupTestStore(t)

	set, err := st.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if set.Size() != 0 {
		t.Errorf("size: got %d, want 0", set.Size())
	}
}

func TestSQLStorePersistOverwrites(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		links []string
	}{
		{name: "initial", links: []string{"https://x/1", "https://x/2"}},
		{name: "grown", links: []string{"https://x/1", "https://x/2", "https://x/3"}},
		{name: "replaced", links: []string{"https://x/9"}},
		{name: "empty", links: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := st.Persist(ctx, utils.NewURLSetFrom(tt.links)); err != nil {
				t.Fatalf("Persist: %v", err)
			}
			got, err := st.Load(ctx)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Size() != len(tt.links) {
				t.Errorf("size: got %d, want %d", got.Size(), len(tt.links))
			}
			for _, l := range tt.links {
				if !got.Contains(l) {
					t.Errorf("missing %s", l)
				}
			}
		})
	}
}

func TestSQLStorePersistLargeSet(t *testing.T) {
	st := setupTestStore(t)
	ctx := context.Background()

	links := make([]string, 0, 123)
	for i := 0; i < 123; i++ {
		links = append(links, fmt.Sprintf("https://x/%d", i))
	}
	if err := st.Persist(ctx, utils.NewURLSetFrom(links)); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	got, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Size() != 123 {
		t.Errorf("size: got %d, want 123", got.Size())
	}
}

func TestSQLStoreErrorState(t *testing.T) {
	es := setupTestStore(t).ErrorState()
	ctx := context.Background()

	status, err := es.Load(ctx)
	if err != nil || status.Code != nil {
		t.Fatalf("fresh store: got %+v, %v", status, err)
	}

	if err := es.RecordError(ctx, 403); err != nil {
		t.Fatalf("RecordError: %v", err)
	}
	if err := es.RecordError(ctx, 403); err != nil {
		t.Fatalf("second RecordError: %v", err)
	}
	status, err = es.Load(ctx)
	if err != nil || !status.IsBlocked(403) {
		t.Fatalf("after RecordError: got %+v, %v", status, err)
	}

	if err := es.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	status, err = es.Load(ctx)
	if err != nil || status.Code != nil {
		t.Errorf("after Clear: got %+v, %v", status, err)
	}
}
