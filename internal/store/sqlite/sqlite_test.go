package sqlite

import (
	"testing"

	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/store/storetest"
)

func TestSqliteStoreCompliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := New(t.TempDir() + "/records.db")
		if err != nil {
			t.Fatalf("open sqlite store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
