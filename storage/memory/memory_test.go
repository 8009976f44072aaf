package memory_test

import (
	"context"
	"testing"

	"github.com/mihaimyh/goinapp/storage/memory"
)

func TestStorage_GetMissingKey(t *testing.T) {
	s := memory.New()

	value, ok, err := s.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok || value != "" {
		t.Fatalf("absent key returned (%q, %v)", value, ok)
	}
}

func TestStorage_SetGetDelete(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	value, ok, err := s.Get(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Get = (%q, %v, %v)", value, ok, err)
	}
	if value != "v2" {
		t.Fatalf("value = %q, want v2", value)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("deleted key still present")
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("deleting an absent key must be a no-op, got %v", err)
	}
}

func TestStorage_ConcurrentAccess(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			s.Set(ctx, "k", "v")
		}
	}()
	for i := 0; i < 1000; i++ {
		s.Get(ctx, "k")
	}
	<-done
}
