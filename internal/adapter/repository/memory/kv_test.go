package memory

import (
	"context"
	"testing"
	"time"
)

func TestKVStoreReadWrite(t *testing.T) {
	s := NewKVStore()
	ctx := context.Background()

	raw, err := s.Read(ctx, "missing")
	if err != nil || raw != nil {
		t.Fatalf("expected nil for missing bucket, got %q err=%v", raw, err)
	}

	payload := []byte(`[{"amount":1}]`)
	if err := s.Write(ctx, "manual_income", payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	payload[0] = 'X'

	raw, err = s.Read(ctx, "manual_income")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(raw) != `[{"amount":1}]` {
		t.Fatalf("stored bucket was aliased to caller slice: %q", raw)
	}
}

func TestKVStoreWatch(t *testing.T) {
	s := NewKVStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func(key string) { got <- key })
	}()

	// Wait until the watcher is registered.
	deadline := time.Now().Add(time.Second)
	for {
		s.mu.RLock()
		n := len(s.watchers)
		s.mu.RUnlock()
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watcher never registered")
		}
		time.Sleep(time.Millisecond)
	}

	if err := s.Write(ctx, "rate_overrides", []byte(`{}`)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case key := <-got:
		if key != "rate_overrides" {
			t.Fatalf("expected rate_overrides, got %s", key)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for change notification")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
