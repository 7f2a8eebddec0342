package manager

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBeginGeneration_SerializesCompute(t *testing.T) {
	m := newTestManager(t, newFakeLoader())
	release, err := m.BeginGeneration(testCtx(t))
	if err != nil {
		t.Fatalf("first BeginGeneration: %v", err)
	}
	if s := m.Status(); s.Inflight != 1 || s.QueueLen != 1 {
		t.Fatalf("unexpected counters %+v", s)
	}

	// second caller times out waiting for the single generation slot
	_, err = m.BeginGeneration(testCtx(t))
	if !IsTooBusy(err) {
		t.Fatalf("expected too busy, got %v", err)
	}
	release()

	release2, err := m.BeginGeneration(testCtx(t))
	if err != nil {
		t.Fatalf("after release: %v", err)
	}
	release2()
	if s := m.Status(); s.Inflight != 0 || s.QueueLen != 0 {
		t.Fatalf("slots leaked: %+v", s)
	}
}

func TestBeginGeneration_QueueFull(t *testing.T) {
	m := NewWithConfig(ManagerConfig{MaxQueueDepth: 1, MaxWait: 30 * time.Millisecond})
	release, err := m.BeginGeneration(testCtx(t))
	if err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}
	defer release()

	start := time.Now()
	_, err = m.BeginGeneration(testCtx(t))
	if !IsTooBusy(err) {
		t.Fatalf("expected too busy, got %v", err)
	}
	if time.Since(start) < 25*time.Millisecond {
		t.Fatalf("queue full returned before max wait")
	}
}

func TestBeginGeneration_CanceledContext(t *testing.T) {
	m := newTestManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.BeginGeneration(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if s := m.Status(); s.QueueLen != 0 {
		t.Fatalf("canceled caller reserved a queue slot")
	}
}

func TestBeginGeneration_RejectsWhileDraining(t *testing.T) {
	m := newTestManager(t, newFakeLoader())
	if err := m.Initialize(testCtx(t)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	release, err := m.BeginGeneration(testCtx(t))
	if err != nil {
		t.Fatalf("BeginGeneration: %v", err)
	}

	done := make(chan struct{})
	go func() {
		m.Teardown()
		close(done)
	}()
	deadline := time.Now().Add(time.Second)
	for m.State().Stage != StageDraining {
		if time.Now().After(deadline) {
			t.Fatalf("teardown never entered draining")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, err := m.BeginGeneration(testCtx(t)); !IsTooBusy(err) {
		t.Fatalf("expected too busy while draining, got %v", err)
	}
	release()
	<-done
}
