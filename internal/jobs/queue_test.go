package jobs

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"promptlens/internal/metrics"
)

type noopProcessor struct {
	count int32
	fail  bool
}

func (p *noopProcessor) Process(ctx context.Context, item WorkItem) error {
	atomic.AddInt32(&p.count, 1)
	if item.Cleanup != nil {
		_ = item.Cleanup()
	}
	if p.fail {
		return errors.New("fail")
	}
	return nil
}

func TestQueue_StartEnqueueShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	q := NewQueue(logger, 2, 1)
	p := &noopProcessor{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := q.Start(ctx, p); err != nil {
		t.Fatalf("queue start: %v", err)
	}

	item := WorkItem{Analysis: Analysis{ID: "id1", AnalyzerName: "basic"}}
	if err := q.Enqueue(item); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	// allow worker to process
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&p.count) < 1 {
		t.Fatalf("expected processor to be called at least once")
	}

	// shutdown should complete promptly
	q.Shutdown(2 * time.Second)
}

// blockingProcessor holds each work item until its context is cancelled.
type blockingProcessor struct {
	picked chan struct{}
}

func (p *blockingProcessor) Process(ctx context.Context, item WorkItem) error {
	p.picked <- struct{}{}
	<-ctx.Done()
	return ctx.Err()
}

func TestQueue_ShutdownDrainsQueuedItems(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	q := NewQueue(logger, 4, 1)
	p := &blockingProcessor{picked: make(chan struct{}, 8)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := q.Start(ctx, p); err != nil {
		t.Fatalf("queue start: %v", err)
	}

	depthBefore := testutil.ToFloat64(metrics.QueueDepth)

	var cleanups int32
	cleanup := func() error {
		atomic.AddInt32(&cleanups, 1)
		return nil
	}
	for i := 0; i < 3; i++ {
		if err := q.Enqueue(WorkItem{Analysis: Analysis{ID: "id"}, Cleanup: cleanup}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	// Wait until the worker is holding the first item, leaving the rest queued.
	select {
	case <-p.picked:
	case <-time.After(2 * time.Second):
		t.Fatalf("worker never picked up an item")
	}

	q.Shutdown(2 * time.Second)

	if got := atomic.LoadInt32(&cleanups); got != 3 {
		t.Fatalf("cleanups = %d, want 3", got)
	}
	if depth := testutil.ToFloat64(metrics.QueueDepth) - depthBefore; depth != 0 {
		t.Fatalf("queue depth gauge delta = %v, want 0", depth)
	}
}

func TestQueue_EnqueueBeforeStartFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	q := NewQueue(logger, 1, 1)
	err := q.Enqueue(WorkItem{Analysis: Analysis{ID: "x"}})
	if err == nil {
		t.Fatalf("enqueue before start should error")
	}
}
