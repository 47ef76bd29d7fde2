package service

import (
	"context"
	"runtime"
	"sync/atomic"
	"testing"
)

func TestWorkerPool_RejectsWhenFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := make(chan struct{})
	var ran atomic.Int32
	p := newWorkerPool[int](ctx, 1, 1, func(_ context.Context, _ int) {
		<-block
		ran.Add(1)
	})

	if !p.Submit(1) {
		t.Fatal("first submit should be accepted")
	}
	// Wait for the worker to pick up the first job so the queue is empty again.
	for p.QueueLen() != 0 {
		runtime.Gosched()
	}
	if !p.Submit(2) {
		t.Fatal("second submit should fill the queue")
	}
	if p.Submit(3) {
		t.Error("third submit should be rejected")
	}
	if p.QueueLen() != 1 || p.QueueCap() != 1 {
		t.Errorf("queue len/cap = %d/%d, want 1/1", p.QueueLen(), p.QueueCap())
	}

	close(block)
	p.Drain()
	if got := ran.Load(); got != 2 {
		t.Errorf("ran %d jobs, want 2", got)
	}
}

func TestWorkerPool_DrainFinishesQueuedJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	block := make(chan struct{})
	var ran atomic.Int32
	p := newWorkerPool[int](ctx, 1, 4, func(_ context.Context, _ int) {
		<-block
		ran.Add(1)
	})
	for i := 0; i < 4; i++ {
		if !p.Submit(i) {
			t.Fatalf("submit %d rejected", i)
		}
	}
	close(block)
	p.Drain()
	if got := ran.Load(); got != 4 {
		t.Errorf("ran %d jobs, want 4", got)
	}
}

func TestWorkerPool_SubmitAfterDrain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newWorkerPool[int](ctx, 1, 1, func(context.Context, int) {})
	p.Drain()
	if p.Submit(1) {
		t.Error("submit after drain should be rejected")
	}
	p.Drain() // second drain is a no-op
}
