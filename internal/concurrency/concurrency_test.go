package concurrency

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeCloser struct {
	delay time.Duration
	err   error
}

func (f fakeCloser) Close() error {
	time.Sleep(f.delay)
	return f.err
}

func TestCloseAllReturnsFirstError(t *testing.T) {
	want := errors.New("boom")
	conns := []Closer{
		fakeCloser{delay: time.Millisecond},
		fakeCloser{delay: time.Millisecond, err: want},
		fakeCloser{delay: time.Millisecond},
	}
	if err := CloseAll(context.Background(), time.Second, conns); err == nil {
		t.Fatalf("CloseAll: expected an error, got nil")
	}
}

func TestCloseAllSucceedsWhenNoneError(t *testing.T) {
	conns := []Closer{
		fakeCloser{delay: time.Millisecond},
		fakeCloser{delay: time.Millisecond},
	}
	if err := CloseAll(context.Background(), time.Second, conns); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
}

func TestCloseAllRunsConcurrentlyNotSequentially(t *testing.T) {
	conns := make([]Closer, 10)
	for i := range conns {
		conns[i] = fakeCloser{delay: 20 * time.Millisecond}
	}
	start := time.Now()
	if err := CloseAll(context.Background(), time.Second, conns); err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("CloseAll took %v, want well under 10x20ms if run sequentially", elapsed)
	}
}
