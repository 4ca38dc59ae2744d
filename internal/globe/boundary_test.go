package globe

import (
	"errors"
	"testing"
	"time"
)

func TestRenderBoundaryErrorThenRetry(t *testing.T) {
	b := NewRenderBoundary(time.Second)
	lost := errors.New("context lost")

	ok, err := b.Run(t0, func() error { return lost })
	if ok || !errors.Is(err, lost) {
		t.Fatalf("expected failure, got ok=%v err=%v", ok, err)
	}
	if !b.Recovering() {
		t.Fatal("expected recovering state")
	}

	calls := 0
	ok, _ = b.Run(t0.Add(999*time.Millisecond), func() error { calls++; return nil })
	if ok || calls != 0 {
		t.Fatalf("expected render skipped during backoff, ok=%v calls=%d", ok, calls)
	}

	ok, err = b.Run(t0.Add(time.Second), func() error { calls++; return nil })
	if !ok || err != nil || calls != 1 {
		t.Fatalf("expected retry to succeed, ok=%v err=%v calls=%d", ok, err, calls)
	}
	if b.Failures() != 1 {
		t.Fatalf("expected one failure, got %d", b.Failures())
	}
}
