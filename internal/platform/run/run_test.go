package run

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWait_ServerClosedIsClean(t *testing.T) {
	r := New(zap.NewNop())
	code := r.wait(context.Background(), func(context.Context) error { return http.ErrServerClosed })
	if code != 0 {
		t.Fatalf("expected 0, got %d", code)
	}
}

func TestWait_ErrorExitsNonZero(t *testing.T) {
	r := New(zap.NewNop())
	code := r.wait(context.Background(), func(context.Context) error { return errors.New("bind: address in use") })
	if code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestWait_CancelledContext(t *testing.T) {
	r := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code := r.wait(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	if code != 0 {
		t.Fatalf("expected 0, got %d", code)
	}
}

func TestGraceful_BoundsShutdown(t *testing.T) {
	r := &Runner{Logger: zap.NewNop(), ShutdownTimeout: 20 * time.Millisecond}
	var deadlineSet bool
	r.Graceful("test", func(ctx context.Context) error {
		_, deadlineSet = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})
	if !deadlineSet {
		t.Fatal("expected shutdown context to carry a deadline")
	}
}

func TestClosers_ReverseOrderOnce(t *testing.T) {
	var c Closers
	var got []string
	c.Add(func() { got = append(got, "db") })
	c.Add(nil)
	c.Add(func() { got = append(got, "cache") })
	c.Add(func() { got = append(got, "nats") })

	c.Close()
	c.Close()

	want := []string{"nats", "cache", "db"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
