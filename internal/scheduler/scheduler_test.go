package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingSender struct {
	calls atomic.Int32
	err   error
}

func (c *countingSender) SendDueReminders(ctx context.Context) (int, error) {
	c.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("job must run with a deadline")
	}
	return 1, c.err
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	if _, err := New("every now and then", "UTC", &countingSender{}); err == nil {
		t.Fatal("expected an error for an invalid spec")
	}
}

func TestUnknownTimezoneFallsBack(t *testing.T) {
	if _, err := New("0 9 * * *", "Mars/Olympus", &countingSender{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRemindersCallsSender(t *testing.T) {
	sender := &countingSender{err: errors.New("db down")}
	s, err := New("@daily", "America/Sao_Paulo", sender)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.runReminders()
	if sender.calls.Load() != 1 {
		t.Fatalf("calls = %d", sender.calls.Load())
	}
}

func TestScheduledRun(t *testing.T) {
	sender := &countingSender{}
	s, err := New("@every 1s", "UTC", sender)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start()
	defer s.Stop(context.Background())

	deadline := time.Now().Add(3 * time.Second)
	for sender.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("job never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
