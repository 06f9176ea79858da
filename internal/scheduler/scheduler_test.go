package scheduler

import (
	"testing"
	"time"
)

func TestScheduleValidSpec(t *testing.T) {
	t.Parallel()

	s := New(nil)
	if err := s.Schedule("0 3 * * *", func() {}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
}

func TestScheduleInvalidSpec(t *testing.T) {
	t.Parallel()

	s := New(nil)
	if err := s.Schedule("not a cron spec", func() {}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestScheduledCallbackFires(t *testing.T) {
	t.Parallel()

	s := New(nil)
	fired := make(chan struct{}, 1)
	if err := s.Schedule("@every 100ms", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("expected callback to fire")
	}
}
