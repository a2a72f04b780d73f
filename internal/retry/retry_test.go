package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPoll() []Option {
	return []Option{
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(2 * time.Millisecond),
		WithTimeout(time.Second),
	}
}

func TestBackoff_Next(t *testing.T) {
	b := NewBackoff(Config{
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     400 * time.Millisecond,
		Multiplier:   2,
	})

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		400 * time.Millisecond,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
}

func TestBackoff_InitialAboveMax(t *testing.T) {
	b := NewBackoff(Config{InitialDelay: time.Second, MaxDelay: 100 * time.Millisecond, Multiplier: 2})
	if got := b.Next(); got != 100*time.Millisecond {
		t.Errorf("Next() = %v, want capped 100ms", got)
	}
}

func TestPoll_Success(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := Poll(context.Background(), func(context.Context) (bool, error) {
		attempts++
		return attempts == 3, nil
	}, fastPoll()...)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got: %d", attempts)
	}
}

func TestPoll_TransientErrorsAreRetried(t *testing.T) {
	t.Parallel()
	attempts := 0
	err := Poll(context.Background(), func(context.Context) (bool, error) {
		attempts++
		if attempts < 4 {
			return false, errors.New("not decodable yet")
		}
		return true, nil
	}, fastPoll()...)

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if attempts != 4 {
		t.Errorf("Expected 4 attempts, got: %d", attempts)
	}
}

func TestPoll_FatalStops(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection refused")
	attempts := 0
	err := Poll(context.Background(), func(context.Context) (bool, error) {
		attempts++
		return false, Fatal(cause)
	}, fastPoll()...)

	if !errors.Is(err, cause) {
		t.Fatalf("Expected error to wrap cause, got: %v", err)
	}
	if !IsFatal(err) {
		t.Errorf("Expected fatal error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got: %d", attempts)
	}
}

func TestPoll_Timeout(t *testing.T) {
	t.Parallel()
	last := errors.New("still garbage")
	err := Poll(context.Background(), func(context.Context) (bool, error) {
		return false, last
	},
		WithInitialDelay(time.Millisecond),
		WithMaxDelay(time.Millisecond),
		WithTimeout(20*time.Millisecond),
	)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got: %v", err)
	}
	if !errors.Is(err, last) {
		t.Errorf("Expected timeout to wrap last transient error, got: %v", err)
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Poll(ctx, func(context.Context) (bool, error) {
		t.Error("condition should not run after cancellation")
		return true, nil
	}, WithInitialDelay(time.Minute), WithTimeout(0))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got: %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("cancellation should not be reported as a timeout")
	}
}

func TestFatal_Nil(t *testing.T) {
	if Fatal(nil) != nil {
		t.Error("Fatal(nil) should return nil")
	}
	if IsFatal(errors.New("plain")) {
		t.Error("plain error should not be fatal")
	}
}
