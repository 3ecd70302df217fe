package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var errDown = errors.New("down")

func fail(ctx context.Context) error    { return errDown }
func succeed(ctx context.Context) error { return nil }

func newTestBreaker(max int, reset time.Duration) (*CircuitBreaker, *clockwork.FakeClock, *[]string) {
	clock := clockwork.NewFakeClock()
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures:  max,
		ResetTimeout: reset,
		Clock:        clock,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	return cb, clock, &transitions
}

func TestCircuitBreaker_Lifecycle(t *testing.T) {
	cb, clock, transitions := newTestBreaker(3, time.Minute)
	ctx := context.Background()

	for range 2 {
		_ = cb.Execute(ctx, fail)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}

	_ = cb.Execute(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	if err := cb.Execute(ctx, succeed); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}

	clock.Advance(time.Minute)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}

	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(*transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", *transitions, want)
	}
	for i := range want {
		if (*transitions)[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, (*transitions)[i], want[i])
		}
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb, clock, _ := newTestBreaker(1, time.Second)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	clock.Advance(time.Second)

	if err := cb.Execute(ctx, fail); !errors.Is(err, errDown) {
		t.Fatalf("probe error = %v, want errDown", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	clock.Advance(time.Second - time.Millisecond)
	if cb.State() != StateOpen {
		t.Error("reset timeout should restart from the failed probe")
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb, _, _ := newTestBreaker(2, time.Second)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, succeed)
	_ = cb.Execute(ctx, fail)

	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
	if m := cb.Metrics(); m.Failures != 1 {
		t.Errorf("failures = %d, want 1", m.Failures)
	}
}

func TestCircuitBreaker_IsFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return err != nil && !errors.Is(err, context.Canceled) },
	})
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return context.Canceled })
	if cb.State() != StateClosed {
		t.Error("ignored errors should not open the circuit")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _, _ := newTestBreaker(1, time.Hour)
	_ = cb.Execute(context.Background(), fail)
	cb.Reset()
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}

func TestCircuitBreaker_CallerAbortIsNeutral(t *testing.T) {
	cb, clock, _ := newTestBreaker(2, time.Second)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	for range 5 {
		_ = cb.Execute(ctx, func(ctx context.Context) error { return context.Canceled })
		_ = cb.Execute(ctx, func(ctx context.Context) error { return context.DeadlineExceeded })
	}
	if m := cb.Metrics(); m.State != StateClosed || m.Failures != 1 {
		t.Fatalf("metrics = %+v, want closed with 1 failure", m)
	}

	_ = cb.Execute(ctx, fail)
	clock.Advance(time.Second)
	_ = cb.Execute(ctx, func(ctx context.Context) error { return context.Canceled })
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.State())
	}
	// The abandoned probe slot is released.
	if err := cb.Execute(ctx, succeed); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_OwnTimeoutCounts(t *testing.T) {
	cb, _, _ := newTestBreaker(1, time.Hour)
	_ = cb.Execute(context.Background(), func(ctx context.Context) error { return ErrTimeout })
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want open", cb.State())
	}
}
