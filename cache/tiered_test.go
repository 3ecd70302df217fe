package cache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"

	"github.com/jonwraymond/tiercache/observe"
)

type forecast struct {
	Date    string `json:"date"`
	TempC   int    `json:"temp_c"`
	Summary string `json:"summary"`
}

type harness struct {
	tiered *Tiered
	local  *Local
	remote *fakeRemote
	clock  *clockwork.FakeClock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	local, err := NewLocal(LocalConfig{Clock: clock})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	remote := newFakeRemote()
	tiered, err := New(local, remote, DefaultPolicy("static:"), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &harness{tiered: tiered, local: local, remote: remote, clock: clock}
}

func TestNew_NilTiers(t *testing.T) {
	local, _ := NewLocal(LocalConfig{})
	if _, err := New(nil, newFakeRemote(), Policy{}); !errors.Is(err, ErrNilLocal) {
		t.Errorf("error = %v, want ErrNilLocal", err)
	}
	if _, err := New(local, nil, Policy{}); !errors.Is(err, ErrNilRemote) {
		t.Errorf("error = %v, want ErrNilRemote", err)
	}
}

func TestTiered_PromotionFromRemote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.remote.put("static:home", `{"date":"2026-01-01","temp_c":21,"summary":"Warm"}`)

	scope := NewScope()
	got, ok := Get[forecast](ctx, h.tiered, scope, "static:home")
	if !ok {
		t.Fatal("expected remote hit")
	}
	want := forecast{Date: "2026-01-01", TempC: 21, Summary: "Warm"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("value mismatch (-want +got):\n%s", diff)
	}

	if v, ok := ScopeValue[forecast](scope, "static:home"); !ok || v != want {
		t.Error("value should be promoted into the scope")
	}
	if v, ok := LocalValue[forecast](h.local, "static:home"); !ok || v != want {
		t.Error("classified value should be promoted into the local tier")
	}

	// A second read in a new scope is served locally.
	h.remote.failing.Store(true)
	gets := h.remote.gets.Load()
	if _, ok := Get[forecast](ctx, h.tiered, NewScope(), "static:home"); !ok {
		t.Fatal("expected local hit")
	}
	if h.remote.gets.Load() != gets {
		t.Error("local hit should not touch the remote tier")
	}
}

func TestTiered_ScopeHitTouchesNothingElse(t *testing.T) {
	h := newHarness(t)
	scope := NewScope()
	scope.Set("user:1", "cached")

	v, ok := Get[string](context.Background(), h.tiered, scope, "user:1")
	if !ok || v != "cached" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if h.remote.gets.Load() != 0 {
		t.Error("scope hit should not touch the remote tier")
	}
}

func TestTiered_UnclassifiedBypassesLocal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.remote.put("weather:1", `"Cool"`)

	if _, ok := Get[string](ctx, h.tiered, NewScope(), "weather:1"); !ok {
		t.Fatal("expected remote hit")
	}
	if h.local.Len() != 0 {
		t.Error("unclassified key must never enter the local tier")
	}

	if err := Set(ctx, h.tiered, NewScope(), "weather:2", "Hot", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if h.local.Len() != 0 {
		t.Error("unclassified Set must never write the local tier")
	}

	// Every new scope goes back to the remote tier.
	before := h.remote.gets.Load()
	Get[string](ctx, h.tiered, NewScope(), "weather:1")
	Get[string](ctx, h.tiered, NewScope(), "weather:1")
	if got := h.remote.gets.Load() - before; got != 2 {
		t.Errorf("remote gets = %d, want 2", got)
	}
}

func TestTiered_UnclassifiedIgnoresLocalEntry(t *testing.T) {
	h := newHarness(t)
	h.local.Set("weather:1", "Stale", time.Hour)
	h.remote.put("weather:1", `"Fresh"`)

	v, ok := Get[string](context.Background(), h.tiered, NewScope(), "weather:1")
	if !ok || v != "Fresh" {
		t.Fatalf("Get = %q, %v, want remote value", v, ok)
	}
	if h.remote.gets.Load() != 1 {
		t.Errorf("remote gets = %d, want 1", h.remote.gets.Load())
	}
}

func TestTiered_RemoteHitServedFromScopeAfterwards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.remote.put("weather:1", `"Cool"`)

	scope := NewScope()
	if _, ok := Get[string](ctx, h.tiered, scope, "weather:1"); !ok {
		t.Fatal("expected remote hit")
	}
	gets := h.remote.gets.Load()

	v, ok := Get[string](ctx, h.tiered, scope, "weather:1")
	if !ok || v != "Cool" {
		t.Fatalf("Get = %q, %v", v, ok)
	}
	if h.remote.gets.Load() != gets {
		t.Error("second read in the same scope should not reach the remote tier")
	}
}

func TestTiered_LocalExpiryIndependentOfScope(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := Set(ctx, h.tiered, NewScope(), "static:logo", "v1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	h.clock.Advance(DefaultLocalTTL + time.Second)
	h.remote.failing.Store(true)

	if _, ok := Get[string](ctx, h.tiered, NewScope(), "static:logo"); ok {
		t.Error("expired local entry must not be served")
	}
}

func TestTiered_SetThenGetWithUnreachableRemote(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.remote.failing.Store(true)
	scope := NewScope()

	err := Set(ctx, h.tiered, scope, "user:7", 42, time.Minute)
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("Set error = %v, want ErrRemoteUnavailable", err)
	}
	if !errors.Is(err, errBackendDown) {
		t.Errorf("Set error should wrap the backend error, got %v", err)
	}

	v, ok := Get[int](ctx, h.tiered, scope, "user:7")
	if !ok || v != 42 {
		t.Errorf("Get = %v, %v; want 42, true", v, ok)
	}
}

func TestTiered_RemoteFailureIsMiss(t *testing.T) {
	h := newHarness(t)
	h.remote.put("user:1", `1`)
	h.remote.failing.Store(true)

	if _, ok := Get[int](context.Background(), h.tiered, NewScope(), "user:1"); ok {
		t.Error("remote failure should be reported as a miss")
	}
}

func TestTiered_CancelledContextIsMiss(t *testing.T) {
	h := newHarness(t)
	h.remote.put("user:1", `1`)
	h.remote.block = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := Get[int](ctx, h.tiered, NewScope(), "user:1"); ok {
		t.Error("cancelled read should be reported as a miss")
	}
}

func TestTiered_DecodeMismatchIsMiss(t *testing.T) {
	h := newHarness(t)
	h.remote.put("static:n", `"not a number"`)
	scope := NewScope()

	if _, ok := Get[int](context.Background(), h.tiered, scope, "static:n"); ok {
		t.Error("undecodable value should be reported as a miss")
	}
	if scope.Len() != 0 || h.local.Len() != 0 {
		t.Error("undecodable value must not be promoted")
	}
}

func TestTiered_SetWritesAllEligibleTiers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := NewScope()

	if err := Set(ctx, h.tiered, scope, "static:cfg", "on", 5*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := ScopeValue[string](scope, "static:cfg"); !ok {
		t.Error("scope not written")
	}
	if _, ok := LocalValue[string](h.local, "static:cfg"); !ok {
		t.Error("local tier not written")
	}
	if got := h.remote.ttls["static:cfg"]; got != 5*time.Minute {
		t.Errorf("remote ttl = %v, want 5m", got)
	}

	if err := Set(ctx, h.tiered, scope, "static:cfg2", "on", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := h.remote.ttls["static:cfg2"]; got != time.Hour {
		t.Errorf("remote ttl = %v, want policy default 1h", got)
	}
}

func TestTiered_EncodeFailureTouchesNoTier(t *testing.T) {
	h := newHarness(t)
	scope := NewScope()

	err := Set(context.Background(), h.tiered, scope, "static:ch", make(chan int), 0)
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("error = %v, want ErrEncode", err)
	}
	if scope.Len() != 0 || h.local.Len() != 0 || h.remote.sets.Load() != 0 {
		t.Error("no tier should be written when encoding fails")
	}
}

func TestTiered_InvalidKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, ok := Get[string](ctx, h.tiered, nil, ""); ok {
		t.Error("invalid key should miss")
	}
	if h.remote.gets.Load() != 0 {
		t.Error("invalid key should not reach the remote tier")
	}
	if err := Set(ctx, h.tiered, nil, "a\nb", "x", 0); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set error = %v, want ErrInvalidKey", err)
	}
	if err := h.tiered.Delete(ctx, nil, ""); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Delete error = %v, want ErrInvalidKey", err)
	}
}

func TestTiered_NilScope(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := Set(ctx, h.tiered, nil, "user:1", "x", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok := Get[string](ctx, h.tiered, nil, "user:1"); !ok || v != "x" {
		t.Errorf("Get = %q, %v", v, ok)
	}
}

func TestTiered_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := NewScope()

	if err := Set(ctx, h.tiered, scope, "static:a", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := h.tiered.Delete(ctx, scope, "static:a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if scope.Len() != 0 || h.local.Len() != 0 || h.remote.has("static:a") {
		t.Error("Delete should clear every tier")
	}

	h.remote.failing.Store(true)
	if err := h.tiered.Delete(ctx, scope, "static:a"); !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("Delete error = %v, want ErrRemoteUnavailable", err)
	}
}

func TestTiered_Coalescing(t *testing.T) {
	h := newHarness(t, WithCoalescing())
	h.remote.put("user:1", `7`)
	h.remote.block = make(chan struct{})

	const callers = 8
	var (
		wg      sync.WaitGroup
		started sync.WaitGroup
	)
	results := make([]int, callers)
	started.Add(callers)
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started.Done()
			v, _ := Get[int](context.Background(), h.tiered, NewScope(), "user:1")
			results[i] = v
		}(i)
	}
	started.Wait()

	// Give every caller time to join the in-flight read.
	deadline := time.Now().Add(5 * time.Second)
	for h.remote.gets.Load() < 1 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(h.remote.block)
	wg.Wait()

	for i, v := range results {
		if v != 7 {
			t.Errorf("caller %d got %d, want 7", i, v)
		}
	}
	if got := h.remote.gets.Load(); got >= callers {
		t.Errorf("remote gets = %d, want fewer than %d", got, callers)
	}
}

func TestTiered_CoalescingHonorsCallerContext(t *testing.T) {
	h := newHarness(t, WithCoalescing())
	h.remote.block = make(chan struct{})
	defer close(h.remote.block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, ok := Get[int](ctx, h.tiered, NewScope(), "user:1"); ok {
		t.Error("expected a miss once the caller's context ended")
	}
}

func TestTiered_CoalescedCallOutlivesCaller(t *testing.T) {
	h := newHarness(t, WithCoalescing())
	h.remote.put("user:1", "7")
	h.remote.block = make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, ok := Get[int](ctx, h.tiered, NewScope(), "user:1"); ok {
		t.Fatal("expected a miss once the caller's context ended")
	}

	// The abandoned remote read is still in flight; a later caller joins it.
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(h.remote.block)
	}()
	v, ok := Get[int](context.Background(), h.tiered, NewScope(), "user:1")
	if !ok || v != 7 {
		t.Fatalf("Get = %d, %v, want 7, true", v, ok)
	}
	if h.remote.gets.Load() != 1 {
		t.Errorf("remote gets = %d, want 1", h.remote.gets.Load())
	}
}

func TestTiered_WithObserver(t *testing.T) {
	var logs bytes.Buffer
	mw := observe.NewMiddleware(nil, nil, observe.NewLoggerWithWriter("debug", &logs))
	h := newHarness(t, WithObserver(mw))
	h.remote.failing.Store(true)

	Get[string](context.Background(), h.tiered, NewScope(), "weather:1")

	if !bytes.Contains(logs.Bytes(), []byte(`"cache.op":"get"`)) {
		t.Errorf("expected get to be logged, got %s", logs.String())
	}
	if !bytes.Contains(logs.Bytes(), []byte(`"level":"warn"`)) {
		t.Errorf("expected remote failure at warn, got %s", logs.String())
	}
}

func TestTiered_PolicyIsCopied(t *testing.T) {
	local, _ := NewLocal(LocalConfig{})
	prefixes := []string{"static:"}
	tiered, err := New(local, newFakeRemote(), Policy{StaticPrefixes: prefixes})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	prefixes[0] = "other:"
	if !tiered.Policy().IsClassified("static:x") {
		t.Error("policy should be copied at construction")
	}
}
