package cache

import (
	"testing"
	"time"
)

func TestPolicy_IsClassified(t *testing.T) {
	p := Policy{StaticPrefixes: []string{"static:", "config:"}}

	tests := []struct {
		key  string
		want bool
	}{
		{"static:logo", true},
		{"config:flags", true},
		{"static:", true},
		{"Static:logo", false},
		{"user:42", false},
		{"xstatic:logo", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := p.IsClassified(tt.key); got != tt.want {
			t.Errorf("IsClassified(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}

	if (Policy{}).IsClassified("static:logo") {
		t.Error("empty policy should classify nothing")
	}
}

func TestPolicy_EffectiveTTL(t *testing.T) {
	p := Policy{DefaultTTL: time.Hour, MaxTTL: 2 * time.Hour}

	tests := []struct {
		name     string
		override time.Duration
		want     time.Duration
	}{
		{"zero uses default", 0, time.Hour},
		{"negative uses default", -time.Second, time.Hour},
		{"override kept", 30 * time.Minute, 30 * time.Minute},
		{"override clamped", 5 * time.Hour, 2 * time.Hour},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.EffectiveTTL(tt.override); got != tt.want {
				t.Errorf("EffectiveTTL(%v) = %v, want %v", tt.override, got, tt.want)
			}
		})
	}

	if got := (Policy{}).EffectiveTTL(0); got != 0 {
		t.Errorf("zero policy EffectiveTTL(0) = %v, want 0 (no expiry)", got)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy("static:")
	if p.LocalTTL != 10*time.Minute {
		t.Errorf("LocalTTL = %v, want 10m", p.LocalTTL)
	}
	if !p.IsClassified("static:a") {
		t.Error("expected prefix to be carried")
	}
}

func TestPolicy_CloneIsolatesPrefixes(t *testing.T) {
	prefixes := []string{"static:"}
	p := Policy{StaticPrefixes: prefixes}
	c := p.clone()
	prefixes[0] = "other:"
	if !c.IsClassified("static:x") {
		t.Error("clone should not observe mutations of the original slice")
	}
}
