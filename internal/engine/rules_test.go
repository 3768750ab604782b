package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/echoreply/echoreply/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompileRules_PriorityOrder(t *testing.T) {
	t.Parallel()
	rules := compileRules([]config.ReplyRule{
		{Match: "a", Reply: "low", Priority: 1},
		{Match: "a", Reply: "high", Priority: 10},
		{Match: "a", Reply: "default"},
	}, testLogger())

	if len(rules) != 3 {
		t.Fatalf("len = %d, want 3", len(rules))
	}
	got := []string{rules[0].reply, rules[1].reply, rules[2].reply}
	want := []string{"high", "low", "default"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rules[%d].reply = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCompileRules_StableTies(t *testing.T) {
	t.Parallel()
	rules := compileRules([]config.ReplyRule{
		{Match: "a", Reply: "first", Priority: 5},
		{Match: "a", Reply: "second", Priority: 5},
	}, testLogger())

	if rules[0].reply != "first" || rules[1].reply != "second" {
		t.Errorf("tie order = %q, %q; want configuration order preserved", rules[0].reply, rules[1].reply)
	}
}

func TestCompileRules_InvalidRegexDropped(t *testing.T) {
	t.Parallel()
	rules := compileRules([]config.ReplyRule{
		{Match: "[broken", Reply: "never", Regex: true},
		{Match: "ok", Reply: "kept"},
	}, testLogger())

	if len(rules) != 1 || rules[0].reply != "kept" {
		t.Errorf("rules = %+v, want only the valid rule", rules)
	}
}

func TestRule_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rule config.ReplyRule
		text string
		want bool
	}{
		{"substring case-insensitive", config.ReplyRule{Match: "hello"}, "well HELLO there", true},
		{"substring case-insensitive upper pattern", config.ReplyRule{Match: "HELLO"}, "hello", true},
		{"substring case-sensitive match", config.ReplyRule{Match: "Hi", CaseSensitive: true}, "Hi there", true},
		{"substring case-sensitive miss", config.ReplyRule{Match: "Hi", CaseSensitive: true}, "hi there", false},
		{"substring absent", config.ReplyRule{Match: "bye"}, "hello", false},
		{"regex on raw text", config.ReplyRule{Match: `^order #\d+`, Regex: true}, "order #42 arrived", true},
		{"regex respects case as written", config.ReplyRule{Match: "^Hi", Regex: true}, "hi", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			compiled := compileRules([]config.ReplyRule{tt.rule}, testLogger())
			if len(compiled) != 1 {
				t.Fatalf("compiled %d rules, want 1", len(compiled))
			}
			if got := compiled[0].matches(tt.text); got != tt.want {
				t.Errorf("matches(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello"},
		{"héllo wörld", 7, "héllo w"},
		{"unbounded", 0, "unbounded"},
	}
	for _, tt := range tests {
		tt := tt
		if got := truncateRunes(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
