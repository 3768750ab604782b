package conversation

import (
	"fmt"
	"sync"
	"testing"

	"github.com/echoreply/echoreply/internal/provider"
)

func TestHistory_AppendAndRecent(t *testing.T) {
	t.Parallel()
	h := NewHistory()

	h.Append("c1", Entry{Content: "one"})
	h.Append("c1", Entry{Content: "two", FromBot: true})
	h.Append("c1", Entry{Content: "three"})

	got := h.Recent("c1", 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Content != "two" || got[1].Content != "three" {
		t.Errorf("Recent window = %q, %q; want the tail in original order", got[0].Content, got[1].Content)
	}
}

func TestHistory_RecentReturnsAllWhenFewer(t *testing.T) {
	t.Parallel()
	h := NewHistory()
	h.Append("c1", Entry{Content: "only"})

	if got := h.Recent("c1", 10); len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestHistory_UnknownConversation(t *testing.T) {
	t.Parallel()
	h := NewHistory()

	if got := h.Recent("ghost", 5); got != nil {
		t.Errorf("Recent(unknown) = %v, want nil", got)
	}
	if n := h.Len("ghost"); n != 0 {
		t.Errorf("Len(unknown) = %d, want 0", n)
	}
}

func TestHistory_Isolation(t *testing.T) {
	t.Parallel()
	h := NewHistory()
	h.Append("a", Entry{Content: "from a"})
	h.Append("b", Entry{Content: "from b"})

	for _, e := range h.Recent("a", 10) {
		if e.Content == "from b" {
			t.Fatal("entry leaked across conversation ids")
		}
	}
	if h.Conversations() != 2 {
		t.Errorf("Conversations() = %d, want 2", h.Conversations())
	}
}

func TestHistory_Reset(t *testing.T) {
	t.Parallel()
	h := NewHistory()
	h.Append("c1", Entry{Content: "x"})
	h.Reset("c1")

	if n := h.Len("c1"); n != 0 {
		t.Errorf("Len after Reset = %d, want 0", n)
	}
	if got := h.Recent("c1", 5); got != nil {
		t.Errorf("Recent after Reset = %v, want nil", got)
	}
}

func TestHistory_RecentIsACopy(t *testing.T) {
	t.Parallel()
	h := NewHistory()
	h.Append("c1", Entry{Content: "original"})

	got := h.Recent("c1", 1)
	got[0].Content = "mutated"

	if again := h.Recent("c1", 1); again[0].Content != "original" {
		t.Error("Recent must return an isolated copy")
	}
}

func TestEntry_Role(t *testing.T) {
	t.Parallel()
	if r := (Entry{FromBot: false}).Role(); r != provider.RoleUser {
		t.Errorf("Role() = %q, want user", r)
	}
	if r := (Entry{FromBot: true}).Role(); r != provider.RoleAssistant {
		t.Errorf("Role() = %q, want assistant", r)
	}
}

func TestHistory_ConcurrentAppend(t *testing.T) {
	t.Parallel()
	h := NewHistory()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			conv := fmt.Sprintf("c%d", id%2)
			for j := 0; j < 100; j++ {
				h.Append(conv, Entry{Content: "m"})
				_ = h.Recent(conv, 10)
			}
		}(i)
	}
	wg.Wait()

	if total := h.Len("c0") + h.Len("c1"); total != 800 {
		t.Errorf("total entries = %d, want 800", total)
	}
}
