package transcript

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAppend_OrderAndCount(t *testing.T) {
	s := NewStore(50, 512)
	if got := s.Append("hello", User); got != AppendOK {
		t.Fatalf("Append = %v, want ok", got)
	}
	if got := s.Append("hi there", Assistant); got != AppendOK {
		t.Fatalf("Append = %v, want ok", got)
	}
	if s.Count() != 2 {
		t.Fatalf("Count = %d, want 2", s.Count())
	}
	e, err := s.EntryAt(1)
	if err != nil {
		t.Fatalf("EntryAt(1): %v", err)
	}
	if e.Text != "hi there" || e.Speaker != Assistant {
		t.Fatalf("EntryAt(1) = %+v", e)
	}
}

func TestAppend_RejectsEmpty(t *testing.T) {
	s := NewStore(3, 512)
	for _, text := range []string{"", "   ", "\n"} {
		got := s.Append(text, User)
		if got != AppendRejectedEmpty {
			t.Fatalf("Append(%q) = %v, want rejected_empty", text, got)
		}
		if !errors.Is(got.Err(), ErrEmptyText) {
			t.Fatalf("Err() = %v", got.Err())
		}
	}
	if s.Count() != 0 {
		t.Fatalf("Count = %d, want 0", s.Count())
	}
}

func TestAppend_CapacityIsHardBound(t *testing.T) {
	s := NewStore(2, 512)
	s.Append("a", User)
	s.Append("b", Assistant)
	got := s.Append("c", User)
	if got != AppendRejectedCapacity {
		t.Fatalf("Append = %v, want rejected_capacity", got)
	}
	if !errors.Is(got.Err(), ErrCapacityExceeded) {
		t.Fatalf("Err() = %v", got.Err())
	}
	if s.Count() != 2 {
		t.Fatalf("Count = %d, want 2", s.Count())
	}
	last, _ := s.EntryAt(1)
	if last.Text != "b" {
		t.Fatalf("existing entries must be untouched, got %q", last.Text)
	}
}

func TestAppend_TruncatesAtRuneBoundary(t *testing.T) {
	s := NewStore(5, 6)
	s.Append(strings.Repeat("界", 10), User)
	e, _ := s.EntryAt(0)
	if n := utf8.RuneCountInString(e.Text); n != 5 {
		t.Fatalf("truncated rune count = %d, want 5", n)
	}
	if !utf8.ValidString(e.Text) {
		t.Fatalf("truncation produced invalid utf8: %q", e.Text)
	}
}

func TestEntryAt_OutOfRange(t *testing.T) {
	s := NewStore(5, 512)
	s.Append("only", User)
	for _, i := range []int{-1, 1, 99} {
		if _, err := s.EntryAt(i); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("EntryAt(%d) err = %v, want ErrOutOfRange", i, err)
		}
	}
}

func TestEntries_ReturnsCopy(t *testing.T) {
	s := NewStore(5, 512)
	s.Append("one", User)
	entries := s.Entries()
	entries[0].Text = "mutated"
	e, _ := s.EntryAt(0)
	if e.Text != "one" {
		t.Fatalf("store mutated through Entries(): %q", e.Text)
	}
}

func TestLast(t *testing.T) {
	s := NewStore(5, 512)
	if _, ok := s.Last(Assistant); ok {
		t.Fatalf("Last on empty store should report false")
	}
	s.Append("q1", User)
	s.Append("a1", Assistant)
	s.Append("q2", User)
	e, ok := s.Last(Assistant)
	if !ok || e.Text != "a1" {
		t.Fatalf("Last(Assistant) = %+v, %v", e, ok)
	}
}
