package cursor

import (
	"testing"

	"github.com/verte-zerg/keysprint/internal/ledger"
)

func TestSpans(t *testing.T) {
	spans := Spans([]string{"cat", "naïve"})
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0] != (WordSpan{Start: 0, CharCount: 4}) {
		t.Fatalf("unexpected first span: %+v", spans[0])
	}
	if spans[1] != (WordSpan{Start: 4, CharCount: 6}) {
		t.Fatalf("unexpected second span: %+v", spans[1])
	}
}

func TestLocateCurrentWord(t *testing.T) {
	words := []string{"cat", "dog", "emu"}
	l := ledger.Build(words)
	spans := Spans(words)
	tests := []struct {
		caret int
		want  int
	}{
		{caret: 0, want: 0},
		{caret: 2, want: 0},
		{caret: 3, want: 0},
		{caret: 4, want: 1},
		{caret: 7, want: 1},
		{caret: 8, want: 2},
		{caret: 12, want: 2},
		{caret: 40, want: 2},
	}
	for _, tt := range tests {
		loc := Locate(tt.caret, spans, l.Compare(nil))
		if loc.Current != tt.want {
			t.Fatalf("caret %d: expected word %d, got %d", tt.caret, tt.want, loc.Current)
		}
	}
}

func TestLocateEmpty(t *testing.T) {
	loc := Locate(3, nil, nil)
	if loc.Current != 0 || len(loc.Completed) != 0 {
		t.Fatalf("unexpected location: %+v", loc)
	}
}

func TestLocateCompletionIgnoresSeparator(t *testing.T) {
	words := []string{"cat", "dog"}
	l := ledger.Build(words)
	spans := Spans(words)

	loc := Locate(3, spans, l.Compare([]rune("cat")))
	if !loc.IsCompleted(0) {
		t.Fatalf("expected word 0 completed before its separator is typed")
	}
	if loc.IsCompleted(1) {
		t.Fatalf("expected word 1 not completed")
	}

	loc = Locate(4, spans, l.Compare([]rune("cat_")))
	if !loc.IsCompleted(0) {
		t.Fatalf("expected a wrong separator to keep word 0 completed")
	}
}

func TestLocateCompletionIsRevocable(t *testing.T) {
	words := []string{"cat", "dog"}
	l := ledger.Build(words)
	spans := Spans(words)

	loc := Locate(7, spans, l.Compare([]rune("cat dog")))
	if !loc.IsCompleted(1) {
		t.Fatalf("expected word 1 completed")
	}
	loc = Locate(6, spans, l.Compare([]rune("cat do")))
	if loc.IsCompleted(1) {
		t.Fatalf("expected backspace to revoke completion")
	}
	loc = Locate(7, spans, l.Compare([]rune("cat dox")))
	if loc.IsCompleted(1) {
		t.Fatalf("expected retyped mistake to revoke completion")
	}
}
