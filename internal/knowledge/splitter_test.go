package knowledge

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitter_Split(t *testing.T) {
	t.Run("short text stays in one chunk", func(t *testing.T) {
		s := NewSplitter(100, 10)

		got := s.Split("hello world")
		if len(got) != 1 {
			t.Fatalf("expected 1 chunk, got %d", len(got))
		}
		if got[0] != "hello world" {
			t.Errorf("unexpected chunk: %q", got[0])
		}
	})

	t.Run("paragraphs are kept whole when they fit", func(t *testing.T) {
		s := NewSplitter(40, 0)

		text := "first paragraph here\n\nsecond paragraph here\n\nthird one"
		got := s.Split(text)

		for _, c := range got {
			if utf8.RuneCountInString(c) > 40 {
				t.Errorf("chunk exceeds size: %d runes: %q", utf8.RuneCountInString(c), c)
			}
		}
		joined := strings.Join(got, " ")
		for _, want := range []string{"first paragraph", "second paragraph", "third one"} {
			if !strings.Contains(joined, want) {
				t.Errorf("lost content %q", want)
			}
		}
	})

	t.Run("no chunk exceeds the limit", func(t *testing.T) {
		s := NewSplitter(50, 10)

		var sb strings.Builder
		for i := 0; i < 30; i++ {
			sb.WriteString("some words that form a fairly long sentence without breaks ")
		}

		for _, c := range s.Split(sb.String()) {
			if n := utf8.RuneCountInString(c); n > 50 {
				t.Errorf("chunk of %d runes exceeds limit 50", n)
			}
		}
	})

	t.Run("consecutive chunks overlap", func(t *testing.T) {
		s := NewSplitter(20, 8)

		text := "aaa bbb ccc ddd eee fff ggg hhh iii jjj"
		got := s.Split(text)
		if len(got) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(got))
		}

		for i := 1; i < len(got); i++ {
			prevWords := strings.Fields(got[i-1])
			lastWord := prevWords[len(prevWords)-1]
			if !strings.Contains(got[i], lastWord) {
				t.Errorf("chunk %d does not carry overlap from previous: %q -> %q", i, got[i-1], got[i])
			}
		}
	})

	t.Run("unbroken text is hard cut", func(t *testing.T) {
		s := NewSplitter(10, 2)

		text := strings.Repeat("x", 35)
		got := s.Split(text)
		if len(got) < 4 {
			t.Fatalf("expected at least 4 chunks, got %d", len(got))
		}
		for _, c := range got {
			if utf8.RuneCountInString(c) > 10 {
				t.Errorf("hard cut chunk too long: %q", c)
			}
		}
	})

	t.Run("whitespace only input yields no chunks", func(t *testing.T) {
		s := NewSplitter(10, 2)

		if got := s.Split("  \n\n \n "); len(got) != 0 {
			t.Errorf("expected no chunks, got %v", got)
		}
	})

	t.Run("multibyte runes are counted not bytes", func(t *testing.T) {
		s := NewSplitter(10, 0)

		text := strings.Repeat("я", 25)
		got := s.Split(text)
		for _, c := range got {
			if utf8.RuneCountInString(c) > 10 {
				t.Errorf("chunk exceeds 10 runes: %q", c)
			}
		}
	})
}

func TestNewSplitter_ClampsBadConfig(t *testing.T) {
	s := NewSplitter(10, 50)

	// Overlap larger than size must not loop forever
	got := s.Split(strings.Repeat("y", 40))
	if len(got) == 0 {
		t.Fatal("expected chunks")
	}
}
