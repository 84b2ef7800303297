package chat

import (
	"strings"
	"testing"

	"github.com/quiverai/quiver/internal/entity"
)

func collect(t *testing.T, tokens []string) []entity.StreamChunk {
	t.Helper()

	s := NewThinkScanner()
	var out []entity.StreamChunk
	for _, tok := range tokens {
		out = append(out, s.Feed(tok)...)
	}
	return append(out, s.Flush()...)
}

func joinByType(chunks []entity.StreamChunk, ct entity.StreamChunkType) string {
	var sb strings.Builder
	for _, c := range chunks {
		if c.Type == ct {
			sb.WriteString(c.Content)
		}
	}
	return sb.String()
}

func TestThinkScanner(t *testing.T) {
	t.Run("plain content passes through", func(t *testing.T) {
		got := collect(t, []string{"hello ", "world"})

		if content := joinByType(got, entity.StreamContent); content != "hello world" {
			t.Errorf("expected 'hello world', got %q", content)
		}
		for _, c := range got {
			if c.Type != entity.StreamContent {
				t.Errorf("unexpected chunk type %s", c.Type)
			}
		}
	})

	t.Run("think block is separated", func(t *testing.T) {
		got := collect(t, []string{"<think>pondering</think>the answer"})

		if thinking := joinByType(got, entity.StreamThinking); thinking != "pondering" {
			t.Errorf("expected thinking 'pondering', got %q", thinking)
		}
		if content := joinByType(got, entity.StreamContent); content != "the answer" {
			t.Errorf("expected content 'the answer', got %q", content)
		}

		var types []entity.StreamChunkType
		for _, c := range got {
			types = append(types, c.Type)
		}
		want := []entity.StreamChunkType{
			entity.StreamStartThink,
			entity.StreamThinking,
			entity.StreamEndThink,
			entity.StreamContent,
		}
		if len(types) != len(want) {
			t.Fatalf("expected %d chunks, got %d: %v", len(want), len(types), types)
		}
		for i := range want {
			if types[i] != want[i] {
				t.Errorf("chunk %d: expected %s, got %s", i, want[i], types[i])
			}
		}
	})

	t.Run("marker split across tokens", func(t *testing.T) {
		got := collect(t, []string{"<th", "ink>deep", " thought</th", "ink> result"})

		if thinking := joinByType(got, entity.StreamThinking); thinking != "deep thought" {
			t.Errorf("expected 'deep thought', got %q", thinking)
		}
		if content := joinByType(got, entity.StreamContent); content != " result" {
			t.Errorf("expected ' result', got %q", content)
		}
	})

	t.Run("lone angle bracket is not swallowed", func(t *testing.T) {
		got := collect(t, []string{"a < b and a <t", "ag> too"})

		if content := joinByType(got, entity.StreamContent); content != "a < b and a <tag> too" {
			t.Errorf("expected full text, got %q", content)
		}
	})

	t.Run("flush releases held back prefix", func(t *testing.T) {
		got := collect(t, []string{"ends with <thi"})

		if content := joinByType(got, entity.StreamContent); content != "ends with <thi" {
			t.Errorf("expected held back text flushed, got %q", content)
		}
	})

	t.Run("unterminated think block", func(t *testing.T) {
		got := collect(t, []string{"<think>never finished"})

		if thinking := joinByType(got, entity.StreamThinking); thinking != "never finished" {
			t.Errorf("expected thinking text, got %q", thinking)
		}
		if content := joinByType(got, entity.StreamContent); content != "" {
			t.Errorf("expected no content, got %q", content)
		}
	})

	t.Run("multiple think blocks", func(t *testing.T) {
		got := collect(t, []string{"<think>a</think>one<think>b</think>two"})

		if thinking := joinByType(got, entity.StreamThinking); thinking != "ab" {
			t.Errorf("expected 'ab', got %q", thinking)
		}
		if content := joinByType(got, entity.StreamContent); content != "onetwo" {
			t.Errorf("expected 'onetwo', got %q", content)
		}
	})
}
