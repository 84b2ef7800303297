package chat

import (
	"strings"
	"testing"

	"github.com/quiverai/quiver/internal/entity"
)

func TestFormatContext(t *testing.T) {
	t.Run("chunks labelled with source name", func(t *testing.T) {
		got := FormatContext([]entity.ScoredChunk{
			{Chunk: entity.Chunk{SourceName: "a.md", Text: "first"}},
			{Chunk: entity.Chunk{SourceName: "b.pdf", Text: "second"}},
		})

		want := "[a.md] first\n\n[b.pdf] second"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("missing source name falls back to unknown", func(t *testing.T) {
		got := FormatContext([]entity.ScoredChunk{
			{Chunk: entity.Chunk{Text: "orphan"}},
		})

		if got != "[unknown] orphan" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("no chunks yields empty block", func(t *testing.T) {
		if got := FormatContext(nil); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	t.Run("history precedes context and question", func(t *testing.T) {
		history := []*entity.Message{
			{Role: entity.RoleUser, Content: "earlier question"},
			{Role: entity.RoleAssistant, Content: "earlier answer"},
		}

		got := BuildPrompt(history, "[a.md] excerpt", "current question")

		for _, part := range []string{
			"User: earlier question",
			"Assistant: earlier answer",
			"<context>\n[a.md] excerpt\n</context>",
			"<question>\ncurrent question\n</question>",
		} {
			if !strings.Contains(got, part) {
				t.Errorf("prompt missing %q:\n%s", part, got)
			}
		}

		if !strings.HasSuffix(got, "Answer:") {
			t.Errorf("prompt must end with completion cue:\n%s", got)
		}
		if strings.Index(got, "earlier question") > strings.Index(got, "<context>") {
			t.Error("history must come before the context block")
		}
	})

	t.Run("empty history produces bare template", func(t *testing.T) {
		got := BuildPrompt(nil, "ctx", "q")

		if strings.Contains(got, "User:") || strings.Contains(got, "Assistant:") {
			t.Errorf("unexpected history lines:\n%s", got)
		}
		if !strings.HasPrefix(got, "Here's the information") {
			t.Errorf("unexpected prefix:\n%s", got)
		}
	})
}
