package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/entity"
)

type fakeConvRepo struct {
	convs map[string]*entity.Conversation
}

func newFakeConvRepo() *fakeConvRepo {
	return &fakeConvRepo{convs: make(map[string]*entity.Conversation)}
}

func (r *fakeConvRepo) Create(ctx context.Context, conv entity.Conversation) (*entity.Conversation, error) {
	c := conv
	r.convs[c.ID] = &c
	return &c, nil
}

func (r *fakeConvRepo) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	c, ok := r.convs[id]
	if !ok {
		return nil, entity.ErrConversationNotFound
	}
	return c, nil
}

func (r *fakeConvRepo) List(ctx context.Context) ([]*entity.Conversation, error) {
	out := make([]*entity.Conversation, 0, len(r.convs))
	for _, c := range r.convs {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeConvRepo) Delete(ctx context.Context, id string) error {
	delete(r.convs, id)
	return nil
}

type fakeMsgRepo struct {
	msgs []*entity.Message
}

func (r *fakeMsgRepo) Create(ctx context.Context, msg entity.Message) (*entity.Message, error) {
	m := msg
	r.msgs = append(r.msgs, &m)
	return &m, nil
}

func (r *fakeMsgRepo) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	var out []*entity.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeEmbedder struct {
	calls int
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{1, 0}, nil
}

type fakeRetriever struct {
	chunks []entity.ScoredChunk
}

func (r *fakeRetriever) Search(query []float32, k int) []entity.ScoredChunk {
	if len(r.chunks) > k {
		return r.chunks[:k]
	}
	return r.chunks
}

type fakeLLM struct {
	tokens []string
	calls  int
	err    error
}

func (l *fakeLLM) Generate(ctx context.Context, system, prompt string) (string, error) {
	l.calls++
	return strings.Join(l.tokens, ""), l.err
}

func (l *fakeLLM) GenerateStream(ctx context.Context, system, prompt string, onToken func(string) error) error {
	l.calls++
	if l.err != nil {
		return l.err
	}
	for _, tok := range l.tokens {
		if err := onToken(tok); err != nil {
			return err
		}
	}
	return nil
}

func newTestUsecase(llm *fakeLLM, embedder *fakeEmbedder) (*Usecase, *fakeConvRepo, *fakeMsgRepo) {
	convRepo := newFakeConvRepo()
	msgRepo := &fakeMsgRepo{}
	retriever := &fakeRetriever{chunks: []entity.ScoredChunk{
		{Chunk: entity.Chunk{SourceName: "doc.md", Text: "relevant excerpt"}, Score: 0.9},
	}}

	uc := NewUsecase(
		convRepo, msgRepo, retriever, embedder, llm,
		time.Minute, time.Minute, 5,
		zap.NewNop(),
	)
	return uc, convRepo, msgRepo
}

func TestUsecase_Ask(t *testing.T) {
	t.Run("streams answer and persists both messages", func(t *testing.T) {
		llm := &fakeLLM{tokens: []string{"<think>hmm</think>", "final ", "answer"}}
		uc, _, msgRepo := newTestUsecase(llm, &fakeEmbedder{})

		var chunks []entity.StreamChunk
		conv, err := uc.Ask(context.Background(), "", "what is this?", func(c entity.StreamChunk) error {
			chunks = append(chunks, c)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conv == nil || conv.ID == "" {
			t.Fatal("expected a conversation")
		}

		var content, thinking string
		for _, c := range chunks {
			switch c.Type {
			case entity.StreamContent:
				content += c.Content
			case entity.StreamThinking:
				thinking += c.Content
			}
		}
		if content != "final answer" {
			t.Errorf("expected 'final answer', got %q", content)
		}
		if thinking != "hmm" {
			t.Errorf("expected thinking 'hmm', got %q", thinking)
		}

		msgs, _ := msgRepo.ListByConversation(context.Background(), conv.ID)
		if len(msgs) != 2 {
			t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
		}
		if msgs[0].Role != entity.RoleUser || msgs[0].Content != "what is this?" {
			t.Errorf("unexpected user message: %+v", msgs[0])
		}
		if msgs[1].Role != entity.RoleAssistant || msgs[1].Content != "final answer" {
			t.Errorf("assistant message must hold content only: %+v", msgs[1])
		}
	})

	t.Run("second identical question is served from cache", func(t *testing.T) {
		llm := &fakeLLM{tokens: []string{"cached answer"}}
		embedder := &fakeEmbedder{}
		uc, _, _ := newTestUsecase(llm, embedder)

		ask := func() string {
			var content string
			_, err := uc.Ask(context.Background(), "", "same question", func(c entity.StreamChunk) error {
				if c.Type == entity.StreamContent {
					content += c.Content
				}
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			return content
		}

		first := ask()
		second := ask()

		if first != second {
			t.Errorf("cached answer differs: %q vs %q", first, second)
		}
		if llm.calls != 1 {
			t.Errorf("expected 1 LLM call, got %d", llm.calls)
		}
		if embedder.calls != 1 {
			t.Errorf("expected 1 embed call, got %d", embedder.calls)
		}
	})

	t.Run("existing conversation keeps its ID", func(t *testing.T) {
		llm := &fakeLLM{tokens: []string{"ok"}}
		uc, convRepo, _ := newTestUsecase(llm, &fakeEmbedder{})

		seed, _ := convRepo.Create(context.Background(), entity.Conversation{ID: "conv-1", Title: "seed"})

		conv, err := uc.Ask(context.Background(), seed.ID, "follow up", func(entity.StreamChunk) error { return nil })
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conv.ID != "conv-1" {
			t.Errorf("expected conv-1, got %s", conv.ID)
		}
	})

	t.Run("unknown conversation is an error", func(t *testing.T) {
		uc, _, _ := newTestUsecase(&fakeLLM{tokens: []string{"x"}}, &fakeEmbedder{})

		_, err := uc.Ask(context.Background(), "missing", "q", func(entity.StreamChunk) error { return nil })
		if !errors.Is(err, entity.ErrConversationNotFound) {
			t.Errorf("expected ErrConversationNotFound, got %v", err)
		}
	})

	t.Run("empty question is rejected", func(t *testing.T) {
		uc, _, _ := newTestUsecase(&fakeLLM{}, &fakeEmbedder{})

		_, err := uc.Ask(context.Background(), "", "   ", func(entity.StreamChunk) error { return nil })
		if !errors.Is(err, entity.ErrMissingField) {
			t.Errorf("expected ErrMissingField, got %v", err)
		}
	})

	t.Run("llm failure surfaces", func(t *testing.T) {
		llm := &fakeLLM{err: errors.New("model offline")}
		uc, _, _ := newTestUsecase(llm, &fakeEmbedder{})

		_, err := uc.Ask(context.Background(), "", "q", func(entity.StreamChunk) error { return nil })
		if err == nil || !strings.Contains(err.Error(), "model offline") {
			t.Errorf("expected model error, got %v", err)
		}
	})
}

func TestMakeTitle(t *testing.T) {
	t.Run("short question unchanged", func(t *testing.T) {
		if got := makeTitle("what is faiss?"); got != "what is faiss?" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("long question truncated with ellipsis", func(t *testing.T) {
		long := strings.Repeat("word ", 40)
		got := makeTitle(long)
		if !strings.HasSuffix(got, "…") {
			t.Errorf("expected ellipsis suffix, got %q", got)
		}
		if len([]rune(got)) != maxTitleLength {
			t.Errorf("expected %d runes, got %d", maxTitleLength, len([]rune(got)))
		}
	})

	t.Run("whitespace collapsed", func(t *testing.T) {
		if got := makeTitle("a\n b   c"); got != "a b c" {
			t.Errorf("got %q", got)
		}
	})
}

func TestTranscript(t *testing.T) {
	msgs := []*entity.Message{
		{Role: entity.RoleUser, Content: "hello"},
		{Role: entity.RoleAssistant, Content: "hi there"},
	}

	got := Transcript(msgs)
	want := "You: hello\n\nQuiver: hi there"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
