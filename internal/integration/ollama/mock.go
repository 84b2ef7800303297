package ollama

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector is the model connector used with ENABLE_MOCKS. It
// echoes a canned answer, streamed token by token with a think block
// so clients can exercise their marker handling.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

const mockAnswer = "<think> The user asked a question, the excerpts cover it. </think> " +
	"Based on the provided excerpts, this is a mocked answer for local development."

func (m *MockConnector) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctxzap.Info(ctx, "[MOCK] generating completion")
	return mockAnswer, nil
}

func (m *MockConnector) GenerateStream(ctx context.Context, system, prompt string, onToken func(string) error) error {
	ctxzap.Info(ctx, "[MOCK] streaming completion")

	for _, word := range strings.SplitAfter(mockAnswer, " ") {
		if word == "" {
			continue
		}
		if err := onToken(word); err != nil {
			return err
		}
	}
	return nil
}
