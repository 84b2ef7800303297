package chat

import (
	"fmt"
	"strings"

	"github.com/quiverai/quiver/internal/entity"
)

// SystemPrompt pins the assistant to the retrieved excerpts
const SystemPrompt = `You're Quiver, an assistant answering questions about the user's documents.
Use only the provided excerpts. If you don't know the answer, say so and ask for clarification.`

const promptTemplate = `Here's the information you have about the files:

<context>
%s
</context>

Please respond to the query below:

<question>
%s
</question>

Answer:`

// FormatContext renders retrieved chunks into the context block, one
// "[source] text" paragraph per chunk.
func FormatContext(chunks []entity.ScoredChunk) string {
	lines := make([]string, 0, len(chunks))
	for _, sc := range chunks {
		name := sc.Chunk.SourceName
		if name == "" {
			name = "unknown"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", name, sc.Chunk.Text))
	}
	return strings.Join(lines, "\n\n")
}

// BuildPrompt flattens the conversation history and the context and
// question blocks into a single completion prompt.
func BuildPrompt(history []*entity.Message, contextBlock, question string) string {
	var sb strings.Builder

	for _, msg := range history {
		switch msg.Role {
		case entity.RoleUser:
			sb.WriteString("User: ")
		case entity.RoleAssistant:
			sb.WriteString("Assistant: ")
		default:
			continue
		}
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, promptTemplate, contextBlock, question)
	return sb.String()
}
