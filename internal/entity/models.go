package entity

import "time"

// SourceType distinguishes how a knowledge source was ingested
type SourceType string

const (
	SourceTypeDocument SourceType = "document"
	SourceTypeURL      SourceType = "url"
)

// Source is a single entry in the knowledge vault: an uploaded
// document or a fetched web page, reduced to plain text.
type Source struct {
	ID        string
	Name      string
	Type      SourceType
	Content   string
	CreatedAt time.Time
}

// Chunk is one splitter-produced piece of a source together with its
// embedding vector. Chunk IDs are "<source_id>::chunk<seq>" so that all
// chunks of a source share a common prefix.
type Chunk struct {
	ID         string
	SourceID   string
	SourceName string
	SourceType SourceType
	Seq        int
	Text       string
	Embedding  []float32
}

// ScoredChunk is a retrieval result with its cosine similarity score
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Role identifies the author of a conversation message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups messages of one chat thread
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// Message is a single turn in a conversation
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	CreatedAt      time.Time
}

// ResultFormat selects the transcript export format
type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatPDF      ResultFormat = "pdf"
	FormatDOCX     ResultFormat = "docx"
)
