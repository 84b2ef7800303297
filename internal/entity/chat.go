package entity

// StreamChunkType classifies a streamed answer fragment. Reasoning
// models wrap their scratchpad in <think>...</think>; the stream
// splitter turns those markers into explicit chunk types so clients
// can render (or drop) the thinking part separately.
type StreamChunkType string

const (
	StreamContent    StreamChunkType = "content"
	StreamStartThink StreamChunkType = "start_think"
	StreamThinking   StreamChunkType = "thinking"
	StreamEndThink   StreamChunkType = "end_think"
)

// StreamChunk is one fragment of a streamed assistant answer
type StreamChunk struct {
	Type    StreamChunkType `json:"type"`
	Content string          `json:"content"`
}
