package chat

import (
	"strings"

	"github.com/quiverai/quiver/internal/entity"
)

const (
	thinkStart = "<think>"
	thinkEnd   = "</think>"
)

// ThinkScanner splits a model token stream into content and thinking
// chunks. Markers may arrive broken across token boundaries, so the
// scanner holds back any trailing text that could still grow into a
// marker.
type ThinkScanner struct {
	pending string
	inThink bool
}

func NewThinkScanner() *ThinkScanner {
	return &ThinkScanner{}
}

// Feed consumes one token and returns the chunks it completes
func (s *ThinkScanner) Feed(token string) []entity.StreamChunk {
	s.pending += token

	var out []entity.StreamChunk
	for {
		marker := thinkStart
		if s.inThink {
			marker = thinkEnd
		}

		idx := strings.Index(s.pending, marker)
		if idx < 0 {
			// Emit everything except a suffix that may be the
			// beginning of the marker.
			hold := partialMarkerLen(s.pending, marker)
			emit := s.pending[:len(s.pending)-hold]
			s.pending = s.pending[len(s.pending)-hold:]
			out = s.emitText(out, emit)
			return out
		}

		out = s.emitText(out, s.pending[:idx])
		s.pending = s.pending[idx+len(marker):]

		if s.inThink {
			out = append(out, entity.StreamChunk{Type: entity.StreamEndThink})
		} else {
			out = append(out, entity.StreamChunk{Type: entity.StreamStartThink})
		}
		s.inThink = !s.inThink
	}
}

// Flush returns whatever text is still held back. Call it after the
// token stream ends.
func (s *ThinkScanner) Flush() []entity.StreamChunk {
	out := s.emitText(nil, s.pending)
	s.pending = ""
	return out
}

func (s *ThinkScanner) emitText(out []entity.StreamChunk, text string) []entity.StreamChunk {
	if text == "" {
		return out
	}

	chunkType := entity.StreamContent
	if s.inThink {
		chunkType = entity.StreamThinking
	}
	return append(out, entity.StreamChunk{Type: chunkType, Content: text})
}

// partialMarkerLen returns the length of the longest suffix of text
// that is a proper prefix of marker.
func partialMarkerLen(text, marker string) int {
	max := len(marker) - 1
	if max > len(text) {
		max = len(text)
	}

	for l := max; l > 0; l-- {
		if strings.HasSuffix(text, marker[:l]) {
			return l
		}
	}
	return 0
}
