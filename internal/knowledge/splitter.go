package knowledge

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators is the separator hierarchy: paragraphs, lines,
// words, then a hard cut.
var defaultSeparators = []string{"\n\n", "\n", " "}

// Splitter cuts source text into overlapping chunks. It walks a
// separator hierarchy recursively, keeping pieces whole where they fit
// and only degrading to finer separators for oversized pieces.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}

	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

// Split returns the chunks of text. Whitespace-only chunks are dropped.
func (s *Splitter) Split(text string) []string {
	raw := s.split(text, s.separators)

	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		if strings.TrimSpace(c) != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}

	if len(separators) == 0 {
		return s.hardCut(text)
	}

	sep := separators[0]
	rest := separators[1:]

	if !strings.Contains(text, sep) {
		return s.split(text, rest)
	}

	var chunks []string
	var pending []string

	flush := func() {
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, sep)...)
			pending = nil
		}
	}

	for _, piece := range strings.Split(text, sep) {
		if runeLen(piece) <= s.chunkSize {
			pending = append(pending, piece)
			continue
		}

		// Oversized piece: emit what we have, then recurse with
		// finer separators.
		flush()
		chunks = append(chunks, s.split(piece, rest)...)
	}
	flush()

	return chunks
}

// merge joins consecutive pieces into chunks up to chunkSize,
// carrying chunkOverlap worth of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)

	var chunks []string
	var window []string
	total := 0

	join := func() {
		chunk := strings.Join(window, sep)
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		pieceLen := runeLen(piece)

		if len(window) > 0 && total+sepLen+pieceLen > s.chunkSize {
			join()

			// Shrink the window to the overlap budget
			for len(window) > 0 && total > s.chunkOverlap {
				total -= runeLen(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}

		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, piece)
		total += pieceLen
	}

	if len(window) > 0 {
		join()
	}

	return chunks
}

// hardCut slices text into fixed windows when no separator applies
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.chunkOverlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
