package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/quiverai/quiver/internal/entity"
)

const urlFetchTimeout = 30 * time.Second

// Loader turns raw vault inputs (uploaded files, web pages) into
// entity.Source values with plain-text content.
type Loader struct {
	httpClient *http.Client
}

func NewLoader() *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: urlFetchTimeout,
		},
	}
}

// LoadFromFile builds a Source from a file's name and raw bytes.
// Supported extensions: .txt, .md (read as UTF-8), .pdf (text layer
// extracted).
func (l *Loader) LoadFromFile(name string, data []byte) (*entity.Source, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var content string
	switch ext {
	case ".txt", ".md":
		content = string(data)
	case ".pdf":
		text, err := extractPDFText(data)
		if err != nil {
			return nil, fmt.Errorf("extract pdf text from %s: %w", name, err)
		}
		content = text
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedFileType, ext)
	}

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptySource, name)
	}

	return &entity.Source{
		ID:      "file://" + filepath.Base(name),
		Name:    filepath.Base(name),
		Type:    entity.SourceTypeDocument,
		Content: content,
	}, nil
}

// LoadFromURL fetches a web page and reduces it to plain text
func (l *Loader) LoadFromURL(ctx context.Context, url string) (*entity.Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	content := HTMLToText(body)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", entity.ErrEmptySource, url)
	}

	return &entity.Source{
		ID:      fmt.Sprintf("url://%x", hashURL(url)),
		Name:    url,
		Type:    entity.SourceTypeURL,
		Content: content,
	}, nil
}

func hashURL(url string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(url))
	return h.Sum64()
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Pages without a text layer are skipped, not fatal
			continue
		}

		if strings.TrimSpace(text) == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}

// blockTags are HTML elements whose boundaries become paragraph breaks
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "br": true, "blockquote": true, "pre": true,
}

// skippedTags are HTML elements whose text content is never page text
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"head": true, "template": true, "iframe": true,
}

// HTMLToText strips markup from an HTML document, joining block
// elements with blank lines.
func HTMLToText(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var blocks []string
	var current strings.Builder

	flush := func() {
		if text := strings.TrimSpace(current.String()); text != "" {
			blocks = append(blocks, text)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedTags[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			text := strings.Join(strings.Fields(n.Data), " ")
			if text != "" {
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockTags[n.Data] {
			flush()
		}
	}
	walk(doc)
	flush()

	return strings.Join(blocks, "\n\n")
}
