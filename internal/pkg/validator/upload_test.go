package validator

import (
	"errors"
	"mime/multipart"
	"testing"

	"github.com/quiverai/quiver/internal/config"
	"github.com/quiverai/quiver/internal/entity"
)

func testValidator() *Validator {
	return NewValidator(config.FileUploadConfig{
		MaxFileSize:  1000,
		MaxTotalSize: 2500,
		MaxFileCount: 3,
	})
}

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name    string
		files   []*multipart.FileHeader
		wantErr error
	}{
		{
			name:  "valid mix of extensions",
			files: []*multipart.FileHeader{header("a.txt", 100), header("b.MD", 200), header("c.pdf", 300)},
		},
		{
			name:    "no files",
			files:   nil,
			wantErr: entity.ErrMissingField,
		},
		{
			name:    "too many files",
			files:   []*multipart.FileHeader{header("a.txt", 1), header("b.txt", 1), header("c.txt", 1), header("d.txt", 1)},
			wantErr: entity.ErrTooManyFiles,
		},
		{
			name:    "unsupported extension",
			files:   []*multipart.FileHeader{header("notes.docx", 100)},
			wantErr: entity.ErrInvalidExtension,
		},
		{
			name:    "single file too large",
			files:   []*multipart.FileHeader{header("big.pdf", 1001)},
			wantErr: entity.ErrFileTooLarge,
		},
		{
			name:    "total size too large",
			files:   []*multipart.FileHeader{header("a.pdf", 900), header("b.pdf", 900), header("c.pdf", 900)},
			wantErr: entity.ErrTotalSizeTooLarge,
		},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.files)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr error
	}{
		{name: "https url", url: "https://example.com/page"},
		{name: "http url", url: "http://example.com"},
		{name: "empty", url: "", wantErr: entity.ErrMissingField},
		{name: "wrong scheme", url: "ftp://example.com/file", wantErr: entity.ErrInvalidURL},
		{name: "missing host", url: "https://", wantErr: entity.ErrInvalidURL},
		{name: "relative path", url: "/just/a/path", wantErr: entity.ErrInvalidURL},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateURL(tt.url)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report (final).pdf", "report_final.pdf"},
		{"../../etc/passwd", "passwd"},
		{"plain.txt", "plain.txt"},
		{"notes [v2].md", "notes_v2.md"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
