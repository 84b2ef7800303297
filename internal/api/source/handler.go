package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/config"
	"github.com/quiverai/quiver/internal/entity"
	"github.com/quiverai/quiver/internal/pkg/logger"
	"github.com/quiverai/quiver/internal/pkg/response"
	"github.com/quiverai/quiver/internal/pkg/validator"
)

type Handler struct {
	usecase   KnowledgeUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
}

func NewHandler(usecase KnowledgeUsecase, cfg config.FileUploadConfig, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: validator,
	}
}

// UploadFiles handles POST /sources/files. Each uploaded file becomes
// a vault source, re-uploads replace the existing one.
func (h *Handler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "UploadFiles")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid form data or size too large")
		return
	}

	files := r.MultipartForm.File["files"]
	if err := h.validator.ValidateUpload(files); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "uploading files", zap.Int("file_count", len(files)))

	dtos := make([]entity.SourceDTO, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			ctxzap.Error(ctx, "failed to open upload", zap.String("filename", fh.Filename), zap.Error(err))
			response.Error(w, http.StatusBadRequest, "unreadable upload: "+fh.Filename)
			return
		}

		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			ctxzap.Error(ctx, "failed to read upload", zap.String("filename", fh.Filename), zap.Error(err))
			response.Error(w, http.StatusBadRequest, "unreadable upload: "+fh.Filename)
			return
		}

		saved, err := h.usecase.AddFile(ctx, validator.SanitizeFilename(fh.Filename), data)
		if err != nil {
			h.handleUsecaseError(ctx, w, err)
			return
		}

		dtos = append(dtos, toSourceDTO(saved, 0))
	}

	ctxzap.Info(ctx, "files ingested", zap.Int("count", len(dtos)))
	response.Created(w, dtos)
}

// AddURL handles POST /sources/url
func (h *Handler) AddURL(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AddURL")

	var req entity.AddURLRequest
	if err := decodeJSON(r, &req); err != nil {
		ctxzap.Error(ctx, "failed to decode request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.ValidateURL(req.URL); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "adding url source", zap.String("url", req.URL))

	saved, err := h.usecase.AddURL(ctx, req.URL)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Created(w, toSourceDTO(saved, 0))
}

// ListSources handles GET /sources
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListSources")

	sources, counts, err := h.usecase.List(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	dtos := make([]entity.SourceDTO, 0, len(sources))
	for _, source := range sources {
		dtos = append(dtos, toSourceDTO(source, counts[source.ID]))
	}

	ctxzap.Debug(ctx, "sources listed", zap.Int("count", len(dtos)))
	response.Success(w, dtos)
}

// DeleteSource handles DELETE /sources. Source IDs contain slashes
// ("file://name", "url://hash"), so the ID travels as a query
// parameter rather than a path segment.
func (h *Handler) DeleteSource(w http.ResponseWriter, r *http.Request) {
	sourceID := r.URL.Query().Get("id")
	ctx := logger.AddFields(r.Context(),
		zap.String("source_id", sourceID),
		zap.String("action", "DeleteSource"),
	)

	if sourceID == "" {
		response.Error(w, http.StatusBadRequest, "missing id parameter")
		return
	}

	if err := h.usecase.Delete(ctx, sourceID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "source deleted")
	response.NoContent(w)
}

// Reindex handles POST /reindex. The rebuild walks the docs directory
// and re-embeds everything, so it runs in the background.
func (h *Handler) Reindex(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Reindex")

	ctxzap.Info(ctx, "reindex requested")
	response.Accepted(w, entity.ReindexResponse{Status: "accepted"})

	go func() {
		bgCtx := logger.WithAction(ctxzap.ToContext(context.Background(), ctxzap.Extract(ctx)), "Reindex-async")

		if err := h.usecase.Rebuild(bgCtx); err != nil {
			ctxzap.Error(bgCtx, "reindex failed", zap.Error(err))
			return
		}
		ctxzap.Info(bgCtx, "reindex finished")
	}()
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "request failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrSourceNotFound):
		response.Error(w, http.StatusNotFound, "source not found")
	case errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrInvalidURL),
		errors.Is(err, entity.ErrUnsupportedFileType),
		errors.Is(err, entity.ErrEmptySource),
		errors.Is(err, entity.ErrInvalidFile),
		errors.Is(err, entity.ErrFileTooLarge),
		errors.Is(err, entity.ErrTooManyFiles),
		errors.Is(err, entity.ErrInvalidExtension),
		errors.Is(err, entity.ErrTotalSizeTooLarge):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
