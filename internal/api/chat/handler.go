package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/quiverai/quiver/internal/entity"
	"github.com/quiverai/quiver/internal/pkg/logger"
	"github.com/quiverai/quiver/internal/pkg/response"
)

type Handler struct {
	usecase ChatUsecase
}

func NewHandler(usecase ChatUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// Chat handles POST /chat. The answer is streamed as NDJSON, one chunk
// object per line, closed by a "done" line carrying the conversation ID.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Chat")

	var req entity.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Error(ctx, "failed to decode chat request", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	enc := json.NewEncoder(w)
	started := false

	conv, err := h.usecase.Ask(ctx, req.ConversationID, req.Message, func(chunk entity.StreamChunk) error {
		started = true
		if err := enc.Encode(chunk); err != nil {
			return fmt.Errorf("write chunk: %w", err)
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if !started {
			h.handleUsecaseError(ctx, w, err)
			return
		}
		// The stream is already open, all we can do is cut it short
		ctxzap.Error(ctx, "chat stream aborted", zap.Error(err))
		return
	}

	if err := enc.Encode(doneLine{Type: "done", ConversationID: conv.ID}); err != nil {
		ctxzap.Error(ctx, "failed to write done line", zap.Error(err))
		return
	}
	flusher.Flush()
}

// ListConversations handles GET /conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListConversations")

	convs, err := h.usecase.ListConversations(ctx)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	dtos := make([]entity.ConversationDTO, 0, len(convs))
	for _, conv := range convs {
		dtos = append(dtos, toConversationDTO(conv))
	}

	ctxzap.Debug(ctx, "conversations listed", zap.Int("count", len(dtos)))
	response.Success(w, dtos)
}

// GetConversation handles GET /conversations/{conversation_id}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "GetConversation"),
	)

	conv, msgs, err := h.usecase.GetConversation(ctx, conversationID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, toConversationDetailDTO(conv, msgs))
}

// DeleteConversation handles DELETE /conversations/{conversation_id}
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "DeleteConversation"),
	)

	if err := h.usecase.DeleteConversation(ctx, conversationID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "conversation deleted")
	response.NoContent(w)
}

// ExportConversation handles GET /conversations/{conversation_id}/export
func (h *Handler) ExportConversation(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversation_id")
	ctx := logger.AddFields(r.Context(),
		zap.String("conversation_id", conversationID),
		zap.String("action", "ExportConversation"),
	)

	format := entity.ResultFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = entity.FormatMarkdown
	}

	payload, contentType, ext, err := h.usecase.ExportTranscript(ctx, conversationID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "transcript exported",
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload)),
	)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "transcript"+ext))
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	ctxzap.Error(ctx, "request failed", zap.Error(err))

	switch {
	case errors.Is(err, entity.ErrConversationNotFound):
		response.Error(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, entity.ErrMissingField), errors.Is(err, entity.ErrInvalidParameter):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
