package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiverai/quiver/internal/entity"
)

// ConversationPostgres persists chat threads in PostgreSQL
type ConversationPostgres struct {
	db *pgxpool.Pool
}

func NewConversationPostgres(db *pgxpool.Pool) *ConversationPostgres {
	return &ConversationPostgres{db: db}
}

func (r *ConversationPostgres) Create(ctx context.Context, conv entity.Conversation) (*entity.Conversation, error) {
	id, err := parseUUID(conv.ID)
	if err != nil {
		return nil, fmt.Errorf("parse conversation ID: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO conversations (id, title)
		VALUES ($1, $2)
		RETURNING id, title, created_at`,
		id, conv.Title,
	)

	saved, err := scanConversation(row)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return saved, nil
}

func (r *ConversationPostgres) Get(ctx context.Context, id string) (*entity.Conversation, error) {
	convID, err := parseUUID(id)
	if err != nil {
		return nil, entity.ErrConversationNotFound
	}

	row := r.db.QueryRow(ctx, `
		SELECT id, title, created_at
		FROM conversations
		WHERE id = $1`,
		convID,
	)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrConversationNotFound
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return conv, nil
}

func (r *ConversationPostgres) List(ctx context.Context) ([]*entity.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, created_at
		FROM conversations
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*entity.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	return convs, nil
}

func (r *ConversationPostgres) Delete(ctx context.Context, id string) error {
	convID, err := parseUUID(id)
	if err != nil {
		return entity.ErrConversationNotFound
	}

	tag, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, convID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrConversationNotFound
	}
	return nil
}

func scanConversation(row pgx.Row) (*entity.Conversation, error) {
	var id pgtype.UUID
	var conv entity.Conversation
	if err := row.Scan(&id, &conv.Title, &conv.CreatedAt); err != nil {
		return nil, err
	}
	conv.ID = uuid.UUID(id.Bytes).String()
	return &conv, nil
}

func parseUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return pgtype.UUID{}, err
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
