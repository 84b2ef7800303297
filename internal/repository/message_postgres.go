package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quiverai/quiver/internal/entity"
)

// MessagePostgres persists conversation messages in PostgreSQL
type MessagePostgres struct {
	db *pgxpool.Pool
}

func NewMessagePostgres(db *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{db: db}
}

func (r *MessagePostgres) Create(ctx context.Context, msg entity.Message) (*entity.Message, error) {
	id, err := parseUUID(msg.ID)
	if err != nil {
		return nil, fmt.Errorf("parse message ID: %w", err)
	}

	convID, err := parseUUID(msg.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("parse conversation ID: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conversation_id, role, content, created_at`,
		id, convID, msg.Role, msg.Content,
	)

	saved, err := scanMessage(row)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return saved, nil
}

func (r *MessagePostgres) ListByConversation(ctx context.Context, conversationID string) ([]*entity.Message, error) {
	convID, err := parseUUID(conversationID)
	if err != nil {
		return nil, entity.ErrConversationNotFound
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at, id`,
		convID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*entity.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return msgs, nil
}

func scanMessage(row pgx.Row) (*entity.Message, error) {
	var id, convID pgtype.UUID
	var msg entity.Message
	if err := row.Scan(&id, &convID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
		return nil, err
	}
	msg.ID = uuid.UUID(id.Bytes).String()
	msg.ConversationID = uuid.UUID(convID.Bytes).String()
	return &msg, nil
}
