package transcript

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const createChatMessagesTable = `
	CREATE TABLE IF NOT EXISTS chat_messages (
		seq        BIGSERIAL PRIMARY KEY,
		id         UUID        NOT NULL UNIQUE,
		user_id    TEXT        NOT NULL,
		role       TEXT        NOT NULL,
		message    TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS chat_messages_user_id_created_at_idx
		ON chat_messages (user_id, created_at, seq);
`

type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the chat_messages table if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createChatMessagesTable); err != nil {
		return fmt.Errorf("failed to create chat_messages table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID string, role Role, text string) (Record, error) {
	if err := validate(sessionID, role, text); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Text:      text,
	}

	// created_at never goes below the newest row of the same session.
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO chat_messages (id, user_id, role, message, created_at)
		VALUES ($1, $2, $3, $4, GREATEST(
			clock_timestamp(),
			COALESCE((SELECT max(created_at) FROM chat_messages WHERE user_id = $2), clock_timestamp())
		))
		RETURNING created_at
	`,
		rec.ID,
		rec.SessionID,
		string(rec.Role),
		rec.Text,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert message for session %s: %w", sessionID, err)
	}

	return rec, nil
}

func (s *PostgresStore) FetchHistory(ctx context.Context, sessionID string) ([]Record, error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	out := []Record{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, user_id, role, message, created_at
		FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at ASC, seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages for session %s: %w", sessionID, err)
	}

	return out, nil
}
