package transcript

import (
	"context"
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser Role = "USER"
	RoleBot  Role = "CHATBOT"
)

var (
	ErrSessionRequired = errors.New("transcript: session id is required")
	ErrTextRequired    = errors.New("transcript: message text is required")
	ErrUnknownRole     = errors.New("transcript: unknown role")
)

// Record is one persisted row. The store is append-only: records are never updated or deleted.
type Record struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"user_id" json:"user_id"`
	Role      Role      `db:"role" json:"role"`
	Text      string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Store — persistence
type Store interface {
	Append(ctx context.Context, sessionID string, role Role, text string) (Record, error)
	FetchHistory(ctx context.Context, sessionID string) ([]Record, error)
}

func validate(sessionID string, role Role, text string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionRequired
	}
	if role != RoleUser && role != RoleBot {
		return ErrUnknownRole
	}
	if text == "" {
		return ErrTextRequired
	}
	return nil
}

// nextTimestamp keeps created_at non-decreasing within a session when the clock steps back.
func nextTimestamp(now, last time.Time) time.Time {
	if now.Before(last) {
		return last
	}
	return now
}
