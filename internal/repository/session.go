package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quillbase/quillbase/internal/domain"
)

// SessionRepository persists per-user chat history in an append-only messages
// table. Appends are single INSERT transactions ordered by a BIGSERIAL
// sequence, so two concurrent appends for the same user may interleave but
// can never lose each other's rows. There is no read-modify-write anywhere.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// AppendMessages atomically appends msgs to the user's history and returns
// the updated full history.
func (r *SessionRepository) AppendMessages(ctx context.Context, userID string, msgs []domain.Message) ([]domain.Message, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	for _, m := range msgs {
		if err := domain.ValidateMessage(m); err != nil {
			return nil, err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO messages (user_id, role, content, created_at)
			 VALUES ($1, $2, $3, $4)`,
			userID, m.Role, m.Content, m.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return r.GetHistory(ctx, userID)
}

// GetHistory returns the user's messages in append order. A user with no
// history gets an empty slice.
func (r *SessionRepository) GetHistory(ctx context.Context, userID string) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role, content, created_at
		 FROM messages WHERE user_id = $1 ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]domain.Message, 0)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
