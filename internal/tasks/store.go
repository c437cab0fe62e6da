package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const recentTasksQuery = `
	SELECT
		COALESCE(title, ''),
		COALESCE(description, ''),
		COALESCE(status, ''),
		COALESCE(priority, ''),
		deadline,
		COALESCE(assigned_to::text, '')
	FROM tasks
	WHERE assigned_to::text = $1 OR created_by::text = $1
	ORDER BY created_at DESC
	LIMIT $2
`

// PostgresStore reads tasks straight from the tasks table.
type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db}
}

func (s *PostgresStore) RecentTasks(ctx context.Context, userID string) ([]Task, error) {
	rows, err := s.DB.QueryContext(ctx, recentTasksQuery, userID, MaxContextTasks)
	if err != nil {
		return nil, describePQ("query tasks", err)
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		var (
			t        Task
			deadline sql.NullTime
		)
		if err := rows.Scan(
			&t.Title,
			&t.Description,
			&t.Status,
			&t.Priority,
			&deadline,
			&t.AssignedTo,
		); err != nil {
			return nil, describePQ("scan task", err)
		}
		if deadline.Valid {
			d := deadline.Time
			t.Deadline = &d
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, describePQ("read tasks", err)
	}
	return result, nil
}

// describePQ keeps the SQLSTATE code in the message when the driver gives one.
func describePQ(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%s: %s (%s): %w", op, pqErr.Message, pqErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
