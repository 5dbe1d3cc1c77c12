package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"notification_feed/internal/models"
)

// DateLayout is how notification dates are rendered for clients.
const DateLayout = "2006-01-02"

var ErrNotFound = errors.New("notification not found")

// Database wraps the PostgreSQL connection pool.
type Database struct {
	Pool *pgxpool.Pool
}

// NewDB creates a connection pool for connString.
func NewDB(ctx context.Context, connString string) (*Database, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return &Database{Pool: pool}, nil
}

func (db *Database) Close() {
	db.Pool.Close()
}

func (db *Database) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate creates the notifications table if it does not exist yet.
func (db *Database) Migrate(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notifications (
            id BIGSERIAL PRIMARY KEY,
            message TEXT NOT NULL,
            link VARCHAR(2048) NOT NULL,
            created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
        )
    `)
	if err != nil {
		return fmt.Errorf("migrate notifications: %w", err)
	}
	return nil
}

// ListNotifications returns up to limit notifications, newest first, with ids
// below beforeID. beforeID <= 0 starts from the newest.
func (db *Database) ListNotifications(ctx context.Context, beforeID int64, limit int) ([]models.Notification, error) {
	query := `
        SELECT id, message, link, created_at
        FROM notifications
        ORDER BY id DESC
        LIMIT $1
    `
	args := []interface{}{limit}
	if beforeID > 0 {
		query = `
        SELECT id, message, link, created_at
        FROM notifications
        WHERE id < $2
        ORDER BY id DESC
        LIMIT $1
    `
		args = append(args, beforeID)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]models.Notification, 0, limit)
	for rows.Next() {
		var (
			n         models.Notification
			createdAt time.Time
		)
		if err := rows.Scan(&n.ID, &n.Message, &n.Link, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Date = createdAt.Format(DateLayout)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

// DeleteNotification removes one notification. It returns ErrNotFound when
// no row matched.
func (db *Database) DeleteNotification(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveNotification stores an event and returns the new notification id.
// A zero CreatedAt means now.
func (db *Database) SaveNotification(ctx context.Context, ev models.NotificationEvent) (int64, error) {
	createdAt := ev.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var id int64
	err := db.Pool.QueryRow(ctx, `
        INSERT INTO notifications (message, link, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `, ev.Message, ev.Link, createdAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}
