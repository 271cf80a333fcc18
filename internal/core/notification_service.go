package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationService reads and acknowledges in-app notifications. Writes
// happen inside other services' transactions; this surface only consumes.
type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkAsRead(ctx context.Context, notificationID, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, notificationID, userID string) error
}

type notificationService struct {
	pool *pgxpool.Pool
}

func NewNotificationService(pool *pgxpool.Pool) NotificationService {
	return &notificationService{pool: pool}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, type, title, message, metadata, is_read, read_at, created_at
		FROM notifications
		WHERE user_id = $1
	`
	if unreadOnly {
		query += " AND is_read = false"
	}
	query += " ORDER BY created_at DESC LIMIT $2"

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.Metadata, &n.IsRead, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*)::int FROM notifications WHERE user_id = $1 AND is_read = false",
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, notificationID, userID string) error {
	var id string
	err := s.pool.QueryRow(ctx, `
		UPDATE notifications SET is_read = true, read_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id
	`, notificationID, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
		}
		return fmt.Errorf("failed to mark notification %s as read: %w", notificationID, err)
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications SET is_read = true, read_at = NOW()
		WHERE user_id = $1 AND is_read = false
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *notificationService) Delete(ctx context.Context, notificationID, userID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM notifications WHERE id = $1 AND user_id = $2", notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", notificationID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
	}
	return nil
}
