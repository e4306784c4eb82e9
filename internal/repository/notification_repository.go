package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/theta-web/internal/model"
)

// NotificationRepo reads dashboard notifications.  Rows are written and
// removed by InquiryRepo inside its transactions.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo creates a new NotificationRepo with the given database connection.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// ListUnread returns unread notifications, newest first.
func (r *NotificationRepo) ListUnread(ctx context.Context) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, quote_id, kind, is_read, created_at FROM notifications
		 WHERE is_read=FALSE ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.QuoteID, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CountUnread returns the number of unread notifications.
func (r *NotificationRepo) CountUnread(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications WHERE is_read=FALSE").Scan(&n)
	return n, err
}

// ListByQuote returns every notification linked to an inquiry.
func (r *NotificationRepo) ListByQuote(ctx context.Context, quoteID uint64) ([]model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, quote_id, kind, is_read, created_at FROM notifications WHERE quote_id=? ORDER BY id",
		quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.QuoteID, &n.Kind, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
