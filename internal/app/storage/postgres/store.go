// Package postgres implements the notification-owned storage interfaces on
// the platform's direct Postgres connection. Only the tables this backend
// owns live here; entity CRUD goes through the hosted REST surface instead.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
)

// Store implements the notification storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.NotificationStore = (*Store)(nil)
var _ storage.PreferenceStore = (*Store)(nil)
var _ storage.PushSubscriptionStore = (*Store)(nil)
var _ storage.EmailQueueStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func mapErr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

// --- NotificationStore ------------------------------------------------------

type notificationRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Type      string         `db:"type"`
	Title     string         `db:"title"`
	Body      string         `db:"body"`
	Link      sql.NullString `db:"link"`
	ActorID   sql.NullString `db:"actor_id"`
	Metadata  []byte         `db:"metadata"`
	Read      bool           `db:"read"`
	CreatedAt time.Time      `db:"created_at"`
	ReadAt    *time.Time     `db:"read_at"`
}

func (r notificationRow) toDomain() notification.Notification {
	n := notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      notification.Type(r.Type),
		Title:     r.Title,
		Body:      r.Body,
		Link:      r.Link.String,
		ActorID:   r.ActorID.String,
		Read:      r.Read,
		CreatedAt: r.CreatedAt,
		ReadAt:    r.ReadAt,
	}
	if len(r.Metadata) > 0 {
		_ = json.Unmarshal(r.Metadata, &n.Metadata)
	}
	return n
}

func (s *Store) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(n.Metadata)
	if err != nil {
		return notification.Notification{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, link, actor_id, metadata, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, n.ID, n.UserID, string(n.Type), n.Title, n.Body, nullable(n.Link), nullable(n.ActorID), metadataJSON, n.Read, n.CreatedAt)
	if err != nil {
		return notification.Notification{}, err
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]notification.Notification, error) {
	query := `
		SELECT id, user_id, type, title, body, link, actor_id, metadata, read, created_at, read_at
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read = FALSE`
	}
	query += ` ORDER BY created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}

	var rows []notificationRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	result := make([]notification.Notification, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) MarkRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read = FALSE
	`, id, userID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		// Already read is fine; missing row is not.
		var exists bool
		if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`, id, userID); err != nil {
			return err
		}
		if !exists {
			return storage.ErrNotFound
		}
	}
	return nil
}

func (s *Store) MarkAllRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND read = FALSE
	`, userID)
	if err != nil {
		return 0, err
	}
	rows, _ := res.RowsAffected()
	return int(rows), nil
}

func (s *Store) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE
	`, userID)
	return count, err
}

// --- PreferenceStore --------------------------------------------------------

type preferenceRow struct {
	UserID    string    `db:"user_id"`
	InApp     []byte    `db:"in_app"`
	Push      []byte    `db:"push"`
	Email     []byte    `db:"email"`
	MuteAll   bool      `db:"mute_all"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Store) GetPreference(ctx context.Context, userID string) (notification.Preference, error) {
	var row preferenceRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, in_app, push, email, mute_all, updated_at
		FROM notification_preferences
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return notification.Preference{}, mapErr(err)
	}

	pref := notification.Preference{
		UserID:    row.UserID,
		MuteAll:   row.MuteAll,
		UpdatedAt: row.UpdatedAt,
	}
	_ = json.Unmarshal(row.InApp, &pref.InApp)
	_ = json.Unmarshal(row.Push, &pref.Push)
	_ = json.Unmarshal(row.Email, &pref.Email)
	return pref, nil
}

func (s *Store) UpsertPreference(ctx context.Context, pref notification.Preference) (notification.Preference, error) {
	pref.UpdatedAt = time.Now().UTC()

	inApp, err := json.Marshal(pref.InApp)
	if err != nil {
		return notification.Preference{}, err
	}
	push, err := json.Marshal(pref.Push)
	if err != nil {
		return notification.Preference{}, err
	}
	email, err := json.Marshal(pref.Email)
	if err != nil {
		return notification.Preference{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO notification_preferences (user_id, in_app, push, email, mute_all, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET in_app = EXCLUDED.in_app, push = EXCLUDED.push, email = EXCLUDED.email,
		    mute_all = EXCLUDED.mute_all, updated_at = EXCLUDED.updated_at
	`, pref.UserID, inApp, push, email, pref.MuteAll, pref.UpdatedAt)
	if err != nil {
		return notification.Preference{}, err
	}
	return pref, nil
}

// --- PushSubscriptionStore --------------------------------------------------

type subscriptionRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Endpoint     string    `db:"endpoint"`
	P256DH       string    `db:"p256dh"`
	Auth         string    `db:"auth"`
	UserAgent    string    `db:"user_agent"`
	Active       bool      `db:"active"`
	FailureCount int       `db:"failure_count"`
	CreatedAt    time.Time `db:"created_at"`
	LastSeenAt   time.Time `db:"last_seen_at"`
}

func (r subscriptionRow) toDomain() notification.PushSubscription {
	return notification.PushSubscription{
		ID:           r.ID,
		UserID:       r.UserID,
		Endpoint:     r.Endpoint,
		P256DH:       r.P256DH,
		Auth:         r.Auth,
		UserAgent:    r.UserAgent,
		Active:       r.Active,
		FailureCount: r.FailureCount,
		CreatedAt:    r.CreatedAt,
		LastSeenAt:   r.LastSeenAt,
	}
}

func (s *Store) SaveSubscription(ctx context.Context, sub notification.PushSubscription) (notification.PushSubscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	sub.Active = true
	sub.FailureCount = 0
	sub.LastSeenAt = now
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}

	var row subscriptionRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, user_agent, active, failure_count, created_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, 0, $7, $8)
		ON CONFLICT (user_id, endpoint) DO UPDATE
		SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth, user_agent = EXCLUDED.user_agent,
		    active = TRUE, failure_count = 0, last_seen_at = EXCLUDED.last_seen_at
		RETURNING id, user_id, endpoint, p256dh, auth, user_agent, active, failure_count, created_at, last_seen_at
	`, sub.ID, sub.UserID, sub.Endpoint, sub.P256DH, sub.Auth, sub.UserAgent, sub.CreatedAt, sub.LastSeenAt)
	if err != nil {
		return notification.PushSubscription{}, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListActiveSubscriptions(ctx context.Context, userID string) ([]notification.PushSubscription, error) {
	var rows []subscriptionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, endpoint, p256dh, auth, user_agent, active, failure_count, created_at, last_seen_at
		FROM push_subscriptions
		WHERE user_id = $1 AND active = TRUE
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}

	result := make([]notification.PushSubscription, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) UpdateSubscription(ctx context.Context, sub notification.PushSubscription) (notification.PushSubscription, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE push_subscriptions
		SET active = $2, failure_count = $3, last_seen_at = $4
		WHERE id = $1
	`, sub.ID, sub.Active, sub.FailureCount, sub.LastSeenAt)
	if err != nil {
		return notification.PushSubscription{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return notification.PushSubscription{}, storage.ErrNotFound
	}
	return sub, nil
}

func (s *Store) DeleteSubscription(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM push_subscriptions WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- EmailQueueStore --------------------------------------------------------

type emailRow struct {
	ID           string         `db:"id"`
	Type         string         `db:"type"`
	Recipient    string         `db:"recipient"`
	Subject      string         `db:"subject"`
	Body         string         `db:"body"`
	Status       string         `db:"status"`
	Attempts     int            `db:"attempts"`
	MaxAttempts  int            `db:"max_attempts"`
	ScheduledFor time.Time      `db:"scheduled_for"`
	LastError    sql.NullString `db:"last_error"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r emailRow) toDomain() notification.EmailQueueItem {
	return notification.EmailQueueItem{
		ID:           r.ID,
		Type:         notification.Type(r.Type),
		Recipient:    r.Recipient,
		Subject:      r.Subject,
		Body:         r.Body,
		Status:       notification.EmailStatus(r.Status),
		Attempts:     r.Attempts,
		MaxAttempts:  r.MaxAttempts,
		ScheduledFor: r.ScheduledFor,
		LastError:    r.LastError.String,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (s *Store) EnqueueEmail(ctx context.Context, item notification.EmailQueueItem) (notification.EmailQueueItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.Status == "" {
		item.Status = notification.EmailPending
	}
	if item.ScheduledFor.IsZero() {
		item.ScheduledFor = now
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_queue (id, type, recipient, subject, body, status, attempts, max_attempts, scheduled_for, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, item.ID, string(item.Type), item.Recipient, item.Subject, item.Body, string(item.Status),
		item.Attempts, item.MaxAttempts, item.ScheduledFor, nullable(item.LastError), item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return notification.EmailQueueItem{}, err
	}
	return item, nil
}

func (s *Store) GetEmail(ctx context.Context, id string) (notification.EmailQueueItem, error) {
	var row emailRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, type, recipient, subject, body, status, attempts, max_attempts, scheduled_for, last_error, created_at, updated_at
		FROM email_queue
		WHERE id = $1
	`, id)
	if err != nil {
		return notification.EmailQueueItem{}, mapErr(err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListDueEmails(ctx context.Context, now time.Time, limit int) ([]notification.EmailQueueItem, error) {
	var rows []emailRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, type, recipient, subject, body, status, attempts, max_attempts, scheduled_for, last_error, created_at, updated_at
		FROM email_queue
		WHERE status = 'pending' AND scheduled_for <= $1
		ORDER BY scheduled_for
		LIMIT $2
	`, now, limit)
	if err != nil {
		return nil, err
	}

	result := make([]notification.EmailQueueItem, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toDomain())
	}
	return result, nil
}

func (s *Store) UpdateEmail(ctx context.Context, item notification.EmailQueueItem) (notification.EmailQueueItem, error) {
	item.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE email_queue
		SET status = $2, attempts = $3, scheduled_for = $4, last_error = $5, updated_at = $6
		WHERE id = $1
	`, item.ID, string(item.Status), item.Attempts, item.ScheduledFor, nullable(item.LastError), item.UpdatedAt)
	if err != nil {
		return notification.EmailQueueItem{}, err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return notification.EmailQueueItem{}, storage.ErrNotFound
	}
	return item, nil
}

func (s *Store) CountPendingEmails(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM email_queue WHERE status = 'pending'`)
	return count, err
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
