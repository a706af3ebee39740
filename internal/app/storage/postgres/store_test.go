package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/Integral-ind/integral-backend/internal/app/domain/notification"
	"github.com/Integral-ind/integral-backend/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestGetPreferenceNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT user_id, in_app, push, email, mute_all, updated_at`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "in_app", "push", "email", "mute_all", "updated_at"}))

	_, err := store.GetPreference(context.Background(), "user-1")
	require.True(t, errors.Is(err, storage.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPreferenceDecodesChannelMaps(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"user_id", "in_app", "push", "email", "mute_all", "updated_at"}).
		AddRow("user-1", []byte(`{}`), []byte(`{"chat_message":false}`), []byte(`{}`), false, now)
	mock.ExpectQuery(`SELECT user_id, in_app, push, email, mute_all, updated_at`).
		WithArgs("user-1").
		WillReturnRows(rows)

	pref, err := store.GetPreference(context.Background(), "user-1")
	require.NoError(t, err)
	require.False(t, pref.Push[notification.TypeChatMessage])

	channels := pref.Resolve(notification.TypeChatMessage)
	require.True(t, channels[notification.ChannelInApp])
	require.False(t, channels[notification.ChannelPush])
	require.True(t, channels[notification.ChannelEmail])
}

func TestCountUnread(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := store.CountUnread(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestMarkAllReadReturnsAffected(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE notifications`).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.MarkAllRead(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestUpdateEmailNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE email_queue`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateEmail(context.Background(), notification.EmailQueueItem{
		ID:     "missing",
		Status: notification.EmailFailed,
	})
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestListDueEmailsFiltersPending(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "type", "recipient", "subject", "body", "status",
		"attempts", "max_attempts", "scheduled_for", "last_error", "created_at", "updated_at",
	}).AddRow("em-1", "team_invite", "a@example.com", "Invite", "body", "pending",
		1, 3, now, nil, now, now)

	mock.ExpectQuery(`SELECT .+ FROM email_queue`).
		WillReturnRows(rows)

	items, err := store.ListDueEmails(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, notification.EmailPending, items[0].Status)
	require.Equal(t, 1, items[0].Attempts)
}
