package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/StackLine-App/pokerbase/internal/app/domain/profile"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func TestGetProfile_MapsNoRows(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery(`SELECT .+ FROM profiles`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetProfile(context.Background(), "missing")
	require.ErrorIs(t, err, profile.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfile_ScansRow(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "username", "display_name", "bio", "avatar_url",
		"follower_count", "following_count", "created_at", "updated_at",
	}).AddRow("u1", "hero", "The Hero", "", "", 3, 7, now, now)

	mock.ExpectQuery(`SELECT .+ FROM profiles`).
		WithArgs("u1").
		WillReturnRows(rows)

	p, err := store.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "hero", p.Username)
	require.Equal(t, 3, p.FollowerCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProfile_GeneratesID(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO profiles`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p, err := store.CreateProfile(context.Background(), profile.Profile{Username: "hero"})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID, "missing id is generated")
	require.False(t, p.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProfile_ZeroRowsIsNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM profiles`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteProfile(context.Background(), "missing")
	require.ErrorIs(t, err, profile.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
