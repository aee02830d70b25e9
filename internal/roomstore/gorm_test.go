package roomstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"doodleit/internal/db"
	"doodleit/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRecordRoundTrip(t *testing.T) {
	room := newTestRoom("den", "c1", "c2", "c3")
	room.AdvanceTurn("pear")
	room.Guessed = []string{"c3"}
	room.Players[2].Points = 200

	record, err := toRecord(room)
	require.NoError(t, err)
	assert.JSONEq(t, `["c3"]`, string(record.Guessed))
	assert.Equal(t, uint64(1), record.Generation)

	loaded, err := fromRecord(record)
	require.NoError(t, err)
	assert.Equal(t, room.Players, loaded.Players)
	assert.Equal(t, []string{"c3"}, loaded.Guessed)
	assert.Equal(t, "pear", loaded.Word)
	assert.Equal(t, 1, loaded.TurnIndex)
	require.NotNil(t, loaded.Turn)
	assert.Equal(t, "c2", loaded.Turn.ConnectionHandle, "turn is rebuilt from the index")
	assert.True(t, loaded.IsJoin)
	assert.True(t, loaded.CreatedAt.Equal(room.CreatedAt))
}

func TestRecordOfEmptyRoom(t *testing.T) {
	room := newTestRoom("den", "c1")
	room.Players = nil
	room.Guessed = nil

	record, err := toRecord(room)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(record.Players))
	assert.JSONEq(t, `[]`, string(record.Guessed))

	loaded, err := fromRecord(record)
	require.NoError(t, err)
	assert.Empty(t, loaded.Players)
	assert.Nil(t, loaded.Turn)
}

func TestFromRecordRejectsCorruptPlayers(t *testing.T) {
	_, err := fromRecord(db.Room{Name: "den", Players: []byte("{")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode players")
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped", err: fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "foreign key", err: &pgconn.PgError{Code: "23503"}},
		{name: "plain", err: errors.New("connection reset")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isUniqueViolation(tc.err))
		})
	}
}

type capturedStatement struct {
	sql  string
	vars []interface{}
}

// dryRunGorm builds statements without a server and records each one.
func dryRunGorm(t *testing.T) (*Gorm, *[]capturedStatement) {
	t.Helper()
	conn, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=127.0.0.1 user=doodleit dbname=doodleit sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Discard,
	})
	require.NoError(t, err)

	captured := &[]capturedStatement{}
	capture := func(tx *gorm.DB) {
		*captured = append(*captured, capturedStatement{
			sql:  tx.Statement.SQL.String(),
			vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	require.NoError(t, conn.Callback().Query().After("gorm:query").Register("doodleit:capture_query", capture))
	require.NoError(t, conn.Callback().Update().After("gorm:update").Register("doodleit:capture_update", capture))
	require.NoError(t, conn.Callback().Delete().After("gorm:delete").Register("doodleit:capture_delete", capture))
	return NewGorm(conn), captured
}

func TestGormMemberLookupUsesJSONBContainment(t *testing.T) {
	store, captured := dryRunGorm(t)

	// Nothing is scanned in a dry run, so decoding the empty row fails.
	_, _ = store.FindByMemberConnection(context.Background(), "c2")

	require.Len(t, *captured, 1)
	stmt := (*captured)[0]
	assert.Contains(t, stmt.sql, `FROM "rooms"`)
	assert.Contains(t, stmt.sql, "players @> $1::jsonb")
	require.NotEmpty(t, stmt.vars)
	assert.JSONEq(t, `[{"socketID":"c2"}]`, fmt.Sprint(stmt.vars[0]))
}

func TestGormSaveUpdatesEveryMutableColumn(t *testing.T) {
	store, captured := dryRunGorm(t)
	room := newTestRoom("den", "c1", "c2")
	room.UpdatedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	_, err := store.Save(context.Background(), room)
	assert.ErrorIs(t, err, game.ErrRoomNotFound, "no row is touched in a dry run")

	require.Len(t, *captured, 1)
	stmt := (*captured)[0]
	assert.Contains(t, stmt.sql, `UPDATE "rooms" SET`)
	for _, column := range []string{
		"word", "occupancy", "max_rounds", "current_round", "turn_index", "is_join",
		"generation", "turn_complete", "started", "finished", "players", "guessed", "updated_at",
	} {
		assert.Contains(t, stmt.sql, fmt.Sprintf("%q=", column))
	}
	assert.NotContains(t, stmt.sql, `"created_at"=`)
	assert.Contains(t, stmt.sql, "WHERE name = $")
	assert.Equal(t, "den", stmt.vars[len(stmt.vars)-1])
}

func TestGormDeleteByName(t *testing.T) {
	store, captured := dryRunGorm(t)

	require.NoError(t, store.Delete(context.Background(), "den"))

	require.Len(t, *captured, 1)
	assert.Contains(t, (*captured)[0].sql, `DELETE FROM "rooms" WHERE name = $1`)
	assert.Equal(t, []interface{}{"den"}, (*captured)[0].vars)
}
