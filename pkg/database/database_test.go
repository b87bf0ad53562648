package database

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlerm/internal/testutil"
	"github.com/leapstack-labs/sqlerm/pkg/core"
)

// openMock returns an open Database backed by sqlmock with exact query matching.
func openMock(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	d := New(
		WithLogger(testutil.NewTestLogger(t)),
		WithOpener(func(_, _ string) (*sql.DB, error) { return db, nil }),
	)
	require.NoError(t, d.Open(t.Context(), DefaultSettings()))
	t.Cleanup(func() {
		mock.ExpectClose()
		_ = d.Close()
	})
	return d, mock
}

func TestDatabase_NotConnected(t *testing.T) {
	d := New()
	assert.False(t, d.IsOpen())

	_, err := d.Execute(t.Context(), "SELECT 1")
	assert.ErrorIs(t, err, core.ErrNotConnected)
	assert.Contains(t, err.Error(), "database connection not established")

	_, _, err = QueryScalar[int64](t.Context(), d, "SELECT 1")
	assert.ErrorIs(t, err, core.ErrNotConnected)

	_, err = d.TableExists(t.Context(), "Player")
	assert.ErrorIs(t, err, core.ErrNotConnected)

	_, err = d.Tables(t.Context())
	assert.ErrorIs(t, err, core.ErrNotConnected)

	_, _, err = d.QueryMaps(t.Context(), "SELECT 1")
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestDatabase_CloseWhenClosed(t *testing.T) {
	d := New()
	assert.NoError(t, d.Close())
	assert.NoError(t, d.Close())
}

func TestDatabase_OpenFailureLeavesStateUnchanged(t *testing.T) {
	d, _ := openMock(t)

	d.opener = func(_, _ string) (*sql.DB, error) { return nil, errors.New("disk on fire") }
	err := d.Open(t.Context(), DefaultSettings())
	assert.ErrorIs(t, err, core.ErrConnection)
	assert.True(t, d.IsOpen())
}

func TestDatabase_OpenReplacesConnection(t *testing.T) {
	oldDB, oldMock, err := sqlmock.New()
	require.NoError(t, err)
	newDB, newMock, err := sqlmock.New()
	require.NoError(t, err)

	handles := []*sql.DB{oldDB, newDB}
	d := New(WithOpener(func(_, _ string) (*sql.DB, error) {
		db := handles[0]
		handles = handles[1:]
		return db, nil
	}))

	require.NoError(t, d.Open(t.Context(), DefaultSettings()))
	oldMock.ExpectClose()
	require.NoError(t, d.Open(t.Context(), DefaultSettings()))
	assert.NoError(t, oldMock.ExpectationsWereMet())

	newMock.ExpectClose()
	require.NoError(t, d.Close())
	assert.NoError(t, newMock.ExpectationsWereMet())
	assert.False(t, d.IsOpen())
}

func TestDatabase_CloseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	d := New(WithOpener(func(_, _ string) (*sql.DB, error) { return db, nil }))
	require.NoError(t, d.Open(t.Context(), DefaultSettings()))

	mock.ExpectClose().WillReturnError(errors.New("busy"))
	err = d.Close()
	assert.ErrorIs(t, err, core.ErrConnection)
	assert.False(t, d.IsOpen())
}

func TestExecute(t *testing.T) {
	const stmt = "UPDATE Player SET deaths = deaths + 1 WHERE id = ?;"

	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		want    int64
		wantErr error
	}{
		{
			name: "affected rows",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare(stmt).ExpectExec().WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			want: 1,
		},
		{
			name: "compile error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare(stmt).WillReturnError(errors.New(`near "UPDAT": syntax error`))
			},
			wantErr: core.ErrQueryCompile,
		},
		{
			name: "execution error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectPrepare(stmt).ExpectExec().WithArgs(int64(3)).WillReturnError(errors.New("constraint failed"))
			},
			wantErr: core.ErrQueryExecution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, mock := openMock(t)
			tt.setup(mock)

			got, err := d.Execute(t.Context(), stmt, int64(3))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestQueryScalar(t *testing.T) {
	const query = "SELECT deaths FROM Player;"

	t.Run("first row", func(t *testing.T) {
		d, mock := openMock(t)
		mock.ExpectPrepare(query).ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"deaths"}).AddRow(int64(10)).AddRow(int64(30)))

		got, found, err := QueryScalar[int64](t.Context(), d, query)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, int64(10), got)
	})

	t.Run("no rows", func(t *testing.T) {
		d, mock := openMock(t)
		mock.ExpectPrepare(query).ExpectQuery().WillReturnRows(sqlmock.NewRows([]string{"deaths"}))

		got, found, err := QueryScalar[int64](t.Context(), d, query)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Zero(t, got)
	})

	t.Run("scan error", func(t *testing.T) {
		d, mock := openMock(t)
		mock.ExpectPrepare(query).ExpectQuery().
			WillReturnRows(sqlmock.NewRows([]string{"deaths"}).AddRow("lots"))

		_, _, err := QueryScalar[int64](t.Context(), d, query)
		assert.ErrorIs(t, err, core.ErrQueryExecution)
	})
}

func TestTableExists(t *testing.T) {
	const query = "SELECT COUNT(*) AS Tables FROM sqlite_master WHERE type='table' AND name=?;"

	d, mock := openMock(t)
	mock.ExpectPrepare(query).ExpectQuery().WithArgs("Player").
		WillReturnRows(sqlmock.NewRows([]string{"Tables"}).AddRow(int64(0)))
	mock.ExpectPrepare(query).ExpectQuery().WithArgs("Player").
		WillReturnRows(sqlmock.NewRows([]string{"Tables"}).AddRow(int64(1)))

	exists, err := d.TableExists(t.Context(), "Player")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = d.TableExists(t.Context(), "Player")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGuard_PanicPoisons(t *testing.T) {
	d, _ := openMock(t)

	err := d.guard(func(*sql.DB) error { panic("boom") })
	assert.ErrorIs(t, err, core.ErrGuardPoisoned)
	assert.Contains(t, err.Error(), "boom")

	_, err = d.Execute(t.Context(), "SELECT 1")
	assert.ErrorIs(t, err, core.ErrGuardPoisoned)
}

func TestGuard_NilLoggerDiscards(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	d := New(
		WithLogger(nil),
		WithOpener(func(_, _ string) (*sql.DB, error) { return db, nil }),
	)
	require.NoError(t, d.Open(t.Context(), DefaultSettings()))

	err = d.guard(func(*sql.DB) error { panic("boom") })
	assert.ErrorIs(t, err, core.ErrGuardPoisoned)

	mock.ExpectClose()
	require.NoError(t, d.Close())
}

func TestCreateTable_ChecksCatalogFirst(t *testing.T) {
	const exists = "SELECT COUNT(*) AS Tables FROM sqlite_master WHERE type='table' AND name=?;"
	const create = "CREATE TABLE 'Player'(id INTEGER PRIMARY KEY AUTOINCREMENT,name TEXT NOT NULL,deaths INTEGER NOT NULL,email TEXT NOT NULL);"

	d, mock := openMock(t)
	def := playerDef(t)

	mock.ExpectPrepare(exists).ExpectQuery().WithArgs("Player").
		WillReturnRows(sqlmock.NewRows([]string{"Tables"}).AddRow(int64(0)))
	mock.ExpectPrepare(create).ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, d.CreateTable(t.Context(), def))

	mock.ExpectPrepare(exists).ExpectQuery().WithArgs("Player").
		WillReturnRows(sqlmock.NewRows([]string{"Tables"}).AddRow(int64(1)))
	require.NoError(t, d.CreateTable(t.Context(), def))

	mock.ExpectPrepare(exists).ExpectQuery().WithArgs("Player").
		WillReturnError(errors.New("disk I/O error"))
	err := d.CreateTable(t.Context(), def)
	assert.ErrorIs(t, err, core.ErrQueryExecution)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGuard_ReopenClearsPoison(t *testing.T) {
	first, firstMock, err := sqlmock.New()
	require.NoError(t, err)
	second, secondMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	handles := []*sql.DB{first, second}
	d := New(WithOpener(func(_, _ string) (*sql.DB, error) {
		db := handles[0]
		handles = handles[1:]
		return db, nil
	}))
	require.NoError(t, d.Open(t.Context(), DefaultSettings()))
	_ = d.guard(func(*sql.DB) error { panic("boom") })

	firstMock.ExpectClose()
	require.NoError(t, d.Open(t.Context(), DefaultSettings()))

	secondMock.ExpectPrepare("DELETE FROM Player;").ExpectExec().WillReturnResult(sqlmock.NewResult(0, 4))
	n, err := d.Execute(t.Context(), "DELETE FROM Player;")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	secondMock.ExpectClose()
	require.NoError(t, d.Close())
}

func TestSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, "Data Source=database.sqlite;Version=3;UseUTF16Encoding=False;", s.String())
	assert.Equal(t, "database.sqlite?_pragma=busy_timeout%285000%29", s.DSN())

	s.UTF16Encoding = true
	s.BusyTimeout = 0
	assert.Equal(t, "Data Source=database.sqlite;Version=3;UseUTF16Encoding=True;", s.String())
	assert.Equal(t, "database.sqlite?_pragma=encoding%28%27UTF-16%27%29", s.DSN())

	s = Settings{DataSource: "file:game.db?mode=ro"}
	assert.Equal(t, "file:game.db?mode=ro", s.DSN())
	s.BusyTimeout = DefaultBusyTimeout
	assert.Equal(t, "file:game.db?mode=ro&_pragma=busy_timeout%285000%29", s.DSN())
}
