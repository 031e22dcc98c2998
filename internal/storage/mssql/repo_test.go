package mssql

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placeetl/internal/placement"
	"placeetl/internal/storage"
)

// TestMsIdent verifies the MSSQL identifier quoting and escaping.
func TestMsIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "id", want: "[id]"},
		{name: "empty", in: "", want: "[]"},
		{name: "with space", in: "user id", want: "[user id]"},
		{name: "escape closing bracket", in: "user]id", want: "[user]]id]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Dialect{}.QuoteIdent(tt.in))
		})
	}
}

func TestDialectRendering(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	got := storage.BuildInsertSQL(d, storage.TargetFor(placement.KindTile), 2)
	assert.Equal(t,
		"INSERT INTO [placements] ([ts], [user_hash], [coordinate_x], [coordinate_y], [color], [year]) "+
			"VALUES (@p1, @p2, @p3, @p4, @p5, @p6), (@p7, @p8, @p9, @p10, @p11, @p12)",
		got)

	assert.Error(t, storage.DefaultThresholds().Validate(d), "default tile threshold exceeds 2100 params")
	assert.NoError(t, storage.Thresholds{Tile: 350, Rectangle: 10}.Validate(d))
}

// --- Test driver plumbing for exercising Exec and ExecInsert without a real DB --

type scriptDriver struct{}

type scriptConn struct{}

type scriptTx struct{}

type scriptResult struct{ n int64 }

func (r scriptResult) LastInsertId() (int64, error) { return 0, errors.New("unsupported") }
func (r scriptResult) RowsAffected() (int64, error) { return r.n, nil }

func (d *scriptDriver) Open(name string) (driver.Conn, error) {
	if name == "fail-begin" {
		return &failConn{}, nil
	}
	return &scriptConn{}, nil
}

func (c *scriptConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("unexpected Prepare call")
}
func (c *scriptConn) Close() error              { return nil }
func (c *scriptConn) Begin() (driver.Tx, error) { return &scriptTx{}, nil }
func (c *scriptConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return &scriptTx{}, nil
}

// ExecContext succeeds with one affected row per bind group of six or
// fails when the statement mentions "boom".
func (c *scriptConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	if query == "boom" {
		return nil, errors.New("exec failed")
	}
	return scriptResult{n: int64(len(args) / 6)}, nil
}

func (t *scriptTx) Commit() error   { return nil }
func (t *scriptTx) Rollback() error { return nil }

// failConn fails BeginTx and ExecContext.
type failConn struct{ scriptConn }

func (c *failConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return nil, errors.New("begin failed")
}

var (
	testDriverOnce sync.Once
	testDriverName = "mssql_test_script"
)

func openScriptDB(t *testing.T, name string) *sql.DB {
	t.Helper()

	testDriverOnce.Do(func() {
		sql.Register(testDriverName, &scriptDriver{})
	})
	db, err := sql.Open(testDriverName, name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestExecInsertCommits(t *testing.T) {
	t.Parallel()

	r := &Repository{db: openScriptDB(t, "ok")}
	w := storage.NewWriter(&wrappedRepo{Repository: r})

	n, err := w.Write(context.Background(), placement.KindTile, []placement.Record{
		{Timestamp: 1, UserHash: "a", Shape: placement.Tile{X: 1, Y: 1}, Color: "#FFFFFF", Year: placement.Year2022},
		{Timestamp: 2, UserHash: "b", Shape: placement.Tile{X: 2, Y: 2}, Color: "#FFFFFF", Year: placement.Year2022},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestExecInsertBeginTxError(t *testing.T) {
	t.Parallel()

	r := &Repository{db: openScriptDB(t, "fail-begin")}
	n, err := r.ExecInsert(context.Background(), "INSERT", []any{int64(1)})
	require.Error(t, err)
	assert.Zero(t, n)
	assert.Contains(t, err.Error(), "begin tx:")
}

func TestExecPropagatesError(t *testing.T) {
	t.Parallel()

	r := &Repository{db: openScriptDB(t, "ok")}
	err := r.Exec(context.Background(), "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exec failed")

	assert.NoError(t, r.Exec(context.Background(), "   "), "blank statements are skipped")
}
