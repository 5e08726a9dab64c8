package postgres

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"filehaven/internal/domain"
	"filehaven/internal/domain/models"
	"filehaven/internal/domain/repositories"
)

// stubRow plays back canned scan values, or an error.
type stubRow struct {
	err  error
	vals []interface{}
}

func (r stubRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	for i := range dest {
		out := reflect.ValueOf(dest[i]).Elem()
		if r.vals[i] == nil {
			out.Set(reflect.Zero(out.Type()))
			continue
		}
		out.Set(reflect.ValueOf(r.vals[i]))
	}
	return nil
}

// stubTx satisfies pgx.Tx so it can ride the context like a real
// transaction. It records every statement and serves queued rows in order.
type stubTx struct {
	rows    []stubRow
	queries []string
}

func (t *stubTx) QueryRow(_ context.Context, sql string, _ ...interface{}) pgx.Row {
	t.queries = append(t.queries, sql)
	if len(t.rows) == 0 {
		return stubRow{err: pgx.ErrNoRows}
	}
	row := t.rows[0]
	t.rows = t.rows[1:]
	return row
}

func (t *stubTx) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	t.queries = append(t.queries, sql)
	return pgconn.CommandTag{}, nil
}

func (t *stubTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("unexpected Query")
}

func (t *stubTx) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *stubTx) Commit(context.Context) error          { return nil }
func (t *stubTx) Rollback(context.Context) error        { return nil }
func (t *stubTx) Conn() *pgx.Conn                       { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects        { return pgx.LargeObjects{} }

func (t *stubTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("unexpected CopyFrom")
}

func (t *stubTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (t *stubTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, errors.New("unexpected Prepare")
}

func newFolderRepoForTest() repositories.FolderRepository {
	return NewFolderRepository(&RepositoryConfig{Tables: NewTableNames("test_")})
}

func TestFolderCreate_FillsRowOnInsert(t *testing.T) {
	now := time.Now()
	tx := &stubTx{rows: []stubRow{
		{vals: []interface{}{"3d0f8a12-0000-0000-0000-000000000001", now, now}},
	}}
	ctx := repositories.SetTx(context.Background(), tx)

	folder := &models.Folder{OwnerID: "owner-1", Name: "docs"}
	if err := newFolderRepoForTest().Create(ctx, folder); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if folder.ID != "3d0f8a12-0000-0000-0000-000000000001" {
		t.Errorf("Create() ID = %q, want the returned row ID", folder.ID)
	}
	if len(tx.queries) != 1 {
		t.Fatalf("Create() ran %d statements, want 1", len(tx.queries))
	}
	if !strings.Contains(tx.queries[0], "ON CONFLICT DO NOTHING") {
		t.Errorf("insert must not fail the statement on a duplicate:\n%s", tx.queries[0])
	}
}

func TestFolderCreate_ConflictSurfacesWinner(t *testing.T) {
	now := time.Now()
	var rootParent *string
	winnerID := "3d0f8a12-0000-0000-0000-00000000c0de"
	tx := &stubTx{rows: []stubRow{
		{err: pgx.ErrNoRows},
		{vals: []interface{}{winnerID, "owner-1", rootParent, "docs", false, false, now, now}},
	}}
	ctx := repositories.SetTx(context.Background(), tx)

	err := newFolderRepoForTest().Create(ctx, &models.Folder{OwnerID: "owner-1", Name: "docs"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	if errors.Is(err, domain.ErrStoreFailure) {
		t.Fatalf("Create() conflict classified as store failure: %v", err)
	}

	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Create() error = %T, want *domain.ConflictError", err)
	}
	if conflict.ResourceID != winnerID {
		t.Errorf("ConflictError.ResourceID = %q, want %q", conflict.ResourceID, winnerID)
	}
	if conflict.ResourceType != "folder" {
		t.Errorf("ConflictError.ResourceType = %q, want %q", conflict.ResourceType, "folder")
	}

	// The re-select ran on the same executor, which only works because the
	// insert cannot abort the transaction.
	if len(tx.queries) != 2 {
		t.Fatalf("Create() ran %d statements, want insert + re-select", len(tx.queries))
	}
	if !strings.Contains(tx.queries[1], "SELECT") {
		t.Errorf("second statement should re-select the winner:\n%s", tx.queries[1])
	}
}
