package sequence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"librepos/internal/core/apperror"
	"librepos/internal/infrastructure/storage/postgres"
)

var testDay = time.Date(2025, 6, 13, 15, 0, 0, 0, time.UTC)

// Mock objects

type mockRow struct {
	val string
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*string); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockExecutor struct {
	lastNumber string
	queryErr   error
	gotSQL     string
	gotArgs    []any
}

func (m *mockExecutor) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockExecutor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockExecutor) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.gotSQL = sql
	m.gotArgs = args
	if m.queryErr != nil {
		return &mockRow{err: m.queryErr}
	}
	if m.lastNumber == "" {
		return &mockRow{err: pgx.ErrNoRows}
	}
	return &mockRow{val: m.lastNumber}
}

type mockProvider struct {
	executor *mockExecutor
}

func (m *mockProvider) GetQuerier(ctx context.Context) postgres.Executor {
	return m.executor
}

func TestNext_FirstSaleOfDay(t *testing.T) {
	exec := &mockExecutor{}
	gen := NewGenerator(&mockProvider{executor: exec})

	res, err := gen.Next(context.Background(), testDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Number != "V20250613-0001" {
		t.Errorf("expected V20250613-0001, got %s", res.Number)
	}
	if res.SuffixReset {
		t.Error("expected SuffixReset=false on empty day")
	}
}

func TestNext_Increments(t *testing.T) {
	exec := &mockExecutor{lastNumber: "V20250613-0007"}
	gen := NewGenerator(&mockProvider{executor: exec})

	res, err := gen.Next(context.Background(), testDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Number != "V20250613-0008" {
		t.Errorf("expected V20250613-0008, got %s", res.Number)
	}
}

func TestNext_QueriesDayPrefix(t *testing.T) {
	exec := &mockExecutor{}
	gen := NewGenerator(&mockProvider{executor: exec})

	if _, err := gen.Next(context.Background(), testDay); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(exec.gotArgs) != 1 {
		t.Fatalf("expected 1 query arg, got %d", len(exec.gotArgs))
	}
	if exec.gotArgs[0] != "V20250613-%" {
		t.Errorf("expected pattern V20250613-%%, got %v", exec.gotArgs[0])
	}
}

func TestNext_MalformedSuffixResets(t *testing.T) {
	exec := &mockExecutor{lastNumber: "V20250613-00X7"}
	gen := NewGenerator(&mockProvider{executor: exec})

	res, err := gen.Next(context.Background(), testDay)
	if err != nil {
		t.Fatalf("malformed suffix must not fail: %v", err)
	}
	if res.Number != "V20250613-0001" {
		t.Errorf("expected reset to V20250613-0001, got %s", res.Number)
	}
	if !res.SuffixReset {
		t.Error("expected SuffixReset=true")
	}
}

func TestNext_QueryErrorIsGenerationError(t *testing.T) {
	exec := &mockExecutor{queryErr: errors.New("connection refused")}
	gen := NewGenerator(&mockProvider{executor: exec})

	_, err := gen.Next(context.Background(), testDay)
	if err == nil {
		t.Fatal("expected error")
	}

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != apperror.CodeGeneration {
		t.Errorf("expected %s, got %s", apperror.CodeGeneration, appErr.Code)
	}
}
