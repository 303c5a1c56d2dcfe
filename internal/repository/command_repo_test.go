package repository_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"heatbeat/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestCommandSQLite_Append_AssignsNextOrdinalInOneTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewCommandSQLite(db)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(ordinal), 0) FROM commands")).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(5)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO commands")).
		WithArgs("cmd_2_6", 2, int64(6), "set_target", 22.5, at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cmd, err := repo.Append(context.Background(), 2, "set_target", 22.5, at)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if cmd.Ordinal != 6 {
		t.Fatalf("expected ordinal 6, got %d", cmd.Ordinal)
	}
	if cmd.ID != "cmd_2_6" {
		t.Fatalf("expected id cmd_2_6, got %s", cmd.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommandSQLite_Append_FirstCommandGetsOrdinalOne(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewCommandSQLite(db)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(ordinal), 0) FROM commands")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(0)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO commands")).
		WithArgs("cmd_1_1", 1, int64(1), "set_target", 20.0, at).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	cmd, err := repo.Append(context.Background(), 1, "set_target", 20.0, at)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if cmd.Ordinal != 1 {
		t.Fatalf("expected ordinal 1, got %d", cmd.Ordinal)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommandSQLite_Append_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewCommandSQLite(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(ordinal), 0) FROM commands")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(int64(0)))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO commands")).
		WillReturnError(errors.New("constraint violated"))
	mock.ExpectRollback()

	_, err := repo.Append(context.Background(), 1, "set_target", 20.0, time.Now().UTC())
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommandSQLite_ListSince_ScansAscending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewCommandSQLite(db)

	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "thermostat_id", "ordinal", "kind", "target_temp_c", "created_at"}).
		AddRow("cmd_1_3", 1, int64(3), "set_target", 21.0, created).
		AddRow("cmd_1_4", 1, int64(4), "set_target", 22.0, created)

	mock.ExpectQuery(regexp.QuoteMeta("FROM commands WHERE thermostat_id = ? AND ordinal > ?")).
		WithArgs(1, int64(2)).
		WillReturnRows(rows)

	cmds, err := repo.ListSince(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ListSince() error = %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Ordinal != 3 || cmds[1].Ordinal != 4 {
		t.Fatalf("expected ordinals 3,4 got %d,%d", cmds[0].Ordinal, cmds[1].Ordinal)
	}
}

func TestCommandSQLite_RecordCursor_UpsertsForward(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewCommandSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO device_cursors")).
		WithArgs(1, int64(7), isUTCWithin(5*time.Second)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.RecordCursor(context.Background(), 1, 7, time.Time{}); err != nil {
		t.Fatalf("RecordCursor() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCommandSQLite_Cursors_BuildsMap(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewCommandSQLite(db)

	rows := sqlmock.NewRows([]string{"thermostat_id", "last_ordinal"}).
		AddRow(1, int64(4)).
		AddRow(2, int64(9))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT thermostat_id, last_ordinal FROM device_cursors")).
		WillReturnRows(rows)

	got, err := repo.Cursors(context.Background())
	if err != nil {
		t.Fatalf("Cursors() error = %v", err)
	}
	if got[1] != 4 || got[2] != 9 {
		t.Fatalf("unexpected cursors: %v", got)
	}
}

func TestCommandSQLite_DeleteThrough_ReportsRowsAffected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := repository.NewCommandSQLite(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM commands WHERE thermostat_id = ? AND ordinal <= ?")).
		WithArgs(1, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.DeleteThrough(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("DeleteThrough() error = %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 deleted, got %d", n)
	}
}
