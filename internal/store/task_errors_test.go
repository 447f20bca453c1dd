package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hearthkeep/hearthkeep/internal/model"
)

// Live sqlite handles cannot be made to fail on demand, so driver-level
// failures are exercised through sqlmock.

func TestTaskListQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT .* FROM tasks").WillReturnError(errors.New("disk I/O error"))

	ts := NewTaskStore(db)
	_, err = ts.List(1, []string{model.StatusPending}, nil)
	if err == nil {
		t.Fatal("expected error from failing query")
	}
	if !strings.Contains(err.Error(), "list tasks") {
		t.Errorf("error = %q, want list tasks context", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTaskSetStatusExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("UPDATE tasks SET status").WillReturnError(errors.New("database is locked"))

	ts := NewTaskStore(db)
	_, err = ts.SetStatus(7, model.StatusCompleted)
	if err == nil {
		t.Fatal("expected error from failing update")
	}
	if !strings.Contains(err.Error(), "set task status") {
		t.Errorf("error = %q, want set task status context", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTaskDeleteExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("DELETE FROM tasks").WillReturnError(errors.New("database is locked"))

	ts := NewTaskStore(db)
	if err := ts.Delete(7); err == nil {
		t.Fatal("expected error from failing delete")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
