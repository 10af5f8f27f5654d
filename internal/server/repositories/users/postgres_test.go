package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/agritrust/internal/common"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertQuery   = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*username,\s*full_name,\s*farm_location,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at\s*$`
	upsertQuery   = `(?s)^INSERT\s+INTO\s+users\s*\(.*\)\s*VALUES\s*\(.*\)\s*ON\s+CONFLICT\s*\(email\)\s*DO\s+NOTHING\s*RETURNING\s+id,\s*created_at\s*$`
	byEmailQuery  = `(?s)^SELECT\s+id,\s*email,\s*username,\s*full_name,\s*farm_location,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	byIDQuery     = `(?s)^SELECT\s+id,\s*email,\s*username,\s*full_name,\s*farm_location,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	unusableQuery = `^UPDATE\s+users\s+SET\s+password_hash\s*=\s*NULL\s+WHERE\s+id\s*=\s*\$1$`

	aliceID = "6f1c2a7e-5b1d-4c1e-9a55-0d2b8f6b1a01"
)

var userColumns = []string{"id", "email", "username", "full_name", "farm_location", "password_hash", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(insertQuery).
		WithArgs("alice@farm.ng", "alice", "Alice Ade", "Kano", "hash").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(aliceID, now))

	u := &models.User{Email: "alice@farm.ng", UserName: "alice", FullName: "Alice Ade", FarmLocation: "Kano", PasswordHash: strPtr("hash")}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != aliceID || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreate_NilPasswordIsNull(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("bob@farm.ng", "bob@farm.ng", "", "", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(aliceID, time.Now()))

	if _, err := repo.Create(context.Background(), &models.User{Email: "bob@farm.ng", UserName: "bob@farm.ng"}); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@farm.ng"})
	if !errors.Is(err, common.ErrDuplicateEmail) {
		t.Fatalf("want common.ErrDuplicateEmail, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@farm.ng"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreateIfNotExists_Inserted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQuery).
		WithArgs("new@farm.ng", "new@farm.ng", "New Farmer", "Jos", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(aliceID, time.Now()))

	u := &models.User{Email: "new@farm.ng", UserName: "new@farm.ng", FullName: "New Farmer", FarmLocation: "Jos"}
	got, created, err := repo.CreateIfNotExists(context.Background(), u)
	if err != nil {
		t.Fatalf("CreateIfNotExists error: %v", err)
	}
	if !created || got.ID != aliceID || got.FullName != "New Farmer" {
		t.Fatalf("unexpected result: created=%v user=%+v", created, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateIfNotExists_ConflictReturnsStored(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQuery).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(byEmailQuery).
		WithArgs("old@farm.ng").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(aliceID, "old@farm.ng", "old@farm.ng", "First Name", "Kano", nil, time.Now()))

	u := &models.User{Email: "old@farm.ng", UserName: "old@farm.ng", FullName: "Second Name"}
	got, created, err := repo.CreateIfNotExists(context.Background(), u)
	if err != nil {
		t.Fatalf("CreateIfNotExists error: %v", err)
	}
	if created {
		t.Fatal("expected created=false on conflict")
	}
	if got.FullName != "First Name" {
		t.Fatalf("stored record must win, got %q", got.FullName)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreateIfNotExists_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(upsertQuery).WillReturnError(errors.New("db err"))

	_, _, err := repo.CreateIfNotExists(context.Background(), &models.User{Email: "x@farm.ng"})
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQuery).
		WithArgs("alice@farm.ng").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(aliceID, "alice@farm.ng", "alice", "Alice Ade", "Kano", "hash", time.Now()))

	got, err := repo.GetByEmail(context.Background(), "alice@farm.ng")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != aliceID || got.PasswordHash == nil || *got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQuery).WithArgs("ghost@farm.ng").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@farm.ng")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByID_Found_NullPassword(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQuery).
		WithArgs(aliceID).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(aliceID, "alice@farm.ng", "alice@farm.ng", "", "", nil, time.Now()))

	got, err := repo.GetByID(context.Background(), aliceID)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.PasswordHash != nil || got.HasUsablePassword() {
		t.Fatalf("expected unusable password, got %+v", got)
	}
}

func TestGetByID_MalformedIDIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.GetByID(context.Background(), "42")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQuery).WithArgs(aliceID).WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), aliceID)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestSetUnusablePassword(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(unusableQuery).WithArgs(aliceID).WillReturnResult(sqlmock.NewResult(0, 1))
		if err := repo.SetUnusablePassword(context.Background(), aliceID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(unusableQuery).WithArgs(aliceID).WillReturnResult(sqlmock.NewResult(0, 0))
		if err := repo.SetUnusablePassword(context.Background(), aliceID); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want common.ErrorNotFound, got %v", err)
		}
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(unusableQuery).WithArgs(aliceID).WillReturnError(errors.New("db err"))
		err := repo.SetUnusablePassword(context.Background(), aliceID)
		if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}
