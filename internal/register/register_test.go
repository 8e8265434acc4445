// internal/register/register_test.go
//
// Sign-up flow ordering and rollback against a mocked store.
//
// Run: go test ./internal/register -v

package register

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

const (
	selectTenantBySubdomain = `SELECT id, name, subdomain, status, subscription_tier, ` +
		`max_users, max_projects, max_storage_gb, trial_ends_at, admin_user_id, ` +
		`created_at, updated_at FROM tenants WHERE subdomain = ? LIMIT 1`
	selectUserByEmail = `SELECT id, tenant_id, name, email, role, status, password_hash, ` +
		`created_at, updated_at FROM users WHERE email = ? LIMIT 1`
	insertUser = `INSERT INTO users (id, tenant_id, name, email, role, status, password_hash) ` +
		`VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertTenant = `INSERT INTO tenants (id, name, subdomain, status, subscription_tier, ` +
		`max_users, max_projects, max_storage_gb, trial_ends_at, admin_user_id) ` +
		`VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertPrefs = `INSERT INTO notification_preferences ` +
		`(id, user_id, tenant_id, email_enabled, weekly_digest, billing_alerts) ` +
		`VALUES (?, ?, ?, TRUE, TRUE, TRUE)`
	deleteUser = `DELETE FROM users WHERE id = ?`
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func testInput() *Input {
	return &Input{
		CompanyName: "Fixed Corp",
		Subdomain:   "fixedcorp",
		Name:        "Ada Example",
		Email:       "ada@example.com",
		Password:    "correct-horse-battery",
	}
}

// expectUniquenessChecks queues the two empty-result lookups a clean
// sign-up starts with.
func expectUniquenessChecks(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(selectTenantBySubdomain)).
		WithArgs("fixedcorp").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(selectUserByEmail)).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
}

func TestRegisterHappyPath(t *testing.T) {
	db, mock := newMockDB(t)
	expectUniquenessChecks(mock)

	mock.ExpectExec(regexp.QuoteMeta(insertUser)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "Ada Example", "ada@example.com",
			"admin", "active", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertTenant)).
		WithArgs(sqlmock.AnyArg(), "Fixed Corp", "fixedcorp", "trial", "free",
			5, 10, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertPrefs)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	res, err := NewService(db).Register(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.Subdomain != "fixedcorp" || res.TenantID == "" || res.UserID == "" {
		t.Fatalf("result = %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegisterTenantFailureRollsBackUser(t *testing.T) {
	db, mock := newMockDB(t)
	expectUniquenessChecks(mock)

	mock.ExpectExec(regexp.QuoteMeta(insertUser)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertTenant)).
		WillReturnError(errors.New("duplicate key"))
	// The admin user must be hard-deleted so the email is not burned.
	mock.ExpectExec(regexp.QuoteMeta(deleteUser)).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := NewService(db).Register(context.Background(), testInput()); err == nil {
		t.Fatal("expected error when tenant insert fails")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegisterPreferencesFailureStillSucceeds(t *testing.T) {
	db, mock := newMockDB(t)
	expectUniquenessChecks(mock)

	mock.ExpectExec(regexp.QuoteMeta(insertUser)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertTenant)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertPrefs)).
		WillReturnError(errors.New("table gone"))

	if _, err := NewService(db).Register(context.Background(), testInput()); err != nil {
		t.Fatalf("preferences failure must not fail registration: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestRegisterSubdomainTaken(t *testing.T) {
	db, mock := newMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "name", "subdomain", "status", "subscription_tier",
		"max_users", "max_projects", "max_storage_gb", "trial_ends_at", "admin_user_id",
		"created_at", "updated_at"}).
		AddRow("t-1", "Fixed Corp", "fixedcorp", "active", "starter", 15, 50, 10, nil, "u-1",
			time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(selectTenantBySubdomain)).
		WithArgs("fixedcorp").
		WillReturnRows(rows)

	_, err := NewService(db).Register(context.Background(), testInput())
	if !errors.Is(err, ErrSubdomainTaken) {
		t.Fatalf("err = %v, want ErrSubdomainTaken", err)
	}
}
