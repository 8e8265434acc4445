// internal/stats/stats_test.go
//
// Aggregation test; the three counts run concurrently, so the mock must
// accept queries in any order.
//
// Run: go test ./internal/stats -v

package stats

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/tallyhq/tally/internal/tenant"
)

func TestCollect(t *testing.T) {
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer raw.Close()
	db := sqlx.NewDb(raw, "sqlmock")

	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM users WHERE tenant_id = ? AND status = 'active'`,
	)).WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COUNT(*) FROM projects WHERE tenant_id = ? AND status <> 'archived'`,
	)).WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(34))
	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT COALESCE(SUM(size_bytes), 0) FROM documents WHERE tenant_id = ?`,
	)).WithArgs("t-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(3 << 30)))

	ten := &tenant.Record{ID: "t-1", MaxUsers: 15, MaxProjects: 50, MaxStorageGB: 10}
	got, err := Collect(context.Background(), db, ten)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if got.Users != 12 || got.Projects != 34 {
		t.Fatalf("counts = %+v", got)
	}
	if got.StorageGB != 3 {
		t.Fatalf("storage = %v GB, want 3", got.StorageGB)
	}
	if got.MaxUsers != 15 || got.MaxProjects != 50 || got.MaxStorageGB != 10 {
		t.Fatalf("ceilings = %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
