// internal/activity/activity.go
//
// Append-only activity log.
//
/*
Context
--------
Every notable action inside a tenant (sign-in, project change, billing
event) appends one immutable row to `activities`.  Rows are never
updated or deleted by application code; the dashboard feed reads the
most recent N for the tenant.

The recorder enriches each row from the request context when available:
client IP, country, and browser family come from the requestinfo
middleware, so callers only name the action and its subject.

Recording is best-effort.  A failed insert is logged at WARN and the
triggering request still succeeds; the feed is a convenience, not a
ledger.
*/
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tallyhq/tally/internal/requestinfo"
)

// Record mirrors one row in `activities`.
type Record struct {
	ID         string    `db:"id"          json:"id"`
	TenantID   string    `db:"tenant_id"   json:"tenant_id"`
	UserID     string    `db:"user_id"     json:"user_id"`
	Action     string    `db:"action"      json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id"   json:"entity_id"`
	IP         string    `db:"ip"          json:"ip,omitempty"`
	CountryISO string    `db:"country_iso" json:"country_iso,omitempty"`
	Browser    string    `db:"browser"     json:"browser,omitempty"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
}

// Common action names.  Free-form strings are allowed; these are the
// ones the built-in flows emit.
const (
	ActionLogin            = "user.login"
	ActionRegister         = "tenant.register"
	ActionCheckoutStarted  = "billing.checkout_started"
	ActionPlanChanged      = "billing.plan_changed"
	ActionProjectCreated   = "project.created"
	ActionProjectCompleted = "project.completed"
)

// Recorder appends activity rows to the control-plane pool.
type Recorder struct {
	db *sqlx.DB
}

// NewRecorder wires a Recorder.
func NewRecorder(db *sqlx.DB) *Recorder {
	return &Recorder{db: db}
}

// Record appends one row, pulling IP / geo / browser off the request
// context when the enrichment middleware has run.  Best-effort; errors
// are logged, never returned.
func (rec *Recorder) Record(ctx context.Context, tenantID, userID, action, entityType, entityID string) {
	row := Record{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if info := requestinfo.FromContext(ctx); info != nil {
		if info.Geo.IP != nil {
			row.IP = info.Geo.IP.String()
		}
		row.CountryISO = info.Geo.CountryISO
		row.Browser = info.UA.Browser
	}

	const q = `
        INSERT INTO activities
               (id, tenant_id, user_id, action, entity_type, entity_id,
                ip, country_iso, browser)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := rec.db.ExecContext(ctx, q,
		row.ID, row.TenantID, row.UserID, row.Action, row.EntityType, row.EntityID,
		row.IP, row.CountryISO, row.Browser); err != nil {
		zap.L().Warn("activity append failed",
			zap.String("tenant_id", tenantID),
			zap.String("action", action),
			zap.Error(err))
	}
}

// Recent returns the newest rows for a tenant, capped at limit.
func (rec *Recorder) Recent(ctx context.Context, tenantID string, limit int) ([]Record, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const q = `
        SELECT id, tenant_id, user_id, action, entity_type, entity_id,
               ip, country_iso, browser, created_at
        FROM   activities
        WHERE  tenant_id = ?
        ORDER  BY created_at DESC
        LIMIT  ?`
	rows := make([]Record, 0, limit)
	if err := rec.db.SelectContext(ctx, &rows, q, tenantID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
