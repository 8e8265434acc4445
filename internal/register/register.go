// internal/register/register.go
//
// Self-service sign-up: one call creates the admin user, the tenant, and
// the default notification preferences.
//
/*
Context
--------
Registration is the only multi-row write in the system that is NOT
idempotent, so the ordering and rollback rules matter:

  1. insert the admin user (bcrypt hash computed first)
  2. insert the tenant (trial status, free ceilings, 14-day trial window)
  3. insert default notification preferences

A failure at step 2 rolls back step 1 (hard delete) and reports the
error.  A failure at step 3 is logged at WARN and the registration still
succeeds: a missing preferences row degrades gracefully at read time,
whereas an orphaned user row would block the email from ever signing up
again.

Notes
-----
  • Subdomain validity is enforced here (lowercase alnum + hyphen, min 3
    chars) on top of the column's uniqueness constraint.
  • Oxford commas, two spaces after periods.
*/
package register

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tallyhq/tally/internal/billing"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/message"
	"github.com/tallyhq/tally/internal/metrics"
	"github.com/tallyhq/tally/internal/tenant"
	"github.com/tallyhq/tally/internal/user"
)

// TrialDays is the length of the trial window stamped on new tenants.
const TrialDays = 14

// ErrSubdomainTaken and ErrEmailTaken surface the two uniqueness
// conflicts a sign-up can hit; handlers map them to 409.
var (
	ErrSubdomainTaken = errors.New("subdomain already registered")
	ErrEmailTaken     = errors.New("email already registered")
)

// Input is one validated sign-up request.
type Input struct {
	CompanyName string `json:"company_name" validate:"required,min=2,max=100"`
	Subdomain   string `json:"subdomain"    validate:"required,subdomain"`
	Name        string `json:"full_name"    validate:"required,min=2,max=100"`
	Email       string `json:"email"        validate:"required,email"`
	Password    string `json:"password"     validate:"required,min=8,max=72"`
}

// Result reports the created ids so the handler can start a session.
type Result struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	Subdomain string `json:"subdomain"`
}

// Service performs registrations against the control-plane pool.
type Service struct {
	db *sqlx.DB
}

// NewService wires a Service.
func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Register runs the three-step sign-up described in the package comment.
func (s *Service) Register(ctx context.Context, in *Input) (*Result, error) {
	if err := config.Validate(in); err != nil {
		return nil, err
	}

	// Uniqueness pre-checks.  The column constraints are the real guard;
	// these exist only to return a friendly error for the common case.
	if _, err := tenant.BySubdomain(ctx, s.db, in.Subdomain); err == nil {
		return nil, ErrSubdomainTaken
	} else if !errors.Is(err, tenant.ErrNotFound) {
		return nil, err
	}
	if _, err := user.ByEmail(ctx, s.db, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	userID := uuid.NewString()
	tenantID := uuid.NewString()

	// Step 1: admin user.
	u := &user.Record{
		ID:           userID,
		TenantID:     tenantID,
		Name:         in.Name,
		Email:        in.Email,
		Role:         user.RoleAdmin,
		Status:       user.StatusActive,
		PasswordHash: string(hash),
	}
	if err := user.Insert(ctx, s.db, u); err != nil {
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	// Step 2: tenant.  Failure here rolls the user back; an orphaned user
	// row would permanently burn the email address.
	trialEnd := time.Now().UTC().Add(TrialDays * 24 * time.Hour)
	t := &tenant.Record{
		ID:           tenantID,
		Name:         in.CompanyName,
		Subdomain:    in.Subdomain,
		Status:       tenant.StatusTrial,
		Tier:         tenant.TierFree,
		MaxUsers:     billing.FreeCeilings.MaxUsers,
		MaxProjects:  billing.FreeCeilings.MaxProjects,
		MaxStorageGB: billing.FreeCeilings.MaxStorageGB,
		TrialEndsAt:  &trialEnd,
		AdminUserID:  userID,
	}
	if err := tenant.Insert(ctx, s.db, t); err != nil {
		if derr := user.Delete(ctx, s.db, userID); derr != nil {
			zap.L().Error("registration rollback failed",
				zap.String("user_id", userID), zap.Error(derr))
		}
		return nil, fmt.Errorf("register: create tenant: %w", err)
	}

	// Step 3: default notification preferences.  WARN-only on failure.
	if err := insertDefaultPreferences(ctx, s.db, userID, tenantID); err != nil {
		zap.L().Warn("default notification preferences not written",
			zap.String("user_id", userID), zap.Error(err))
	}

	// Welcome email is best-effort, same as the preferences row.
	if err := message.EnqueueEmail(ctx, message.Email{
		To:      []string{in.Email},
		Subject: "Welcome to Tally",
		Text:    "Your workspace " + in.Subdomain + " is ready.",
	}); err != nil {
		zap.L().Warn("welcome email not queued",
			zap.String("user_id", userID), zap.Error(err))
	}

	metrics.RegistrationsTotal.Inc()
	zap.L().Info("tenant registered",
		zap.String("tenant_id", tenantID),
		zap.String("subdomain", in.Subdomain))

	return &Result{TenantID: tenantID, UserID: userID, Subdomain: in.Subdomain}, nil
}

// insertDefaultPreferences writes the opt-in defaults for a new admin.
func insertDefaultPreferences(ctx context.Context, db *sqlx.DB, userID, tenantID string) error {
	const q = `
        INSERT INTO notification_preferences
               (id, user_id, tenant_id, email_enabled, weekly_digest, billing_alerts)
        VALUES (?, ?, ?, TRUE, TRUE, TRUE)`
	_, err := db.ExecContext(ctx, q, uuid.NewString(), userID, tenantID)
	return err
}
