// Package auth holds the admin login guard, password hashing and bearer
// token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
	"trendhub/internal/telemetry"
)

const (
	MaxLoginAttempts = 5
	LockDuration     = 2 * time.Hour
)

// RecordFailure counts one failed attempt and locks the account once the
// counter reaches MaxLoginAttempts. It reports whether the account is now
// locked.
func RecordFailure(a *models.Admin, now time.Time) bool {
	a.LoginAttempts++
	if a.LoginAttempts >= MaxLoginAttempts && !a.IsLocked(now) {
		until := now.Add(LockDuration)
		a.LockUntil = &until
	}
	return a.IsLocked(now)
}

// RecordSuccess clears the failure counter and stamps lastLogin.
func RecordSuccess(a *models.Admin, now time.Time) {
	a.LoginAttempts = 0
	a.LockUntil = nil
	a.LastLogin = &now
}

// ClearExpiredLock resets a lock whose lockUntil has passed. It reports
// whether anything was cleared.
func ClearExpiredLock(a *models.Admin, now time.Time) bool {
	if a.LockUntil == nil || a.IsLocked(now) {
		return false
	}
	a.LoginAttempts = 0
	a.LockUntil = nil
	return true
}

// AdminRepository is the persistence the guard needs. RecordLoginFailure must
// increment in place and return the post-update document.
type AdminRepository interface {
	FindByLogin(ctx context.Context, login string) (models.Admin, error)
	RecordLoginFailure(ctx context.Context, id primitive.ObjectID, now time.Time, maxAttempts int, lockFor time.Duration) (models.Admin, error)
	RecordLoginSuccess(ctx context.Context, id primitive.ObjectID, now time.Time) error
	ClearLoginLock(ctx context.Context, id primitive.ObjectID) error
}

type Guard struct {
	repo AdminRepository
	now  func() time.Time
}

func NewGuard(repo AdminRepository) *Guard {
	return &Guard{repo: repo, now: time.Now}
}

// WithClock replaces the guard's clock.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	g.now = now
	return g
}

// Login runs one attempt through the lockout state machine. While locked it
// returns apperr.ErrAccountLocked without looking at the password.
func (g *Guard) Login(ctx context.Context, login, password string) (models.Admin, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		return models.Admin{}, fmt.Errorf("%w: login and password are required", apperr.ErrInvalidArgument)
	}

	admin, err := g.repo.FindByLogin(ctx, login)
	if errors.Is(err, apperr.ErrNotFound) {
		telemetry.LoginAttemptsTotal.WithLabelValues("unknown").Inc()
		return models.Admin{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return models.Admin{}, err
	}
	if admin.Status != "" && admin.Status != models.AdminActive {
		telemetry.LoginAttemptsTotal.WithLabelValues("inactive").Inc()
		return models.Admin{}, apperr.ErrInvalidCredentials
	}

	now := g.now()
	if admin.IsLocked(now) {
		telemetry.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return models.Admin{}, fmt.Errorf("%w until %s", apperr.ErrAccountLocked, admin.LockUntil.UTC().Format(time.RFC3339))
	}
	if ClearExpiredLock(&admin, now) {
		if err := g.repo.ClearLoginLock(ctx, admin.ID); err != nil {
			return models.Admin{}, err
		}
	}

	if !CheckPassword(admin.PasswordHash, password) {
		updated, err := g.repo.RecordLoginFailure(ctx, admin.ID, now, MaxLoginAttempts, LockDuration)
		if err != nil {
			return models.Admin{}, err
		}
		telemetry.LoginAttemptsTotal.WithLabelValues("failed").Inc()
		if updated.IsLocked(now) {
			zap.L().Warn("admin account locked",
				zap.String("admin", admin.ID.Hex()),
				zap.Int("attempts", updated.LoginAttempts),
			)
		}
		return models.Admin{}, apperr.ErrInvalidCredentials
	}

	if err := g.repo.RecordLoginSuccess(ctx, admin.ID, now); err != nil {
		return models.Admin{}, err
	}
	RecordSuccess(&admin, now)
	telemetry.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	return admin, nil
}
