package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hrcore/accounts/internal/model"
)

// ErrDuplicateKey is returned when an insert or update violates a unique
// index. The store's constraint is the authoritative conflict signal;
// pre-checks are an optimization only.
var ErrDuplicateKey = errors.New("duplicate key")

// ListParams narrows and pages list-users queries.
type ListParams struct {
	Limit    int
	Offset   int
	Search   string
	Role     string
	Verified *bool
}

// UserStore is the credential store. Lookup methods return (nil, nil) when no
// record matches; errors are reserved for datastore failures.
type UserStore interface {
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// FindConflict returns the name of the first identity field already taken
	// by another user, or "" when all are free. excludeID skips the record
	// being updated.
	FindConflict(ctx context.Context, user *model.User, excludeID uint) (string, error)
	// FindPendingVerification matches {email, email_verify_token, unverified}
	// as a single predicate so wrong-token and already-verified are
	// indistinguishable to the caller.
	FindPendingVerification(ctx context.Context, email, token string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
	// Update applies a column patch to one user.
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	List(ctx context.Context, params ListParams) ([]model.User, int64, int64, error)
}

// DeviceStore is the device registry keyed by (user, device_id).
type DeviceStore interface {
	FindOrNil(ctx context.Context, userID uint, deviceID string) (*model.Device, error)
	Upsert(ctx context.Context, userID uint, info model.DeviceInfo, lastLogin time.Time) (*model.Device, error)
}

// SessionStore holds at most one refresh-token record per (user, device).
type SessionStore interface {
	Upsert(ctx context.Context, userID uint, deviceID, refreshToken string, expiresAt time.Time) error
	// FindByToken returns (nil, nil) for unknown or expired tokens.
	FindByToken(ctx context.Context, refreshToken string) (*model.Session, error)
	Delete(ctx context.Context, id uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Store bundles the persistent stores and scopes them to one transaction when
// asked. Operations touching more than one record run inside WithTransaction:
// either every write is visible or none are.
type Store interface {
	Users() UserStore
	Devices() DeviceStore
	Sessions() SessionStore
	WithTransaction(ctx context.Context, fn func(Store) error) error
}
