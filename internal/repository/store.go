package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore implements Store on a gorm connection.
type GormStore struct {
	db       *gorm.DB
	users    *UserRepository
	devices  *DeviceRepository
	sessions *SessionRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:       db,
		users:    NewUserRepository(db),
		devices:  NewDeviceRepository(db),
		sessions: NewSessionRepository(db),
	}
}

func (s *GormStore) Users() UserStore       { return s.users }
func (s *GormStore) Devices() DeviceStore   { return s.devices }
func (s *GormStore) Sessions() SessionStore { return s.sessions }

// WithTransaction runs fn against a store bound to a single database
// transaction. A returned error rolls the whole operation back.
func (s *GormStore) WithTransaction(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGormStore(tx))
	})
}
