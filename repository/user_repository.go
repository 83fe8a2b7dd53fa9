package repository

import (
	"errors"
	"fmt"

	"melodex/db"
	"melodex/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) error
	GetUserByUsername(username string) (*model.User, error)
}

// gormUserRepository implements UserRepository on the GORM connection.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new gormUserRepository backed by the
// shared GORM connection.
func NewGormUserRepository() UserRepository {
	return &gormUserRepository{db: db.GormDB}
}

// NewGormUserRepositoryWithDB creates a repository over an explicit
// connection. Used by tests.
func NewGormUserRepositoryWithDB(conn *gorm.DB) UserRepository {
	return &gormUserRepository{db: conn}
}

// CreateUser adds a new user. A duplicate username is silently ignored so
// that provisioning the same user twice is idempotent; callers that need to
// distinguish the cases look the user up afterwards.
func (r *gormUserRepository) CreateUser(user *model.User) error {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(user)
	if result.Error != nil {
		return fmt.Errorf("failed to create user %s: %w", user.Username, result.Error)
	}
	return nil
}

// GetUserByUsername retrieves a user by username. Returns (nil, nil) when
// the user does not exist.
func (r *gormUserRepository) GetUserByUsername(username string) (*model.User, error) {
	user := &model.User{}
	result := r.db.Where("username = ?", username).First(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to query user %s: %w", username, result.Error)
	}
	return user, nil
}
