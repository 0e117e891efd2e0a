package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/campus-match/internal/db"
)

// UserRepository is the credential store: it persists user records
// (identity, password hash and profile attributes).
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user. A duplicate email surfaces as a unique
// violation from the uniqueIndex on users.email.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// FindByEmail returns gorm.ErrRecordNotFound when no user has that email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByID returns gorm.ErrRecordNotFound when the user does not exist.
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with id exists.
func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db.User{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Update writes the profile columns of u, including zero values.
func (r *UserRepository) Update(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).
		Model(u).
		Select("Name", "PasswordHash", "Program", "Term", "Interests", "Bio", "Avatar").
		Updates(u).Error
}
