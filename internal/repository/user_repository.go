package repository

import (
	"gorm.io/gorm"

	"github.com/getdone/api/internal/models"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateField updates a single profile column
func (r *GormUserRepository) UpdateField(id uint64, column string, value string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update(column, value).Error
}

// UpdatePasswordByEmail replaces the stored password hash
func (r *GormUserRepository) UpdatePasswordByEmail(email, passwordHash string) error {
	return r.db.Model(&models.User{}).Where("email = ?", email).
		Update("password_hash", passwordHash).Error
}

// UpdatePassword replaces the stored password hash by user ID
func (r *GormUserRepository) UpdatePassword(id uint64, passwordHash string) error {
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}
