package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/getdone/api/internal/models"
)

// GormInvitationRepository is a GORM implementation of InvitationRepository
type GormInvitationRepository struct {
	db *gorm.DB
}

// NewInvitationRepository creates a new InvitationRepository
func NewInvitationRepository(db *gorm.DB) InvitationRepository {
	return &GormInvitationRepository{db: db}
}

// Create creates a new invitation
func (r *GormInvitationRepository) Create(invitation *models.Invitation) error {
	return r.db.Create(invitation).Error
}

// FindPendingByToken finds a pending, unexpired invitation by token
func (r *GormInvitationRepository) FindPendingByToken(token string, now time.Time) (*models.Invitation, error) {
	var invitation models.Invitation
	err := r.db.
		Where("token = ? AND status = ? AND expires_at > ?", token, models.InvitationPending, now).
		First(&invitation).Error
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

// Update persists invitation state changes
func (r *GormInvitationRepository) Update(invitation *models.Invitation) error {
	return r.db.Save(invitation).Error
}
