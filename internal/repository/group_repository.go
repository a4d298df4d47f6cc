package repository

import (
	"gorm.io/gorm"

	"github.com/getdone/api/internal/models"
)

// GormGroupRepository is a GORM implementation of GroupRepository
type GormGroupRepository struct {
	db *gorm.DB
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &GormGroupRepository{db: db}
}

// CreateWithAdmin creates a group and its admin membership atomically
func (r *GormGroupRepository) CreateWithAdmin(group *models.Group, member *models.GroupMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}

		member.GroupID = group.ID
		member.UserID = group.AdminID

		return tx.Create(member).Error
	})
}

// FindByID finds a group by ID
func (r *GormGroupRepository) FindByID(id uint64) (*models.Group, error) {
	var group models.Group
	if err := r.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// FindByInviteCode finds a group by invite code
func (r *GormGroupRepository) FindByInviteCode(code string) (*models.Group, error) {
	var group models.Group
	if err := r.db.Where("invite_code = ?", code).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

// AddMember adds a member to a group
func (r *GormGroupRepository) AddMember(member *models.GroupMember) error {
	return r.db.Create(member).Error
}

// UpdateMember persists membership state changes
func (r *GormGroupRepository) UpdateMember(member *models.GroupMember) error {
	return r.db.Save(member).Error
}

// FindMember finds a membership row regardless of active state
func (r *GormGroupRepository) FindMember(groupID, userID uint64) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindActiveMember finds an active membership row
func (r *GormGroupRepository) FindActiveMember(groupID, userID uint64) (*models.GroupMember, error) {
	var member models.GroupMember
	if err := r.db.Where("group_id = ? AND user_id = ? AND is_active = ?", groupID, userID, true).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembershipsForUser lists active memberships with groups preloaded
func (r *GormGroupRepository) ListMembershipsForUser(userID uint64) ([]models.GroupMember, error) {
	var memberships []models.GroupMember
	if err := r.db.Preload("Group").
		Where("user_id = ? AND is_active = ?", userID, true).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListActiveMembers lists active members of a group with users preloaded
func (r *GormGroupRepository) ListActiveMembers(groupID uint64) ([]models.GroupMember, error) {
	var members []models.GroupMember
	if err := r.db.Preload("User").
		Where("group_id = ? AND is_active = ?", groupID, true).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// SearchByName finds the caller's groups matching the query by name.
// LOWER/LIKE keeps the query portable between postgres and the sqlite
// used in tests.
func (r *GormGroupRepository) SearchByName(userID uint64, query string, limit int) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ? AND group_members.is_active = ?", userID, true).
		Where("LOWER(groups.name) LIKE LOWER(?)", "%"+query+"%").
		Order("groups.name ASC").
		Limit(limit).
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}
