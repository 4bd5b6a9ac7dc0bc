package users

import (
	"context"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes user persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the user and links the given roles.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByUserName retrieves the user with the given login name.
func (r *Repository) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("user_name = ?", userName).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user with their roles.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where("user_id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindRolesByName loads the named roles.
func (r *Repository) FindRolesByName(ctx context.Context, names []string) ([]models.Role, error) {
	var roles []models.Role
	if len(names) == 0 {
		return roles, nil
	}
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

// ListPermissionNames resolves the distinct permission names granted to a user through roles.
func (r *Repository) ListPermissionNames(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("permissions AS p").
		Distinct("p.name").
		Joins("JOIN roles_permissions rp ON rp.permission_id = p.permission_id").
		Joins("JOIN users_roles ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ?", userID).
		Order("p.name").
		Pluck("p.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}
