package model

import (
	"time"
)

const (
	ActionRegister          = "REGISTER"
	ActionLogin             = "LOGIN"
	ActionChangePassword    = "CHANGE_PASSWORD"
	ActionCreateRole        = "CREATE_ROLE"
	ActionUpdateRole        = "UPDATE_ROLE"
	ActionDeleteRole        = "DELETE_ROLE"
	ActionCreatePermission  = "CREATE_PERMISSION"
	ActionAssignPermissions = "ASSIGN_PERMISSIONS"
	ActionUpdateUserRole    = "UPDATE_USER_ROLE"
	ActionDeleteUser        = "DELETE_USER"
	ActionAddLibraryEntry   = "ADD_LIBRARY_ENTRY"
	ActionUpdateLibrary     = "UPDATE_LIBRARY_ENTRY"
	ActionDeleteLibrary     = "DELETE_LIBRARY_ENTRY"
	ActionCreateReview      = "CREATE_REVIEW"
	ActionUpdateReview      = "UPDATE_REVIEW"
	ActionDeleteReview      = "DELETE_REVIEW"
)

// AuditLog records who did what, from where.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"` // nil for anonymous callers
	User       *User     `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL;" json:"user,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string    `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string    `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string    `gorm:"type:text" json:"details"`
	IP         string    `gorm:"type:varchar(64)" json:"ip"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
