package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// App statuses
const (
	AppStatusActive   = "active"
	AppStatusInactive = "inactive"
)

// Member roles
const (
	MemberRoleOwner  = "owner"
	MemberRoleAdmin  = "admin"
	MemberRoleMember = "member"
)

// App owns a set of blocks and the members allowed to manage them.
type App struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Icon        string    `gorm:"size:512" json:"icon,omitempty"`
	Platform    string    `gorm:"size:128" json:"platform"`
	Status      string    `gorm:"size:16;not null;default:active" json:"status"`
	MemberCount int       `gorm:"not null;default:0" json:"memberCount"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// AppMember grants a user a role on an app, scoped to a set of regions.
type AppMember struct {
	ID        string                      `gorm:"primaryKey;size:36" json:"id"`
	AppID     string                      `gorm:"size:36;not null;index:idx_app_members_app_user,priority:1" json:"appId"`
	UserID    string                      `gorm:"size:255;not null;index:idx_app_members_app_user,priority:2" json:"userId"`
	UserName  string                      `gorm:"size:255" json:"userName"`
	UserEmail string                      `gorm:"size:255;not null" json:"userEmail"`
	Role      string                      `gorm:"size:16;not null" json:"role"`
	Avatar    string                      `gorm:"size:512" json:"avatar,omitempty"`
	JoinedAt  time.Time                   `json:"joinedAt"`
	Regions   datatypes.JSONSlice[string] `json:"regions"`
}

func (App) TableName() string {
	return "apps"
}

func (AppMember) TableName() string {
	return "app_members"
}

func (a *App) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

func (m *AppMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *AppMember) AfterFind(tx *gorm.DB) error {
	if m.Regions == nil {
		m.Regions = datatypes.JSONSlice[string]{}
	}
	return nil
}
