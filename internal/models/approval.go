package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Approval request statuses
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ApprovalRequest records one submission of a version for review.
// BlockName and Version are copied at submission time for display.
type ApprovalRequest struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	BlockID     string     `gorm:"size:36;not null;index" json:"blockId"`
	BlockName   string     `gorm:"size:255" json:"blockName"`
	VersionID   string     `gorm:"size:36;not null;index:idx_approvals_version_status,priority:1" json:"versionId"`
	Version     string     `gorm:"size:64" json:"version"`
	Environment string     `gorm:"size:32" json:"environment"`
	RequestedBy string     `gorm:"size:255;not null" json:"requestedBy"`
	RequestedAt time.Time  `gorm:"not null;index:idx_approvals_status_requested,priority:2" json:"requestedAt"`
	Status      string     `gorm:"size:16;not null;index:idx_approvals_status_requested,priority:1;index:idx_approvals_version_status,priority:2" json:"status"`
	ReviewedBy  *string    `gorm:"size:255" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	Comment     *string    `gorm:"type:text" json:"comment,omitempty"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

func (r *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// All returns every model managed by the migrations, in dependency order.
func All() []interface{} {
	return []interface{}{
		&App{},
		&AppMember{},
		&Block{},
		&BlockVersion{},
		&ApprovalRequest{},
	}
}
