package domain

import "time"

// ProjectMember Model: many-to-many link between users and projects
type ProjectMember struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                // Primary key
	ProjectID uint      `gorm:"not null;uniqueIndex:idx_project_user" json:"projectId"` // Foreign key to Project
	UserID    uint      `gorm:"not null;uniqueIndex:idx_project_user" json:"userId"`    // Foreign key to User
	CreatedAt time.Time `json:"createdAt"`                                           // Timestamp of creation
}
