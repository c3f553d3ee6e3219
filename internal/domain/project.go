package domain

import "time"

// Project Model
type Project struct {
	ID                       uint       `gorm:"primaryKey" json:"id"`                          // Primary key
	Name                     string     `gorm:"not null" json:"name"`                          // Project name, trimmed on create
	Budget                   *float64   `gorm:"check:budget >= 0" json:"budget"`               // Budget; nil on legacy rows disables notification
	NotifiedOverBudget       bool       `gorm:"default:false" json:"notifiedOverBudget"`       // Set once the over-budget mail went out
	LastOverBudgetNotifiedAt *time.Time `json:"lastOverBudgetNotifiedAt"`                      // When the last over-budget mail went out
	CreatedAt                time.Time  `json:"createdAt"`                                     // Timestamp of creation
}
