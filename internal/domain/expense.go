package domain

import "time"

// Expense Model: append-only, never updated in place
type Expense struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                                  // Primary key
	ProjectID   uint      `gorm:"not null;index:idx_project_date" json:"projectId"`      // Foreign key to Project
	Amount      float64   `gorm:"not null;check:amount >= 0" json:"amount"`              // Expense amount
	Category    string    `gorm:"default:uncategorized" json:"category"`                 // Category, defaults to "uncategorized"
	Description string    `json:"description"`                                           // Free-form description
	Date        time.Time `gorm:"index:idx_project_date,sort:desc" json:"date"`          // Expense date, defaults to now
}
