package api

import (
	"errors"  // Error inspection
	"strconv" // Route parameter parsing

	"expense_tracker/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// isProjectMember reports whether a membership row exists for the pair.
// Every project-scoped handler calls this before touching project data.
func isProjectMember(db *gorm.DB, projectID, userID uint) (bool, error) {
	var membership domain.ProjectMember
	err := db.Where("project_id = ? AND user_id = ?", projectID, userID).First(&membership).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil // No membership row for the pair
	}
	if err != nil {
		return false, err // Database error is fatal to the request
	}
	return true, nil
}

// parseID parses a numeric route parameter
func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, false // Not a valid identifier
	}
	return uint(id), true
}

// currentUserID pulls the authenticated user's ID set by the JWT middleware
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userID")
	if !exists {
		return 0, false // Middleware did not run
	}
	id, ok := v.(uint)
	return id, ok
}
