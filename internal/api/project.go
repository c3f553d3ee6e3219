package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"expense_tracker/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for project creation
type CreateProjectRequest struct {
	Name   string   `json:"name" binding:"required"`   // Project name must be provided
	Budget *float64 `json:"budget" binding:"required"` // Budget must be present; pointer rejects null/absent
}

// Request struct for inviting a member by email
type InviteMemberRequest struct {
	Email string `json:"email" binding:"required"` // Address of the user to invite
}

// Member entry returned by the members listing
type MemberResponse struct {
	UserID   uint   `json:"userId"`   // Member's user ID
	Username string `json:"username"` // Member's username
	Email    string `json:"email"`    // Member's notification address
}

// ListProjectsHandler returns all projects the caller belongs to, newest first
func ListProjectsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var projectIDs []uint // Projects the caller is a member of
		if err := db.Model(&domain.ProjectMember{}).
			Where("user_id = ?", userID).
			Pluck("project_id", &projectIDs).Error; err != nil {
			// Membership lookup failed, generic server error
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		projects := []domain.Project{} // Empty slice serializes as [] rather than null
		if len(projectIDs) > 0 {
			// Fetch the projects, newest first
			if err := db.Where("id IN ?", projectIDs).
				Order("created_at desc").
				Find(&projects).Error; err != nil {
				respondError(c, http.StatusInternalServerError, CodeServerError)
				return
			}
		}
		respondData(c, projects) // Return the caller's projects
	}
}

// GetProjectHandler returns one project if the caller is a member
func GetProjectHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		projectID, ok := parseID(c.Param("id")) // Parse the project ID
		if !ok {
			// Malformed IDs look the same as missing projects
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		member, err := isProjectMember(db, projectID, userID) // Membership guard
		if err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		if !member {
			// Non-members cannot tell whether the project exists
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		var project domain.Project // Fetch the project itself
		if err := db.First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, http.StatusNotFound, CodeNotFound)
				return
			}
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		respondData(c, project) // Return the project
	}
}

// CreateProjectHandler creates a project and auto-adds the creator as member
func CreateProjectHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateProjectRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// Missing name or budget
			respondError(c, http.StatusBadRequest, CodeInvalidBody)
			return
		}
		name := strings.TrimSpace(req.Name) // Name is stored trimmed
		// Whitespace-only names and negative budgets are invalid
		if name == "" || *req.Budget < 0 {
			respondError(c, http.StatusBadRequest, CodeInvalidBody)
			return
		}
		project := domain.Project{Name: name, Budget: req.Budget} // New project
		if err := db.Create(&project).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		// Auto-add the creator as a member
		membership := domain.ProjectMember{ProjectID: project.ID, UserID: userID}
		if err := db.Create(&membership).Error; err != nil {
			// Membership insert failed; remove the project to stay consistent
			logrus.WithFields(logrus.Fields{
				"project_id": project.ID,  // Orphaned project being rolled back
				"user_id":    userID,      // Creator
				"error":      err.Error(), // Error message
			}).Error("Membership create failed, removing project")
			if err := db.Delete(&domain.Project{}, project.ID).Error; err != nil {
				logrus.WithFields(logrus.Fields{
					"project_id": project.ID,  // Project left behind
					"error":      err.Error(), // Error message
				}).Error("Project rollback failed")
			}
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		// Log the created project
		logrus.WithFields(logrus.Fields{
			"project_id": project.ID,  // New project
			"user_id":    userID,      // Creator, auto-added as member
			"budget":     *req.Budget, // Configured budget
		}).Info("Project created")
		respondData(c, project) // Return the created project
	}
}

// DeleteProjectHandler deletes a project and its memberships if the caller
// is a member
func DeleteProjectHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		projectID, ok := parseID(c.Param("id")) // Parse the project ID
		if !ok {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		member, err := isProjectMember(db, projectID, userID) // Membership guard
		if err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		if !member {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		// Delete the project
		if err := db.Delete(&domain.Project{}, projectID).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		// Delete all memberships tied to the project; expense rows are left
		// in place (current retention behavior)
		if err := db.Where("project_id = ?", projectID).Delete(&domain.ProjectMember{}).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		// Log the deleted project
		logrus.WithFields(logrus.Fields{
			"project_id": projectID, // Deleted project
			"user_id":    userID,    // Member who deleted it
		}).Info("Project deleted")
		respondOK(c) // Return success without a payload
	}
}

// InviteMemberHandler adds an existing user to a project by email if the
// caller is already a member
func InviteMemberHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		projectID, ok := parseID(c.Param("id")) // Parse the project ID
		if !ok {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		var req InviteMemberRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// Missing email
			respondError(c, http.StatusBadRequest, CodeInvalidBody)
			return
		}
		member, err := isProjectMember(db, projectID, userID) // Membership guard
		if err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		if !member {
			// Only members can grow the membership list
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		var invited domain.User // Resolve the invitee by address
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := db.Where("email = ?", email).First(&invited).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// An unknown address is a body problem, not a resource one
				respondError(c, http.StatusBadRequest, CodeInvalidBody)
				return
			}
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		already, err := isProjectMember(db, projectID, invited.ID) // Unique pair
		if err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		// Inviting an existing member changes nothing
		if !already {
			membership := domain.ProjectMember{ProjectID: projectID, UserID: invited.ID}
			if err := db.Create(&membership).Error; err != nil {
				respondError(c, http.StatusInternalServerError, CodeServerError)
				return
			}
			// Log the new membership
			logrus.WithFields(logrus.Fields{
				"project_id": projectID,  // Project gaining a member
				"user_id":    invited.ID, // Invited user
				"invited_by": userID,     // Member who sent the invite
			}).Info("Member invited")
		}
		// Return the invited member
		respondData(c, MemberResponse{UserID: invited.ID, Username: invited.Username, Email: invited.Email})
	}
}

// ListMembersHandler returns the members of a project if the caller is one
func ListMembersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		projectID, ok := parseID(c.Param("id")) // Parse the project ID
		if !ok {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		member, err := isProjectMember(db, projectID, userID) // Membership guard
		if err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		if !member {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		members := []MemberResponse{} // Member users joined through the membership table
		if err := db.Model(&domain.User{}).
			Select("users.id AS user_id, users.username, users.email").
			Joins("JOIN project_members ON project_members.user_id = users.id").
			Where("project_members.project_id = ?", projectID).
			Scan(&members).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		respondData(c, members) // Return the member list
	}
}
