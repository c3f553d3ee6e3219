package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"time"     // Expense date default and cache TTL

	"expense_tracker/internal/domain"   // Importing domain models
	"expense_tracker/internal/notifier" // Budget notification side effect
	"expense_tracker/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for expense creation
type CreateExpenseRequest struct {
	Amount      *float64   `json:"amount" binding:"required"` // Amount must be present; pointer rejects null/absent
	Category    string     `json:"category"`                  // Optional, defaults to "uncategorized"
	Description string     `json:"description"`               // Optional, defaults to ""
	Date        *time.Time `json:"date"`                      // Optional, defaults to now
}

// Response struct for the total endpoint, also the cache payload
type TotalResponse struct {
	Total float64 `json:"total"` // Aggregate sum of amounts
}

// ListExpensesHandler returns all expenses for a project, date descending
func ListExpensesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		projectID, ok := parseID(c.Param("projectId")) // Parse the project ID
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
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		expenses := []domain.Expense{} // Empty slice serializes as [] rather than null
		// Complete materialized set for the project, newest date first
		if err := db.Where("project_id = ?", projectID).
			Order("date desc").
			Find(&expenses).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		respondData(c, expenses) // Return the expenses
	}
}

// CreateExpenseHandler records an expense against a project and triggers
// the budget notifier in the background
func CreateExpenseHandler(db *gorm.DB, rdb *redis.Client, n *notifier.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		projectID, ok := parseID(c.Param("projectId")) // Parse the project ID
		if !ok {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		var req CreateExpenseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// Missing or null amount
			respondError(c, http.StatusBadRequest, CodeInvalidBody)
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
		// Apply defaults for the optional fields
		category := req.Category
		if category == "" {
			category = "uncategorized"
		}
		date := time.Now()
		if req.Date != nil {
			date = *req.Date
		}
		expense := domain.Expense{
			ProjectID:   projectID,       // Owning project
			Amount:      *req.Amount,     // Required amount
			Category:    category,        // Defaulted category
			Description: req.Description, // Defaults to ""
			Date:        date,            // Defaulted date
		}
		if err := db.Create(&expense).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		// Drop the cached total before anyone re-reads it
		invalidateTotal(rdb, projectID)
		// Recheck the budget without blocking the response
		n.ExpenseCreated(projectID)
		respondData(c, expense) // Return the created expense
	}
}

// DeleteExpenseHandler removes an expense if the caller is a member of its
// owning project and triggers the budget notifier in the background
func DeleteExpenseHandler(db *gorm.DB, rdb *redis.Client, n *notifier.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		expenseID, ok := parseID(c.Param("id")) // Parse the expense ID
		if !ok {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		var expense domain.Expense // The expense decides which project to guard
		if err := db.First(&expense, expenseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				respondError(c, http.StatusNotFound, CodeNotFound)
				return
			}
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		member, err := isProjectMember(db, expense.ProjectID, userID) // Membership guard
		if err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		if !member {
			respondError(c, http.StatusNotFound, CodeNotFound)
			return
		}
		// Unconditional hard delete once authorized
		if err := db.Delete(&domain.Expense{}, expenseID).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		// Drop the cached total before anyone re-reads it
		invalidateTotal(rdb, expense.ProjectID)
		// Recheck the budget without blocking the response
		n.ExpenseDeleted(expense.ProjectID)
		respondOK(c) // Return success without a payload
	}
}

// TotalExpensesHandler returns the aggregate sum of a project's expenses,
// cached in Redis for 60 seconds
func TotalExpensesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		projectID, ok := parseID(c.Param("projectId")) // Parse the project ID
		if !ok {
			// The total endpoint rejects malformed identifiers outright
			respondError(c, http.StatusBadRequest, CodeInvalidBody)
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
		ctx := context.Background()              // Context for Redis operations
		cacheKey := utils.TotalCacheKey(projectID) // Cache key for the total
		var cached TotalResponse
		if rdb != nil {
			// Try the cache first
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			if err == nil && found {
				respondData(c, cached) // Return the cached total
				return
			}
		}
		var total float64 // Aggregate sum, 0 when no expenses exist
		if err := db.Model(&domain.Expense{}).
			Where("project_id = ?", projectID).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&total).Error; err != nil {
			respondError(c, http.StatusInternalServerError, CodeServerError)
			return
		}
		resp := TotalResponse{Total: total}
		if rdb != nil {
			// Cache the total for 60 seconds
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		}
		respondData(c, resp) // Return the total
	}
}

// invalidateTotal drops the cached total for a project after a mutation
func invalidateTotal(rdb *redis.Client, projectID uint) {
	if rdb == nil {
		return // Cache not configured
	}
	_ = utils.DeleteCache(context.Background(), rdb, utils.TotalCacheKey(projectID))
}
