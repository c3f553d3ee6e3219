package api

import (
	"github.com/gin-gonic/gin" // Gin web framework
)

// Error codes carried in the response envelope. NOT_FOUND deliberately
// covers both a missing resource and a caller who is not a member, so a
// non-member cannot learn whether a project exists.
const (
	CodeNotFound    = "NOT_FOUND"    // Resource absent or caller lacks membership
	CodeInvalidBody = "INVALID_BODY" // Missing or malformed required field
	CodeServerError = "SERVER_ERROR" // Unexpected failure
)

// respondData sends the success envelope with a payload
func respondData(c *gin.Context, data any) {
	c.JSON(200, gin.H{"ok": true, "data": data})
}

// respondOK sends the success envelope without a payload
func respondOK(c *gin.Context) {
	c.JSON(200, gin.H{"ok": true})
}

// respondError sends the failure envelope with one of the codes above
func respondError(c *gin.Context, status int, code string) {
	c.JSON(status, gin.H{"ok": false, "code": code})
}
