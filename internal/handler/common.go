package handler

import (
	"net/http"

	"github.com/OFThub/ToDoList/internal/access"
	"github.com/OFThub/ToDoList/internal/middleware"
	"github.com/OFThub/ToDoList/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUserID extracts the authenticated user's id set by the auth
// middleware. On failure it writes the error response and returns false.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return uuid.Nil, false
	}

	authenticatedUserID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return uuid.Nil, false
	}
	return authenticatedUserID, true
}

// respondAccessError writes the HTTP mapping of an access-resolution failure.
func respondAccessError(c *gin.Context, err error) {
	status, body := access.ErrorResponse(err)
	c.JSON(status, body)
}

// UserSummary is the hydrated form of a user reference, for display.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

func userSummary(u *model.User) UserSummary {
	return UserSummary{
		ID:       u.ID.String(),
		Username: u.Username,
		Avatar:   u.Profile.Avatar,
	}
}
