package api

import (
	"alcyxob/workout-log/internal/domain"
	"alcyxob/workout-log/internal/service"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type UserResponse struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// IssueAnonymous godoc
// @Summary Start an anonymous session
// @Description Creates a new anonymous user and returns a JWT scoped to it.
// @Tags Auth
// @Produce json
// @Success 201 {object} TokenResponse
// @Failure 500 {object} gin.H "Internal Server Error"
// @Router /auth/anonymous [post]
func (h *AuthHandler) IssueAnonymous(c *gin.Context) {
	token, user, err := h.authService.IssueAnonymous(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("failed to issue anonymous user")
		abortWithError(c, http.StatusInternalServerError, "Could not start a session")
		return
	}
	c.JSON(http.StatusCreated, TokenResponse{Token: token, User: MapUserToResponse(user)})
}

// Me returns the user of the current token.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUnknownUser) {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}
		log.WithError(err).WithField("user", userID).Error("failed to load user")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:         user.ID,
		CreatedAt:  user.CreatedAt,
		LastSeenAt: user.LastSeenAt,
	}
}
