package dto

import (
	"time"

	"github.com/assessly/assessly-api/internal/models"
)

// LoginRequest carries credentials for session creation.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the profile shape returned to authenticated callers.
type UserResponse struct {
	ID        uint        `json:"id"`
	Email     string      `json:"email"`
	FullName  string      `json:"full_name"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewUserResponse converts a User model into its API shape.
func NewUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
