package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/database/models"
)

// Authenticator is the account side of Service, as used by the HTTP layer.
type Authenticator interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResponse, error)
	Login(ctx context.Context, input LoginInput) (*AuthResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TokenValidator resolves a presented token to its claims. Issuing tokens
// stays with Service, so request middleware only ever reads them.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

var (
	_ Authenticator  = (*Service)(nil)
	_ TokenValidator = (*JWTService)(nil)
)
