package auth

import (
	"time"

	"github.com/angelmondragon/stockledger-backend/internal/users"
)

// LoginRequest captures the account credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

const tokenTypeBearer = "Bearer"

// LoginResponse follows the OAuth2 token response field names so generic
// clients can read it.
type LoginResponse struct {
	AccessToken string            `json:"access_token"`
	TokenType   string            `json:"token_type"`
	ExpiresIn   int64             `json:"expires_in"`
	ExpiresAt   time.Time         `json:"expires_at"`
	Account     *users.AccountDTO `json:"account"`
}

func newLoginResponse(token string, issuedAt time.Time, ttl time.Duration, account *users.AccountDTO) *LoginResponse {
	return &LoginResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(ttl / time.Second),
		ExpiresAt:   issuedAt.Add(ttl),
		Account:     account,
	}
}
