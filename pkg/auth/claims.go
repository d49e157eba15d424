package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/stockledger-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload is what the login flow knows about the account.
type AccessTokenPayload struct {
	AccountID   uuid.UUID
	Email       string
	Role        enums.AccountRole
	FranchiseID string
	JTI         string
}

func (p AccessTokenPayload) validate() error {
	if !p.Role.IsValid() {
		return fmt.Errorf("invalid account role %q", p.Role)
	}
	if p.Role == enums.AccountRoleFranchiseOwner && strings.TrimSpace(p.FranchiseID) == "" {
		return errors.New("franchise id is required for franchise owners")
	}
	return nil
}

func (p AccessTokenPayload) claims(issuer string, now time.Time, ttl time.Duration) AccessTokenClaims {
	return AccessTokenClaims{
		AccountID:   p.AccountID,
		Email:       p.Email,
		Role:        p.Role,
		FranchiseID: p.FranchiseID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   p.AccountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        p.JTI,
		},
	}
}

// AccessTokenClaims is the JWT body. ID (jti) doubles as the session key.
type AccessTokenClaims struct {
	AccountID   uuid.UUID         `json:"account_id"`
	Email       string            `json:"email"`
	Role        enums.AccountRole `json:"role"`
	FranchiseID string            `json:"franchise_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *AccessTokenClaims) validate() error {
	switch {
	case !c.Role.IsValid():
		return fmt.Errorf("invalid account role %q", c.Role)
	case c.ID == "":
		return errors.New("missing session id")
	case c.Subject != c.AccountID.String():
		return errors.New("subject does not match account")
	}
	return nil
}
