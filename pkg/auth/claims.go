package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vivaflower/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	SubjectID uuid.UUID
	Role      enums.ActorRole
	JTI       string
}

// AccessTokenClaims is the typed JWT presented by storefront and back-office clients.
// For guests SubjectID is the guest id; for admins it identifies the operator.
type AccessTokenClaims struct {
	SubjectID uuid.UUID       `json:"sub_id"`
	Role      enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
