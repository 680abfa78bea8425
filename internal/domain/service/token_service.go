package service

import (
	"time"

	"passport/internal/domain/entity"

	"github.com/google/uuid"
)

// AccessClaims is the validated claim set extracted from an access token.
type AccessClaims struct {
	AccountID  uuid.UUID // Subject of the token.
	Username   string    // Name claim.
	GivenName  string    // First name claim.
	FamilyName string    // Last name claim.
	Email      string    // Email claim.
	Roles      []string  // Zero or more role claims.
	TokenID    string    // Unique token id (jti), fresh per issuance.
	IssuedAt   time.Time // Issuance instant, UTC.
}

// TokenService defines the interface for minting and validating access
// tokens and minting refresh tokens. This abstracts the wire format and
// signing scheme from the use cases.
type TokenService interface {
	// IssueAccessToken mints a signed access token embedding the account's
	// identity and the given role claims. Expiry is now plus the configured
	// access lifetime.
	IssueAccessToken(account *entity.Account, roles []string) (token string, expiresAt time.Time, err error)

	// IssueAccessTokenFromClaims mints a new access token reusing an already
	// validated claim set. Role claims are carried over unchanged; only the
	// token id and timestamps are fresh.
	IssueAccessTokenFromClaims(claims *AccessClaims) (token string, expiresAt time.Time, err error)

	// ValidateAccessToken fully validates a token, including its lifetime,
	// and returns its claims.
	ValidateAccessToken(token string) (*AccessClaims, error)

	// ValidateForRefresh validates signature, audience, issuer and algorithm
	// but deliberately ignores expiry: a just-expired access token must still
	// be refreshable.
	ValidateForRefresh(token string) (*AccessClaims, error)

	// IssueRefreshToken mints an opaque, unpredictable refresh token.
	IssueRefreshToken() (string, error)

	// RefreshTokenLifetime returns the configured duration a refresh token
	// stays valid beyond the access token expiry it was issued with.
	RefreshTokenLifetime() time.Duration
}
