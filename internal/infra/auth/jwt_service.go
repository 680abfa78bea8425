// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"passport/config"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/service"
)

const refreshTokenBytes = 64

// accessTokenClaims is the wire-level claim set of an access token.
type accessTokenClaims struct {
	Username   string   `json:"name"`
	GivenName  string   `json:"given_name"`
	FamilyName string   `json:"family_name"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// jwtService is a concrete implementation of the TokenService interface using the JWT standard.
// Access tokens are HS256-signed and bound to a fixed audience and issuer;
// refresh tokens are opaque random strings with no structure to validate.
type jwtService struct {
	securityKey []byte
	audience    string
	issuer      string
	accessTTL   time.Duration
	refreshTTL  time.Duration
}

// NewJWTService is the constructor for jwtService.
// It takes configuration values to create a new token service instance.
func NewJWTService(cfg *config.Config) (service.TokenService, error) {
	if cfg.Token == nil || cfg.Token.SecurityKey == "" {
		return nil, errors.New("token security key must be provided")
	}
	if cfg.Token.Audience == "" || cfg.Token.Issuer == "" {
		return nil, errors.New("token audience and issuer must be provided")
	}
	if cfg.Token.AccessTokenLifetimeInMinutes <= 0 || cfg.Token.RefreshTokenLifetimeInMinutes <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &jwtService{
		securityKey: []byte(cfg.Token.SecurityKey),
		audience:    cfg.Token.Audience,
		issuer:      cfg.Token.Issuer,
		accessTTL:   time.Duration(cfg.Token.AccessTokenLifetimeInMinutes) * time.Minute,
		refreshTTL:  time.Duration(cfg.Token.RefreshTokenLifetimeInMinutes) * time.Minute,
	}, nil
}

// IssueAccessToken mints a signed access token embedding the account's identity and roles.
func (s *jwtService) IssueAccessToken(account *entity.Account, roles []string) (string, time.Time, error) {
	return s.sign(&service.AccessClaims{
		AccountID:  account.ID,
		Username:   account.Username,
		GivenName:  account.FirstName,
		FamilyName: account.LastName,
		Email:      account.Email,
		Roles:      roles,
	})
}

// IssueAccessTokenFromClaims mints a new access token from an already validated claim set.
// Role claims are carried over verbatim; only the token id and timestamps are fresh.
func (s *jwtService) IssueAccessTokenFromClaims(claims *service.AccessClaims) (string, time.Time, error) {
	return s.sign(claims)
}

// ValidateAccessToken fully validates a token, including its lifetime.
func (s *jwtService) ValidateAccessToken(tokenString string) (*service.AccessClaims, error) {
	return s.parse(tokenString, false)
}

// ValidateForRefresh validates signature, audience, issuer and algorithm but
// ignores expiry: a just-expired access token must still be refreshable.
func (s *jwtService) ValidateForRefresh(tokenString string) (*service.AccessClaims, error) {
	return s.parse(tokenString, true)
}

// IssueRefreshToken mints an opaque, unpredictable refresh token.
func (s *jwtService) IssueRefreshToken() (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// RefreshTokenLifetime returns the configured refresh token lifetime.
func (s *jwtService) RefreshTokenLifetime() time.Duration {
	return s.refreshTTL
}

func (s *jwtService) sign(claims *service.AccessClaims) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(s.accessTTL)

	wire := &accessTokenClaims{
		Username:   claims.Username,
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
		Email:      claims.Email,
		Roles:      claims.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.AccountID.String(),
			Audience:  jwt.ClaimStrings{s.audience},
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(s.securityKey)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "sign access token")
	}

	return token, expiresAt, nil
}

func (s *jwtService) parse(tokenString string, ignoreExpiry bool) (*service.AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(s.audience),
		jwt.WithIssuer(s.issuer),
		jwt.WithIssuedAt(),
	}
	if ignoreExpiry {
		options = append(options, jwt.WithoutClaimsValidation())
	}

	wire := new(accessTokenClaims)
	token, err := jwt.ParseWithClaims(tokenString, wire, func(token *jwt.Token) (any, error) {
		return s.securityKey, nil
	}, options...)
	if err != nil {
		return nil, domainerrors.ErrInvalidToken.WrapMessage(err.Error())
	}
	if !token.Valid {
		return nil, domainerrors.ErrInvalidToken
	}

	// WithoutClaimsValidation skips every claim check, so audience and
	// issuer must still be enforced by hand on the refresh path.
	if ignoreExpiry {
		if err := s.checkAudienceAndIssuer(wire); err != nil {
			return nil, err
		}
	}

	accountID, err := uuid.Parse(wire.Subject)
	if err != nil {
		return nil, domainerrors.ErrInvalidToken.WrapMessage("subject is not a valid account id")
	}

	claims := &service.AccessClaims{
		AccountID:  accountID,
		Username:   wire.Username,
		GivenName:  wire.GivenName,
		FamilyName: wire.FamilyName,
		Email:      wire.Email,
		Roles:      wire.Roles,
		TokenID:    wire.ID,
	}
	if wire.IssuedAt != nil {
		claims.IssuedAt = wire.IssuedAt.Time.UTC()
	}

	return claims, nil
}

func (s *jwtService) checkAudienceAndIssuer(wire *accessTokenClaims) error {
	if wire.Issuer != s.issuer {
		return domainerrors.ErrInvalidToken.WrapMessage("issuer mismatch")
	}
	for _, aud := range wire.Audience {
		if aud == s.audience {
			return nil
		}
	}

	return domainerrors.ErrInvalidToken.WrapMessage("audience mismatch")
}
