package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"passport/config"
	"passport/internal/domain/entity"
	domainerrors "passport/internal/domain/errors"
	"passport/internal/domain/service"
)

// actionTokenService implements single-use tokens without token storage.
// A token is an HMAC over the purpose, the account id, an expiry instant and
// a stamp of the state the action mutates. Performing the action changes the
// stamp, so every outstanding token for that purpose stops verifying.
type actionTokenService struct {
	secret          []byte
	confirmationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
}

// NewActionTokenService is the constructor for actionTokenService.
func NewActionTokenService(cfg *config.Config) (service.ActionTokenService, error) {
	if cfg.ActionTokens == nil || cfg.ActionTokens.Secret == "" {
		return nil, errors.New("action token secret must be provided")
	}

	return &actionTokenService{
		secret:          []byte(cfg.ActionTokens.Secret),
		confirmationTTL: cfg.ActionTokens.ConfirmationTTL,
		resetTTL:        cfg.ActionTokens.ResetTTL,
		now:             time.Now,
	}, nil
}

// Generate mints a raw token for the purpose against the account's current state.
func (s *actionTokenService) Generate(purpose service.ActionTokenPurpose, account *entity.Account) (string, error) {
	ttl, err := s.ttlFor(purpose)
	if err != nil {
		return "", err
	}

	expiresAt := s.now().UTC().Add(ttl).Unix()
	mac := s.compute(purpose, account, expiresAt)

	return strconv.FormatInt(expiresAt, 10) + "." + base64.RawURLEncoding.EncodeToString(mac), nil
}

// Verify checks a raw token against the account's current state.
func (s *actionTokenService) Verify(purpose service.ActionTokenPurpose, account *entity.Account, token string) error {
	expiryPart, macPart, ok := strings.Cut(token, ".")
	if !ok {
		return domainerrors.ErrInvalidToken
	}

	expiresAt, err := strconv.ParseInt(expiryPart, 10, 64)
	if err != nil {
		return domainerrors.ErrInvalidToken
	}

	mac, err := base64.RawURLEncoding.DecodeString(macPart)
	if err != nil {
		return domainerrors.ErrInvalidToken
	}

	if !hmac.Equal(mac, s.compute(purpose, account, expiresAt)) {
		return domainerrors.ErrInvalidToken
	}

	if s.now().UTC().Unix() > expiresAt {
		return domainerrors.ErrInvalidToken.WrapMessage("token has expired")
	}

	return nil
}

func (s *actionTokenService) ttlFor(purpose service.ActionTokenPurpose) (time.Duration, error) {
	switch purpose {
	case service.PurposeEmailConfirmation:
		return s.confirmationTTL, nil
	case service.PurposePasswordReset:
		return s.resetTTL, nil
	default:
		return 0, errors.Errorf("unknown action token purpose: %s", purpose)
	}
}

func (s *actionTokenService) compute(purpose service.ActionTokenPurpose, account *entity.Account, expiresAt int64) []byte {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(purpose))
	mac.Write([]byte{0})
	mac.Write([]byte(account.ID.String()))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.FormatInt(expiresAt, 10)))
	mac.Write([]byte{0})
	mac.Write([]byte(s.stateStamp(purpose, account)))

	return mac.Sum(nil)
}

// stateStamp binds the token to the state its action mutates.
func (s *actionTokenService) stateStamp(purpose service.ActionTokenPurpose, account *entity.Account) string {
	switch purpose {
	case service.PurposeEmailConfirmation:
		return strconv.FormatBool(account.EmailConfirmed)
	case service.PurposePasswordReset:
		return account.PasswordHash
	default:
		return ""
	}
}
