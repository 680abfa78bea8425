// Package entity contains the core business objects of the project.
package entity

import "time"

// TokenPair is the credential set returned by login and refresh: a signed,
// short-lived access token and the opaque refresh token that can later be
// exchanged for a new pair.
type TokenPair struct {
	AccessToken        string    // Compact JWT presented per-request.
	AccessTokenEndDate time.Time // Expiry of the access token, UTC.
	RefreshToken       string    // Opaque random secret, single active value per account.
}
