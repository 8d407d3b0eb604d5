package internal

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// WarningLeadTime is how long before hard expiry the renewal warning fires.
const WarningLeadTime = 60 * time.Second

// tokenClaims is the subset of the eldorado access token we care about.
type tokenClaims struct {
	Levels []string `json:"user_levels,omitempty"`
	jwt.RegisteredClaims
}

// DecodeExpiry extracts the expiry instant from an access token without
// verifying the signature (the client holds no key, it only schedules around
// the claim). ok is false when the token carries no exp claim.
func DecodeExpiry(token string) (expiresAt time.Time, ok bool, err error) {
	claims, err := decodeClaims(token)
	if err != nil {
		return time.Time{}, false, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// DecodeSubject returns the subject (login) embedded in the access token.
func DecodeSubject(token string) (string, error) {
	claims, err := decodeClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// DecodeLevels returns the user levels embedded in the access token, if any.
func DecodeLevels(token string) ([]string, error) {
	claims, err := decodeClaims(token)
	if err != nil {
		return nil, err
	}
	return claims.Levels, nil
}

func decodeClaims(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// Remaining returns how much validity is left at now. Negative when the
// token already expired.
func Remaining(expiresAt, now time.Time) time.Duration {
	return expiresAt.Sub(now)
}

// WarningDelay returns how long to wait before surfacing the renewal
// warning. Zero means fire now; it is never negative.
func WarningDelay(expiresAt, now time.Time, lead time.Duration) time.Duration {
	d := expiresAt.Sub(now) - lead
	if d < 0 {
		return 0
	}
	return d
}
