package utils

import (
	"strconv"
	"time"
)

// StateTokenTTL bounds how long an OAuth state parameter stays valid between
// the redirect out and the provider callback.
const StateTokenTTL = 10 * time.Minute

// GenerateStateToken produces the signed state parameter round-tripped through
// a provider redirect. It is an HS256 JWT carrying the initiating user's id,
// so it survives URL encoding, resists tampering and expires on its own.
func GenerateStateToken(secretKey string, userID int64) (string, error) {
	return GenerateToken(secretKey, strconv.FormatInt(userID, 10), StateTokenTTL)
}

// VerifyStateToken reports whether state is authentic and unexpired, and the
// user who initiated the flow. It never panics; any malformed, forged or
// expired input yields ok=false.
func VerifyStateToken(secretKey, state string) (int64, bool) {
	claims, err := ValidateToken(secretKey, state)
	if err != nil {
		return 0, false
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil || userID == 0 {
		return 0, false
	}

	return userID, true
}
