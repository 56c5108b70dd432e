package internal

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// segmentParser only decodes segments. Signatures are never checked.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims decodes the claims segment of a header.claims.signature token
func DecodeClaims(token string) (jwt.MapClaims, error) {
	if token == "" {
		return nil, &CredentialError{Reason: "empty token"}
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, &CredentialError{Reason: fmt.Sprintf("expected 3 segments, got %d", len(parts))}
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, &CredentialError{Reason: "claims segment is not base64", Err: err}
	}

	var claims jwt.MapClaims
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, &CredentialError{Reason: "claims segment is not JSON", Err: err}
	}
	if dec.More() {
		return nil, &CredentialError{Reason: "trailing data after claims"}
	}
	if claims == nil {
		return nil, &CredentialError{Reason: "claims are not an object"}
	}

	return claims, nil
}

// decodeSegment accepts the URL alphabet (padded or not) and falls back to
// the standard alphabet.
func decodeSegment(seg string) ([]byte, error) {
	data, err := segmentParser.DecodeSegment(seg)
	if err == nil {
		return data, nil
	}
	if std, stdErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "=")); stdErr == nil {
		return std, nil
	}
	return nil, err
}

// CredentialExpiry returns the exp claim. A nil time means the credential
// does not expire: exp is absent, null or zero.
func CredentialExpiry(claims jwt.MapClaims) (*time.Time, error) {
	exp, ok, err := expirySeconds(claims)
	if err != nil || !ok {
		return nil, err
	}

	sec, frac := math.Modf(exp)
	t := time.Unix(int64(sec), int64(frac*1e9))
	return &t, nil
}

// expirySeconds reads exp as fractional seconds. NumericDate parsing is
// avoided since it truncates to whole seconds.
func expirySeconds(claims jwt.MapClaims) (float64, bool, error) {
	raw, ok := claims["exp"]
	if !ok || raw == nil {
		return 0, false, nil
	}

	var exp float64
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, &CredentialError{Reason: "exp claim", Err: err}
		}
		exp = f
	case float64:
		exp = v
	case float32:
		exp = float64(v)
	case int:
		exp = float64(v)
	case int32:
		exp = float64(v)
	case int64:
		exp = float64(v)
	default:
		return 0, false, &CredentialError{Reason: fmt.Sprintf("exp claim has type %T", raw), Err: jwt.ErrInvalidType}
	}

	if math.IsNaN(exp) || math.IsInf(exp, 0) {
		return 0, false, &CredentialError{Reason: "exp claim is not finite"}
	}
	if exp == 0 {
		return 0, false, nil
	}
	return exp, true, nil
}

// IsCredentialUsable reports whether token decodes and has not expired at now.
// Decode failures of any kind make the token unusable; they are not returned.
func IsCredentialUsable(token string, now time.Time) bool {
	claims, err := DecodeClaims(token)
	if err != nil {
		LogDebug("Credential not usable: %v", err)
		return false
	}

	exp, ok, err := expirySeconds(claims)
	if err != nil {
		LogDebug("Credential not usable: %v", err)
		return false
	}
	if !ok {
		return true
	}

	return float64(now.UnixNano())/1e9 < exp
}
