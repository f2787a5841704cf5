// Package jwtclaims decodes the payload segment of a compact JWT for display.
//
// Nothing here verifies signatures. Decoded claims must never drive an
// authorization decision; the API server owns that.
package jwtclaims

import (
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
)

var errEmptyValue = errors.New("empty claim value")

// Registered claim names the console knows how to present
const (
	ClaimSubject   = "sub"
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
)

// Claims is the decoded payload of a token. A nil Claims means "no claims".
type Claims map[string]Value

// segmentParser only uses DecodeSegment, which is base64url without padding
var segmentParser = jwt.NewParser()

// Decode returns the claims of a three part compact token, or nil when any step fails
func Decode(token string) Claims {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[1] == "" {
		return nil
	}

	payload, err := segmentParser.DecodeSegment(normalizeSegment(parts[1]))
	if err != nil {
		return nil
	}
	if !utf8.Valid(payload) {
		return nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(payload, &members); err != nil || members == nil {
		return nil
	}

	claims := make(Claims, len(members))
	for key, raw := range members {
		v, err := parseValue(raw)
		if err != nil {
			return nil
		}
		claims[key] = v
	}
	return claims
}

// normalizeSegment maps the standard alphabet onto the URL-safe one and drops padding
func normalizeSegment(seg string) string {
	seg = strings.NewReplacer("+", "-", "/", "_").Replace(seg)
	return strings.TrimRight(seg, "=")
}

// Get returns a claim by name
func (c Claims) Get(key string) (Value, bool) {
	if c == nil {
		return Value{}, false
	}
	v, ok := c[key]
	return v, ok
}

// Subject returns the "sub" claim when it is a string
func (c Claims) Subject() (string, bool) {
	v, ok := c.Get(ClaimSubject)
	if !ok {
		return "", false
	}
	return v.String()
}

// IssuedAt returns the "iat" claim as a time
func (c Claims) IssuedAt() (time.Time, bool) {
	return c.numericDate(ClaimIssuedAt)
}

// ExpiresAt returns the "exp" claim as a time
func (c Claims) ExpiresAt() (time.Time, bool) {
	return c.numericDate(ClaimExpiresAt)
}

// Expired reports whether "exp" lies before now. Tokens without "exp" never expire here.
func (c Claims) Expired(now time.Time) bool {
	exp, ok := c.ExpiresAt()
	return ok && now.After(exp)
}

// Map converts the claims back into plain Go values
func (c Claims) Map() map[string]any {
	if c == nil {
		return nil
	}
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v.Interface()
	}
	return out
}

func (c Claims) numericDate(key string) (time.Time, bool) {
	v, ok := c.Get(key)
	if !ok {
		return time.Time{}, false
	}
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}
