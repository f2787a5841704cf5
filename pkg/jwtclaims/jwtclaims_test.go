package jwtclaims

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func mint(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   map[string]any
	}{
		{
			name:   "registered claims",
			claims: jwt.MapClaims{"sub": "alice", "iat": 1700000000, "exp": 1700003600},
			want:   map[string]any{"sub": "alice", "iat": float64(1700000000), "exp": float64(1700003600)},
		},
		{
			name:   "multi-byte characters",
			claims: jwt.MapClaims{"sub": "Jürgen Müller", "name": "名前 😀"},
			want:   map[string]any{"sub": "Jürgen Müller", "name": "名前 😀"},
		},
		{
			name:   "mixed kinds",
			claims: jwt.MapClaims{"admin": true, "nick": nil, "roles": []string{"ops", "read"}, "ratio": 0.5},
			want: map[string]any{
				"admin": true,
				"nick":  nil,
				"roles": []any{"ops", "read"},
				"ratio": 0.5,
			},
		},
		{
			name:   "nested object passes through",
			claims: jwt.MapClaims{"meta": map[string]any{"tier": "gold"}},
			want:   map[string]any{"meta": map[string]any{"tier": "gold"}},
		},
		{
			name:   "number beyond float64 range",
			claims: jwt.MapClaims{"sub": "a", "n": json.Number("1e400")},
			want:   map[string]any{"sub": "a", "n": json.Number("1e400")},
		},
		{
			name:   "empty object",
			claims: jwt.MapClaims{},
			want:   map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(mint(t, tt.claims))
			if got == nil {
				t.Fatal("Decode() = nil, want claims")
			}
			if !reflect.DeepEqual(got.Map(), tt.want) {
				t.Errorf("Decode().Map() = %#v, want %#v", got.Map(), tt.want)
			}
		})
	}
}

func TestDecodeIgnoresHeaderAndSignature(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"bob"}`))
	got := Decode("not-a-header." + payload + ".")
	sub, ok := got.Subject()
	if !ok || sub != "bob" {
		t.Fatalf("Subject() = %q, %v; want bob", sub, ok)
	}
}

func TestDecodeAcceptsStandardAlphabetAndPadding(t *testing.T) {
	// "?>>" encodes to "Pz4+" in the standard alphabet
	raw := []byte(`{"k":"?>>"}`)
	std := base64.StdEncoding.EncodeToString(raw)
	got := Decode("h." + std + ".s")
	if got == nil {
		t.Fatalf("Decode(%q) = nil", std)
	}
	if v, _ := got["k"].String(); v != "?>>" {
		t.Errorf(`claims["k"] = %q, want "?>>"`, v)
	}
}

func TestDecodeHugeNumber(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"a","n":1e400}`))
	got := Decode("h." + payload + ".s")
	if got == nil {
		t.Fatal("Decode() = nil, want claims")
	}
	if n, ok := got["n"].Number(); !ok || n.String() != "1e400" {
		t.Errorf(`claims["n"].Number() = %q, %v`, n, ok)
	}
	if _, ok := got["n"].Float(); ok {
		t.Error(`claims["n"].Float() ok = true, want false for an overflowing number`)
	}
}

func TestDecodeMalformed(t *testing.T) {
	enc := func(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not a jwt", "not-a-jwt"},
		{"two segments", "abc." + enc(`{"sub":"x"}`)},
		{"four segments", "a." + enc(`{"sub":"x"}`) + ".c.d"},
		{"empty payload", "abc..ghi"},
		{"invalid base64", "abc.def.ghi"},
		{"invalid json", "a." + enc(`{"sub":`) + ".c"},
		{"json array", "a." + enc(`[1,2]`) + ".c"},
		{"json null", "a." + enc(`null`) + ".c"},
		{"json string", "a." + enc(`"hello"`) + ".c"},
		{"invalid utf-8", "a." + base64.RawURLEncoding.EncodeToString([]byte{'{', '"', 'a', '"', ':', '"', 0xff, '"', '}'}) + ".c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decode(tt.token); got != nil {
				t.Errorf("Decode(%q) = %v, want nil", tt.token, got)
			}
		})
	}
}

func TestRegisteredClaimAccessors(t *testing.T) {
	iat := time.Unix(1700000000, 0)
	exp := iat.Add(time.Hour)
	claims := Decode(mint(t, jwt.MapClaims{"sub": "alice", "iat": iat.Unix(), "exp": exp.Unix()}))

	if sub, ok := claims.Subject(); !ok || sub != "alice" {
		t.Errorf("Subject() = %q, %v", sub, ok)
	}
	if got, ok := claims.IssuedAt(); !ok || !got.Equal(iat) {
		t.Errorf("IssuedAt() = %v, %v", got, ok)
	}
	if got, ok := claims.ExpiresAt(); !ok || !got.Equal(exp) {
		t.Errorf("ExpiresAt() = %v, %v", got, ok)
	}
	if claims.Expired(iat) {
		t.Error("Expired(iat) = true, want false")
	}
	if !claims.Expired(exp.Add(time.Second)) {
		t.Error("Expired(after exp) = false, want true")
	}
}

func TestNilClaimsAccessors(t *testing.T) {
	var c Claims
	if _, ok := c.Subject(); ok {
		t.Error("nil Subject() ok = true")
	}
	if _, ok := c.ExpiresAt(); ok {
		t.Error("nil ExpiresAt() ok = true")
	}
	if c.Expired(time.Now()) {
		t.Error("nil Expired() = true")
	}
	if c.Map() != nil {
		t.Error("nil Map() != nil")
	}
}

func TestValueDisplay(t *testing.T) {
	claims := Decode(mint(t, jwt.MapClaims{"n": 42, "b": false, "s": "x", "z": nil, "a": []int{1}}))
	want := map[string]string{"n": "42", "b": "false", "s": "x", "z": "null", "a": "[1]"}
	for k, w := range want {
		if got := claims[k].Display(); got != w {
			t.Errorf("claims[%q].Display() = %q, want %q", k, got, w)
		}
	}
	if claims["z"].Kind() != KindNull || claims["a"].Kind() != KindOpaque {
		t.Errorf("kinds = %v, %v", claims["z"].Kind(), claims["a"].Kind())
	}
}
