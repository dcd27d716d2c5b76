package utils

import (
    "errors"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    tok, err := NewAccessToken("s3cret", 42, "PASSENGER", 15)
    if err != nil {
        t.Fatalf("NewAccessToken failed: %v", err)
    }
    if d := time.Until(tok.Exp); d < 14*time.Minute || d > 15*time.Minute {
        t.Fatalf("unexpected expiry %s", tok.Exp)
    }
    claims, err := ParseAccessToken("s3cret", tok.Token)
    if err != nil {
        t.Fatalf("ParseAccessToken failed: %v", err)
    }
    if claims.UserID != 42 || claims.Role != "PASSENGER" {
        t.Fatalf("claims = %+v", claims)
    }
}

func TestParseAccessTokenRejects(t *testing.T) {
    good, _ := NewAccessToken("s3cret", 1, "ADMIN", 5)
    expired, _ := NewAccessToken("s3cret", 1, "ADMIN", -5)
    noType, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": 1, "exp": time.Now().Add(time.Hour).Unix(),
    }).SignedString([]byte("s3cret"))

    cases := map[string]struct{ secret, raw string }{
        "wrong secret": {"other", good.Token},
        "expired":      {"s3cret", expired.Token},
        "missing typ":  {"s3cret", noType},
        "garbage":      {"s3cret", "not.a.jwt"},
    }
    for name, tc := range cases {
        if _, err := ParseAccessToken(tc.secret, tc.raw); !errors.Is(err, ErrInvalidToken) {
            t.Errorf("%s: err = %v, want ErrInvalidToken", name, err)
        }
    }
}

func TestRefreshToken(t *testing.T) {
    a, err := NewRefreshToken(7)
    if err != nil {
        t.Fatalf("NewRefreshToken failed: %v", err)
    }
    b, _ := NewRefreshToken(7)
    if len(a.Raw) != 96 || a.Raw == b.Raw {
        t.Fatalf("refresh tokens should be 96 random hex chars: %q %q", a.Raw, b.Raw)
    }
    if HashRefreshRaw(a.Raw) != HashRefreshRaw(a.Raw) || len(HashRefreshRaw(a.Raw)) != 64 {
        t.Fatalf("hash should be a stable 64 char digest")
    }
}

func TestPassword(t *testing.T) {
    hash, err := HashPassword("hunter22", 4)
    if err != nil {
        t.Fatalf("HashPassword failed: %v", err)
    }
    if !VerifyPassword(hash, "hunter22") || VerifyPassword(hash, "hunter23") {
        t.Fatalf("VerifyPassword mismatch")
    }
}
