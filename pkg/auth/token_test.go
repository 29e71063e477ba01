package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/recophone/recophone-backend/pkg/config"
)

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "recophone",
		ExpirationMinutes: 30,
	}
	now := time.Now().UTC()

	token, err := MintSessionToken(cfg, now, SessionTokenPayload{Username: "admin"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}

	if claims.Username != "admin" {
		t.Fatalf("expected username admin, got %s", claims.Username)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Fatal("expected a generated jti")
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestParseSessionTokenInvalidSignature(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "recophone",
		ExpirationMinutes: 10,
	}

	token, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{Username: "admin"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	if _, err := ParseSessionToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseSessionTokenExpired(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "recophone",
		ExpirationMinutes: 15,
	}
	now := time.Now().Add(-time.Hour)

	token, err := MintSessionToken(cfg, now, SessionTokenPayload{Username: "admin"})
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	_, err = ParseSessionToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMintSessionTokenMissingUsername(t *testing.T) {
	cfg := config.JWTConfig{
		Secret:            "secret",
		Issuer:            "recophone",
		ExpirationMinutes: 5,
	}

	if _, err := MintSessionToken(cfg, time.Now(), SessionTokenPayload{}); err == nil {
		t.Fatal("expected missing username error")
	}
}

func TestSessionCookieShape(t *testing.T) {
	cookie := SessionCookie("tok", 7*24*time.Hour, true)
	if cookie.Name != SessionCookieName {
		t.Fatalf("unexpected cookie name %s", cookie.Name)
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Fatal("session cookie must be http-only and secure")
	}
	if cookie.MaxAge != int((7 * 24 * time.Hour).Seconds()) {
		t.Fatalf("unexpected max age %d", cookie.MaxAge)
	}

	cleared := ClearedSessionCookie(true)
	if cleared.MaxAge != -1 || cleared.Value != "" {
		t.Fatal("cleared cookie must expire immediately")
	}
}
