package admin

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/recophone/recophone-backend/pkg/auth"
	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
	"github.com/recophone/recophone-backend/pkg/security"
)

// Wall-clock based: ParseSessionToken validates expiry against the real
// clock, so a fixed past date would mint tokens that are already dead.
var testNow = time.Now().UTC().Truncate(time.Second)

type fakeLimiter struct {
	calls  map[string]int64
	limit  int64
	denied bool
}

func newFakeLimiter(limit int64) *fakeLimiter {
	return &fakeLimiter{calls: map[string]int64{}, limit: limit}
}

func (f *fakeLimiter) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	f.calls[scope]++
	if f.denied {
		return false, f.calls[scope], nil
	}
	return f.calls[scope] <= limit, f.calls[scope], nil
}

type fakeQuotes struct {
	list *QuoteList
	got  string
}

func (f *fakeQuotes) List(_ context.Context, params ListQuotesParams) (*QuoteList, error) {
	if f.list == nil {
		return &QuoteList{Page: params.Page, PerPage: params.PerPage, Items: []QuoteSummary{}}, nil
	}
	return f.list, nil
}

func (f *fakeQuotes) Get(_ context.Context, quoteNumber string) (*QuoteSummary, error) {
	f.got = quoteNumber
	return &QuoteSummary{QuoteNumber: quoteNumber}, nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "recophone-test",
		ExpirationMinutes: 60,
	}
}

func newTestService(t *testing.T, limiter *fakeLimiter) (Service, *fakeQuotes) {
	t.Helper()
	hash, err := security.HashPassword("s3cret-password", config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	quotes := &fakeQuotes{}
	svc, err := NewService(ServiceParams{
		AdminConfig:     config.AdminConfig{Username: "gerant", PasswordHash: hash},
		JWTConfig:       testJWTConfig(),
		RateLimitConfig: config.LoginRateLimitConfig{Window: 15 * time.Minute, IPLimit: 5},
		RateLimiter:     limiter,
		Quotes:          quotes,
		Logger:          logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Now:             func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, quotes
}

func TestLoginIssuesSessionToken(t *testing.T) {
	svc, _ := newTestService(t, newFakeLimiter(5))

	result, err := svc.Login(context.Background(), LoginRequest{Username: "gerant", Password: "s3cret-password"}, "1.2.3.4")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token == "" {
		t.Fatal("no token minted")
	}
	if !result.ExpiresAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("expiry = %v", result.ExpiresAt)
	}

	claims, err := auth.ParseSessionToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Username != "gerant" {
		t.Fatalf("claims username = %q", claims.Username)
	}
}

func TestLoginUsernameIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t, newFakeLimiter(5))

	if _, err := svc.Login(context.Background(), LoginRequest{Username: "  GERANT ", Password: "s3cret-password"}, "1.2.3.4"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	svc, _ := newTestService(t, newFakeLimiter(5))
	ctx := context.Background()

	cases := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong user", LoginRequest{Username: "intrus", Password: "s3cret-password"}},
		{"wrong password", LoginRequest{Username: "gerant", Password: "guess"}},
		{"empty password", LoginRequest{Username: "gerant"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.req, "1.2.3.4")
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("expected unauthorized, got %v", err)
			}
			if appErr.Error() == "" || appErr.Code() != pkgerrors.CodeUnauthorized {
				t.Fatalf("unexpected error shape %v", appErr)
			}
		})
	}
}

func TestLoginRateLimitedPerIP(t *testing.T) {
	limiter := newFakeLimiter(5)
	svc, _ := newTestService(t, limiter)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, LoginRequest{Username: "gerant", Password: "wrong"}, "9.9.9.9")
	}
	_, err := svc.Login(ctx, LoginRequest{Username: "gerant", Password: "s3cret-password"}, "9.9.9.9")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit, got %v", err)
	}

	// A different IP is unaffected.
	if _, err := svc.Login(ctx, LoginRequest{Username: "gerant", Password: "s3cret-password"}, "8.8.8.8"); err != nil {
		t.Fatalf("other ip blocked: %v", err)
	}

	if limiter.calls["login:ip:9.9.9.9"] != 6 {
		t.Fatalf("limiter calls = %d", limiter.calls["login:ip:9.9.9.9"])
	}
}

func TestListQuotesNormalizesParams(t *testing.T) {
	svc, _ := newTestService(t, newFakeLimiter(5))

	list, err := svc.ListQuotes(context.Background(), ListQuotesParams{Page: -1, PerPage: 1000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list.Page != 1 || list.PerPage != maxPerPage {
		t.Fatalf("normalized page/perPage = %d/%d", list.Page, list.PerPage)
	}
}

func TestGetQuoteRequiresNumber(t *testing.T) {
	svc, quotes := newTestService(t, newFakeLimiter(5))

	_, err := svc.GetQuote(context.Background(), "  ")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := svc.GetQuote(context.Background(), "Q-1"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if quotes.got != "Q-1" {
		t.Fatalf("repo got %q", quotes.got)
	}
}
