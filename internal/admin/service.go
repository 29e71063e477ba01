package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recophone/recophone-backend/pkg/auth"
	"github.com/recophone/recophone-backend/pkg/config"
	pkgerrors "github.com/recophone/recophone-backend/pkg/errors"
	"github.com/recophone/recophone-backend/pkg/logger"
	"github.com/recophone/recophone-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// LoginRequest carries the admin panel credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the minted session.
type LoginResult struct {
	Token     string    `json:"-"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service defines the behavior needed by the admin controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest, clientIP string) (*LoginResult, error)
	ListQuotes(ctx context.Context, params ListQuotesParams) (*QuoteList, error)
	GetQuote(ctx context.Context, quoteNumber string) (*QuoteSummary, error)
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type service struct {
	adminCfg config.AdminConfig
	jwtCfg   config.JWTConfig
	limitCfg config.LoginRateLimitConfig
	limiter  rateLimiter
	quotes   quoteLister
	logg     *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the dependencies required to build the admin service.
type ServiceParams struct {
	AdminConfig     config.AdminConfig
	JWTConfig       config.JWTConfig
	RateLimitConfig config.LoginRateLimitConfig
	RateLimiter     rateLimiter
	Quotes          quoteLister
	Logger          *logger.Logger
	Now             func() time.Time
}

// NewService constructs the admin service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.RateLimiter == nil {
		return nil, fmt.Errorf("rate limiter is required")
	}
	if params.Quotes == nil {
		return nil, fmt.Errorf("quote repository is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		adminCfg: params.AdminConfig,
		jwtCfg:   params.JWTConfig,
		limitCfg: params.RateLimitConfig,
		limiter:  params.RateLimiter,
		quotes:   params.Quotes,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// Login verifies the single configured admin account. Every failure mode
// answers with the same generic message so the endpoint leaks nothing
// about which part was wrong. Attempts are rate limited per source IP
// before any verification work happens.
func (s *service) Login(ctx context.Context, req LoginRequest, clientIP string) (*LoginResult, error) {
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:ip:"+clientIP, int64(s.limitCfg.IPLimit), s.limitCfg.Window)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "login rate limit")
	}
	if !allowed {
		s.logg.Warn(s.logg.WithField(ctx, "ip", clientIP), "login rate limit hit")
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
	}

	if !strings.EqualFold(strings.TrimSpace(req.Username), s.adminCfg.Username) {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	hash := security.DecodeEnvHash(s.adminCfg.PasswordHash)
	ok, err := security.VerifyPassword(req.Password, hash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now()
	token, err := auth.MintSessionToken(s.jwtCfg, now, auth.SessionTokenPayload{Username: s.adminCfg.Username})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	s.logg.Info(s.logg.WithField(ctx, "ip", clientIP), "admin logged in")
	return &LoginResult{
		Token:     token,
		Username:  s.adminCfg.Username,
		ExpiresAt: now.Add(s.jwtCfg.Expiration()),
	}, nil
}

func (s *service) ListQuotes(ctx context.Context, params ListQuotesParams) (*QuoteList, error) {
	return s.quotes.List(ctx, params.normalized())
}

func (s *service) GetQuote(ctx context.Context, quoteNumber string) (*QuoteSummary, error) {
	if strings.TrimSpace(quoteNumber) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quote number is required")
	}
	return s.quotes.Get(ctx, quoteNumber)
}
