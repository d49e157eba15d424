package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/stockledger-backend/api/responses"
	pkgerrors "github.com/angelmondragon/stockledger-backend/pkg/errors"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
)

const rateLimitKeyPrefix = "stockledger:ratelimit"

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy is a fixed-window budget for one credential surface,
// counted per client IP and per normalized email.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy. A zero window or both limits at zero
// disables it; a zero limit disables only that dimension.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	return AuthRateLimitPolicy{
		name:       name,
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

// rateRule is one counted dimension. subject extracts the value counted for a
// request; an empty subject is not counted.
type rateRule struct {
	scope   string
	limit   int64
	subject func(r *http.Request, body []byte) string
}

func (p AuthRateLimitPolicy) rules() []rateRule {
	var out []rateRule
	if p.ipLimit > 0 {
		out = append(out, rateRule{
			scope: "ip",
			limit: int64(p.ipLimit),
			subject: func(r *http.Request, _ []byte) string {
				return clientIP(r)
			},
		})
	}
	if p.emailLimit > 0 {
		out = append(out, rateRule{
			scope: "email",
			limit: int64(p.emailLimit),
			subject: func(_ *http.Request, body []byte) string {
				if email := normalizeEmail(extractEmail(body)); email != "" {
					return hashValue(email)
				}
				return ""
			},
		})
	}
	return out
}

func (p AuthRateLimitPolicy) key(scope, subject string) string {
	return strings.Join([]string{rateLimitKeyPrefix, p.name, scope, subject}, ":")
}

func (p AuthRateLimitPolicy) needsBody() bool {
	return p.emailLimit > 0
}

// AuthRateLimit rejects requests once any dimension of the policy exceeds its
// budget inside the current window. Counter failures surface as 503.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		rules := policy.rules()

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.needsBody() {
				var err error
				body, err = io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, rule := range rules {
				subject := rule.subject(r, body)
				if subject == "" {
					continue
				}
				count, err := store.IncrWithTTL(ctx, policy.key(rule.scope, subject), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > rule.limit {
					rejectRateLimited(ctx, logg, w, policy, rule, subject, count)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rejectRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy AuthRateLimitPolicy, rule rateRule, subject string, count int64) {
	retryAfter := int(policy.window.Seconds())
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"policy":         policy.name,
			"scope":          rule.scope,
			"subject":        subject,
			"attempts":       count,
			"limit":          rule.limit,
			"window_seconds": retryAfter,
		}), "auth.rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, try again later").
		WithDetails(map[string]any{"scope": rule.scope, "retry_after_seconds": retryAfter})
	responses.WriteError(ctx, nil, w, err)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer.
func clientIP(r *http.Request) string {
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
