package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/pkg/api"
	"github.com/google/uuid"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
)

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r.Context())

		log := s.log.With(
			slog.String("request_id", requestID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("user_agent", r.UserAgent()),
		)
		log.Info("request started")

		t1 := time.Now()

		next.ServeHTTP(w, r)

		log.Info("request completed",
			slog.String("duration", time.Since(t1).String()),
		)
	})
}

type contextKey string

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = contextKey("requestID")
	callerKey       = contextKey("caller")
)

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, requestID)

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}

	return ""
}

// authenticate resolves the bearer token into a caller. Requests without a
// token continue as anonymous; a token that does not verify is rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "internal.transport.http.authenticate"

		token, err := bearerToken(r)
		if err != nil {
			s.handleServiceError(w, r, op, err)
			return
		}

		caller, err := s.auth.Authenticate(r.Context(), token, clientIP(r))
		if err != nil {
			s.handleServiceError(w, r, op, err)
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, caller)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", apperrors.ErrUnauthenticated)
	}

	return strings.TrimSpace(token), nil
}

// clientIP expects chi's RealIP middleware to have rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

func callerFromContext(ctx context.Context) domain.Caller {
	if caller, ok := ctx.Value(callerKey).(domain.Caller); ok {
		return caller
	}

	return domain.Caller{}
}

// newFlagLimit wraps the limiter in its net/http middleware. Authenticated
// callers are counted per account, everyone else per address.
func (s *Server) newFlagLimit() *stdlib.Middleware {
	if s.flagLimiter == nil {
		return nil
	}

	return stdlib.NewMiddleware(s.flagLimiter,
		stdlib.WithKeyGetter(func(r *http.Request) string {
			if caller := callerFromContext(r.Context()); !caller.IsAnonymous() {
				return fmt.Sprintf("user:%d", caller.UserID)
			}

			return "ip:" + clientIP(r)
		}),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, _ *http.Request) {
			s.respondAPIError(w, http.StatusTooManyRequests, api.RATELIMITED,
				"Request was throttled.", nil)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			s.handleServiceError(w, r, "internal.transport.http.flagLimit", err)
		}),
	)
}

// limitFlags runs after routing, so it can apply the limiter to the flag route only.
func (s *Server) limitFlags(next http.Handler) http.Handler {
	if s.flagLimit == nil {
		return next
	}

	limited := s.flagLimit.Handler(next)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(routePattern(r), "/flag/") {
			next.ServeHTTP(w, r)
			return
		}

		limited.ServeHTTP(w, r)
	})
}
