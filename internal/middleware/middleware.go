package middleware

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jobreel/job-board/internal/apierror"
	"github.com/jobreel/job-board/internal/gzip"
	"github.com/jobreel/job-board/internal/user"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

const SessionName = "____jb"

func HTTPSMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" && r.Header.Get("X-Forwarded-Proto") != "https" {
			target := "https://" + r.Host + r.URL.Path
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
		logger.Info().
			Str("Host", r.Host).
			Str("method", r.Method).
			Stringer("url", r.URL).
			Str("x-forwarded-for", r.Header.Get("x-forwarded-for")).
			Msg("req")
		next.ServeHTTP(w, r)
	})
}

func HeadersMiddleware(next http.Handler, env string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env != "dev" {
			w.Header().Set("Content-Security-Policy", "upgrade-insecure-requests")
			w.Header().Set("X-Frame-Options", "deny")
			w.Header().Set("X-XSS-Protection", "1; mode=block")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			w.Header().Set("Referrer-Policy", "origin")
		}
		next.ServeHTTP(w, r)
	})
}

func GzipMiddleware(next http.Handler) http.Handler {
	return gzip.GzipHandler(next)
}

// UserJWT is the claims payload issued at login.
type UserJWT struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

type userFinder interface {
	UserByID(id string) (user.User, error)
}

type ctxKey int

const userCtxKey ctxKey = 0

// UserFromContext returns the identity attached by the authentication gate.
func UserFromContext(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userCtxKey).(user.User)
	return u, ok
}

// Token looks for a bearer token in the Authorization header first, then
// in the session cookie set at login.
func Token(r *http.Request, sessionStore *sessions.CookieStore) (string, bool) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), true
	}
	sess, err := sessionStore.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	tk, ok := sess.Values["jwt"].(string)
	if !ok || tk == "" {
		return "", false
	}
	return tk, true
}

// Authenticate resolves the request's token to a stored identity. A missing
// token is Unauthenticated, a bad or expired one surfaces the jwt error for
// the central translator.
func Authenticate(r *http.Request, sessionStore *sessions.CookieStore, jwtKey []byte, users userFinder) (user.User, error) {
	tk, ok := Token(r, sessionStore)
	if !ok {
		return user.User{}, apierror.Unauthenticated("please sign in to proceed")
	}
	token, err := jwt.ParseWithClaims(tk, &UserJWT{}, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return user.User{}, err
	}
	claims, ok := token.Claims.(*UserJWT)
	if !ok || !token.Valid {
		return user.User{}, apierror.Unauthenticated("please sign in to proceed")
	}
	u, err := users.UserByID(claims.UserID)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// AuthenticatedMiddleware gates a handler behind Authenticate and attaches
// the identity to the request context. Failures go through writeErr so the
// error body matches what the wrapped handlers produce.
func AuthenticatedMiddleware(sessionStore *sessions.CookieStore, jwtKey []byte, users userFinder, writeErr func(w http.ResponseWriter, err error), next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := Authenticate(r, sessionStore, jwtKey, users)
		if err != nil {
			writeErr(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userCtxKey, u)))
	})
}
