package handler

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"

	"github.com/jobreel/job-board/internal/apierror"
	"github.com/jobreel/job-board/internal/middleware"
	"github.com/jobreel/job-board/internal/server"
	"github.com/jobreel/job-board/internal/user"
)

type userCreator interface {
	CreateUser(name, email, passwordHash, role string) (user.User, error)
}

type userByEmailer interface {
	UserByEmail(email string) (user.User, error)
}

type resetTokenSaver interface {
	userByEmailer
	SaveResetToken(id, tokenHash string, expiresAt time.Time) error
	ClearResetToken(id string) error
}

type passwordResetter interface {
	UserByResetToken(tokenHash string) (user.User, error)
	UpdatePassword(id, passwordHash string) error
}

type resetMailer interface {
	SendResetPasswordLink(to, resetURL string) error
}

// issueToken signs a fresh JWT for u, stores it in the session cookie and
// writes the success envelope.
func issueToken(svr server.Server, w http.ResponseWriter, r *http.Request, u user.User) error {
	cfg := svr.GetConfig()
	now := time.Now()
	claims := &middleware.UserJWT{
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.AddDate(0, 0, cfg.TokenExpiryDays).Unix(),
		},
	}
	tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.JwtSigningKey)
	if err != nil {
		return err
	}
	sess, err := svr.SessionStore.Get(r, middleware.SessionName)
	if err == nil {
		sess.Values["jwt"] = tk
		if err := sess.Save(r, w); err != nil {
			svr.Log(err, "unable to save session cookie")
		}
	}
	svr.JSON(w, http.StatusOK, envelope{"success": true, "token": tk, "data": u})
	return nil
}

func RegisterHandler(svr server.Server, users userCreator) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		var rq struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			return apierror.InvalidRequest("invalid request body")
		}
		if strings.TrimSpace(rq.Name) == "" {
			return apierror.InvalidRequest("please enter your name")
		}
		if !svr.IsEmail(rq.Email) {
			return apierror.InvalidRequest("please enter a valid email address")
		}
		if len(rq.Password) < user.MinPasswordLength {
			return apierror.InvalidRequest(fmt.Sprintf("your password must be at least %d characters long", user.MinPasswordLength))
		}
		if rq.Role == "" {
			rq.Role = user.RoleUser
		}
		if !user.ValidRole(rq.Role) || rq.Role == user.RoleAdmin {
			return apierror.InvalidRequest("please select a valid role")
		}
		passwordHash, err := user.HashPassword(rq.Password)
		if err != nil {
			return err
		}
		u, err := users.CreateUser(rq.Name, rq.Email, passwordHash, rq.Role)
		if err != nil {
			return err
		}
		return issueToken(svr, w, r, u)
	})
}

func LoginHandler(svr server.Server, users userByEmailer) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		var rq struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			return apierror.InvalidRequest("invalid request body")
		}
		if rq.Email == "" || rq.Password == "" {
			return apierror.InvalidRequest("please enter email & password")
		}
		u, err := users.UserByEmail(rq.Email)
		if err == sql.ErrNoRows {
			return apierror.Unauthenticated("invalid email or password")
		}
		if err != nil {
			return err
		}
		if !u.CheckPassword(rq.Password) {
			return apierror.Unauthenticated("invalid email or password")
		}
		return issueToken(svr, w, r, u)
	})
}

func LogoutHandler(svr server.Server) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		if _, err := caller(r); err != nil {
			return err
		}
		clearSession(svr, w, r)
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "logged out successfully"})
		return nil
	})
}

func clearSession(svr server.Server, w http.ResponseWriter, r *http.Request) {
	sess, err := svr.SessionStore.Get(r, middleware.SessionName)
	if err != nil {
		return
	}
	delete(sess.Values, "jwt")
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		svr.Log(err, "unable to clear session cookie")
	}
}

// ForgotPasswordHandler mails a reset link. Only the sha256 hash of the
// token is stored, and a failed send clears it again so no orphaned token
// stays usable.
func ForgotPasswordHandler(svr server.Server, users resetTokenSaver, mailer resetMailer) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		var rq struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			return apierror.InvalidRequest("invalid request body")
		}
		u, err := users.UserByEmail(rq.Email)
		if err == sql.ErrNoRows {
			return apierror.NotFound("no user found with this email")
		}
		if err != nil {
			return err
		}
		raw := make([]byte, 20)
		if _, err := rand.Read(raw); err != nil {
			return err
		}
		token := hex.EncodeToString(raw)
		hash := sha256.Sum256([]byte(token))
		cfg := svr.GetConfig()
		expiresAt := time.Now().Add(time.Duration(cfg.ResetTokenExpiryMin) * time.Minute)
		if err := users.SaveResetToken(u.ID, hex.EncodeToString(hash[:]), expiresAt); err != nil {
			return err
		}
		resetURL := fmt.Sprintf("%s://%s/api/v1/password/reset/%s", cfg.URLProtocol, cfg.SiteHost, token)
		if err := mailer.SendResetPasswordLink(u.Email, resetURL); err != nil {
			svr.Log(err, "unable to send password reset email")
			if clearErr := users.ClearResetToken(u.ID); clearErr != nil {
				svr.Log(clearErr, "unable to clear reset token after failed send")
			}
			return apierror.Internal(err)
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": fmt.Sprintf("email sent successfully to: %s", u.Email)})
		return nil
	})
}

func ResetPasswordHandler(svr server.Server, users passwordResetter) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		token := mux.Vars(r)["token"]
		hash := sha256.Sum256([]byte(token))
		u, err := users.UserByResetToken(hex.EncodeToString(hash[:]))
		if err == sql.ErrNoRows {
			return apierror.InvalidRequest("password reset token is invalid or has expired")
		}
		if err != nil {
			return err
		}
		var rq struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			return apierror.InvalidRequest("invalid request body")
		}
		if len(rq.Password) < user.MinPasswordLength {
			return apierror.InvalidRequest(fmt.Sprintf("your password must be at least %d characters long", user.MinPasswordLength))
		}
		passwordHash, err := user.HashPassword(rq.Password)
		if err != nil {
			return err
		}
		if err := users.UpdatePassword(u.ID, passwordHash); err != nil {
			return err
		}
		return issueToken(svr, w, r, u)
	})
}
