package handler

import (
	"fmt"
	"net/http"

	"github.com/jobreel/job-board/internal/apierror"
	"github.com/jobreel/job-board/internal/authz"
	"github.com/jobreel/job-board/internal/middleware"
	"github.com/jobreel/job-board/internal/server"
	"github.com/jobreel/job-board/internal/user"
)

type envelope map[string]interface{}

// E wraps a fallible handler so every failure flows through the one
// translator and comes back as the uniform error body.
func E(svr server.Server, fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(svr, w, err)
		}
	}
}

// WriteError translates err and serialises the error envelope. Outside
// production the raw error and its stack are included for debugging.
func WriteError(svr server.Server, w http.ResponseWriter, err error) {
	env := svr.GetConfig().Env
	apiErr := apierror.Translate(err, env)
	if apiErr.Status >= http.StatusInternalServerError {
		svr.Log(err, "request failed")
	}
	body := envelope{"success": false, "message": apiErr.Message}
	if env != "prod" {
		body["error"] = err.Error()
		body["stack"] = fmt.Sprintf("%+v", err)
	}
	svr.JSON(w, apiErr.Status, body)
}

type userFinder interface {
	UserByID(id string) (user.User, error)
}

// Authenticated gates a handler behind the token check, resolving the
// caller before the handler runs.
func Authenticated(svr server.Server, users userFinder, next http.HandlerFunc) http.HandlerFunc {
	writeErr := func(w http.ResponseWriter, err error) {
		WriteError(svr, w, err)
	}
	return middleware.AuthenticatedMiddleware(svr.SessionStore, svr.GetJWTSigningKey(), users, writeErr, next)
}

func caller(r *http.Request) (user.User, error) {
	u, ok := middleware.UserFromContext(r.Context())
	if !ok {
		return user.User{}, apierror.Unauthenticated("please sign in to proceed")
	}
	return u, nil
}

func requireRole(u user.User, permitted ...string) error {
	if d := authz.CheckRole(u.Role, permitted...); !d.Allowed {
		return apierror.Forbidden(d.Reason)
	}
	return nil
}

func requireOwnership(u user.User, ownerID, action string) error {
	if d := authz.CheckOwnership(u.ID, u.Name, u.Role, ownerID, action); !d.Allowed {
		return apierror.Forbidden(d.Reason)
	}
	return nil
}

// NotFoundHandler answers unmatched routes with the error envelope.
func NotFoundHandler(svr server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svr.JSON(w, http.StatusNotFound, envelope{
			"success": false,
			"message": fmt.Sprintf("%s route not found", r.URL.Path),
		})
	}
}
