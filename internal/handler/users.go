package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jobreel/job-board/internal/apierror"
	"github.com/jobreel/job-board/internal/job"
	"github.com/jobreel/job-board/internal/query"
	"github.com/jobreel/job-board/internal/server"
	"github.com/jobreel/job-board/internal/user"
)

type profileJobsGetter interface {
	JobsPublishedBy(userID string) ([]job.Job, error)
	JobsAppliedBy(userID string) ([]job.Job, error)
}

type profileUpdater interface {
	userFinder
	UpdateProfile(id, name, email string) error
}

type passwordChanger interface {
	userFinder
	UpdatePassword(id, passwordHash string) error
}

type userCascader interface {
	DeleteUserCascade(userID, role string) ([]string, error)
}

type adminCascader interface {
	userFinder
	userCascader
}

type userQuerier interface {
	UsersByQuery(q query.Query) ([]map[string]interface{}, int, error)
}

// MeHandler returns the caller's profile together with the jobs they
// published or applied to, depending on role.
func MeHandler(svr server.Server, jobRepo profileJobsGetter) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		data := envelope{"user": u}
		switch u.Role {
		case user.RoleEmployer, user.RoleAdmin:
			published, err := jobRepo.JobsPublishedBy(u.ID)
			if err != nil {
				return err
			}
			data["jobsPublished"] = published
		default:
			applied, err := jobRepo.JobsAppliedBy(u.ID)
			if err != nil {
				return err
			}
			data["jobsApplied"] = applied
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "data": data})
		return nil
	})
}

func UpdateMeHandler(svr server.Server, users profileUpdater) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		var rq struct {
			Name  string `json:"name"`
			Email string `json:"email"`
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
		if err := users.UpdateProfile(u.ID, rq.Name, rq.Email); err != nil {
			return err
		}
		updated, err := users.UserByID(u.ID)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "data": updated})
		return nil
	})
}

// DeleteMeHandler removes the caller's account with everything hanging off
// it, then clears the session. Resume files are removed best effort once
// the rows are gone.
func DeleteMeHandler(svr server.Server, users userCascader, store resumeStore) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		resumes, err := users.DeleteUserCascade(u.ID, u.Role)
		if err != nil {
			return err
		}
		removeResumes(svr, store, resumes)
		clearSession(svr, w, r)
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "your account has been deleted"})
		return nil
	})
}

func PasswordChangeHandler(svr server.Server, users passwordChanger) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		var rq struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&rq); err != nil {
			return apierror.InvalidRequest("invalid request body")
		}
		if !u.CheckPassword(rq.CurrentPassword) {
			return apierror.Unauthenticated("current password is incorrect")
		}
		if len(rq.NewPassword) < user.MinPasswordLength {
			return apierror.InvalidRequest(fmt.Sprintf("your password must be at least %d characters long", user.MinPasswordLength))
		}
		passwordHash, err := user.HashPassword(rq.NewPassword)
		if err != nil {
			return err
		}
		if err := users.UpdatePassword(u.ID, passwordHash); err != nil {
			return err
		}
		return issueToken(svr, w, r, u)
	})
}

func AppliedJobsHandler(svr server.Server, jobRepo profileJobsGetter) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleUser); err != nil {
			return err
		}
		jobs, err := jobRepo.JobsAppliedBy(u.ID)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "results": len(jobs), "data": jobs})
		return nil
	})
}

func PublishedJobsHandler(svr server.Server, jobRepo profileJobsGetter) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleEmployer, user.RoleAdmin); err != nil {
			return err
		}
		jobs, err := jobRepo.JobsPublishedBy(u.ID)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "results": len(jobs), "data": jobs})
		return nil
	})
}

func UsersHandler(svr server.Server, users userQuerier) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleAdmin); err != nil {
			return err
		}
		q := query.FromValues(r.URL.Query())
		rows, total, err := users.UsersByQuery(q)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "results": total, "data": rows})
		return nil
	})
}

func AdminDeleteUserHandler(svr server.Server, users adminCascader, store resumeStore) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleAdmin); err != nil {
			return err
		}
		targetID := mux.Vars(r)["id"]
		target, err := users.UserByID(targetID)
		if err == sql.ErrNoRows {
			return apierror.NotFound(fmt.Sprintf("user not found with id: %s", targetID))
		}
		if err != nil {
			return err
		}
		resumes, err := users.DeleteUserCascade(target.ID, target.Role)
		if err != nil {
			return err
		}
		removeResumes(svr, store, resumes)
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "user deleted by admin successfully"})
		return nil
	})
}
