package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/jobreel/job-board/internal/config"
	"github.com/jobreel/job-board/internal/email"
	"github.com/jobreel/job-board/internal/geocoder"
	"github.com/jobreel/job-board/internal/job"
	"github.com/jobreel/job-board/internal/server"
	"github.com/jobreel/job-board/internal/user"
)

func testServer(t *testing.T) server.Server {
	t.Helper()
	cfg := config.Config{
		Port:            "8080",
		Env:             "dev",
		SessionKey:      []byte("test-session-key"),
		JwtSigningKey:   []byte("test-signing-key"),
		TokenExpiryDays: 7,
		MaxResumeSize:   2 << 20,
		SiteName:        "Job Board",
		SiteHost:        "jobs.example.com",
		URLProtocol:     "https",
		SupportEmail:    "support@jobs.example.com",
	}
	return server.NewServer(cfg, nil, mux.NewRouter(), email.Client{}, geocoder.Geocoder{}, sessions.NewCookieStore(cfg.SessionKey))
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

type fakeUserStore struct {
	byEmail  map[string]user.User
	byID     map[string]user.User
	cascaded []string
	nextID   int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: map[string]user.User{}, byID: map[string]user.User{}}
}

func (s *fakeUserStore) add(u user.User) {
	s.byEmail[u.Email] = u
	s.byID[u.ID] = u
}

func (s *fakeUserStore) CreateUser(name, email, passwordHash, role string) (user.User, error) {
	s.nextID++
	u := user.User{ID: fmt.Sprintf("u%d", s.nextID), Name: name, Email: email, PasswordHash: passwordHash, Role: role, CreatedAt: time.Now()}
	s.add(u)
	return u, nil
}

func (s *fakeUserStore) UserByEmail(email string) (user.User, error) {
	u, ok := s.byEmail[email]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) UserByID(id string) (user.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return user.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (s *fakeUserStore) DeleteUserCascade(userID, role string) ([]string, error) {
	s.cascaded = append(s.cascaded, userID)
	delete(s.byID, userID)
	return []string{"Jane_j1.pdf"}, nil
}

type fakeJobRepo struct {
	jobs            map[string]job.Job
	applicants      map[string][]job.Applicant
	deleted         []string
	resumesOnDelete []string
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]job.Job{}, applicants: map[string][]job.Applicant{}}
}

func (f *fakeJobRepo) JobByID(jobID string) (job.Job, error) {
	j, ok := f.jobs[jobID]
	if !ok {
		return job.Job{}, sql.ErrNoRows
	}
	return j, nil
}

func (f *fakeJobRepo) JobByIDAndSlug(jobID, jobSlug string) (job.Job, error) {
	j, ok := f.jobs[jobID]
	if !ok || j.Slug != jobSlug {
		return job.Job{}, sql.ErrNoRows
	}
	return j, nil
}

func (f *fakeJobRepo) CreateJob(rq *job.JobRq, geo job.Geo, userID string) (job.Job, error) {
	j := job.Job{
		ID:          "j1",
		Title:       rq.Title,
		Slug:        "slugified-title",
		Company:     rq.Company,
		Location:    geo,
		Positions:   rq.Positions,
		Salary:      rq.Salary,
		PostingDate: time.Now(),
		LastDate:    time.Now().Add(job.DefaultApplicationWindow),
		UserID:      userID,
	}
	f.jobs[j.ID] = j
	return j, nil
}

func (f *fakeJobRepo) UpdateJob(jobID string, rq *job.JobRq, geo job.Geo) (job.Job, error) {
	j := f.jobs[jobID]
	j.Title = rq.Title
	j.Location = geo
	f.jobs[jobID] = j
	return j, nil
}

func (f *fakeJobRepo) DeleteJobCascade(jobID string) ([]string, error) {
	f.deleted = append(f.deleted, jobID)
	delete(f.jobs, jobID)
	return f.resumesOnDelete, nil
}

func (f *fakeJobRepo) HasApplied(jobID, userID string) (bool, error) {
	for _, a := range f.applicants[jobID] {
		if a.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeJobRepo) SaveApplicant(jobID, userID, resume string) error {
	f.applicants[jobID] = append(f.applicants[jobID], job.Applicant{UserID: userID, Resume: resume, AppliedAt: time.Now()})
	return nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Geocode(address string) (job.Geo, error) {
	return job.Geo{Latitude: 40.7, Longitude: -74.0, City: "New York", Country: "US"}, nil
}

func (fakeGeocoder) GeocodeZip(zipcode string) (job.Geo, error) {
	return job.Geo{Latitude: 40.7, Longitude: -74.0}, nil
}

type fakeResumeStore struct {
	saved   []string
	removed []string
}

func (f *fakeResumeStore) Validate(originalName string, size int64) error { return nil }

func (f *fakeResumeStore) Save(filename string, src io.Reader) error {
	f.saved = append(f.saved, filename)
	return nil
}

func (f *fakeResumeStore) Remove(filename string) error {
	f.removed = append(f.removed, filename)
	return nil
}
