package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobreel/job-board/internal/job"
	"github.com/jobreel/job-board/internal/user"
)

func authedRequest(t *testing.T, u user.User, method, target string, body *strings.Reader) *http.Request {
	t.Helper()
	if body == nil {
		body = strings.NewReader("")
	}
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Authorization", bearerFor(t, u))
	return r
}

func TestNewJobForbiddenForUserRole(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	applicant := user.User{ID: "u1", Name: "A", Email: "a@x.com", Role: user.RoleUser}
	users.add(applicant)
	jobs := newFakeJobRepo()

	h := Authenticated(svr, users, NewJobHandler(svr, jobs, fakeGeocoder{}))
	w := httptest.NewRecorder()
	h(w, authedRequest(t, applicant, http.MethodPost, "/api/v1/job/new", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "you are not allowed to use this resource", body["message"])
	assert.Empty(t, jobs.jobs)
}

func TestUpdateJobForbiddenForNonOwnerNamingCaller(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	other := user.User{ID: "u2", Name: "Mallory", Email: "m@x.com", Role: user.RoleEmployer}
	users.add(other)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", Title: "Go Developer", UserID: "u1"}

	h := Authenticated(svr, users, UpdateJobHandler(svr, jobs, fakeGeocoder{}))
	r := authedRequest(t, other, http.MethodPut, "/api/v1/job/j1", strings.NewReader(`{}`))
	r = mux.SetURLVars(r, map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h(w, r)

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "user Mallory is not allowed to update this job", body["message"])
}

func TestUpdateJobAllowedForAdmin(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	admin := user.User{ID: "u9", Name: "Root", Email: "root@x.com", Role: user.RoleAdmin}
	users.add(admin)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", Title: "Go Developer", UserID: "u1"}

	h := Authenticated(svr, users, UpdateJobHandler(svr, jobs, fakeGeocoder{}))
	r := authedRequest(t, admin, http.MethodPut, "/api/v1/job/j1", strings.NewReader(`{
		"title":"Senior Go Developer","description":"Build APIs","company":"Acme","address":"NYC",
		"industry":["Information Technology"],"jobType":"Full-Time","minEducation":"Bachelors",
		"positions":1,"experience":"1 Year","salary":120000}`))
	r = mux.SetURLVars(r, map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Senior Go Developer", jobs.jobs["j1"].Title)
}

func applyRequest(t *testing.T, u user.User, jobID, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPut, "/api/v1/job/"+jobID+"/apply", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	r.Header.Set("Authorization", bearerFor(t, u))
	return mux.SetURLVars(r, map[string]string{"id": jobID})
}

func TestApplyJobStoresResumeAndApplicant(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	applicant := user.User{ID: "u1", Name: "Jane Doe", Email: "j@x.com", Role: user.RoleUser}
	users.add(applicant)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", LastDate: time.Now().Add(24 * time.Hour)}
	store := &fakeResumeStore{}

	h := Authenticated(svr, users, ApplyJobHandler(svr, jobs, store))
	w := httptest.NewRecorder()
	h(w, applyRequest(t, applicant, "j1", "my resume.pdf", "pdf bytes"))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Jane_Doe_j1.pdf", body["data"])
	require.Len(t, store.saved, 1)
	assert.Equal(t, "Jane_Doe_j1.pdf", store.saved[0])
	require.Len(t, jobs.applicants["j1"], 1)
}

func TestApplyJobTwiceFailsWithoutNewApplicant(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	applicant := user.User{ID: "u1", Name: "Jane Doe", Email: "j@x.com", Role: user.RoleUser}
	users.add(applicant)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", LastDate: time.Now().Add(24 * time.Hour)}
	store := &fakeResumeStore{}

	h := Authenticated(svr, users, ApplyJobHandler(svr, jobs, store))
	w := httptest.NewRecorder()
	h(w, applyRequest(t, applicant, "j1", "resume.pdf", "pdf bytes"))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h(w, applyRequest(t, applicant, "j1", "resume.pdf", "pdf bytes"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "you have already applied for this job", body["message"])
	assert.Len(t, jobs.applicants["j1"], 1)
}

func TestApplyJobOverdueFails(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	applicant := user.User{ID: "u1", Name: "Jane", Email: "j@x.com", Role: user.RoleUser}
	users.add(applicant)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", LastDate: time.Now().Add(-time.Hour)}

	h := Authenticated(svr, users, ApplyJobHandler(svr, jobs, &fakeResumeStore{}))
	w := httptest.NewRecorder()
	h(w, applyRequest(t, applicant, "j1", "resume.pdf", "pdf bytes"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "you can not apply to this job, the last date to apply has passed", body["message"])
	assert.Empty(t, jobs.applicants["j1"])
}

func TestApplyJobMissingFileFails(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	applicant := user.User{ID: "u1", Name: "Jane", Email: "j@x.com", Role: user.RoleUser}
	users.add(applicant)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", LastDate: time.Now().Add(24 * time.Hour)}

	h := Authenticated(svr, users, ApplyJobHandler(svr, jobs, &fakeResumeStore{}))
	r := authedRequest(t, applicant, http.MethodPut, "/api/v1/job/j1/apply", strings.NewReader(""))
	r = mux.SetURLVars(r, map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "please upload a file", body["message"])
}

func TestDeleteJobRemovesResumeFiles(t *testing.T) {
	svr := testServer(t)
	users := newFakeUserStore()
	owner := user.User{ID: "u1", Name: "A", Email: "a@x.com", Role: user.RoleEmployer}
	users.add(owner)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", UserID: "u1"}
	jobs.resumesOnDelete = []string{"Jane_j1.pdf", "Bob_j1.docx"}
	store := &fakeResumeStore{}

	h := Authenticated(svr, users, DeleteJobHandler(svr, jobs, store))
	r := authedRequest(t, owner, http.MethodDelete, "/api/v1/job/j1", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "j1"})
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"j1"}, jobs.deleted)
	assert.Equal(t, []string{"Jane_j1.pdf", "Bob_j1.docx"}, store.removed)
}

func TestJobByIDSlugNotFoundOnMismatch(t *testing.T) {
	svr := testServer(t)
	jobs := newFakeJobRepo()
	jobs.jobs["j1"] = job.Job{ID: "j1", Slug: "go-developer"}

	h := JobByIDSlugHandler(svr, jobs)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/job/j1/wrong-slug", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "j1", "slug": "wrong-slug"})
	w := httptest.NewRecorder()
	h(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "job not found", body["message"])
}

type fakeSalaryRepo struct {
	salaries     []float64
	sumPositions int
}

func (f fakeSalaryRepo) SalariesByTopic(topic string) ([]float64, int, error) {
	return f.salaries, f.sumPositions, nil
}

func TestJobStatsAggregates(t *testing.T) {
	svr := testServer(t)
	h := JobStatsHandler(svr, fakeSalaryRepo{salaries: []float64{50000, 70000, 90000}, sumPositions: 6})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/stats/1/node", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "1", "topic": "node"})
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["totalJobs"])
	assert.Equal(t, float64(6), data["sumPositions"])
	assert.Equal(t, float64(70000), data["avgSalary"])
	assert.Equal(t, float64(50000), data["minSalary"])
	assert.Equal(t, float64(90000), data["maxSalary"])
}

func TestJobStatsNoMatchIs404(t *testing.T) {
	svr := testServer(t)
	h := JobStatsHandler(svr, fakeSalaryRepo{})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/stats/1/underwater-basket-weaving", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "1", "topic": "underwater-basket-weaving"})
	w := httptest.NewRecorder()
	h(w, r)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
