package handler

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/gorilla/feeds"
	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jobreel/job-board/internal/apierror"
	"github.com/jobreel/job-board/internal/job"
	"github.com/jobreel/job-board/internal/query"
	"github.com/jobreel/job-board/internal/resume"
	"github.com/jobreel/job-board/internal/server"
	"github.com/jobreel/job-board/internal/user"
)

type jobQuerier interface {
	JobsByQuery(q query.Query) ([]map[string]interface{}, int, error)
}

type jobGetter interface {
	JobByID(jobID string) (job.Job, error)
}

type jobCreator interface {
	CreateJob(rq *job.JobRq, geo job.Geo, userID string) (job.Job, error)
}

type jobUpdater interface {
	jobGetter
	UpdateJob(jobID string, rq *job.JobRq, geo job.Geo) (job.Job, error)
}

type jobDeleter interface {
	jobGetter
	DeleteJobCascade(jobID string) ([]string, error)
}

type jobApplier interface {
	jobGetter
	HasApplied(jobID, userID string) (bool, error)
	SaveApplicant(jobID, userID, resume string) error
}

type jobBySlugGetter interface {
	JobByIDAndSlug(jobID, jobSlug string) (job.Job, error)
}

type addressGeocoder interface {
	Geocode(address string) (job.Geo, error)
	GeocodeZip(zipcode string) (job.Geo, error)
}

type resumeStore interface {
	Validate(originalName string, size int64) error
	Save(filename string, src io.Reader) error
	Remove(filename string) error
}

var descriptionPolicy = bluemonday.UGCPolicy()

func ListJobsHandler(svr server.Server, jobRepo jobQuerier) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		q := query.FromValues(r.URL.Query())
		jobs, total, err := jobRepo.JobsByQuery(q)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{
			"success": true,
			"message": "get list jobs successfully",
			"total":   total,
			"data":    jobs,
		})
		return nil
	})
}

type latestJobsGetter interface {
	LatestJobs(max int) ([]job.Job, error)
}

// JobsFeedHandler serves an RSS feed of the latest postings, cached for the
// bigcache window to keep feed readers off the database.
func JobsFeedHandler(svr server.Server, jobRepo latestJobsGetter) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		if cached, ok := svr.CacheGet(server.CacheKeyLatestJobsFeed); ok {
			svr.XML(w, http.StatusOK, cached)
			return nil
		}
		jobs, err := jobRepo.LatestJobs(20)
		if err != nil {
			return err
		}
		cfg := svr.GetConfig()
		base := fmt.Sprintf("%s://%s", cfg.URLProtocol, cfg.SiteHost)
		feed := &feeds.Feed{
			Title:       fmt.Sprintf("%s Jobs", cfg.SiteName),
			Link:        &feeds.Link{Href: base},
			Description: fmt.Sprintf("Latest jobs on %s", cfg.SiteName),
			Author:      &feeds.Author{Name: cfg.SiteName, Email: cfg.SupportEmail},
			Created:     time.Now(),
		}
		for _, j := range jobs {
			feed.Items = append(feed.Items, &feeds.Item{
				Id:          j.ID,
				Title:       fmt.Sprintf("%s with %s - %s", j.Title, j.Company, j.Location.City),
				Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/v1/job/%s/%s", base, j.ID, j.Slug)},
				Description: descriptionPolicy.Sanitize(j.Description),
				Created:     j.PostingDate,
			})
		}
		rss, err := feed.ToRss()
		if err != nil {
			return err
		}
		if err := svr.CacheSet(server.CacheKeyLatestJobsFeed, []byte(rss)); err != nil {
			svr.Log(err, "unable to cache jobs feed")
		}
		svr.XML(w, http.StatusOK, []byte(rss))
		return nil
	})
}

func NewJobHandler(svr server.Server, jobRepo jobCreator, geo addressGeocoder) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleEmployer, user.RoleAdmin); err != nil {
			return err
		}
		rq, err := decodeJobRq(r)
		if err != nil {
			return err
		}
		loc, err := geo.Geocode(rq.Address)
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to geocode address %#v", rq.Address))
			return apierror.InvalidRequest("please enter a valid address")
		}
		j, err := jobRepo.CreateJob(rq, loc, u.ID)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "job created", "data": j})
		return nil
	})
}

func UpdateJobHandler(svr server.Server, jobRepo jobUpdater, geo addressGeocoder) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleEmployer, user.RoleAdmin); err != nil {
			return err
		}
		jobID := mux.Vars(r)["id"]
		existing, err := jobRepo.JobByID(jobID)
		if err == sql.ErrNoRows {
			return apierror.NotFound("job not found")
		}
		if err != nil {
			return err
		}
		if err := requireOwnership(u, existing.UserID, "update this job"); err != nil {
			return err
		}
		rq, err := decodeJobRq(r)
		if err != nil {
			return err
		}
		loc, err := geo.Geocode(rq.Address)
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to geocode address %#v", rq.Address))
			return apierror.InvalidRequest("please enter a valid address")
		}
		j, err := jobRepo.UpdateJob(jobID, rq, loc)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "job updated", "data": j})
		return nil
	})
}

// DeleteJobHandler removes a posting with its applicant rows, then cleans
// up the stored resumes. File removal failures are logged and swallowed,
// the rows are already gone.
func DeleteJobHandler(svr server.Server, jobRepo jobDeleter, store resumeStore) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleEmployer, user.RoleAdmin); err != nil {
			return err
		}
		jobID := mux.Vars(r)["id"]
		existing, err := jobRepo.JobByID(jobID)
		if err == sql.ErrNoRows {
			return apierror.NotFound("job not found")
		}
		if err != nil {
			return err
		}
		if err := requireOwnership(u, existing.UserID, "delete this job"); err != nil {
			return err
		}
		resumes, err := jobRepo.DeleteJobCascade(jobID)
		if err != nil {
			return err
		}
		removeResumes(svr, store, resumes)
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "job deleted"})
		return nil
	})
}

func removeResumes(svr server.Server, store resumeStore, resumes []string) {
	for _, filename := range resumes {
		if err := store.Remove(filename); err != nil {
			svr.Log(err, fmt.Sprintf("unable to remove resume %s", filename))
		}
	}
}

func JobByIDSlugHandler(svr server.Server, jobRepo jobBySlugGetter) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		vars := mux.Vars(r)
		j, err := jobRepo.JobByIDAndSlug(vars["id"], vars["slug"])
		if err == sql.ErrNoRows {
			return apierror.NotFound("job not found")
		}
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "job found", "data": j})
		return nil
	})
}

type radiusSearcher interface {
	JobsWithinRadius(latitude, longitude, miles float64) ([]job.Job, error)
}

func JobsInRadiusHandler(svr server.Server, jobRepo radiusSearcher, geo addressGeocoder) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		vars := mux.Vars(r)
		miles, err := strconv.ParseFloat(vars["distance"], 64)
		if err != nil || miles <= 0 {
			return apierror.InvalidRequest("please enter a valid distance in miles")
		}
		loc, err := geo.GeocodeZip(vars["zipcode"])
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to geocode zipcode %#v", vars["zipcode"]))
			return apierror.InvalidRequest("please enter a valid zipcode")
		}
		jobs, err := jobRepo.JobsWithinRadius(loc.Latitude, loc.Longitude, miles)
		if err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "total": len(jobs), "data": jobs})
		return nil
	})
}

// ApplyJobHandler runs the application checks in order and only reports
// success once the resume is on disk and the applicant row committed.
func ApplyJobHandler(svr server.Server, jobRepo jobApplier, store resumeStore) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		u, err := caller(r)
		if err != nil {
			return err
		}
		if err := requireRole(u, user.RoleUser); err != nil {
			return err
		}
		jobID := mux.Vars(r)["id"]
		j, err := jobRepo.JobByID(jobID)
		if err == sql.ErrNoRows {
			return apierror.NotFound("job not found")
		}
		if err != nil {
			return err
		}
		if j.LastDate.Before(time.Now()) {
			return apierror.InvalidRequest("you can not apply to this job, the last date to apply has passed")
		}
		applied, err := jobRepo.HasApplied(jobID, u.ID)
		if err != nil {
			return err
		}
		if applied {
			return apierror.InvalidRequest("you have already applied for this job")
		}
		maxSize := svr.GetConfig().MaxResumeSize
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return apierror.InvalidRequest("please upload a file")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return apierror.InvalidRequest("please upload a file")
		}
		defer file.Close()
		if err := store.Validate(header.Filename, header.Size); err != nil {
			return apierror.InvalidRequest(err.Error())
		}
		filename := resume.Filename(u.Name, jobID, header.Filename)
		if err := store.Save(filename, file); err != nil {
			return err
		}
		if err := jobRepo.SaveApplicant(jobID, u.ID, filename); err != nil {
			return err
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "message": "applied to job successfully", "data": filename})
		return nil
	})
}

type salaryAggregator interface {
	SalariesByTopic(topic string) ([]float64, int, error)
}

// JobStatsHandler aggregates salary figures for postings matching a topic.
// The id path segment is part of the route contract but plays no role in
// the aggregation.
func JobStatsHandler(svr server.Server, jobRepo salaryAggregator) http.HandlerFunc {
	return E(svr, func(w http.ResponseWriter, r *http.Request) error {
		topic := mux.Vars(r)["topic"]
		cacheKey := server.CacheKeyJobStatsPrefix + topic
		if cached, ok := svr.CacheGet(cacheKey); ok {
			var st job.Stats
			if err := json.Unmarshal(cached, &st); err == nil {
				svr.JSON(w, http.StatusOK, envelope{"success": true, "data": st})
				return nil
			}
		}
		salaries, sumPositions, err := jobRepo.SalariesByTopic(topic)
		if err != nil {
			return err
		}
		if len(salaries) == 0 {
			return apierror.NotFound("job not found")
		}
		sample := stats.Sample{Xs: salaries}
		min, max := sample.Bounds()
		st := job.Stats{
			TotalJobs:    len(salaries),
			SumPositions: sumPositions,
			AvgSalary:    sample.Mean(),
			MinSalary:    min,
			MaxSalary:    max,
		}
		if out, err := json.Marshal(st); err == nil {
			if err := svr.CacheSet(cacheKey, out); err != nil {
				svr.Log(err, "unable to cache job stats")
			}
		}
		svr.JSON(w, http.StatusOK, envelope{"success": true, "data": st})
		return nil
	})
}

func decodeJobRq(r *http.Request) (*job.JobRq, error) {
	rq := &job.JobRq{}
	if err := json.NewDecoder(r.Body).Decode(rq); err != nil {
		return nil, apierror.InvalidRequest("invalid request body")
	}
	if err := rq.Validate(); err != nil {
		return nil, apierror.InvalidRequest(err.Error())
	}
	rq.Description = descriptionPolicy.Sanitize(rq.Description)
	return rq, nil
}
