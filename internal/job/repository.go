package job

import (
	"database/sql"
	"time"

	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"github.com/segmentio/ksuid"

	"github.com/jobreel/job-board/internal/query"
)

const jobColumns = `id, title, slug, description, company, address, longitude, latitude, formatted_address, city, state, zipcode, country, industry, job_type, min_education, positions, experience, salary, posting_date, last_date, user_id, created_at`

// jobColumnsQualified disambiguates the select list when joining against
// the applicant table.
const jobColumnsQualified = `job.id, job.title, job.slug, job.description, job.company, job.address, job.longitude, job.latitude, job.formatted_address, job.city, job.state, job.zipcode, job.country, job.industry, job.job_type, job.min_education, job.positions, job.experience, job.salary, job.posting_date, job.last_date, job.user_id, job.created_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// TableSpec exposes the job listing to the query filter builder. The
// applicant list is secret: selected only on explicit request, rendered as
// a JSON aggregate off the applicant table.
func TableSpec() query.TableSpec {
	return query.TableSpec{
		Name: "job",
		Columns: map[string]string{
			"id":           "id",
			"title":        "title",
			"slug":         "slug",
			"description":  "description",
			"company":      "company",
			"address":      "address",
			"city":         "city",
			"state":        "state",
			"zipcode":      "zipcode",
			"country":      "country",
			"industry":     "industry",
			"jobType":      "job_type",
			"minEducation": "min_education",
			"positions":    "positions",
			"experience":   "experience",
			"salary":       "salary",
			"postingDate":  "posting_date",
			"lastDate":     "last_date",
			"user":         "user_id",
		},
		Secret: map[string]string{"applicants": "applicants"},
		SelectExpr: map[string]string{
			"industry":   `array_to_string(industry, ',')`,
			"applicants": `(SELECT coalesce(json_agg(json_build_object('user', a.user_id, 'resume', a.resume)), '[]') FROM applicant a WHERE a.job_id = job.id)`,
		},
		ArrayColumns: map[string]bool{"industry": true},
		Default: []string{
			"id", "title", "slug", "company", "city", "country", "industry",
			"jobType", "minEducation", "positions", "experience", "salary",
			"postingDate", "lastDate",
		},
		SearchVector: `to_tsvector('english', title || ' ' || description || ' ' || company)`,
		TieBreak:     "id",
	}
}

func (r *Repository) CreateJob(rq *JobRq, geo Geo, userID string) (Job, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return Job{}, err
	}
	now := time.Now().UTC()
	j := Job{
		ID:           id.String(),
		Title:        rq.Title,
		Slug:         slug.Make(rq.Title),
		Description:  rq.Description,
		Company:      rq.Company,
		Address:      rq.Address,
		Location:     geo,
		Industry:     rq.Industry,
		JobType:      rq.JobType,
		MinEducation: rq.MinEducation,
		Positions:    rq.Positions,
		Experience:   rq.Experience,
		Salary:       rq.Salary,
		PostingDate:  now,
		LastDate:     now.Add(DefaultApplicationWindow),
		UserID:       userID,
		CreatedAt:    now,
	}
	if j.Positions < 1 {
		j.Positions = 1
	}
	if rq.LastDate != "" {
		lastDate, err := time.Parse(time.RFC3339, rq.LastDate)
		if err != nil {
			return Job{}, err
		}
		j.LastDate = lastDate.UTC()
	}
	_, err = r.db.Exec(
		`INSERT INTO job (`+jobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		j.ID, j.Title, j.Slug, j.Description, j.Company, j.Address,
		j.Location.Longitude, j.Location.Latitude, j.Location.FormattedAddress,
		j.Location.City, j.Location.State, j.Location.Zipcode, j.Location.Country,
		pq.Array(j.Industry), j.JobType, j.MinEducation, j.Positions, j.Experience,
		j.Salary, j.PostingDate, j.LastDate, j.UserID, j.CreatedAt,
	)
	if err != nil {
		return Job{}, err
	}
	return j, nil
}

// UpdateJob persists a changed posting, deriving the slug and geolocation
// again since title and address may have changed. A last date in the payload
// moves the application deadline; an empty one keeps the stored deadline.
func (r *Repository) UpdateJob(jobID string, rq *JobRq, geo Geo) (Job, error) {
	newSlug := slug.Make(rq.Title)
	positions := rq.Positions
	if positions < 1 {
		positions = 1
	}
	var lastDate *time.Time
	if rq.LastDate != "" {
		parsed, err := time.Parse(time.RFC3339, rq.LastDate)
		if err != nil {
			return Job{}, err
		}
		utc := parsed.UTC()
		lastDate = &utc
	}
	_, err := r.db.Exec(
		`UPDATE job SET title = $1, slug = $2, description = $3, company = $4, address = $5, longitude = $6, latitude = $7, formatted_address = $8, city = $9, state = $10, zipcode = $11, country = $12, industry = $13, job_type = $14, min_education = $15, positions = $16, experience = $17, salary = $18, last_date = COALESCE($19, last_date) WHERE id = $20`,
		rq.Title, newSlug, rq.Description, rq.Company, rq.Address,
		geo.Longitude, geo.Latitude, geo.FormattedAddress, geo.City, geo.State,
		geo.Zipcode, geo.Country, pq.Array(rq.Industry), rq.JobType,
		rq.MinEducation, positions, rq.Experience, rq.Salary, lastDate, jobID,
	)
	if err != nil {
		return Job{}, err
	}
	return r.JobByID(jobID)
}

func (r *Repository) JobByID(jobID string) (Job, error) {
	return scanJob(r.db.QueryRow(`SELECT `+jobColumns+` FROM job WHERE id = $1`, jobID))
}

func (r *Repository) JobByIDAndSlug(jobID, jobSlug string) (Job, error) {
	return scanJob(r.db.QueryRow(`SELECT `+jobColumns+` FROM job WHERE id = $1 AND slug = $2`, jobID, jobSlug))
}

func scanJob(row *sql.Row) (Job, error) {
	j := Job{}
	err := row.Scan(
		&j.ID, &j.Title, &j.Slug, &j.Description, &j.Company, &j.Address,
		&j.Location.Longitude, &j.Location.Latitude, &j.Location.FormattedAddress,
		&j.Location.City, &j.Location.State, &j.Location.Zipcode, &j.Location.Country,
		pq.Array(&j.Industry), &j.JobType, &j.MinEducation, &j.Positions,
		&j.Experience, &j.Salary, &j.PostingDate, &j.LastDate, &j.UserID, &j.CreatedAt,
	)
	return j, err
}

func (r *Repository) scanJobs(rows *sql.Rows, err error) ([]Job, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	jobs := []Job{}
	for rows.Next() {
		j := Job{}
		if err := rows.Scan(
			&j.ID, &j.Title, &j.Slug, &j.Description, &j.Company, &j.Address,
			&j.Location.Longitude, &j.Location.Latitude, &j.Location.FormattedAddress,
			&j.Location.City, &j.Location.State, &j.Location.Zipcode, &j.Location.Country,
			pq.Array(&j.Industry), &j.JobType, &j.MinEducation, &j.Positions,
			&j.Experience, &j.Salary, &j.PostingDate, &j.LastDate, &j.UserID, &j.CreatedAt,
		); err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// JobsByQuery runs a composed retrieval request against the job listing.
func (r *Repository) JobsByQuery(q query.Query) ([]map[string]interface{}, int, error) {
	stmt := q.Build(TableSpec())
	rows, err := r.db.Query(stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, 0, err
	}
	return query.CollectRows(rows)
}

// JobsWithinRadius returns jobs whose stored coordinates fall within the
// given distance in miles of the point, by great-circle distance.
func (r *Repository) JobsWithinRadius(latitude, longitude, miles float64) ([]Job, error) {
	return r.scanJobs(r.db.Query(
		`SELECT `+jobColumns+` FROM job
		WHERE acos(least(1.0, sin(radians($1)) * sin(radians(latitude)) + cos(radians($1)) * cos(radians(latitude)) * cos(radians(longitude - $2)))) * 3963 <= $3
		ORDER BY posting_date ASC, id ASC`, latitude, longitude, miles))
}

func (r *Repository) JobsPublishedBy(userID string) ([]Job, error) {
	return r.scanJobs(r.db.Query(
		`SELECT `+jobColumns+` FROM job WHERE user_id = $1 ORDER BY posting_date ASC, id ASC`, userID))
}

func (r *Repository) JobsAppliedBy(userID string) ([]Job, error) {
	return r.scanJobs(r.db.Query(
		`SELECT `+jobColumnsQualified+` FROM job
		JOIN applicant a ON a.job_id = job.id AND a.user_id = $1
		ORDER BY a.created_at ASC, job.id ASC`, userID))
}

func (r *Repository) LatestJobs(max int) ([]Job, error) {
	return r.scanJobs(r.db.Query(
		`SELECT `+jobColumns+` FROM job ORDER BY posting_date DESC, id DESC LIMIT $1`, max))
}

func (r *Repository) HasApplied(jobID, userID string) (bool, error) {
	var c int
	if err := r.db.QueryRow(`SELECT count(*) FROM applicant WHERE job_id = $1 AND user_id = $2`, jobID, userID).Scan(&c); err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *Repository) SaveApplicant(jobID, userID, resume string) error {
	_, err := r.db.Exec(
		`INSERT INTO applicant (job_id, user_id, resume, created_at) VALUES ($1, $2, $3, $4)`,
		jobID, userID, resume, time.Now().UTC())
	return err
}

func (r *Repository) ApplicantsForJob(jobID string) ([]Applicant, error) {
	rows, err := r.db.Query(`SELECT user_id, resume, created_at FROM applicant WHERE job_id = $1 ORDER BY created_at ASC`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	applicants := []Applicant{}
	for rows.Next() {
		a := Applicant{}
		if err := rows.Scan(&a.UserID, &a.Resume, &a.AppliedAt); err != nil {
			return applicants, err
		}
		applicants = append(applicants, a)
	}
	return applicants, rows.Err()
}

// DeleteJobCascade removes a posting and its applicant rows in one
// transaction, returning the resume filenames for best-effort file cleanup.
func (r *Repository) DeleteJobCascade(jobID string) ([]string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(`SELECT resume FROM applicant WHERE job_id = $1`, jobID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	resumes := []string{}
	for rows.Next() {
		var resume string
		if err := rows.Scan(&resume); err != nil {
			rows.Close()
			tx.Rollback()
			return nil, err
		}
		resumes = append(resumes, resume)
	}
	if err := rows.Err(); err != nil {
		tx.Rollback()
		return nil, err
	}
	rows.Close()
	if _, err := tx.Exec(`DELETE FROM applicant WHERE job_id = $1`, jobID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := tx.Exec(`DELETE FROM job WHERE id = $1`, jobID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return resumes, nil
}

// SalariesByTopic returns the salary of every posting matching the topic
// by full text search, along with the positions sum across the matches.
func (r *Repository) SalariesByTopic(topic string) ([]float64, int, error) {
	rows, err := r.db.Query(
		`SELECT salary, positions FROM job
		WHERE to_tsvector('english', title || ' ' || description || ' ' || company) @@ plainto_tsquery($1)`, topic)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	salaries := []float64{}
	var sumPositions int
	for rows.Next() {
		var salary float64
		var positions int
		if err := rows.Scan(&salary, &positions); err != nil {
			return salaries, sumPositions, err
		}
		salaries = append(salaries, salary)
		sumPositions += positions
	}
	return salaries, sumPositions, rows.Err()
}
