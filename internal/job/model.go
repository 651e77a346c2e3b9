package job

import (
	"fmt"
	"strings"
	"time"
)

const DefaultApplicationWindow = 7 * 24 * time.Hour

var Industries = []string{
	"Business",
	"Information Technology",
	"Banking",
	"Education/Training",
	"Telecomunication",
}

var JobTypes = []string{"Full-Time", "Part-Time"}

var MinEducations = []string{"Bachelors", "Masters", "Phd"}

var Experiences = []string{
	"Entry level",
	"1 Year",
	"2 Years",
	"3 Years",
	"4 Years",
	"5 Years +",
}

// Geo is the derived geolocation of a posting, recomputed from the address
// on every save.
type Geo struct {
	Longitude        float64 `json:"longitude"`
	Latitude         float64 `json:"latitude"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	Zipcode          string  `json:"zipcode,omitempty"`
	Country          string  `json:"country,omitempty"`
}

type Job struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Company      string    `json:"company"`
	Address      string    `json:"address"`
	Location     Geo       `json:"location"`
	Industry     []string  `json:"industry"`
	JobType      string    `json:"jobType"`
	MinEducation string    `json:"minEducation"`
	Positions    int       `json:"positions"`
	Experience   string    `json:"experience"`
	Salary       int64     `json:"salary"`
	PostingDate  time.Time `json:"postingDate"`
	LastDate     time.Time `json:"lastDate"`
	UserID       string    `json:"user"`
	CreatedAt    time.Time `json:"createdAt"`
}

// JobRq is the create/update payload for a posting.
type JobRq struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Company      string   `json:"company"`
	Address      string   `json:"address"`
	Industry     []string `json:"industry"`
	JobType      string   `json:"jobType"`
	MinEducation string   `json:"minEducation"`
	Positions    int      `json:"positions"`
	Experience   string   `json:"experience"`
	Salary       int64    `json:"salary"`
	LastDate     string   `json:"lastDate,omitempty"`
}

// Applicant pairs an applicant identity with the stored resume filename.
// At most one entry exists per identity per job.
type Applicant struct {
	UserID    string    `json:"user"`
	Resume    string    `json:"resume"`
	AppliedAt time.Time `json:"appliedAt"`
}

type Stats struct {
	TotalJobs    int     `json:"totalJobs"`
	SumPositions int     `json:"sumPositions"`
	AvgSalary    float64 `json:"avgSalary"`
	MinSalary    float64 `json:"minSalary"`
	MaxSalary    float64 `json:"maxSalary"`
}

func (rq *JobRq) Validate() error {
	switch {
	case strings.TrimSpace(rq.Title) == "":
		return fmt.Errorf("please enter a job title")
	case len(rq.Title) > 100:
		return fmt.Errorf("job title cannot exceed 100 characters")
	case strings.TrimSpace(rq.Description) == "":
		return fmt.Errorf("please enter a job description")
	case len(rq.Description) > 1000:
		return fmt.Errorf("job description cannot exceed 1000 characters")
	case strings.TrimSpace(rq.Company) == "":
		return fmt.Errorf("please add a company name")
	case strings.TrimSpace(rq.Address) == "":
		return fmt.Errorf("please add an address")
	case len(rq.Industry) == 0:
		return fmt.Errorf("please select at least one industry")
	case rq.Salary <= 0:
		return fmt.Errorf("please enter the expected salary for this job")
	}
	for _, ind := range rq.Industry {
		if !contains(Industries, ind) {
			return fmt.Errorf("please select correct options for industry")
		}
	}
	if !contains(JobTypes, rq.JobType) {
		return fmt.Errorf("please choose correct options for job type")
	}
	if !contains(MinEducations, rq.MinEducation) {
		return fmt.Errorf("please select correct options for education")
	}
	if !contains(Experiences, rq.Experience) {
		return fmt.Errorf("please select correct options for experience")
	}
	return nil
}

func contains(set []string, val string) bool {
	for _, s := range set {
		if s == val {
			return true
		}
	}
	return false
}
