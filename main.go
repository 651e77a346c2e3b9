package main

import (
	"log"

	"github.com/jobreel/job-board/internal/config"
	"github.com/jobreel/job-board/internal/database"
	"github.com/jobreel/job-board/internal/email"
	"github.com/jobreel/job-board/internal/geocoder"
	"github.com/jobreel/job-board/internal/handler"
	"github.com/jobreel/job-board/internal/job"
	"github.com/jobreel/job-board/internal/resume"
	"github.com/jobreel/job-board/internal/server"
	"github.com/jobreel/job-board/internal/user"

	_ "github.com/lib/pq"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config: %+v", err)
	}
	conn, err := database.GetDbConn(cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseSSLMode)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)
	emailClient, err := email.NewClient(cfg.EmailAPIKey, cfg.SupportEmail, cfg.NoReplyEmail, cfg.SiteName)
	if err != nil {
		log.Fatalf("unable to connect to sparkpost API: %v", err)
	}
	resumeStore, err := resume.NewStore(cfg.UploadPath, cfg.MaxResumeSize)
	if err != nil {
		log.Fatalf("unable to initialise resume store: %v", err)
	}
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)

	svr := server.NewServer(
		cfg,
		conn,
		mux.NewRouter(),
		emailClient,
		geocoder.NewGeocoder(cfg.GeocoderAPIKey, cfg.GeocoderURI),
		sessionStore,
	)

	userRepo := user.NewRepository(conn)
	jobRepo := job.NewRepository(conn)
	geo := svr.GetGeocoder()

	svr.RegisterRoute("/api/v1/register", handler.RegisterHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/v1/login", handler.LoginHandler(svr, userRepo), []string{"POST"})
	svr.RegisterRoute("/api/v1/logout", handler.Authenticated(svr, userRepo, handler.LogoutHandler(svr)), []string{"GET"})
	svr.RegisterRoute("/api/v1/forgot-password", handler.ForgotPasswordHandler(svr, userRepo, emailClient), []string{"POST"})
	svr.RegisterRoute("/api/v1/password/reset/{token}", handler.ResetPasswordHandler(svr, userRepo), []string{"PUT"})

	svr.RegisterRoute("/api/v1/jobs", handler.ListJobsHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/v1/jobs/feed", handler.JobsFeedHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/v1/jobs/stats/{id}/{topic}", handler.JobStatsHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/v1/job/new", handler.Authenticated(svr, userRepo, handler.NewJobHandler(svr, jobRepo, geo)), []string{"POST"})
	svr.RegisterRoute("/api/v1/job/applied", handler.Authenticated(svr, userRepo, handler.AppliedJobsHandler(svr, jobRepo)), []string{"GET"})
	// the radius route must come first, its purely numeric segments keep it
	// out of the id/slug route's way
	svr.RegisterRoute("/api/v1/job/{zipcode:[0-9]+}/{distance:[0-9]+}", handler.JobsInRadiusHandler(svr, jobRepo, geo), []string{"GET"})
	svr.RegisterRoute("/api/v1/job/{id}/apply", handler.Authenticated(svr, userRepo, handler.ApplyJobHandler(svr, jobRepo, resumeStore)), []string{"PUT"})
	svr.RegisterRoute("/api/v1/job/{id}/{slug}", handler.JobByIDSlugHandler(svr, jobRepo), []string{"GET"})
	svr.RegisterRoute("/api/v1/job/{id}", handler.Authenticated(svr, userRepo, handler.UpdateJobHandler(svr, jobRepo, geo)), []string{"PUT"})
	svr.RegisterRoute("/api/v1/job/{id}", handler.Authenticated(svr, userRepo, handler.DeleteJobHandler(svr, jobRepo, resumeStore)), []string{"DELETE"})

	svr.RegisterRoute("/api/v1/me", handler.Authenticated(svr, userRepo, handler.MeHandler(svr, jobRepo)), []string{"GET"})
	svr.RegisterRoute("/api/v1/me/update", handler.Authenticated(svr, userRepo, handler.UpdateMeHandler(svr, userRepo)), []string{"PUT"})
	svr.RegisterRoute("/api/v1/me/delete", handler.Authenticated(svr, userRepo, handler.DeleteMeHandler(svr, userRepo, resumeStore)), []string{"DELETE"})
	svr.RegisterRoute("/api/v1/password-change", handler.Authenticated(svr, userRepo, handler.PasswordChangeHandler(svr, userRepo)), []string{"PUT"})
	svr.RegisterRoute("/api/v1/jobs/published", handler.Authenticated(svr, userRepo, handler.PublishedJobsHandler(svr, jobRepo)), []string{"GET"})
	svr.RegisterRoute("/api/v1/users", handler.Authenticated(svr, userRepo, handler.UsersHandler(svr, userRepo)), []string{"GET"})
	svr.RegisterRoute("/api/v1/users/{id}", handler.Authenticated(svr, userRepo, handler.AdminDeleteUserHandler(svr, userRepo, resumeStore)), []string{"DELETE"})

	svr.NotFoundHandler(handler.NotFoundHandler(svr))

	log.Fatal(svr.Run())
}
