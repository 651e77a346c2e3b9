package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Config struct {
	Port                string
	DatabaseUser        string
	DatabasePassword    string
	DatabaseHost        string
	DatabasePort        string
	DatabaseName        string
	DatabaseSSLMode     string
	EmailAPIKey         string // sparkpost API key for transactional emails
	NoReplyEmail        string // used for transactional emails
	SupportEmail        string // displayed as sender name on transactional emails
	AdminEmail          string
	SessionKey          []byte
	JwtSigningKey       []byte
	Env                 string // either prod or dev, will disable https and few other bits
	SentryDSN           string
	GeocoderAPIKey      string
	GeocoderURI         string
	UploadPath          string // directory where applicant resumes are stored
	MaxResumeSize       int64  // max resume upload size in bytes
	TokenExpiryDays     int    // how long an issued auth token stays valid
	ResetTokenExpiryMin int    // how long a password reset token stays valid
	SiteName            string
	SiteHost            string
	URLProtocol         string
}

func LoadConfig() (Config, error) {
	port := os.Getenv("PORT")
	if port == "" {
		return Config{}, fmt.Errorf("PORT cannot be empty")
	}
	databaseUser := os.Getenv("DATABASE_USER")
	if databaseUser == "" {
		return Config{}, fmt.Errorf("DATABASE_USER cannot be empty")
	}
	databasePassword := os.Getenv("DATABASE_PASSWORD")
	if databasePassword == "" {
		return Config{}, fmt.Errorf("DATABASE_PASSWORD cannot be empty")
	}
	databaseHost := os.Getenv("DATABASE_HOST")
	if databaseHost == "" {
		return Config{}, fmt.Errorf("DATABASE_HOST cannot be empty")
	}
	databasePort := os.Getenv("DATABASE_PORT")
	if databasePort == "" {
		return Config{}, fmt.Errorf("DATABASE_PORT cannot be empty")
	}
	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		return Config{}, fmt.Errorf("DATABASE_NAME cannot be empty")
	}
	databaseSSLMode := os.Getenv("DATABASE_SSL_MODE")
	if databaseSSLMode == "" {
		return Config{}, fmt.Errorf("DATABASE_SSL_MODE cannot be empty")
	}
	emailAPIKey := os.Getenv("EMAIL_API_KEY")
	if emailAPIKey == "" {
		return Config{}, fmt.Errorf("EMAIL_API_KEY cannot be empty")
	}
	noReplyEmail := os.Getenv("NO_REPLY_EMAIL")
	if noReplyEmail == "" {
		return Config{}, fmt.Errorf("NO_REPLY_EMAIL cannot be empty")
	}
	supportEmail := os.Getenv("SUPPORT_EMAIL")
	if supportEmail == "" {
		return Config{}, fmt.Errorf("SUPPORT_EMAIL cannot be empty")
	}
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		return Config{}, fmt.Errorf("ADMIN_EMAIL cannot be empty")
	}
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		return Config{}, fmt.Errorf("ENV cannot be empty")
	}
	sessionKeyString := os.Getenv("SESSION_KEY")
	if sessionKeyString == "" {
		return Config{}, fmt.Errorf("SESSION_KEY cannot be empty")
	}
	sessionKeyBytes, err := base64.StdEncoding.DecodeString(sessionKeyString)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode session key to bytes")
	}
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		return Config{}, fmt.Errorf("JWT_SIGNING_KEY cannot be empty")
	}
	jwtSigningKeyBytes, err := base64.StdEncoding.DecodeString(jwtSigningKey)
	if err != nil {
		return Config{}, errors.Wrapf(err, "unable to decode jwt signing key to bytes")
	}
	sentryDSN := os.Getenv("SENTRY_DSN")
	geocoderAPIKey := os.Getenv("GEOCODER_API_KEY")
	if geocoderAPIKey == "" {
		return Config{}, fmt.Errorf("GEOCODER_API_KEY cannot be empty")
	}
	geocoderURI := os.Getenv("GEOCODER_URI")
	if geocoderURI == "" {
		geocoderURI = "https://open.mapquestapi.com/geocoding/v1/address"
	}
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		return Config{}, fmt.Errorf("UPLOAD_PATH cannot be empty")
	}
	maxResumeSize := int64(2 << 20)
	if maxResumeSizeStr := os.Getenv("MAX_RESUME_SIZE"); maxResumeSizeStr != "" {
		maxResumeSize, err = strconv.ParseInt(maxResumeSizeStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("could not convert ascii to int: %v", err)
		}
	}
	tokenExpiryDays := 7
	if tokenExpiryDaysStr := os.Getenv("TOKEN_EXPIRY_DAYS"); tokenExpiryDaysStr != "" {
		tokenExpiryDays, err = strconv.Atoi(tokenExpiryDaysStr)
		if err != nil {
			return Config{}, fmt.Errorf("could not convert ascii to int: %v", err)
		}
	}
	siteName := os.Getenv("SITE_NAME")
	if siteName == "" {
		return Config{}, fmt.Errorf("SITE_NAME cannot be empty")
	}
	siteHost := os.Getenv("SITE_HOST")
	if siteHost == "" {
		return Config{}, fmt.Errorf("SITE_HOST cannot be empty")
	}
	urlProtocol := "http"
	if !strings.EqualFold(env, "dev") {
		urlProtocol = "https"
	}

	return Config{
		Port:                port,
		DatabaseUser:        databaseUser,
		DatabasePassword:    databasePassword,
		DatabaseHost:        databaseHost,
		DatabasePort:        databasePort,
		DatabaseName:        databaseName,
		DatabaseSSLMode:     databaseSSLMode,
		EmailAPIKey:         emailAPIKey,
		NoReplyEmail:        noReplyEmail,
		SupportEmail:        supportEmail,
		AdminEmail:          adminEmail,
		SessionKey:          sessionKeyBytes,
		JwtSigningKey:       jwtSigningKeyBytes,
		Env:                 env,
		SentryDSN:           sentryDSN,
		GeocoderAPIKey:      geocoderAPIKey,
		GeocoderURI:         geocoderURI,
		UploadPath:          uploadPath,
		MaxResumeSize:       maxResumeSize,
		TokenExpiryDays:     tokenExpiryDays,
		ResetTokenExpiryMin: 30,
		SiteName:            siteName,
		SiteHost:            siteHost,
		URLProtocol:         urlProtocol,
	}, nil
}
