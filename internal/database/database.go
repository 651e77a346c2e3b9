package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Table Structure:
//
// CREATE TABLE IF NOT EXISTS users (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	name VARCHAR(255) NOT NULL,
// 	email VARCHAR(255) NOT NULL UNIQUE,
// 	role VARCHAR(20) NOT NULL DEFAULT 'user',
// 	password_hash VARCHAR(255) NOT NULL,
// 	reset_password_token CHAR(64),
// 	reset_password_expires_at TIMESTAMP,
// 	created_at TIMESTAMP NOT NULL,
// 	updated_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
//
// CREATE INDEX users_reset_password_token_idx ON users (reset_password_token);
//
// CREATE TABLE IF NOT EXISTS job (
// 	id CHAR(27) NOT NULL UNIQUE,
// 	title VARCHAR(100) NOT NULL,
// 	slug VARCHAR(120) NOT NULL,
// 	description TEXT NOT NULL,
// 	company VARCHAR(255) NOT NULL,
// 	address VARCHAR(255) NOT NULL,
// 	longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
// 	latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
// 	formatted_address VARCHAR(255) NOT NULL DEFAULT '',
// 	city VARCHAR(100) NOT NULL DEFAULT '',
// 	state VARCHAR(100) NOT NULL DEFAULT '',
// 	zipcode VARCHAR(20) NOT NULL DEFAULT '',
// 	country VARCHAR(100) NOT NULL DEFAULT '',
// 	industry VARCHAR(50)[] NOT NULL DEFAULT '{}',
// 	job_type VARCHAR(20) NOT NULL,
// 	min_education VARCHAR(20) NOT NULL,
// 	positions INTEGER NOT NULL DEFAULT 1,
// 	experience VARCHAR(20) NOT NULL,
// 	salary BIGINT NOT NULL,
// 	posting_date TIMESTAMP NOT NULL,
// 	last_date TIMESTAMP NOT NULL,
// 	user_id CHAR(27) NOT NULL REFERENCES users (id),
// 	created_at TIMESTAMP NOT NULL,
// 	PRIMARY KEY(id)
// );
//
// CREATE INDEX job_user_id_idx ON job (user_id);
// CREATE INDEX job_posting_date_idx ON job (posting_date);
// CREATE INDEX job_search_idx ON job USING GIN (to_tsvector('english', title || ' ' || description || ' ' || company));
//
// CREATE TABLE IF NOT EXISTS applicant (
// 	job_id CHAR(27) NOT NULL REFERENCES job (id),
// 	user_id CHAR(27) NOT NULL REFERENCES users (id),
// 	resume VARCHAR(255) NOT NULL,
// 	created_at TIMESTAMP NOT NULL,
// 	UNIQUE (job_id, user_id)
// );
//
// CREATE INDEX applicant_user_id_idx ON applicant (user_id);

// GetDbConn tries to establish a connection to postgres and return the connection handler
func GetDbConn(databaseUser string, databasePassword string, databaseHost string, databasePort string, databaseName string, sslMode string) (*sql.DB, error) {
	databaseURL := fmt.Sprintf("postgres://%v:%v@%v:%v/%v?sslmode=%s",
		databaseUser,
		databasePassword,
		databaseHost,
		databasePort,
		databaseName,
		sslMode,
	)
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}
