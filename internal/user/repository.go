package user

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/ksuid"

	"github.com/jobreel/job-board/internal/query"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

// TableSpec exposes the user listing to the query filter builder. The
// password hash and reset token columns are deliberately absent: they are
// not selectable even with an explicit fields parameter.
func TableSpec() query.TableSpec {
	return query.TableSpec{
		Name: "users",
		Columns: map[string]string{
			"id":        "id",
			"name":      "name",
			"email":     "email",
			"role":      "role",
			"createdAt": "created_at",
			"updatedAt": "updated_at",
		},
		Default:  []string{"id", "name", "email", "role", "createdAt"},
		TieBreak: "id",
	}
}

func (r *Repository) CreateUser(name, email, passwordHash, role string) (User, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return User{}, err
	}
	now := time.Now().UTC()
	u := User{
		ID:           id.String(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := r.db.Exec(
		`INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt,
	); err != nil {
		return User{}, err
	}
	return u, nil
}

func (r *Repository) UserByID(id string) (User, error) {
	return r.scanUser(r.db.QueryRow(
		`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users WHERE id = $1`, id))
}

func (r *Repository) UserByEmail(email string) (User, error) {
	return r.scanUser(r.db.QueryRow(
		`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users WHERE email = $1`, email))
}

// UserByResetToken resolves a sha256-hashed password reset token, rejecting
// expired ones.
func (r *Repository) UserByResetToken(tokenHash string) (User, error) {
	return r.scanUser(r.db.QueryRow(
		`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users WHERE reset_password_token = $1 AND reset_password_expires_at > NOW()`, tokenHash))
}

func (r *Repository) scanUser(row *sql.Row) (User, error) {
	u := User{}
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return u, err
	}
	u.CreatedAtHumanised = humanize.Time(u.CreatedAt.UTC())
	return u, nil
}

func (r *Repository) UpdateProfile(id, name, email string) error {
	_, err := r.db.Exec(`UPDATE users SET name = $1, email = $2, updated_at = NOW() WHERE id = $3`, name, email, id)
	return err
}

func (r *Repository) UpdatePassword(id, passwordHash string) error {
	_, err := r.db.Exec(`UPDATE users SET password_hash = $1, reset_password_token = NULL, reset_password_expires_at = NULL, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	return err
}

func (r *Repository) SaveResetToken(id, tokenHash string, expiresAt time.Time) error {
	_, err := r.db.Exec(`UPDATE users SET reset_password_token = $1, reset_password_expires_at = $2 WHERE id = $3`, tokenHash, expiresAt, id)
	return err
}

func (r *Repository) ClearResetToken(id string) error {
	_, err := r.db.Exec(`UPDATE users SET reset_password_token = NULL, reset_password_expires_at = NULL WHERE id = $1`, id)
	return err
}

// UsersByQuery runs a composed retrieval request against the user listing.
func (r *Repository) UsersByQuery(q query.Query) ([]map[string]interface{}, int, error) {
	stmt := q.Build(TableSpec())
	rows, err := r.db.Query(stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, 0, err
	}
	return query.CollectRows(rows)
}

// DeleteUserCascade removes a user together with every dependent record in
// one transaction, so a dependent failure leaves the account intact. It
// returns the resume filenames whose applicant rows were removed; file
// removal is the caller's best-effort concern, not part of the transaction.
func (r *Repository) DeleteUserCascade(userID, role string) ([]string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	var resumes []string
	switch role {
	case RoleEmployer, RoleAdmin:
		resumes, err = collectResumes(tx,
			`SELECT a.resume FROM applicant a JOIN job j ON a.job_id = j.id WHERE j.user_id = $1`, userID)
		if err == nil {
			_, err = tx.Exec(`DELETE FROM applicant WHERE job_id IN (SELECT id FROM job WHERE user_id = $1)`, userID)
		}
		if err == nil {
			_, err = tx.Exec(`DELETE FROM job WHERE user_id = $1`, userID)
		}
	case RoleUser:
		resumes, err = collectResumes(tx, `SELECT resume FROM applicant WHERE user_id = $1`, userID)
		if err == nil {
			_, err = tx.Exec(`DELETE FROM applicant WHERE user_id = $1`, userID)
		}
	}
	if err == nil {
		_, err = tx.Exec(`DELETE FROM users WHERE id = $1`, userID)
	}
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return resumes, nil
}

func collectResumes(tx *sql.Tx, stmt, userID string) ([]string, error) {
	rows, err := tx.Query(stmt, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	resumes := []string{}
	for rows.Next() {
		var resume string
		if err := rows.Scan(&resume); err != nil {
			return resumes, err
		}
		resumes = append(resumes, resume)
	}
	return resumes, rows.Err()
}
