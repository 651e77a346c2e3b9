package user

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cascadeMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func TestDeleteUserCascadePlainUserLeavesJobsIntact(t *testing.T) {
	repo, mock := cascadeMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT resume FROM applicant WHERE user_id = $1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"resume"}).AddRow("Jane_j1.pdf").AddRow("Jane_j2.pdf"))
	mock.ExpectExec(`DELETE FROM applicant WHERE user_id = $1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM users WHERE id = $1`).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resumes, err := repo.DeleteUserCascade("u1", RoleUser)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane_j1.pdf", "Jane_j2.pdf"}, resumes)
	// deletes are scoped to the user's own applicant rows, the job table
	// and other applicants never see a statement
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserCascadeEmployerRemovesPostingsAndApplicants(t *testing.T) {
	repo, mock := cascadeMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT a.resume FROM applicant a JOIN job j ON a.job_id = j.id WHERE j.user_id = $1`).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"resume"}).AddRow("John_j1.pdf"))
	mock.ExpectExec(`DELETE FROM applicant WHERE job_id IN (SELECT id FROM job WHERE user_id = $1)`).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM job WHERE user_id = $1`).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = $1`).
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resumes, err := repo.DeleteUserCascade("e1", RoleEmployer)
	require.NoError(t, err)
	assert.Equal(t, []string{"John_j1.pdf"}, resumes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserCascadeAdminCascadesLikeEmployer(t *testing.T) {
	repo, mock := cascadeMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT a.resume FROM applicant a JOIN job j ON a.job_id = j.id WHERE j.user_id = $1`).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"resume"}))
	mock.ExpectExec(`DELETE FROM applicant WHERE job_id IN (SELECT id FROM job WHERE user_id = $1)`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM job WHERE user_id = $1`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM users WHERE id = $1`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := repo.DeleteUserCascade("a1", RoleAdmin)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserCascadeRollsBackWhenDependentDeleteFails(t *testing.T) {
	repo, mock := cascadeMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT resume FROM applicant WHERE user_id = $1`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"resume"}).AddRow("Jane_j1.pdf"))
	mock.ExpectExec(`DELETE FROM applicant WHERE user_id = $1`).
		WithArgs("u1").
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := repo.DeleteUserCascade("u1", RoleUser)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
