package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
)

func TestConfigurationRepositoryListByKeys(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewConfigurationRepository(db)

	rows := sqlmock.NewRows([]string{"key", "value", "type", "description", "updated_by", "updated_at"}).
		AddRow(models.SettingRetakePolicy, "ALL_ATTEMPTS", "ENUM", nil, "admin", time.Now())
	mock.ExpectQuery("SELECT key, value").
		WithArgs(models.SettingRetakePolicy, models.SettingWithdrawEnd).
		WillReturnRows(rows)

	result, err := repo.ListByKeys(context.Background(), []string{models.SettingRetakePolicy, models.SettingWithdrawEnd})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "ALL_ATTEMPTS", result[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurationRepositoryBulkUpsert(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewConfigurationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO configurations").
		WithArgs(models.SettingRegistrationStart, "2024-08-01", "DATE", sqlmock.AnyArg(), "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO configurations").
		WithArgs(models.SettingRetakePolicy, "ALL_ATTEMPTS", "ENUM", sqlmock.AnyArg(), "admin", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	items := []models.Configuration{
		{Key: models.SettingRegistrationStart, Value: "2024-08-01", Type: models.ConfigurationTypeDate, UpdatedBy: strPtr("admin")},
		{Key: models.SettingRetakePolicy, Value: "ALL_ATTEMPTS", Type: models.ConfigurationTypeEnum, UpdatedBy: strPtr("admin")},
	}
	require.NoError(t, repo.BulkUpsert(context.Background(), items))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigurationRepositoryBulkUpsertRollsBack(t *testing.T) {
	db, mock := newRepoMock(t)
	repo := NewConfigurationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO configurations").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.BulkUpsert(context.Background(), []models.Configuration{{Key: models.SettingWithdrawEnd, Value: "x", Type: models.ConfigurationTypeDate}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
