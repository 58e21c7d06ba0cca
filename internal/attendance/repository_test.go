package attendance_test

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/hugh/go-attend/internal/apperr"
	"github.com/hugh/go-attend/internal/attendance"
	"github.com/hugh/go-attend/internal/database/models"
	"github.com/hugh/go-attend/internal/testutil"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:             sqlDB,
		WithoutReturning: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return db, mock
}

func newRecord() *models.AttendanceRecord {
	return &models.AttendanceRecord{
		UserID:  uuid.New(),
		Date:    models.Date{Year: 2025, Month: 1, Day: 10},
		ViaQR:   true,
		Channel: models.ChannelQR,
	}
}

func TestRepository_Insert_PostgresUniqueViolation(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := attendance.NewRepository(db)

	mock.ExpectExec(`INSERT INTO "attendance_records"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_attendance_user_date"})

	err := repo.Insert(testutil.TestContext(t), newRecord())
	assert.Equal(t, attendance.ErrAlreadyRecorded, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_PostgresOtherError(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := attendance.NewRepository(db)

	mock.ExpectExec(`INSERT INTO "attendance_records"`).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "chk_attendance_one_channel"})

	err := repo.Insert(testutil.TestContext(t), newRecord())
	require.Error(t, err)
	assert.False(t, errors.Is(err, attendance.ErrAlreadyRecorded))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_Postgres(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := attendance.NewRepository(db)

	mock.ExpectExec(`INSERT INTO "attendance_records"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := newRecord()
	require.NoError(t, repo.Insert(testutil.TestContext(t), rec))
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_PostgresMissingUser(t *testing.T) {
	db, mock := newPostgresMock(t)
	repo := attendance.NewRepository(db)

	mock.ExpectExec(`INSERT INTO "attendance_records"`).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_users_attendance"})

	err := repo.Insert(testutil.TestContext(t), newRecord())
	assert.Equal(t, attendance.ErrUnknownUser, err)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_MissingUser(t *testing.T) {
	repo := attendance.NewRepository(testutil.SetupTestDB(t))

	err := repo.Insert(testutil.TestContext(t), newRecord())
	assert.Equal(t, attendance.ErrUnknownUser, err)
}
