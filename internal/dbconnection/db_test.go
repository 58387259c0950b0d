package dbconnection_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amirhossein5/faceattend/internal/attendance"
	"github.com/amirhossein5/faceattend/internal/config"
	"github.com/amirhossein5/faceattend/internal/dbconnection"
	"github.com/amirhossein5/faceattend/internal/logging"
	"github.com/amirhossein5/faceattend/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := dbconnection.OpenSQLite(filepath.Join(t.TempDir(), "db", "attendance.db"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbconnection.Close(db) })
	return db
}

func TestSyncEnrollmentReplacesRecords(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, dbconnection.SyncEnrollment(ctx, db, []dbconnection.Enrollment{
		{Name: "alice", Path: "dataset/alice/alice_0.jpg", Faces: 1},
		{Name: "alice", Path: "dataset/alice/alice_1.jpg", Faces: 0},
		{Name: "bob", Path: "dataset/bob/bob_0.jpg", Faces: 2},
	}))

	people, err := dbconnection.ListPeople(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []dbconnection.PersonSummary{
		{Name: "alice", Images: 2, Faces: 1},
		{Name: "bob", Images: 1, Faces: 2},
	}, people)

	require.NoError(t, dbconnection.SyncEnrollment(ctx, db, []dbconnection.Enrollment{
		{Name: "bob", Path: "dataset/bob/bob_0.jpg", Faces: 1},
	}))

	people, err = dbconnection.ListPeople(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []dbconnection.PersonSummary{{Name: "bob", Images: 1, Faces: 1}}, people)
}

func TestSyncEnrollmentWithNoRecordsClearsPeople(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	require.NoError(t, dbconnection.SyncEnrollment(ctx, db, []dbconnection.Enrollment{{Name: "carol", Path: "x.jpg", Faces: 1}}))
	require.NoError(t, dbconnection.SyncEnrollment(ctx, db, nil))

	people, err := dbconnection.ListPeople(ctx, db)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestAttendanceSinkAlternatesTypesPerDay(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	sink := dbconnection.AttendanceSink{DB: db}

	day := time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)
	require.NoError(t, sink.Record(ctx, "alice", "s1", day))
	require.NoError(t, sink.Record(ctx, "bob", "s1", day.Add(time.Minute)))
	require.NoError(t, sink.Record(ctx, "alice", "s2", day.Add(8*time.Hour)))
	require.NoError(t, sink.Record(ctx, "alice", "s3", day.Add(24*time.Hour)))

	logs, err := dbconnection.AttendanceOn(ctx, db, day)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "alice", logs[0].PersonName)
	assert.Equal(t, models.ATTENDANCE_LOG_TYPE_ENTERED, logs[0].Type)
	assert.Equal(t, models.ATTENDANCE_LOG_TYPE_ENTERED, logs[1].Type)
	assert.Equal(t, "alice", logs[2].PersonName)
	assert.Equal(t, models.ATTENDANCE_LOG_TYPE_EXITED, logs[2].Type)

	next, err := dbconnection.AttendanceOn(ctx, db, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, models.ATTENDANCE_LOG_TYPE_ENTERED, next[0].Type)
	assert.Equal(t, "s3", next[0].SessionID)
}

func TestDefaultSessionsLogAgainOnLaterRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	dir := t.TempDir()
	opts := attendance.Options{
		SkipLoggedToday: config.Default().Attendance.SkipLoggedToday,
		Sink:            dbconnection.AttendanceSink{DB: db},
		Logger:          logging.Discard(),
	}

	morning := time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)
	first, err := attendance.Open(dir, morning, opts)
	require.NoError(t, err)
	logged, err := first.Log(ctx, "alice", morning)
	require.NoError(t, err)
	require.True(t, logged)

	evening := morning.Add(8 * time.Hour)
	second, err := attendance.Open(dir, evening, opts)
	require.NoError(t, err)
	logged, err = second.Log(ctx, "alice", evening)
	require.NoError(t, err)
	require.True(t, logged)

	logs, err := dbconnection.AttendanceOn(ctx, db, morning)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ATTENDANCE_LOG_TYPE_ENTERED, logs[0].Type)
	assert.Equal(t, models.ATTENDANCE_LOG_TYPE_EXITED, logs[1].Type)
	assert.NotEqual(t, logs[0].SessionID, logs[1].SessionID)
}
