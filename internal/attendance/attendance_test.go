package attendance_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein5/faceattend/internal/attendance"
	"github.com/amirhossein5/faceattend/internal/logging"
	"github.com/amirhossein5/faceattend/internal/recognizer"
)

type recordingSink struct {
	names    []string
	sessions []string
	err      error
}

func (s *recordingSink) Record(_ context.Context, name, sessionID string, _ time.Time) error {
	s.names = append(s.names, name)
	s.sessions = append(s.sessions, sessionID)
	return s.err
}

var day = time.Date(2024, 5, 17, 9, 30, 0, 0, time.Local)

func TestFileName(t *testing.T) {
	assert.Equal(t, "attendance_2024-05-17.csv", attendance.FileName(day))
}

func TestOpenCreatesFileWithHeader(t *testing.T) {
	dir := t.TempDir()
	s, err := attendance.Open(dir, day, attendance.Options{Logger: logging.Discard()})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "attendance_2024-05-17.csv"), s.Path())
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "Name,Time\n", string(data))

	// reopening must not add a second header
	_, err = attendance.Open(dir, day, attendance.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	data, err = os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "Name,Time\n", string(data))
}

func TestLogWritesEachNameOnce(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	s, err := attendance.Open(t.TempDir(), day, attendance.Options{Sink: sink, Logger: logging.Discard()})
	require.NoError(t, err)

	ok, err := s.Log(ctx, "alice", day)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Log(ctx, "alice", day.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Log(ctx, recognizer.Unknown, day)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Log(ctx, "bob, jr", day.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, []string{"alice", "bob, jr"}, s.Logged())
	assert.Equal(t, []string{"alice", "bob, jr"}, sink.names)
	assert.Equal(t, []string{s.ID(), s.ID()}, sink.sessions)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "Name,Time\nalice,2024-05-17 09:30:00\n\"bob, jr\",2024-05-17 09:30:02\n", string(data))

	entries, err := attendance.ReadFile(s.Path())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob, jr", entries[1].Name)
	assert.True(t, entries[1].Time.Equal(day.Add(2*time.Second)))
}

func TestSinkFailureDoesNotFailLog(t *testing.T) {
	sink := &recordingSink{err: errors.New("database locked")}
	s, err := attendance.Open(t.TempDir(), day, attendance.Options{Sink: sink, Logger: logging.Discard()})
	require.NoError(t, err)

	ok, err := s.Log(context.Background(), "alice", day)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSkipLoggedToday(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := attendance.Open(dir, day, attendance.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	_, err = first.Log(ctx, "alice", day)
	require.NoError(t, err)

	skipping, err := attendance.Open(dir, day.Add(time.Hour), attendance.Options{SkipLoggedToday: true, Logger: logging.Discard()})
	require.NoError(t, err)
	ok, err := skipping.Log(ctx, "alice", day.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	fresh, err := attendance.Open(dir, day.Add(time.Hour), attendance.Options{Logger: logging.Discard()})
	require.NoError(t, err)
	ok, err = fresh.Log(ctx, "alice", day.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)

	entries, err := attendance.ReadFile(first.Path())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestReadFileMissingAndMalformed(t *testing.T) {
	entries, err := attendance.ReadFile(filepath.Join(t.TempDir(), "none.csv"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Name,Time\nalice,yesterday\n"), 0o644))
	_, err = attendance.ReadFile(path)
	assert.Error(t, err)
}
