package attendance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/amirhossein5/faceattend/internal/logging"
	"github.com/amirhossein5/faceattend/internal/recognizer"
)

const (
	dateLayout = "2006-01-02"
	// TimeLayout is the format of the Time column.
	TimeLayout = "2006-01-02 15:04:05"
)

var header = []string{"Name", "Time"}

// Sink receives every row written to the log.
type Sink interface {
	Record(ctx context.Context, name, sessionID string, at time.Time) error
}

// Options configures a Session.
type Options struct {
	// SkipLoggedToday treats names already in the day's file as logged.
	SkipLoggedToday bool
	Sink            Sink
	Logger          *slog.Logger
}

// Entry is one row of an attendance file.
type Entry struct {
	Name string
	Time time.Time
}

// Session appends attendance rows to one day's CSV file, logging each
// name at most once.
type Session struct {
	id     string
	path   string
	lock   *flock.Flock
	sink   Sink
	log    *slog.Logger
	seen   map[string]struct{}
	logged []string
}

// FileName returns the attendance file name for the day of t.
func FileName(t time.Time) string {
	return fmt.Sprintf("attendance_%s.csv", t.Format(dateLayout))
}

// Open starts a session on the file for now's day in dir, creating the file
// with its header when missing.
func Open(dir string, now time.Time, opts Options) (*Session, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attendance directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now))
	s := &Session{
		id:   uuid.New().String(),
		path: path,
		lock: flock.New(path + ".lock"),
		sink: opts.Sink,
		log:  logging.OrDefault(opts.Logger),
		seen: make(map[string]struct{}),
	}

	if err := s.withLock(s.ensureHeader); err != nil {
		return nil, err
	}

	if opts.SkipLoggedToday {
		entries, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			s.seen[e.Name] = struct{}{}
		}
	}

	s.log.Debug("attendance session opened", "session", s.id, "file", path, "already_logged", len(s.seen))
	return s, nil
}

// Path returns the CSV file the session writes to.
func (s *Session) Path() string {
	return s.path
}

// ID returns the session identifier recorded with every sink row.
func (s *Session) ID() string {
	return s.id
}

// Logged returns the names written by this session, in order.
func (s *Session) Logged() []string {
	out := make([]string, len(s.logged))
	copy(out, s.logged)
	return out
}

// Log appends a row for name unless it is Unknown or already logged.
// It reports whether a row was written.
func (s *Session) Log(ctx context.Context, name string, at time.Time) (bool, error) {
	if name == "" || name == recognizer.Unknown {
		return false, nil
	}
	if _, ok := s.seen[name]; ok {
		return false, nil
	}

	err := s.withLock(func() error {
		f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
		if err != nil {
			return fmt.Errorf("open attendance file: %w", err)
		}
		w := csv.NewWriter(f)
		if err := w.Write([]string{name, at.Format(TimeLayout)}); err != nil {
			f.Close()
			return fmt.Errorf("write attendance row: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return fmt.Errorf("write attendance row: %w", err)
		}
		return f.Close()
	})
	if err != nil {
		return false, err
	}

	s.seen[name] = struct{}{}
	s.logged = append(s.logged, name)

	if s.sink != nil {
		if err := s.sink.Record(ctx, name, s.id, at); err != nil {
			s.log.Warn("failed to mirror attendance row", "name", name, "error", err)
		}
	}
	return true, nil
}

func (s *Session) ensureHeader() error {
	info, err := os.Stat(s.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat attendance file: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create attendance file: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write attendance header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write attendance header: %w", err)
	}
	return f.Close()
}

func (s *Session) withLock(fn func() error) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock attendance file: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warn("failed to release attendance lock", "error", err)
		}
	}()
	return fn()
}

// ReadFile parses an attendance file. A missing file yields no entries.
func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open attendance file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var entries []Entry
	for line := 1; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read attendance file: %w", err)
		}
		if line == 1 && len(row) >= 1 && row[0] == header[0] {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("attendance file %s line %d: expected 2 columns, got %d", path, line, len(row))
		}
		at, err := time.ParseInLocation(TimeLayout, row[1], time.Local)
		if err != nil {
			return nil, fmt.Errorf("attendance file %s line %d: %w", path, line, err)
		}
		entries = append(entries, Entry{Name: row[0], Time: at})
	}
	return entries, nil
}
