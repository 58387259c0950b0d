package dbconnection

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/amirhossein5/faceattend/internal/models"
)

// Enrollment is one encoded dataset image.
type Enrollment struct {
	Name  string
	Path  string
	Faces int
}

// SyncEnrollment replaces all enrolled faces with records, creating people as needed.
// People without records are removed.
func SyncEnrollment(ctx context.Context, db *gorm.DB, records []Enrollment) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&models.EnrolledFace{}).Error; err != nil {
			return fmt.Errorf("clear enrolled faces: %w", err)
		}

		seen := make(map[string]uint)
		for _, rec := range records {
			personID, ok := seen[rec.Name]
			if !ok {
				person := models.Person{Name: rec.Name}
				if err := tx.Where(models.Person{Name: rec.Name}).FirstOrCreate(&person).Error; err != nil {
					return fmt.Errorf("upsert person %q: %w", rec.Name, err)
				}
				personID = person.ID
				seen[rec.Name] = personID
			}
			face := models.EnrolledFace{PersonID: personID, Path: rec.Path, Faces: rec.Faces}
			if err := tx.Create(&face).Error; err != nil {
				return fmt.Errorf("record enrolled face %q: %w", rec.Path, err)
			}
		}

		names := make([]string, 0, len(seen))
		for name := range seen {
			names = append(names, name)
		}
		stale := tx.Unscoped()
		if len(names) > 0 {
			stale = stale.Where("name NOT IN ?", names)
		} else {
			stale = stale.Session(&gorm.Session{AllowGlobalUpdate: true})
		}
		if err := stale.Delete(&models.Person{}).Error; err != nil {
			return fmt.Errorf("remove stale people: %w", err)
		}
		return nil
	})
}

// PersonSummary is a person with counts of their enrolled images and faces.
type PersonSummary struct {
	Name   string
	Images int
	Faces  int
}

// ListPeople returns enrolled people ordered by name.
func ListPeople(ctx context.Context, db *gorm.DB) ([]PersonSummary, error) {
	var people []models.Person
	if err := db.WithContext(ctx).Preload("EnrolledFaces").Order("name").Find(&people).Error; err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}

	out := make([]PersonSummary, 0, len(people))
	for _, p := range people {
		summary := PersonSummary{Name: p.Name, Images: len(p.EnrolledFaces)}
		for _, f := range p.EnrolledFaces {
			summary.Faces += f.Faces
		}
		out = append(out, summary)
	}
	return out, nil
}

// AttendanceOn returns the logs recorded on day, oldest first.
func AttendanceOn(ctx context.Context, db *gorm.DB, day time.Time) ([]models.AttendanceLog, error) {
	start, end := models.DayBounds(day)
	var logs []models.AttendanceLog
	err := db.WithContext(ctx).
		Where("logged_at >= ? AND logged_at < ?", start, end).
		Order("logged_at, id").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return logs, nil
}

// AttendanceSink records logged attendance rows in the database.
type AttendanceSink struct {
	DB *gorm.DB
}

// Record stores one attendance row.
func (s AttendanceSink) Record(ctx context.Context, name, sessionID string, at time.Time) error {
	entry := models.AttendanceLog{PersonName: name, SessionID: sessionID, LoggedAt: at}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("record attendance for %q: %w", name, err)
	}
	return nil
}
