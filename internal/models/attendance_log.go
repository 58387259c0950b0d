package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	ATTENDANCE_LOG_TYPE_ENTERED = "attendance_log_type_entered"
	ATTENDANCE_LOG_TYPE_EXITED  = "attendance_log_type_exited"
)

type AttendanceLog struct {
	gorm.Model
	PersonName string    `gorm:"index"`
	SessionID  string    `gorm:"index"`
	LoggedAt   time.Time `gorm:"index"`
	Type       string
}

// BeforeCreate alternates entered/exited for a person within one day.
func (attendanceLog *AttendanceLog) BeforeCreate(tx *gorm.DB) error {
	if attendanceLog.LoggedAt.IsZero() {
		attendanceLog.LoggedAt = time.Now()
	}
	if attendanceLog.Type == "" {
		var todayLogsCount int64

		start, end := DayBounds(attendanceLog.LoggedAt)
		err := tx.Model(&AttendanceLog{}).
			Where("person_name = ?", attendanceLog.PersonName).
			Where("logged_at >= ? AND logged_at < ?", start, end).
			Count(&todayLogsCount).Error
		if err != nil {
			return fmt.Errorf("AttendanceLog,BeforeCreate: %w", err)
		}

		if todayLogsCount%2 == 0 {
			attendanceLog.Type = ATTENDANCE_LOG_TYPE_ENTERED
		} else {
			attendanceLog.Type = ATTENDANCE_LOG_TYPE_EXITED
		}
	}

	return nil
}

// DayBounds returns the local midnight starting t's day and the next one.
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
