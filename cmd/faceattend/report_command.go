package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceattend/internal/attendance"
	"github.com/amirhossein5/faceattend/internal/dbconnection"
	"github.com/amirhossein5/faceattend/internal/models"
)

const dateLayout = "2006-01-02"

func newReportCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string
	var fromCSV bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the attendance logged on a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			day, err := parseDay(dateFlag, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if fromCSV {
				path := filepath.Join(cfg.Paths.AttendanceDir, attendance.FileName(day))
				entries, err := attendance.ReadFile(path)
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintf(out, "No attendance recorded in %s\n", path)
					return nil
				}
				fmt.Fprintln(out, renderCSVReport(entries))
				return nil
			}

			db, err := dbconnection.OpenSQLite(cfg.Paths.Database, ctx.log())
			if err != nil {
				return err
			}
			defer dbconnection.Close(db)

			logs, err := dbconnection.AttendanceOn(cmd.Context(), db, day)
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				fmt.Fprintf(out, "No attendance recorded on %s\n", day.Format(dateLayout))
				return nil
			}
			fmt.Fprintln(out, renderLogReport(logs))
			return nil
		},
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Day to report as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&fromCSV, "csv", false, "Read the day's CSV file instead of the database")
	return cmd
}

func parseDay(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(dateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--date: expected YYYY-MM-DD, got %q", value)
	}
	return day, nil
}

func renderCSVReport(entries []attendance.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Name, e.Time.Format(attendance.TimeLayout)})
	}
	return renderTable([]string{"Name", "Time"}, rows)
}

func renderLogReport(logs []models.AttendanceLog) string {
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []string{l.PersonName, l.LoggedAt.Format(attendance.TimeLayout), logTypeLabel(l.Type), shortID(l.SessionID)})
	}
	return renderTable([]string{"Name", "Time", "Type", "Session"}, rows)
}

func logTypeLabel(t string) string {
	switch t {
	case models.ATTENDANCE_LOG_TYPE_ENTERED:
		return "entered"
	case models.ATTENDANCE_LOG_TYPE_EXITED:
		return "exited"
	default:
		return t
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
