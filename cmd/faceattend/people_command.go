package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/amirhossein5/faceattend/internal/dbconnection"
	"github.com/amirhossein5/faceattend/internal/encodings"
)

func newPeopleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "people",
		Short: "List enrolled people",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			log := ctx.log()

			set, err := encodings.Load(cfg.Paths.EncodingsFile)
			if err != nil && !errors.Is(err, encodings.ErrNotFound) {
				log.Warn("failed to load encodings", "error", err)
			}

			db, err := dbconnection.OpenSQLite(cfg.Paths.Database, log)
			if err != nil {
				return err
			}
			defer dbconnection.Close(db)

			people, err := dbconnection.ListPeople(cmd.Context(), db)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := peopleRows(people, set.People())
			if len(rows) == 0 {
				fmt.Fprintln(out, "No people enrolled. Run 'faceattend collect' and 'faceattend encode'.")
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Images", "Faces", "Encodings"}, rows, "Images", "Faces", "Encodings"))
			return nil
		},
	}
}

// peopleRows merges database enrollment with the encodings file, which may
// name people the database has not seen.
func peopleRows(people []dbconnection.PersonSummary, encoded map[string]int) [][]string {
	rows := make([][]string, 0, len(people))
	listed := make(map[string]bool, len(people))
	for _, p := range people {
		listed[p.Name] = true
		rows = append(rows, []string{p.Name, strconv.Itoa(p.Images), strconv.Itoa(p.Faces), strconv.Itoa(encoded[p.Name])})
	}

	var extra []string
	for name := range encoded {
		if !listed[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		rows = append(rows, []string{name, "-", "-", strconv.Itoa(encoded[name])})
	}
	return rows
}
