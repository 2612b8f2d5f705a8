// Copyright 2026 The bktutor Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bktutor/bktutor/catalog"
	"github.com/bktutor/bktutor/cmd/bktutor/cli"
	"github.com/bktutor/bktutor/enrollment"
	"github.com/bktutor/bktutor/tutorapi"
)

type coursesParams struct {
	cli.JSONOutput
	Search string `flag:"search,s" desc:"filter by course name or tutor (accents ignored)"`
	Limit  int    `flag:"limit,n" desc:"show at least this many matches, loading more pages as needed (0: one page)"`
	All    bool   `flag:"all,a" desc:"show every match"`
}

type courseEntry struct {
	tutorapi.Course
	Registered bool `json:"registered"`
}

func coursesCommand(e *env) *cli.Command {
	var params coursesParams
	return &cli.Command{
		Name:    "courses",
		Summary: "List the course catalog",
		Description: `List the course catalog in server order, one page at a time.

Search matches the course name and tutor, ignoring case and
Vietnamese diacritics. Courses you are registered for are marked with
"*" when you are logged in.`,
		Examples: []cli.Example{
			{Description: "First page of the catalog", Command: "bktutor courses"},
			{Description: "Search without typing accents", Command: "bktutor courses --search \"tieng nhat\""},
			{Description: "Everything, as JSON", Command: "bktutor courses --all --json"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("courses", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			if params.Limit < 0 {
				return cli.Validation("--limit must not be negative")
			}
			app, err := e.start(ctx, "courses", cli.Load{Catalog: true, Enrollment: true})
			if err != nil {
				return err
			}
			defer app.Close()

			app.Catalog.SetQuery(params.Search)
			view := app.Catalog.View(app.Enrollment)
			for view.HasMore && (params.All || len(view.Entries) < params.Limit) {
				app.Catalog.LoadMore()
				view = app.Catalog.View(app.Enrollment)
			}
			output := catalogEntries(view)
			if params.Limit > 0 && !params.All && len(output) > params.Limit {
				output = output[:params.Limit]
			}
			if done, err := params.EmitJSON(e.stdout, output); done {
				return err
			}

			if view.Matching == 0 {
				if view.Query != "" {
					e.printf("No course matches %q.\n", view.Query)
				} else {
					e.printf("The catalog is empty.\n")
				}
				return nil
			}
			writeCourseTable(e.stdout, output)
			e.printf("\nShowing %d of %d matching courses (%d in catalog).", len(output), view.Matching, view.Total)
			if len(output) < view.Matching {
				e.printf(" Use --limit or --all for more.")
			}
			e.printf("\n")
			return nil
		},
	}
}

func writeCourseTable(w io.Writer, entries []courseEntry) {
	table := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintf(table, " \tCODE\tNAME\tTUTOR\tTIME\tMODE\tCLASS\n")
	for _, entry := range entries {
		marker := " "
		if entry.Registered {
			marker = "*"
		}
		fmt.Fprintf(table, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			marker, entry.Code, entry.Name, entry.Tutor, entry.Time, entry.Mode, entry.ClassCode)
	}
	table.Flush()
}

func courseCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:    "course",
		Summary: "Show or create a single course",
		Subcommands: []*cli.Command{
			courseShowCommand(e),
			courseCreateCommand(e),
		},
	}
}

type courseShowParams struct {
	cli.JSONOutput
}

type courseShowOutput struct {
	Course     *tutorapi.Course          `json:"course"`
	Statistics tutorapi.CourseStatistics `json:"statistics,omitempty"`
	Registered bool                      `json:"registered"`
}

func courseShowCommand(e *env) *cli.Command {
	var params courseShowParams
	return &cli.Command{
		Name:    "show",
		Summary: "Show one course with its enrollment statistics",
		Usage:   "bktutor course show <code> [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("show", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return cli.Validation("course show takes exactly one course code")
			}
			code := args[0]
			app, err := e.start(ctx, "course/show", cli.Load{Enrollment: true})
			if err != nil {
				return err
			}
			defer app.Close()

			course, err := app.API.Course(ctx, code)
			if tutorapi.IsStatus(err, http.StatusNotFound) {
				return cli.NotFound("course %s not found", code)
			}
			if err != nil {
				return cli.Classify(err)
			}
			output := courseShowOutput{Course: course, Registered: app.Enrollment.IsRegistered(code)}

			// Statistics are an extra; the course is shown without them
			// when the server has none.
			statistics, err := app.API.CourseStatistics(ctx, code)
			if err == nil {
				output.Statistics = statistics
			} else if tutorapi.IsUnauthorized(err) || tutorapi.IsTransport(err) {
				return cli.Classify(err)
			}

			if done, err := params.EmitJSON(e.stdout, output); done {
				return err
			}

			e.printf("%s  %s\n", course.Code, course.Name)
			printField(e.stdout, "tutor", course.Tutor)
			printField(e.stdout, "time", course.Time)
			printField(e.stdout, "mode", course.Mode)
			printField(e.stdout, "class", course.ClassCode)
			if course.MaxStudents != nil {
				printField(e.stdout, "capacity", strconv.Itoa(*course.MaxStudents))
			}
			if output.Registered {
				printField(e.stdout, "status", "registered")
			}
			if course.Content != "" {
				e.printf("\n%s\n", course.Content)
			}
			if len(output.Statistics) > 0 {
				e.printf("\nStatistics:\n")
				for _, key := range slices.Sorted(maps.Keys(output.Statistics)) {
					printField(e.stdout, strings.ReplaceAll(key, "_", " "), rawValue(output.Statistics[key]))
				}
			}
			return nil
		},
	}
}

func printField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %-16s %s\n", label+":", value)
}

// rawValue renders a statistics value: strings unquoted, anything else
// as its JSON text.
func rawValue(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

type courseCreateParams struct {
	cli.JSONOutput
	Code        string `flag:"code" desc:"course code (required)"`
	Name        string `flag:"name" desc:"course name (required)"`
	Tutor       string `flag:"tutor" desc:"tutor name (default: the server uses your name)"`
	Time        string `flag:"time" desc:"weekly slot, e.g. \"Thứ 3 20h-22h\""`
	Mode        string `flag:"mode" desc:"Online or Offline"`
	ClassCode   string `flag:"class-code" desc:"class code, e.g. CN01"`
	Content     string `flag:"content" desc:"course description"`
	MaxStudents int    `flag:"max-students" desc:"capacity (0: unlimited)"`
}

func courseCreateCommand(e *env) *cli.Command {
	var params courseCreateParams
	return &cli.Command{
		Name:    "create",
		Summary: "Create a course (teacher or admin)",
		Description: `Create a new course. Only teacher and admin accounts may create
courses; for anyone else the command fails without contacting the
server.`,
		Examples: []cli.Example{
			{Command: "bktutor course create --code CO4029 --name \"Đồ án Chuyên ngành\" --time \"Thứ 7 8h-10h\" --mode Offline"},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("create", &params)
		},
		Run: func(ctx context.Context, args []string) error {
			if err := noArgs(args); err != nil {
				return err
			}
			if params.Code == "" || params.Name == "" {
				return cli.Validation("--code and --name are required")
			}
			if params.MaxStudents < 0 {
				return cli.Validation("--max-students must not be negative")
			}
			app, err := e.start(ctx, "course/create", cli.Load{})
			if err != nil {
				return err
			}
			defer app.Close()

			draft := tutorapi.CourseDraft{
				Code:      params.Code,
				Name:      params.Name,
				Tutor:     params.Tutor,
				Time:      params.Time,
				Mode:      params.Mode,
				ClassCode: params.ClassCode,
				Content:   params.Content,
			}
			if params.MaxStudents > 0 {
				draft.MaxStudents = &params.MaxStudents
			}

			result, err := app.Enrollment.CreateCourse(ctx, draft)
			switch {
			case errors.Is(err, enrollment.ErrNotAuthenticated):
				return cli.Classify(err)
			case errors.Is(err, enrollment.ErrNotPermitted):
				return cli.Forbidden("%v", err).WithHint("Only teacher and admin accounts can create courses.")
			case err != nil:
				return cli.Classify(err)
			case result.Suppressed:
				return cli.Conflict("a request for %s is already running", params.Code)
			case !result.Success:
				return cli.Conflict("server refused: %s", result.Message)
			}

			if done, err := params.EmitJSON(e.stdout, result.Course); done {
				return err
			}
			e.printf("Created %s  %s\n", result.Course.Code, result.Course.Name)
			return nil
		},
	}
}

func catalogEntries(view catalog.View) []courseEntry {
	entries := make([]courseEntry, len(view.Entries))
	for i, entry := range view.Entries {
		entries[i] = courseEntry{Course: entry.Course, Registered: entry.Registered}
	}
	return entries
}
