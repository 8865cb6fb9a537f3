/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/nakachan-ing/dtl-cli/internal/aggregate"
	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/gate"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/shift"
	"github.com/nakachan-ing/dtl-cli/internal/store"
	"github.com/nakachan-ing/dtl-cli/internal/telemetry"
	"github.com/nakachan-ing/dtl-cli/internal/util"
	"github.com/spf13/cobra"
)

var (
	daySearch   string
	dayStatus   string
	dayPage     int
	dayListPage int
	dayFrom     string
	dayTo       string
	dayPending  bool
	daySort     string
	dayDesc     bool
)

var dayCmd = &cobra.Command{
	Use:     "day",
	Short:   "Browse and submit daily task buckets",
	Aliases: []string{"d"},
}

var listDayCmd = &cobra.Command{
	Use:     "list",
	Short:   "List daily task buckets",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		res, err := s.fetch(cmd.Context())
		if err != nil {
			return err
		}

		presenter := shift.NewPresenter(clock.Real())
		defer presenter.Close()
		renderShiftNotice(os.Stdout, presenter.PresentBuckets(res.ShiftReport, res.Buckets))

		buckets := util.FilterBuckets(res.Buckets, dayFrom, dayTo)
		if dayPending {
			buckets = util.FilterPending(buckets)
		}
		summaries := aggregate.Summarize(buckets)
		if len(summaries) == 0 {
			fmt.Println("No daily tasks found.")
			return nil
		}

		today := model.NewDay(time.Now())
		if dayListPage > 0 {
			items, page, total := aggregate.Paginate(summaries, dayListPage, aggregate.DailyPageSize)
			renderSummaries(os.Stdout, items, today)
			fmt.Printf("Page %d of %d\n", page, total)
			return nil
		}

		reader := bufio.NewReader(os.Stdin)
		for page := 1; ; page++ {
			items, current, total := aggregate.Paginate(summaries, page, aggregate.DailyPageSize)
			renderSummaries(os.Stdout, items, today)
			fmt.Printf("Page %d of %d\n", current, total)
			if current >= total {
				break
			}
			fmt.Print("\nPress Enter for the next page (q to quit): ")
			input, _ := reader.ReadString('\n')
			if strings.TrimSpace(input) == "q" {
				break
			}
		}
		return nil
	},
}

func findBucket(buckets []model.DailyTaskBucket, ref string) (model.DailyTaskBucket, error) {
	if ref == "" || ref == "today" {
		ref = model.NewDay(time.Now()).String()
	}
	b, ok := store.FindBucket(buckets, ref)
	if !ok {
		return model.DailyTaskBucket{}, fmt.Errorf("no daily tasks for %s", ref)
	}
	return b, nil
}

var showDayCmd = &cobra.Command{
	Use:     "show [date|bucket ID]",
	Short:   "Show the tasks of one day (default: today)",
	Args:    cobra.MaximumNArgs(1),
	Aliases: []string{"s"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		res, err := s.fetch(cmd.Context())
		if err != nil {
			return err
		}
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		b, err := findBucket(res.Buckets, ref)
		if err != nil {
			return err
		}

		presenter := shift.NewPresenter(clock.Real())
		defer presenter.Close()
		renderShiftNotice(os.Stdout, presenter.PresentBuckets(res.ShiftReport, []model.DailyTaskBucket{b}))

		status := dayStatus
		if status != "" && status != aggregate.StatusAll {
			parsed, err := model.ParseTaskStatus(status)
			if err != nil {
				return err
			}
			status = string(parsed)
		}

		tasks := b.Tasks
		if daySort != "" {
			state := aggregate.SortState{Key: daySort}
			if dayDesc {
				state.Direction = aggregate.Descending
			}
			if _, ok := aggregate.TaskFields[daySort]; !ok {
				return fmt.Errorf("unknown sort key %q", daySort)
			}
			tasks = aggregate.Sort(tasks, state, aggregate.TaskFields)
		}

		q := aggregate.NewQuery(aggregate.DailyPageSize).WithSearch(daySearch).WithStatus(status).WithPage(dayPage)
		view := aggregate.Aggregate(tasks, q)

		fmt.Println(strings.Repeat("=", 40))
		fmt.Printf("📅 %s  (%s)\n", b.SubmissionDate, b.ID)
		fmt.Println(strings.Repeat("=", 40))
		renderCounts(os.Stdout, view)
		renderTasks(os.Stdout, view.Items, model.NewDay(time.Now()))
		fmt.Printf("Page %d of %d (%d of %d tasks match)\n", view.Page, view.TotalPages, len(view.Filtered), len(b.Tasks))
		renderGate(os.Stdout, b)
		return nil
	},
}

var submitDayCmd = &cobra.Command{
	Use:   "submit [date|bucket ID]",
	Short: "Submit a day's tasks for review (default: today)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if err := s.requireOnline(); err != nil {
			return err
		}
		res, err := s.fetch(cmd.Context())
		if err != nil {
			return err
		}
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		b, err := findBucket(res.Buckets, ref)
		if err != nil {
			return err
		}

		refreshed, err := gate.New(s.client, s.userID).Submit(cmd.Context(), b)
		telemetry.RecordSubmission(cmd.Context(), "day", err)
		if errors.Is(err, gate.ErrAlreadySubmitted) || errors.Is(err, gate.ErrNothingCompleted) {
			fmt.Printf("⚠️ %s\n", gate.Reason(b))
			return err
		}
		if err != nil {
			return err
		}
		if err := s.cache.UpsertBucket(refreshed); err != nil {
			fmt.Printf("⚠️ Failed to update cache: %v\n", err)
		}

		st := gate.StatusOf(refreshed)
		fmt.Printf("✅ Daily tasks for %s submitted (%d of %d completed)\n", refreshed.SubmissionDate, st.Completed, st.Total)
		return nil
	},
}

func init() {
	listDayCmd.Flags().StringVar(&dayFrom, "from", "", "Filter by start date (YYYY-MM-DD)")
	listDayCmd.Flags().StringVar(&dayTo, "to", "", "Filter by end date (YYYY-MM-DD)")
	listDayCmd.Flags().BoolVar(&dayPending, "pending", false, "Show only days that are not submitted")
	listDayCmd.Flags().IntVar(&dayListPage, "page", 0, "Show a single page (default: page through interactively)")

	showDayCmd.Flags().StringVarP(&daySearch, "search", "q", "", "Search title, description, company and project")
	showDayCmd.Flags().StringVar(&dayStatus, "status", "", "Filter by status (pending, in_progress, completed, delayed, all)")
	showDayCmd.Flags().IntVar(&dayPage, "page", 1, "Page to show")
	showDayCmd.Flags().StringVar(&daySort, "sort", "", "Sort by title, status, due_date, work_days, company, documents or comments")
	showDayCmd.Flags().BoolVar(&dayDesc, "desc", false, "Sort descending")

	dayCmd.AddCommand(listDayCmd, showDayCmd, submitDayCmd)
	rootCmd.AddCommand(dayCmd)
}
