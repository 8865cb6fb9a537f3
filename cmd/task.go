/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/nakachan-ing/dtl-cli/internal/aggregate"
	"github.com/nakachan-ing/dtl-cli/internal/attachment"
	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/form"
	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/shift"
	"github.com/nakachan-ing/dtl-cli/internal/telemetry"
	"github.com/nakachan-ing/dtl-cli/internal/util"
	"github.com/spf13/cobra"
)

var (
	taskTitle        string
	taskDescription  string
	taskContribution string
	taskCompany      string
	taskProject      string
	taskDeliverables string
	taskStatus       string
	taskType         int
	taskAttach       []string
	taskEdit         bool
	taskNoInput      bool

	taskListSearch string
	taskListStatus string
	taskListPage   int
	taskListSort   string
	taskListDesc   bool
	taskMeta       bool
)

// applyTaskFlags copies the flags the user actually set into the form.
func applyTaskFlags(cmd *cobra.Command, ctrl *form.Controller) error {
	values := []struct {
		flag  string
		field form.Field
		value string
	}{
		{"title", form.FieldTitle, taskTitle},
		{"description", form.FieldDescription, taskDescription},
		{"contribution", form.FieldContribution, taskContribution},
		{"company", form.FieldCompanyServed, taskCompany},
		{"project", form.FieldRelatedProject, taskProject},
		{"deliverables", form.FieldAchievedDeliverables, taskDeliverables},
		{"status", form.FieldStatus, taskStatus},
		{"type", form.FieldTaskTypeID, strconv.Itoa(taskType)},
	}
	for _, v := range values {
		if !cmd.Flags().Changed(v.flag) {
			continue
		}
		if err := ctrl.SetField(v.field, v.value); err != nil {
			return fmt.Errorf("--%s: %w", v.flag, err)
		}
	}
	return nil
}

func stageAttachments(ctx context.Context, ctrl *form.Controller, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	files, err := attachment.Stage(paths)
	if err != nil {
		return err
	}
	res := ctrl.Stage(files)
	for _, f := range res.Accepted {
		fmt.Printf("📎 %s (%s)\n", f.Name, attachment.FormatSize(f.Size))
	}
	for _, msg := range res.Errors {
		fmt.Printf("⚠️ %s\n", msg)
	}
	telemetry.RecordAttachmentsRejected(ctx, len(res.Errors))
	return nil
}

// completeAndSubmit submits right away when the flags filled every
// required field of a new task (or --no-input is set), and opens the
// interactive form otherwise. Rework forms start complete, so they
// always open the form unless --no-input is given.
func completeAndSubmit(cmd *cobra.Command, s *session, ctrl *form.Controller, fetched fetchedDay) (*model.Task, error) {
	ctx := cmd.Context()

	if taskEdit {
		desc, err := util.EditText(ctrl.Value(form.FieldDescription), *s.config)
		if err != nil {
			return nil, err
		}
		if err := ctrl.SetField(form.FieldDescription, desc); err != nil {
			return nil, err
		}
	}

	direct := taskNoInput || (ctrl.Mode() == form.ModeCreate && ctrl.CanSubmit())
	if direct {
		if !ctrl.CanSubmit() {
			var missing []string
			for _, f := range ctrl.Missing() {
				missing = append(missing, "--"+flagFor(f))
			}
			return nil, fmt.Errorf("%w: %s", form.ErrIncomplete, strings.Join(missing, ", "))
		}
		task, err := ctrl.Submit(ctx, s.userID, s.client)
		telemetry.RecordSubmission(ctx, string(ctrl.Mode()), err)
		if err != nil {
			return nil, err
		}
		return &task, nil
	}

	types, err := s.taskTypes(ctx)
	if err != nil {
		fmt.Printf("⚠️ %v\n", err)
	}
	m := newTaskFormModel(ctx, ctrl, s.client, s.userID, types)
	return runTaskForm(ctx, m, shift.NewPresenter(clock.Real()), fetched.report, fetched.buckets)
}

func flagFor(f form.Field) string {
	switch f {
	case form.FieldCompanyServed:
		return "company"
	case form.FieldRelatedProject:
		return "project"
	case form.FieldAchievedDeliverables:
		return "deliverables"
	case form.FieldTaskTypeID:
		return "type"
	}
	return string(f)
}

type fetchedDay struct {
	buckets []model.DailyTaskBucket
	report  *model.ShiftReport
}

func formOptions(config *model.Config) form.Options {
	return form.Options{
		Clock:   clock.Real(),
		Company: config.Organization.Company,
		Limits:  attachment.LimitsFromConfig(config.Attachments),
	}
}

// afterSubmit refetches so server-assigned fields come from the backend.
func afterSubmit(ctx context.Context, s *session, task *model.Task, verb string) {
	fmt.Printf("✅ Task %q %s (ID: %s)\n", task.Title, verb, task.ID)
	res, err := s.fetch(ctx)
	if err != nil {
		fmt.Printf("⚠️ Failed to refresh daily tasks: %v\n", err)
		return
	}
	if fresh, _, ok := model.FindTask(res.Buckets, task.ID); ok {
		fmt.Printf("   Status: %s, Review: %s\n", statusColored(fresh.Status), reviewColored(fresh.ReviewStatus))
	}
}

var taskCmd = &cobra.Command{
	Use:     "task",
	Short:   "Create, rework and inspect tasks",
	Aliases: []string{"t"},
}

var newTaskCmd = &cobra.Command{
	Use:     "new",
	Short:   "Record a task for today",
	Aliases: []string{"n"},
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if err := s.requireOnline(); err != nil {
			return err
		}
		ctx := cmd.Context()
		res, err := s.fetch(ctx)
		if err != nil {
			return err
		}

		ctrl := form.NewCreate(formOptions(s.config))
		if err := applyTaskFlags(cmd, ctrl); err != nil {
			return err
		}
		if err := stageAttachments(ctx, ctrl, taskAttach); err != nil {
			return err
		}

		task, err := completeAndSubmit(cmd, s, ctrl, fetchedDay{buckets: res.Buckets, report: res.ShiftReport})
		if err != nil {
			return err
		}
		if task == nil {
			return nil
		}
		afterSubmit(ctx, s, task, "created")
		return nil
	},
}

var reworkTaskCmd = &cobra.Command{
	Use:   "rework [Task ID]",
	Short: "Resubmit a rejected or shifted task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if err := s.requireOnline(); err != nil {
			return err
		}
		ctx := cmd.Context()
		res, err := s.fetch(ctx)
		if err != nil {
			return err
		}

		prior, _, ok := model.FindTask(res.Buckets, args[0])
		if !ok {
			return fmt.Errorf("task %s not found", args[0])
		}
		ctrl, err := form.NewRework(prior, formOptions(s.config))
		if errors.Is(err, form.ErrNotReworkable) {
			fmt.Printf("⚠️ Task %s is %s and %s; only rejected or shifted tasks can be reworked.\n",
				prior.ID, lifecycle.Label(prior.Status), lifecycle.ReviewLabel(prior.ReviewStatus))
			return err
		}
		if err != nil {
			return err
		}
		if err := applyTaskFlags(cmd, ctrl); err != nil {
			return err
		}
		if err := stageAttachments(ctx, ctrl, taskAttach); err != nil {
			return err
		}

		task, err := completeAndSubmit(cmd, s, ctrl, fetchedDay{buckets: res.Buckets, report: res.ShiftReport})
		if err != nil {
			return err
		}
		if task == nil {
			return nil
		}
		afterSubmit(ctx, s, task, "resubmitted")
		return nil
	},
}

var listTaskCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tasks across all days",
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

		status := taskListStatus
		if status != "" && status != aggregate.StatusAll {
			parsed, err := model.ParseTaskStatus(status)
			if err != nil {
				return err
			}
			status = string(parsed)
		}

		tasks := aggregate.AllTasks(res.Buckets)
		if taskListSort != "" {
			if _, ok := aggregate.TaskFields[taskListSort]; !ok {
				return fmt.Errorf("unknown sort key %q", taskListSort)
			}
			state := aggregate.SortState{Key: taskListSort}
			if taskListDesc {
				state.Direction = aggregate.Descending
			}
			tasks = aggregate.Sort(tasks, state, aggregate.TaskFields)
		}

		view := aggregate.Aggregate(tasks, aggregate.NewQuery(aggregate.DailyPageSize).
			WithSearch(taskListSearch).WithStatus(status).WithPage(taskListPage))
		renderCounts(os.Stdout, view)
		renderTasks(os.Stdout, view.Items, model.NewDay(time.Now()))
		fmt.Printf("Page %d of %d (%d of %d tasks match)\n", view.Page, view.TotalPages, len(view.Filtered), len(tasks))
		return nil
	},
}

var showTaskCmd = &cobra.Command{
	Use:     "show [Task ID]",
	Short:   "Show task detail",
	Args:    cobra.ExactArgs(1),
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
		task, bucket, ok := model.FindTask(res.Buckets, args[0])
		if !ok {
			return fmt.Errorf("task %s not found", args[0])
		}

		headingStyle := color.New(color.FgCyan, color.Bold).SprintFunc()
		fieldStyle := color.New(color.FgHiGreen).SprintFunc()

		fmt.Printf("[%v] %v\n", headingStyle(task.ID), headingStyle(task.Title))
		fmt.Println(strings.Repeat("-", 50))
		fmt.Printf("Day: %v\n", fieldStyle(bucket.SubmissionDate))
		fmt.Printf("Status: %v\n", statusColored(task.Status))
		fmt.Printf("Review: %v\n", reviewColored(task.ReviewStatus))
		fmt.Printf("Due date: %v\n", fieldStyle(task.DueDate))
		if task.IsShifted {
			fmt.Printf("Shifted from: %v (%d work days)\n", fieldStyle(task.OriginalDueDate), task.WorkDaysCount)
		}
		if task.TaskType != nil {
			fmt.Printf("Type: %v\n", fieldStyle(task.TaskType.Name))
		}
		fmt.Printf("Company: %v\n", fieldStyle(task.CompanyName()))
		fmt.Printf("Project: %v\n", fieldStyle(task.RelatedProject))
		fmt.Printf("Contribution: %v\n", fieldStyle(task.Contribution))
		fmt.Printf("Deliverables: %v\n", fieldStyle(task.AchievedDeliverables))

		if !taskMeta && task.Description != "" {
			rendered, err := glamour.Render(task.Description, "dark")
			if err != nil {
				fmt.Printf("⚠️ Failed to render description: %v\n", err)
				fmt.Println(task.Description)
			} else {
				fmt.Println(rendered)
			}
		}

		if len(task.AttachedDocuments) > 0 {
			fmt.Println(headingStyle("Documents"))
			for _, d := range task.AttachedDocuments {
				fmt.Printf("  📎 %s (%s) %s\n", d.OriginalFilename, attachment.FormatSize(d.Bytes), d.SecureURL)
			}
		}
		if len(task.Comments) > 0 {
			fmt.Println(headingStyle("Comments"))
			for _, c := range task.Comments {
				fmt.Printf("  💬 %s (%s) %s: %s\n", fieldStyle(c.Timestamp.Local().Format("2006-01-02 15:04")), humanize.Time(c.Timestamp), c.UserName, c.Text)
			}
		}
		if hint := reworkHint(task); hint != "" {
			fmt.Println(hint)
		}
		return nil
	},
}

var attachCheckCmd = &cobra.Command{
	Use:   "attach-check [files...]",
	Short: "Check files against the attachment limits without uploading",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limits := attachment.DefaultLimits()
		if config, err := requireConfig(); err == nil {
			limits = attachment.LimitsFromConfig(config.Attachments)
		}

		files, err := attachment.Stage(args)
		if err != nil {
			return err
		}
		res := attachment.Validate(nil, files, limits)
		for _, f := range res.Accepted {
			fmt.Printf("✅ %s (%s, %s)\n", f.Name, attachment.FormatSize(f.Size), f.MIMEType)
		}
		for _, msg := range res.Errors {
			fmt.Printf("❌ %s\n", msg)
		}
		fmt.Printf("📌 Limits: %d files, %dMB each, accepted: %s\n", limits.MaxFiles, limits.MaxFileSizeMB, limits.Accept())
		if len(res.Errors) > 0 {
			return fmt.Errorf("%d file(s) rejected", len(res.Errors))
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{newTaskCmd, reworkTaskCmd} {
		c.Flags().StringVar(&taskTitle, "title", "", "Task title")
		c.Flags().StringVar(&taskDescription, "description", "", "Task description (markdown)")
		c.Flags().StringVar(&taskContribution, "contribution", "", "Your contribution")
		c.Flags().StringVar(&taskCompany, "company", "", "Company served")
		c.Flags().StringVar(&taskProject, "project", "", "Related project")
		c.Flags().StringVar(&taskDeliverables, "deliverables", "", "Achieved deliverables")
		c.Flags().StringVar(&taskStatus, "status", "", "in_progress or completed")
		c.Flags().IntVar(&taskType, "type", 0, "Task type ID (see `dtl tasktype list`)")
		c.Flags().StringSliceVarP(&taskAttach, "attach", "a", []string{}, "Attach a file (repeatable)")
		c.Flags().BoolVarP(&taskEdit, "edit", "e", false, "Write the description in $EDITOR")
		c.Flags().BoolVar(&taskNoInput, "no-input", false, "Fail instead of opening the interactive form")
	}

	listTaskCmd.Flags().StringVarP(&taskListSearch, "search", "q", "", "Search title, description, company and project")
	listTaskCmd.Flags().StringVar(&taskListStatus, "status", "", "Filter by status")
	listTaskCmd.Flags().IntVar(&taskListPage, "page", 1, "Page to show")
	listTaskCmd.Flags().StringVar(&taskListSort, "sort", "", "Sort key")
	listTaskCmd.Flags().BoolVar(&taskListDesc, "desc", false, "Sort descending")
	showTaskCmd.Flags().BoolVar(&taskMeta, "meta", false, "Show only metadata without the description")

	taskCmd.AddCommand(newTaskCmd, reworkTaskCmd, listTaskCmd, showTaskCmd, attachCheckCmd)
	rootCmd.AddCommand(taskCmd)
}
