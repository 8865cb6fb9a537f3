package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nakachan-ing/dtl-cli/internal/aggregate"
	"github.com/nakachan-ing/dtl-cli/internal/gate"
	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/shift"
)

func statusColored(s model.TaskStatus) string {
	label := lifecycle.Label(s)
	switch s {
	case model.StatusPending:
		return text.FgHiBlue.Sprintf("%s", label)
	case model.StatusInProgress:
		return text.FgHiYellow.Sprintf("%s", label)
	case model.StatusCompleted:
		return text.FgHiGreen.Sprintf("%s", label)
	case model.StatusDelayed:
		return text.FgHiRed.Sprintf("%s", label)
	}
	return label
}

func reviewColored(s model.ReviewStatus) string {
	label := lifecycle.ReviewLabel(s)
	switch s {
	case model.ReviewApproved:
		return text.FgHiGreen.Sprintf("%s", label)
	case model.ReviewRejected:
		return text.FgHiRed.Sprintf("%s", label)
	}
	return text.FgHiBlack.Sprintf("%s", label)
}

func header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = text.FgGreen.Sprintf("%s", c)
	}
	return row
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleDouble)
	t.Style().Options.SeparateRows = false
	return t
}

func renderShiftNotice(w io.Writer, state shift.DisplayState) {
	lines := state.Lines()
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "📌 %s\n", text.FgHiMagenta.Sprintf("%s", lines[0]))
	for _, l := range lines[1:] {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintln(w)
}

func renderCounts(w io.Writer, res aggregate.Result) {
	var parts []string
	for _, s := range model.AllStatuses {
		if n := res.Counts[s]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", statusColored(s), n))
		}
	}
	if res.ShiftedCount > 0 {
		parts = append(parts, text.FgHiMagenta.Sprintf("Shifted: %d", res.ShiftedCount))
	}
	if len(parts) == 0 {
		parts = append(parts, "No tasks")
	}
	fmt.Fprintln(w, strings.Join(parts, "  "))
}

func renderSummaries(w io.Writer, summaries []aggregate.DaySummary, today model.Day) {
	t := newTable(w)
	t.AppendHeader(header("Date", "Bucket ID", "Tasks", "Completed", "In Progress", "Delayed", "Shifted", "Submitted"))
	for _, s := range summaries {
		date := s.Date.String()
		if s.Date.Equal(today) {
			date = text.Bold.Sprintf("%s (today)", date)
		}
		submitted := text.FgHiBlack.Sprintf("no")
		if s.Submitted {
			submitted = text.FgHiGreen.Sprintf("yes")
		}
		t.AppendRow(table.Row{
			date, s.BucketID, s.Total,
			s.Counts[model.StatusCompleted], s.Counts[model.StatusInProgress], s.Counts[model.StatusDelayed],
			s.Shifted, submitted,
		})
	}
	t.Render()
}

func renderTasks(w io.Writer, tasks []model.Task, today model.Day) {
	t := newTable(w)
	t.AppendHeader(header("Task ID", "Title", "Status", "Review", "Due", "Work Days", "Company", "Docs", "Comments"))
	for _, task := range tasks {
		title := task.Title
		if task.IsShifted {
			title = fmt.Sprintf("%s %s", title, text.FgHiMagenta.Sprintf("(shifted)"))
		}
		due := task.DueDate.String()
		if lifecycle.IsOverdue(task, today) {
			due = text.FgHiRed.Sprintf("%s", due)
		}
		t.AppendRow(table.Row{
			task.ID, title, statusColored(task.Status), reviewColored(task.ReviewStatus),
			due, task.WorkDaysCount, task.CompanyName(), len(task.AttachedDocuments), len(task.Comments),
		})
	}
	t.Render()
}

func renderGate(w io.Writer, b model.DailyTaskBucket) {
	st := gate.StatusOf(b)
	if st.CanSubmit {
		fmt.Fprintf(w, "✅ Ready to submit (%d of %d completed): dtl day submit %s\n", st.Completed, st.Total, b.SubmissionDate)
		return
	}
	fmt.Fprintf(w, "⚠️ %s\n", st.Message)
}
