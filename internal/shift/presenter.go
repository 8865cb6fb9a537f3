// Package shift turns the backend's carry-forward results into a
// transient, dismissible notice.
package shift

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

// DisplayWindow is how long a notice stays visible without interaction.
const DisplayWindow = 10 * time.Second

// presentedLimit bounds how many distinct reports are remembered.
const presentedLimit = 32

type Kind int

const (
	KindNone Kind = iota
	KindReport
	KindGeneric
)

type DisplayState struct {
	Visible bool
	Kind    Kind
	Report  *model.ShiftReport
}

// Lines renders the notice as display lines; empty when hidden.
func (s DisplayState) Lines() []string {
	if !s.Visible {
		return nil
	}
	if s.Kind == KindGeneric || s.Report == nil {
		return []string{"Some unfinished tasks were carried forward to today. Shifted tasks can be reworked."}
	}
	noun := "tasks"
	if s.Report.TasksShifted == 1 {
		noun = "task"
	}
	lines := []string{fmt.Sprintf("%d %s shifted to %s", s.Report.TasksShifted, noun, s.Report.ShiftDate)}
	for _, t := range s.Report.Tasks {
		lines = append(lines, fmt.Sprintf("  • %s (work days: %d → %d)", t.Title, t.PreviousWorkDays, t.WorkDaysCount))
	}
	return lines
}

// Presenter owns the visibility of the shift notice. A report-based
// notice and the generic notice are never shown together, and
// re-presenting what was already presented neither restarts the timer
// nor revives a dismissed notice.
type Presenter struct {
	mu       sync.Mutex
	clock    clock.Clock
	window   time.Duration
	state    DisplayState
	timer    *clock.Timer
	gen      uint64
	closed   bool
	onChange func(DisplayState)

	presented  []*model.ShiftReport // oldest first, at most presentedLimit
	genericKey string
}

func NewPresenter(c clock.Clock) *Presenter {
	return &Presenter{clock: c, window: DisplayWindow}
}

// OnChange registers a callback invoked after every visibility change,
// including auto-dismiss. It runs outside the presenter's lock.
func (p *Presenter) OnChange(f func(DisplayState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = f
}

func (p *Presenter) State() DisplayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Present shows a report-based notice. A nil report, or one that shifted
// nothing, leaves the current state untouched.
func (p *Presenter) Present(report *model.ShiftReport) DisplayState {
	p.mu.Lock()
	if p.closed || report == nil || report.TasksShifted <= 0 || p.wasPresentedLocked(report) {
		state := p.state
		p.mu.Unlock()
		return state
	}
	p.presented = append(p.presented, report)
	if len(p.presented) > presentedLimit {
		p.presented = p.presented[len(p.presented)-presentedLimit:]
	}
	p.showLocked(DisplayState{Visible: true, Kind: KindReport, Report: report})
	return p.unlockAndNotify()
}

// PresentBuckets prefers the report and falls back to the generic notice
// when some task is shifted but no report was ever received.
func (p *Presenter) PresentBuckets(report *model.ShiftReport, buckets []model.DailyTaskBucket) DisplayState {
	if report != nil && report.TasksShifted > 0 {
		return p.Present(report)
	}

	key := shiftedKey(buckets)
	p.mu.Lock()
	if p.closed || key == "" || len(p.presented) > 0 || key == p.genericKey {
		state := p.state
		p.mu.Unlock()
		return state
	}
	p.genericKey = key
	p.showLocked(DisplayState{Visible: true, Kind: KindGeneric})
	return p.unlockAndNotify()
}

// Clear dismisses the notice immediately and cancels the pending
// auto-dismiss.
func (p *Presenter) Clear() {
	p.mu.Lock()
	if !p.state.Visible {
		p.mu.Unlock()
		return
	}
	p.hideLocked()
	p.unlockAndNotify()
}

// Close cancels any pending timer; the presenter shows nothing afterwards.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTimerLocked()
	p.state = DisplayState{}
	p.closed = true
}

func (p *Presenter) wasPresentedLocked(report *model.ShiftReport) bool {
	for _, r := range p.presented {
		if r.SameAs(report) {
			return true
		}
	}
	return false
}

func (p *Presenter) showLocked(state DisplayState) {
	p.stopTimerLocked()
	p.state = state
	p.gen++
	gen := p.gen
	p.timer = p.clock.AfterFunc(p.window, func() { p.expire(gen) })
}

func (p *Presenter) hideLocked() {
	p.stopTimerLocked()
	p.gen++
	p.state = DisplayState{}
}

func (p *Presenter) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// expire ignores callbacks from timers that were replaced or stopped
// after they had already started running.
func (p *Presenter) expire(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.closed {
		p.mu.Unlock()
		return
	}
	p.timer = nil
	p.hideLocked()
	p.unlockAndNotify()
}

func (p *Presenter) unlockAndNotify() DisplayState {
	state, notify := p.state, p.onChange
	p.mu.Unlock()
	if notify != nil {
		notify(state)
	}
	return state
}

func shiftedKey(buckets []model.DailyTaskBucket) string {
	var ids []string
	for _, b := range buckets {
		for _, t := range b.Tasks {
			if t.IsShifted {
				ids = append(ids, t.ID)
			}
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}
