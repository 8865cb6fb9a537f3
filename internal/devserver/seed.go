package devserver

import (
	"time"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

// Seed adds two past days for userID: a submitted day with a rejected
// task, and an unsubmitted day whose unfinished task will be carried
// forward on the next listing.
func (s *Store) Seed(userID string) {
	now := s.clock.Now()
	twoDaysAgo := model.NewDay(now.AddDate(0, 0, -2))
	yesterday := model.NewDay(now.AddDate(0, 0, -1))
	types := s.TaskTypes()

	s.AddBucket(userID, model.DailyTaskBucket{
		SubmissionDate: twoDaysAgo,
		Submitted:      true,
		Tasks: []model.Task{{
			Title:                "Quarterly report draft",
			Description:          "Collected **sales figures** and drafted the summary.",
			Contribution:         "Wrote sections 1 to 3",
			RelatedProject:       "Reporting",
			AchievedDeliverables: "Draft v1",
			Status:               model.StatusCompleted,
			ReviewStatus:         model.ReviewRejected,
			Reviewed:             true,
			DueDate:              twoDaysAgo,
			TaskType:             &types[3],
			Comments: []model.Comment{{
				Text:      "Please attach the source spreadsheet.",
				UserID:    "reviewer",
				UserName:  "Reviewer",
				Timestamp: now.Add(-36 * time.Hour).UTC(),
			}},
		}},
	})
	s.AddBucket(userID, model.DailyTaskBucket{
		SubmissionDate: yesterday,
		Tasks: []model.Task{
			{
				Title:                "Fix login redirect",
				Description:          "Redirect loops after session expiry.",
				Contribution:         "Reproduced and traced the issue",
				RelatedProject:       "Portal",
				AchievedDeliverables: "Root cause notes",
				Status:               model.StatusInProgress,
				DueDate:              yesterday,
				TaskType:             &types[0],
			},
			{
				Title:                "Team sync",
				Description:          "Weekly planning.",
				Contribution:         "Presented status",
				RelatedProject:       "Portal",
				AchievedDeliverables: "Action items",
				Status:               model.StatusCompleted,
				DueDate:              yesterday,
				TaskType:             &types[2],
			},
		},
	})
}
