package services

import (
	"sort"
	"strconv"
	"strings"

	"idealista-watcher/models"
	"idealista-watcher/utils"
)

// InsightService turns per-candidate results into cycle statistics.
type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate fills the counters and qualifying listings of report from results.
func (s *InsightService) Generate(report *models.CycleReport, results []models.CandidateResult) {
	if report.DroppedBy == nil {
		report.DroppedBy = make(map[models.DropReason]int)
	}
	report.Candidates = len(results)

	for _, r := range results {
		switch r.Outcome {
		case models.OutcomeQualified:
			report.Qualified++
			report.Listings = append(report.Listings, r.Listing)
			if r.Classification == models.Highlighted {
				report.Highlighted++
			}
			if r.NotifyErr != nil {
				report.NotifyFails++
			}
		case models.OutcomeDuplicate:
			report.Duplicates++
		case models.OutcomeDropped:
			report.DroppedBy[r.Reason]++
		case models.OutcomeFailed:
			report.Failed++
		}
	}
}

// Print logs a one-line summary of the cycle.
func (s *InsightService) Print(report *models.CycleReport) {
	if report.Qualified > 0 {
		s.logger.Info("Found %d new listings! (%d highlighted, %d not delivered)",
			report.Qualified, report.Highlighted, report.NotifyFails)
	} else {
		s.logger.Info("No new listings.")
	}

	s.logger.Debug("[insights] candidates=%d duplicates=%d failed=%d dropped=[%s] seen=%d",
		report.Candidates, report.Duplicates, report.Failed, formatDrops(report.DroppedBy), report.SeenTotal)
}

func formatDrops(drops map[models.DropReason]int) string {
	keys := make([]string, 0, len(drops))
	for k := range drops {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+strconv.Itoa(drops[models.DropReason(k)]))
	}
	return strings.Join(parts, " ")
}
