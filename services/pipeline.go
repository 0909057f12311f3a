package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"idealista-watcher/models"
	"idealista-watcher/storage"
	"idealista-watcher/utils"
)

// Fetcher retrieves the raw search page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*models.FetchResult, error)
}

// Extractor turns a page body into one result per listing card.
type Extractor interface {
	Extract(body []byte) ([]models.ExtractResult, error)
}

// Notifier delivers one text message. It blocks until the send completes.
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// PipelineDeps wires the collaborators a Pipeline needs.
type PipelineDeps struct {
	SearchURL   string
	BlockStatus int

	Fetcher    Fetcher
	Extractor  Extractor
	Filter     *Filter
	Seen       storage.SeenStore
	ErrorState storage.ErrorStateStore
	Notifier   Notifier
	// Archive is optional.
	Archive storage.ListingWriter
	Logger  *utils.Logger
}

// Pipeline runs one fetch → extract → filter → dedup → notify cycle at a time.
type Pipeline struct {
	PipelineDeps
	insights *InsightService
	newID    func() string
	now      func() time.Time
}

// NewPipeline creates a Pipeline from deps.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		PipelineDeps: deps,
		insights:     NewInsightService(deps.Logger),
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// RunCycle executes a single cycle and reports what happened. It never
// returns an error: every failure is logged and reflected in the report.
func (p *Pipeline) RunCycle(ctx context.Context) *models.CycleReport {
	report := &models.CycleReport{
		CycleID:   p.newID(),
		StartedAt: p.now(),
		DroppedBy: make(map[models.DropReason]int),
	}
	defer func() { report.FinishedAt = p.now() }()

	tag := report.CycleID
	if len(tag) > 8 {
		tag = tag[:8]
	}
	p.Logger.Debug("[pipeline %s] Scraping Idealista...", tag)

	status, err := p.ErrorState.Load(ctx)
	if err != nil {
		p.Logger.Warn("[pipeline %s] Error state unreadable, treating as clear: %v", tag, err)
	}

	res, err := p.Fetcher.Fetch(ctx, p.SearchURL)
	if err != nil {
		p.Logger.Warn("[pipeline %s] Fetch failed: %v", tag, err)
		report.FetchError = err.Error()
		return report
	}
	report.FetchStatus = res.StatusCode

	switch {
	case res.StatusCode == p.BlockStatus:
		report.Blocked = true
		p.handleBlock(ctx, tag, status, res.StatusCode)
		return report
	case res.StatusCode == http.StatusOK:
		if status.Code != nil {
			if err := p.ErrorState.Clear(ctx); err != nil {
				p.Logger.Error("[pipeline %s] Failed to clear error state: %v", tag, err)
			} else {
				p.Logger.Info("[pipeline %s] Access restored after HTTP %d", tag, *status.Code)
			}
		}
	default:
		p.Logger.Warn("[pipeline %s] Error fetching page! Status code: %d", tag, res.StatusCode)
		report.FetchError = http.StatusText(res.StatusCode)
		return report
	}

	extracted, err := p.Extractor.Extract(res.Body)
	if err != nil {
		p.Logger.Error("[pipeline %s] Could not parse page: %v", tag, err)
	}

	seen, err := p.Seen.Load(ctx)
	if err != nil {
		p.Logger.Warn("[pipeline %s] Seen listings unreadable, starting from an empty set: %v", tag, err)
	}
	if seen == nil {
		seen = utils.NewURLSet()
	}

	results := make([]models.CandidateResult, 0, len(extracted))
	for _, r := range extracted {
		results = append(results, p.process(ctx, tag, seen, r))
	}

	if err := p.Seen.Persist(ctx, seen); err != nil {
		p.Logger.Error("[pipeline %s] Failed to persist seen listings: %v", tag, err)
	}

	p.insights.Generate(report, results)
	report.SeenTotal = seen.Size()

	if p.Archive != nil && len(report.Listings) > 0 {
		if err := p.Archive.Write(report.Listings); err != nil {
			p.Logger.Error("[pipeline %s] Archive write failed: %v", tag, err)
		}
	}

	p.insights.Print(report)
	return report
}

// handleBlock alerts once per blocking episode. A repeat of the recorded
// code is suppressed.
func (p *Pipeline) handleBlock(ctx context.Context, tag string, status models.ErrorStatus, code int) {
	if status.IsBlocked(code) {
		p.Logger.Warn("[pipeline %s] Still blocked (HTTP %d), alert already sent", tag, code)
		return
	}

	p.Logger.Error("[pipeline %s] Blocked by source (HTTP %d), sending alert", tag, code)
	if err := p.ErrorState.RecordError(ctx, code); err != nil {
		p.Logger.Error("[pipeline %s] Failed to record error state: %v", tag, err)
	}
	if err := p.Notifier.Send(ctx, FormatBlocked(code)); err != nil {
		p.Logger.Error("[pipeline %s] Block alert not delivered: %v", tag, err)
	}
}

// process decides the fate of a single candidate. The link is recorded as
// seen before the message is sent, so a failed send is not retried.
func (p *Pipeline) process(ctx context.Context, tag string, seen *utils.URLSet, r models.ExtractResult) models.CandidateResult {
	if r.Err != nil || r.Listing == nil {
		p.Logger.Warn("[pipeline %s] Error parsing listing: %v", tag, r.Err)
		return models.CandidateResult{Outcome: models.OutcomeFailed, Err: r.Err}
	}
	l := r.Listing

	if ok, reason := p.Filter.Evaluate(l); !ok {
		p.Logger.Debug("[pipeline %s] Dropped (%s): %s", tag, reason, l.Link)
		return models.CandidateResult{Listing: l, Outcome: models.OutcomeDropped, Reason: reason}
	}

	if seen.Contains(l.Link) {
		return models.CandidateResult{Listing: l, Outcome: models.OutcomeDuplicate}
	}
	seen.Add(l.Link)

	class := p.Filter.Classify(l)
	result := models.CandidateResult{Listing: l, Outcome: models.OutcomeQualified, Classification: class}

	if err := p.Notifier.Send(ctx, FormatListing(l, class)); err != nil {
		p.Logger.Error("[pipeline %s] Notification failed for %s: %v", tag, l.Link, err)
		result.NotifyErr = err
	} else {
		p.Logger.Info("[pipeline %s] Notified %s listing: %s", tag, class, l.Title)
	}
	return result
}
