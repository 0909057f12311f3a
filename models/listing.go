package models

import "time"

// Placeholder text used when a listing card omits a field.
const (
	NoDescription = "No description"
	NoPrice       = "No price available"
	NotAvailable  = "Not available"
)

// Listing is one candidate record extracted from the search results page.
// Link is the identity used for deduplication.
type Listing struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Rooms       string `json:"rooms"`
	Size        string `json:"size"`
	Floor       string `json:"floor"`
}

// ExtractResult is the outcome of extracting a single listing card.
// Exactly one of Listing and Err is set.
type ExtractResult struct {
	Listing *Listing
	Err     error
}

// Classification annotates a listing for notification framing only.
type Classification string

const (
	Standard    Classification = "standard"
	Highlighted Classification = "highlighted"
)

// DropReason names the exclusion rule that rejected a listing.
type DropReason string

const (
	DropNone  DropReason = ""
	DropFloor DropReason = "floor"
	DropArea  DropReason = "area"
	DropTerm  DropReason = "term"
)

// Outcome is what happened to a candidate during a cycle.
type Outcome string

const (
	OutcomeQualified Outcome = "qualified"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeDropped   Outcome = "dropped"
	OutcomeFailed    Outcome = "failed"
)

// CandidateResult records the processing of one extracted card.
type CandidateResult struct {
	Listing        *Listing
	Outcome        Outcome
	Reason         DropReason
	Classification Classification
	// Err is the extraction error for OutcomeFailed.
	Err error
	// NotifyErr is set when a qualified listing's message could not be sent.
	// The link is still recorded as seen.
	NotifyErr error
}

// FetchResult is the raw response of one search page request.
type FetchResult struct {
	StatusCode int
	Body       []byte
}

// ErrorStatus is the last fetch error that already triggered an alert.
// A nil Code means no outstanding error.
type ErrorStatus struct {
	Code *int `json:"status_code"`
}

// IsBlocked reports whether the status records the given code.
func (s ErrorStatus) IsBlocked(code int) bool {
	return s.Code != nil && *s.Code == code
}

// CycleReport summarises one pipeline cycle.
type CycleReport struct {
	CycleID     string             `json:"cycle_id"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	FetchStatus int                `json:"fetch_status"`
	FetchError  string             `json:"fetch_error,omitempty"`
	Blocked     bool               `json:"blocked"`
	Candidates  int                `json:"candidates"`
	Qualified   int                `json:"qualified"`
	Highlighted int                `json:"highlighted"`
	Duplicates  int                `json:"duplicates"`
	Failed      int                `json:"failed"`
	NotifyFails int                `json:"notify_failures"`
	DroppedBy   map[DropReason]int `json:"dropped_by"`
	SeenTotal   int                `json:"seen_total"`
	Listings    []*Listing         `json:"listings"`
}
