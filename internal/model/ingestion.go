package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the current state of an ingestion run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// IngestionRun brackets one batch of lead applications for audit.
// EndedAt is nil exactly while Status is running.
type IngestionRun struct {
	ID          string          `json:"id"`
	Source      Source          `json:"source"`
	InstanceKey string          `json:"instance_key"`
	Status      RunStatus       `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
	Stats       *RunStats       `json:"stats,omitempty"`
	CreatedBy   string          `json:"created_by"`
}

// RunStats aggregates per-lead outcomes across a run.
type RunStats struct {
	Leads       int    `json:"leads"`
	Created     int    `json:"created"`
	Updated     int    `json:"updated"`
	Suggested   int    `json:"suggested"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Suggestions int    `json:"suggestions"`
	Error       string `json:"error,omitempty"`
}

// Add folds one lead result into the aggregate.
func (s *RunStats) Add(r IngestionResult) {
	s.Leads++
	if !r.Success {
		s.Failed++
		return
	}
	switch r.Action {
	case ActionCreated:
		s.Created++
	case ActionUpdatedDraft:
		s.Updated++
	case ActionSuggestedUpdates:
		s.Suggested++
		s.Suggestions += r.SuggestionsCount
	case ActionSkippedPublished:
		s.Skipped++
	}
}

// RawLead is the immutable audit record of one ingested payload.
// Write-once except for the BusinessID back-link.
type RawLead struct {
	ID               string          `json:"id"`
	IngestionRunID   string          `json:"ingestion_run_id"`
	Source           Source          `json:"source"`
	SourceURL        string          `json:"source_url,omitempty"`
	SourceExternalID string          `json:"source_external_id,omitempty"`
	Payload          json.RawMessage `json:"payload"`
	PayloadHash      string          `json:"payload_hash"`
	FetchedAt        time.Time       `json:"fetched_at"`
	BusinessID       *string         `json:"business_id,omitempty"`
}

// LeadEvidence is one persisted claim row owned by a raw lead.
type LeadEvidence struct {
	ID         string    `json:"id"`
	RawLeadID  string    `json:"raw_lead_id"`
	ClaimType  ClaimType `json:"claim_type"`
	ClaimValue string    `json:"claim_value"`
	Confidence float64   `json:"confidence"`
	Provenance string    `json:"provenance"`
	ObservedAt time.Time `json:"observed_at"`
}

// MatchStrategy is the tier of identifier used to link a lead to a business.
type MatchStrategy string

const (
	MatchExternalID  MatchStrategy = "external_id"
	MatchDomain      MatchStrategy = "domain"
	MatchPhone       MatchStrategy = "phone"
	MatchNameSuburb  MatchStrategy = "name_suburb"
	MatchNewCreation MatchStrategy = "new_creation"
	MatchNone        MatchStrategy = "none"
)

// LeadMatch records the authoritative match decision for a raw lead.
// BusinessID is nil when no match was found and a new record was created.
type LeadMatch struct {
	ID            string        `json:"id"`
	RawLeadID     string        `json:"raw_lead_id"`
	BusinessID    *string       `json:"business_id,omitempty"`
	MatchScore    float64       `json:"match_score"`
	MatchStrategy MatchStrategy `json:"match_strategy"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ReviewStatus is the review state of a suggested update.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// SuggestedUpdate is a proposed single-field patch awaiting human review.
// ReviewedAt/ReviewedBy are set exactly when Status leaves pending; a
// reviewed suggestion is terminal.
type SuggestedUpdate struct {
	ID             string       `json:"id"`
	BusinessID     string       `json:"business_id"`
	RawLeadID      string       `json:"raw_lead_id"`
	FieldName      string       `json:"field_name"`
	CurrentValue   *string      `json:"current_value,omitempty"`
	SuggestedValue string       `json:"suggested_value"`
	Confidence     float64      `json:"confidence"`
	Status         ReviewStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	ReviewedAt     *time.Time   `json:"reviewed_at,omitempty"`
	ReviewedBy     *string      `json:"reviewed_by,omitempty"`
}

// LifecycleState gates what ingestion may auto-mutate on a business.
type LifecycleState string

const (
	LifecycleDraft         LifecycleState = "draft"
	LifecyclePendingReview LifecycleState = "pending_review"
	LifecyclePublished     LifecycleState = "published"
	LifecycleSuspended     LifecycleState = "suspended"
)

// Action is the outcome class of applying one lead.
type Action string

const (
	ActionCreated          Action = "created"
	ActionUpdatedDraft     Action = "updated_draft"
	ActionSuggestedUpdates Action = "suggested_updates"
	ActionSkippedPublished Action = "skipped_published"
)

// IngestionResult is the per-lead outcome emitted by the applicator.
type IngestionResult struct {
	Success          bool           `json:"success"`
	Action           Action         `json:"action"`
	BusinessID       *string        `json:"business_id,omitempty"`
	LifecycleState   LifecycleState `json:"lifecycle_state,omitempty"`
	RawLeadID        string         `json:"raw_lead_id,omitempty"`
	SuggestionsCount int            `json:"suggestions_count,omitempty"`
	Error            string         `json:"error,omitempty"`
}

// MatchResult is the matcher's verdict for one normalized lead.
// BusinessID is empty when no tier matched.
type MatchResult struct {
	BusinessID string        `json:"business_id,omitempty"`
	Strategy   MatchStrategy `json:"strategy"`
	Confidence float64       `json:"confidence"`
}
