package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/graph-directory/directory-cli/internal/business"
	"github.com/graph-directory/directory-cli/internal/config"
	"github.com/graph-directory/directory-cli/internal/model"
)

// LicensePlaceholder marks ingestion-created records whose license field
// still needs manual verification.
const LicensePlaceholder = "INGESTION_PLACEHOLDER"

// Applicator is the pipeline core. Per lead it persists the audit trail,
// runs the matcher, and based on confidence plus target lifecycle state
// either creates a business, auto-updates a draft, or files suggestions.
type Applicator struct {
	store      Store
	businesses business.Store
	matcher    *Matcher
	cfg        config.IngestConfig
	log        *zap.Logger
}

// NewApplicator creates an Applicator.
func NewApplicator(store Store, businesses business.Store, matcher *Matcher, cfg config.IngestConfig) *Applicator {
	return &Applicator{
		store:      store,
		businesses: businesses,
		matcher:    matcher,
		cfg:        cfg,
		log:        zap.L().With(zap.String("component", "ingest.applicator")),
	}
}

// Apply runs the per-lead state machine. It never returns an error: any
// failure is captured in the result so one bad lead cannot crash a batch.
func (a *Applicator) Apply(ctx context.Context, runID string, lead *model.NormalizedLead) model.IngestionResult {
	result, err := a.apply(ctx, runID, lead)
	if err != nil {
		a.log.Warn("lead application failed",
			zap.String("run_id", runID),
			zap.String("source", string(lead.Source)),
			zap.String("name", lead.Name),
			zap.Error(err))
		return model.IngestionResult{
			Success:   false,
			Action:    model.ActionSkippedPublished,
			RawLeadID: result.RawLeadID,
			Error:     err.Error(),
		}
	}
	return result
}

func (a *Applicator) apply(ctx context.Context, runID string, lead *model.NormalizedLead) (model.IngestionResult, error) {
	if err := lead.Validate(); err != nil {
		return model.IngestionResult{}, err
	}

	match, err := a.matcher.Match(ctx, lead)
	if err != nil {
		return model.IngestionResult{}, err
	}

	// The raw lead and its evidence are persisted before any mutation,
	// regardless of match outcome. This is the audit record.
	rawLeadID, err := a.store.InsertRawLead(ctx, runID, lead)
	if err != nil {
		return model.IngestionResult{}, err
	}
	partial := model.IngestionResult{RawLeadID: rawLeadID}

	if _, err := a.store.InsertEvidence(ctx, rawLeadID, lead.Evidence); err != nil {
		return partial, err
	}

	if match.BusinessID == "" {
		return a.createBusiness(ctx, rawLeadID, lead)
	}

	if match.Confidence >= a.cfg.Thresholds.AutoUpdate {
		return a.applyHighConfidence(ctx, rawLeadID, lead, match)
	}

	return a.suggestUpdates(ctx, rawLeadID, lead, match)
}

// createBusiness handles the no-match branch: a new draft record built from
// the lead, with defaults filled and the license flagged for verification.
func (a *Applicator) createBusiness(ctx context.Context, rawLeadID string, lead *model.NormalizedLead) (model.IngestionResult, error) {
	partial := model.IngestionResult{RawLeadID: rawLeadID}

	sub := a.submissionFromLead(lead)
	businessID, err := a.businesses.CreateSubmission(ctx, sub)
	if err != nil {
		return partial, err
	}

	if err := a.store.SetRawLeadBusiness(ctx, rawLeadID, businessID); err != nil {
		return partial, err
	}
	if err := a.store.InsertMatch(ctx, rawLeadID, &businessID, model.MatchNewCreation, 1.0); err != nil {
		return partial, err
	}

	a.log.Info("business created from lead",
		zap.String("business_id", businessID),
		zap.String("raw_lead_id", rawLeadID))

	return model.IngestionResult{
		Success:        true,
		Action:         model.ActionCreated,
		BusinessID:     &businessID,
		LifecycleState: model.LifecycleDraft,
		RawLeadID:      rawLeadID,
	}, nil
}

// applyHighConfidence handles confidence >= the auto-update threshold:
// drafts get a whitelisted field patch, everything else is skipped
// untouched no matter how confident the match is.
func (a *Applicator) applyHighConfidence(ctx context.Context, rawLeadID string, lead *model.NormalizedLead, match model.MatchResult) (model.IngestionResult, error) {
	partial := model.IngestionResult{RawLeadID: rawLeadID}

	current, err := a.businesses.Get(ctx, match.BusinessID)
	if err != nil {
		return partial, err
	}
	if current == nil {
		return partial, eris.Errorf("applicator: matched business %s not found", match.BusinessID)
	}

	if err := a.store.SetRawLeadBusiness(ctx, rawLeadID, match.BusinessID); err != nil {
		return partial, err
	}

	if current.Status != model.LifecycleDraft {
		if err := a.store.InsertMatch(ctx, rawLeadID, &match.BusinessID, match.Strategy, match.Confidence); err != nil {
			return partial, err
		}
		return model.IngestionResult{
			Success:        true,
			Action:         model.ActionSkippedPublished,
			BusinessID:     &match.BusinessID,
			LifecycleState: current.Status,
			RawLeadID:      rawLeadID,
		}, nil
	}

	patch, err := autoUpdatePatch(lead, current)
	if err != nil {
		return partial, err
	}
	if len(patch) > 0 {
		if err := a.businesses.UpdateFields(ctx, current.ID, patch); err != nil {
			return partial, err
		}
	}

	if err := a.store.InsertMatch(ctx, rawLeadID, &match.BusinessID, match.Strategy, match.Confidence); err != nil {
		return partial, err
	}

	a.log.Info("draft auto-updated",
		zap.String("business_id", current.ID),
		zap.String("strategy", string(match.Strategy)),
		zap.Int("fields", len(patch)))

	return model.IngestionResult{
		Success:        true,
		Action:         model.ActionUpdatedDraft,
		BusinessID:     &match.BusinessID,
		LifecycleState: model.LifecycleDraft,
		RawLeadID:      rawLeadID,
	}, nil
}

// suggestUpdates handles uncertain matches: no direct writes, only pending
// suggestions for the fields that actually differ.
func (a *Applicator) suggestUpdates(ctx context.Context, rawLeadID string, lead *model.NormalizedLead, match model.MatchResult) (model.IngestionResult, error) {
	partial := model.IngestionResult{RawLeadID: rawLeadID}

	current, err := a.businesses.Get(ctx, match.BusinessID)
	if err != nil {
		return partial, err
	}
	if current == nil {
		return partial, eris.Errorf("applicator: matched business %s not found", match.BusinessID)
	}

	if err := a.store.SetRawLeadBusiness(ctx, rawLeadID, match.BusinessID); err != nil {
		return partial, err
	}

	suggestions := diffSuggestions(lead, current, rawLeadID, a.cfg.Thresholds.Suggestion)
	count, err := a.store.InsertSuggestions(ctx, suggestions)
	if err != nil {
		return partial, err
	}

	if err := a.store.InsertMatch(ctx, rawLeadID, &match.BusinessID, match.Strategy, match.Confidence); err != nil {
		return partial, err
	}

	return model.IngestionResult{
		Success:          true,
		Action:           model.ActionSuggestedUpdates,
		BusinessID:       &match.BusinessID,
		LifecycleState:   current.Status,
		RawLeadID:        rawLeadID,
		SuggestionsCount: count,
	}, nil
}

// submissionFromLead maps a normalized lead onto the atomic create input,
// defaulting services/areas from config.
func (a *Applicator) submissionFromLead(lead *model.NormalizedLead) *business.Submission {
	services := lead.Services
	if len(services) == 0 {
		services = a.cfg.Defaults.Services
	}
	areas := lead.ServiceAreas
	if len(areas) == 0 {
		areas = a.cfg.Defaults.ServiceAreas
	}

	var emergency bool
	if lead.EmergencyAvailable != nil {
		emergency = *lead.EmergencyAvailable
	}

	return &business.Submission{
		TradingName:        lead.Name,
		LegalName:          lead.LegalName,
		Phone:              lead.Phone,
		Email:              lead.Email,
		Website:            lead.Website,
		StreetAddress:      lead.Address,
		Suburb:             lead.Suburb,
		State:              lead.State,
		Postcode:           lead.Postcode,
		Description:        lead.Description,
		LicenseNumber:      LicensePlaceholder,
		YearsExperience:    lead.YearsExperience,
		EmergencyAvailable: emergency,
		BusinessHours:      lead.BusinessHours,
		Rating:             lead.Rating,
		ReviewCount:        lead.ReviewCount,
		ExternalPlaceID:    lead.SourceExternalID,
		Services:           services,
		ServiceAreas:       areas,
		EditTokenHash:      newEditTokenHash(),
		Status:             model.LifecycleDraft,
	}
}

// autoUpdatePatch builds the whitelisted patch for a high-confidence draft
// match. Name, phone and license are deliberately excluded: those stay
// suggestion-only even at full confidence.
func autoUpdatePatch(lead *model.NormalizedLead, current *business.Record) (map[string]any, error) {
	patch := make(map[string]any)
	if lead.Website != "" && lead.Website != current.Website {
		patch["website"] = lead.Website
	}
	if lead.Address != "" && lead.Address != current.StreetAddress {
		patch["street_address"] = lead.Address
	}
	if len(lead.BusinessHours) > 0 && !hoursEqual(lead.BusinessHours, current.BusinessHours) {
		hoursJSON, err := json.Marshal(lead.BusinessHours)
		if err != nil {
			return nil, eris.Wrap(err, "applicator: encode business hours")
		}
		patch["raw_business_hours"] = hoursJSON
	}
	return patch, nil
}

// diffSuggestions files one suggestion per reviewable field that differs
// from the current record. Fields the lead leaves empty generate nothing.
func diffSuggestions(lead *model.NormalizedLead, current *business.Record, rawLeadID string, confidence float64) []model.SuggestedUpdate {
	candidates := []struct {
		field     string
		leadValue string
		current   string
	}{
		{"phone", lead.Phone, current.Phone},
		{"email", lead.Email, current.Email},
		{"website", lead.Website, current.Website},
		{"street_address", lead.Address, current.StreetAddress},
		{"description", lead.Description, current.Description},
	}

	var out []model.SuggestedUpdate
	for _, c := range candidates {
		if c.leadValue == "" || c.leadValue == c.current {
			continue
		}
		var currentValue *string
		if c.current != "" {
			v := c.current
			currentValue = &v
		}
		out = append(out, model.SuggestedUpdate{
			BusinessID:     current.ID,
			RawLeadID:      rawLeadID,
			FieldName:      c.field,
			CurrentValue:   currentValue,
			SuggestedValue: c.leadValue,
			Confidence:     confidence,
			Status:         model.ReviewPending,
		})
	}
	return out
}

func hoursEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// newEditTokenHash issues a random edit token and returns its hash. The
// plaintext is discarded: ingestion-created records have no submitter to
// hand it to, and a fresh token is minted when ownership is claimed.
func newEditTokenHash() string {
	sum := sha256.Sum256([]byte(uuid.NewString()))
	return hex.EncodeToString(sum[:])
}

// ApplyBatch applies leads in fixed-size chunks with bounded concurrency.
// Leads are independent: no ordering is guaranteed within a run, and one
// lead's failure only increments the failed count.
func (a *Applicator) ApplyBatch(ctx context.Context, runID string, leads []*model.NormalizedLead) *model.RunStats {
	stats := &model.RunStats{}
	var mu sync.Mutex

	chunkSize := a.cfg.BatchSize
	if chunkSize < 1 {
		chunkSize = 1
	}
	workers := a.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	for start := 0; start < len(leads); start += chunkSize {
		end := start + chunkSize
		if end > len(leads) {
			end = len(leads)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, lead := range leads[start:end] {
			g.Go(func() error {
				result := a.Apply(gctx, runID, lead)
				mu.Lock()
				stats.Add(result)
				mu.Unlock()
				return nil
			})
		}
		// Workers never return errors; Wait is a join point per chunk.
		_ = g.Wait()
	}

	return stats
}
