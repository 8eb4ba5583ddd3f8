package ingest

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/graph-directory/directory-cli/internal/business"
	"github.com/graph-directory/directory-cli/internal/model"
)

// fakeRegistry is an in-memory business.Store for matcher/applicator tests.
// Mutex-guarded because ApplyBatch exercises it from multiple goroutines.
type fakeRegistry struct {
	mu         sync.Mutex
	records    map[string]*business.Record
	byExternal map[string]string
	byDomain   map[string]string
	byPhone    map[string]string
	bySearch   map[string]string

	created []*business.Submission
	updates map[string]map[string]any
	lookups []string

	failCreate bool
	failUpdate bool
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		records:    map[string]*business.Record{},
		byExternal: map[string]string{},
		byDomain:   map[string]string{},
		byPhone:    map[string]string{},
		bySearch:   map[string]string{},
		updates:    map[string]map[string]any{},
	}
}

func (f *fakeRegistry) Get(_ context.Context, id string) (*business.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id], nil
}

func (f *fakeRegistry) FindIDByExternalID(_ context.Context, externalID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, "external_id")
	return f.byExternal[externalID], nil
}

func (f *fakeRegistry) FindIDByDomain(_ context.Context, domain string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, "domain")
	return f.byDomain[domain], nil
}

func (f *fakeRegistry) FindIDByPhone(_ context.Context, phone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, "phone")
	return f.byPhone[phone], nil
}

func (f *fakeRegistry) SearchIDByNameSuburb(_ context.Context, name, suburb string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, "name_suburb")
	return f.bySearch[strings.TrimSpace(name+" "+suburb)], nil
}

func (f *fakeRegistry) CreateSubmission(_ context.Context, sub *business.Submission) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return "", errors.New("create failed")
	}
	f.created = append(f.created, sub)
	id := "b-new-" + strconv.Itoa(len(f.created))
	f.records[id] = &business.Record{
		ID:          id,
		TradingName: sub.TradingName,
		Status:      sub.Status,
	}
	return id, nil
}

func (f *fakeRegistry) UpdateFields(_ context.Context, id string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate {
		return errors.New("update failed")
	}
	f.updates[id] = fields
	return nil
}

// fakeAuditStore is an in-memory ingest.Store.
type fakeAuditStore struct {
	mu          sync.Mutex
	rawLeads    []*model.RawLead
	evidence    map[string][]model.EvidenceClaim
	matches     []model.LeadMatch
	suggestions []model.SuggestedUpdate

	failRawLead  bool
	failEvidence bool
	failMatch    bool
}

func newFakeAuditStore() *fakeAuditStore {
	return &fakeAuditStore{evidence: map[string][]model.EvidenceClaim{}}
}

func (f *fakeAuditStore) InsertRawLead(_ context.Context, runID string, lead *model.NormalizedLead) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRawLead {
		return "", errors.New("raw lead insert failed")
	}
	id := "rl-" + strconv.Itoa(len(f.rawLeads)+1)
	f.rawLeads = append(f.rawLeads, &model.RawLead{
		ID:             id,
		IngestionRunID: runID,
		Source:         lead.Source,
		PayloadHash:    lead.PayloadHash,
	})
	return id, nil
}

func (f *fakeAuditStore) SetRawLeadBusiness(_ context.Context, rawLeadID, businessID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rl := range f.rawLeads {
		if rl.ID == rawLeadID {
			rl.BusinessID = &businessID
		}
	}
	return nil
}

func (f *fakeAuditStore) InsertEvidence(_ context.Context, rawLeadID string, claims []model.EvidenceClaim) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failEvidence {
		return 0, errors.New("evidence insert failed")
	}
	f.evidence[rawLeadID] = claims
	return int64(len(claims)), nil
}

func (f *fakeAuditStore) InsertMatch(_ context.Context, rawLeadID string, businessID *string, strategy model.MatchStrategy, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failMatch {
		return errors.New("match insert failed")
	}
	f.matches = append(f.matches, model.LeadMatch{
		RawLeadID:     rawLeadID,
		BusinessID:    businessID,
		MatchStrategy: strategy,
		MatchScore:    score,
	})
	return nil
}

func (f *fakeAuditStore) InsertSuggestions(_ context.Context, suggestions []model.SuggestedUpdate) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestions = append(f.suggestions, suggestions...)
	return len(suggestions), nil
}

func (f *fakeAuditStore) GetRawLead(_ context.Context, id string) (*model.RawLead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rl := range f.rawLeads {
		if rl.ID == id {
			return rl, nil
		}
	}
	return nil, nil
}

func (f *fakeAuditStore) ListEvidence(_ context.Context, rawLeadID string) ([]model.LeadEvidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LeadEvidence
	for _, c := range f.evidence[rawLeadID] {
		out = append(out, model.LeadEvidence{
			RawLeadID:  rawLeadID,
			ClaimType:  c.Type,
			ClaimValue: c.Value,
			Confidence: c.Confidence,
		})
	}
	return out, nil
}

func (f *fakeAuditStore) GetMatch(_ context.Context, rawLeadID string) (*model.LeadMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.matches {
		if f.matches[i].RawLeadID == rawLeadID {
			return &f.matches[i], nil
		}
	}
	return nil, nil
}
