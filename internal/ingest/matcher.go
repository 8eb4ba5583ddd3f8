package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/graph-directory/directory-cli/internal/business"
	"github.com/graph-directory/directory-cli/internal/config"
	"github.com/graph-directory/directory-cli/internal/model"
	"github.com/graph-directory/directory-cli/internal/normalize"
)

// Matcher resolves a normalized lead against the business registry using
// ordered, short-circuiting tiers. Tiers are ordered by decreasing
// reliability: the top tiers are authoritative identifiers, the fuzzy tier
// is deliberately scored below the auto-update threshold so it always
// routes through human review.
type Matcher struct {
	businesses business.Store
	thresholds config.Thresholds
	log        *zap.Logger
}

// NewMatcher creates a Matcher over the given registry store.
func NewMatcher(businesses business.Store, thresholds config.Thresholds) *Matcher {
	return &Matcher{
		businesses: businesses,
		thresholds: thresholds,
		log:        zap.L().With(zap.String("component", "ingest.matcher")),
	}
}

// Match runs the tier cascade. Each tier is queried only if the previous
// produced no match. An empty BusinessID with strategy "none" signals a
// candidate for new-record creation.
func (m *Matcher) Match(ctx context.Context, lead *model.NormalizedLead) (model.MatchResult, error) {
	// Tier 1: source's own identifier.
	if lead.SourceExternalID != "" {
		id, err := m.businesses.FindIDByExternalID(ctx, lead.SourceExternalID)
		if err != nil {
			return model.MatchResult{}, eris.Wrap(err, "matcher: external id lookup")
		}
		if id != "" {
			m.log.Debug("matched by external id",
				zap.String("business_id", id),
				zap.String("external_id", lead.SourceExternalID))
			return model.MatchResult{BusinessID: id, Strategy: model.MatchExternalID, Confidence: m.thresholds.ExternalID}, nil
		}
	}

	// Tier 2: registrable domain of the lead's website.
	if domain := normalize.Domain(lead.Website); domain != "" {
		id, err := m.businesses.FindIDByDomain(ctx, domain)
		if err != nil {
			return model.MatchResult{}, eris.Wrap(err, "matcher: domain lookup")
		}
		if id != "" {
			m.log.Debug("matched by domain",
				zap.String("business_id", id),
				zap.String("domain", domain))
			return model.MatchResult{BusinessID: id, Strategy: model.MatchDomain, Confidence: m.thresholds.Domain}, nil
		}
	}

	// Tier 3: normalized phone.
	if phone := normalize.Phone(lead.Phone); phone != "" {
		id, err := m.businesses.FindIDByPhone(ctx, phone)
		if err != nil {
			return model.MatchResult{}, eris.Wrap(err, "matcher: phone lookup")
		}
		if id != "" {
			m.log.Debug("matched by phone",
				zap.String("business_id", id),
				zap.String("phone", phone))
			return model.MatchResult{BusinessID: id, Strategy: model.MatchPhone, Confidence: m.thresholds.Phone}, nil
		}
	}

	// Tier 4: fuzzy full-text match on name + suburb.
	if lead.Name != "" {
		id, err := m.businesses.SearchIDByNameSuburb(ctx, normalize.Name(lead.Name), lead.Suburb)
		if err != nil {
			return model.MatchResult{}, eris.Wrap(err, "matcher: name+suburb search")
		}
		if id != "" {
			m.log.Debug("matched by name+suburb",
				zap.String("business_id", id),
				zap.String("name", lead.Name),
				zap.String("suburb", lead.Suburb))
			return model.MatchResult{BusinessID: id, Strategy: model.MatchNameSuburb, Confidence: m.thresholds.NameSuburb}, nil
		}
	}

	return model.MatchResult{Strategy: model.MatchNone, Confidence: 0}, nil
}
