// Package source turns external lead files into normalized leads ready for
// the applicator: YAML seed fixtures and exported Places-style JSON.
package source

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/graph-directory/directory-cli/internal/model"
	"github.com/graph-directory/directory-cli/internal/normalize"
)

// seedFile is the YAML fixture layout for the seed/demo driver.
type seedFile struct {
	Leads []seedLead `yaml:"leads"`
}

type seedLead struct {
	Name               string            `yaml:"name"`
	LegalName          string            `yaml:"legal_name"`
	ExternalID         string            `yaml:"external_id"`
	Phone              string            `yaml:"phone"`
	Email              string            `yaml:"email"`
	Website            string            `yaml:"website"`
	Address            string            `yaml:"address"`
	Suburb             string            `yaml:"suburb"`
	State              string            `yaml:"state"`
	Postcode           string            `yaml:"postcode"`
	Description        string            `yaml:"description"`
	Services           []string          `yaml:"services"`
	ServiceAreas       []string          `yaml:"service_areas"`
	BusinessHours      map[string]string `yaml:"business_hours"`
	YearsExperience    *int              `yaml:"years_experience"`
	EmergencyAvailable *bool             `yaml:"emergency_available"`
	Rating             *float64          `yaml:"rating"`
	ReviewCount        *int              `yaml:"review_count"`
}

// LoadSeedFile reads a YAML fixture and returns validated normalized leads.
func LoadSeedFile(path string) ([]*model.NormalizedLead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read seed file %s", path)
	}

	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrapf(err, "source: parse seed file %s", path)
	}

	now := time.Now().UTC()
	leads := make([]*model.NormalizedLead, 0, len(file.Leads))
	for i, s := range file.Leads {
		payload, err := json.Marshal(s)
		if err != nil {
			return nil, eris.Wrapf(err, "source: encode seed lead %d", i)
		}
		hash, err := normalize.PayloadHash(payload)
		if err != nil {
			return nil, eris.Wrapf(err, "source: hash seed lead %d", i)
		}

		lead := &model.NormalizedLead{
			Source:             model.SourceSeed,
			SourceExternalID:   s.ExternalID,
			RawPayload:         payload,
			PayloadHash:        hash,
			FetchedAt:          now,
			Name:               s.Name,
			LegalName:          s.LegalName,
			Phone:              s.Phone,
			Email:              s.Email,
			Website:            s.Website,
			Address:            s.Address,
			Suburb:             s.Suburb,
			State:              s.State,
			Postcode:           s.Postcode,
			Description:        s.Description,
			Services:           s.Services,
			ServiceAreas:       s.ServiceAreas,
			BusinessHours:      s.BusinessHours,
			YearsExperience:    s.YearsExperience,
			EmergencyAvailable: s.EmergencyAvailable,
			Rating:             s.Rating,
			ReviewCount:        s.ReviewCount,
		}
		lead.Evidence = buildEvidence(lead, "seed fixture "+path, 1.0, now)

		if err := lead.Validate(); err != nil {
			return nil, eris.Wrapf(err, "source: seed lead %d (%s)", i, s.Name)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// buildEvidence derives one confidence-scored claim per populated field.
func buildEvidence(lead *model.NormalizedLead, provenance string, confidence float64, observedAt time.Time) []model.EvidenceClaim {
	add := func(claims []model.EvidenceClaim, t model.ClaimType, value string) []model.EvidenceClaim {
		if value == "" {
			return claims
		}
		return append(claims, model.EvidenceClaim{
			Type:       t,
			Value:      value,
			Confidence: confidence,
			Provenance: provenance,
			ObservedAt: observedAt,
		})
	}

	var claims []model.EvidenceClaim
	claims = add(claims, model.ClaimName, lead.Name)
	claims = add(claims, model.ClaimPhone, lead.Phone)
	claims = add(claims, model.ClaimAddress, lead.Address)
	claims = add(claims, model.ClaimWebsite, lead.Website)
	if len(lead.BusinessHours) > 0 {
		if hoursJSON, err := json.Marshal(lead.BusinessHours); err == nil {
			claims = add(claims, model.ClaimHours, string(hoursJSON))
		}
	}
	if lead.Rating != nil {
		claims = add(claims, model.ClaimRating, formatFloat(*lead.Rating))
	}
	if lead.ReviewCount != nil {
		claims = add(claims, model.ClaimReviewCount, formatInt(*lead.ReviewCount))
	}
	if lead.EmergencyAvailable != nil && *lead.EmergencyAvailable {
		claims = add(claims, model.ClaimEmergencyAvailable, "true")
	}
	return claims
}
