package model

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
)

// Source identifies where a lead was fetched from.
type Source string

const (
	SourceSeed                       Source = "seed"
	SourceDataForSEOSerpMaps         Source = "dataforseo_serp_maps"
	SourceDataForSEOBusinessListings Source = "dataforseo_business_listings"
	SourceGooglePlaces               Source = "google_places"
)

// ClaimType enumerates the business attributes a lead can assert.
type ClaimType string

const (
	ClaimName               ClaimType = "name"
	ClaimPhone              ClaimType = "phone"
	ClaimAddress            ClaimType = "address"
	ClaimWebsite            ClaimType = "website"
	ClaimCategory           ClaimType = "category"
	ClaimHours              ClaimType = "hours"
	ClaimRating             ClaimType = "rating"
	ClaimReviewCount        ClaimType = "review_count"
	ClaimEmergencyAvailable ClaimType = "emergency_available"
)

// EvidenceClaim is one attribute assertion extracted from a lead,
// independently confidence-scored so consumers can reason about
// field-level trust.
type EvidenceClaim struct {
	Type       ClaimType `json:"type" validate:"required,oneof=name phone address website category hours rating review_count emergency_available"`
	Value      string    `json:"value" validate:"required"`
	Confidence float64   `json:"confidence" validate:"min=0,max=1"`
	Provenance string    `json:"provenance" validate:"required"`
	ObservedAt time.Time `json:"observed_at"`
}

// NormalizedLead is the canonical form of one externally sourced observation
// about a candidate or existing business.
type NormalizedLead struct {
	Source           Source          `json:"source" validate:"required,oneof=seed dataforseo_serp_maps dataforseo_business_listings google_places"`
	SourceURL        string          `json:"source_url,omitempty" validate:"omitempty,url"`
	SourceExternalID string          `json:"source_external_id,omitempty"`
	RawPayload       json.RawMessage `json:"raw_payload,omitempty"`
	PayloadHash      string          `json:"payload_hash" validate:"required"`
	FetchedAt        time.Time       `json:"fetched_at"`

	Name               string            `json:"name" validate:"required"`
	LegalName          string            `json:"legal_name,omitempty"`
	Phone              string            `json:"phone,omitempty"`
	Email              string            `json:"email,omitempty" validate:"omitempty,email"`
	Website            string            `json:"website,omitempty" validate:"omitempty,url"`
	Address            string            `json:"address,omitempty"`
	Suburb             string            `json:"suburb,omitempty"`
	State              string            `json:"state,omitempty"`
	Postcode           string            `json:"postcode,omitempty"`
	Lat                *float64          `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng                *float64          `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Description        string            `json:"description,omitempty"`
	Services           []string          `json:"services,omitempty"`
	ServiceAreas       []string          `json:"service_areas,omitempty"`
	BusinessHours      map[string]string `json:"business_hours,omitempty"`
	YearsExperience    *int              `json:"years_experience,omitempty" validate:"omitempty,min=0"`
	EmergencyAvailable *bool             `json:"emergency_available,omitempty"`
	Rating             *float64          `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	ReviewCount        *int              `json:"review_count,omitempty" validate:"omitempty,min=0"`

	Evidence []EvidenceClaim `json:"evidence" validate:"dive"`
}

var leadValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the lead against the ingestion schema. Invalid leads are
// rejected before entering the pipeline rather than silently coerced.
func (l *NormalizedLead) Validate() error {
	if err := leadValidator.Struct(l); err != nil {
		return eris.Wrap(err, "model: invalid normalized lead")
	}
	return nil
}
