// Package business provides the business registry: the shared record that
// ingestion matches against and mutates under lifecycle rules.
package business

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/graph-directory/directory-cli/internal/model"
)

// Record is one business row in the registry.
type Record struct {
	ID                 string               `json:"id"`
	Slug               string               `json:"slug"`
	TradingName        string               `json:"trading_name"`
	LegalName          string               `json:"legal_name,omitempty"`
	Phone              string               `json:"phone,omitempty"`
	NormalizedPhone    string               `json:"normalized_phone,omitempty"`
	Email              string               `json:"email,omitempty"`
	Website            string               `json:"website,omitempty"`
	WebsiteDomain      string               `json:"website_domain,omitempty"`
	StreetAddress      string               `json:"street_address,omitempty"`
	Suburb             string               `json:"suburb,omitempty"`
	State              string               `json:"state,omitempty"`
	Postcode           string               `json:"postcode,omitempty"`
	Description        string               `json:"description,omitempty"`
	LicenseNumber      string               `json:"license_number,omitempty"`
	YearsExperience    *int                 `json:"years_experience,omitempty"`
	EmergencyAvailable bool                 `json:"emergency_available"`
	BusinessHours      map[string]string    `json:"business_hours,omitempty"`
	Rating             *float64             `json:"rating,omitempty"`
	ReviewCount        *int                 `json:"review_count,omitempty"`
	ExternalPlaceID    *string              `json:"external_place_id,omitempty"`
	Status             model.LifecycleState `json:"status"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// Submission is the input to the atomic create-with-relationships operation:
// core business fields plus resolved service/area slugs and the hash of the
// edit-authorization token issued for the new record.
type Submission struct {
	TradingName        string
	LegalName          string
	Phone              string
	Email              string
	Website            string
	StreetAddress      string
	Suburb             string
	State              string
	Postcode           string
	Description        string
	LicenseNumber      string
	YearsExperience    *int
	EmergencyAvailable bool
	BusinessHours      map[string]string
	Rating             *float64
	ReviewCount        *int
	ExternalPlaceID    string
	Services           []string
	ServiceAreas       []string
	EditTokenHash      string
	Status             model.LifecycleState
}

var slugCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds a URL slug from a trading name plus a short random suffix
// so colliding names stay unique.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugCleanRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "business"
	}
	return s + "-" + uuid.NewString()[:8]
}
