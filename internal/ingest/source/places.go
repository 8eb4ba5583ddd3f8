package source

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/graph-directory/directory-cli/internal/model"
	"github.com/graph-directory/directory-cli/internal/normalize"
)

// placeRecord is the exported Places-style JSON shape: one element per
// business as returned by maps/business-listing scrape tasks.
type placeRecord struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Phone            string   `json:"phone"`
	Website          string   `json:"website"`
	Address          string   `json:"address"`
	Suburb           string   `json:"suburb"`
	State            string   `json:"state"`
	Postcode         string   `json:"postcode"`
	Category         string   `json:"category"`
	Rating           *float64 `json:"rating"`
	ReviewCount      *int     `json:"review_count"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
	URL              string   `json:"url"`
	WorkHours        []string `json:"work_hours"`
	Description      string   `json:"description"`
	EmergencyService *bool    `json:"emergency_service"`
}

// LoadPlacesFile reads an exported JSON array of place records and returns
// validated normalized leads. The source is recorded per lead so the audit
// trail names where each observation came from.
func LoadPlacesFile(path string, src model.Source) ([]*model.NormalizedLead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read places file %s", path)
	}

	var records []placeRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrapf(err, "source: parse places file %s", path)
	}

	now := time.Now().UTC()
	leads := make([]*model.NormalizedLead, 0, len(records))
	for i, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, eris.Wrapf(err, "source: encode place record %d", i)
		}
		hash, err := normalize.PayloadHash(payload)
		if err != nil {
			return nil, eris.Wrapf(err, "source: hash place record %d", i)
		}

		lead := &model.NormalizedLead{
			Source:           src,
			SourceURL:        rec.URL,
			SourceExternalID: rec.PlaceID,
			RawPayload:       payload,
			PayloadHash:      hash,
			FetchedAt:        now,
			Name:             rec.Name,
			Phone:            rec.Phone,
			Website:          rec.Website,
			Address:          rec.Address,
			Suburb:           rec.Suburb,
			State:            rec.State,
			Postcode:         rec.Postcode,
			Description:      rec.Description,
			BusinessHours:    hoursFromList(rec.WorkHours),
			Lat:              rec.Latitude,
			Lng:              rec.Longitude,
			Rating:           rec.Rating,
			ReviewCount:      rec.ReviewCount,
		}
		if rec.EmergencyService != nil {
			lead.EmergencyAvailable = rec.EmergencyService
		}

		// Scraped claims carry lower confidence than seed fixtures.
		lead.Evidence = buildEvidence(lead, "places export "+path, 0.8, now)
		if rec.Category != "" {
			lead.Evidence = append(lead.Evidence, model.EvidenceClaim{
				Type:       model.ClaimCategory,
				Value:      rec.Category,
				Confidence: 0.8,
				Provenance: "places export " + path,
				ObservedAt: now,
			})
		}

		if err := lead.Validate(); err != nil {
			return nil, eris.Wrapf(err, "source: place record %d (%s)", i, rec.Name)
		}
		leads = append(leads, lead)
	}
	return leads, nil
}

// hoursFromList converts "Mon: 8am-5pm" style lines into the day-keyed map
// the registry stores. Lines without a day prefix are kept under "notes".
func hoursFromList(lines []string) map[string]string {
	if len(lines) == 0 {
		return nil
	}
	hours := make(map[string]string, len(lines))
	for _, line := range lines {
		day, span, ok := strings.Cut(line, ":")
		if !ok {
			hours["notes"] = strings.TrimSpace(line)
			continue
		}
		hours[strings.ToLower(strings.TrimSpace(day))] = strings.TrimSpace(span)
	}
	return hours
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int) string {
	return strconv.Itoa(v)
}
