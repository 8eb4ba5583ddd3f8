package business

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/graph-directory/directory-cli/internal/db"
	"github.com/graph-directory/directory-cli/internal/normalize"
)

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool db.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const businessColumns = `id, slug, trading_name, legal_name, phone, normalized_phone, email,
	website, website_domain, street_address, suburb, state, postcode,
	description, license_number, years_experience, emergency_available,
	raw_business_hours, rating, review_count, external_place_id, status,
	created_at, updated_at`

// Get fetches a business by ID.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	r := &Record{}
	var legalName, phone, normPhone, email, website, domain *string
	var street, suburb, state, postcode, description, license *string
	var hoursJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id=$1`, id).Scan(
		&r.ID, &r.Slug, &r.TradingName, &legalName, &phone, &normPhone, &email,
		&website, &domain, &street, &suburb, &state, &postcode,
		&description, &license, &r.YearsExperience, &r.EmergencyAvailable,
		&hoursJSON, &r.Rating, &r.ReviewCount, &r.ExternalPlaceID, &r.Status,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "business: get %s", id)
	}

	r.LegalName = deref(legalName)
	r.Phone = deref(phone)
	r.NormalizedPhone = deref(normPhone)
	r.Email = deref(email)
	r.Website = deref(website)
	r.WebsiteDomain = deref(domain)
	r.StreetAddress = deref(street)
	r.Suburb = deref(suburb)
	r.State = deref(state)
	r.Postcode = deref(postcode)
	r.Description = deref(description)
	r.LicenseNumber = deref(license)
	if len(hoursJSON) > 0 {
		if err := json.Unmarshal(hoursJSON, &r.BusinessHours); err != nil {
			return nil, eris.Wrapf(err, "business: decode hours for %s", id)
		}
	}
	return r, nil
}

// FindIDByExternalID looks up a business by the source's own identifier.
func (s *PostgresStore) FindIDByExternalID(ctx context.Context, externalID string) (string, error) {
	return s.findID(ctx, `SELECT id FROM businesses WHERE external_place_id=$1`, externalID)
}

// FindIDByDomain looks up a business by normalized website domain.
func (s *PostgresStore) FindIDByDomain(ctx context.Context, domain string) (string, error) {
	return s.findID(ctx, `SELECT id FROM businesses WHERE website_domain=$1`, domain)
}

// FindIDByPhone looks up a business by normalized phone.
func (s *PostgresStore) FindIDByPhone(ctx context.Context, normalizedPhone string) (string, error) {
	return s.findID(ctx, `SELECT id FROM businesses WHERE normalized_phone=$1`, normalizedPhone)
}

// SearchIDByNameSuburb runs a full-text lookup over trading name + suburb.
func (s *PostgresStore) SearchIDByNameSuburb(ctx context.Context, name, suburb string) (string, error) {
	query := strings.TrimSpace(name + " " + suburb)
	return s.findID(ctx,
		`SELECT id FROM businesses
		 WHERE search_vector @@ plainto_tsquery('english', $1)
		 ORDER BY ts_rank(search_vector, plainto_tsquery('english', $1)) DESC
		 LIMIT 1`, query)
}

func (s *PostgresStore) findID(ctx context.Context, sql string, arg any) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, sql, arg).Scan(&id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", nil
		}
		return "", eris.Wrap(err, "business: find id")
	}
	return id, nil
}

// CreateSubmission creates the business row and its service/area junction
// rows in one transaction. All-or-nothing: a failed junction insert rolls
// back the business row.
func (s *PostgresStore) CreateSubmission(ctx context.Context, sub *Submission) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", eris.Wrap(err, "business: begin submission")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var hoursJSON []byte
	if len(sub.BusinessHours) > 0 {
		hoursJSON, err = json.Marshal(sub.BusinessHours)
		if err != nil {
			return "", eris.Wrap(err, "business: encode hours")
		}
	}

	status := sub.Status
	if status == "" {
		status = "draft"
	}

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO businesses (
			slug, trading_name, legal_name, phone, normalized_phone, email,
			website, website_domain, street_address, suburb, state, postcode,
			description, license_number, years_experience, emergency_available,
			raw_business_hours, rating, review_count, external_place_id,
			edit_token_hash, status
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18, $19, $20,
			$21, $22
		) RETURNING id`,
		Slugify(sub.TradingName), sub.TradingName, nilIfEmpty(sub.LegalName),
		sub.Phone, nilIfEmpty(normalize.Phone(sub.Phone)), nilIfEmpty(sub.Email),
		nilIfEmpty(sub.Website), nilIfEmpty(normalize.Domain(sub.Website)),
		nilIfEmpty(sub.StreetAddress), nilIfEmpty(sub.Suburb), nilIfEmpty(sub.State), nilIfEmpty(sub.Postcode),
		nilIfEmpty(sub.Description), nilIfEmpty(sub.LicenseNumber),
		sub.YearsExperience, sub.EmergencyAvailable,
		hoursJSON, sub.Rating, sub.ReviewCount, nilIfEmpty(sub.ExternalPlaceID),
		nilIfEmpty(sub.EditTokenHash), status,
	).Scan(&id)
	if err != nil {
		return "", eris.Wrap(err, "business: insert submission")
	}

	if err := linkSlugs(ctx, tx, "services", "business_services", "service_slug", id, sub.Services); err != nil {
		return "", err
	}
	if err := linkSlugs(ctx, tx, "service_areas", "business_service_areas", "area_slug", id, sub.ServiceAreas); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", eris.Wrap(err, "business: commit submission")
	}
	return id, nil
}

func linkSlugs(ctx context.Context, tx pgx.Tx, refTable, junctionTable, slugCol, businessID string, slugs []string) error {
	for _, slug := range slugs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+refTable+` (slug) VALUES ($1) ON CONFLICT (slug) DO NOTHING`, slug,
		); err != nil {
			return eris.Wrapf(err, "business: ensure %s %s", refTable, slug)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+junctionTable+` (business_id, `+slugCol+`) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			businessID, slug,
		); err != nil {
			return eris.Wrapf(err, "business: link %s %s", junctionTable, slug)
		}
	}
	return nil
}

// updatableColumns restricts which columns UpdateFields will touch.
var updatableColumns = map[string]bool{
	"phone":              true,
	"email":              true,
	"website":            true,
	"street_address":     true,
	"description":        true,
	"raw_business_hours": true,
}

// UpdateFields applies a narrow field patch and refreshes derived columns.
func (s *PostgresStore) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	patch := make(map[string]any, len(fields)+2)
	for col, v := range fields {
		if !updatableColumns[col] {
			return eris.Errorf("business: column %s is not updatable", col)
		}
		patch[col] = v
	}
	if v, ok := patch["phone"]; ok {
		if p, ok := v.(string); ok {
			patch["normalized_phone"] = nilIfEmpty(normalize.Phone(p))
		}
	}
	if v, ok := patch["website"]; ok {
		if w, ok := v.(string); ok {
			patch["website_domain"] = nilIfEmpty(normalize.Domain(w))
		}
	}

	cols := make([]string, 0, len(patch))
	for col := range patch {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	var set []string
	args := []any{id}
	for _, col := range cols {
		args = append(args, patch[col])
		set = append(set, pgx.Identifier{col}.Sanitize()+"=$"+strconv.Itoa(len(args)))
	}

	sql := `UPDATE businesses SET ` + strings.Join(set, ", ") + `, updated_at=now() WHERE id=$1`
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return eris.Wrapf(err, "business: update %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("business: update %s: no such business", id)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
