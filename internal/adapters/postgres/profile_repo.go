package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// ProfileRepo implements ports.ClinicProfileRepository on the clinics table.
type ProfileRepo struct {
	db *DB
}

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

// GetByID returns the private profile of a clinic.
func (r *ProfileRepo) GetByID(ctx context.Context, clinicID string) (*domain.ClinicProfile, error) {
	var (
		p   domain.ClinicProfile
		lat *float64
		lng *float64
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT clinic_id, COALESCE(owner_id, ''), clinic_name, subscribed,
		       COALESCE(country_code, ''), COALESCE(country, ''), COALESCE(city, ''),
		       COALESCE(profile_image_url, ''), COALESCE(clinic_image_url, ''), COALESCE(image_url, ''),
		       COALESCE(clinic_phone, ''), COALESCE(clinic_type, ''), COALESCE(whatsapp, ''),
		       COALESCE(address, ''),
		       ST_Y(location::geometry), ST_X(location::geometry)
		FROM clinics WHERE clinic_id = $1
	`, clinicID).Scan(
		&p.ClinicID, &p.OwnerID, &p.ClinicName, &p.Subscribed,
		&p.CountryCode, &p.Country, &p.City,
		&p.ProfileImageURL, &p.ClinicImageURL, &p.ImageURL,
		&p.ClinicPhone, &p.ClinicType, &p.WhatsApp, &p.Address,
		&lat, &lng,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		p.Location = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	return &p, nil
}

// UpsertProfile writes a private profile. Used by the ingestor to seed
// profiles from a directory export.
func (r *ProfileRepo) UpsertProfile(ctx context.Context, p *domain.ClinicProfile) error {
	var lat, lng *float64
	if p.Location != nil {
		lat, lng = &p.Location.Lat, &p.Location.Lng
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO clinics (
			clinic_id, owner_id, clinic_name, subscribed, country_code, country, city,
			profile_image_url, clinic_image_url, image_url, clinic_phone, clinic_type,
			whatsapp, address, location, updated_at
		)
		VALUES (
			$1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''),
			NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''),
			NULLIF($13, ''), NULLIF($14, ''),
			CASE WHEN $15::float8 IS NULL OR $16::float8 IS NULL THEN NULL
			     ELSE ST_SetSRID(ST_MakePoint($16::float8, $15::float8), 4326)::geography END,
			now()
		)
		ON CONFLICT (clinic_id) DO UPDATE
		SET owner_id = EXCLUDED.owner_id, clinic_name = EXCLUDED.clinic_name,
		    subscribed = EXCLUDED.subscribed, country_code = EXCLUDED.country_code,
		    country = EXCLUDED.country, city = EXCLUDED.city,
		    profile_image_url = EXCLUDED.profile_image_url, clinic_image_url = EXCLUDED.clinic_image_url,
		    image_url = EXCLUDED.image_url, clinic_phone = EXCLUDED.clinic_phone,
		    clinic_type = EXCLUDED.clinic_type, whatsapp = EXCLUDED.whatsapp,
		    address = EXCLUDED.address, location = EXCLUDED.location, updated_at = now()
	`, p.ClinicID, p.OwnerID, p.ClinicName, p.Subscribed, p.CountryCode, p.Country, p.City,
		p.ProfileImageURL, p.ClinicImageURL, p.ImageURL, p.ClinicPhone, p.ClinicType,
		p.WhatsApp, p.Address, lat, lng)
	return err
}
