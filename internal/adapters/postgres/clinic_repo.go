package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// mergeClinicSQL upserts a directory entry. Empty optional values arrive as
// NULL and keep whatever the row already holds.
const mergeClinicSQL = `
	INSERT INTO clinics_public (
		id, clinic_id, owner_id, name, country, city, is_published,
		hero_image, phone, whatsapp, address, specialty, geohash, geo, updated_at
	)
	VALUES (
		$1, $2, $3, $4, $5, $6, $7,
		NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, ''), NULLIF($13, ''),
		CASE WHEN $14::float8 IS NULL OR $15::float8 IS NULL THEN NULL
		     ELSE ST_SetSRID(ST_MakePoint($15::float8, $14::float8), 4326)::geography END,
		$16
	)
	ON CONFLICT (id) DO UPDATE
	SET clinic_id    = EXCLUDED.clinic_id,
	    owner_id     = EXCLUDED.owner_id,
	    name         = EXCLUDED.name,
	    country      = EXCLUDED.country,
	    city         = EXCLUDED.city,
	    is_published = EXCLUDED.is_published,
	    hero_image   = COALESCE(EXCLUDED.hero_image, clinics_public.hero_image),
	    phone        = COALESCE(EXCLUDED.phone, clinics_public.phone),
	    whatsapp     = COALESCE(EXCLUDED.whatsapp, clinics_public.whatsapp),
	    address      = COALESCE(EXCLUDED.address, clinics_public.address),
	    specialty    = COALESCE(EXCLUDED.specialty, clinics_public.specialty),
	    geohash      = COALESCE(EXCLUDED.geohash, clinics_public.geohash),
	    geo          = COALESCE(EXCLUDED.geo, clinics_public.geo),
	    updated_at   = EXCLUDED.updated_at
`

const selectClinicSQL = `
	SELECT id, clinic_id, owner_id, name,
	       COALESCE(hero_image, ''), COALESCE(phone, ''), COALESCE(whatsapp, ''), COALESCE(address, ''),
	       country, city,
	       ST_Y(geo::geometry), ST_X(geo::geometry),
	       COALESCE(geohash, ''), is_published, tier, average_rating, total_reviews,
	       COALESCE(specialty, ''), updated_at
	FROM clinics_public
`

// ClinicRepo implements ports.ClinicRepository with pgx on clinics_public.
type ClinicRepo struct {
	db *DB
}

// NewClinicRepo creates a new ClinicRepo.
func NewClinicRepo(db *DB) *ClinicRepo {
	return &ClinicRepo{db: db}
}

func mergeArgs(c *domain.Clinic) []any {
	var lat, lng *float64
	if c.HasValidGeo() {
		lat, lng = &c.Geo.Lat, &c.Geo.Lng
	}
	return []any{
		c.ID, c.ClinicID, c.OwnerID, c.Name, c.Country, c.City, c.IsPublished,
		c.HeroImage, c.Phone, c.WhatsApp, c.Address, c.Specialty, c.Geohash,
		lat, lng, c.UpdatedAt,
	}
}

// Merge inserts or updates a single directory entry.
func (r *ClinicRepo) Merge(ctx context.Context, c *domain.Clinic) error {
	_, err := r.db.Pool.Exec(ctx, mergeClinicSQL, mergeArgs(c)...)
	return err
}

// UpsertBatch merges many entries using pgx.Batch.
func (r *ClinicRepo) UpsertBatch(ctx context.Context, clinics []domain.Clinic) error {
	batch := &pgx.Batch{}
	for i := range clinics {
		batch.Queue(mergeClinicSQL, mergeArgs(&clinics[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range clinics {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a directory entry, published or not.
func (r *ClinicRepo) GetByID(ctx context.Context, id string) (*domain.Clinic, error) {
	c, err := scanClinic(r.db.Pool.QueryRow(ctx, selectClinicSQL+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListPublished returns every published entry, most recently updated first.
func (r *ClinicRepo) ListPublished(ctx context.Context) ([]domain.Clinic, error) {
	rows, err := r.db.Pool.Query(ctx, selectClinicSQL+`
		WHERE is_published
		ORDER BY updated_at DESC, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinics []domain.Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		clinics = append(clinics, *c)
	}
	return clinics, rows.Err()
}

// FindNearby returns published clinics within radiusMeters using PostGIS ST_DWithin.
func (r *ClinicRepo) FindNearby(ctx context.Context, lat, lng, radiusMeters float64, limit int) ([]domain.Clinic, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, clinic_id, owner_id, name,
		       COALESCE(hero_image, ''), COALESCE(phone, ''), COALESCE(whatsapp, ''), COALESCE(address, ''),
		       country, city,
		       ST_Y(geo::geometry), ST_X(geo::geometry),
		       COALESCE(geohash, ''), is_published, tier, average_rating, total_reviews,
		       COALESCE(specialty, ''), updated_at,
		       ST_Distance(geo, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000.0 AS distance_km
		FROM clinics_public
		WHERE is_published
		  AND ST_DWithin(geo, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance_km
		LIMIT $4
	`, lng, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinics []domain.Clinic
	for rows.Next() {
		var (
			c        domain.Clinic
			gLat     *float64
			gLng     *float64
			distance float64
		)
		if err := rows.Scan(
			&c.ID, &c.ClinicID, &c.OwnerID, &c.Name,
			&c.HeroImage, &c.Phone, &c.WhatsApp, &c.Address,
			&c.Country, &c.City, &gLat, &gLng,
			&c.Geohash, &c.IsPublished, &c.Tier, &c.AverageRating, &c.TotalReviews,
			&c.Specialty, &c.UpdatedAt, &distance,
		); err != nil {
			return nil, err
		}
		if gLat != nil && gLng != nil {
			c.Geo = &domain.GeoPoint{Lat: *gLat, Lng: *gLng}
		}
		c.Distance = &distance
		clinics = append(clinics, c)
	}
	return clinics, rows.Err()
}

func scanClinic(row pgx.Row) (*domain.Clinic, error) {
	var (
		c    domain.Clinic
		gLat *float64
		gLng *float64
	)
	if err := row.Scan(
		&c.ID, &c.ClinicID, &c.OwnerID, &c.Name,
		&c.HeroImage, &c.Phone, &c.WhatsApp, &c.Address,
		&c.Country, &c.City, &gLat, &gLng,
		&c.Geohash, &c.IsPublished, &c.Tier, &c.AverageRating, &c.TotalReviews,
		&c.Specialty, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if gLat != nil && gLng != nil {
		c.Geo = &domain.GeoPoint{Lat: *gLat, Lng: *gLng}
	}
	return &c, nil
}
