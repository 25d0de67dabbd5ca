package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// Clinic is a published entry of the public clinic directory (clinics_public).
type Clinic struct {
	ID            string    `json:"id"`
	ClinicID      string    `json:"clinic_id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	HeroImage     string    `json:"hero_image,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	WhatsApp      string    `json:"whatsapp,omitempty"`
	Address       string    `json:"address,omitempty"`
	Country       string    `json:"country,omitempty"`
	City          string    `json:"city,omitempty"`
	Geo           *GeoPoint `json:"geo,omitempty"`
	Geohash       string    `json:"geohash,omitempty"`
	IsPublished   bool      `json:"is_published"`
	Tier          string    `json:"tier,omitempty"` // "pro" | "standard"
	AverageRating *float64  `json:"average_rating,omitempty"`
	TotalReviews  int       `json:"total_reviews"`
	Specialty     string    `json:"specialty,omitempty"`
	Distance      *float64  `json:"distance_km,omitempty"` // computed field
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasValidGeo reports whether the clinic carries a finite coordinate.
func (c *Clinic) HasValidGeo() bool {
	if c.Geo == nil {
		return false
	}
	return !math.IsNaN(c.Geo.Lat) && !math.IsInf(c.Geo.Lat, 0) &&
		!math.IsNaN(c.Geo.Lng) && !math.IsInf(c.Geo.Lng, 0)
}

// GeohashPrecision is the precision assigned to clinics published without a geohash.
const GeohashPrecision = 7

// NeedsGeohash reports whether a geohash should be derived for the clinic.
func (c *Clinic) NeedsGeohash() bool {
	return c.Geohash == "" && c.HasValidGeo()
}

// POI returns the clinic as a map point of interest.
func (c *Clinic) POI() POI {
	p := POI{ID: c.ID, Name: c.Name}
	if c.Geo != nil {
		p.Location = *c.Geo
	}
	return p
}

// ClinicProfile is the private clinic document (clinics) the public directory is derived from.
type ClinicProfile struct {
	ClinicID        string    `json:"clinic_id"`
	OwnerID         string    `json:"owner_id,omitempty"`
	ClinicName      string    `json:"clinic_name"`
	Subscribed      bool      `json:"subscribed"`
	CountryCode     string    `json:"country_code,omitempty"`
	Country         string    `json:"country,omitempty"`
	City            string    `json:"city,omitempty"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	ClinicImageURL  string    `json:"clinic_image_url,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	ClinicPhone     string    `json:"clinic_phone,omitempty"`
	ClinicType      string    `json:"clinic_type,omitempty"`
	WhatsApp        string    `json:"whatsapp,omitempty"`
	Address         string    `json:"address,omitempty"`
	Location        *GeoPoint `json:"location,omitempty"`
}

// Category is the map filter category a clinic specialty maps onto.
type Category string

const (
	CategoryAll    Category = "all"
	CategoryDental Category = "dental"
	CategoryLaser  Category = "laser"
	CategoryBeauty Category = "beauty"
)

// ParseCategory normalises a filter value; anything unknown means all.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryDental:
		return CategoryDental
	case CategoryLaser:
		return CategoryLaser
	case CategoryBeauty:
		return CategoryBeauty
	default:
		return CategoryAll
	}
}

// DeriveCategory maps a clinic specialty onto a filter category.
// The second return value is false when the specialty has no category.
func DeriveCategory(specialty string) (Category, bool) {
	switch strings.ToLower(specialty) {
	case "general", "orthodontics", "cosmetic", "pediatric",
		"surgery", "endodontics", "periodontics", "prosthodontics":
		return CategoryDental, true
	case "laser":
		return CategoryLaser, true
	case "beauty":
		return CategoryBeauty, true
	default:
		return "", false
	}
}

// ClinicFilter narrows the directory down to map candidates.
type ClinicFilter struct {
	Category     Category
	RadiusKm     float64
	UserLocation *GeoPoint
}

// POI is a point of interest the labeling engine places labels for.
type POI struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// LabelPlacement is a POI chosen for a text label, with the normalised
// viewport position its anchor was evaluated at.
type LabelPlacement struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// LabelPlan is the result of one label placement evaluation for a viewport.
type LabelPlan struct {
	Labeled   []LabelPlacement `json:"labeled"`
	Budget    int              `json:"budget"`
	ZoomedIn  bool             `json:"zoomed_in"`
	Visible   int              `json:"visible"`
	Reference *GeoPoint        `json:"reference,omitempty"`
	Region    *Region          `json:"region,omitempty"`
}
