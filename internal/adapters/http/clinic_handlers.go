package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/clinicmap/internal/core/domain"
)

// ListClinicsHandler returns published clinics filtered the way the map does:
// valid location, category, then radius around the caller when lat/lng are given.
func ListClinicsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius, _, err := queryFloat(c, "radius_km")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if radius < 0 {
			return errBadRequest(c, "radius_km must be positive")
		}

		clinics, err := deps.Clinics.Filter(c.UserContext(), domain.ClinicFilter{
			Category:     domain.ParseCategory(c.Query("category")),
			RadiusKm:     radius,
			UserLocation: user,
		})
		if err != nil {
			return errInternal(c, err)
		}

		offset, limit := parsePagination(c, 100, 500)
		pg := Pagination{Offset: offset, Limit: limit, Total: len(clinics)}
		SetLinkHeaders(c, pg)
		if user != nil {
			// Distance depends on the caller.
			c.Set(fiber.HeaderCacheControl, "private, max-age=60")
		}
		return c.JSON(PaginatedResponse{Data: paginate(clinics, offset, limit), Pagination: pg})
	}
}

// NearbyClinicsHandler returns published clinics around a point, nearest first.
func NearbyClinicsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if p == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		radius, ok, err := queryFloat(c, "radius_km")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if ok && (radius <= 0 || radius > 100) {
			return errBadRequest(c, "radius_km must be between 0 and 100")
		}
		limit := c.QueryInt("limit", 20)

		clinics, err := deps.Clinics.FindNearby(c.UserContext(), p.Lat, p.Lng, radius, limit)
		if err != nil {
			return errInternal(c, err)
		}
		if clinics == nil {
			clinics = []domain.Clinic{}
		}
		return c.JSON(clinics)
	}
}

// GetClinicHandler returns one published clinic.
func GetClinicHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clinic, err := deps.Clinics.GetByID(c.UserContext(), c.Params("id"))
		if errors.Is(err, domain.ErrNotFound) {
			return errNotFound(c, "clinic not found")
		}
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(clinic)
	}
}

// SyncClinicHandler queues a directory sync for a clinic. The sync itself runs
// in the background; its outcome is never reported to this caller.
func SyncClinicHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Sync == nil {
			return errUnavailable(c, "directory sync is not configured")
		}
		id := c.Params("id")
		runID, err := deps.Sync.ScheduleSync(c.UserContext(), id)
		if err != nil {
			return errInternal(c, err)
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"clinic_id": id,
			"run_id":    runID,
		})
	}
}
