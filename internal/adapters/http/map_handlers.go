package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/labeling"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
)

// BudgetHandler reports how many labels a latitude span allows.
func BudgetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		delta, ok, err := queryFloat(c, "lat_delta")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		if !ok {
			delta = deps.Map.Config().DefaultLatDelta
		}
		if delta < 0 {
			return errBadRequest(c, "lat_delta must not be negative")
		}

		region := &domain.Region{LatitudeDelta: delta}
		return c.JSON(fiber.Map{
			"lat_delta": delta,
			"budget":    deps.Map.Budget(delta),
			"zoomed_in": deps.Map.IsZoomedIn(region),
		})
	}
}

// InitialRegionHandler returns the region the map opens on.
func InitialRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := queryPoint(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		region, err := deps.Map.InitialRegion(c.UserContext(), user)
		if err != nil {
			return errInternal(c, err)
		}
		return c.JSON(region)
	}
}

// parseLabelRequest decodes and validates a region-change payload.
func parseLabelRequest(c *fiber.Ctx) (usecases.LabelRequest, error) {
	var req usecases.LabelRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return req, validateLabelRequest(&req)
}

func validateLabelRequest(req *usecases.LabelRequest) error {
	if req.Region != nil {
		if err := validateRegion(req.Region); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}
	if req.UserLocation != nil {
		if err := validatePoint(req.UserLocation); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "user_location: "+err.Error())
		}
	}
	if req.RadiusKm < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "radius_km must be positive")
	}
	return nil
}

// LabelsHandler computes the label plan for one region change.
func LabelsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseLabelRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		plan, err := deps.Map.Labels(c.UserContext(), req)
		if err != nil {
			return errInternal(c, err)
		}
		notePlan(c, plan)
		return c.JSON(plan)
	}
}

// LabelsGeoJSONHandler returns the label plan as a FeatureCollection: one
// Point per labeled clinic, in acceptance order, plus the viewport polygon.
func LabelsGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseLabelRequest(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		plan, err := deps.Map.Labels(c.UserContext(), req)
		if err != nil {
			return errInternal(c, err)
		}

		notePlan(c, plan)

		data, err := planFeatureCollection(plan).MarshalJSON()
		if err != nil {
			return errInternal(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// notePlan records plan details for the access log.
func notePlan(c *fiber.Ctx, plan *domain.LabelPlan) {
	c.Locals(localPlanBudget, plan.Budget)
	c.Locals(localPlanLabeled, len(plan.Labeled))
}

func planFeatureCollection(plan *domain.LabelPlan) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"budget":    plan.Budget,
		"zoomed_in": plan.ZoomedIn,
		"visible":   plan.Visible,
	}
	if plan.Region == nil {
		return fc
	}

	vp := labeling.NewViewport(*plan.Region)
	for i, l := range plan.Labeled {
		p := vp.Denormalize(l.X, l.Y)
		f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
		f.ID = l.ID
		f.Properties["id"] = l.ID
		f.Properties["rank"] = i
		f.Properties["x"] = l.X
		f.Properties["y"] = l.Y
		fc.Append(f)
	}

	viewport := geojson.NewFeature(vp.Bound().ToPolygon())
	viewport.Properties["kind"] = "viewport"
	fc.Append(viewport)
	return fc
}
