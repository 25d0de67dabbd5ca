package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"latitude":        &graphql.Field{Type: graphql.Float},
			"longitude":       &graphql.Field{Type: graphql.Float},
			"latitude_delta":  &graphql.Field{Type: graphql.Float},
			"longitude_delta": &graphql.Field{Type: graphql.Float},
		},
	})

	clinicType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Clinic",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"hero_image":     &graphql.Field{Type: graphql.String},
			"phone":          &graphql.Field{Type: graphql.String},
			"whatsapp":       &graphql.Field{Type: graphql.String},
			"address":        &graphql.Field{Type: graphql.String},
			"country":        &graphql.Field{Type: graphql.String},
			"city":           &graphql.Field{Type: graphql.String},
			"geo":            &graphql.Field{Type: geoPointType},
			"geohash":        &graphql.Field{Type: graphql.String},
			"tier":           &graphql.Field{Type: graphql.String},
			"average_rating": &graphql.Field{Type: graphql.Float},
			"total_reviews":  &graphql.Field{Type: graphql.Int},
			"specialty":      &graphql.Field{Type: graphql.String},
			"distance_km":    &graphql.Field{Type: graphql.Float},
		},
	})

	placementType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LabelPlacement",
		Fields: graphql.Fields{
			"id": &graphql.Field{Type: graphql.String},
			"x":  &graphql.Field{Type: graphql.Float},
			"y":  &graphql.Field{Type: graphql.Float},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "LabelPlan",
		Fields: graphql.Fields{
			"labeled":   &graphql.Field{Type: graphql.NewList(placementType)},
			"budget":    &graphql.Field{Type: graphql.Int},
			"zoomed_in": &graphql.Field{Type: graphql.Boolean},
			"visible":   &graphql.Field{Type: graphql.Int},
			"reference": &graphql.Field{Type: geoPointType},
			"region":    &graphql.Field{Type: regionType},
		},
	})

	regionInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "RegionInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"latitude":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"longitude":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"latitude_delta":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"longitude_delta": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	pointInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "GeoPointInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lng": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"clinics": &graphql.Field{
				Type:        graphql.NewList(clinicType),
				Description: "Published clinics, filtered like the map",
				Args: graphql.FieldConfigArgument{
					"category":  &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "all"},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float},
					"near":      &graphql.ArgumentConfig{Type: pointInput},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					f := domain.ClinicFilter{Category: domain.ParseCategory(p.Args["category"].(string))}
					if r, ok := p.Args["radius_km"].(float64); ok {
						f.RadiusKm = r
					}
					f.UserLocation = pointArg(p.Args["near"])
					return deps.Clinics.Filter(p.Context, f)
				},
			},
			"clinic": &graphql.Field{
				Type:        clinicType,
				Description: "Get a published clinic by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Clinics.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"labelBudget": &graphql.Field{
				Type:        graphql.Int,
				Description: "Maximum labels shown for a latitude span",
				Args: graphql.FieldConfigArgument{
					"lat_delta": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Map.Budget(p.Args["lat_delta"].(float64)), nil
				},
			},
			"mapLabels": &graphql.Field{
				Type:        planType,
				Description: "Label plan for a map region",
				Args: graphql.FieldConfigArgument{
					"region":        &graphql.ArgumentConfig{Type: graphql.NewNonNull(regionInput)},
					"user_location": &graphql.ArgumentConfig{Type: pointInput},
					"selected_id":   &graphql.ArgumentConfig{Type: graphql.String},
					"category":      &graphql.ArgumentConfig{Type: graphql.String},
					"radius_km":     &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := usecases.LabelRequest{
						Region:       regionArg(p.Args["region"]),
						UserLocation: pointArg(p.Args["user_location"]),
					}
					req.SelectedID, _ = p.Args["selected_id"].(string)
					req.Category, _ = p.Args["category"].(string)
					req.RadiusKm, _ = p.Args["radius_km"].(float64)
					if err := validateLabelRequest(&req); err != nil {
						return nil, err
					}
					return deps.Map.Labels(p.Context, req)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func pointArg(v interface{}) *domain.GeoPoint {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	lat, _ := m["lat"].(float64)
	lng, _ := m["lng"].(float64)
	return &domain.GeoPoint{Lat: lat, Lng: lng}
}

func regionArg(v interface{}) *domain.Region {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	r := &domain.Region{}
	r.Latitude, _ = m["latitude"].(float64)
	r.Longitude, _ = m["longitude"].(float64)
	r.LatitudeDelta, _ = m["latitude_delta"].(float64)
	r.LongitudeDelta, _ = m["longitude_delta"].(float64)
	return r
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
