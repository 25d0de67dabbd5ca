package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samirrijal/clinicmap/internal/core/domain"
	"github.com/samirrijal/clinicmap/internal/core/labeling"
	"github.com/samirrijal/clinicmap/internal/core/usecases"
)

type planOptions struct {
	clinicsPath string
	region      domain.Region
	userLat     float64
	userLng     float64
	selectedID  string
	category    string
	radiusKm    float64
	boxWidth    float64
	boxHeight   float64
}

func newPlanCmd() *cobra.Command {
	var o planOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the label plan for a viewport",
		Long: `Reads a JSON array of clinics and prints the label plan for the given
region as JSON.

$ labelctl plan --clinics clinics.json --lat 25.0 --lng 55.0 --lat-delta 0.04
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := o.request(cmd)
			if err != nil {
				return err
			}
			clinics, err := loadClinics(o.clinicsPath)
			if err != nil {
				return err
			}

			cfg := usecases.DefaultMapConfig()
			cfg.Box = labeling.Box{Width: o.boxWidth, Height: o.boxHeight}
			mapSvc := usecases.NewMapService(usecases.NewClinicService(newFileRepo(clinics), nil), cfg)

			plan, err := mapSvc.Labels(context.Background(), req)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.clinicsPath, "clinics", "clinics.json", "JSON array of clinics")
	f.Float64Var(&o.region.Latitude, "lat", 0, "region center latitude")
	f.Float64Var(&o.region.Longitude, "lng", 0, "region center longitude")
	f.Float64Var(&o.region.LatitudeDelta, "lat-delta", labeling.DefaultLatDelta, "region latitude span")
	f.Float64Var(&o.region.LongitudeDelta, "lng-delta", 0, "region longitude span (defaults to lat-delta)")
	f.Float64Var(&o.userLat, "user-lat", 0, "user latitude")
	f.Float64Var(&o.userLng, "user-lng", 0, "user longitude")
	f.StringVar(&o.selectedID, "selected", "", "selected clinic ID")
	f.StringVar(&o.category, "category", "all", "category filter (all, dental, laser, beauty)")
	f.Float64Var(&o.radiusKm, "radius-km", usecases.DefaultRadiusKm, "radius around the user in km")
	f.Float64Var(&o.boxWidth, "box-width", labeling.DefaultBox.Width, "label collision width, fraction of viewport")
	f.Float64Var(&o.boxHeight, "box-height", labeling.DefaultBox.Height, "label collision height, fraction of viewport")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func (o *planOptions) request(cmd *cobra.Command) (usecases.LabelRequest, error) {
	region := o.region
	if !cmd.Flags().Changed("lng-delta") {
		region.LongitudeDelta = region.LatitudeDelta
	}
	if region.LatitudeDelta < 0 || region.LongitudeDelta < 0 {
		return usecases.LabelRequest{}, fmt.Errorf("region spans must not be negative")
	}

	req := usecases.LabelRequest{
		Region:     &region,
		SelectedID: o.selectedID,
		Category:   o.category,
		RadiusKm:   o.radiusKm,
	}

	userLat, userLng := cmd.Flags().Changed("user-lat"), cmd.Flags().Changed("user-lng")
	if userLat != userLng {
		return req, fmt.Errorf("--user-lat and --user-lng must be given together")
	}
	if userLat {
		req.UserLocation = &domain.GeoPoint{Lat: o.userLat, Lng: o.userLng}
	}
	return req, nil
}

func loadClinics(path string) ([]domain.Clinic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var clinics []domain.Clinic
	if err := json.Unmarshal(data, &clinics); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return clinics, nil
}
