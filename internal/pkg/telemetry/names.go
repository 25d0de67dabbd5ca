package telemetry

// Instrumentation scope and span attribute keys shared by the services.
const (
	TracerName = "github.com/samirrijal/clinicmap"

	AttrZoomedIn = "map.zoomed_in"
	AttrBudget   = "map.budget"
	AttrVisible  = "map.visible"
	AttrLabeled  = "map.labeled"
	AttrClinicID = "clinic.id"
)
