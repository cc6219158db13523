package fills

import "github.com/ukydev/fuellog/internal/models"

// Snapshot is the state a dashboard is derived from: the fetched fills and
// vehicles plus the user's current selection.
type Snapshot struct {
	Fills    []models.Fill
	Vehicles []models.Vehicle
	Criteria Criteria
	// Window is the number of trailing months to keep in the chart series.
	// Zero keeps every month.
	Window int
}

// Dashboard is the derived view of a Snapshot.
type Dashboard struct {
	Fills    []models.Fill    `json:"fills"`
	Series   []MonthlyPoint   `json:"monthly_series"`
	Stats    Stats            `json:"stats"`
	Vehicles []models.Vehicle `json:"vehicles"`
}

// Derive selects the fills of s, aggregates them and trims the series to
// the requested window. Fills missing a vehicle name get it from the
// snapshot's vehicles.
func Derive(s Snapshot) Dashboard {
	names := make(map[string]string, len(s.Vehicles))
	for _, v := range s.Vehicles {
		names[v.ID.Hex()] = v.Name
	}

	selected := Select(s.Fills, s.Criteria)
	for i := range selected {
		if selected[i].VehicleName == "" {
			selected[i].VehicleName = names[selected[i].VehicleID]
		}
	}

	agg := Aggregate(selected)
	series := agg.Series
	if s.Window > 0 {
		series = Recent(series, s.Window)
	}

	return Dashboard{
		Fills:    selected,
		Series:   series,
		Stats:    agg.Stats,
		Vehicles: append(make([]models.Vehicle, 0, len(s.Vehicles)), s.Vehicles...),
	}
}
