package fills

import (
	"cmp"
	"slices"
	"time"

	"github.com/ukydev/fuellog/internal/models"
)

// MonthLayout formats the month label of a chart point. Labels sort
// lexically in chronological order.
const MonthLayout = "2006-01"

const (
	// CompactWindow is the number of months shown on narrow displays.
	CompactWindow = 6
	// DefaultWindow is the number of months shown otherwise.
	DefaultWindow = 12
)

// MonthlyPoint is one calendar month of aggregated fills.
type MonthlyPoint struct {
	Month    string   `json:"month"`
	Amount   float64  `json:"amount"`
	Count    int      `json:"count"`
	Liters   float64  `json:"liters"`
	Distance float64  `json:"distance"`
	Odometer *float64 `json:"odometer"`
}

// Stats holds the headline figures of a set of fills. Pointer fields are nil
// when no fill contributed a value.
type Stats struct {
	FillCount        int      `json:"fill_count"`
	TotalCost        *float64 `json:"total_cost"`
	TotalLiters      float64  `json:"total_liters"`
	TotalDistance    float64  `json:"total_distance"`
	AvgPricePerLiter *float64 `json:"avg_price_per_liter"`
	AvgConsumption   *float64 `json:"avg_consumption"` // L/100km
}

// Aggregation is the result of Aggregate.
type Aggregation struct {
	Series []MonthlyPoint `json:"monthly_series"`
	Stats  Stats          `json:"stats"`
}

// Interval is the stretch between two consecutive odometer-bearing fills of
// the same vehicle.
type Interval struct {
	VehicleID string
	From      time.Time
	To        time.Time
	Distance  float64
	Liters    float64
}

// Consumption returns the liters per 100 km burnt over the interval.
func (iv Interval) Consumption() float64 {
	return iv.Liters / iv.Distance * 100
}

// MonthLabel returns the chart label of the month t falls in.
func MonthLabel(t time.Time) string {
	return t.Format(MonthLayout)
}

type monthGroup struct {
	point   MonthlyPoint
	odoDate time.Time
}

// Aggregate groups fills by calendar month and computes the summary
// statistics. Fills may arrive in any order. The series is ascending by
// month so callers can slice it with Recent without sorting again.
func Aggregate(fills []models.Fill) Aggregation {
	groups := make(map[string]*monthGroup)
	var (
		total  float64
		liters float64
		prices []float64
	)

	for _, f := range fills {
		label := MonthLabel(f.Date)
		g, ok := groups[label]
		if !ok {
			g = &monthGroup{point: MonthlyPoint{Month: label}}
			groups[label] = g
		}
		g.point.Count++
		g.point.Amount += f.AmountOrZero()
		g.point.Liters += f.Liters
		if f.Odometer != nil && (g.point.Odometer == nil || !f.Date.Before(g.odoDate)) {
			odo := *f.Odometer
			g.point.Odometer = &odo
			g.odoDate = f.Date
		}

		total += f.AmountOrZero()
		liters += f.Liters
		if f.PricePerLiter != nil {
			prices = append(prices, *f.PricePerLiter)
		}
	}

	intervals := Intervals(fills)
	consumptions := make([]float64, 0, len(intervals))
	var distance float64
	for _, iv := range intervals {
		groups[MonthLabel(iv.To)].point.Distance += iv.Distance
		distance += iv.Distance
		consumptions = append(consumptions, iv.Consumption())
	}

	series := make([]MonthlyPoint, 0, len(groups))
	for _, g := range groups {
		series = append(series, g.point)
	}
	slices.SortFunc(series, func(a, b MonthlyPoint) int {
		return cmp.Compare(a.Month, b.Month)
	})

	stats := Stats{
		FillCount:        len(fills),
		TotalLiters:      liters,
		TotalDistance:    distance,
		AvgPricePerLiter: mean(prices),
		AvgConsumption:   mean(consumptions),
	}
	if len(fills) > 0 {
		stats.TotalCost = &total
	}

	return Aggregation{Series: series, Stats: stats}
}

// Intervals returns the consumption intervals of every vehicle in fills.
// Each vehicle's odometer-bearing fills are ordered by date (then odometer)
// and paired consecutively; the later fill's liters are the fuel burnt over
// the distance between them. Pairs whose odometer does not advance are
// skipped. Vehicles are visited in order of first appearance.
func Intervals(fills []models.Fill) []Interval {
	var order []string
	byVehicle := make(map[string][]models.Fill)
	for _, f := range fills {
		if f.Odometer == nil {
			continue
		}
		if _, ok := byVehicle[f.VehicleID]; !ok {
			order = append(order, f.VehicleID)
		}
		byVehicle[f.VehicleID] = append(byVehicle[f.VehicleID], f)
	}

	var out []Interval
	for _, id := range order {
		vf := byVehicle[id]
		slices.SortStableFunc(vf, func(a, b models.Fill) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return cmp.Compare(*a.Odometer, *b.Odometer)
		})
		for i := 1; i < len(vf); i++ {
			delta := *vf[i].Odometer - *vf[i-1].Odometer
			if delta <= 0 {
				continue
			}
			out = append(out, Interval{
				VehicleID: id,
				From:      vf[i-1].Date,
				To:        vf[i].Date,
				Distance:  delta,
				Liters:    vf[i].Liters,
			})
		}
	}
	return out
}

// VehicleConsumption returns the average consumption of a single vehicle's
// fills, or nil when fewer than two fills carry an odometer reading.
func VehicleConsumption(fills []models.Fill) *float64 {
	intervals := Intervals(fills)
	values := make([]float64, len(intervals))
	for i, iv := range intervals {
		values[i] = iv.Consumption()
	}
	return mean(values)
}

// Recent returns the last n points of an ascending series, keeping their
// order. The input is not modified.
func Recent(series []MonthlyPoint, n int) []MonthlyPoint {
	if n <= 0 {
		return []MonthlyPoint{}
	}
	if n > len(series) {
		n = len(series)
	}
	return append(make([]MonthlyPoint, 0, n), series[len(series)-n:]...)
}

// WindowFor returns how many months a chart should display.
func WindowFor(compact bool) int {
	if compact {
		return CompactWindow
	}
	return DefaultWindow
}

func mean(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	avg := sum / float64(len(values))
	return &avg
}
