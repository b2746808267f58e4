package metrics

// Benchmark categories, from best to worst.
const (
	CategoryExcellent        = "Excellent"
	CategoryGood             = "Good"
	CategoryAverage          = "Average"
	CategoryNeedsImprovement = "Needs Improvement"
	CategoryNoData           = "No Data"
)

// TruckBenchmark compares one truck against the fleet mean. Differences are
// percentages, negative meaning less energy or CO2 than the mean.
type TruckBenchmark struct {
	TruckMetrics
	EfficiencyVsFleet float64 `json:"efficiency_vs_fleet"`
	CO2PerKmVsFleet   float64 `json:"emissions_per_km_vs_fleet"`
	CO2PerTKmVsFleet  float64 `json:"emissions_per_tkm_vs_fleet"`
	Category          string  `json:"efficiency_category"`
}

// Benchmark rates each truck against the mean of the per-truck ratios.
// Trucks with zero distance have no ratios, so they are left out of the means
// and reported with CategoryNoData.
func Benchmark(res Result) []TruckBenchmark {
	rows := res.Rows()

	var n float64
	var eff, perKm, perTKm float64
	for _, m := range rows {
		if m.ZeroDistance {
			continue
		}
		n++
		eff += m.EnergyEfficiency
		perKm += m.CO2PerKm
		perTKm += m.CO2PerTKm
	}
	meanEff, meanPerKm, meanPerTKm := ratio(eff, n), ratio(perKm, n), ratio(perTKm, n)

	out := make([]TruckBenchmark, 0, len(rows))
	for _, m := range rows {
		b := TruckBenchmark{TruckMetrics: m, Category: CategoryNoData}
		if !m.ZeroDistance {
			b.EfficiencyVsFleet = percentDiff(m.EnergyEfficiency, meanEff)
			b.CO2PerKmVsFleet = percentDiff(m.CO2PerKm, meanPerKm)
			b.CO2PerTKmVsFleet = percentDiff(m.CO2PerTKm, meanPerTKm)
			b.Category = category(b.EfficiencyVsFleet)
		}
		out = append(out, b)
	}
	return out
}

func percentDiff(v, mean float64) float64 {
	if mean == 0 {
		return 0
	}
	return round((v-mean)/mean*100, 1)
}

func category(diff float64) string {
	switch {
	case diff < -10:
		return CategoryExcellent
	case diff < 0:
		return CategoryGood
	case diff < 10:
		return CategoryAverage
	default:
		return CategoryNeedsImprovement
	}
}
