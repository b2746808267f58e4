package distance

import (
	"context"
	"fmt"

	"github.com/ukydev/fleet-emissions/internal/models"
)

// Unresolved names a route whose distance could not be found.
type Unresolved struct {
	From   string `json:"from_location_name"`
	To     string `json:"to_location_name"`
	Reason string `json:"reason"`
}

// ResolveReport is the outcome of ResolveRoutes.
type ResolveReport struct {
	Resolved   []models.Route `json:"resolved"`
	Unresolved []Unresolved   `json:"unresolved"`
}

// ResolveRoutes looks up the distance of every route that has none. Routes
// whose endpoints are not known locations, or that the provider cannot
// resolve, are reported as unresolved. Input routes are not modified.
func ResolveRoutes(ctx context.Context, p Provider, routes []models.Route, locations []models.Location) (ResolveReport, error) {
	byName := make(map[string]models.Location, len(locations))
	for _, l := range locations {
		byName[l.Name] = l
	}

	report := ResolveReport{Resolved: []models.Route{}, Unresolved: []Unresolved{}}
	for _, r := range routes {
		if r.DistanceKm > 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		from, ok := byName[r.From]
		if !ok {
			report.Unresolved = append(report.Unresolved, Unresolved{From: r.From, To: r.To, Reason: fmt.Sprintf("unknown location %q", r.From)})
			continue
		}
		to, ok := byName[r.To]
		if !ok {
			report.Unresolved = append(report.Unresolved, Unresolved{From: r.From, To: r.To, Reason: fmt.Sprintf("unknown location %q", r.To)})
			continue
		}

		res, err := p.Distance(ctx, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.Unresolved = append(report.Unresolved, Unresolved{From: r.From, To: r.To, Reason: err.Error()})
			continue
		}
		r.DistanceKm = res.Km
		r.Source = res.Source
		report.Resolved = append(report.Resolved, r)
	}
	return report, nil
}
