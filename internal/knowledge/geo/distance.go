package geo

import (
	"math"
	"sort"

	"knowledge-workers/internal/models"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance between a and b in km.
func Haversine(a, b models.Coordinates) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Rank orders every facility by distance from origin. Equal distances are
// ordered by name so the ranking is total.
func Rank(origin models.Coordinates, facilities []models.Facility) []models.RankedFacility {
	ranked := make([]models.RankedFacility, len(facilities))
	for i, f := range facilities {
		ranked[i] = models.RankedFacility{Facility: f, DistanceKm: Haversine(origin, f.Coordinates)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].Facility.Name < ranked[j].Facility.Name
	})
	return ranked
}

// Recommend picks the facility to suggest from a ranking. The nearest
// facility in country wins over the nearest overall when the detour is at
// most slackKm. An empty country disables the preference.
func Recommend(ranked []models.RankedFacility, country string, slackKm float64) (rec models.RankedFacility, inCountry *models.RankedFacility, national bool) {
	if len(ranked) == 0 {
		return models.RankedFacility{}, nil, false
	}
	overall := ranked[0]
	if country != "" {
		for i := range ranked {
			if ranked[i].Facility.Country == country {
				nc := ranked[i]
				inCountry = &nc
				break
			}
		}
	}

	if inCountry != nil && inCountry.Facility.Name != overall.Facility.Name &&
		inCountry.DistanceKm <= overall.DistanceKm+slackKm {
		return *inCountry, inCountry, true
	}
	return overall, inCountry, false
}
