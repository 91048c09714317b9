// internal/models/geo.go
package models

// GeoResult is a geocoded location phrase.
type GeoResult struct {
	Label           string      `json:"label"`
	DetectedCountry string      `json:"detectedCountry,omitempty"`
	Coordinates     Coordinates `json:"coordinates"`
	Provider        string      `json:"provider"`
}

// RankedFacility is a facility with its distance from the query point.
type RankedFacility struct {
	Facility   Facility `json:"facility"`
	DistanceKm float64  `json:"distanceKm"`
}

// Presence tells whether the school has a site at the asked location.
type Presence string

const (
	PresenceCoLocated Presence = "co_located"
	PresenceRemote    Presence = "remote"
)

// LocationContext is what the resolver contributes to the context block.
type LocationContext struct {
	Query              string           `json:"query"`
	Extractor          string           `json:"extractor"`
	Geo                GeoResult        `json:"geo"`
	Ranking            []RankedFacility `json:"ranking"`
	NearestOverall     RankedFacility   `json:"nearestOverall"`
	NearestInCountry   *RankedFacility  `json:"nearestInCountry,omitempty"`
	Recommended        RankedFacility   `json:"recommended"`
	NationalPreference bool             `json:"nationalPreference"`
	Presence           Presence         `json:"presence"`
	Guard              string           `json:"guard,omitempty"`
}
