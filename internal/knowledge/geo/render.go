package geo

import (
	"fmt"
	"strings"

	"knowledge-workers/internal/models"
)

const missing = "non communiqué"

// Render writes the location section appended to the context block.
func Render(lc *models.LocationContext) string {
	if lc == nil {
		return ""
	}
	rec := lc.Recommended.Facility
	var b strings.Builder

	if lc.Presence == models.PresenceCoLocated {
		b.WriteString("[INFO SYSTÈME: CAMPUS PRÉSENT !]\n")
		fmt.Fprintf(&b, "Epitech est à %s !\n", strings.ToUpper(rec.Name))
		writeFacility(&b, rec)
		return b.String()
	}

	country := lc.Geo.DetectedCountry
	if country == "" {
		country = "Inconnu"
	}
	priority := "PROXIMITÉ"
	if lc.NationalPreference {
		priority = "PRÉFÉRENCE NATIONALE"
	}

	b.WriteString("[INFO SYSTÈME: LOCALISATION]\n")
	fmt.Fprintf(&b, "Localisation détectée : '%s' (%s (Pays: %s)).\n", lc.Query, lc.Geo.Label, country)
	fmt.Fprintf(&b, "Campus recommandé (%s) : %s (%d km).\n", priority, strings.ToUpper(rec.Name), int(lc.Recommended.DistanceKm))
	writeFacility(&b, rec)
	if lc.Guard != "" {
		b.WriteString("\n")
		b.WriteString(lc.Guard)
		b.WriteString("\n")
	}
	return b.String()
}

func writeFacility(b *strings.Builder, f models.Facility) {
	fmt.Fprintf(b, "Adresse : %s.\n", orMissing(f.Address))
	fmt.Fprintf(b, "Contact : %s | %s\n", orMissing(f.Email), orMissing(f.Phone))
}

func orMissing(s string) string {
	if strings.TrimSpace(s) == "" {
		return missing
	}
	return s
}
