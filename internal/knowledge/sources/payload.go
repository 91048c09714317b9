package sources

import (
	"bytes"
	"encoding/json"

	apperrors "knowledge-workers/internal/common/errors"
	"knowledge-workers/internal/common/validation"
	"knowledge-workers/internal/models"
)

// Some deployments put a JSON proxy in front of the school site. The
// adapters below accept either a bare list or a {"data": [...]} envelope.

type campusFeedItem struct {
	City             string   `json:"ville"`
	Country          string   `json:"pays"`
	URL              string   `json:"url"`
	ContactSourceURL string   `json:"contact_source_url"`
	AddressLines     []string `json:"adresse_lignes"`
	Email            *string  `json:"email"`
	Phone            *string  `json:"telephone"`
	Programs         []string `json:"formations"`
	Detailed         []struct {
		Name string `json:"nom"`
	} `json:"formations_disponibles"`
}

type newsFeedItem struct {
	Title   string  `json:"title"`
	Summary *string `json:"summary"`
	Link    *string `json:"link"`
}

func decodeCampusPayload(raw []byte, sourceURL string) ([]models.CampusEntry, error) {
	if err := validation.ValidateJSON(validation.SchemaCampusFeed, raw); err != nil {
		return nil, err
	}
	var items []campusFeedItem
	if err := unwrapList(raw, &items); err != nil {
		return nil, apperrors.NewUnparseableContentError("campus_feed", err.Error())
	}

	entries := make([]models.CampusEntry, 0, len(items))
	for _, it := range items {
		e := models.CampusEntry{
			City:    it.City,
			Country: it.Country,
			URL:     it.URL,
			Contact: models.ExtractedContact{
				AddressLines: nonNil(it.AddressLines),
				Email:        it.Email,
				Phone:        it.Phone,
			},
			Programs:         nonNil(it.Programs),
			ContactSourceURL: it.ContactSourceURL,
		}
		for _, d := range it.Detailed {
			if d.Name != "" {
				e.Programs = append(e.Programs, d.Name)
			}
		}
		if e.ContactSourceURL == "" {
			e.ContactSourceURL = sourceURL
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func decodeNewsPayload(raw []byte) ([]models.NewsItem, error) {
	if err := validation.ValidateJSON(validation.SchemaNewsFeed, raw); err != nil {
		return nil, err
	}
	var items []newsFeedItem
	if err := unwrapList(raw, &items); err != nil {
		return nil, apperrors.NewUnparseableContentError("news_feed", err.Error())
	}

	out := make([]models.NewsItem, 0, len(items))
	for _, it := range items {
		n := models.NewsItem{Title: it.Title}
		if it.Summary != nil {
			n.Summary = *it.Summary
		}
		if it.Link != nil {
			n.Link = *it.Link
		}
		out = append(out, n)
	}
	return out, nil
}

// unwrapList decodes raw into out, looking through a {"data": ...} envelope.
func unwrapList(raw []byte, out interface{}) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return err
		}
		trimmed = env.Data
	}
	return json.Unmarshal(trimmed, out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
