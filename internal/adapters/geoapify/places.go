package geoapify

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/obs"

	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	placesPageLimit  = 200
	placesMaxResults = 5000
	streetsPageLimit = 100
	streetsMaxResult = 2000
)

var (
	placePrefix       = regexp.MustCompile(`(?i)^(Grad|Opština|Град|Општина)\s+`)
	populatedPlaces   = []string{"populated_place.city", "populated_place.town", "populated_place.village"}
	populatedCategory = strings.Join(populatedPlaces, ",")
)

type featureCollection struct {
	Features []struct {
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

// ListTowns pages through populated places inside the configured rectangle.
// Names prefer the Latin script, "Grad"/"Opština" prefixes are dropped and
// duplicates (same postcode, or same name and position) are removed.
func (c *Client) ListTowns(ctx context.Context) (_ []domain.Town, err error) {
	defer obs.Time(ctx, c.log, "geoapify.list_towns")(&err)

	seen := make(map[string]struct{})
	towns := make([]domain.Town, 0, placesPageLimit)

	for offset := 0; offset < placesMaxResults; offset += placesPageLimit {
		params := url.Values{
			"categories": {populatedCategory},
			"filter":     {"rect:" + c.placesRect},
			"limit":      {strconv.Itoa(placesPageLimit)},
			"offset":     {strconv.Itoa(offset)},
			"lang":       {c.lang},
			"apiKey":     {c.apiKey},
		}

		var page featureCollection
		if err := c.http.GetJSON(ctx, c.baseURL+"/v2/places?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("list towns: offset %d: %w", offset, err)
		}

		for _, f := range page.Features {
			t, ok := extractTown(f.Properties)
			if !ok {
				continue
			}
			key := t.Name + ":" + t.Coordinates.Key()
			if t.Postcode != "" {
				key = "postcode:" + t.Postcode
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			towns = append(towns, t)
		}

		if len(page.Features) < placesPageLimit {
			break
		}
	}

	coll := collate.New(language.Serbian)
	slices.SortStableFunc(towns, func(a, b domain.Town) int {
		return coll.CompareString(a.Name, b.Name)
	})

	c.log.Debug("towns loaded", zap.Int("count", len(towns)))
	return towns, nil
}

// ListStreets pages through streets of a town. Entries carry "street
// housenumber" addresses and are unique by address.
func (c *Client) ListStreets(ctx context.Context, town string) (_ []domain.Street, err error) {
	defer obs.Time(ctx, c.log, "geoapify.list_streets")(&err)

	town = strings.TrimSpace(town)
	if town == "" {
		return []domain.Street{}, nil
	}

	seen := make(map[string]struct{})
	streets := make([]domain.Street, 0, streetsPageLimit)

	for offset := 0; offset < streetsMaxResult; offset += streetsPageLimit {
		params := url.Values{
			"city":   {town},
			"type":   {"street"},
			"limit":  {strconv.Itoa(streetsPageLimit)},
			"offset": {strconv.Itoa(offset)},
			"lang":   {c.lang},
			"filter": {"countrycode:" + c.countryCode},
			"apiKey": {c.apiKey},
		}

		var page featureCollection
		if err := c.http.GetJSON(ctx, c.baseURL+"/v1/geocode/search?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("list streets %q: offset %d: %w", town, offset, err)
		}

		for _, f := range page.Features {
			s, ok := extractStreet(f.Properties)
			if !ok {
				continue
			}
			if _, dup := seen[s.Address]; dup {
				continue
			}
			seen[s.Address] = struct{}{}
			streets = append(streets, s)
		}

		if len(page.Features) < streetsPageLimit {
			break
		}
	}

	return streets, nil
}

func extractTown(props map[string]any) (domain.Town, bool) {
	if !populatedCategoryOf(props) {
		return domain.Town{}, false
	}

	var name string
	for _, key := range []string{"name", "city", "town", "village"} {
		if name = latinValue(props, key, false); name != "" {
			break
		}
	}
	if name == "" {
		return domain.Town{}, false
	}

	lon, okLon := number(props["lon"])
	lat, okLat := number(props["lat"])
	if !okLon || !okLat {
		return domain.Town{}, false
	}

	return domain.Town{
		Name:        strings.TrimSpace(placePrefix.ReplaceAllString(name, "")),
		Coordinates: domain.Coordinates{Lon: lon, Lat: lat},
		Postcode:    stringValue(props["postcode"]),
	}, true
}

func extractStreet(props map[string]any) (domain.Street, bool) {
	street := latinValue(props, "street", true)
	if street == "" {
		street = latinValue(props, "name", true)
	}
	if street == "" {
		return domain.Street{}, false
	}

	lon, okLon := number(props["lon"])
	lat, okLat := number(props["lat"])
	if !okLon || !okLat {
		return domain.Street{}, false
	}

	house := stringValue(props["housenumber"])
	address := street
	if house != "" {
		address = street + " " + house
	}

	var city string
	for _, key := range []string{"city", "town", "village"} {
		if city = latinValue(props, key, true); city != "" {
			break
		}
	}

	return domain.Street{
		Address:     address,
		Coordinates: domain.Coordinates{Lon: lon, Lat: lat},
		Street:      street,
		HouseNumber: house,
		City:        city,
		Postcode:    stringValue(props["postcode"]),
	}, true
}

func populatedCategoryOf(props map[string]any) bool {
	cats, _ := props["categories"].([]any)
	if len(cats) == 0 {
		return stringValue(props["city"]) != "" || stringValue(props["town"]) != "" || stringValue(props["village"]) != ""
	}
	for _, c := range cats {
		if s, ok := c.(string); ok && slices.Contains(populatedPlaces, s) {
			return true
		}
	}
	return false
}

// latinValue prefers key:sr-Latn, then key:latin, then key itself. With
// rejectCyrillic a plain value written in Cyrillic is ignored.
func latinValue(props map[string]any, key string, rejectCyrillic bool) string {
	for _, k := range []string{key + ":sr-Latn", key + ":latin"} {
		if v := stringValue(props[k]); v != "" {
			return v
		}
	}
	v := stringValue(props[key])
	if v == "" || (rejectCyrillic && hasCyrillic(v)) {
		return ""
	}
	return v
}

func hasCyrillic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return formatFloat(t)
	default:
		return ""
	}
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
