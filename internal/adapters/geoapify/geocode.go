package geoapify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"stop-route-service/internal/domain"
	"stop-route-service/internal/platform/httpx"
	"stop-route-service/internal/platform/obs"
	"stop-route-service/internal/ports"

	"go.uber.org/zap"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			ResultType string `json:"result_type"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves free text to coordinates. It first searches with a
// country filter, then retries with the country name appended to the text.
// The first feature of the first successful strategy wins.
func (c *Client) Geocode(ctx context.Context, query string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, c.log, "geoapify.geocode")(&err)

	query = strings.TrimSpace(query)
	if query == "" {
		return domain.Coordinates{}, ports.ErrNotFound
	}

	withCountry := query
	if !strings.HasSuffix(strings.ToLower(query), strings.ToLower(c.countryName)) {
		withCountry = query + ", " + c.countryName
	}

	strategies := []url.Values{
		{"text": {query}, "filter": {"countrycode:" + c.countryCode}},
		{"text": {withCountry}},
	}

	for i, params := range strategies {
		params.Set("apiKey", c.apiKey)
		endpoint := c.baseURL + "/v1/geocode/search?" + params.Encode()

		var decoded geocodeResponse
		if err := c.http.GetJSON(ctx, endpoint, &decoded); err != nil {
			var se *httpx.StatusError
			if errors.As(err, &se) {
				c.log.Debug("geocode strategy failed", zap.Int("strategy", i+1), zap.Int("status", se.Code))
				continue
			}
			return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", query, err)
		}

		if len(decoded.Features) == 0 {
			continue
		}

		f := decoded.Features[0]
		if len(f.Geometry.Coordinates) != 2 {
			return domain.Coordinates{}, fmt.Errorf("geocode %q: invalid coordinate format", query)
		}

		switch f.Properties.ResultType {
		case "city", "locality":
			c.log.Info("geocode result is approximate",
				zap.String("query", query),
				zap.String("result_type", f.Properties.ResultType),
			)
		}

		return domain.Coordinates{Lon: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]}, nil
	}

	return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", query, ports.ErrNotFound)
}

// GeocodeTownCentroid geocodes "<town>, <country>".
func (c *Client) GeocodeTownCentroid(ctx context.Context, town string) (domain.Coordinates, error) {
	town = strings.TrimSpace(town)
	if town == "" {
		return domain.Coordinates{}, ports.ErrNotFound
	}
	return c.Geocode(ctx, town+", "+c.countryName)
}
