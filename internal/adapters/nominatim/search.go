package nominatim

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"stop-route-service/internal/platform/httpx"
	"stop-route-service/internal/platform/obs"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	userAgent      = "stop-route-service"
)

var (
	townPrefix = regexp.MustCompile(`(?i)^(Grad|Opština)\s+`)
	townTypes  = []string{"city", "town", "village", "suburb", "hamlet"}
)

type searchResult struct {
	Class       string `json:"class"`
	Type        string `json:"type"`
	AddressType string `json:"addresstype"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		Hamlet  string `json:"hamlet"`
		Suburb  string `json:"suburb"`
	} `json:"address"`
}

// TownSearcher implements ports.TownSearcher on the Nominatim search API.
type TownSearcher struct {
	http        *httpx.Client
	log         *zap.Logger
	baseURL     string
	countryCode string
}

func NewTownSearcher(baseURL, countryCode string, log *zap.Logger) *TownSearcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if countryCode == "" {
		countryCode = "rs"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TownSearcher{
		http:        httpx.New(10*time.Second, map[string]string{"User-Agent": userAgent}),
		log:         log.Named("nominatim"),
		baseURL:     strings.TrimRight(baseURL, "/"),
		countryCode: countryCode,
	}
}

// SearchTowns returns distinct town-like place names matching query. Queries
// shorter than two characters return no names without a request.
func (s *TownSearcher) SearchTowns(ctx context.Context, query string) (_ []string, err error) {
	defer obs.Time(ctx, s.log, "nominatim.search_towns")(&err)

	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < 2 {
		return []string{}, nil
	}

	params := url.Values{
		"q":               {query},
		"format":          {"jsonv2"},
		"addressdetails":  {"1"},
		"countrycodes":    {s.countryCode},
		"limit":           {"20"},
		"accept-language": {"sr-Latn"},
	}

	var results []searchResult
	if err := s.http.GetJSON(ctx, s.baseURL+"/search?"+params.Encode(), &results); err != nil {
		return nil, fmt.Errorf("search towns %q: %w", query, err)
	}

	seen := make(map[string]struct{}, len(results))
	towns := make([]string, 0, len(results))
	for _, r := range results {
		if !r.townLike() {
			continue
		}
		name := r.townName()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		towns = append(towns, name)
	}

	return towns, nil
}

func (r searchResult) townLike() bool {
	typ := r.Type
	if typ == "" {
		typ = r.AddressType
	}
	return r.Class == "place" && slices.Contains(townTypes, typ)
}

func (r searchResult) townName() string {
	raw := ""
	for _, v := range []string{r.Address.City, r.Address.Town, r.Address.Village, r.Address.Hamlet, r.Address.Suburb, r.Name} {
		if v = strings.TrimSpace(v); v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		head, _, _ := strings.Cut(r.DisplayName, ",")
		raw = strings.TrimSpace(head)
	}
	return strings.TrimSpace(townPrefix.ReplaceAllString(raw, ""))
}
