package distance

import (
	"errors"
	"strings"
	"time"

	"stop-route-service/internal/platform/httpx"

	"go.uber.org/zap"
)

const (
	DefaultORSBaseURL = "https://api.openrouteservice.org"
	ORSProfileTruck   = "driving-hgv"
	ORSProfileCar     = "driving-car"
)

// ORSProvider implements RouteProvider and LegRouter using OpenRouteService.
//
// Whole routes come from the directions endpoint, single legs from a
// one-by-one matrix request. The provider is safe for concurrent use.
type ORSProvider struct {
	http    *httpx.Client
	log     *zap.Logger
	baseURL string
	profile string
}

func NewORSProvider(apiKey, baseURL, profile string, log *zap.Logger) (*ORSProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if baseURL == "" {
		baseURL = DefaultORSBaseURL
	}
	if profile == "" {
		profile = ORSProfileTruck
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &ORSProvider{
		http:    httpx.New(15*time.Second, map[string]string{"Authorization": apiKey}),
		log:     log.Named("ors"),
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
	}, nil
}
