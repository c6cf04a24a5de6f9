package geoapify

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"stop-route-service/internal/platform/httpx"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.geoapify.com"

	// Bounding box of Serbia as lon1,lat1,lon2,lat2.
	DefaultPlacesRect = "18.8,42.2,23.0,46.2"
)

type Options struct {
	APIKey      string
	BaseURL     string
	CountryCode string
	CountryName string
	PlacesRect  string
	Lang        string
	Timeout     time.Duration
}

// Client talks to the Geoapify geocoding, places and routing APIs.
//
// It implements ports.Geocoder, ports.PlacesProvider and ports.LegRouter and
// is safe for concurrent use.
type Client struct {
	http *httpx.Client
	log  *zap.Logger

	apiKey      string
	baseURL     string
	countryCode string
	countryName string
	placesRect  string
	lang        string
}

func New(opts Options, log *zap.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("geoapify api key is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.CountryCode == "" {
		opts.CountryCode = "rs"
	}
	if opts.CountryName == "" {
		opts.CountryName = "Serbia"
	}
	if opts.PlacesRect == "" {
		opts.PlacesRect = DefaultPlacesRect
	}
	if opts.Lang == "" {
		opts.Lang = "sr"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &Client{
		http:        httpx.New(opts.Timeout, nil),
		log:         log.Named("geoapify"),
		apiKey:      opts.APIKey,
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		countryCode: strings.ToLower(opts.CountryCode),
		countryName: opts.CountryName,
		placesRect:  opts.PlacesRect,
		lang:        opts.Lang,
	}, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
