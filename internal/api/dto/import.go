package dto

import "stop-route-service/internal/domain"

// ImportRequest is the JSON form of an import; uploads use multipart instead.
type ImportRequest struct {
	Rows    []domain.ImportRow `json:"rows"`
	Replace bool               `json:"replace"`
}
