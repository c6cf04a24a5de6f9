package dto

import "stop-route-service/internal/domain"

type TownsResponse struct {
	Towns []domain.Town `json:"towns"`
}

type TownSearchResponse struct {
	Towns []string `json:"towns"`
}

type StreetsResponse struct {
	Streets []domain.Street `json:"streets"`
}
