package models

import "github.com/google/uuid"

// NearbyArtwork is an approved catalog entry close to a proposed location.
type NearbyArtwork struct {
	ID             uuid.UUID `json:"id"`
	Title          *string   `json:"title,omitempty"`
	Lat            float64   `json:"lat"`
	Lon            float64   `json:"lon"`
	DistanceMeters float64   `json:"distance_meters"`
}
