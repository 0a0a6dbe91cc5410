package repositories

import (
	"context"
	"sort"

	"github.com/publicart-catalog/backend/internal/models"
)

// ArtworkRepo reads approved catalog entries for duplicate hints.
type ArtworkRepo struct {
	db DB
}

func NewArtworkRepo(db DB) *ArtworkRepo {
	return &ArtworkRepo{db: db}
}

// FindNearby returns up to limit approved artworks within radiusMeters,
// closest first. The bounding box narrows the scan; candidates in its corners
// are dropped by the exact distance check.
func (r *ArtworkRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.NearbyArtwork, error) {
	box := models.BoundingBoxAround(lat, lon, radiusMeters)
	rows, err := r.db.Query(ctx, `
		SELECT id, title, lat, lon
		FROM artworks
		WHERE status = 'approved'
		  AND lat BETWEEN $1 AND $2
		  AND lon BETWEEN $3 AND $4
	`, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, mapError(err, "find nearby artworks", "artwork")
	}
	defer rows.Close()

	out := []models.NearbyArtwork{}
	for rows.Next() {
		var a models.NearbyArtwork
		if err := rows.Scan(&a.ID, &a.Title, &a.Lat, &a.Lon); err != nil {
			return nil, mapError(err, "scan nearby artwork", "artwork")
		}
		a.DistanceMeters = models.HaversineMeters(lat, lon, a.Lat, a.Lon)
		if a.DistanceMeters <= radiusMeters {
			out = append(out, a)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "find nearby artworks", "artwork")
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceMeters < out[j].DistanceMeters })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
