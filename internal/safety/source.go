// Package safety scores token contract risk and caches the resulting reports.
package safety

import (
	"context"
	"errors"

	"memecoin-sniper/internal/domain"
)

// ErrUnavailable is returned when the external safety-data source cannot
// supply features for a token. Callers degrade to retry-on-next-cycle.
var ErrUnavailable = errors.New("safety data unavailable")

// FeatureSource supplies raw safety features for a token address.
// Wire formats are owned by the implementing collaborator.
type FeatureSource interface {
	GetFeatures(ctx context.Context, tokenAddress string) (*domain.SafetyFeatures, error)
}
