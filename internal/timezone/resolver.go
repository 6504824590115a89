// Package timezone resolves studio zone identifiers to offset rules and
// converts local wall-clock times to absolute instants with a fixed policy
// for daylight-saving transitions.
package timezone

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
)

// Resolver maps IANA zone identifiers to *time.Location. Lookups hit the
// platform tzdata once and are then served from a TTL cache, since every
// generation sweep and week-window computation resolves the studio zone.
type Resolver struct {
	locations *cache.Cache
}

// NewResolver constructs a Resolver with a 24h cache per zone id.
func NewResolver() *Resolver {
	return &Resolver{locations: cache.New(24*time.Hour, time.Hour)}
}

// Resolve returns the location for the given IANA zone id.
func (r *Resolver) Resolve(zoneID string) (*time.Location, error) {
	if zoneID == "" {
		return nil, fmt.Errorf("timezone: zone id is empty")
	}
	if cached, ok := r.locations.Get(zoneID); ok {
		return cached.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("timezone: unknown zone %q: %w", zoneID, err)
	}
	r.locations.SetDefault(zoneID, loc)
	return loc, nil
}
