package syncer

import (
	"villagefeed/identity"
	"villagefeed/models"
)

// Diff compares two caches by listing id. A listing whose id survives but
// whose fingerprint changed counts as updated. A nil prev means every listing
// in next is new.
func Diff(prev, next *models.PropertyCache) models.Changes {
	before := fingerprints(prev)
	after := fingerprints(next)

	var c models.Changes
	for id, fp := range after {
		old, ok := before[id]
		switch {
		case !ok:
			c.Added++
		case old != fp:
			c.Updated++
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			c.Removed++
		}
	}
	return c
}

func fingerprints(cache *models.PropertyCache) map[string]string {
	out := make(map[string]string)
	if cache == nil {
		return out
	}
	for _, listings := range cache.Properties {
		for i := range listings {
			out[listings[i].ID] = identity.Fingerprint(&listings[i])
		}
	}
	return out
}
