package exchange

import "fundingflow/logger"

// Credentials carries the API keys for venues that require them. Empty
// fields leave the venue unconfigured; it is listed but never fetched.
type Credentials struct {
	LighterAPIKey        string
	AsterAPIKey          string
	AsterAPISecret       string
	VariationalAPIKey    string
	VariationalAPISecret string
	EdgexAPIKey          string
	GrvtAPIKey           string
}

// Registry owns one adapter per supported venue.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds adapters for every venue in the venue table.
func NewRegistry(creds Credentials) *Registry {
	adapters := map[string]Adapter{
		"hyperliquid": newHyperliquid(),
		"dydx":        newDydx(),
		"gmx":         newGmx(),
		"paradex":     newParadex(),
		"myx":         newMyx(),
		"jupiter":     newJupiter(),
		"lighter":     newLighter(creds.LighterAPIKey),
		"aster":       newAster(creds.AsterAPIKey, creds.AsterAPISecret),
		"variational": newVariational(creds.VariationalAPIKey, creds.VariationalAPISecret),
		"edgex":       newEdgex(creds.EdgexAPIKey),
		"grvt":        newGrvt(creds.GrvtAPIKey),
	}

	log := logger.GetLogger().WithComponent("registry")
	configured := 0
	for _, id := range VenueIDs {
		if adapters[id].IsConfigured() {
			configured++
		} else {
			log.WithFields(logger.Fields{"exchange": id}).Info("venue not configured, skipping fetches")
		}
	}
	log.WithFields(logger.Fields{"total": len(adapters), "configured": configured}).Info("initialized exchange registry")

	return &Registry{adapters: adapters}
}

// All returns every adapter in stable venue order.
func (r *Registry) All() []Adapter {
	out := make([]Adapter, 0, len(r.adapters))
	for _, id := range VenueIDs {
		out = append(out, r.adapters[id])
	}
	return out
}

// ConfiguredIDs returns the identifiers of venues that will actually be
// fetched this deployment.
func (r *Registry) ConfiguredIDs() []string {
	out := make([]string, 0, len(r.adapters))
	for _, id := range VenueIDs {
		if r.adapters[id].IsConfigured() {
			out = append(out, id)
		}
	}
	return out
}

// Get returns the adapter for the given venue id, or nil.
func (r *Registry) Get(id string) Adapter {
	return r.adapters[id]
}
