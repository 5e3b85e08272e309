package exchange

// Venue describes one supported perpetuals venue. FundingIntervalHours is the
// venue's native funding accrual period and drives annualization.
type Venue struct {
	ID                   string
	Name                 string
	FundingIntervalHours float64
	AuthRequired         bool
	Chain                string
	Website              string
}

// Venues is the authoritative venue table. Adapter construction, status
// reporting and the HTTP exchange listing all derive from it.
var Venues = map[string]Venue{
	"hyperliquid": {
		ID:                   "hyperliquid",
		Name:                 "Hyperliquid",
		FundingIntervalHours: 1,
		Chain:                "Hyperliquid L1",
		Website:              "https://hyperliquid.xyz",
	},
	"dydx": {
		ID:                   "dydx",
		Name:                 "dYdX",
		FundingIntervalHours: 8,
		Chain:                "dYdX Chain",
		Website:              "https://dydx.exchange",
	},
	"gmx": {
		ID:                   "gmx",
		Name:                 "GMX",
		FundingIntervalHours: 1,
		Chain:                "Arbitrum",
		Website:              "https://gmx.io",
	},
	"paradex": {
		ID:                   "paradex",
		Name:                 "Paradex",
		FundingIntervalHours: 8,
		Chain:                "Starknet",
		Website:              "https://paradex.trade",
	},
	"myx": {
		ID:                   "myx",
		Name:                 "MYX Finance",
		FundingIntervalHours: 8,
		Chain:                "BNB Chain",
		Website:              "https://myx.finance",
	},
	"jupiter": {
		ID:                   "jupiter",
		Name:                 "Jupiter",
		FundingIntervalHours: 1,
		Chain:                "Solana",
		Website:              "https://jup.ag",
	},
	"lighter": {
		ID:                   "lighter",
		Name:                 "Lighter",
		FundingIntervalHours: 1,
		AuthRequired:         true,
		Chain:                "zkSync",
		Website:              "https://lighter.xyz",
	},
	"aster": {
		ID:                   "aster",
		Name:                 "Aster",
		FundingIntervalHours: 8,
		AuthRequired:         true,
		Chain:                "BNB Chain",
		Website:              "https://asterdex.com",
	},
	"variational": {
		ID:                   "variational",
		Name:                 "Variational",
		FundingIntervalHours: 1,
		AuthRequired:         true,
		Chain:                "Arbitrum",
		Website:              "https://variational.io",
	},
	"edgex": {
		ID:                   "edgex",
		Name:                 "edgeX",
		FundingIntervalHours: 8,
		AuthRequired:         true,
		Chain:                "Ethereum L2",
		Website:              "https://edgex.exchange",
	},
	"grvt": {
		ID:                   "grvt",
		Name:                 "GRVT",
		FundingIntervalHours: 8,
		AuthRequired:         true,
		Chain:                "zkSync",
		Website:              "https://grvt.io",
	},
}

// VenueIDs is the stable presentation order used for status lists and the
// exchange listing endpoint.
var VenueIDs = []string{
	"hyperliquid",
	"dydx",
	"gmx",
	"paradex",
	"myx",
	"jupiter",
	"lighter",
	"aster",
	"variational",
	"edgex",
	"grvt",
}
