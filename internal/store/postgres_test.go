package store

import (
	"strings"
	"testing"
)

func TestBuildHistoricalQuery(t *testing.T) {
	sql, args := buildHistoricalQuery("BTC-USD", nil, 24)

	if !strings.Contains(sql, "WHERE symbol = $1") {
		t.Errorf("query should filter by symbol: %s", sql)
	}
	if strings.Contains(sql, "ANY($3)") {
		t.Error("query without venue filter should not reference $3")
	}
	if !strings.HasSuffix(sql, "ORDER BY time DESC") {
		t.Errorf("query should order newest first: %s", sql)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0] != "BTC-USD" || args[1] != 24 {
		t.Errorf("args = %v", args)
	}
}

func TestBuildHistoricalQueryWithExchanges(t *testing.T) {
	sql, args := buildHistoricalQuery("ETH-USD", []string{"dydx", "gmx"}, 48)

	if !strings.Contains(sql, "exchange_id = ANY($3)") {
		t.Errorf("query should filter by venue list: %s", sql)
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(args))
	}
	ids, ok := args[2].([]string)
	if !ok || len(ids) != 2 {
		t.Errorf("args[2] = %v", args[2])
	}
}

func TestUpsertStatusPreservesSuccessTime(t *testing.T) {
	// The CASE WHEN guard is the contract: a failed fetch must not null out
	// the previous success timestamp.
	if !strings.Contains(upsertFetchStatus, "CASE WHEN $3::timestamptz IS NOT NULL") {
		t.Error("fetch status upsert must preserve last_success_time on failure")
	}
	if !strings.Contains(upsertFetchStatus, "ELSE fetch_status.last_success_time") {
		t.Error("fetch status upsert must fall back to the stored success time")
	}
}
