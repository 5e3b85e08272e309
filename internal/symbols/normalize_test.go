package symbols

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"BTC-USD-PERP", "BTC-USD"},
		{"BTC_PERP", "BTC-USD"},
		{"BTCPERP", "BTC-USD"},
		{"BTC/USD:USD", "BTC-USD"},
		{"BTC/USD", "BTC-USD"},
		{"BTCUSDT", "BTC-USD"},
		{"btcusdt", "BTC-USD"},
		{"BTC-USDT", "BTC-USD"},
		{"ETHUSDC", "ETH-USD"},
		{"SOLBUSD", "SOL-USD"},
		{"PEPEDAI", "PEPE-USD"},
		{"ETH", "ETH-USD"},
		{"ETH-PERP", "ETH-USD"},
		{"kPEPE", "KPEPE-USD"},
		{"BTC-USD", "BTC-USD"},
		{"1000SHIBUSDT", "1000SHIB-USD"},
		{" doge-usd ", "DOGE-USD"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"BTC-USD-PERP", "btcusdt", "ETH_PERP", "SOL/USD:USD",
		"XRPUSDC", "DOGE", "BTC-USDT", "AVAX/USD",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

func TestNormalizeCaseInsensitive(t *testing.T) {
	if Normalize("btcusdt") != Normalize("BTC-USDT") {
		t.Errorf("expected btcusdt and BTC-USDT to normalize identically")
	}
	if got := Normalize("btcusdt"); got != "BTC-USD" {
		t.Errorf("Normalize(btcusdt) = %q, want BTC-USD", got)
	}
}
