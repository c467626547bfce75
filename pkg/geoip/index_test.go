package geoip

import (
	"net/netip"
	"testing"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	index, err := NewIndex(map[string][]netip.Prefix{
		"United States": {
			netip.MustParsePrefix("12.0.0.0/8"),
			netip.MustParsePrefix("198.51.100.0/24"),
		},
		"Germany": {
			netip.MustParsePrefix("85.88.0.0/16"),
		},
	})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	return index
}

func TestIndexContains(t *testing.T) {
	index := testIndex(t)

	tests := []struct {
		name    string
		country string
		ip      string
		want    bool
	}{
		{"inside /8", "United States", "12.34.56.78", true},
		{"inside /24", "United States", "198.51.100.7", true},
		{"outside", "United States", "85.88.1.1", false},
		{"other country", "Germany", "85.88.1.1", true},
		{"unknown country", "Atlantis", "12.34.56.78", false},
		{"boundary below", "United States", "11.255.255.255", false},
		{"boundary above", "United States", "13.0.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := index.Contains(tt.country, netip.MustParseAddr(tt.ip))
			if got != tt.want {
				t.Errorf("Contains(%q, %s) = %v, want %v", tt.country, tt.ip, got, tt.want)
			}
		})
	}
}

func TestIndexHasCountry(t *testing.T) {
	index := testIndex(t)
	if !index.HasCountry("Germany") {
		t.Error("expected Germany to be indexed")
	}
	if index.HasCountry("Atlantis") {
		t.Error("did not expect Atlantis to be indexed")
	}
	if index.Len() != 2 {
		t.Errorf("expected 2 countries, got %d", index.Len())
	}
}
