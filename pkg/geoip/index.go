// Package geoip maps country names to IPv4 prefix sets for geofencing.
// The index is built once at startup and is read-only afterwards, so
// lookups are safe from any goroutine without locking.
package geoip

import (
	"fmt"
	"net/netip"

	"go4.org/netipx"
)

// Index answers "does this IP belong to this country" queries.
type Index struct {
	countries map[string]*netipx.IPSet
}

// NewIndex compiles an index from per-country prefix lists.
func NewIndex(prefixes map[string][]netip.Prefix) (*Index, error) {
	countries := make(map[string]*netipx.IPSet, len(prefixes))
	for country, nets := range prefixes {
		var b netipx.IPSetBuilder
		for _, p := range nets {
			b.AddPrefix(p)
		}
		set, err := b.IPSet()
		if err != nil {
			return nil, fmt.Errorf("compiling prefix set for %q: %w", country, err)
		}
		countries[country] = set
	}
	return &Index{countries: countries}, nil
}

// Contains reports whether ip falls inside the prefixes registered for
// country. An unknown country is a plain false, not an error.
func (x *Index) Contains(country string, ip netip.Addr) bool {
	set, ok := x.countries[country]
	if !ok {
		return false
	}
	return set.Contains(ip)
}

// HasCountry reports whether the country is present in the index
func (x *Index) HasCountry(country string) bool {
	_, ok := x.countries[country]
	return ok
}

// Len returns the number of indexed countries
func (x *Index) Len() int {
	return len(x.countries)
}
