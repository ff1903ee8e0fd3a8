package paste

import (
	"fmt"
	"sort"
	"time"
)

// Named expiries accepted on create.
var Expiries = map[string]time.Duration{
	"1hour":  time.Hour,
	"1day":   24 * time.Hour,
	"1week":  7 * 24 * time.Hour,
	"1month": 30 * 24 * time.Hour,
}

// DefaultExpiry is used when a create request names none.
const DefaultExpiry = "1week"

// ParseExpiry resolves an expiry name; "" means DefaultExpiry.
func ParseExpiry(name string) (time.Duration, error) {
	if name == "" {
		name = DefaultExpiry
	}
	d, ok := Expiries[name]
	if !ok {
		return 0, fmt.Errorf("invalid expiry %q: must be one of %v", name, ExpiryNames())
	}
	return d, nil
}

// ExpiryNames returns the accepted names, shortest first.
func ExpiryNames() []string {
	names := make([]string, 0, len(Expiries))
	for n := range Expiries {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return Expiries[names[i]] < Expiries[names[j]] })
	return names
}
