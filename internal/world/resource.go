package world

import (
	"fmt"
	"math"
	"sort"
)

// Resource is the closed set of numeric ranch resources.
type Resource uint8

const (
	Coins Resource = iota
	Berries
	Wood
	Stone
	HappinessStars
	EvolutionCrystals

	resourceCount
)

var resourceNames = [resourceCount]string{
	Coins:             "coins",
	Berries:           "berries",
	Wood:              "wood",
	Stone:             "stone",
	HappinessStars:    "happiness_stars",
	EvolutionCrystals: "evolution_crystals",
}

// AllResources lists every resource in declaration order.
func AllResources() []Resource {
	out := make([]Resource, 0, resourceCount)
	for r := Resource(0); r < resourceCount; r++ {
		out = append(out, r)
	}
	return out
}

func (r Resource) String() string {
	if r < resourceCount {
		return resourceNames[r]
	}
	return fmt.Sprintf("resource(%d)", uint8(r))
}

func (r Resource) MarshalText() ([]byte, error) {
	if r >= resourceCount {
		return nil, fmt.Errorf("unknown resource %d", uint8(r))
	}
	return []byte(resourceNames[r]), nil
}

func (r *Resource) UnmarshalText(b []byte) error {
	p, err := ParseResource(string(b))
	if err != nil {
		return err
	}
	*r = p
	return nil
}

func ParseResource(name string) (Resource, error) {
	for i, n := range resourceNames {
		if n == name {
			return Resource(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource %q", name)
}

// Resources maps a resource to a non-negative quantity. A key that is
// present (even at zero) is a resource the ranch holds.
type Resources map[Resource]int

func (rs Resources) Clone() Resources {
	out := make(Resources, len(rs))
	for r, n := range rs {
		out[r] = n
	}
	return out
}

// Has reports whether every quantity in cost is available.
func (rs Resources) Has(cost Resources) bool {
	for r, n := range cost {
		if n <= 0 {
			continue
		}
		if rs[r] < n {
			return false
		}
	}
	return true
}

// Spend deducts cost only if all of it is affordable.
func (rs Resources) Spend(cost Resources) bool {
	if !rs.Has(cost) {
		return false
	}
	for r, n := range cost {
		if n > 0 {
			rs[r] -= n
		}
	}
	return true
}

// Add credits n of r; negative results are floored at zero.
func (rs Resources) Add(r Resource, n int) {
	rs[r] += n
	if rs[r] < 0 {
		rs[r] = 0
	}
}

// AddAll credits every entry of other.
func (rs Resources) AddAll(other Resources) {
	for r, n := range other {
		rs.Add(r, n)
	}
}

// Scale returns floor(q × f) for every entry.
func (rs Resources) Scale(f float64) Resources {
	out := make(Resources, len(rs))
	for r, n := range rs {
		out[r] = int(math.Floor(float64(n) * f))
	}
	return out
}

// Keys returns the held resources in declaration order.
func (rs Resources) Keys() []Resource {
	keys := make([]Resource, 0, len(rs))
	for r := range rs {
		keys = append(keys, r)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
