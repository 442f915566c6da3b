package geometry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Order selects the drawing order of regions.
type Order string

const (
	// OrderArea draws the largest regions first so smaller ones layer on top.
	OrderArea       Order = "area"
	OrderSmallFirst Order = "smallfirst"
	OrderRandom     Order = "random"
	OrderInput      Order = "input"
)

var ErrUnknownOrder = errors.New("unknown order")

// Orders lists every supported order, default first.
func Orders() []Order {
	return []Order{OrderArea, OrderSmallFirst, OrderRandom, OrderInput}
}

// ParseOrder maps a configuration string to an Order. The empty string is
// the default area order.
func ParseOrder(s string) (Order, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return OrderArea, nil
	}
	for _, o := range Orders() {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOrder, s)
}

// Shuffler is the random source used for random orders. *rand.Rand from
// math/rand and math/rand/v2 both satisfy it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Sort reorders items in place. area is evaluated once per item. Area-based
// orders are stable so equal areas keep their input order. OrderRandom with a
// nil rng shuffles with a time-seeded source.
func Sort[T any](items []T, order Order, area func(T) float64, rng Shuffler) {
	switch order {
	case OrderArea, OrderSmallFirst:
		type keyed struct {
			item T
			area float64
		}
		ks := make([]keyed, len(items))
		for i, it := range items {
			ks[i] = keyed{it, area(it)}
		}
		slices.SortStableFunc(ks, func(a, b keyed) int {
			if order == OrderArea {
				a, b = b, a
			}
			switch {
			case a.area < b.area:
				return -1
			case a.area > b.area:
				return 1
			}
			return 0
		})
		for i := range ks {
			items[i] = ks[i].item
		}
	case OrderRandom:
		if rng == nil {
			rng = NewRand(0)
		}
		rng.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	}
}
