// Package economy prices the "reset my timer" action from the time already spent on a level.
package economy

import (
	"fmt"
	"math"
	"sort"
)

// Unbounded marks the open upper edge of the last tier.
const Unbounded = math.MaxInt

// CostTier is one row of the reset price table. Bounds are inclusive.
type CostTier struct {
	LowerBoundSeconds int    `json:"lowerBoundSeconds" yaml:"lower"`
	UpperBoundSeconds int    `json:"upperBoundSeconds" yaml:"upper"`
	CoinCost          int    `json:"coinCost" yaml:"cost"`
	Label             string `json:"label" yaml:"label"`
}

// Quote is what the confirmation dialog shows before a reset is bought.
type Quote struct {
	Seconds  int    `json:"seconds"`
	CoinCost int    `json:"coinCost"`
	Label    string `json:"label"`
}

// Table is an ordered, contiguous list of tiers whose last entry is unbounded.
type Table []CostTier

// DefaultTable is the price curve used by the game.
var DefaultTable = Table{
	{LowerBoundSeconds: 0, UpperBoundSeconds: 30, CoinCost: 5, Label: "Under 30 seconds"},
	{LowerBoundSeconds: 31, UpperBoundSeconds: 60, CoinCost: 10, Label: "30 seconds to 1 minute"},
	{LowerBoundSeconds: 61, UpperBoundSeconds: 180, CoinCost: 15, Label: "1 to 3 minutes"},
	{LowerBoundSeconds: 181, UpperBoundSeconds: 300, CoinCost: 20, Label: "3 to 5 minutes"},
	{LowerBoundSeconds: 301, UpperBoundSeconds: 600, CoinCost: 30, Label: "5 to 10 minutes"},
	{LowerBoundSeconds: 601, UpperBoundSeconds: 1200, CoinCost: 40, Label: "10 to 20 minutes"},
	{LowerBoundSeconds: 1201, UpperBoundSeconds: Unbounded, CoinCost: 50, Label: "Over 20 minutes"},
}

// Lookup returns the first tier whose upper bound covers secondsSpent.
// Negative input is treated as zero; values past every explicit bound land on the last tier.
func (t Table) Lookup(secondsSpent int) CostTier {
	if len(t) == 0 {
		return CostTier{}
	}
	if secondsSpent < 0 {
		secondsSpent = 0
	}
	i := sort.Search(len(t), func(i int) bool {
		return t[i].UpperBoundSeconds >= secondsSpent
	})
	if i == len(t) {
		i = len(t) - 1
	}
	return t[i]
}

// PriceReset returns the coin cost of resetting a timer showing secondsSpent.
func (t Table) PriceReset(secondsSpent int) int {
	return t.Lookup(secondsSpent).CoinCost
}

// DescribeTier returns the label of the tier PriceReset would charge.
func (t Table) DescribeTier(secondsSpent int) string {
	return t.Lookup(secondsSpent).Label
}

// Quote prices secondsSpent in a single lookup.
func (t Table) Quote(secondsSpent int) Quote {
	tier := t.Lookup(secondsSpent)
	if secondsSpent < 0 {
		secondsSpent = 0
	}
	return Quote{Seconds: secondsSpent, CoinCost: tier.CoinCost, Label: tier.Label}
}

// Validate checks that the table starts at zero, is contiguous, never gets cheaper
// and ends with an unbounded tier.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("cost table is empty")
	}
	if t[0].LowerBoundSeconds != 0 {
		return fmt.Errorf("first tier must start at 0, got %d", t[0].LowerBoundSeconds)
	}
	for i, tier := range t {
		if tier.UpperBoundSeconds < tier.LowerBoundSeconds {
			return fmt.Errorf("tier %d: upper bound %d below lower bound %d", i, tier.UpperBoundSeconds, tier.LowerBoundSeconds)
		}
		if tier.CoinCost < 0 {
			return fmt.Errorf("tier %d: negative cost %d", i, tier.CoinCost)
		}
		if i == 0 {
			continue
		}
		prev := t[i-1]
		if prev.UpperBoundSeconds == Unbounded {
			return fmt.Errorf("tier %d follows an unbounded tier", i)
		}
		if tier.LowerBoundSeconds != prev.UpperBoundSeconds+1 {
			return fmt.Errorf("tier %d: gap or overlap after %ds", i, prev.UpperBoundSeconds)
		}
		if tier.CoinCost < prev.CoinCost {
			return fmt.Errorf("tier %d: cost %d is cheaper than previous tier", i, tier.CoinCost)
		}
	}
	if t[len(t)-1].UpperBoundSeconds != Unbounded {
		return fmt.Errorf("last tier must be unbounded")
	}
	return nil
}

// PriceReset prices secondsSpent against DefaultTable.
func PriceReset(secondsSpent int) int {
	return DefaultTable.PriceReset(secondsSpent)
}

// DescribeTier labels secondsSpent against DefaultTable.
func DescribeTier(secondsSpent int) string {
	return DefaultTable.DescribeTier(secondsSpent)
}
