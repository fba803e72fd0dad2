package models

import "fmt"

const (
	CopperPerSilver = 100
	CopperPerGold   = 100 * CopperPerSilver
)

// Coins is the three-tier display decomposition of a copper amount.
type Coins struct {
	Gold   int64 `json:"gold"`
	Silver int64 `json:"silver"`
	Copper int64 `json:"copper"`
}

// SplitCoins decomposes a non-negative copper amount into gold, silver and
// copper. Integer arithmetic only, so the parts always recompose exactly:
// Gold*10000 + Silver*100 + Copper == amount.
func SplitCoins(amount int64) Coins {
	if amount < 0 {
		amount = 0
	}
	return Coins{
		Gold:   amount / CopperPerGold,
		Silver: (amount % CopperPerGold) / CopperPerSilver,
		Copper: amount % CopperPerSilver,
	}
}

// Total recomposes the decomposition back into copper.
func (c Coins) Total() int64 {
	return c.Gold*CopperPerGold + c.Silver*CopperPerSilver + c.Copper
}

func (c Coins) String() string {
	return fmt.Sprintf("%d gold, %d silver, %d copper", c.Gold, c.Silver, c.Copper)
}

// FormatCoins renders an amount as a coin string. Negative amounts (session
// losses) keep a single leading minus sign.
func FormatCoins(amount int64) string {
	if amount < 0 {
		return "-" + SplitCoins(-amount).String()
	}
	return SplitCoins(amount).String()
}
