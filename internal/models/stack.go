package models

// OwnedItemStack is a quantity of one item type held by a character, rebuilt
// from the remote catalog on every valuation pass and never persisted.
type OwnedItemStack struct {
	ItemID        int    `json:"id"`
	Count         int64  `json:"count"`
	Binding       string `json:"binding,omitempty"`
	CharacterName string `json:"character_name,omitempty"`
}

// Bound reports whether the stack instance carries a binding attribute.
// Bound stacks cannot be listed on the trading post regardless of metadata.
func (s OwnedItemStack) Bound() bool {
	return s.Binding != ""
}
