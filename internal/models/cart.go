package models

// CartLine is one cart entry. Customization participates in line identity:
// two lines with the same item id but different customization are distinct.
// A line with quantity 0 must never exist in a cart collection.
type CartLine struct {
	ItemID        string  `json:"item_id"`
	Name          string  `json:"name"`
	UnitPrice     float64 `json:"unit_price"`
	Quantity      int     `json:"quantity"`
	Customization string  `json:"customization,omitempty"`
}

// Key returns the merge identity of the line.
func (l CartLine) Key() string {
	return l.ItemID + "|" + l.Customization
}

// Subtotal returns price × quantity for the line.
func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}
