package latchlist

// Unlatched is the Latched value of an item that is not pinned to a slot.
const Unlatched = -1

// Item is an element of a List.
type Item[T any] struct {
	ID      string  `json:"id"`
	Order   float64 `json:"order"`
	Latched int     `json:"latched"`
	Payload T       `json:"payload"`
}

// IsLatched reports whether the item is pinned to a slot.
func (it Item[T]) IsLatched() bool {
	return it.Latched >= 0
}

// Positioned is an item together with its index in the list.
type Positioned[T any] struct {
	Index int     `json:"index"`
	Item  Item[T] `json:"item"`
}
