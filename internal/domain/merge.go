package domain

// ItemRequest is a single add/update mutation against a cart's item set.
// Quantity is a direction signal, not a magnitude: any positive value means
// one unit up, any non-positive value means one unit down.
type ItemRequest struct {
	ProductID string
	Quantity  int
	Wishlist  bool
}

// Merge reconciles a mutation request against the current item set, mutating
// items in place, and returns the item that was touched. It performs no I/O;
// callers serialize access to the map.
//
// Rules:
//   - First add of a product creates the item with quantity 1, or 0 when the
//     request targets the wishlist. Any requested quantity is ignored.
//   - For an existing item the wishlist flag is taken from the request. A
//     non-wishlist request adjusts quantity by exactly one unit in the
//     requested direction, floored at zero. A wishlist request leaves the
//     quantity untouched, stale as it may be.
//   - Quantity reaching zero does not delete the item; removal is explicit.
func Merge(items map[string]CartItem, req ItemRequest) CartItem {
	existing, ok := items[req.ProductID]
	if !ok {
		item := CartItem{
			ProductID: req.ProductID,
			Wishlist:  req.Wishlist,
			Quantity:  1,
		}
		if req.Wishlist {
			item.Quantity = 0
		}
		items[req.ProductID] = item
		return item
	}

	// Take the existing item out so the set is key-free during recomputation.
	delete(items, req.ProductID)

	item := existing
	item.Wishlist = req.Wishlist

	if !req.Wishlist {
		step := 1
		if req.Quantity <= 0 {
			step = -1
		}
		item.Quantity = max(existing.Quantity+step, 0)
	}

	items[req.ProductID] = item
	return item
}
