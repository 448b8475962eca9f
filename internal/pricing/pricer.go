package pricing

// WorkItem is a priced, selectable line item attached to a service. Catalog
// data is owned by the backend; this side only reads it.
type WorkItem struct {
	ID        int64
	Name      string
	UnitPrice Money
}

// ComputeTotal sums the unit prices of every catalog item whose id is
// selected. Selected ids that match nothing in the catalog are ignored:
// selection state may transiently reference a stale catalog during a refetch.
func ComputeTotal(catalog []WorkItem, selectedIDs map[int64]bool) Money {
	var total Money
	for _, item := range catalog {
		if selectedIDs[item.ID] {
			total = total.Add(item.UnitPrice)
		}
	}
	return total
}

// ValidateSelection reports whether at least one item is selected. An empty
// selection is a blocking validation error at submission time.
func ValidateSelection(selectedIDs map[int64]bool) bool {
	return len(selectedIDs) > 0
}
