package blocks

import (
	"github.com/notebase/notebase/pkg/models"
	"github.com/notebase/notebase/pkg/store"
)

// Sibling order keys are gap-based floats: appends advance by orderGap so
// an arbitrary number of midpoints fit between any two neighbours before a
// renumber is needed. Keys need no contiguity; only the relative order of a
// sibling group is meaningful.
const (
	orderGap = 1024.0

	// minOrderGap is the smallest usable distance between two sibling
	// keys. Below it, float midpoints stop being distinct and the group
	// is renumbered in one batch.
	minOrderGap = 1e-9
)

// orderAfter computes the order key that places a new or moved block
// immediately after the given sibling, or at the end of the group when
// after is nil. siblings must be in canonical order and must not contain
// the moving block itself.
//
// When the gap around the insertion point is exhausted the second return
// value carries a renumber batch for the whole group; the caller applies it
// first and the returned key is valid against the renumbered keys.
func orderAfter(siblings []*models.Block, after *models.Block) (float64, []store.BlockOrder) {
	if after == nil {
		if len(siblings) == 0 {
			return orderGap, nil
		}
		return siblings[len(siblings)-1].Order + orderGap, nil
	}

	idx := -1
	for i, s := range siblings {
		if s.ID == after.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		// after was validated by the caller; treat a miss as append.
		if len(siblings) == 0 {
			return orderGap, nil
		}
		return siblings[len(siblings)-1].Order + orderGap, nil
	}

	if idx == len(siblings)-1 {
		return siblings[idx].Order + orderGap, nil
	}

	prev, next := siblings[idx].Order, siblings[idx+1].Order
	if next-prev > 2*minOrderGap {
		return prev + (next-prev)/2, nil
	}

	// Gap exhausted: renumber the whole group with fresh gaps, then slot
	// the new key into the middle of the reopened gap.
	batch := renumber(siblings)
	return batch[idx].Order + orderGap/2, batch
}

// renumber assigns fresh gap-based keys to a sibling group, preserving its
// current order.
func renumber(siblings []*models.Block) []store.BlockOrder {
	batch := make([]store.BlockOrder, len(siblings))
	for i, s := range siblings {
		batch[i] = store.BlockOrder{BlockID: s.ID, Order: float64(i+1) * orderGap}
	}
	return batch
}
