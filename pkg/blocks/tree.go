package blocks

import (
	"sort"
	"strings"

	"github.com/notebase/notebase/pkg/models"
)

// Node is one block of an assembled page tree with its resolved children,
// ordered by the sibling sort key.
type Node struct {
	models.Block
	Children []*Node `json:"children"`
}

// Assemble builds the ordered forest for one page out of its flat block
// rows. Grouping is a single pass; each sibling group is sorted once by
// (order, created_at, id). A block whose parent is not present in the input
// is treated as a root so a tolerant read never drops content.
func Assemble(flat []*models.Block) []*Node {
	nodes := make(map[models.BlockID]*Node, len(flat))
	for _, b := range flat {
		nodes[b.ID] = &Node{Block: *b, Children: []*Node{}}
	}

	roots := []*Node{}
	for _, b := range flat {
		n := nodes[b.ID]
		if b.ParentBlockID != nil {
			if parent, ok := nodes[*b.ParentBlockID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	sortSiblings(roots)
	for _, n := range nodes {
		sortSiblings(n.Children)
	}
	return roots
}

// Flatten is the inverse of Assemble: it walks the forest depth-first and
// re-derives each level's order keys from traversal position. Parent links
// are rewritten from the tree shape, so a forest rebuilt by a bulk edit
// (e.g. a drag spanning several parents) persists in one pass.
func Flatten(forest []*Node) []*models.Block {
	out := make([]*models.Block, 0, countNodes(forest))
	flattenLevel(forest, nil, &out)
	return out
}

func flattenLevel(siblings []*Node, parentID *models.BlockID, out *[]*models.Block) {
	for i, n := range siblings {
		b := n.Block
		b.Order = float64(i+1) * orderGap
		b.ParentBlockID = parentID
		cp := b
		*out = append(*out, &cp)
		id := b.ID
		flattenLevel(n.Children, &id, out)
	}
}

func countNodes(forest []*Node) int {
	total := 0
	for _, n := range forest {
		total += 1 + countNodes(n.Children)
	}
	return total
}

// Walk visits every node of the forest depth-first, parents before
// children, siblings in order.
func Walk(forest []*Node, visit func(*Node)) {
	for _, n := range forest {
		visit(n)
		Walk(n.Children, visit)
	}
}

func sortSiblings(siblings []*Node) {
	sort.SliceStable(siblings, func(i, j int) bool {
		return lessBlock(&siblings[i].Block, &siblings[j].Block)
	})
}

// lessBlock is the canonical sibling order: order key ascending, ties
// broken by creation time, then id for determinism.
func lessBlock(a, b *models.Block) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}

// siblingsOf selects, in canonical order, the blocks of one sibling group
// from a page's flat rows, excluding the block identified by skip.
func siblingsOf(flat []*models.Block, parentID *models.BlockID, skip models.BlockID) []*models.Block {
	group := []*models.Block{}
	for _, b := range flat {
		if b.ID == skip {
			continue
		}
		if sameParent(b.ParentBlockID, parentID) {
			group = append(group, b)
		}
	}
	sort.SliceStable(group, func(i, j int) bool { return lessBlock(group[i], group[j]) })
	return group
}

func sameParent(a, b *models.BlockID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
