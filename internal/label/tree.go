package label

import "github.com/persistorai/wdtree/internal/models"

// LabelTree copies the tree with every name replaced by its label. The
// original id is kept in NodeID; the shape is unchanged.
func (l *Labeler) LabelTree(root models.TreeNode) *models.FlareNode {
	type item struct {
		node models.TreeNode
		out  *models.FlareNode
	}

	out := &models.FlareNode{}
	stack := []item{{node: root, out: out}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := it.node.NodeName()
		it.out.Name = l.ToHumanReadable(id)
		it.out.NodeID = id

		in, ok := it.node.(*models.Internal)
		if !ok || len(in.Children) == 0 {
			continue
		}

		it.out.Children = make([]*models.FlareNode, len(in.Children))
		for i, c := range in.Children {
			it.out.Children[i] = &models.FlareNode{}
			stack = append(stack, item{node: c, out: it.out.Children[i]})
		}
	}

	return out
}
