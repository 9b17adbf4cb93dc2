package models

// TreeNode is a node of the flare tree: either a *Leaf or an *Internal.
type TreeNode interface {
	NodeName() string
	isTreeNode()
}

// Leaf is an entity without expanded children.
type Leaf struct {
	Name string
}

// Internal is an entity with children. The last child of every internal node
// built from the graph is the synthetic singleEntries group.
type Internal struct {
	Name     string
	Children []TreeNode
}

// NodeName implements TreeNode.
func (l *Leaf) NodeName() string { return l.Name }

// NodeName implements TreeNode.
func (n *Internal) NodeName() string { return n.Name }

func (*Leaf) isTreeNode()     {}
func (*Internal) isTreeNode() {}

// FlareNode is the serialized tree, with names replaced by labels.
type FlareNode struct {
	Name     string       `json:"name"`
	NodeID   string       `json:"nodeId"`
	Children []*FlareNode `json:"children,omitempty"`
}

// CountNodes returns the number of nodes in the tree rooted at n.
func CountNodes(n TreeNode) int {
	count := 0
	stack := []TreeNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		count++

		if in, ok := cur.(*Internal); ok {
			stack = append(stack, in.Children...)
		}
	}

	return count
}
