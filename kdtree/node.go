package kdtree

// node holds exactly one point. left is set whenever the node has any child.
type node[P Point] struct {
	point P
	left  *node[P]
	right *node[P]
}

func (n *node[P]) isLeaf() bool {
	return n.left == nil && n.right == nil
}

func (n *node[P]) height() int {
	if n == nil {
		return 0
	}
	return 1 + max(n.left.height(), n.right.height())
}
