// Package tree provides a rooted phylogenetic tree with branch
// lengths and the operations pgls needs from it: tip ordering,
// root-to-node distances, ultrametricity checks and tip pruning.
package tree

import (
	"fmt"
	"strings"
)

// UltrametricTol is the default relative tolerance for the
// ultrametricity check: the root-to-tip distance spread may not
// exceed this fraction of the tree height.
const UltrametricTol = 1e-6

// Tree is a rooted tree with a root node and node caches.
type Tree struct {
	*Node
	nNodes    int
	nodes     []*Node
	nodeOrder []*Node
	rootDist  []float64
	tips      []*Node
}

// ClearCache invalidates all the cached node arrays. It must be
// called after any direct modification of the topology.
func (tree *Tree) ClearCache() {
	tree.nNodes = 0
	tree.nodes = nil
	tree.nodeOrder = nil
	tree.rootDist = nil
	tree.tips = nil
}

// NNodes returns the total number of nodes.
func (tree *Tree) NNodes() int {
	if tree.nNodes == 0 {
		tree.nNodes = tree.NSubNodes()
	}
	return tree.nNodes
}

// Nodes returns a slice of all the nodes indexed by node id.
func (tree *Tree) Nodes() []*Node {
	if tree.nodes == nil {
		tree.nodes = make([]*Node, tree.NNodes())
		for node := range tree.Walker(nil) {
			tree.nodes[node.ID] = node
		}
	}
	return tree.nodes
}

// Terminals returns a channel with all the tip nodes.
func (tree *Tree) Terminals() <-chan *Node {
	return tree.Walker(func(node *Node) bool {
		return node.IsTerminal()
	})
}

// NonTerminals returns a channel with all the internal nodes.
func (tree *Tree) NonTerminals() <-chan *Node {
	return tree.Walker(func(node *Node) bool {
		return !node.IsTerminal()
	})
}

// NLeaves returns the number of tips.
func (tree *Tree) NLeaves() int {
	return len(tree.Tips())
}

// Tips returns all the tip nodes ordered by LeafID. This order
// matches the order of tip names in the Newick string and is the
// canonical row/column order for the covariance matrix.
func (tree *Tree) Tips() []*Node {
	if tree.tips == nil {
		n := 0
		for node := range tree.Terminals() {
			if node.LeafID+1 > n {
				n = node.LeafID + 1
			}
		}
		tree.tips = make([]*Node, n)
		for node := range tree.Terminals() {
			tree.tips[node.LeafID] = node
		}
	}
	return tree.tips
}

// TipNames returns tip names in LeafID order.
func (tree *Tree) TipNames() []string {
	tips := tree.Tips()
	names := make([]string, len(tips))
	for i, tip := range tips {
		names[i] = tip.Name
	}
	return names
}

// Walker returns a channel with all the nodes matching filter,
// pre-order.
func (tree *Tree) Walker(filter func(*Node) bool) <-chan *Node {
	ch := make(chan *Node, tree.NNodes())
	tree.Walk(ch, filter)
	close(ch)
	return ch
}

// Copy creates an independent copy of the tree.
func (tree *Tree) Copy() (newTree *Tree) {
	nNodes := tree.NNodes()
	newTree = &Tree{
		nNodes: nNodes,
		nodes:  make([]*Node, nNodes),
	}

	for i, node := range tree.Nodes() {
		if i != node.ID {
			panic("node id mismatch")
		}
		newTree.nodes[i] = node.Copy()
	}

	// Rewire node/parent connections.
	for i, node := range tree.Nodes() {
		newNode := newTree.nodes[i]
		for _, child := range node.childNodes {
			newNode.AddChild(newTree.nodes[child.ID])
		}
	}

	newTree.Node = newTree.nodes[0]

	return
}

// NodeOrder returns internal nodes in post-order, i.e. every node
// comes after all of its children.
func (tree *Tree) NodeOrder() []*Node {
	if tree.nodeOrder == nil {
		tree.nodeOrder = make([]*Node, 0, tree.NNodes())
		computed := make(map[*Node]bool, tree.NNodes())
		awaiting := make(chan *Node, tree.NNodes()*2)
		for node := range tree.Terminals() {
			computed[node] = true
			awaiting <- node.Parent
		}

		for node := range awaiting {
			if node == nil {
				break
			}
			if computed[node] {
				continue
			}
			allComputed := true
			for _, childNode := range node.ChildNodes() {
				if !computed[childNode] {
					allComputed = false
					break
				}
			}
			if !allComputed {
				awaiting <- node
			} else {
				tree.nodeOrder = append(tree.nodeOrder, node)
				computed[node] = true
				awaiting <- node.Parent
			}
		}
	}
	return tree.nodeOrder
}

// RootDistances returns the root-to-node path length for every node,
// indexed by node id. The root's own branch length is not counted.
func (tree *Tree) RootDistances() []float64 {
	if tree.rootDist == nil {
		tree.rootDist = make([]float64, tree.NNodes())
		// Walker is pre-order, parents always come first.
		for node := range tree.Walker(nil) {
			if node.IsRoot() {
				tree.rootDist[node.ID] = 0
				continue
			}
			tree.rootDist[node.ID] = tree.rootDist[node.Parent.ID] + node.BranchLength
		}
	}
	return tree.rootDist
}

// Height returns the maximum root-to-tip distance.
func (tree *Tree) Height() (h float64) {
	dist := tree.RootDistances()
	for _, tip := range tree.Tips() {
		if dist[tip.ID] > h {
			h = dist[tip.ID]
		}
	}
	return
}

// IsUltrametric tests whether all the root-to-tip distances are
// equal up to a relative tolerance (fraction of the tree height).
// Use UltrametricTol unless there is a reason not to.
func (tree *Tree) IsUltrametric(tol float64) bool {
	dist := tree.RootDistances()
	min, max := -1.0, 0.0
	for _, tip := range tree.Tips() {
		d := dist[tip.ID]
		if min < 0 || d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	if max == 0 {
		return true
	}
	return (max-min)/max <= tol
}

// Validate checks the structural invariants of a rooted tree: a
// single root, consistent parent links, non-negative branch lengths,
// at least one tip and unique tip names. Any violation is returned
// as a malformed-tree error.
func (tree *Tree) Validate() error {
	if tree.Node == nil {
		return fmt.Errorf("%w: empty tree", ErrMalformedTree)
	}
	if !tree.Node.IsRoot() {
		return fmt.Errorf("%w: root node has a parent", ErrMalformedTree)
	}

	seen := make(map[*Node]bool, tree.NNodes())
	names := make(map[string]bool)
	nTips := 0

	stack := []*Node{tree.Node}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[node] {
			return fmt.Errorf("%w: node <%s> reachable twice", ErrMalformedTree, node.Name)
		}
		seen[node] = true
		if node.BranchLength < 0 {
			return fmt.Errorf("%w: negative branch length %v on node <%s>",
				ErrMalformedTree, node.BranchLength, node.Name)
		}
		if node.IsTerminal() {
			nTips++
			if node.Name == "" {
				return fmt.Errorf("%w: unnamed tip (id=%d)", ErrMalformedTree, node.ID)
			}
			if names[node.Name] {
				return fmt.Errorf("%w: duplicate tip name %q", ErrMalformedTree, node.Name)
			}
			names[node.Name] = true
		}
		for _, child := range node.childNodes {
			if child.Parent != node {
				return fmt.Errorf("%w: broken parent link at node <%s>", ErrMalformedTree, child.Name)
			}
			stack = append(stack, child)
		}
	}

	if nTips == 0 {
		return fmt.Errorf("%w: no tips", ErrMalformedTree)
	}
	return nil
}

// Prune removes all the tips whose names are not in keep. Internal
// nodes left with a single child are collapsed, their branch lengths
// summed. Node and leaf ids are renumbered. When the root itself
// collapses, the new root's branch length is reset to zero, so the
// shared stem below the remaining clade is not counted.
func (tree *Tree) Prune(keep map[string]bool) error {
	newRoot := pruneNode(tree.Node, keep)
	if newRoot == nil {
		return fmt.Errorf("%w: pruning removed all tips", ErrMalformedTree)
	}
	newRoot.Parent = nil
	newRoot.BranchLength = 0
	tree.Node = newRoot
	tree.renumber()
	return nil
}

// pruneNode returns the pruned version of the subtree rooted at
// node, nil if nothing is left of it.
func pruneNode(node *Node, keep map[string]bool) *Node {
	if node.IsTerminal() {
		if keep[node.Name] {
			return node
		}
		return nil
	}

	kept := make([]*Node, 0, len(node.childNodes))
	for _, child := range node.childNodes {
		if newChild := pruneNode(child, keep); newChild != nil {
			kept = append(kept, newChild)
		}
	}

	switch len(kept) {
	case 0:
		return nil
	case 1:
		// collapse the unary node
		kept[0].BranchLength += node.BranchLength
		return kept[0]
	}

	node.childNodes = kept
	for _, child := range kept {
		child.Parent = node
	}
	return node
}

// renumber reassigns node and leaf ids after a topology change.
func (tree *Tree) renumber() {
	tree.ClearCache()
	nodeID := 0
	leafID := 0
	for node := range tree.Walker(nil) {
		node.ID = nodeID
		nodeID++
		if node.IsTerminal() {
			node.LeafID = leafID
			leafID++
		}
	}
	// ids changed, caches indexed by them are stale
	tree.ClearCache()
}

// Node is a single node of a tree.
type Node struct {
	Name         string
	BranchLength float64
	Parent       *Node
	childNodes   []*Node
	ID           int
	LeafID       int
}

// NewNode creates a new node.
func NewNode(parent *Node, nodeID int) *Node {
	return &Node{Parent: parent, ID: nodeID}
}

// Copy creates a copy of the node with empty parent and children.
func (node *Node) Copy() *Node {
	return &Node{
		Name:         node.Name,
		BranchLength: node.BranchLength,
		childNodes:   make([]*Node, 0, len(node.childNodes)),
		ID:           node.ID,
		LeafID:       node.LeafID,
	}
}

// AddChild adds a child node.
func (node *Node) AddChild(subNode *Node) {
	subNode.Parent = node
	node.childNodes = append(node.childNodes, subNode)
}

// ChildNodes returns the direct children.
func (node *Node) ChildNodes() []*Node {
	return node.childNodes
}

// String returns the subtree in Newick notation.
func (node *Node) String() (s string) {
	if node.IsTerminal() {
		return fmt.Sprintf("%s:%0.6f", node.Name, node.BranchLength)
	}
	s += "("
	for i, child := range node.childNodes {
		s += child.String()
		if i != len(node.childNodes)-1 {
			s += ","
		}
	}
	s += fmt.Sprintf("):%0.6f", node.BranchLength)
	if node.IsRoot() {
		s += ";"
	}
	return s
}

// LongString returns a verbose one-line description of the node.
func (node *Node) LongString() (s string) {
	s = "<"
	if node.Parent == nil {
		s += "root, "
	}
	if node.Name != "" {
		s += "name=" + node.Name + ", "
	}
	s += fmt.Sprintf("ID=%v, BranchLength=%v", node.ID, node.BranchLength)
	if node.IsTerminal() {
		s += fmt.Sprintf(", TipID=%v", node.LeafID)
	}
	s += ">"
	return
}

// FullString returns an indented multiline representation of the
// subtree.
func (node *Node) FullString() string {
	return strings.TrimSpace(node.prefixString(""))
}

func (node *Node) prefixString(prefix string) (s string) {
	s = prefix + node.LongString() + "\n"
	for _, node := range node.childNodes {
		s += node.prefixString(prefix + "    ")
	}
	return
}

// Walk sends all the nodes of the subtree matching filter to the
// channel.
func (node *Node) Walk(ch chan *Node, filter func(*Node) bool) {
	if filter == nil || filter(node) {
		ch <- node
	}
	for _, node := range node.childNodes {
		node.Walk(ch, filter)
	}
}

// NSubNodes returns the number of nodes in the subtree including the
// node itself.
func (node *Node) NSubNodes() (size int) {
	for _, node := range node.childNodes {
		size += node.NSubNodes()
	}
	return size + 1
}

// IsRoot returns true if the node has no parent.
func (node *Node) IsRoot() bool {
	return node.Parent == nil
}

// IsTerminal returns true if the node is a tip.
func (node *Node) IsTerminal() bool {
	return len(node.childNodes) == 0
}
