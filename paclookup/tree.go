package paclookup

import (
	"strings"

	"github.com/TimeForANinja/pacserver/ipnet"
	"github.com/TimeForANinja/pacserver/zonefeed"
)

// Node is one vertex of the immutable lookup tree. Children are kept
// in insertion order. A later element whose prefix is identical to an
// existing node's is stacked above that node, and Resolve descends as
// deep as it can, so identical (stacked) prefixes are resolved by
// whichever was inserted first.
type Node struct {
	Elem     Element
	Children []*Node
}

// rootPrefix is 0.0.0.0/0, the prefix of the synthetic tree root.
var rootPrefix = ipnet.Prefix{Addr: 0, Len: 0}

// isSyntheticRoot reports whether n is the bottom element ⊥: the
// placeholder node Build creates before any element has been
// inserted. ⊥ only ever appears as a tree's true root.
func isSyntheticRoot(n *Node) bool {
	return n.Elem.Template == nil
}

// isIdenticalPac reports whether two elements are considered the same
// rendered PAC: both carry a real template and the template names
// match. A synthetic (⊥) element is never identical to anything,
// including another ⊥.
func isIdenticalPac(a, b Element) bool {
	if a.Template == nil || b.Template == nil {
		return false
	}
	return a.Template.Name == b.Template.Name
}

// Build constructs a lookup tree from elements, in order. It creates
// a synthetic 0.0.0.0/0 root, inserts every element, promotes a
// single top-level /0 child to replace the synthetic root (giving the
// caller an explicit default route instead of falling through to ⊥),
// and finally simplifies the tree.
func Build(elements []Element) *Node {
	root := &Node{Elem: Element{Zone: zonefeed.Zone{Prefix: rootPrefix}}}

	for _, e := range elements {
		insert(root, e)
	}

	if len(root.Children) == 1 && root.Children[0].Elem.Prefix().Len == 0 {
		root = root.Children[0]
	}

	simplify(root)
	return root
}

// insert walks r's children looking for where e belongs, following a
// three-way split:
//
//  1. e is a strict subset of some child and not identical to r's own
//     prefix. Recurse into that child.
//  2. a child is a subset of e, or e is identical to r's own prefix.
//     Adopt that child underneath the new node for e (handles both
//     "insert a broader prefix above existing narrower ones" and
//     "stack an identical prefix on top of a same-prefix sibling").
//  3. neither holds. Leave the child alone and keep scanning.
//
// Children not adopted in step 2 keep their relative order; the new
// node for e is appended last among r's direct children only if
// nothing adopted it in step 1.
func insert(r *Node, e Element) {
	newNode := &Node{Elem: e}

	remaining := r.Children[:0:0]
	for _, child := range r.Children {
		if e.Prefix().SubsetOf(child.Elem.Prefix()) && !e.Prefix().Identical(child.Elem.Prefix()) && !e.Prefix().Identical(r.Elem.Prefix()) {
			insert(child, e)
			return
		}
		if child.Elem.Prefix().SubsetOf(e.Prefix()) || e.Prefix().Identical(r.Elem.Prefix()) {
			newNode.Children = append(newNode.Children, child)
			continue
		}
		remaining = append(remaining, child)
	}
	r.Children = append(remaining, newNode)
}

// simplify performs a depth-first post-order collapse: a child is
// folded into its parent only when BOTH the prefix and the rendered
// template are identical. A prefix match alone is not enough.
func simplify(n *Node) {
	kept := n.Children[:0:0]
	for _, child := range n.Children {
		simplify(child)
		if child.Elem.Prefix().Identical(n.Elem.Prefix()) && isIdenticalPac(child.Elem, n.Elem) {
			kept = append(kept, child.Children...)
			continue
		}
		kept = append(kept, child)
	}
	n.Children = kept
}

// Resolve finds the most specific element whose prefix contains addr,
// descending through children in insertion order. It returns nil when
// the only match is the synthetic root (a total miss, ⊥).
func Resolve(root *Node, addr ipnet.Prefix) *Element {
	n := root
	for {
		advanced := false
		for _, child := range n.Children {
			if addr.SubsetOf(child.Elem.Prefix()) {
				n = child
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}
	if isSyntheticRoot(n) {
		return nil
	}
	elem := n.Elem
	return &elem
}

// Stringify renders a human-readable, indented dump of the tree,
// used for event-log output after a rebuild.
func Stringify(n *Node) string {
	var b strings.Builder
	stringify(n, 0, &b)
	return b.String()
}

func stringify(n *Node, depth int, b *strings.Builder) {
	b.WriteString(strings.Repeat("  ", depth))
	if isSyntheticRoot(n) {
		b.WriteString("<root>\n")
	} else {
		b.WriteString(n.Elem.Prefix().String())
		b.WriteString(" -> ")
		b.WriteString(n.Elem.templateName())
		b.WriteString("\n")
	}
	for _, child := range n.Children {
		stringify(child, depth+1, b)
	}
}
