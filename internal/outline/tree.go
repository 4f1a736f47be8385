package outline

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

// BuildTree converts a flat, ordered item list into a forest. Each node's
// Index is its position in items, independent of the resulting shape.
func BuildTree(items []Item, minLevel int) []*Node {
	var roots []*Node
	stack := make([]*Node, 0, 8)
	queryCount := 0

	for i, item := range items {
		node := &Node{Item: item, Index: i}
		if item.IsUserQuery {
			node.RelativeLevel = 0
			queryCount++
			node.QueryIndex = queryCount
		} else {
			node.RelativeLevel = item.Level - minLevel + 1
		}

		// Pop until the top is a strictly shallower ancestor.
		for len(stack) > 0 && stack[len(stack)-1].RelativeLevel >= node.RelativeLevel {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}

	return roots
}

// MinHeadingLevel returns the smallest heading level among non-query
// items, or 1 when there are none.
func MinHeadingLevel(items []Item) int {
	minLevel := 0
	for _, item := range items {
		if item.IsUserQuery {
			continue
		}
		if minLevel == 0 || item.Level < minLevel {
			minLevel = item.Level
		}
	}
	if minLevel == 0 {
		return 1
	}
	return minLevel
}

// CountLevels builds a histogram of heading levels. User queries are
// not counted.
func CountLevels(items []Item) map[int]int {
	counts := make(map[int]int)
	for _, item := range items {
		if item.IsUserQuery {
			continue
		}
		counts[item.Level]++
	}
	return counts
}

// Signature is the content key of an item list. Two lists with the same
// signature produce identically shaped trees.
func Signature(items []Item) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(strconv.Itoa(item.Level))
		if item.IsUserQuery {
			sb.WriteString("q")
		}
		if item.IsTruncated {
			sb.WriteString("t")
		}
		sb.WriteByte('|')
		sb.WriteString(item.Text)
		sb.WriteByte('\n')
	}
	h := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", h[:])
}

// walk visits nodes in pre-order.
func walk(nodes []*Node, fn func(n *Node)) {
	for _, n := range nodes {
		fn(n)
		walk(n.Children, fn)
	}
}

// Flatten returns nodes in pre-order (traversal order).
func Flatten(nodes []*Node) []*Node {
	var out []*Node
	walk(nodes, func(n *Node) { out = append(out, n) })
	return out
}

// cloneTree deep-copies nodes. Elements are shared; they belong to the
// document, not the tree. A nil forest stays nil and an empty one stays
// empty.
func cloneTree(nodes []*Node) []*Node {
	if nodes == nil {
		return nil
	}
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		c := *n
		c.Children = cloneTree(n.Children)
		out[i] = &c
	}
	return out
}

// pathTo returns the chain from a root to the node with the given flat
// index, inclusive, or nil if no such node exists.
func pathTo(nodes []*Node, index int) []*Node {
	for _, n := range nodes {
		if n.Index == index {
			return []*Node{n}
		}
		// Children always carry larger indices than their parent and
		// smaller ones than the parent's next sibling.
		if n.Index > index {
			return nil
		}
		if p := pathTo(n.Children, index); p != nil {
			return append([]*Node{n}, p...)
		}
	}
	return nil
}

// FindNode returns the node with the given flat index.
func FindNode(nodes []*Node, index int) *Node {
	p := pathTo(nodes, index)
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

func maxLevelKey(counts map[int]int) int {
	maxLevel := 0
	for level := range counts {
		if level > maxLevel {
			maxLevel = level
		}
	}
	return maxLevel
}
