package outline

import "fmt"

// NodeState is the UI state carried across a rebuild.
type NodeState struct {
	Collapsed     bool
	ForceExpanded bool
	HadChildren   bool
}

// StateSnapshot maps a node's (level, text) key to its UI state. Keys are
// not unique: identically titled headings at the same level share state.
type StateSnapshot map[string]NodeState

func stateKey(n *Node) string {
	return fmt.Sprintf("%d_%s", n.Level, n.Text)
}

// CaptureState records the UI state of every node in pre-order.
func CaptureState(nodes []*Node) StateSnapshot {
	snap := make(StateSnapshot)
	walk(nodes, func(n *Node) {
		snap[stateKey(n)] = NodeState{
			Collapsed:     n.Collapsed,
			ForceExpanded: n.ForceExpanded,
			HadChildren:   len(n.Children) > 0,
		}
	})
	return snap
}

// RestoreState reapplies a snapshot. A node that has gained children since
// the capture keeps its freshly derived collapse state, so new content is
// never hidden behind a flag that belonged to a leaf.
func RestoreState(nodes []*Node, snap StateSnapshot) {
	if len(snap) == 0 {
		return
	}
	walk(nodes, func(n *Node) {
		st, ok := snap[stateKey(n)]
		if !ok {
			return
		}
		if st.HadChildren || len(n.Children) == 0 {
			n.Collapsed = st.Collapsed
		}
		n.ForceExpanded = st.ForceExpanded
	})
}
