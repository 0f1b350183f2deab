package dependency

import (
	"fmt"
	"sort"
	"strings"
)

// NodeState represents the lifecycle state of a node (container). The starter
// updates it while walking the graph so failures can be reported per node.
type NodeState int

const (
	StateUnknown NodeState = iota
	StateStopped
	StateStarting
	StateRunning
	StateError
)

// String returns a lower-case name for the state.
func (s NodeState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// NodeID is the unique identifier for a node inside a dependency graph.
// The starter uses registry keys ("tenant-svc", "shell-bff", custom aliases).
type NodeID string

// NodeKind categorises nodes by startup stage.
type NodeKind int

const (
	KindUnknown NodeKind = iota
	KindCore
	KindService
	KindGateway
	KindUI
	KindCustom
)

// String returns a lower-case name for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindCore:
		return "core"
	case KindService:
		return "service"
	case KindGateway:
		return "gateway"
	case KindUI:
		return "ui"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Node represents a container together with its dependency list.
//
// A node can depend on zero or more other nodes. The graph should therefore
// be a Directed Acyclic Graph (DAG); TopologicalSort reports cycles.
type Node struct {
	ID           NodeID
	FriendlyName string
	Kind         NodeKind
	DependsOn    []NodeID
	State        NodeState
}

// MissingDependency records an edge whose target is not in the graph.
type MissingDependency struct {
	Node       NodeID
	Dependency NodeID
}

func (m MissingDependency) String() string {
	return fmt.Sprintf("%s requires %s", m.Node, m.Dependency)
}

// CycleError is returned by TopologicalSort when the graph is not acyclic.
type CycleError struct {
	Nodes []NodeID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Nodes))
	for i, id := range e.Nodes {
		parts[i] = string(id)
	}
	return fmt.Sprintf("dependency cycle detected between: %s", strings.Join(parts, ", "))
}

// Graph is a very small helper to answer dependency queries. It is *not*
// thread-safe by itself; callers must synchronise if they write concurrently.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[NodeID]*Node)}
}

// AddNode adds (or replaces) a node in the graph. Insertion order is kept and
// used to break ties in TopologicalSort.
func (g *Graph) AddNode(n Node) {
	if g.nodes == nil {
		g.nodes = make(map[NodeID]*Node)
	}
	if _, exists := g.nodes[n.ID]; !exists {
		g.order = append(g.order, n.ID)
	}
	// Copy to avoid external mutations
	copied := n
	copied.DependsOn = append([]NodeID(nil), n.DependsOn...)
	g.nodes[n.ID] = &copied
}

// Get returns a pointer to the stored node or nil if it does not exist.
func (g *Graph) Get(id NodeID) *Node {
	return g.nodes[id]
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// SetState updates the state of an existing node.
func (g *Graph) SetState(id NodeID, state NodeState) {
	if n, ok := g.nodes[id]; ok {
		n.State = state
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependencies returns a slice of immediate dependency IDs for the given node.
func (g *Graph) Dependencies(id NodeID) []NodeID {
	if n, ok := g.nodes[id]; ok {
		// Return a copy to avoid callers modifying internal slice.
		depsCopy := make([]NodeID, len(n.DependsOn))
		copy(depsCopy, n.DependsOn)
		return depsCopy
	}
	return nil
}

// Dependents returns all node IDs that have a direct dependency on the given
// node, in insertion order.
func (g *Graph) Dependents(id NodeID) []NodeID {
	var res []NodeID
	for _, nodeID := range g.order {
		n := g.nodes[nodeID]
		for _, dep := range n.DependsOn {
			if dep == id {
				res = append(res, n.ID)
				break
			}
		}
	}
	return res
}

// Missing returns every dependency edge that points at a node which is not
// part of the graph. An empty result means the graph is closed.
func (g *Graph) Missing() []MissingDependency {
	var missing []MissingDependency
	for _, id := range g.order {
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; !ok {
				missing = append(missing, MissingDependency{Node: id, Dependency: dep})
			}
		}
	}
	return missing
}

// TopologicalSort orders the nodes so that every node comes after all of its
// dependencies. Nodes without an ordering constraint keep insertion order.
// Edges to nodes outside the graph are ignored; use Missing to detect them.
func (g *Graph) TopologicalSort() ([]NodeID, error) {
	inDegree := make(map[NodeID]int, len(g.nodes))
	for _, id := range g.order {
		for _, dep := range g.nodes[id].DependsOn {
			if _, ok := g.nodes[dep]; ok {
				inDegree[id]++
			}
		}
	}

	position := make(map[NodeID]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	var ready []NodeID
	for _, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	sorted := make([]NodeID, 0, len(g.nodes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		sorted = append(sorted, current)

		released := false
		for _, dependent := range g.Dependents(current) {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
				released = true
			}
		}
		if released {
			sort.SliceStable(ready, func(i, j int) bool {
				return position[ready[i]] < position[ready[j]]
			})
		}
	}

	if len(sorted) != len(g.nodes) {
		var cyclic []NodeID
		for _, id := range g.order {
			if inDegree[id] > 0 {
				cyclic = append(cyclic, id)
			}
		}
		return nil, &CycleError{Nodes: cyclic}
	}

	return sorted, nil
}
