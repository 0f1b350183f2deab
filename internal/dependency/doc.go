// Package dependency provides a directed acyclic graph (DAG) implementation
// for container startup dependencies in stagehand.
//
// The starter builds one graph per platform run from the enabled containers
// and walks it instead of checking dependencies ad hoc. A dependent whose
// requirement is not enabled is found structurally, before any container is
// created.
//
// # Core Concepts
//
// Graph: A directed acyclic graph of containers. Edges point from a container
// to the containers it requires.
//
// Node: Represents a container in the dependency graph with:
//   - ID: Registry key of the container
//   - FriendlyName: Human-readable name
//   - Kind: Startup stage (core, service, gateway, ui, custom)
//   - DependsOn: Containers this node requires
//   - State: Informational lifecycle state set by the starter
//
// # Container Hierarchy
//
//	postgres
//	    ↓
//	keycloak          backend services (permission-svc → tenant-svc)
//	    ↓
//	shell-bff
//	    ↓
//	shell-ui
//
// # Operations
//
// Missing: Every edge whose target is not part of the graph
//   - Used to reject a dependent service whose requirement is disabled
//
// TopologicalSort: Order containers for startup
//   - Dependencies come before dependents
//   - Ties keep insertion order so startup is deterministic
//   - Returns *CycleError when the graph is not acyclic
//
// Dependents: Containers with a direct dependency on a given node
//
// # Usage Example
//
//	graph := dependency.New()
//	graph.AddNode(dependency.Node{ID: "tenant-svc", Kind: dependency.KindService})
//	graph.AddNode(dependency.Node{
//	    ID:        "permission-svc",
//	    Kind:      dependency.KindService,
//	    DependsOn: []dependency.NodeID{"tenant-svc"},
//	})
//
//	if missing := graph.Missing(); len(missing) > 0 {
//	    // reject configuration
//	}
//
//	order, err := graph.TopologicalSort()
//	// order: ["tenant-svc", "permission-svc"]
//
// # Thread Safety
//
// The Graph type is not thread-safe. It is built and walked on the starter's
// single control flow.
package dependency
