// Package topology builds and queries the in-memory cluster topology graph.
package topology

// NodeKind is the closed set of cluster entity kinds the graph models.
type NodeKind string

const (
	KindNode           NodeKind = "Node"
	KindPod            NodeKind = "Pod"
	KindReplicaSet     NodeKind = "ReplicaSet"
	KindDeployment     NodeKind = "Deployment"
	KindService        NodeKind = "Service"
	KindRoute          NodeKind = "Route"
	KindIngress        NodeKind = "Ingress"
	KindPVC            NodeKind = "PVC"
	KindPV             NodeKind = "PV"
	KindHPA            NodeKind = "HPA"
	KindNetworkPolicy  NodeKind = "NetworkPolicy"
)

// Relation is the closed set of edge relations the graph models.
type Relation string

const (
	RelRunsOn  Relation = "runs_on"
	RelOwnedBy Relation = "owned_by"
	RelRoutes  Relation = "routes_to"
	RelExposes Relation = "exposes"
	RelBinds   Relation = "binds"
	RelMounts  Relation = "mounts"
	RelTargets Relation = "targets"
)

// NodeID is an opaque identifier of the form "<kind>/<namespace>/<name>", or
// "<kind>/<name>" for cluster-scoped kinds (Node, PV).
type NodeID string

// Neighbor is a single (destination, relation) pair returned by a query.
type Neighbor struct {
	ID  NodeID
	Rel Relation
}

// Direction constrains which adjacency a query walks.
type Direction string

const (
	DirOut  Direction = "out"
	DirIn   Direction = "in"
	DirBoth Direction = "both"
)

// edge is a single directed, labeled connection. Edges are never deduplicated
// at insertion time; dedup happens only when edges are iterated (e.g. during
// serialization).
type edge struct {
	Src NodeID
	Dst NodeID
	Rel Relation
}
