package topology

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Owner describes an owning controller reference (e.g. a Pod's ReplicaSet).
type Owner struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

// Snapshot is the declarative description of cluster entities the graph is
// built from. Every slice is optional; a missing key behaves as empty.
type Snapshot struct {
	Nodes        []SnapshotNode        `json:"nodes"`
	Pods         []SnapshotPod         `json:"pods"`
	ReplicaSets  []SnapshotReplicaSet  `json:"replicasets"`
	Deployments  []SnapshotDeployment  `json:"deployments"`
	Services     []SnapshotService     `json:"services"`
	Endpoints    []SnapshotEndpoints   `json:"endpoints"`
	Routes       []SnapshotRoute       `json:"routes"`
	Ingresses    []SnapshotIngress     `json:"ingresses"`
	PVCs         []SnapshotPVC         `json:"pvcs"`
	PVs          []SnapshotPV          `json:"pvs"`
	HPAs         []SnapshotHPA         `json:"hpas"`
	NetPols      []SnapshotNetPol      `json:"netpols"`
}

type SnapshotNode struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels,omitempty"`
}

type SnapshotPod struct {
	Name  string            `json:"name"`
	NS    string            `json:"ns"`
	Node  string            `json:"node,omitempty"`
	Owner *Owner            `json:"owner,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

type SnapshotReplicaSet struct {
	Name  string `json:"name"`
	NS    string `json:"ns"`
	Owner *Owner `json:"owner,omitempty"`
}

type SnapshotDeployment struct {
	Name string `json:"name"`
	NS   string `json:"ns"`
}

type SnapshotService struct {
	Name     string            `json:"name"`
	NS       string            `json:"ns"`
	Selector map[string]string `json:"selector,omitempty"`
}

type SnapshotEndpoints struct {
	Svc  string   `json:"svc"`
	NS   string   `json:"ns"`
	Pods []string `json:"pods,omitempty"`
}

type SnapshotRoute struct {
	Name  string `json:"name"`
	NS    string `json:"ns"`
	ToSvc string `json:"to_svc"`
}

type SnapshotIngress struct {
	Name  string `json:"name"`
	NS    string `json:"ns"`
	ToSvc string `json:"to_svc,omitempty"`
}

type SnapshotPVC struct {
	Name string `json:"name"`
	NS   string `json:"ns"`
	Pod  string `json:"pod,omitempty"`
	PV   string `json:"pv,omitempty"`
}

type SnapshotPV struct {
	Name string `json:"name"`
}

type SnapshotHPA struct {
	Name         string `json:"name"`
	NS           string `json:"ns"`
	TargetDeploy string `json:"target_deploy"`
}

type SnapshotNetPol struct {
	Name    string            `json:"name"`
	NS      string            `json:"ns"`
	Selects map[string]string `json:"selects,omitempty"`
}

// ParseSnapshot decodes a snapshot JSON document.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("malformed topology snapshot: %w", err)
	}
	return &s, nil
}

// BuildFromSnapshot constructs the graph deterministically, in the fixed
// order: nodes, pods, replicasets, deployments, services+endpoints,
// routes+ingresses, pvcs+pvs, hpas, netpols. The builder is total: missing
// or malformed references are dropped silently, never an error.
func BuildFromSnapshot(s *Snapshot) *Graph {
	g := New()
	podIndex := make(map[string][]NodeID)

	for _, n := range s.Nodes {
		nid := NodeID("node/" + n.Name)
		g.AddNode(nid, map[string]any{"kind": string(KindNode), "labels": n.Labels})
	}

	for _, p := range s.Pods {
		nid := NodeID(fmt.Sprintf("pod/%s/%s", p.NS, p.Name))
		g.AddNode(nid, map[string]any{"kind": string(KindPod), "namespace": p.NS, "labels": p.Labels})
		podIndex[p.Name] = append(podIndex[p.Name], nid)
		if p.Node != "" {
			g.AddEdge(nid, NodeID("node/"+p.Node), RelRunsOn)
		}
		if p.Owner != nil && p.Owner.Name != "" {
			ownerKind := strings.ToLower(p.Owner.Kind)
			g.AddEdge(nid, NodeID(fmt.Sprintf("%s/%s/%s", ownerKind, p.NS, p.Owner.Name)), RelOwnedBy)
		}
	}

	for _, rs := range s.ReplicaSets {
		rid := NodeID(fmt.Sprintf("replicaset/%s/%s", rs.NS, rs.Name))
		g.AddNode(rid, map[string]any{"kind": string(KindReplicaSet), "namespace": rs.NS})
		if rs.Owner != nil && rs.Owner.Name != "" {
			g.AddEdge(rid, NodeID(fmt.Sprintf("deployment/%s/%s", rs.NS, rs.Owner.Name)), RelOwnedBy)
		}
	}

	for _, d := range s.Deployments {
		did := NodeID(fmt.Sprintf("deployment/%s/%s", d.NS, d.Name))
		g.AddNode(did, map[string]any{"kind": string(KindDeployment), "namespace": d.NS})
	}

	for _, svc := range s.Services {
		sid := NodeID(fmt.Sprintf("service/%s/%s", svc.NS, svc.Name))
		g.AddNode(sid, map[string]any{"kind": string(KindService), "namespace": svc.NS, "selector": svc.Selector})
	}
	for _, e := range s.Endpoints {
		sid := NodeID(fmt.Sprintf("service/%s/%s", e.NS, e.Svc))
		for _, podName := range e.Pods {
			for _, podID := range podIndex[podName] {
				g.AddEdge(sid, podID, RelRoutes)
			}
		}
	}

	for _, r := range s.Routes {
		rid := NodeID(fmt.Sprintf("route/%s/%s", r.NS, r.Name))
		g.AddNode(rid, map[string]any{"kind": string(KindRoute), "namespace": r.NS})
		if r.ToSvc != "" {
			g.AddEdge(rid, NodeID(fmt.Sprintf("service/%s/%s", r.NS, r.ToSvc)), RelExposes)
		}
	}
	for _, ing := range s.Ingresses {
		iid := NodeID(fmt.Sprintf("ingress/%s/%s", ing.NS, ing.Name))
		g.AddNode(iid, map[string]any{"kind": string(KindIngress), "namespace": ing.NS})
		if ing.ToSvc != "" {
			g.AddEdge(iid, NodeID(fmt.Sprintf("service/%s/%s", ing.NS, ing.ToSvc)), RelExposes)
		}
	}

	for _, pvc := range s.PVCs {
		pcid := NodeID(fmt.Sprintf("pvc/%s/%s", pvc.NS, pvc.Name))
		g.AddNode(pcid, map[string]any{"kind": string(KindPVC), "namespace": pvc.NS})
		if pvc.PV != "" {
			g.AddEdge(pcid, NodeID("pv/"+pvc.PV), RelBinds)
		}
		if pvc.Pod != "" {
			for _, podID := range podIndex[pvc.Pod] {
				g.AddEdge(podID, pcid, RelMounts)
			}
		}
	}
	for _, pv := range s.PVs {
		g.AddNode(NodeID("pv/"+pv.Name), map[string]any{"kind": string(KindPV)})
	}

	for _, h := range s.HPAs {
		hid := NodeID(fmt.Sprintf("hpa/%s/%s", h.NS, h.Name))
		g.AddNode(hid, map[string]any{"kind": string(KindHPA), "namespace": h.NS})
		if h.TargetDeploy != "" {
			g.AddEdge(hid, NodeID(fmt.Sprintf("deployment/%s/%s", h.NS, h.TargetDeploy)), RelTargets)
		}
	}

	for _, np := range s.NetPols {
		nid := NodeID(fmt.Sprintf("netpol/%s/%s", np.NS, np.Name))
		g.AddNode(nid, map[string]any{"kind": string(KindNetworkPolicy), "namespace": np.NS, "selects": np.Selects})
	}

	return g
}
