package provisioning

import "fmt"

// NodeKind is the role a machine plays in a cluster.
type NodeKind int

const (
	SwarmManager NodeKind = iota
	SwarmWorker
	CephNode
)

// NodeKinds lists every kind in provisioning order.
func NodeKinds() []NodeKind {
	return []NodeKind{SwarmManager, SwarmWorker, CephNode}
}

// String returns the name used in machine names: {cluster}-{kind}-{n}.
func (k NodeKind) String() string {
	switch k {
	case SwarmManager:
		return "manager"
	case SwarmWorker:
		return "worker"
	case CephNode:
		return "ceph"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// JoinsSwarm reports whether nodes of this kind become swarm members.
func (k NodeKind) JoinsSwarm() bool {
	switch k {
	case SwarmManager, SwarmWorker:
		return true
	case CephNode:
		return false
	default:
		return false
	}
}
