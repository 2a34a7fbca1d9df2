// Package provisioning assembles the task graphs that create machines and
// form a swarm out of them.
//
// The first manager of a cluster is the seed. A cluster graph has these
// edges:
//
//	env <seed>           after create <seed>
//	swarm init           after create <seed>, env <seed>
//	join-token <role>    after swarm init
//	env <node>           after create <node>
//	join <node>          after env <node>, join-token <role of node>
//
// Data flows along the edges through Prepare hooks: a dependent reads its
// predecessors' captured output when it starts (environment, advertise
// address, join token) and skips itself when a predecessor it needs did not
// succeed. Ceph nodes are only created and never wait on the seed.
package provisioning
