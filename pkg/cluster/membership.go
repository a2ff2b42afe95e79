// Package cluster defines the membership view the tracker consumes. Failure
// detection and leader election live in an external membership layer; the
// tracker only needs to know which peers are alive and which nodes have been
// flagged as failed.
package cluster

import "context"

// Peer is a reachable tracker node.
type Peer struct {
	ID      string
	Address string // host:port of the peer's HTTP surface
}

// Membership is the opaque "is this node alive" view.
type Membership interface {
	// AlivePeers returns the peers currently considered alive, excluding
	// this node.
	AlivePeers(ctx context.Context) ([]Peer, error)

	// FailedNodes returns node ids flagged as failed since the last poll.
	// A node may appear here after a clean restart, not only a crash.
	FailedNodes(ctx context.Context) ([]string, error)
}
