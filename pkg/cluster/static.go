package cluster

import (
	"context"
	"fmt"
	"strings"
)

// StaticMembership is a flag-configured membership view for fleets that run
// without a discovery service. It never flags nodes as failed on its own;
// failover is driven through the explicit failover endpoint instead.
type StaticMembership struct {
	peers []Peer
}

// NewStaticMembership parses peer specs of the form "id=host:port".
func NewStaticMembership(specs []string) (*StaticMembership, error) {
	peers := make([]Peer, 0, len(specs))

	for _, spec := range specs {
		id, address, ok := strings.Cut(spec, "=")
		if !ok || id == "" || address == "" {
			return nil, fmt.Errorf("invalid peer spec %q, want id=host:port", spec)
		}

		peers = append(peers, Peer{ID: id, Address: address})
	}

	return &StaticMembership{peers: peers}, nil
}

func (m *StaticMembership) AlivePeers(_ context.Context) ([]Peer, error) {
	peers := make([]Peer, len(m.peers))
	copy(peers, m.peers)

	return peers, nil
}

func (m *StaticMembership) FailedNodes(_ context.Context) ([]string, error) {
	return nil, nil
}
