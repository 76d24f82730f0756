// internal/chain/endpoints.go
package chain

import (
	"fmt"
	"net/url"
	"strings"
)

// Cluster identifies a Solana network.
type Cluster string

const (
	ClusterMainnet Cluster = "mainnet"
	ClusterDevnet  Cluster = "devnet"
)

// ParseCluster converts a string into a known Cluster.
func ParseCluster(s string) (Cluster, error) {
	switch Cluster(strings.ToLower(s)) {
	case ClusterMainnet:
		return ClusterMainnet, nil
	case ClusterDevnet:
		return ClusterDevnet, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCluster, s)
	}
}

// Default endpoint lists, in priority order. The first entry is tried first.
var (
	DefaultMainnetEndpoints = []string{
		"https://haleigh-sa5aoh-fast-mainnet.helius-rpc.com",
		"https://api.mainnet-beta.solana.com",
		"https://solana-rpc.publicnode.com",
		"https://go.getblock.io/4136d34f90a6488b84214ae26f0ed5f4",
	}
	DefaultDevnetEndpoints = []string{
		"https://api.devnet.solana.com",
		"https://devnet.helius.xyz/v1/rpc",
	}
)

// Registry holds the ordered RPC endpoint lists per cluster. It is immutable
// after construction and safe for concurrent use.
type Registry struct {
	endpoints map[Cluster][]string
}

// NewRegistry builds a Registry from per-cluster endpoint lists. Both lists
// must be non-empty and contain well-formed URLs.
func NewRegistry(mainnet, devnet []string) (*Registry, error) {
	lists := map[Cluster][]string{
		ClusterMainnet: mainnet,
		ClusterDevnet:  devnet,
	}
	r := &Registry{endpoints: make(map[Cluster][]string, len(lists))}
	for cluster, list := range lists {
		if len(list) == 0 {
			return nil, fmt.Errorf("empty endpoint list for cluster %s", cluster)
		}
		copied := make([]string, 0, len(list))
		for _, endpoint := range list {
			parsed, err := url.Parse(endpoint)
			if err != nil || !strings.HasPrefix(parsed.Scheme, "http") {
				return nil, fmt.Errorf("invalid endpoint URL %q for cluster %s", endpoint, cluster)
			}
			copied = append(copied, endpoint)
		}
		r.endpoints[cluster] = copied
	}
	return r, nil
}

// DefaultRegistry returns a Registry with the built-in endpoint lists.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultMainnetEndpoints, DefaultDevnetEndpoints)
	if err != nil {
		panic(err) // built-in lists are known good
	}
	return r
}

// Endpoints returns the ordered endpoint list for the cluster. The returned
// slice is a copy; the order is stable across calls.
func (r *Registry) Endpoints(cluster Cluster) ([]string, error) {
	list, ok := r.endpoints[cluster]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCluster, cluster)
	}
	out := make([]string, len(list))
	copy(out, list)
	return out, nil
}

// ForCluster rewrites an RPC URL so it points at the given cluster.
func ForCluster(rpcURL string, cluster Cluster) (string, error) {
	switch cluster {
	case ClusterMainnet:
		rpcURL = strings.ReplaceAll(rpcURL, "devnet", "mainnet")
		rpcURL = strings.ReplaceAll(rpcURL, "testnet", "mainnet")
		return rpcURL, nil
	case ClusterDevnet:
		rpcURL = strings.ReplaceAll(rpcURL, "mainnet", "devnet")
		rpcURL = strings.ReplaceAll(rpcURL, "testnet", "devnet")
		return rpcURL, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCluster, cluster)
	}
}
