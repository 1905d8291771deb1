package dex

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
)

// IdentityPool picks the outbound network identity (proxy) for a request.
// It only spreads requests across identities and has no bearing on
// correctness, ordering or retries. A nil URL means a direct connection.
type IdentityPool interface {
	Next() *url.URL
}

// RoundRobinPool cycles through a fixed list of proxies
type RoundRobinPool struct {
	proxies []*url.URL
	next    atomic.Uint64
}

// NewRoundRobinPool parses proxy URLs. An empty list yields a pool that
// always connects directly.
func NewRoundRobinPool(raw []string) (*RoundRobinPool, error) {
	pool := &RoundRobinPool{}
	for _, r := range raw {
		u, err := url.Parse(r)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy url %q", r)
		}
		pool.proxies = append(pool.proxies, u)
	}
	return pool, nil
}

// Next returns the next proxy in order
func (p *RoundRobinPool) Next() *url.URL {
	if len(p.proxies) == 0 {
		return nil
	}
	i := p.next.Add(1) - 1
	return p.proxies[i%uint64(len(p.proxies))]
}

// Len returns the number of proxies in the pool
func (p *RoundRobinPool) Len() int {
	return len(p.proxies)
}

type identityKey struct{}

func withIdentity(ctx context.Context, u *url.URL) context.Context {
	if u == nil {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, u)
}

func identityFrom(ctx context.Context) (*url.URL, bool) {
	u, ok := ctx.Value(identityKey{}).(*url.URL)
	return u, ok
}
