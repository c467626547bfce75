package bans

import (
	"net/netip"
	"sync"
)

type octetShard struct {
	mu      sync.RWMutex
	subnets []netip.Prefix
}

// OctetStore shards banned subnets by the first octet of the network
// address. A membership test scans only the subnets sharing the queried
// address's first octet, so the cost is O(entries in one shard) rather
// than O(all banned subnets). Shard populations are expected to stay
// small, which makes the linear duplicate scan on insert acceptable.
type OctetStore struct {
	shards [256]octetShard
}

// NewOctetStore creates an empty OctetStore
func NewOctetStore() *OctetStore {
	return &OctetStore{}
}

func firstOctet(p netip.Prefix) uint8 {
	return p.Masked().Addr().As4()[0]
}

// Contains implements Store
func (s *OctetStore) Contains(ip netip.Addr) bool {
	sh := &s.shards[ip.As4()[0]]
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	for _, subnet := range sh.subnets {
		if subnet.Contains(ip) {
			return true
		}
	}
	return false
}

// Insert implements Store
func (s *OctetStore) Insert(subnet netip.Prefix) bool {
	subnet = subnet.Masked()
	sh := &s.shards[firstOctet(subnet)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for _, stored := range sh.subnets {
		if stored == subnet {
			return false
		}
	}
	sh.subnets = append(sh.subnets, subnet)
	return true
}

// Remove implements Store. An emptied shard releases its backing slice.
func (s *OctetStore) Remove(subnet netip.Prefix) bool {
	subnet = subnet.Masked()
	sh := &s.shards[firstOctet(subnet)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for i, stored := range sh.subnets {
		if stored == subnet {
			sh.subnets = append(sh.subnets[:i], sh.subnets[i+1:]...)
			if len(sh.subnets) == 0 {
				sh.subnets = nil
			}
			return true
		}
	}
	return false
}
