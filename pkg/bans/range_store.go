package bans

import (
	"net/netip"
	"sync"

	"go4.org/netipx"
)

// rangeShardShift fixes the number of independently lockable slots at
// 1<<rangeShardShift. 7 keeps both per-slot lock hold time and per-slot
// structure size bounded. Must not exceed 8.
const rangeShardShift = 7

type rangeShard struct {
	mu       sync.RWMutex
	prefixes []netip.Prefix
	set      *netipx.IPSet // compiled from prefixes, nil when empty
}

// RangeStore is the alternate Store backend: subnets are partitioned by
// the top bits of the first octet into 2^rangeShardShift slots, each
// holding a full prefix-range structure. Unlike OctetStore the per-slot
// containment test handles overlapping prefixes of any length via range
// merging, at the cost of recompiling the slot's set on every mutation.
type RangeStore struct {
	shards [1 << rangeShardShift]rangeShard
}

// NewRangeStore creates an empty RangeStore
func NewRangeStore() *RangeStore {
	return &RangeStore{}
}

func rangeShardID(octet uint8) int {
	return int(octet >> (8 - rangeShardShift))
}

// Contains implements Store
func (s *RangeStore) Contains(ip netip.Addr) bool {
	sh := &s.shards[rangeShardID(ip.As4()[0])]
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	return sh.set != nil && sh.set.Contains(ip)
}

// Insert implements Store
func (s *RangeStore) Insert(subnet netip.Prefix) bool {
	subnet = subnet.Masked()
	sh := &s.shards[rangeShardID(firstOctet(subnet))]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for _, stored := range sh.prefixes {
		if stored == subnet {
			return false
		}
	}
	sh.prefixes = append(sh.prefixes, subnet)
	sh.recompileLocked()
	return true
}

// Remove implements Store
func (s *RangeStore) Remove(subnet netip.Prefix) bool {
	subnet = subnet.Masked()
	sh := &s.shards[rangeShardID(firstOctet(subnet))]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for i, stored := range sh.prefixes {
		if stored == subnet {
			sh.prefixes = append(sh.prefixes[:i], sh.prefixes[i+1:]...)
			sh.recompileLocked()
			return true
		}
	}
	return false
}

func (sh *rangeShard) recompileLocked() {
	if len(sh.prefixes) == 0 {
		sh.prefixes = nil
		sh.set = nil
		return
	}
	var b netipx.IPSetBuilder
	for _, p := range sh.prefixes {
		b.AddPrefix(p)
	}
	// The builder only fails on invalid prefixes, which cannot reach a
	// shard: Insert stores masked, parse-validated prefixes.
	set, err := b.IPSet()
	if err != nil {
		return
	}
	sh.set = set
}
