// Package bans tracks banned IPv4 subnets behind a small sharded-store
// contract so the lock/contention profile can be swapped per deployment
// without touching callers.
package bans

import "net/netip"

// Store records banned subnets and answers per-address membership tests.
// Insert and Remove are idempotent reporters: the returned bool says
// whether the stored state actually changed.
type Store interface {
	// Contains reports whether ip is covered by any banned subnet
	Contains(ip netip.Addr) bool
	// Insert bans a subnet; false means it was already banned
	Insert(subnet netip.Prefix) bool
	// Remove unbans a subnet; false means it was not banned
	Remove(subnet netip.Prefix) bool
}
