// Package cache provides an L1 data cache model using Akita cache components.
package cache

import "github.com/sarchlab/rvpipe/emu"

// BackingStore is the next level in the memory hierarchy. Addresses are
// word aligned byte addresses.
type BackingStore interface {
	LoadWord(addr uint32) (uint32, error)
	StoreWord(addr uint32, value uint32) error
}

// Data memory is the only backing store the simulator uses.
var _ BackingStore = (*emu.Memory[uint32])(nil)
