package core

// Program is a decoded-ready program with its register and data memory
// preloads.
type Program struct {
	Lines     []string
	Registers map[string]int64
	Data      map[uint32]int64
}
