package emu

// DefaultMemoryWords is the default number of words in each memory.
const DefaultMemoryWords = 1024

// WordBytes is the size of one memory word in bytes.
const WordBytes = 4

// Memory is a fixed-size, word-addressed memory. Addresses are byte
// addresses and must be word aligned. W is the word type: uint32 for data
// memory and *insts.Instruction for instruction memory.
type Memory[W any] struct {
	words []W
}

// Word is one entry of a memory dump.
type Word[W any] struct {
	Addr  uint32
	Value W
}

// NewMemory creates a memory holding the given number of words. A
// non-positive size selects DefaultMemoryWords.
func NewMemory[W any](words int) *Memory[W] {
	if words <= 0 {
		words = DefaultMemoryWords
	}
	return &Memory[W]{words: make([]W, words)}
}

// Size returns the number of words.
func (m *Memory[W]) Size() int {
	return len(m.words)
}

// SizeBytes returns the addressable range in bytes.
func (m *Memory[W]) SizeBytes() uint64 {
	return uint64(len(m.words)) * WordBytes
}

func (m *Memory[W]) index(addr uint32) (int, error) {
	if addr%WordBytes != 0 {
		return 0, &AddressError{Addr: addr, Reason: "not word aligned"}
	}
	if uint64(addr) >= m.SizeBytes() {
		return 0, &AddressError{Addr: addr, Reason: "out of range"}
	}
	return int(addr / WordBytes), nil
}

// Contains returns true if addr is an aligned address inside the memory.
func (m *Memory[W]) Contains(addr uint32) bool {
	_, err := m.index(addr)
	return err == nil
}

// LoadWord reads the word at addr.
func (m *Memory[W]) LoadWord(addr uint32) (W, error) {
	i, err := m.index(addr)
	if err != nil {
		var zero W
		return zero, err
	}
	return m.words[i], nil
}

// StoreWord writes the word at addr.
func (m *Memory[W]) StoreWord(addr uint32, value W) error {
	i, err := m.index(addr)
	if err != nil {
		return err
	}
	m.words[i] = value
	return nil
}

// Load stores values into consecutive words starting at address start.
// Nothing is written if the values do not fit.
func (m *Memory[W]) Load(start uint32, values []W) error {
	if len(values) == 0 {
		return nil
	}
	first, err := m.index(start)
	if err != nil {
		return err
	}
	if first+len(values) > len(m.words) {
		last := start + uint32(len(values)-1)*WordBytes
		return &AddressError{Addr: last, Reason: "out of range"}
	}
	copy(m.words[first:], values)
	return nil
}

// Dump returns a copy of the words from address from to address to,
// inclusive.
func (m *Memory[W]) Dump(from, to uint32) ([]Word[W], error) {
	lo, err := m.index(from)
	if err != nil {
		return nil, err
	}
	hi, err := m.index(to)
	if err != nil {
		return nil, err
	}
	if hi < lo {
		return nil, &AddressError{Addr: to, Reason: "range end before start"}
	}

	out := make([]Word[W], 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, Word[W]{Addr: uint32(i) * WordBytes, Value: m.words[i]})
	}
	return out, nil
}

// Reset clears every word to its zero value.
func (m *Memory[W]) Reset() {
	clear(m.words)
}
