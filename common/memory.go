package common

// Memory is the flat DCPU-16 address space. Addresses are uint16, so all
// address arithmetic wraps at 0x10000.
type Memory [0x10000]uint16

// Overlay copies data into memory starting at offset, wrapping around the end
// of the address space.
func (m *Memory) Overlay(data []uint16, offset uint16) {
	for _, w := range data {
		m[offset] = w
		offset++
	}
}

// Clear zeroes every word.
func (m *Memory) Clear() {
	*m = Memory{}
}

// View maps a window of memory starting at Start. It holds no copy: every
// access reads the current contents, so a view stays valid while the program
// rewrites the region.
type View struct {
	mem   *Memory
	Start uint16
	Len   int
}

// NewView returns a view of length words starting at start.
func NewView(m *Memory, start uint16, length int) View {
	return View{mem: m, Start: start, Len: length}
}

// Valid reports whether the view is mapped.
func (v View) Valid() bool {
	return v.mem != nil
}

// At returns the i'th word of the view.
func (v View) At(i int) uint16 {
	return v.mem[v.Start+uint16(i)]
}

// Words snapshots the view into a fresh slice.
func (v View) Words() []uint16 {
	out := make([]uint16, v.Len)
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}
