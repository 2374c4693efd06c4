package hwio

import "fmt"

// Mem is a linear memory area, mirrored over any address range it is
// mapped to. Its size must be a power of 2.
type Mem struct {
	Name string
	Data []uint8
	mask uint16
}

func NewMem(name string, size int) *Mem {
	if size == 0 || size&(size-1) != 0 {
		panic(fmt.Sprintf("hwio: %s memory size %d is not pow2", name, size))
	}
	return &Mem{
		Name: name,
		Data: make([]uint8, size),
		mask: uint16(size - 1),
	}
}

func (m *Mem) Read8(addr uint16) uint8       { return m.Data[addr&m.mask] }
func (m *Mem) Write8(addr uint16, val uint8) { m.Data[addr&m.mask] = val }

// Map maps m for reads and writes over [min, max].
func (m *Mem) Map(t *Table, min, max uint16) error {
	if err := t.MapRead(ReadRange{Min: min, Max: max, Read: m.Read8}); err != nil {
		return err
	}
	return t.MapWrite(WriteRange{Min: min, Max: max, Write: m.Write8})
}
