package hwio

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"nsfplay/emu/log"
)

// ErrOverlap is returned when mapping a range that intersects an already
// mapped one.
var ErrOverlap = errors.New("address range overlaps a mapped range")

type (
	ReadFunc  func(addr uint16) uint8
	WriteFunc func(addr uint16, val uint8)
)

// ReadRange maps the inclusive address range [Min, Max] to a read handler.
type ReadRange struct {
	Min, Max uint16
	Read     ReadFunc
}

// WriteRange maps the inclusive address range [Min, Max] to a write handler.
type WriteRange struct {
	Min, Max uint16
	Write    WriteFunc
}

type span interface {
	bounds() (uint16, uint16)
}

func (r ReadRange) bounds() (uint16, uint16)  { return r.Min, r.Max }
func (r WriteRange) bounds() (uint16, uint16) { return r.Min, r.Max }

// rangeList is a list of non-overlapping ranges kept sorted by address.
type rangeList[R span] []R

// find returns the index of the range containing addr, or -1.
func (l rangeList[R]) find(addr uint16) int {
	i := sort.Search(len(l), func(i int) bool {
		_, max := l[i].bounds()
		return max >= addr
	})
	if i < len(l) {
		if min, _ := l[i].bounds(); min <= addr {
			return i
		}
	}
	return -1
}

func (l *rangeList[R]) insert(r R) error {
	min, max := r.bounds()
	if min > max {
		return fmt.Errorf("invalid range %04X-%04X", min, max)
	}
	i := sort.Search(len(*l), func(i int) bool {
		_, imax := (*l)[i].bounds()
		return imax >= min
	})
	if i < len(*l) {
		if imin, imax := (*l)[i].bounds(); imin <= max {
			return fmt.Errorf("%w: %04X-%04X intersects %04X-%04X", ErrOverlap, min, max, imin, imax)
		}
	}
	*l = slices.Insert(*l, i, r)
	return nil
}

// gaps returns the sub-ranges of [min, max] not covered by any range.
func (l rangeList[R]) gaps(min, max uint16) [][2]uint16 {
	var out [][2]uint16
	cur := uint32(min)
	for _, r := range l {
		rmin, rmax := r.bounds()
		if uint32(rmax) < cur {
			continue
		}
		if rmin > max {
			break
		}
		if uint32(rmin) > cur {
			out = append(out, [2]uint16{uint16(cur), rmin - 1})
		}
		cur = uint32(rmax) + 1
	}
	if cur <= uint32(max) {
		out = append(out, [2]uint16{uint16(cur), max})
	}
	return out
}

// Table dispatches CPU accesses to the handler whose range contains the
// address. Ranges never overlap, so the first match is the only match;
// registration order only matters for FillWrite, which never takes over an
// already mapped address.
type Table struct {
	Name string

	reads  rangeList[ReadRange]
	writes rangeList[WriteRange]
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

// Reset unmaps everything.
func (t *Table) Reset() {
	t.reads = t.reads[:0]
	t.writes = t.writes[:0]
}

func (t *Table) MapRead(r ReadRange) error {
	if err := t.reads.insert(r); err != nil {
		return fmt.Errorf("%s: read: %w", t.Name, err)
	}
	log.ModHwIo.DebugZ("map read").
		String("bus", t.Name).
		Hex16("min", r.Min).
		Hex16("max", r.Max).
		End()
	return nil
}

func (t *Table) MapWrite(w WriteRange) error {
	if err := t.writes.insert(w); err != nil {
		return fmt.Errorf("%s: write: %w", t.Name, err)
	}
	log.ModHwIo.DebugZ("map write").
		String("bus", t.Name).
		Hex16("min", w.Min).
		Hex16("max", w.Max).
		End()
	return nil
}

// MapDevice maps both directions of [min, max] to d.
func (t *Table) MapDevice(min, max uint16, d *Device) error {
	if err := t.MapRead(ReadRange{Min: min, Max: max, Read: d.Read8}); err != nil {
		return err
	}
	return t.MapWrite(WriteRange{Min: min, Max: max, Write: d.Write8})
}

// FillWrite maps fn over every address of [min, max] that has no write
// handler yet.
func (t *Table) FillWrite(min, max uint16, fn WriteFunc) {
	for _, g := range t.writes.gaps(min, max) {
		// Can't fail, gaps are free by construction.
		_ = t.MapWrite(WriteRange{Min: g[0], Max: g[1], Write: fn})
	}
}

// Read8 forwards the read to the handler mapped at addr. ok is false when
// no handler is mapped there.
func (t *Table) Read8(addr uint16) (val uint8, ok bool) {
	if i := t.reads.find(addr); i >= 0 {
		return t.reads[i].Read(addr), true
	}
	return 0, false
}

// Write8 forwards the write to the handler mapped at addr. It returns false
// when no handler is mapped there.
func (t *Table) Write8(addr uint16, val uint8) bool {
	if i := t.writes.find(addr); i >= 0 {
		t.writes[i].Write(addr, val)
		return true
	}
	return false
}

// ReadRanges returns a copy of the mapped read ranges, sorted by address.
func (t *Table) ReadRanges() []ReadRange { return append([]ReadRange(nil), t.reads...) }

// WriteRanges returns a copy of the mapped write ranges, sorted by address.
func (t *Table) WriteRanges() []WriteRange { return append([]WriteRange(nil), t.writes...) }
