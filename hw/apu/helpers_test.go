package apu

import (
	"testing"

	"nsfplay/hw/hwdefs"
)

type fakeCPU struct {
	mem   [0x10000]uint8
	cycle int64
	dma   int
	irq   bool
}

func (c *fakeCPU) Read8(addr uint16) uint8 { return c.mem[addr] }
func (c *fakeCPU) AddDMACycles(n int)      { c.dma += n }
func (c *fakeCPU) RaiseIRQ()               { c.irq = true }
func (c *fakeCPU) ClearIRQ()               { c.irq = false }
func (c *fakeCPU) CycleCount() int64       { return c.cycle }

func newTestAPU(tb testing.TB, f Format) (*APU, *fakeCPU) {
	tb.Helper()

	cpu := &fakeCPU{}
	a, err := New(cpu, hwdefs.NTSC, f)
	if err != nil {
		tb.Fatalf("New(%v): %v", f, err)
	}
	return a, cpu
}

var mono16 = Format{SampleRate: 44100, Bits: 16}

type regWrite struct {
	addr uint16
	val  uint8
}

func writeRegs(a *APU, writes ...regWrite) {
	for _, w := range writes {
		a.Write8(w.addr, w.val)
	}
}
