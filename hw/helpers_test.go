package hw

import (
	"testing"
)

// newTestCPU returns a CPU with a flat, writable 64KB address space.
func newTestCPU(tb testing.TB) (*CPU, []uint8) {
	tb.Helper()

	c := NewCPU()
	mem := make([]uint8, 0x10000)
	for i := range NumPages {
		c.Pages[i] = mem[i*PageSize : (i+1)*PageSize]
	}
	return c, mem
}

// load copies prog at addr and points the reset vector at it.
func load(tb testing.TB, c *CPU, mem []uint8, addr uint16, prog ...uint8) {
	tb.Helper()

	for i, b := range prog {
		c.Write8(addr+uint16(i), b)
	}
	mem[ResetVector] = uint8(addr)
	mem[ResetVector+1] = uint8(addr >> 8)
	c.Reset()
}

func wantMem8(tb testing.TB, c *CPU, addr uint16, want uint8) {
	tb.Helper()

	if got := c.Peek8(addr); got != want {
		tb.Errorf("mem[0x%04X] = 0x%02X, want 0x%02X", addr, got, want)
	}
}

type cpuRegs struct {
	A, X, Y, SP uint8
	PC          uint16
	P           P
}

func regsOf(c *CPU) cpuRegs {
	return cpuRegs{A: c.A, X: c.X, Y: c.Y, SP: c.SP, PC: c.PC, P: c.P}
}
