package hw

import (
	"io"

	"nsfplay/emu/log"
	"nsfplay/hw/hwdefs"
	"nsfplay/hw/hwio"
)

// Locations reserved for vector pointers.
const (
	NMIVector   = uint16(0xFFFA) // Non-Maskable Interrupt
	ResetVector = uint16(0xFFFC) // Reset
	IRQVector   = uint16(0xFFFE) // Interrupt Request
)

const (
	// RAMSize is the size of the CPU internal RAM, accessed directly below
	// this address.
	RAMSize = 0x800

	PageSize  = 0x1000
	NumPages  = 16
	pageShift = 12

	// Reads at and above this address go straight to the page windows.
	romStart = 0x8000

	interruptCycles = 7
)

// CPU is a 6502 core (2A03 flavor, no decimal mode) with a paged 64KB
// address space.
type CPU struct {
	// Bus holds the read and write handlers of the range between RAM and
	// ROM.
	Bus *hwio.Table

	RAM [RAMSize]uint8

	// Pages are the 4KB windows covering the whole address space. Their
	// storage is owned by the caller. A nil page reads as zeroes and ignores
	// writes.
	Pages [NumPages][]uint8

	// Cycles is the total number of cycles executed since Reset. During an
	// instruction, it holds the cycle the instruction started at.
	Cycles int64

	// cpu registers
	A, X, Y, SP uint8
	PC          uint16
	P           P

	pending hwdefs.Interrupt
	dmaDebt int

	halted bool
	haltPC uint16

	// operand resolution scratch
	baseHi uint8

	// Non-nil when execution tracing is enabled.
	tracer *tracer
}

// NewCPU creates a CPU with an empty bus.
func NewCPU() *CPU {
	return &CPU{
		Bus: hwio.NewTable("cpu"),
		SP:  0xFD,
	}
}

// SetTraceOutput enables the execution trace, one line per instruction.
// A nil writer disables it.
func (c *CPU) SetTraceOutput(w io.Writer) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{d: c, w: w}
}

// Reset puts the CPU in its reset state and loads PC from the reset vector.
func (c *CPU) Reset() {
	c.A, c.X, c.Y = 0, 0, 0
	c.SP = 0xFD
	c.P = Reserved | Interrupt | Zero
	c.pending = 0
	c.dmaDebt = 0
	c.halted = false
	c.Cycles = 0
	c.PC = c.Read16(ResetVector)
}

// RaiseNMI latches a non-maskable interrupt, serviced at the next
// instruction boundary.
func (c *CPU) RaiseNMI() { c.pending |= hwdefs.NMI }

// RaiseIRQ latches an interrupt request, serviced at the next instruction
// boundary where the interrupt disable flag is clear.
func (c *CPU) RaiseIRQ() { c.pending |= hwdefs.IRQ }

// ClearIRQ drops a latched, not yet serviced, interrupt request.
func (c *CPU) ClearIRQ() { c.pending &^= hwdefs.IRQ }

// IRQPending reports whether an interrupt request is latched.
func (c *CPU) IRQPending() bool { return c.pending&hwdefs.IRQ != 0 }

// Pending returns the latched interrupts.
func (c *CPU) Pending() hwdefs.Interrupt { return c.pending }

// CycleCount returns the current cycle, the one the running instruction
// started at when called from a bus handler.
func (c *CPU) CycleCount() int64 { return c.Cycles }

// AddDMACycles steals n cycles, charged before the next instruction runs.
func (c *CPU) AddDMACycles(n int) { c.dmaDebt += n }

// DMADebt returns the number of cycles stolen and not yet charged.
func (c *CPU) DMADebt() int { return c.dmaDebt }

// Halted reports whether a halt opcode stopped the CPU and, if so, the
// address of that opcode.
func (c *CPU) Halted() (pc uint16, halted bool) { return c.haltPC, c.halted }

// Resume clears the halted state. Execution restarts at PC.
func (c *CPU) Resume() { c.halted = false }

// Execute runs the CPU for at least budget cycles and returns the number of
// cycles consumed. Pending DMA cycles are charged first. Instructions are not
// interruptible, so the last one may overshoot the budget. Once halted, the
// CPU idles through the rest of the budget.
func (c *CPU) Execute(budget int) int {
	consumed := c.dmaDebt
	c.Cycles += int64(c.dmaDebt)
	c.dmaDebt = 0

	for consumed < budget {
		if c.halted {
			idle := budget - consumed
			c.Cycles += int64(idle)
			consumed += idle
			break
		}

		n := c.serviceInterrupts()
		if n == 0 {
			c.traceOp()
			n = c.step()
		}
		c.Cycles += int64(n)
		consumed += n
	}
	return consumed
}

// serviceInterrupts services a pending interrupt, if any, and returns the
// number of cycles it took.
func (c *CPU) serviceInterrupts() int {
	switch {
	case c.pending&hwdefs.NMI != 0:
		c.pending &^= hwdefs.NMI
		c.interrupt(NMIVector)
	case c.pending&hwdefs.IRQ != 0 && !c.P.hasFlag(Interrupt):
		c.pending &^= hwdefs.IRQ
		c.interrupt(IRQVector)
	default:
		return 0
	}
	return interruptCycles
}

func (c *CPU) interrupt(vector uint16) {
	c.push16(c.PC)
	p := c.P
	p.clearFlags(Break)
	p.setFlags(Reserved)
	c.push8(uint8(p))
	c.P.setFlags(Interrupt)
	c.PC = c.Read16(vector)

	log.ModCPU.DebugZ("interrupt").
		Hex16("vector", vector).
		Hex16("PC", c.PC).
		End()
}

func (c *CPU) halt(pc uint16, opcode uint8) {
	c.halted = true
	c.haltPC = pc
	log.ModCPU.DebugZ("CPU halted").
		Hex16("PC", pc).
		Hex8("opcode", opcode).
		End()
}

// Read8 reads a byte from the address space, side effects included.
func (c *CPU) Read8(addr uint16) uint8 {
	if addr < RAMSize {
		return c.RAM[addr]
	}
	if addr < romStart {
		if val, ok := c.Bus.Read8(addr); ok {
			return val
		}
	}
	return c.readPage(addr)
}

// Peek8 reads a byte from RAM or the page windows, never calling handlers.
func (c *CPU) Peek8(addr uint16) uint8 {
	if addr < RAMSize {
		return c.RAM[addr]
	}
	return c.readPage(addr)
}

func (c *CPU) readPage(addr uint16) uint8 {
	page := c.Pages[addr>>pageShift]
	if page == nil {
		return 0
	}
	return page[addr&(PageSize-1)]
}

// Write8 writes a byte to the address space. Writes not claimed by a bus
// handler land in the page window.
func (c *CPU) Write8(addr uint16, val uint8) {
	if addr < RAMSize {
		c.RAM[addr] = val
		return
	}
	if c.Bus.Write8(addr, val) {
		return
	}
	if page := c.Pages[addr>>pageShift]; page != nil {
		page[addr&(PageSize-1)] = val
	}
}

// Read16 reads a little-endian word.
func (c *CPU) Read16(addr uint16) uint16 {
	lo := c.Read8(addr)
	hi := c.Read8(addr + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// read16zp reads a word from zero page, wrapping around within it.
func (c *CPU) read16zp(addr uint8) uint16 {
	lo := c.RAM[addr]
	hi := c.RAM[uint8(addr+1)]
	return uint16(hi)<<8 | uint16(lo)
}

// read16bug reads a word without carrying into the high byte of the
// pointer, as the 6502 does for JMP (ind).
func (c *CPU) read16bug(addr uint16) uint16 {
	lo := c.Read8(addr)
	hi := c.Read8(addr&0xFF00 | uint16(uint8(addr)+1))
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) push8(val uint8) {
	c.RAM[0x100|uint16(c.SP)] = val
	c.SP--
}

func (c *CPU) push16(val uint16) {
	c.push8(uint8(val >> 8))
	c.push8(uint8(val))
}

func (c *CPU) pull8() uint8 {
	c.SP++
	return c.RAM[0x100|uint16(c.SP)]
}

func (c *CPU) pull16() uint16 {
	lo := c.pull8()
	hi := c.pull8()
	return uint16(hi)<<8 | uint16(lo)
}

func (c *CPU) traceOp() {
	if c.tracer != nil {
		c.tracer.write(cpuState{
			A:     c.A,
			X:     c.X,
			Y:     c.Y,
			P:     c.P,
			SP:    c.SP,
			PC:    c.PC,
			Clock: c.Cycles,
		})
	}
}
