package hw

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nsfplay/hw/hwio"
)

func TestPString(t *testing.T) {
	p := P(0b00110100)
	if got := p.String(); got != "nvUBdIzc" {
		t.Errorf("got P = %s, want %s", got, "nvUBdIzc")
	}
	p = P(0b00000100)
	if p.String() != "nvubdIzc" {
		t.Errorf("got P = %s, want %s", p.String(), "nvubdIzc")
	}
}

func TestPsetNZ(t *testing.T) {
	var p P
	p.setNZ(0x80)
	if !p.hasFlag(Negative) || p.hasFlag(Zero) {
		t.Errorf("setNZ(0x80) = %s", p)
	}
	p.setNZ(0)
	if p.hasFlag(Negative) || !p.hasFlag(Zero) {
		t.Errorf("setNZ(0) = %s", p)
	}
	p.setNZ(0x7F)
	if p.hasFlag(Negative) || p.hasFlag(Zero) {
		t.Errorf("setNZ(0x7F) = %s", p)
	}
}

func TestReset(t *testing.T) {
	c, mem := newTestCPU(t)
	mem[0xFFFC] = 0x34
	mem[0xFFFD] = 0x12
	c.RaiseIRQ()
	c.AddDMACycles(10)

	c.Reset()
	if c.PC != 0x1234 {
		t.Errorf("PC = %04X, want 1234", c.PC)
	}
	if !c.P.hasFlag(Interrupt) || !c.P.hasFlag(Zero) {
		t.Errorf("P = %s, want I and Z set", c.P)
	}
	if c.Pending() != 0 || c.DMADebt() != 0 {
		t.Errorf("pending = %v, debt = %d, want none", c.Pending(), c.DMADebt())
	}
}

func TestNMIPreemptsIRQ(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, c, mem, 0x8000, 0x58, 0xEA, 0xEA) // CLI; NOP; NOP
	mem[0xFFFA], mem[0xFFFB] = 0x00, 0x90
	mem[0xFFFE], mem[0xFFFF] = 0x00, 0xA0

	c.Execute(1) // CLI
	c.RaiseIRQ()
	c.RaiseNMI()

	if n := c.Execute(1); n != interruptCycles {
		t.Errorf("interrupt took %d cycles, want %d", n, interruptCycles)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC = %04X, want NMI handler 9000", c.PC)
	}
	if !c.IRQPending() {
		t.Errorf("IRQ should still be pending")
	}

	// Pushed status has B clear, U set.
	pushed := P(c.RAM[0x100|uint16(c.SP+1)])
	if pushed.hasFlag(Break) || !pushed.hasFlag(Reserved) {
		t.Errorf("pushed P = %s, want B clear and U set", pushed)
	}
	if ret := uint16(c.RAM[0x100|uint16(c.SP+3)])<<8 | uint16(c.RAM[0x100|uint16(c.SP+2)]); ret != 0x8001 {
		t.Errorf("pushed PC = %04X, want 8001", ret)
	}
	if !c.P.hasFlag(Interrupt) {
		t.Errorf("I flag should be set after NMI")
	}
}

func TestIRQMasked(t *testing.T) {
	c, mem := newTestCPU(t)
	// NOP x4; CLI; NOP
	load(t, c, mem, 0x8000, 0xEA, 0xEA, 0xEA, 0xEA, 0x58, 0xEA)
	mem[0xFFFE], mem[0xFFFF] = 0x00, 0xA0

	c.RaiseIRQ()
	c.Execute(8)
	if c.PC != 0x8004 {
		t.Fatalf("PC = %04X, want 8004 (IRQ must not be serviced with I set)", c.PC)
	}
	if !c.IRQPending() {
		t.Fatalf("IRQ should stay latched")
	}

	c.Execute(2) // CLI
	c.Execute(1) // IRQ
	if c.PC != 0xA000 {
		t.Errorf("PC = %04X, want IRQ handler A000", c.PC)
	}
	if c.IRQPending() {
		t.Errorf("IRQ should be acknowledged")
	}
}

func TestDMADebt(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, c, mem, 0x8000, 0xEA, 0xEA, 0xEA, 0xEA, 0xEA, 0xEA)

	c.AddDMACycles(3)
	n := c.Execute(10)
	if n != 11 {
		t.Errorf("Execute(10) = %d, want 11", n)
	}
	if c.PC != 0x8004 {
		t.Errorf("PC = %04X, want 8004", c.PC)
	}
	if c.Cycles != 11 {
		t.Errorf("Cycles = %d, want 11", c.Cycles)
	}
	if c.DMADebt() != 0 {
		t.Errorf("debt = %d, want 0", c.DMADebt())
	}
}

func TestHalt(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, c, mem, 0x8000, 0xA9, 0x01, 0xF2, 0xA9, 0x02) // LDA #1; JAM; LDA #2

	if n := c.Execute(100); n != 100 {
		t.Errorf("Execute(100) = %d, want 100", n)
	}
	pc, halted := c.Halted()
	if !halted || pc != 0x8002 {
		t.Fatalf("Halted() = %04X, %t, want 8002, true", pc, halted)
	}
	if c.A != 1 {
		t.Errorf("A = %02X, want 01", c.A)
	}

	// A halted CPU idles.
	c.Execute(50)
	if c.A != 1 || c.Cycles != 150 {
		t.Errorf("A = %02X, Cycles = %d, want 01, 150", c.A, c.Cycles)
	}

	c.PC = 0x8003
	c.Resume()
	c.Execute(1)
	if c.A != 2 {
		t.Errorf("A = %02X after resume, want 02", c.A)
	}
}

func TestJSRRTS(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, c, mem, 0x8000, 0x20, 0x10, 0x80, 0xF2) // JSR $8010; JAM
	mem[0x8010] = 0xA2                              // LDX #$42
	mem[0x8011] = 0x42
	mem[0x8012] = 0x60 // RTS

	c.SP = 0xFF
	c.Execute(6 + 2 + 6)
	if c.PC != 0x8003 {
		t.Fatalf("PC = %04X, want 8003", c.PC)
	}
	if c.SP != 0xFF || c.X != 0x42 {
		t.Errorf("SP = %02X, X = %02X, want FF, 42", c.SP, c.X)
	}
}

func TestMemoryPolicy(t *testing.T) {
	c := NewCPU()
	rom := make([]uint8, PageSize)
	rom[0x123] = 0x55
	c.Pages[0x8] = rom
	wram := make([]uint8, PageSize)
	c.Pages[0x6] = wram

	var writes []uint16
	c.Bus.MapRead(hwio.ReadRange{Min: 0x4000, Max: 0x4017, Read: func(addr uint16) uint8 { return 0xAA }})
	c.Bus.MapWrite(hwio.WriteRange{Min: 0x4000, Max: 0x4017, Write: func(addr uint16, _ uint8) { writes = append(writes, addr) }})
	// Handlers are not consulted for ROM reads.
	c.Bus.MapRead(hwio.ReadRange{Min: 0x8000, Max: 0x8FFF, Read: func(addr uint16) uint8 { return 0xBB }})

	c.Write8(0x0012, 0x34)
	if c.RAM[0x12] != 0x34 {
		t.Errorf("RAM[12] = %02X, want 34", c.RAM[0x12])
	}
	if got := c.Read8(0x4015); got != 0xAA {
		t.Errorf("Read8(4015) = %02X, want AA", got)
	}
	c.Write8(0x4003, 0x01)
	if diff := cmp.Diff([]uint16{0x4003}, writes); diff != "" {
		t.Errorf("writes mismatch (-want +got):\n%s", diff)
	}
	if got := c.Read8(0x8123); got != 0x55 {
		t.Errorf("Read8(8123) = %02X, want 55", got)
	}

	// Unmatched accesses fall back to the pages.
	c.Write8(0x6001, 0x77)
	if got := c.Read8(0x6001); got != 0x77 || wram[1] != 0x77 {
		t.Errorf("Read8(6001) = %02X, want 77", got)
	}
	if got := c.Read8(0x5000); got != 0 {
		t.Errorf("Read8(5000) = %02X on unmapped page, want 00", got)
	}
	c.Write8(0x5000, 0x01) // no page, ignored
}

func TestDecimalModeIgnored(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, c, mem, 0x8000, 0xF8, 0x18, 0xA9, 0x09, 0x69, 0x09) // SED; CLC; LDA #9; ADC #9
	c.Execute(8)
	if c.A != 0x12 {
		t.Errorf("A = %02X, want 12 (binary)", c.A)
	}
}

func TestUnofficialOpcodes(t *testing.T) {
	tests := []struct {
		name     string
		prog     []uint8
		init     cpuRegs
		setup    func(c *CPU)
		want     cpuRegs
		wantMem  map[uint16]uint8
		wantBits uint8 // flags checked, among C Z V N
	}{
		{
			name: "ANE",
			prog: []uint8{0x8B, 0xFF},
			init: cpuRegs{A: 0x01, X: 0x3C},
			want: cpuRegs{A: 0x2C, X: 0x3C},
		},
		{
			name: "LXA",
			prog: []uint8{0xAB, 0x5A},
			init: cpuRegs{A: 0x11},
			want: cpuRegs{A: 0x5A, X: 0x5A},
		},
		{
			name:     "SBX",
			prog:     []uint8{0xCB, 0x02},
			init:     cpuRegs{A: 0x0F, X: 0x05},
			want:     cpuRegs{A: 0x0F, X: 0x03, P: Carry},
			wantBits: Carry | Zero | Negative,
		},
		{
			name:     "ANC",
			prog:     []uint8{0x0B, 0x80},
			init:     cpuRegs{A: 0xFF},
			want:     cpuRegs{A: 0x80, P: Carry | Negative},
			wantBits: Carry | Negative,
		},
		{
			name:     "ALR",
			prog:     []uint8{0x4B, 0x03},
			init:     cpuRegs{A: 0xFF},
			want:     cpuRegs{A: 0x01, P: Carry},
			wantBits: Carry | Zero,
		},
		{
			name:     "ARR",
			prog:     []uint8{0x6B, 0xFF},
			init:     cpuRegs{A: 0xC0, P: Carry},
			want:     cpuRegs{A: 0xE0, P: Carry | Negative},
			wantBits: Carry | Overflow | Negative,
		},
		{
			name:    "LAX",
			prog:    []uint8{0xA7, 0x10},
			setup:   func(c *CPU) { c.RAM[0x10] = 0x99 },
			want:    cpuRegs{A: 0x99, X: 0x99},
			wantMem: map[uint16]uint8{0x10: 0x99},
		},
		{
			name:    "SAX",
			prog:    []uint8{0x87, 0x10},
			init:    cpuRegs{A: 0xF0, X: 0x3C},
			want:    cpuRegs{A: 0xF0, X: 0x3C},
			wantMem: map[uint16]uint8{0x10: 0x30},
		},
		{
			name:    "SLO",
			prog:    []uint8{0x07, 0x10},
			init:    cpuRegs{A: 0x01},
			setup:   func(c *CPU) { c.RAM[0x10] = 0x81 },
			want:    cpuRegs{A: 0x03},
			wantMem: map[uint16]uint8{0x10: 0x02},
		},
		{
			name:     "DCP",
			prog:     []uint8{0xC7, 0x10},
			init:     cpuRegs{A: 0x41},
			setup:    func(c *CPU) { c.RAM[0x10] = 0x42 },
			want:     cpuRegs{A: 0x41, P: Carry | Zero},
			wantMem:  map[uint16]uint8{0x10: 0x41},
			wantBits: Carry | Zero,
		},
		{
			name:    "ISC",
			prog:    []uint8{0xE7, 0x10},
			init:    cpuRegs{A: 0x10, P: Carry},
			setup:   func(c *CPU) { c.RAM[0x10] = 0x04 },
			want:    cpuRegs{A: 0x0B, P: Carry},
			wantMem: map[uint16]uint8{0x10: 0x05},
		},
		{
			name:    "RRA",
			prog:    []uint8{0x67, 0x10},
			init:    cpuRegs{A: 0x01},
			setup:   func(c *CPU) { c.RAM[0x10] = 0x03 },
			want:    cpuRegs{A: 0x03},
			wantMem: map[uint16]uint8{0x10: 0x01},
		},
		{
			name:    "SHX",
			prog:    []uint8{0x9E, 0x00, 0x02},
			init:    cpuRegs{X: 0xFF, Y: 0x01},
			want:    cpuRegs{X: 0xFF, Y: 0x01},
			wantMem: map[uint16]uint8{0x0201: 0x03},
		},
		{
			name:  "LAS",
			prog:  []uint8{0xBB, 0x00, 0x02},
			init:  cpuRegs{SP: 0x0F},
			setup: func(c *CPU) { c.RAM[0x200] = 0x3C },
			want:  cpuRegs{A: 0x0C, X: 0x0C, SP: 0x0C},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mem := newTestCPU(t)
			load(t, c, mem, 0x8000, tt.prog...)
			c.A, c.X, c.Y, c.P = tt.init.A, tt.init.X, tt.init.Y, tt.init.P|Reserved
			c.SP = tt.init.SP
			if tt.setup != nil {
				tt.setup(c)
			}
			c.step()

			got := regsOf(c)
			want := tt.want
			want.PC = 0x8000 + uint16(len(tt.prog))
			want.SP = c.SP
			if tt.init.SP != 0 || tt.want.SP != 0 {
				want.SP = tt.want.SP
			}
			got.P &= P(tt.wantBits)
			want.P &= P(tt.wantBits)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("registers mismatch (-want +got):\n%s", diff)
			}
			for addr, val := range tt.wantMem {
				wantMem8(t, c, addr, val)
			}
		})
	}
}

func TestTraceFormat(t *testing.T) {
	c, mem := newTestCPU(t)
	load(t, c, mem, 0xE052, 0xA9, 0x32, 0x20, 0xEE, 0xE0)
	c.X = 0x01
	c.P = 0x24
	c.SP = 0xF4

	var out bytes.Buffer
	c.SetTraceOutput(&out)
	c.Execute(2 + 6)

	want := []string{
		`E052  A9 32     LDA #$32                         A:00 X:01 Y:00 P:24 S:F4 CYC:0`,
		`E054  20 EE E0  JSR $E0EE                        A:32 X:01 Y:00 P:24 S:F4 CYC:2`,
	}
	wantstr := strings.Join(want, "\n") + "\n"
	if out.String() != wantstr {
		t.Fatalf("trace differs\ngot:\n%s\nwant:\n%s\n", out.String(), wantstr)
	}
}

func BenchmarkExecute(b *testing.B) {
	c, mem := newTestCPU(b)
	// loop: INX; ADC $10,X; STA $0200,X; JMP loop
	load(b, c, mem, 0x8000, 0xE8, 0x75, 0x10, 0x9D, 0x00, 0x02, 0x4C, 0x00, 0x80)

	for range b.N {
		c.Execute(29781)
	}
}
