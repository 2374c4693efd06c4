package hw

// operand resolves the effective address of the current instruction and
// advances PC past its operand bytes. It returns the extra cycle charged for
// crossing a page, when the opcode pays for it.
func (c *CPU) operand(op Opcode) (addr uint16, extra int) {
	switch op.Mode {
	case imp, acc:
	case imm:
		addr = c.PC
		c.PC++
	case zpg:
		addr = uint16(c.Read8(c.PC))
		c.PC++
	case zpx:
		addr = uint16(c.Read8(c.PC) + c.X)
		c.PC++
	case zpy:
		addr = uint16(c.Read8(c.PC) + c.Y)
		c.PC++
	case abs:
		addr = c.Read16(c.PC)
		c.PC += 2
	case abx:
		base := c.Read16(c.PC)
		c.PC += 2
		addr = base + uint16(c.X)
		c.baseHi = uint8(base >> 8)
		extra = crossCost(op, base, addr)
	case aby:
		base := c.Read16(c.PC)
		c.PC += 2
		addr = base + uint16(c.Y)
		c.baseHi = uint8(base >> 8)
		extra = crossCost(op, base, addr)
	case ind:
		addr = c.read16bug(c.Read16(c.PC))
		c.PC += 2
	case izx:
		addr = c.read16zp(c.Read8(c.PC) + c.X)
		c.PC++
	case izy:
		base := c.read16zp(c.Read8(c.PC))
		c.PC++
		addr = base + uint16(c.Y)
		c.baseHi = uint8(base >> 8)
		extra = crossCost(op, base, addr)
	case rel:
		off := int8(c.Read8(c.PC))
		c.PC++
		addr = c.PC + uint16(off)
	}
	return addr, extra
}

func crossCost(op Opcode, a, b uint16) int {
	if op.PageCross && a&0xFF00 != b&0xFF00 {
		return 1
	}
	return 0
}

// step executes one instruction and returns the number of cycles it took.
func (c *CPU) step() int {
	pc := c.PC
	opcode := c.Read8(pc)
	op := opcodes[opcode]
	c.PC++

	addr, extra := c.operand(op)
	cycles := int(op.Cycles) + extra

	switch op.Mnemonic {
	// loads and stores
	case LDA:
		c.A = c.Read8(addr)
		c.P.setNZ(c.A)
	case LDX:
		c.X = c.Read8(addr)
		c.P.setNZ(c.X)
	case LDY:
		c.Y = c.Read8(addr)
		c.P.setNZ(c.Y)
	case STA:
		c.Write8(addr, c.A)
	case STX:
		c.Write8(addr, c.X)
	case STY:
		c.Write8(addr, c.Y)

	// transfers
	case TAX:
		c.X = c.A
		c.P.setNZ(c.X)
	case TAY:
		c.Y = c.A
		c.P.setNZ(c.Y)
	case TXA:
		c.A = c.X
		c.P.setNZ(c.A)
	case TYA:
		c.A = c.Y
		c.P.setNZ(c.A)
	case TSX:
		c.X = c.SP
		c.P.setNZ(c.X)
	case TXS:
		c.SP = c.X

	// stack
	case PHA:
		c.push8(c.A)
	case PHP:
		c.push8(uint8(c.P | Break | Reserved))
	case PLA:
		c.A = c.pull8()
		c.P.setNZ(c.A)
	case PLP:
		c.P = P(c.pull8())&^Break | Reserved

	// logic and arithmetic
	case AND:
		c.A &= c.Read8(addr)
		c.P.setNZ(c.A)
	case ORA:
		c.A |= c.Read8(addr)
		c.P.setNZ(c.A)
	case EOR:
		c.A ^= c.Read8(addr)
		c.P.setNZ(c.A)
	case ADC:
		c.adc(c.Read8(addr))
	case SBC:
		c.adc(^c.Read8(addr))
	case CMP:
		c.compare(c.A, c.Read8(addr))
	case CPX:
		c.compare(c.X, c.Read8(addr))
	case CPY:
		c.compare(c.Y, c.Read8(addr))
	case BIT:
		val := c.Read8(addr)
		c.P.set(Zero, c.A&val == 0)
		c.P.set(Negative, val&0x80 != 0)
		c.P.set(Overflow, val&0x40 != 0)

	// increments and decrements
	case INC:
		val := c.Read8(addr) + 1
		c.Write8(addr, val)
		c.P.setNZ(val)
	case DEC:
		val := c.Read8(addr) - 1
		c.Write8(addr, val)
		c.P.setNZ(val)
	case INX:
		c.X++
		c.P.setNZ(c.X)
	case INY:
		c.Y++
		c.P.setNZ(c.Y)
	case DEX:
		c.X--
		c.P.setNZ(c.X)
	case DEY:
		c.Y--
		c.P.setNZ(c.Y)

	// shifts
	case ASL:
		c.modify(op, addr, c.asl)
	case LSR:
		c.modify(op, addr, c.lsr)
	case ROL:
		c.modify(op, addr, c.rol)
	case ROR:
		c.modify(op, addr, c.ror)

	// jumps and calls
	case JMP:
		c.PC = addr
	case JSR:
		c.push16(c.PC - 1)
		c.PC = addr
	case RTS:
		c.PC = c.pull16() + 1
	case RTI:
		c.P = P(c.pull8())&^Break | Reserved
		c.PC = c.pull16()
	case BRK:
		c.push16(c.PC + 1)
		c.push8(uint8(c.P | Break | Reserved))
		c.P.setFlags(Interrupt)
		c.PC = c.Read16(IRQVector)

	// branches
	case BCC:
		cycles += c.branch(!c.P.hasFlag(Carry), addr)
	case BCS:
		cycles += c.branch(c.P.hasFlag(Carry), addr)
	case BNE:
		cycles += c.branch(!c.P.hasFlag(Zero), addr)
	case BEQ:
		cycles += c.branch(c.P.hasFlag(Zero), addr)
	case BPL:
		cycles += c.branch(!c.P.hasFlag(Negative), addr)
	case BMI:
		cycles += c.branch(c.P.hasFlag(Negative), addr)
	case BVC:
		cycles += c.branch(!c.P.hasFlag(Overflow), addr)
	case BVS:
		cycles += c.branch(c.P.hasFlag(Overflow), addr)

	// status flags
	case CLC:
		c.P.clearFlags(Carry)
	case SEC:
		c.P.setFlags(Carry)
	case CLI:
		c.P.clearFlags(Interrupt)
	case SEI:
		c.P.setFlags(Interrupt)
	case CLD:
		c.P.clearFlags(Decimal)
	case SED:
		c.P.setFlags(Decimal)
	case CLV:
		c.P.clearFlags(Overflow)

	case NOP:
		if op.Mode != imp {
			// Unofficial NOPs still perform their read.
			c.Read8(addr)
		}

	// unofficial opcodes
	case SLO:
		val := c.asl(c.Read8(addr))
		c.Write8(addr, val)
		c.A |= val
		c.P.setNZ(c.A)
	case RLA:
		val := c.rol(c.Read8(addr))
		c.Write8(addr, val)
		c.A &= val
		c.P.setNZ(c.A)
	case SRE:
		val := c.lsr(c.Read8(addr))
		c.Write8(addr, val)
		c.A ^= val
		c.P.setNZ(c.A)
	case RRA:
		val := c.ror(c.Read8(addr))
		c.Write8(addr, val)
		c.adc(val)
	case SAX:
		c.Write8(addr, c.A&c.X)
	case LAX:
		c.A = c.Read8(addr)
		c.X = c.A
		c.P.setNZ(c.A)
	case DCP:
		val := c.Read8(addr) - 1
		c.Write8(addr, val)
		c.compare(c.A, val)
	case ISC:
		val := c.Read8(addr) + 1
		c.Write8(addr, val)
		c.adc(^val)
	case ANC:
		c.A &= c.Read8(addr)
		c.P.setNZ(c.A)
		c.P.set(Carry, c.A&0x80 != 0)
	case ALR:
		c.A = c.lsr(c.A & c.Read8(addr))
	case ARR:
		c.A &= c.Read8(addr)
		c.A = c.A>>1 | c.P.carry()<<7
		c.P.setNZ(c.A)
		c.P.set(Carry, c.A&0x40 != 0)
		c.P.set(Overflow, (c.A>>6^c.A>>5)&1 != 0)
	case ANE:
		// Unstable on hardware, 0xEE is the commonly observed magic constant.
		c.A = (c.A | 0xEE) & c.X & c.Read8(addr)
		c.P.setNZ(c.A)
	case LXA:
		c.A = (c.A | 0xEE) & c.Read8(addr)
		c.X = c.A
		c.P.setNZ(c.A)
	case SBX:
		ax := c.A & c.X
		val := c.Read8(addr)
		c.X = ax - val
		c.P.set(Carry, ax >= val)
		c.P.setNZ(c.X)
	case SHA:
		c.Write8(addr, c.A&c.X&(c.baseHi+1))
	case SHX:
		c.Write8(addr, c.X&(c.baseHi+1))
	case SHY:
		c.Write8(addr, c.Y&(c.baseHi+1))
	case TAS:
		c.SP = c.A & c.X
		c.Write8(addr, c.SP&(c.baseHi+1))
	case LAS:
		c.A = c.Read8(addr) & c.SP
		c.X = c.A
		c.SP = c.A
		c.P.setNZ(c.A)
	case JAM:
		c.PC = pc
		c.halt(pc, opcode)
	}

	return cycles
}

// modify applies a read-modify-write shift, on A or in memory.
func (c *CPU) modify(op Opcode, addr uint16, fn func(uint8) uint8) {
	if op.Mode == acc {
		c.A = fn(c.A)
		return
	}
	c.Write8(addr, fn(c.Read8(addr)))
}

// branch jumps to addr if cond holds and returns the extra cycles it cost.
func (c *CPU) branch(cond bool, addr uint16) int {
	if !cond {
		return 0
	}
	extra := 1
	if c.PC&0xFF00 != addr&0xFF00 {
		extra++
	}
	c.PC = addr
	return extra
}

// adc adds val and carry to A. Decimal mode is not supported, as on the
// 2A03.
func (c *CPU) adc(val uint8) {
	sum := uint16(c.A) + uint16(val) + uint16(c.P.carry())
	res := uint8(sum)
	c.P.set(Carry, sum > 0xFF)
	c.P.set(Overflow, (c.A^res)&(val^res)&0x80 != 0)
	c.A = res
	c.P.setNZ(c.A)
}

func (c *CPU) compare(reg, val uint8) {
	c.P.set(Carry, reg >= val)
	c.P.setNZ(reg - val)
}

func (c *CPU) asl(val uint8) uint8 {
	c.P.set(Carry, val&0x80 != 0)
	val <<= 1
	c.P.setNZ(val)
	return val
}

func (c *CPU) lsr(val uint8) uint8 {
	c.P.set(Carry, val&0x01 != 0)
	val >>= 1
	c.P.setNZ(val)
	return val
}

func (c *CPU) rol(val uint8) uint8 {
	carry := c.P.carry()
	c.P.set(Carry, val&0x80 != 0)
	val = val<<1 | carry
	c.P.setNZ(val)
	return val
}

func (c *CPU) ror(val uint8) uint8 {
	carry := c.P.carry()
	c.P.set(Carry, val&0x01 != 0)
	val = val>>1 | carry<<7
	c.P.setNZ(val)
	return val
}
