package hw

// P is the 6502 processor status register.
type P uint8

const (
	Carry = 1 << iota
	Zero
	Interrupt
	Decimal
	Break
	Reserved
	Overflow
	Negative
)

func (p P) String() string {
	const bits = "nvubdizcNVUBDIZC"

	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) >> (7 - i)) & 1
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p *P) setFlags(flags uint8) {
	*p |= P(flags)
}

func (p *P) clearFlags(flags uint8) {
	*p &^= P(flags)
}

func (p *P) set(flag uint8, on bool) {
	if on {
		p.setFlags(flag)
	} else {
		p.clearFlags(flag)
	}
}

func (p P) hasFlag(flag uint8) bool {
	return uint8(p)&flag == flag
}

func (p P) carry() uint8 {
	return uint8(p) & Carry
}

func (p *P) setNZ(val uint8) {
	p.set(Zero, val == 0)
	p.set(Negative, val&0x80 != 0)
}
