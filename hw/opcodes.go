package hw

// Mnemonic identifies the operation an opcode performs.
type Mnemonic uint8

const (
	ADC Mnemonic = iota
	AND
	ASL
	BCC
	BCS
	BEQ
	BIT
	BMI
	BNE
	BPL
	BRK
	BVC
	BVS
	CLC
	CLD
	CLI
	CLV
	CMP
	CPX
	CPY
	DEC
	DEX
	DEY
	EOR
	INC
	INX
	INY
	JMP
	JSR
	LDA
	LDX
	LDY
	LSR
	NOP
	ORA
	PHA
	PHP
	PLA
	PLP
	ROL
	ROR
	RTI
	RTS
	SBC
	SEC
	SED
	SEI
	STA
	STX
	STY
	TAX
	TAY
	TSX
	TXA
	TXS
	TYA

	// unofficial
	ALR
	ANC
	ANE
	ARR
	DCP
	ISC
	JAM
	LAS
	LAX
	LXA
	RLA
	RRA
	SAX
	SBX
	SHA
	SHX
	SHY
	SLO
	SRE
	TAS

	numMnemonics
)

var mnemonicNames = [numMnemonics]string{
	"ADC", "AND", "ASL", "BCC", "BCS", "BEQ", "BIT", "BMI", "BNE", "BPL",
	"BRK", "BVC", "BVS", "CLC", "CLD", "CLI", "CLV", "CMP", "CPX", "CPY",
	"DEC", "DEX", "DEY", "EOR", "INC", "INX", "INY", "JMP", "JSR", "LDA",
	"LDX", "LDY", "LSR", "NOP", "ORA", "PHA", "PHP", "PLA", "PLP", "ROL",
	"ROR", "RTI", "RTS", "SBC", "SEC", "SED", "SEI", "STA", "STX", "STY",
	"TAX", "TAY", "TSX", "TXA", "TXS", "TYA",
	"ALR", "ANC", "ANE", "ARR", "DCP", "ISC", "JAM", "LAS", "LAX", "LXA",
	"RLA", "RRA", "SAX", "SBX", "SHA", "SHX", "SHY", "SLO", "SRE", "TAS",
}

func (m Mnemonic) String() string {
	if m < numMnemonics {
		return mnemonicNames[m]
	}
	return "???"
}

// Mode is an addressing mode.
type Mode uint8

const (
	imp Mode = iota // implied
	acc             // accumulator
	imm             // immediate
	zpg             // zero page
	zpx             // zero page,X
	zpy             // zero page,Y
	abs             // absolute
	abx             // absolute,X
	aby             // absolute,Y
	ind             // (indirect)
	izx             // (indirect,X)
	izy             // (indirect),Y
	rel             // relative
)

// operand size in bytes, per mode.
var operandSize = [...]uint8{
	imp: 0, acc: 0, imm: 1, zpg: 1, zpx: 1, zpy: 1,
	abs: 2, abx: 2, aby: 2, ind: 2, izx: 1, izy: 1, rel: 1,
}

// Opcode is the decoded form of an opcode byte.
type Opcode struct {
	Mnemonic Mnemonic
	Mode     Mode
	Cycles   uint8 // base cost

	// PageCross is set when indexing across a page boundary costs one more
	// cycle (read instructions in abx, aby and izy modes).
	PageCross bool
}

// Decode returns the decoded form of an opcode byte.
func Decode(opcode uint8) Opcode { return opcodes[opcode] }

var opcodes = [256]Opcode{
	0x00: {BRK, imp, 7, false}, 0x01: {ORA, izx, 6, false}, 0x02: {JAM, imp, 2, false}, 0x03: {SLO, izx, 8, false},
	0x04: {NOP, zpg, 3, false}, 0x05: {ORA, zpg, 3, false}, 0x06: {ASL, zpg, 5, false}, 0x07: {SLO, zpg, 5, false},
	0x08: {PHP, imp, 3, false}, 0x09: {ORA, imm, 2, false}, 0x0A: {ASL, acc, 2, false}, 0x0B: {ANC, imm, 2, false},
	0x0C: {NOP, abs, 4, false}, 0x0D: {ORA, abs, 4, false}, 0x0E: {ASL, abs, 6, false}, 0x0F: {SLO, abs, 6, false},

	0x10: {BPL, rel, 2, false}, 0x11: {ORA, izy, 5, true}, 0x12: {JAM, imp, 2, false}, 0x13: {SLO, izy, 8, false},
	0x14: {NOP, zpx, 4, false}, 0x15: {ORA, zpx, 4, false}, 0x16: {ASL, zpx, 6, false}, 0x17: {SLO, zpx, 6, false},
	0x18: {CLC, imp, 2, false}, 0x19: {ORA, aby, 4, true}, 0x1A: {NOP, imp, 2, false}, 0x1B: {SLO, aby, 7, false},
	0x1C: {NOP, abx, 4, true}, 0x1D: {ORA, abx, 4, true}, 0x1E: {ASL, abx, 7, false}, 0x1F: {SLO, abx, 7, false},

	0x20: {JSR, abs, 6, false}, 0x21: {AND, izx, 6, false}, 0x22: {JAM, imp, 2, false}, 0x23: {RLA, izx, 8, false},
	0x24: {BIT, zpg, 3, false}, 0x25: {AND, zpg, 3, false}, 0x26: {ROL, zpg, 5, false}, 0x27: {RLA, zpg, 5, false},
	0x28: {PLP, imp, 4, false}, 0x29: {AND, imm, 2, false}, 0x2A: {ROL, acc, 2, false}, 0x2B: {ANC, imm, 2, false},
	0x2C: {BIT, abs, 4, false}, 0x2D: {AND, abs, 4, false}, 0x2E: {ROL, abs, 6, false}, 0x2F: {RLA, abs, 6, false},

	0x30: {BMI, rel, 2, false}, 0x31: {AND, izy, 5, true}, 0x32: {JAM, imp, 2, false}, 0x33: {RLA, izy, 8, false},
	0x34: {NOP, zpx, 4, false}, 0x35: {AND, zpx, 4, false}, 0x36: {ROL, zpx, 6, false}, 0x37: {RLA, zpx, 6, false},
	0x38: {SEC, imp, 2, false}, 0x39: {AND, aby, 4, true}, 0x3A: {NOP, imp, 2, false}, 0x3B: {RLA, aby, 7, false},
	0x3C: {NOP, abx, 4, true}, 0x3D: {AND, abx, 4, true}, 0x3E: {ROL, abx, 7, false}, 0x3F: {RLA, abx, 7, false},

	0x40: {RTI, imp, 6, false}, 0x41: {EOR, izx, 6, false}, 0x42: {JAM, imp, 2, false}, 0x43: {SRE, izx, 8, false},
	0x44: {NOP, zpg, 3, false}, 0x45: {EOR, zpg, 3, false}, 0x46: {LSR, zpg, 5, false}, 0x47: {SRE, zpg, 5, false},
	0x48: {PHA, imp, 3, false}, 0x49: {EOR, imm, 2, false}, 0x4A: {LSR, acc, 2, false}, 0x4B: {ALR, imm, 2, false},
	0x4C: {JMP, abs, 3, false}, 0x4D: {EOR, abs, 4, false}, 0x4E: {LSR, abs, 6, false}, 0x4F: {SRE, abs, 6, false},

	0x50: {BVC, rel, 2, false}, 0x51: {EOR, izy, 5, true}, 0x52: {JAM, imp, 2, false}, 0x53: {SRE, izy, 8, false},
	0x54: {NOP, zpx, 4, false}, 0x55: {EOR, zpx, 4, false}, 0x56: {LSR, zpx, 6, false}, 0x57: {SRE, zpx, 6, false},
	0x58: {CLI, imp, 2, false}, 0x59: {EOR, aby, 4, true}, 0x5A: {NOP, imp, 2, false}, 0x5B: {SRE, aby, 7, false},
	0x5C: {NOP, abx, 4, true}, 0x5D: {EOR, abx, 4, true}, 0x5E: {LSR, abx, 7, false}, 0x5F: {SRE, abx, 7, false},

	0x60: {RTS, imp, 6, false}, 0x61: {ADC, izx, 6, false}, 0x62: {JAM, imp, 2, false}, 0x63: {RRA, izx, 8, false},
	0x64: {NOP, zpg, 3, false}, 0x65: {ADC, zpg, 3, false}, 0x66: {ROR, zpg, 5, false}, 0x67: {RRA, zpg, 5, false},
	0x68: {PLA, imp, 4, false}, 0x69: {ADC, imm, 2, false}, 0x6A: {ROR, acc, 2, false}, 0x6B: {ARR, imm, 2, false},
	0x6C: {JMP, ind, 5, false}, 0x6D: {ADC, abs, 4, false}, 0x6E: {ROR, abs, 6, false}, 0x6F: {RRA, abs, 6, false},

	0x70: {BVS, rel, 2, false}, 0x71: {ADC, izy, 5, true}, 0x72: {JAM, imp, 2, false}, 0x73: {RRA, izy, 8, false},
	0x74: {NOP, zpx, 4, false}, 0x75: {ADC, zpx, 4, false}, 0x76: {ROR, zpx, 6, false}, 0x77: {RRA, zpx, 6, false},
	0x78: {SEI, imp, 2, false}, 0x79: {ADC, aby, 4, true}, 0x7A: {NOP, imp, 2, false}, 0x7B: {RRA, aby, 7, false},
	0x7C: {NOP, abx, 4, true}, 0x7D: {ADC, abx, 4, true}, 0x7E: {ROR, abx, 7, false}, 0x7F: {RRA, abx, 7, false},

	0x80: {NOP, imm, 2, false}, 0x81: {STA, izx, 6, false}, 0x82: {NOP, imm, 2, false}, 0x83: {SAX, izx, 6, false},
	0x84: {STY, zpg, 3, false}, 0x85: {STA, zpg, 3, false}, 0x86: {STX, zpg, 3, false}, 0x87: {SAX, zpg, 3, false},
	0x88: {DEY, imp, 2, false}, 0x89: {NOP, imm, 2, false}, 0x8A: {TXA, imp, 2, false}, 0x8B: {ANE, imm, 2, false},
	0x8C: {STY, abs, 4, false}, 0x8D: {STA, abs, 4, false}, 0x8E: {STX, abs, 4, false}, 0x8F: {SAX, abs, 4, false},

	0x90: {BCC, rel, 2, false}, 0x91: {STA, izy, 6, false}, 0x92: {JAM, imp, 2, false}, 0x93: {SHA, izy, 6, false},
	0x94: {STY, zpx, 4, false}, 0x95: {STA, zpx, 4, false}, 0x96: {STX, zpy, 4, false}, 0x97: {SAX, zpy, 4, false},
	0x98: {TYA, imp, 2, false}, 0x99: {STA, aby, 5, false}, 0x9A: {TXS, imp, 2, false}, 0x9B: {TAS, aby, 5, false},
	0x9C: {SHY, abx, 5, false}, 0x9D: {STA, abx, 5, false}, 0x9E: {SHX, aby, 5, false}, 0x9F: {SHA, aby, 5, false},

	0xA0: {LDY, imm, 2, false}, 0xA1: {LDA, izx, 6, false}, 0xA2: {LDX, imm, 2, false}, 0xA3: {LAX, izx, 6, false},
	0xA4: {LDY, zpg, 3, false}, 0xA5: {LDA, zpg, 3, false}, 0xA6: {LDX, zpg, 3, false}, 0xA7: {LAX, zpg, 3, false},
	0xA8: {TAY, imp, 2, false}, 0xA9: {LDA, imm, 2, false}, 0xAA: {TAX, imp, 2, false}, 0xAB: {LXA, imm, 2, false},
	0xAC: {LDY, abs, 4, false}, 0xAD: {LDA, abs, 4, false}, 0xAE: {LDX, abs, 4, false}, 0xAF: {LAX, abs, 4, false},

	0xB0: {BCS, rel, 2, false}, 0xB1: {LDA, izy, 5, true}, 0xB2: {JAM, imp, 2, false}, 0xB3: {LAX, izy, 5, true},
	0xB4: {LDY, zpx, 4, false}, 0xB5: {LDA, zpx, 4, false}, 0xB6: {LDX, zpy, 4, false}, 0xB7: {LAX, zpy, 4, false},
	0xB8: {CLV, imp, 2, false}, 0xB9: {LDA, aby, 4, true}, 0xBA: {TSX, imp, 2, false}, 0xBB: {LAS, aby, 4, true},
	0xBC: {LDY, abx, 4, true}, 0xBD: {LDA, abx, 4, true}, 0xBE: {LDX, aby, 4, true}, 0xBF: {LAX, aby, 4, true},

	0xC0: {CPY, imm, 2, false}, 0xC1: {CMP, izx, 6, false}, 0xC2: {NOP, imm, 2, false}, 0xC3: {DCP, izx, 8, false},
	0xC4: {CPY, zpg, 3, false}, 0xC5: {CMP, zpg, 3, false}, 0xC6: {DEC, zpg, 5, false}, 0xC7: {DCP, zpg, 5, false},
	0xC8: {INY, imp, 2, false}, 0xC9: {CMP, imm, 2, false}, 0xCA: {DEX, imp, 2, false}, 0xCB: {SBX, imm, 2, false},
	0xCC: {CPY, abs, 4, false}, 0xCD: {CMP, abs, 4, false}, 0xCE: {DEC, abs, 6, false}, 0xCF: {DCP, abs, 6, false},

	0xD0: {BNE, rel, 2, false}, 0xD1: {CMP, izy, 5, true}, 0xD2: {JAM, imp, 2, false}, 0xD3: {DCP, izy, 8, false},
	0xD4: {NOP, zpx, 4, false}, 0xD5: {CMP, zpx, 4, false}, 0xD6: {DEC, zpx, 6, false}, 0xD7: {DCP, zpx, 6, false},
	0xD8: {CLD, imp, 2, false}, 0xD9: {CMP, aby, 4, true}, 0xDA: {NOP, imp, 2, false}, 0xDB: {DCP, aby, 7, false},
	0xDC: {NOP, abx, 4, true}, 0xDD: {CMP, abx, 4, true}, 0xDE: {DEC, abx, 7, false}, 0xDF: {DCP, abx, 7, false},

	0xE0: {CPX, imm, 2, false}, 0xE1: {SBC, izx, 6, false}, 0xE2: {NOP, imm, 2, false}, 0xE3: {ISC, izx, 8, false},
	0xE4: {CPX, zpg, 3, false}, 0xE5: {SBC, zpg, 3, false}, 0xE6: {INC, zpg, 5, false}, 0xE7: {ISC, zpg, 5, false},
	0xE8: {INX, imp, 2, false}, 0xE9: {SBC, imm, 2, false}, 0xEA: {NOP, imp, 2, false}, 0xEB: {SBC, imm, 2, false},
	0xEC: {CPX, abs, 4, false}, 0xED: {SBC, abs, 4, false}, 0xEE: {INC, abs, 6, false}, 0xEF: {ISC, abs, 6, false},

	0xF0: {BEQ, rel, 2, false}, 0xF1: {SBC, izy, 5, true}, 0xF2: {JAM, imp, 2, false}, 0xF3: {ISC, izy, 8, false},
	0xF4: {NOP, zpx, 4, false}, 0xF5: {SBC, zpx, 4, false}, 0xF6: {INC, zpx, 6, false}, 0xF7: {ISC, zpx, 6, false},
	0xF8: {SED, imp, 2, false}, 0xF9: {SBC, aby, 4, true}, 0xFA: {NOP, imp, 2, false}, 0xFB: {ISC, aby, 7, false},
	0xFC: {NOP, abx, 4, true}, 0xFD: {SBC, abx, 4, true}, 0xFE: {INC, abx, 7, false}, 0xFF: {ISC, abx, 7, false},
}
