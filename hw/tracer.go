package hw

import (
	"fmt"
	"io"
)

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	A, X, Y uint8
	P       P
	SP      uint8
	PC      uint16

	Clock int64
}

type disasmer interface {
	Disasm(pc uint16) DisasmOp
}

type tracer struct {
	d disasmer
	w io.Writer
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// appendReg appends "N:HH " to buf.
func appendReg(buf []byte, name byte, v byte) []byte {
	var hex [2]byte
	hexEncode(hex[:], v)
	return append(buf, name, ':', hex[0], hex[1], ' ')
}

// write the execution trace for the instruction about to execute.
func (t *tracer) write(state cpuState) {
	buf := make([]byte, 0, 96)
	buf = append(buf, t.d.Disasm(state.PC).Bytes()...)
	for len(buf) < 49 {
		buf = append(buf, ' ')
	}

	buf = appendReg(buf, 'A', state.A)
	buf = appendReg(buf, 'X', state.X)
	buf = appendReg(buf, 'Y', state.Y)
	buf = appendReg(buf, 'P', byte(state.P))
	buf = appendReg(buf, 'S', state.SP)
	buf = fmt.Appendf(buf, "CYC:%d\n", state.Clock)
	t.w.Write(buf)
}

type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint16
}

// Bytes returns the string representation of a DisasmOp, suitable for the
// execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>8))
	hexEncode(buf[2:], byte(d.PC))
	buf[4] = ' '
	buf[5] = ' '

	off := 6
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	for ; off < 16; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) > totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}

	return buf
}

// Disasm decodes the instruction at pc, without side effects.
func (c *CPU) Disasm(pc uint16) DisasmOp {
	op := opcodes[c.Peek8(pc)]
	n := 1 + int(operandSize[op.Mode])

	d := DisasmOp{
		Opcode: op.Mnemonic.String(),
		Buf:    make([]byte, n),
		PC:     pc,
	}
	for i := range n {
		d.Buf[i] = c.Peek8(pc + uint16(i))
	}

	var w uint16
	if n == 3 {
		w = uint16(d.Buf[2])<<8 | uint16(d.Buf[1])
	}
	switch op.Mode {
	case acc:
		d.Oper = "A"
	case imm:
		d.Oper = fmt.Sprintf("#$%02X", d.Buf[1])
	case zpg:
		d.Oper = fmt.Sprintf("$%02X", d.Buf[1])
	case zpx:
		d.Oper = fmt.Sprintf("$%02X,X", d.Buf[1])
	case zpy:
		d.Oper = fmt.Sprintf("$%02X,Y", d.Buf[1])
	case abs:
		d.Oper = formatAddr(w)
	case abx:
		d.Oper = formatAddr(w) + ",X"
	case aby:
		d.Oper = formatAddr(w) + ",Y"
	case ind:
		d.Oper = "(" + formatAddr(w) + ")"
	case izx:
		d.Oper = fmt.Sprintf("($%02X,X)", d.Buf[1])
	case izy:
		d.Oper = fmt.Sprintf("($%02X),Y", d.Buf[1])
	case rel:
		d.Oper = fmt.Sprintf("$%04X", pc+2+uint16(int8(d.Buf[1])))
	}
	return d
}

var addressLabels = map[uint16]string{
	0x4000: "Sq0Duty_4000",
	0x4001: "Sq0Sweep_4001",
	0x4002: "Sq0Timer_4002",
	0x4003: "Sq0Length_4003",
	0x4004: "Sq1Duty_4004",
	0x4005: "Sq1Sweep_4005",
	0x4006: "Sq1Timer_4006",
	0x4007: "Sq1Length_4007",
	0x4008: "TrgLinear_4008",
	0x400A: "TrgTimer_400A",
	0x400B: "TrgLength_400B",
	0x400C: "NoiseVolume_400C",
	0x400E: "NoisePeriod_400E",
	0x400F: "NoiseLength_400F",
	0x4010: "DmcFreq_4010",
	0x4011: "DmcCounter_4011",
	0x4012: "DmcAddress_4012",
	0x4013: "DmcLength_4013",
	0x4015: "ApuStatus_4015",
	0x4017: "FrameCtr_4017",
	0x5FF6: "Bank6_5FF6",
	0x5FF7: "Bank7_5FF7",
	0x5FF8: "Bank8_5FF8",
	0x5FF9: "Bank9_5FF9",
	0x5FFA: "BankA_5FFA",
	0x5FFB: "BankB_5FFB",
	0x5FFC: "BankC_5FFC",
	0x5FFD: "BankD_5FFD",
	0x5FFE: "BankE_5FFE",
	0x5FFF: "BankF_5FFF",
}

func formatAddr(addr uint16) string {
	if label, ok := addressLabels[addr]; ok {
		return label
	}
	return fmt.Sprintf("$%04X", addr)
}
