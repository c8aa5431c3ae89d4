// cpu_m68k_ops.go - Instruction execution handlers for the 68000 core

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Intuition68K
License: GPLv3 or later
*/

/*
cpu_m68k_ops.go - Instruction Execution Handlers

One handler per instruction family, dispatched through the decode table.
Every handler reads its fields out of the latched instruction word, fetches
any extension words in instruction-stream order (immediates before the
destination's own extensions), resolves operands through cpu_m68k_ea.go and
updates the condition codes through the algebra in cpu_m68k.go.

Handlers return early whenever an operand access reports a fault; the
exception has already been dispatched at that point and whatever addressing
side effects were committed beforehand stay committed, matching the
hardware's refusal to rewind a partially executed instruction.
*/

package main

func opReg9(op uint16) uint16 { return (op >> 9) & 0x7 }

// fetchImmediate reads the immediate operand following the opcode word.
// Byte immediates occupy the low half of a full extension word.
func (cpu *M68KCPU) fetchImmediate(size uint32) (uint32, bool) {
	if size == M68K_LONG_SIZE {
		value := cpu.Fetch32()
		return value, !cpu.faulted
	}
	word := cpu.Fetch16()
	if cpu.faulted {
		return 0, false
	}
	if size == M68K_BYTE_SIZE {
		return uint32(word) & 0xFF, true
	}
	return uint32(word), true
}

func (cpu *M68KCPU) readSized(addr uint32, size uint32) uint32 {
	switch size {
	case M68K_BYTE_SIZE:
		return uint32(cpu.Read8(addr))
	case M68K_WORD_SIZE:
		return uint32(cpu.Read16(addr))
	default:
		return cpu.Read32(addr)
	}
}

func (cpu *M68KCPU) writeSized(addr uint32, value uint32, size uint32) {
	switch size {
	case M68K_BYTE_SIZE:
		cpu.Write8(addr, uint8(value))
	case M68K_WORD_SIZE:
		cpu.Write16(addr, uint16(value))
	default:
		cpu.Write32(addr, value)
	}
}

// setDataReg replaces the low size bits of a data register.
func (cpu *M68KCPU) setDataReg(reg uint16, value uint32, size uint32) {
	mask := m68kSizeMask(size)
	cpu.DataRegs[reg] = (cpu.DataRegs[reg] &^ mask) | (value & mask)
}

func (cpu *M68KCPU) extendBit() uint32 {
	if cpu.SR&M68K_SR_X != 0 {
		return 1
	}
	return 0
}

// ---- Immediate arithmetic and logic ----

func (cpu *M68KCPU) ExecOri() {
	op := cpu.currentIR
	size := opSize(op)
	imm, ok := cpu.fetchImmediate(size)
	if !ok {
		return
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst | imm
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsLogical(result, size)
}

func (cpu *M68KCPU) ExecAndi() {
	op := cpu.currentIR
	size := opSize(op)
	imm, ok := cpu.fetchImmediate(size)
	if !ok {
		return
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst & imm
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsLogical(result, size)
}

func (cpu *M68KCPU) ExecEori() {
	op := cpu.currentIR
	size := opSize(op)
	imm, ok := cpu.fetchImmediate(size)
	if !ok {
		return
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst ^ imm
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsLogical(result, size)
}

func (cpu *M68KCPU) ExecAddi() {
	op := cpu.currentIR
	size := opSize(op)
	imm, ok := cpu.fetchImmediate(size)
	if !ok {
		return
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst + imm
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsAdd(imm, dst, result, size)
}

func (cpu *M68KCPU) ExecSubi() {
	op := cpu.currentIR
	size := opSize(op)
	imm, ok := cpu.fetchImmediate(size)
	if !ok {
		return
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst - imm
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsSub(imm, dst, result, size)
}

func (cpu *M68KCPU) ExecCmpi() {
	op := cpu.currentIR
	size := opSize(op)
	imm, ok := cpu.fetchImmediate(size)
	if !ok {
		return
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.SetFlagsCmp(imm, dst, dst-imm, size)
}

// ---- Immediate to CCR and SR ----

func (cpu *M68KCPU) ExecOriCcr() {
	word := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.SetCCR(cpu.GetCCR() | uint8(word))
}

func (cpu *M68KCPU) ExecAndiCcr() {
	word := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.SetCCR(cpu.GetCCR() & uint8(word))
}

func (cpu *M68KCPU) ExecEoriCcr() {
	word := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.SetCCR(cpu.GetCCR() ^ uint8(word))
}

func (cpu *M68KCPU) ExecOriSr() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	word := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.setSR(cpu.SR | word)
}

func (cpu *M68KCPU) ExecAndiSr() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	word := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.setSR(cpu.SR & word)
}

func (cpu *M68KCPU) ExecEoriSr() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	word := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.setSR(cpu.SR ^ word)
}

// ---- Bit operations ----
//
// The bit number is taken modulo 32 against a data register and modulo 8
// against a memory byte. Z reports the complement of the bit's value before
// any modification.

const (
	bitOpTst = iota
	bitOpChg
	bitOpClr
	bitOpSet
)

func (cpu *M68KCPU) execBitOp(kind int, bitNum uint32) {
	op := cpu.currentIR
	mode, reg := opEAMode(op), opEAReg(op)

	if mode == M68K_AM_DR_DIRECT {
		mask := uint32(1) << (bitNum & 31)
		value := cpu.DataRegs[reg]
		cpu.setFlag(M68K_SR_Z, value&mask == 0)
		switch kind {
		case bitOpChg:
			cpu.DataRegs[reg] = value ^ mask
		case bitOpClr:
			cpu.DataRegs[reg] = value &^ mask
		case bitOpSet:
			cpu.DataRegs[reg] = value | mask
		}
		return
	}

	mask := uint32(1) << (bitNum & 7)
	ea, ok := cpu.ResolveEA(mode, reg, M68K_BYTE_SIZE)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.setFlag(M68K_SR_Z, value&mask == 0)
	switch kind {
	case bitOpChg:
		cpu.WriteEA(&ea, value^mask)
	case bitOpClr:
		cpu.WriteEA(&ea, value&^mask)
	case bitOpSet:
		cpu.WriteEA(&ea, value|mask)
	}
}

func (cpu *M68KCPU) ExecBtstDyn() {
	cpu.execBitOp(bitOpTst, cpu.DataRegs[opReg9(cpu.currentIR)])
}

func (cpu *M68KCPU) ExecBchgDyn() {
	cpu.execBitOp(bitOpChg, cpu.DataRegs[opReg9(cpu.currentIR)])
}

func (cpu *M68KCPU) ExecBclrDyn() {
	cpu.execBitOp(bitOpClr, cpu.DataRegs[opReg9(cpu.currentIR)])
}

func (cpu *M68KCPU) ExecBsetDyn() {
	cpu.execBitOp(bitOpSet, cpu.DataRegs[opReg9(cpu.currentIR)])
}

func (cpu *M68KCPU) ExecBtstImm() {
	bitNum := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.execBitOp(bitOpTst, uint32(bitNum))
}

func (cpu *M68KCPU) ExecBchgImm() {
	bitNum := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.execBitOp(bitOpChg, uint32(bitNum))
}

func (cpu *M68KCPU) ExecBclrImm() {
	bitNum := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.execBitOp(bitOpClr, uint32(bitNum))
}

func (cpu *M68KCPU) ExecBsetImm() {
	bitNum := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.execBitOp(bitOpSet, uint32(bitNum))
}

// ExecMovep transfers a word or long between a data register and alternate
// memory bytes starting at d16(Ay), high byte first. Built for 8-bit
// peripherals on a 16-bit bus; no flags.
func (cpu *M68KCPU) ExecMovep() {
	op := cpu.currentIR
	dataReg := opReg9(op)
	disp := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	addr := cpu.AddrRegs[op&0x7] + m68kSignExtend(uint32(disp), M68K_WORD_SIZE)

	count := uint32(2)
	if op&0x0040 != 0 {
		count = 4
	}

	if op&0x0080 != 0 {
		value := cpu.DataRegs[dataReg]
		for i := uint32(0); i < count; i++ {
			cpu.Write8(addr+i*2, uint8(value>>((count-1-i)*8)))
			if cpu.faulted {
				return
			}
		}
		return
	}

	var value uint32
	for i := uint32(0); i < count; i++ {
		b := cpu.Read8(addr + i*2)
		if cpu.faulted {
			return
		}
		value = value<<8 | uint32(b)
	}
	if count == 4 {
		cpu.DataRegs[dataReg] = value
	} else {
		cpu.setDataReg(dataReg, value, M68K_WORD_SIZE)
	}
}

// ---- Data movement ----

func (cpu *M68KCPU) ExecMove() {
	op := cpu.currentIR
	var size uint32
	switch op >> 12 {
	case 0x1:
		size = M68K_BYTE_SIZE
	case 0x3:
		size = M68K_WORD_SIZE
	default:
		size = M68K_LONG_SIZE
	}
	src, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&src)
	if !ok {
		return
	}
	dst, ok := cpu.ResolveEA((op>>6)&0x7, opReg9(op), size)
	if !ok {
		return
	}
	if !cpu.WriteEA(&dst, value) {
		return
	}
	cpu.SetFlagsLogical(value, size)
}

func (cpu *M68KCPU) ExecMovea() {
	op := cpu.currentIR
	size := uint32(M68K_LONG_SIZE)
	if op>>12 == 0x3 {
		size = M68K_WORD_SIZE
	}
	src, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&src)
	if !ok {
		return
	}
	cpu.AddrRegs[opReg9(op)] = m68kSignExtend(value, size)
}

func (cpu *M68KCPU) ExecMoveq() {
	op := cpu.currentIR
	value := uint32(int32(int8(op)))
	cpu.DataRegs[opReg9(op)] = value
	cpu.SetFlagsLogical(value, M68K_LONG_SIZE)
}

// ---- Status register transfers ----

// MOVE from SR is unprivileged on this processor generation.
func (cpu *M68KCPU) ExecMoveFromSr() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	cpu.WriteEA(&ea, uint32(cpu.SR))
}

func (cpu *M68KCPU) ExecMoveFromCcr() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	cpu.WriteEA(&ea, uint32(cpu.GetCCR()))
}

func (cpu *M68KCPU) ExecMoveToCcr() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.SetCCR(uint8(value))
}

func (cpu *M68KCPU) ExecMoveToSr() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.setSR(uint16(value))
}

// ---- Single-operand arithmetic ----

func (cpu *M68KCPU) ExecClr() {
	op := cpu.currentIR
	size := opSize(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	// A real 68000 reads the destination before writing zero
	if _, ok := cpu.ReadEA(&ea); !ok {
		return
	}
	if !cpu.WriteEA(&ea, 0) {
		return
	}
	cpu.SetFlagsLogical(0, size)
}

func (cpu *M68KCPU) ExecNeg() {
	op := cpu.currentIR
	size := opSize(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := 0 - dst
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsSub(dst, 0, result, size)
}

func (cpu *M68KCPU) ExecNegx() {
	op := cpu.currentIR
	size := opSize(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := 0 - dst - cpu.extendBit()
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsSubX(dst, 0, result, size)
}

func (cpu *M68KCPU) ExecNot() {
	op := cpu.currentIR
	size := opSize(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := ^dst
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsLogical(result, size)
}

func (cpu *M68KCPU) ExecTst() {
	op := cpu.currentIR
	size := opSize(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.SetFlagsLogical(value, size)
}

// ExecTas reads a byte, sets N and Z from it, then writes it back with the
// top bit set. The engine is single-threaded so the cycle is indivisible.
func (cpu *M68KCPU) ExecTas() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_BYTE_SIZE)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.SetFlagsLogical(value, M68K_BYTE_SIZE)
	cpu.WriteEA(&ea, value|0x80)
}

func (cpu *M68KCPU) ExecSwap() {
	reg := cpu.currentIR & 0x7
	value := cpu.DataRegs[reg]
	value = value<<16 | value>>16
	cpu.DataRegs[reg] = value
	cpu.SetFlagsLogical(value, M68K_LONG_SIZE)
}

func (cpu *M68KCPU) ExecExtW() {
	reg := cpu.currentIR & 0x7
	value := m68kSignExtend(cpu.DataRegs[reg], M68K_BYTE_SIZE)
	cpu.setDataReg(reg, value, M68K_WORD_SIZE)
	cpu.SetFlagsLogical(value, M68K_WORD_SIZE)
}

func (cpu *M68KCPU) ExecExtL() {
	reg := cpu.currentIR & 0x7
	value := m68kSignExtend(cpu.DataRegs[reg], M68K_WORD_SIZE)
	cpu.DataRegs[reg] = value
	cpu.SetFlagsLogical(value, M68K_LONG_SIZE)
}

// ---- Address calculation ----

func (cpu *M68KCPU) ExecLea() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_LONG_SIZE)
	if !ok {
		return
	}
	cpu.AddrRegs[opReg9(op)] = ea.Addr
}

func (cpu *M68KCPU) ExecPea() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_LONG_SIZE)
	if !ok {
		return
	}
	cpu.Push32(ea.Addr)
}

// ---- Multi-register transfer ----

// ExecMovemToMem stores the mask-selected registers. For the pre-decrement
// form the mask is reversed and the transfer runs from A7 down, with the
// base register committed only after the last store; all other forms run
// from D0 up at a fixed address.
func (cpu *M68KCPU) ExecMovemToMem() {
	op := cpu.currentIR
	size := uint32(M68K_WORD_SIZE)
	if op&0x0040 != 0 {
		size = M68K_LONG_SIZE
	}
	mask := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	mode, reg := opEAMode(op), opEAReg(op)

	if mode == M68K_AM_AR_PRE {
		addr := cpu.AddrRegs[reg]
		for i := 0; i < 16; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			regIndex := 15 - i
			var value uint32
			if regIndex >= 8 {
				value = cpu.AddrRegs[regIndex-8]
			} else {
				value = cpu.DataRegs[regIndex]
			}
			addr -= size
			cpu.writeSized(addr, value, size)
			if cpu.faulted {
				return
			}
		}
		cpu.AddrRegs[reg] = addr
		return
	}

	ea, ok := cpu.ResolveEA(mode, reg, size)
	if !ok {
		return
	}
	addr := ea.Addr
	for i := 0; i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		var value uint32
		if i >= 8 {
			value = cpu.AddrRegs[i-8]
		} else {
			value = cpu.DataRegs[i]
		}
		cpu.writeSized(addr, value, size)
		if cpu.faulted {
			return
		}
		addr += size
	}
}

// ExecMovemToReg loads the mask-selected registers from D0 up. Word
// transfers sign-extend into the full register, address registers included.
// A post-increment base register ends at the first unread location, even if
// it was itself in the mask.
func (cpu *M68KCPU) ExecMovemToReg() {
	op := cpu.currentIR
	size := uint32(M68K_WORD_SIZE)
	if op&0x0040 != 0 {
		size = M68K_LONG_SIZE
	}
	mask := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	mode, reg := opEAMode(op), opEAReg(op)

	var addr uint32
	if mode == M68K_AM_AR_POST {
		addr = cpu.AddrRegs[reg]
	} else {
		ea, ok := cpu.ResolveEA(mode, reg, size)
		if !ok {
			return
		}
		addr = ea.Addr
	}

	for i := 0; i < 16; i++ {
		if mask&(1<<i) == 0 {
			continue
		}
		value := cpu.readSized(addr, size)
		if cpu.faulted {
			return
		}
		if size == M68K_WORD_SIZE {
			value = m68kSignExtend(value, M68K_WORD_SIZE)
		}
		if i >= 8 {
			cpu.AddrRegs[i-8] = value
		} else {
			cpu.DataRegs[i] = value
		}
		addr += size
	}
	if mode == M68K_AM_AR_POST {
		cpu.AddrRegs[reg] = addr
	}
}

// ---- Traps and system control ----

func (cpu *M68KCPU) ExecIllegalInsn() {
	cpu.ProcessException(M68K_VEC_ILLEGAL)
}

func (cpu *M68KCPU) ExecLineA() {
	cpu.ProcessException(M68K_VEC_LINE_A)
}

func (cpu *M68KCPU) ExecLineF() {
	cpu.ProcessException(M68K_VEC_LINE_F)
}

func (cpu *M68KCPU) ExecTrap() {
	cpu.ProcessException(M68K_VEC_TRAP_BASE + uint32(cpu.currentIR&0xF))
}

func (cpu *M68KCPU) ExecTrapv() {
	if cpu.SR&M68K_SR_V != 0 {
		cpu.ProcessException(M68K_VEC_TRAPV)
	}
}

// ExecChk traps to vector 6 when the tested register is negative or above
// the bound. N records which side failed; in range, no flag changes.
func (cpu *M68KCPU) ExecChk() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	bound, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	value := int16(cpu.DataRegs[opReg9(op)])
	if value < 0 {
		cpu.setFlag(M68K_SR_N, true)
		cpu.ProcessException(M68K_VEC_CHK)
		return
	}
	if value > int16(bound) {
		cpu.setFlag(M68K_SR_N, false)
		cpu.ProcessException(M68K_VEC_CHK)
	}
}

func (cpu *M68KCPU) ExecLink() {
	op := cpu.currentIR
	reg := op & 0x7
	disp := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	cpu.AddrRegs[7] -= M68K_LONG_SIZE
	sp := cpu.AddrRegs[7]
	cpu.Write32(sp, cpu.AddrRegs[reg]) // LINK A7 saves the decremented value
	if cpu.faulted {
		return
	}
	cpu.AddrRegs[reg] = sp
	cpu.AddrRegs[7] = sp + m68kSignExtend(uint32(disp), M68K_WORD_SIZE)
}

func (cpu *M68KCPU) ExecUnlk() {
	reg := cpu.currentIR & 0x7
	cpu.AddrRegs[7] = cpu.AddrRegs[reg]
	value := cpu.Pop32()
	if cpu.faulted {
		return
	}
	cpu.AddrRegs[reg] = value
}

func (cpu *M68KCPU) ExecMoveToUsp() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	cpu.USP = cpu.AddrRegs[cpu.currentIR&0x7]
}

func (cpu *M68KCPU) ExecMoveFromUsp() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	cpu.AddrRegs[cpu.currentIR&0x7] = cpu.USP
}

type deviceResetter interface {
	ResetDevices()
}

// ExecReset pulses the external reset line. Devices reinitialise; the
// processor's own state is untouched.
func (cpu *M68KCPU) ExecReset() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	if dev, ok := cpu.bus.(deviceResetter); ok {
		dev.ResetDevices()
	}
}

func (cpu *M68KCPU) ExecNop() {
}

// ExecStop loads the status register and suspends the fetch loop until an
// interrupt arrives. The loaded word must keep the supervisor bit set.
func (cpu *M68KCPU) ExecStop() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	word := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	if word&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	cpu.setSR(word)
	cpu.stopped.Store(true)
}

func (cpu *M68KCPU) ExecRte() {
	if cpu.SR&M68K_SR_S == 0 {
		cpu.ProcessException(M68K_VEC_PRIVILEGE)
		return
	}
	sr := cpu.Pop16()
	if cpu.faulted {
		return
	}
	pc := cpu.Pop32()
	if cpu.faulted {
		return
	}
	cpu.setSR(sr)
	cpu.PC = pc
}

func (cpu *M68KCPU) ExecRts() {
	pc := cpu.Pop32()
	if cpu.faulted {
		return
	}
	cpu.PC = pc
}

// ExecRtr restores the condition codes and return address; the system byte
// of SR is untouched.
func (cpu *M68KCPU) ExecRtr() {
	ccr := cpu.Pop16()
	if cpu.faulted {
		return
	}
	pc := cpu.Pop32()
	if cpu.faulted {
		return
	}
	cpu.SetCCR(uint8(ccr))
	cpu.PC = pc
}

func (cpu *M68KCPU) ExecJsr() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_LONG_SIZE)
	if !ok {
		return
	}
	cpu.Push32(cpu.PC)
	if cpu.faulted {
		return
	}
	cpu.PC = ea.Addr
}

func (cpu *M68KCPU) ExecJmp() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_LONG_SIZE)
	if !ok {
		return
	}
	cpu.PC = ea.Addr
}

// ---- Quick arithmetic, Scc and DBcc ----

func (cpu *M68KCPU) ExecAddq() {
	op := cpu.currentIR
	size := opSize(op)
	data := uint32(opReg9(op))
	if data == 0 {
		data = 8
	}
	mode, reg := opEAMode(op), opEAReg(op)
	if mode == M68K_AM_AR_DIRECT {
		// Address destination: always the full register, no flags
		cpu.AddrRegs[reg] += data
		return
	}
	ea, ok := cpu.ResolveEA(mode, reg, size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst + data
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsAdd(data, dst, result, size)
}

func (cpu *M68KCPU) ExecSubq() {
	op := cpu.currentIR
	size := opSize(op)
	data := uint32(opReg9(op))
	if data == 0 {
		data = 8
	}
	mode, reg := opEAMode(op), opEAReg(op)
	if mode == M68K_AM_AR_DIRECT {
		cpu.AddrRegs[reg] -= data
		return
	}
	ea, ok := cpu.ResolveEA(mode, reg, size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst - data
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsSub(data, dst, result, size)
}

func (cpu *M68KCPU) ExecScc() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_BYTE_SIZE)
	if !ok {
		return
	}
	value := uint32(0x00)
	if cpu.CheckCondition((op >> 8) & 0xF) {
		value = 0xFF
	}
	cpu.WriteEA(&ea, value)
}

// ExecDbcc falls through when the condition holds; otherwise it decrements
// the counter's low word and branches until the counter expires at -1.
func (cpu *M68KCPU) ExecDbcc() {
	op := cpu.currentIR
	disp := cpu.Fetch16()
	if cpu.faulted {
		return
	}
	if cpu.CheckCondition((op >> 8) & 0xF) {
		return
	}
	reg := op & 0x7
	count := uint16(cpu.DataRegs[reg]) - 1
	cpu.setDataReg(reg, uint32(count), M68K_WORD_SIZE)
	if count != 0xFFFF {
		// Displacement is relative to its own word
		cpu.PC = cpu.PC - M68K_WORD_SIZE + m68kSignExtend(uint32(disp), M68K_WORD_SIZE)
	}
}

// ---- Branches ----
//
// An 8-bit displacement of zero selects the word form; the displacement is
// measured from the address following the opcode word in both forms.

func (cpu *M68KCPU) ExecBra() {
	op := cpu.currentIR
	base := cpu.PC
	disp := m68kSignExtend(uint32(op&0xFF), M68K_BYTE_SIZE)
	if op&0xFF == 0 {
		word := cpu.Fetch16()
		if cpu.faulted {
			return
		}
		disp = m68kSignExtend(uint32(word), M68K_WORD_SIZE)
	}
	cpu.PC = base + disp
}

func (cpu *M68KCPU) ExecBsr() {
	op := cpu.currentIR
	base := cpu.PC
	disp := m68kSignExtend(uint32(op&0xFF), M68K_BYTE_SIZE)
	if op&0xFF == 0 {
		word := cpu.Fetch16()
		if cpu.faulted {
			return
		}
		disp = m68kSignExtend(uint32(word), M68K_WORD_SIZE)
	}
	cpu.Push32(cpu.PC)
	if cpu.faulted {
		return
	}
	cpu.PC = base + disp
}

func (cpu *M68KCPU) ExecBcc() {
	op := cpu.currentIR
	base := cpu.PC
	disp8 := op & 0xFF
	if !cpu.CheckCondition((op >> 8) & 0xF) {
		if disp8 == 0 {
			cpu.PC += M68K_WORD_SIZE // skip the unused extension word
		}
		return
	}
	if disp8 == 0 {
		word := cpu.Fetch16()
		if cpu.faulted {
			return
		}
		cpu.PC = base + m68kSignExtend(uint32(word), M68K_WORD_SIZE)
		return
	}
	cpu.PC = base + m68kSignExtend(uint32(disp8), M68K_BYTE_SIZE)
}

// ---- Dyadic arithmetic and logic ----

func (cpu *M68KCPU) ExecOr() {
	op := cpu.currentIR
	size := opSize(op)
	reg9 := opReg9(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	if op&0x0100 == 0 {
		src, ok := cpu.ReadEA(&ea)
		if !ok {
			return
		}
		result := cpu.DataRegs[reg9] | src
		cpu.setDataReg(reg9, result, size)
		cpu.SetFlagsLogical(result, size)
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst | cpu.DataRegs[reg9]
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsLogical(result, size)
}

func (cpu *M68KCPU) ExecAnd() {
	op := cpu.currentIR
	size := opSize(op)
	reg9 := opReg9(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	if op&0x0100 == 0 {
		src, ok := cpu.ReadEA(&ea)
		if !ok {
			return
		}
		result := cpu.DataRegs[reg9] & src
		cpu.setDataReg(reg9, result, size)
		cpu.SetFlagsLogical(result, size)
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst & cpu.DataRegs[reg9]
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsLogical(result, size)
}

// ExecEor only exists in the register-to-memory direction; the other
// opmodes of its group belong to CMP.
func (cpu *M68KCPU) ExecEor() {
	op := cpu.currentIR
	size := opSize(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := dst ^ cpu.DataRegs[opReg9(op)]
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsLogical(result, size)
}

func (cpu *M68KCPU) ExecAdd() {
	op := cpu.currentIR
	size := opSize(op)
	reg9 := opReg9(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	if op&0x0100 == 0 {
		src, ok := cpu.ReadEA(&ea)
		if !ok {
			return
		}
		dst := cpu.DataRegs[reg9]
		result := dst + src
		cpu.setDataReg(reg9, result, size)
		cpu.SetFlagsAdd(src, dst, result, size)
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	src := cpu.DataRegs[reg9]
	result := dst + src
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsAdd(src, dst, result, size)
}

func (cpu *M68KCPU) ExecSub() {
	op := cpu.currentIR
	size := opSize(op)
	reg9 := opReg9(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	if op&0x0100 == 0 {
		src, ok := cpu.ReadEA(&ea)
		if !ok {
			return
		}
		dst := cpu.DataRegs[reg9]
		result := dst - src
		cpu.setDataReg(reg9, result, size)
		cpu.SetFlagsSub(src, dst, result, size)
		return
	}
	dst, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	src := cpu.DataRegs[reg9]
	result := dst - src
	if !cpu.WriteEA(&ea, result) {
		return
	}
	cpu.SetFlagsSub(src, dst, result, size)
}

func (cpu *M68KCPU) ExecCmp() {
	op := cpu.currentIR
	size := opSize(op)
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	src, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	dst := cpu.DataRegs[opReg9(op)]
	cpu.SetFlagsCmp(src, dst, dst-src, size)
}

// ExecCmpa sign-extends a word source and always compares all 32 bits of
// the address register.
func (cpu *M68KCPU) ExecCmpa() {
	op := cpu.currentIR
	size := uint32(M68K_WORD_SIZE)
	if (op>>6)&0x7 == 7 {
		size = M68K_LONG_SIZE
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	src, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	src = m68kSignExtend(src, size)
	dst := cpu.AddrRegs[opReg9(op)]
	cpu.SetFlagsCmp(src, dst, dst-src, M68K_LONG_SIZE)
}

func (cpu *M68KCPU) ExecCmpm() {
	op := cpu.currentIR
	size := opSize(op)
	ry := op & 0x7
	rx := opReg9(op)

	srcAddr := cpu.AddrRegs[ry]
	cpu.AddrRegs[ry] += eaStep(ry, size)
	src := cpu.readSized(srcAddr, size)
	if cpu.faulted {
		return
	}
	dstAddr := cpu.AddrRegs[rx]
	cpu.AddrRegs[rx] += eaStep(rx, size)
	dst := cpu.readSized(dstAddr, size)
	if cpu.faulted {
		return
	}
	cpu.SetFlagsCmp(src, dst, dst-src, size)
}

// ---- Address register arithmetic ----

func (cpu *M68KCPU) ExecAdda() {
	op := cpu.currentIR
	size := uint32(M68K_WORD_SIZE)
	if (op>>6)&0x7 == 7 {
		size = M68K_LONG_SIZE
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	src, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.AddrRegs[opReg9(op)] += m68kSignExtend(src, size)
}

func (cpu *M68KCPU) ExecSuba() {
	op := cpu.currentIR
	size := uint32(M68K_WORD_SIZE)
	if (op>>6)&0x7 == 7 {
		size = M68K_LONG_SIZE
	}
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), size)
	if !ok {
		return
	}
	src, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	cpu.AddrRegs[opReg9(op)] -= m68kSignExtend(src, size)
}

// ---- Extended arithmetic ----
//
// The register form works Dy op Dx -> Dx; the memory form works
// -(Ay) op -(Ax) -> (Ax), source decremented and read first.

func (cpu *M68KCPU) ExecAddx() {
	op := cpu.currentIR
	size := opSize(op)
	rx := opReg9(op)
	ry := op & 0x7
	x := cpu.extendBit()

	if op&0x0008 == 0 {
		src := cpu.DataRegs[ry]
		dst := cpu.DataRegs[rx]
		result := dst + src + x
		cpu.setDataReg(rx, result, size)
		cpu.SetFlagsAddX(src, dst, result, size)
		return
	}

	cpu.AddrRegs[ry] -= eaStep(ry, size)
	src := cpu.readSized(cpu.AddrRegs[ry], size)
	if cpu.faulted {
		return
	}
	cpu.AddrRegs[rx] -= eaStep(rx, size)
	dst := cpu.readSized(cpu.AddrRegs[rx], size)
	if cpu.faulted {
		return
	}
	result := dst + src + x
	cpu.writeSized(cpu.AddrRegs[rx], result, size)
	if cpu.faulted {
		return
	}
	cpu.SetFlagsAddX(src, dst, result, size)
}

func (cpu *M68KCPU) ExecSubx() {
	op := cpu.currentIR
	size := opSize(op)
	rx := opReg9(op)
	ry := op & 0x7
	x := cpu.extendBit()

	if op&0x0008 == 0 {
		src := cpu.DataRegs[ry]
		dst := cpu.DataRegs[rx]
		result := dst - src - x
		cpu.setDataReg(rx, result, size)
		cpu.SetFlagsSubX(src, dst, result, size)
		return
	}

	cpu.AddrRegs[ry] -= eaStep(ry, size)
	src := cpu.readSized(cpu.AddrRegs[ry], size)
	if cpu.faulted {
		return
	}
	cpu.AddrRegs[rx] -= eaStep(rx, size)
	dst := cpu.readSized(cpu.AddrRegs[rx], size)
	if cpu.faulted {
		return
	}
	result := dst - src - x
	cpu.writeSized(cpu.AddrRegs[rx], result, size)
	if cpu.faulted {
		return
	}
	cpu.SetFlagsSubX(src, dst, result, size)
}

// ---- Binary-coded decimal ----

// bcdAdd adds two packed BCD bytes plus the extend input with decimal
// adjust. C and X take the decimal carry, Z is sticky-clear, N follows
// bit 7 of the result and V is cleared.
func (cpu *M68KCPU) bcdAdd(src, dst, x uint32) uint32 {
	result := (src & 0x0F) + (dst & 0x0F) + x
	if result > 0x09 {
		result += 0x06
	}
	result += (src & 0xF0) + (dst & 0xF0)
	carry := result > 0x99
	if carry {
		result -= 0xA0
	}
	result &= 0xFF

	cpu.setFlag(M68K_SR_C, carry)
	cpu.setFlag(M68K_SR_X, carry)
	cpu.setFlag(M68K_SR_N, result&0x80 != 0)
	if result != 0 {
		cpu.SR &^= M68K_SR_Z
	}
	cpu.SR &^= M68K_SR_V
	return result
}

// bcdSub computes dst - src - x in packed BCD; flag treatment as bcdAdd
// with C and X taking the decimal borrow.
func (cpu *M68KCPU) bcdSub(src, dst, x uint32) uint32 {
	result := (dst & 0x0F) - (src & 0x0F) - x
	if result > 0x09 {
		result -= 0x06
	}
	result += (dst & 0xF0) - (src & 0xF0)
	borrow := result > 0x99
	if borrow {
		result += 0xA0
	}
	result &= 0xFF

	cpu.setFlag(M68K_SR_C, borrow)
	cpu.setFlag(M68K_SR_X, borrow)
	cpu.setFlag(M68K_SR_N, result&0x80 != 0)
	if result != 0 {
		cpu.SR &^= M68K_SR_Z
	}
	cpu.SR &^= M68K_SR_V
	return result
}

func (cpu *M68KCPU) ExecAbcd() {
	op := cpu.currentIR
	rx := opReg9(op)
	ry := op & 0x7
	x := cpu.extendBit()

	if op&0x0008 == 0 {
		result := cpu.bcdAdd(cpu.DataRegs[ry]&0xFF, cpu.DataRegs[rx]&0xFF, x)
		cpu.setDataReg(rx, result, M68K_BYTE_SIZE)
		return
	}

	cpu.AddrRegs[ry] -= eaStep(ry, M68K_BYTE_SIZE)
	src := uint32(cpu.Read8(cpu.AddrRegs[ry]))
	if cpu.faulted {
		return
	}
	cpu.AddrRegs[rx] -= eaStep(rx, M68K_BYTE_SIZE)
	dst := uint32(cpu.Read8(cpu.AddrRegs[rx]))
	if cpu.faulted {
		return
	}
	result := cpu.bcdAdd(src, dst, x)
	cpu.Write8(cpu.AddrRegs[rx], uint8(result))
}

func (cpu *M68KCPU) ExecSbcd() {
	op := cpu.currentIR
	rx := opReg9(op)
	ry := op & 0x7
	x := cpu.extendBit()

	if op&0x0008 == 0 {
		result := cpu.bcdSub(cpu.DataRegs[ry]&0xFF, cpu.DataRegs[rx]&0xFF, x)
		cpu.setDataReg(rx, result, M68K_BYTE_SIZE)
		return
	}

	cpu.AddrRegs[ry] -= eaStep(ry, M68K_BYTE_SIZE)
	src := uint32(cpu.Read8(cpu.AddrRegs[ry]))
	if cpu.faulted {
		return
	}
	cpu.AddrRegs[rx] -= eaStep(rx, M68K_BYTE_SIZE)
	dst := uint32(cpu.Read8(cpu.AddrRegs[rx]))
	if cpu.faulted {
		return
	}
	result := cpu.bcdSub(src, dst, x)
	cpu.Write8(cpu.AddrRegs[rx], uint8(result))
}

func (cpu *M68KCPU) ExecNbcd() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_BYTE_SIZE)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := cpu.bcdSub(value, 0, cpu.extendBit())
	cpu.WriteEA(&ea, result)
}

// ---- Register exchange ----

func (cpu *M68KCPU) ExecExg() {
	op := cpu.currentIR
	rx := opReg9(op)
	ry := op & 0x7
	switch (op >> 3) & 0x1F {
	case 0x08:
		cpu.DataRegs[rx], cpu.DataRegs[ry] = cpu.DataRegs[ry], cpu.DataRegs[rx]
	case 0x09:
		cpu.AddrRegs[rx], cpu.AddrRegs[ry] = cpu.AddrRegs[ry], cpu.AddrRegs[rx]
	default: // data with address
		cpu.DataRegs[rx], cpu.AddrRegs[ry] = cpu.AddrRegs[ry], cpu.DataRegs[rx]
	}
}

// ---- Multiply and divide ----

func (cpu *M68KCPU) ExecMulu() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	src, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	reg9 := opReg9(op)
	result := (cpu.DataRegs[reg9] & 0xFFFF) * src
	cpu.DataRegs[reg9] = result
	cpu.SetFlagsLogical(result, M68K_LONG_SIZE)
}

func (cpu *M68KCPU) ExecMuls() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	src, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	reg9 := opReg9(op)
	result := uint32(int32(int16(uint16(cpu.DataRegs[reg9]))) * int32(int16(uint16(src))))
	cpu.DataRegs[reg9] = result
	cpu.SetFlagsLogical(result, M68K_LONG_SIZE)
}

// ExecDivu divides the 32-bit register by a 16-bit operand. Division by
// zero traps with the register unmodified; a quotient above 16 bits sets V
// and leaves the register unmodified; otherwise the quotient occupies the
// low word and the remainder the high word.
func (cpu *M68KCPU) ExecDivu() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	divisor, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	if divisor == 0 {
		cpu.ProcessException(M68K_VEC_ZERO_DIVIDE)
		return
	}
	reg9 := opReg9(op)
	dividend := cpu.DataRegs[reg9]
	quotient := dividend / divisor
	if quotient > 0xFFFF {
		cpu.setFlag(M68K_SR_V, true)
		cpu.setFlag(M68K_SR_C, false)
		return
	}
	remainder := dividend % divisor
	cpu.DataRegs[reg9] = remainder<<16 | quotient
	cpu.SetFlagsLogical(quotient, M68K_WORD_SIZE)
}

func (cpu *M68KCPU) ExecDivs() {
	op := cpu.currentIR
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	src, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	divisor := int32(int16(uint16(src)))
	if divisor == 0 {
		cpu.ProcessException(M68K_VEC_ZERO_DIVIDE)
		return
	}
	reg9 := opReg9(op)
	dividend := int32(cpu.DataRegs[reg9])
	if dividend == -2147483648 && divisor == -1 {
		// Quotient 2^31 cannot fit; also sidesteps the host's own
		// overflow trap on this one division
		cpu.setFlag(M68K_SR_V, true)
		cpu.setFlag(M68K_SR_C, false)
		return
	}
	quotient := dividend / divisor
	if quotient > 32767 || quotient < -32768 {
		cpu.setFlag(M68K_SR_V, true)
		cpu.setFlag(M68K_SR_C, false)
		return
	}
	remainder := dividend % divisor
	cpu.DataRegs[reg9] = (uint32(remainder)&0xFFFF)<<16 | uint32(quotient)&0xFFFF
	cpu.SetFlagsLogical(uint32(quotient), M68K_WORD_SIZE)
}

// ---- Shifts and rotates ----

// shiftOp performs one shift or rotate and sets the condition codes. C (and
// X, except for the plain rotates) takes the last bit shifted out; a zero
// count clears C, leaves X alone and reports N/Z on the unchanged operand.
// V is cleared everywhere except a left arithmetic shift that at any point
// moves a bit unlike the final sign out of the operand.
func (cpu *M68KCPU) shiftOp(kind uint16, left bool, value, count uint32, size uint32) uint32 {
	mask := m68kSizeMask(size)
	signBit := m68kSignBit(size)
	width := size * 8

	if count == 0 {
		cpu.setFlag(M68K_SR_N, value&signBit != 0)
		cpu.setFlag(M68K_SR_Z, value == 0)
		cpu.SR &^= M68K_SR_V | M68K_SR_C
		return value
	}

	var result uint32
	carry := false
	overflow := false
	updateX := true

	switch kind {
	case 0: // arithmetic
		if left {
			switch {
			case count > width:
				result = 0
				overflow = value != 0
			case count == width:
				result = 0
				carry = value&1 != 0
				overflow = value != 0
			default:
				result = value << count & mask
				carry = value>>(width-count)&1 != 0
				top := value >> (width - count - 1)
				overflow = top != 0 && top != uint32(1)<<(count+1)-1
			}
		} else {
			if count >= width {
				if value&signBit != 0 {
					result = mask
					carry = true
				} else {
					result = 0
				}
			} else {
				result = uint32(int32(m68kSignExtend(value, size))>>count) & mask
				carry = value>>(count-1)&1 != 0
			}
		}

	case 1: // logical
		if left {
			switch {
			case count > width:
				result = 0
			case count == width:
				result = 0
				carry = value&1 != 0
			default:
				result = value << count & mask
				carry = value>>(width-count)&1 != 0
			}
		} else {
			switch {
			case count > width:
				result = 0
			case count == width:
				result = 0
				carry = value&signBit != 0
			default:
				result = value >> count
				carry = value>>(count-1)&1 != 0
			}
		}

	case 2: // rotate through extend
		x := cpu.SR&M68K_SR_X != 0
		v := value
		for i := uint32(0); i < count; i++ {
			if left {
				out := v&signBit != 0
				v = v << 1 & mask
				if x {
					v |= 1
				}
				x = out
			} else {
				out := v&1 != 0
				v >>= 1
				if x {
					v |= signBit
				}
				x = out
			}
		}
		result = v
		carry = x

	default: // rotate
		updateX = false
		e := count % width
		if left {
			result = (value<<e | value>>(width-e)) & mask
			carry = result&1 != 0
		} else {
			result = (value>>e | value<<(width-e)) & mask
			carry = result&signBit != 0
		}
	}

	cpu.setFlag(M68K_SR_N, result&signBit != 0)
	cpu.setFlag(M68K_SR_Z, result == 0)
	cpu.setFlag(M68K_SR_V, overflow)
	cpu.setFlag(M68K_SR_C, carry)
	if updateX {
		cpu.setFlag(M68K_SR_X, carry)
	}
	return result
}

// ExecShiftReg covers all eight register-form shift and rotate variants.
// An immediate count of zero encodes eight; a register count is taken
// modulo 64, so a whole operand can be shifted out entirely.
func (cpu *M68KCPU) ExecShiftReg() {
	op := cpu.currentIR
	size := opSize(op)
	reg := op & 0x7
	left := op&0x0100 != 0
	kind := (op >> 3) & 0x3

	count := uint32(opReg9(op))
	if op&0x0020 != 0 {
		count = cpu.DataRegs[count] & 63
	} else if count == 0 {
		count = 8
	}

	value := cpu.DataRegs[reg] & m68kSizeMask(size)
	result := cpu.shiftOp(kind, left, value, count, size)
	cpu.setDataReg(reg, result, size)
	cpu.cycleCounter += 2 * count
}

// ExecShiftMem is the word-sized shift-by-one memory form.
func (cpu *M68KCPU) ExecShiftMem() {
	op := cpu.currentIR
	kind := (op >> 9) & 0x3
	left := op&0x0100 != 0
	ea, ok := cpu.ResolveEA(opEAMode(op), opEAReg(op), M68K_WORD_SIZE)
	if !ok {
		return
	}
	value, ok := cpu.ReadEA(&ea)
	if !ok {
		return
	}
	result := cpu.shiftOp(kind, left, value, 1, M68K_WORD_SIZE)
	cpu.WriteEA(&ea, result)
}
