// cpu_m68k_ea.go - Effective address resolution for the 68000 core

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
cpu_m68k_ea.go - Effective Address Resolution

Every 68000 operand is described by a 3-bit mode and a 3-bit register field.
This module turns that pair into an M68KEA descriptor: a small tagged value
that names a data register, an address register, a resolved memory address
or an immediate, together with the operand size.

The central contract is once-only side-effect commitment. Resolving (An)+ or
-(An) adjusts the address register immediately and exactly once; the
descriptor then carries the final address. Instructions that read, modify
and write the same operand (ADD to memory, BSET, shifts on memory) resolve
once and reuse the descriptor for both the read and the deferred write-back,
so the register steps exactly one element regardless of how many accesses
the instruction makes.

Resolution quirks implemented here:

    Byte steps on A7 adjust by two, keeping the stack pointer word aligned.
    The byte lives at the even (lower) address of the word slot.
    PC-relative displacements are taken from the address of the extension
    word itself, not from the opcode address and not from the instruction
    end.
    Index extension words use the 68000 brief format only: index register,
    word/long selector, 8-bit displacement. Scale bits are ignored, as on
    the original silicon.

Extension word fetches go through the normal instruction stream path, so a
fault mid-resolution raises the appropriate exception and resolution reports
failure; the caller abandons the instruction at that point.
*/

package main

// M68KEAKind discriminates the operand location classes.
type M68KEAKind uint8

const (
	M68K_EA_DATA_REG M68KEAKind = iota
	M68K_EA_ADDR_REG
	M68K_EA_MEMORY
	M68K_EA_IMMEDIATE
)

// M68KEA is a resolved operand location. All addressing side effects have
// already been committed by the time one of these exists.
type M68KEA struct {
	Kind M68KEAKind
	Reg  uint16 // Register number for the register kinds
	Addr uint32 // Resolved address for the memory kind
	Imm  uint32 // Value for the immediate kind
	Size uint32 // Operand size in bytes (1, 2 or 4)
}

// ---- Addressing mode classes ----
//
// Canonical mode codes 0-11 collapse the mode/register pair into one
// number so a class is a 12-bit mask. The decode table uses these to
// refuse illegal operand combinations at registration time, which keeps
// the execution handlers free of mode checking.
//
//   0 Dn    1 An     2 (An)    3 (An)+    4 -(An)    5 d16(An)
//   6 d8(An,Xn)    7 (xxx).W    8 (xxx).L    9 d16(PC)
//  10 d8(PC,Xn)   11 #imm

func eaCode(mode, reg uint16) uint16 {
	if mode < M68K_AM_EXT {
		return mode
	}
	return M68K_AM_EXT + reg
}

const (
	eaMaskAll              = 0x0FFF
	eaMaskData             = 0x0FFD // All except An
	eaMaskMemory           = 0x0FFC // All except Dn, An
	eaMaskControl          = 0x07E4 // (An), d16(An), d8(An,Xn), abs, PC-relative
	eaMaskAlterable        = 0x01FF // All except PC-relative and immediate
	eaMaskDataAlterable    = 0x01FD
	eaMaskMemAlterable     = 0x01FC
	eaMaskControlAlterable = 0x01E4
)

// eaAllowed reports whether the mode/register pair is a member of the class.
func eaAllowed(class uint16, mode, reg uint16) bool {
	code := eaCode(mode, reg)
	if code > 11 {
		return false
	}
	return class&(1<<code) != 0
}

// eaCycles is the standard access-time overhead of calculating an
// effective address, before the operand transfer itself.
func eaCycles(mode, reg uint16, size uint32) uint32 {
	long := uint32(0)
	if size == M68K_LONG_SIZE {
		long = 4
	}
	switch mode {
	case M68K_AM_DR_DIRECT, M68K_AM_AR_DIRECT:
		return 0
	case M68K_AM_AR_IND, M68K_AM_AR_POST:
		return 4 + long
	case M68K_AM_AR_PRE:
		return 6 + long
	case M68K_AM_AR_DISP:
		return 8 + long
	case M68K_AM_AR_INDEX:
		return 10 + long
	default:
		switch reg {
		case M68K_EXT_ABS_W:
			return 8 + long
		case M68K_EXT_ABS_L:
			return 12 + long
		case M68K_EXT_PC_DISP:
			return 8 + long
		case M68K_EXT_PC_INDEX:
			return 10 + long
		default: // immediate
			return 4 + long
		}
	}
}

// indexOffset decodes a brief-format extension word and returns the index
// contribution: the sign-extended 8-bit displacement plus the selected
// register, sign-extended from a word when bit 11 is clear. The scale bits
// do not exist on this processor generation and are not decoded.
func (cpu *M68KCPU) indexOffset(ext uint16) uint32 {
	var index uint32
	regNum := (ext >> 12) & 0x7
	if ext&0x8000 != 0 {
		index = cpu.AddrRegs[regNum]
	} else {
		index = cpu.DataRegs[regNum]
	}
	if ext&0x0800 == 0 {
		index = m68kSignExtend(index, M68K_WORD_SIZE)
	}
	return uint32(int32(int8(ext))) + index
}

// ResolveEA materialises an operand descriptor, committing any addressing
// side effects. A false return means an extension word fetch faulted; the
// exception has already been dispatched and the caller must abandon the
// instruction.
func (cpu *M68KCPU) ResolveEA(mode, reg uint16, size uint32) (M68KEA, bool) {
	ea := M68KEA{Size: size}
	cpu.cycleCounter += eaCycles(mode, reg, size)

	switch mode {
	case M68K_AM_DR_DIRECT:
		ea.Kind = M68K_EA_DATA_REG
		ea.Reg = reg
		return ea, true

	case M68K_AM_AR_DIRECT:
		ea.Kind = M68K_EA_ADDR_REG
		ea.Reg = reg
		return ea, true

	case M68K_AM_AR_IND:
		ea.Kind = M68K_EA_MEMORY
		ea.Addr = cpu.AddrRegs[reg]
		return ea, true

	case M68K_AM_AR_POST:
		ea.Kind = M68K_EA_MEMORY
		ea.Addr = cpu.AddrRegs[reg]
		cpu.AddrRegs[reg] += eaStep(reg, size)
		return ea, true

	case M68K_AM_AR_PRE:
		ea.Kind = M68K_EA_MEMORY
		cpu.AddrRegs[reg] -= eaStep(reg, size)
		ea.Addr = cpu.AddrRegs[reg]
		return ea, true

	case M68K_AM_AR_DISP:
		base := cpu.AddrRegs[reg]
		disp := cpu.Fetch16()
		if cpu.faulted {
			return ea, false
		}
		ea.Kind = M68K_EA_MEMORY
		ea.Addr = base + m68kSignExtend(uint32(disp), M68K_WORD_SIZE)
		return ea, true

	case M68K_AM_AR_INDEX:
		base := cpu.AddrRegs[reg]
		ext := cpu.Fetch16()
		if cpu.faulted {
			return ea, false
		}
		ea.Kind = M68K_EA_MEMORY
		ea.Addr = base + cpu.indexOffset(ext)
		return ea, true

	default: // M68K_AM_EXT
		switch reg {
		case M68K_EXT_ABS_W:
			word := cpu.Fetch16()
			if cpu.faulted {
				return ea, false
			}
			ea.Kind = M68K_EA_MEMORY
			ea.Addr = m68kSignExtend(uint32(word), M68K_WORD_SIZE)
			return ea, true

		case M68K_EXT_ABS_L:
			long := cpu.Fetch32()
			if cpu.faulted {
				return ea, false
			}
			ea.Kind = M68K_EA_MEMORY
			ea.Addr = long
			return ea, true

		case M68K_EXT_PC_DISP:
			// The base is the address of the extension word itself
			base := cpu.PC
			disp := cpu.Fetch16()
			if cpu.faulted {
				return ea, false
			}
			ea.Kind = M68K_EA_MEMORY
			ea.Addr = base + m68kSignExtend(uint32(disp), M68K_WORD_SIZE)
			return ea, true

		case M68K_EXT_PC_INDEX:
			base := cpu.PC
			ext := cpu.Fetch16()
			if cpu.faulted {
				return ea, false
			}
			ea.Kind = M68K_EA_MEMORY
			ea.Addr = base + cpu.indexOffset(ext)
			return ea, true

		default: // M68K_EXT_IMM
			ea.Kind = M68K_EA_IMMEDIATE
			switch size {
			case M68K_BYTE_SIZE:
				word := cpu.Fetch16()
				if cpu.faulted {
					return ea, false
				}
				ea.Imm = uint32(word) & 0xFF
			case M68K_WORD_SIZE:
				word := cpu.Fetch16()
				if cpu.faulted {
					return ea, false
				}
				ea.Imm = uint32(word)
			default:
				long := cpu.Fetch32()
				if cpu.faulted {
					return ea, false
				}
				ea.Imm = long
			}
			return ea, true
		}
	}
}

// eaStep is the post-increment/pre-decrement distance: the operand size,
// except that byte operations on A7 step by two to keep the stack pointer
// word aligned.
func eaStep(reg uint16, size uint32) uint32 {
	if size == M68K_BYTE_SIZE && reg == 7 {
		return M68K_WORD_SIZE
	}
	return size
}

// ReadEA fetches the operand value through a resolved descriptor. The
// value is zero-extended to 32 bits. A false return means the access
// faulted and the exception has been dispatched.
func (cpu *M68KCPU) ReadEA(ea *M68KEA) (uint32, bool) {
	switch ea.Kind {
	case M68K_EA_DATA_REG:
		return cpu.DataRegs[ea.Reg] & m68kSizeMask(ea.Size), true

	case M68K_EA_ADDR_REG:
		return cpu.AddrRegs[ea.Reg] & m68kSizeMask(ea.Size), true

	case M68K_EA_IMMEDIATE:
		return ea.Imm & m68kSizeMask(ea.Size), true

	default:
		var value uint32
		switch ea.Size {
		case M68K_BYTE_SIZE:
			value = uint32(cpu.Read8(ea.Addr))
		case M68K_WORD_SIZE:
			value = uint32(cpu.Read16(ea.Addr))
		default:
			value = cpu.Read32(ea.Addr)
		}
		if cpu.faulted {
			return 0, false
		}
		cpu.cycleCounter += M68K_CYCLE_MEM_READ
		return value, true
	}
}

// WriteEA stores a value through a resolved descriptor. For data registers
// only the low operand-size bits change; word writes to an address register
// sign-extend and replace the whole register. A false return means the
// access faulted.
func (cpu *M68KCPU) WriteEA(ea *M68KEA, value uint32) bool {
	switch ea.Kind {
	case M68K_EA_DATA_REG:
		mask := m68kSizeMask(ea.Size)
		cpu.DataRegs[ea.Reg] = (cpu.DataRegs[ea.Reg] &^ mask) | (value & mask)
		return true

	case M68K_EA_ADDR_REG:
		// Address registers are always written in full
		cpu.AddrRegs[ea.Reg] = m68kSignExtend(value, ea.Size)
		return true

	case M68K_EA_IMMEDIATE:
		// Unreachable: the decode table never admits an immediate destination
		return false

	default:
		switch ea.Size {
		case M68K_BYTE_SIZE:
			cpu.Write8(ea.Addr, uint8(value))
		case M68K_WORD_SIZE:
			cpu.Write16(ea.Addr, uint16(value))
		default:
			cpu.Write32(ea.Addr, value)
		}
		if cpu.faulted {
			return false
		}
		cpu.cycleCounter += M68K_CYCLE_MEM_WRITE
		return true
	}
}
