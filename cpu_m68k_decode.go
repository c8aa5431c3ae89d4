// cpu_m68k_decode.go - Opcode decode table for the 68000 core

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
cpu_m68k_decode.go - Opcode Decode Table

Decoding is a pure function of the 16-bit instruction word. A 65536-entry
table is built once at start-up from pattern registrations; execution is a
single indexed load with no bus traffic and no conditional cascade.

Each registration supplies a match/mask pattern, a base cycle count, the
execution handler and optionally a validator that refuses individual words
inside the pattern - typically operand combinations the silicon does not
admit, expressed through the addressing mode classes in cpu_m68k_ea.go.

Registrations run from most to least specific and the first claim on a slot
wins, so exact encodings such as NOP shadow the broad family patterns that
would otherwise swallow them. Slots left unclaimed stay nil and execute as
illegal instruction (vector 4); no separate legality pass is needed, the
table's holes are the illegal set. Line A and line F are claimed last as
whole-group patterns so unimplemented-instruction traps (vectors 10 and 11)
take priority over a plain illegal trap for those words.
*/

package main

// M68KOpcodeInfo describes one decoded instruction pattern. Exec extracts
// the register, size and addressing fields from the latched instruction
// word itself; extension words are consumed during execution.
type M68KOpcodeInfo struct {
	Name   string
	Cycles uint32
	Exec   func(*M68KCPU)
}

// m68kOpcodeTable maps every possible instruction word to its handler.
// nil entries are illegal instructions.
var m68kOpcodeTable [0x10000]*M68KOpcodeInfo

// LookupOpcode exposes the decode table to the disassembler and monitor.
func LookupOpcode(opcode uint16) *M68KOpcodeInfo {
	return m68kOpcodeTable[opcode]
}

// registerM68KOpcodeIf claims every unclaimed slot matching the pattern
// and accepted by the validator.
func registerM68KOpcodeIf(name string, match, mask uint16, cycles uint32, exec func(*M68KCPU), valid func(uint16) bool) {
	info := &M68KOpcodeInfo{Name: name, Cycles: cycles, Exec: exec}
	for op := 0; op <= 0xFFFF; op++ {
		word := uint16(op)
		if word&mask != match {
			continue
		}
		if m68kOpcodeTable[op] != nil {
			continue
		}
		if valid != nil && !valid(word) {
			continue
		}
		m68kOpcodeTable[op] = info
	}
}

// registerM68KOpcode is the unconditional form.
func registerM68KOpcode(name string, match, mask uint16, cycles uint32, exec func(*M68KCPU)) {
	registerM68KOpcodeIf(name, match, mask, cycles, exec, nil)
}

// ---- Field accessors shared by validators and handlers ----

func opEAMode(op uint16) uint16 { return (op >> 3) & 0x7 }
func opEAReg(op uint16) uint16  { return op & 0x7 }
func opSizeBits(op uint16) uint16 {
	return (op >> 6) & 0x3
}

// opSize maps the common two-bit size field to a byte count; the pattern
// registrations exclude size 0b11 where the field means something else.
func opSize(op uint16) uint32 {
	switch opSizeBits(op) {
	case 0:
		return M68K_BYTE_SIZE
	case 1:
		return M68K_WORD_SIZE
	default:
		return M68K_LONG_SIZE
	}
}

// validEA builds a validator that checks the standard EA field (bits 5-0)
// against an addressing mode class.
func validEA(class uint16) func(uint16) bool {
	return func(op uint16) bool {
		return eaAllowed(class, opEAMode(op), opEAReg(op))
	}
}

// validSizedEA additionally refuses the 0b11 size encoding.
func validSizedEA(class uint16) func(uint16) bool {
	return func(op uint16) bool {
		return opSizeBits(op) != 3 && eaAllowed(class, opEAMode(op), opEAReg(op))
	}
}

// validMove checks a full MOVE word: a legal source, a data-alterable
// destination, and no byte-sized reads of an address register. MOVEA
// (address register destination) is claimed by its own registration.
func validMove(op uint16) bool {
	srcMode, srcReg := opEAMode(op), opEAReg(op)
	dstMode, dstReg := (op>>6)&0x7, (op>>9)&0x7

	if !eaAllowed(eaMaskAll, srcMode, srcReg) {
		return false
	}
	if op>>12 == 0x1 && srcMode == M68K_AM_AR_DIRECT {
		return false // no byte access to An
	}
	if dstMode == M68K_AM_AR_DIRECT {
		return false
	}
	return eaAllowed(eaMaskDataAlterable, dstMode, dstReg)
}

func validMovea(op uint16) bool {
	if (op>>6)&0x7 != M68K_AM_AR_DIRECT {
		return false
	}
	return eaAllowed(eaMaskAll, opEAMode(op), opEAReg(op))
}

// validDyadic handles the shared ADD/SUB/AND/OR/CMP/EOR opmode layout:
// opmodes 0-2 operate <ea> op Dn -> Dn, opmodes 4-6 operate Dn op <ea> -> <ea>.
// srcClass constrains the first form, dstClass the second. byteAnOK permits
// an address register source for word and long (ADD/SUB/CMP but not AND/OR).
func validDyadic(srcClass, dstClass uint16, anSource bool) func(uint16) bool {
	return func(op uint16) bool {
		opmode := (op >> 6) & 0x7
		mode, reg := opEAMode(op), opEAReg(op)
		switch opmode {
		case 0, 1, 2:
			if mode == M68K_AM_AR_DIRECT {
				return anSource && opmode != 0 // no byte access to An
			}
			return eaAllowed(srcClass, mode, reg)
		case 4, 5, 6:
			return eaAllowed(dstClass, mode, reg)
		default:
			return false
		}
	}
}

// validAdda covers the address-destination opmodes 3 (word) and 7 (long).
func validAdda(op uint16) bool {
	opmode := (op >> 6) & 0x7
	if opmode != 3 && opmode != 7 {
		return false
	}
	return eaAllowed(eaMaskAll, opEAMode(op), opEAReg(op))
}

func init() {
	// ---- Exact encodings ----
	registerM68KOpcode("ORI to CCR", 0x003C, 0xFFFF, 20, (*M68KCPU).ExecOriCcr)
	registerM68KOpcode("ORI to SR", 0x007C, 0xFFFF, 20, (*M68KCPU).ExecOriSr)
	registerM68KOpcode("ANDI to CCR", 0x023C, 0xFFFF, 20, (*M68KCPU).ExecAndiCcr)
	registerM68KOpcode("ANDI to SR", 0x027C, 0xFFFF, 20, (*M68KCPU).ExecAndiSr)
	registerM68KOpcode("EORI to CCR", 0x0A3C, 0xFFFF, 20, (*M68KCPU).ExecEoriCcr)
	registerM68KOpcode("EORI to SR", 0x0A7C, 0xFFFF, 20, (*M68KCPU).ExecEoriSr)
	registerM68KOpcode("ILLEGAL", 0x4AFC, 0xFFFF, 34, (*M68KCPU).ExecIllegalInsn)
	registerM68KOpcode("RESET", 0x4E70, 0xFFFF, 132, (*M68KCPU).ExecReset)
	registerM68KOpcode("NOP", 0x4E71, 0xFFFF, 4, (*M68KCPU).ExecNop)
	registerM68KOpcode("STOP", 0x4E72, 0xFFFF, 4, (*M68KCPU).ExecStop)
	registerM68KOpcode("RTE", 0x4E73, 0xFFFF, 20, (*M68KCPU).ExecRte)
	registerM68KOpcode("RTS", 0x4E75, 0xFFFF, 16, (*M68KCPU).ExecRts)
	registerM68KOpcode("TRAPV", 0x4E76, 0xFFFF, 4, (*M68KCPU).ExecTrapv)
	registerM68KOpcode("RTR", 0x4E77, 0xFFFF, 20, (*M68KCPU).ExecRtr)

	// ---- Narrow fixed patterns ----
	registerM68KOpcode("TRAP", 0x4E40, 0xFFF0, 34, (*M68KCPU).ExecTrap)
	registerM68KOpcode("LINK", 0x4E50, 0xFFF8, 16, (*M68KCPU).ExecLink)
	registerM68KOpcode("UNLK", 0x4E58, 0xFFF8, 12, (*M68KCPU).ExecUnlk)
	registerM68KOpcode("MOVE to USP", 0x4E60, 0xFFF8, 4, (*M68KCPU).ExecMoveToUsp)
	registerM68KOpcode("MOVE from USP", 0x4E68, 0xFFF8, 4, (*M68KCPU).ExecMoveFromUsp)
	registerM68KOpcode("SWAP", 0x4840, 0xFFF8, 4, (*M68KCPU).ExecSwap)
	registerM68KOpcode("EXT.W", 0x4880, 0xFFF8, 4, (*M68KCPU).ExecExtW)
	registerM68KOpcode("EXT.L", 0x48C0, 0xFFF8, 4, (*M68KCPU).ExecExtL)
	registerM68KOpcode("EXG", 0xC140, 0xF1F8, 6, (*M68KCPU).ExecExg)
	registerM68KOpcode("EXG", 0xC148, 0xF1F8, 6, (*M68KCPU).ExecExg)
	registerM68KOpcode("EXG", 0xC188, 0xF1F8, 6, (*M68KCPU).ExecExg)
	registerM68KOpcode("MOVEP", 0x0108, 0xF138, 16, (*M68KCPU).ExecMovep)
	registerM68KOpcode("ABCD", 0xC100, 0xF1F0, 6, (*M68KCPU).ExecAbcd)
	registerM68KOpcode("SBCD", 0x8100, 0xF1F0, 6, (*M68KCPU).ExecSbcd)
	registerM68KOpcodeIf("ADDX", 0xD100, 0xF130, 4, (*M68KCPU).ExecAddx,
		func(op uint16) bool { return opSizeBits(op) != 3 })
	registerM68KOpcodeIf("SUBX", 0x9100, 0xF130, 4, (*M68KCPU).ExecSubx,
		func(op uint16) bool { return opSizeBits(op) != 3 })
	registerM68KOpcodeIf("CMPM", 0xB108, 0xF138, 12, (*M68KCPU).ExecCmpm,
		func(op uint16) bool { return opSizeBits(op) != 3 })

	// ---- Bit operations ----
	// Dynamic forms (bit number in a data register). MOVEP has already
	// claimed the address-register-mode slots of this pattern.
	registerM68KOpcodeIf("BTST", 0x0100, 0xF1C0, 4, (*M68KCPU).ExecBtstDyn, validEA(eaMaskData))
	registerM68KOpcodeIf("BCHG", 0x0140, 0xF1C0, 8, (*M68KCPU).ExecBchgDyn, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("BCLR", 0x0180, 0xF1C0, 10, (*M68KCPU).ExecBclrDyn, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("BSET", 0x01C0, 0xF1C0, 8, (*M68KCPU).ExecBsetDyn, validEA(eaMaskDataAlterable))
	// Static forms (bit number in an extension word)
	registerM68KOpcodeIf("BTST", 0x0800, 0xFFC0, 8, (*M68KCPU).ExecBtstImm, validEA(eaMaskData&^(1<<11)))
	registerM68KOpcodeIf("BCHG", 0x0840, 0xFFC0, 12, (*M68KCPU).ExecBchgImm, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("BCLR", 0x0880, 0xFFC0, 14, (*M68KCPU).ExecBclrImm, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("BSET", 0x08C0, 0xFFC0, 12, (*M68KCPU).ExecBsetImm, validEA(eaMaskDataAlterable))

	// ---- Immediate arithmetic and logic ----
	registerM68KOpcodeIf("ORI", 0x0000, 0xFF00, 8, (*M68KCPU).ExecOri, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("ANDI", 0x0200, 0xFF00, 8, (*M68KCPU).ExecAndi, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("SUBI", 0x0400, 0xFF00, 8, (*M68KCPU).ExecSubi, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("ADDI", 0x0600, 0xFF00, 8, (*M68KCPU).ExecAddi, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("EORI", 0x0A00, 0xFF00, 8, (*M68KCPU).ExecEori, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("CMPI", 0x0C00, 0xFF00, 8, (*M68KCPU).ExecCmpi, validSizedEA(eaMaskDataAlterable))

	// ---- MOVE family (groups 1-3) ----
	registerM68KOpcodeIf("MOVEA", 0x2040, 0xF1C0, 4, (*M68KCPU).ExecMovea, validMovea)
	registerM68KOpcodeIf("MOVEA", 0x3040, 0xF1C0, 4, (*M68KCPU).ExecMovea, validMovea)
	registerM68KOpcodeIf("MOVE", 0x1000, 0xF000, 4, (*M68KCPU).ExecMove, validMove)
	registerM68KOpcodeIf("MOVE", 0x2000, 0xF000, 4, (*M68KCPU).ExecMove, validMove)
	registerM68KOpcodeIf("MOVE", 0x3000, 0xF000, 4, (*M68KCPU).ExecMove, validMove)

	// ---- Group 4 miscellaneous ----
	registerM68KOpcodeIf("MOVE from SR", 0x40C0, 0xFFC0, 6, (*M68KCPU).ExecMoveFromSr, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("MOVE from CCR", 0x42C0, 0xFFC0, 6, (*M68KCPU).ExecMoveFromCcr, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("MOVE to CCR", 0x44C0, 0xFFC0, 12, (*M68KCPU).ExecMoveToCcr, validEA(eaMaskData))
	registerM68KOpcodeIf("MOVE to SR", 0x46C0, 0xFFC0, 12, (*M68KCPU).ExecMoveToSr, validEA(eaMaskData))
	registerM68KOpcodeIf("NEGX", 0x4000, 0xFF00, 4, (*M68KCPU).ExecNegx, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("CLR", 0x4200, 0xFF00, 4, (*M68KCPU).ExecClr, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("NEG", 0x4400, 0xFF00, 4, (*M68KCPU).ExecNeg, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("NOT", 0x4600, 0xFF00, 4, (*M68KCPU).ExecNot, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("NBCD", 0x4800, 0xFFC0, 6, (*M68KCPU).ExecNbcd, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("PEA", 0x4840, 0xFFC0, 12, (*M68KCPU).ExecPea, validEA(eaMaskControl))
	registerM68KOpcodeIf("MOVEM", 0x4880, 0xFF80, 8, (*M68KCPU).ExecMovemToMem,
		validEA(eaMaskControlAlterable|(1<<M68K_AM_AR_PRE)))
	registerM68KOpcodeIf("MOVEM", 0x4C80, 0xFF80, 12, (*M68KCPU).ExecMovemToReg,
		validEA(eaMaskControl|(1<<M68K_AM_AR_POST)))
	registerM68KOpcodeIf("TST", 0x4A00, 0xFF00, 4, (*M68KCPU).ExecTst, validSizedEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("TAS", 0x4AC0, 0xFFC0, 4, (*M68KCPU).ExecTas, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("CHK", 0x4180, 0xF1C0, 10, (*M68KCPU).ExecChk, validEA(eaMaskData))
	registerM68KOpcodeIf("LEA", 0x41C0, 0xF1C0, 4, (*M68KCPU).ExecLea, validEA(eaMaskControl))
	registerM68KOpcodeIf("JSR", 0x4E80, 0xFFC0, 16, (*M68KCPU).ExecJsr, validEA(eaMaskControl))
	registerM68KOpcodeIf("JMP", 0x4EC0, 0xFFC0, 8, (*M68KCPU).ExecJmp, validEA(eaMaskControl))

	// ---- Group 5: quick arithmetic, Scc, DBcc ----
	registerM68KOpcode("DBcc", 0x50C8, 0xF0F8, 10, (*M68KCPU).ExecDbcc)
	registerM68KOpcodeIf("Scc", 0x50C0, 0xF0C0, 4, (*M68KCPU).ExecScc, validEA(eaMaskDataAlterable))
	registerM68KOpcodeIf("ADDQ", 0x5000, 0xF100, 4, (*M68KCPU).ExecAddq,
		func(op uint16) bool {
			if opSizeBits(op) == 3 {
				return false
			}
			if opEAMode(op) == M68K_AM_AR_DIRECT {
				return opSizeBits(op) != 0 // no byte arithmetic on An
			}
			return eaAllowed(eaMaskAlterable, opEAMode(op), opEAReg(op))
		})
	registerM68KOpcodeIf("SUBQ", 0x5100, 0xF100, 4, (*M68KCPU).ExecSubq,
		func(op uint16) bool {
			if opSizeBits(op) == 3 {
				return false
			}
			if opEAMode(op) == M68K_AM_AR_DIRECT {
				return opSizeBits(op) != 0
			}
			return eaAllowed(eaMaskAlterable, opEAMode(op), opEAReg(op))
		})

	// ---- Group 6: branches ----
	registerM68KOpcode("BRA", 0x6000, 0xFF00, 10, (*M68KCPU).ExecBra)
	registerM68KOpcode("BSR", 0x6100, 0xFF00, 18, (*M68KCPU).ExecBsr)
	registerM68KOpcode("Bcc", 0x6000, 0xF000, 10, (*M68KCPU).ExecBcc)

	// ---- Group 7: MOVEQ ----
	registerM68KOpcode("MOVEQ", 0x7000, 0xF100, 4, (*M68KCPU).ExecMoveq)

	// ---- Group 8: OR, divide, SBCD (SBCD already claimed) ----
	registerM68KOpcodeIf("DIVU", 0x80C0, 0xF1C0, 76, (*M68KCPU).ExecDivu, validEA(eaMaskData))
	registerM68KOpcodeIf("DIVS", 0x81C0, 0xF1C0, 96, (*M68KCPU).ExecDivs, validEA(eaMaskData))
	registerM68KOpcodeIf("OR", 0x8000, 0xF000, 4, (*M68KCPU).ExecOr,
		validDyadic(eaMaskData, eaMaskMemAlterable, false))

	// ---- Group 9: SUB family (SUBX already claimed) ----
	registerM68KOpcodeIf("SUBA", 0x9000, 0xF000, 6, (*M68KCPU).ExecSuba, validAdda)
	registerM68KOpcodeIf("SUB", 0x9000, 0xF000, 4, (*M68KCPU).ExecSub,
		validDyadic(eaMaskAll, eaMaskMemAlterable, true))

	// ---- Group B: compares and EOR (CMPM already claimed) ----
	registerM68KOpcodeIf("CMPA", 0xB000, 0xF000, 6, (*M68KCPU).ExecCmpa, validAdda)
	registerM68KOpcodeIf("CMP", 0xB000, 0xF000, 4, (*M68KCPU).ExecCmp,
		func(op uint16) bool {
			opmode := (op >> 6) & 0x7
			if opmode > 2 {
				return false
			}
			mode := opEAMode(op)
			if mode == M68K_AM_AR_DIRECT {
				return opmode != 0 // no byte access to An
			}
			return eaAllowed(eaMaskAll, mode, opEAReg(op))
		})
	registerM68KOpcodeIf("EOR", 0xB000, 0xF000, 4, (*M68KCPU).ExecEor,
		func(op uint16) bool {
			opmode := (op >> 6) & 0x7
			if opmode < 4 || opmode > 6 {
				return false
			}
			return eaAllowed(eaMaskDataAlterable, opEAMode(op), opEAReg(op))
		})

	// ---- Group C: AND, multiply (ABCD and EXG already claimed) ----
	registerM68KOpcodeIf("MULU", 0xC0C0, 0xF1C0, 70, (*M68KCPU).ExecMulu, validEA(eaMaskData))
	registerM68KOpcodeIf("MULS", 0xC1C0, 0xF1C0, 70, (*M68KCPU).ExecMuls, validEA(eaMaskData))
	registerM68KOpcodeIf("AND", 0xC000, 0xF000, 4, (*M68KCPU).ExecAnd,
		validDyadic(eaMaskData, eaMaskMemAlterable, false))

	// ---- Group D: ADD family (ADDX already claimed) ----
	registerM68KOpcodeIf("ADDA", 0xD000, 0xF000, 6, (*M68KCPU).ExecAdda, validAdda)
	registerM68KOpcodeIf("ADD", 0xD000, 0xF000, 4, (*M68KCPU).ExecAdd,
		validDyadic(eaMaskAll, eaMaskMemAlterable, true))

	// ---- Group E: shifts and rotates ----
	// Memory forms first (word-sized, shift by one)
	registerM68KOpcodeIf("ASR", 0xE0C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	registerM68KOpcodeIf("ASL", 0xE1C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	registerM68KOpcodeIf("LSR", 0xE2C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	registerM68KOpcodeIf("LSL", 0xE3C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	registerM68KOpcodeIf("ROXR", 0xE4C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	registerM68KOpcodeIf("ROXL", 0xE5C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	registerM68KOpcodeIf("ROR", 0xE6C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	registerM68KOpcodeIf("ROL", 0xE7C0, 0xFFC0, 8, (*M68KCPU).ExecShiftMem, validEA(eaMaskMemAlterable))
	// Register forms (count in the word or in a register)
	registerM68KOpcodeIf("Shift", 0xE000, 0xF000, 6, (*M68KCPU).ExecShiftReg,
		func(op uint16) bool { return opSizeBits(op) != 3 })

	// ---- Unimplemented instruction groups ----
	registerM68KOpcode("Line A", 0xA000, 0xF000, 4, (*M68KCPU).ExecLineA)
	registerM68KOpcode("Line F", 0xF000, 0xF000, 4, (*M68KCPU).ExecLineF)
}
