// cpu_m68k.go - Motorola 68000 CPU core for the Intuition 68K

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
cpu_m68k.go - Motorola 68000 CPU Core

This module implements the programmer-visible state and the execution engine
of the MC68000: the register file, the status register algebra, bus access
with the processor-level fault rules, and the instruction dispatch loop.

Core Features:

    Eight 32-bit data registers and eight 32-bit address registers, with the
    dual-banked A7 convention: the active stack pointer occupies AddrRegs[7]
    while the inactive bank is preserved in USP or SSP and exchanged on every
    supervisor/user transition.
    The 16-bit status register with the trace bit, supervisor bit, interrupt
    priority mask and the five condition codes. Writes are masked so that
    undefined bits always read back as zero.
    Big-endian bus access over a 24-bit address bus. Word and long access to
    an odd address raises an address error (vector 3); access that no RAM or
    device claims raises a bus error (vector 2). Fault context is recorded
    for the seven-word exception frame.
    A data-driven decode table (cpu_m68k_decode.go) consulted once per
    instruction word; unallocated patterns raise illegal instruction.
    Condition code computation via the carry/overflow bit identities rather
    than width-promoted arithmetic, so all three operand sizes share one
    implementation.

The execution loop batches work between checks of the atomic running flag,
services interrupt lines at instruction boundaries, honours the STOP state
and latches the trace bit at the start of each instruction so that a handler
modifying SR.T mid-instruction cannot suppress or inject a trace exception
for the instruction already underway.
*/

package main

import (
	"fmt"
	"math/bits"
	"os"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// ---- Operand sizes (bytes) ----
const (
	M68K_BYTE_SIZE = 1
	M68K_WORD_SIZE = 2
	M68K_LONG_SIZE = 4
)

// ---- Address space ----
const (
	M68K_ADDR_MASK    = 0x00FFFFFF // 24-bit address bus
	M68K_MEMORY_SIZE  = 0x01000000
	M68K_RESET_VECTOR = 0x00000004 // Vector 1: initial PC (vector 0 is initial SSP)
	M68K_STACK_START  = 0x000003F0 // Power-on SSP when vector 0 is empty
	M68K_ENTRY_POINT  = 0x00000400 // Power-on PC when vector 1 is empty
)

// ---- Status register bits ----
// Layout: T...S..III...XNZVC. Bits outside M68K_SR_VALID do not exist on
// the 68000 and are forced to zero on every SR write.
const (
	M68K_SR_C = 0x0001 // Carry / borrow
	M68K_SR_V = 0x0002 // Overflow
	M68K_SR_Z = 0x0004 // Zero
	M68K_SR_N = 0x0008 // Negative
	M68K_SR_X = 0x0010 // Extend

	M68K_SR_IPL       = 0x0700 // Interrupt priority mask
	M68K_SR_IPL_SHIFT = 8

	M68K_SR_S = 0x2000 // Supervisor state
	M68K_SR_T = 0x8000 // Trace

	M68K_SR_VALID = 0xA71F // All bits that physically exist
	M68K_CCR_MASK = 0x001F // User byte: X, N, Z, V, C
)

// ---- Addressing mode codes (bits 5-3 of an effective address field) ----
const (
	M68K_AM_DR_DIRECT = 0 // Dn
	M68K_AM_AR_DIRECT = 1 // An
	M68K_AM_AR_IND    = 2 // (An)
	M68K_AM_AR_POST   = 3 // (An)+
	M68K_AM_AR_PRE    = 4 // -(An)
	M68K_AM_AR_DISP   = 5 // d16(An)
	M68K_AM_AR_INDEX  = 6 // d8(An,Xn)
	M68K_AM_EXT       = 7 // Absolute, PC-relative, immediate
)

// ---- Mode 7 register sub-codes ----
const (
	M68K_EXT_ABS_W    = 0 // (xxx).W, sign-extended
	M68K_EXT_ABS_L    = 1 // (xxx).L
	M68K_EXT_PC_DISP  = 2 // d16(PC)
	M68K_EXT_PC_INDEX = 3 // d8(PC,Xn)
	M68K_EXT_IMM      = 4 // #imm
)

// ---- Condition codes (Bcc, Scc, DBcc bits 11-8) ----
const (
	M68K_CC_T  = 0x0
	M68K_CC_F  = 0x1
	M68K_CC_HI = 0x2
	M68K_CC_LS = 0x3
	M68K_CC_CC = 0x4
	M68K_CC_CS = 0x5
	M68K_CC_NE = 0x6
	M68K_CC_EQ = 0x7
	M68K_CC_VC = 0x8
	M68K_CC_VS = 0x9
	M68K_CC_PL = 0xA
	M68K_CC_MI = 0xB
	M68K_CC_GE = 0xC
	M68K_CC_LT = 0xD
	M68K_CC_GT = 0xE
	M68K_CC_LE = 0xF
)

// ---- Cycle accounting ----
// Base counts per instruction live in the decode table; these cover the
// per-access extras added by the EA resolver and the bus helpers.
const (
	M68K_CYCLE_REG       = 4
	M68K_CYCLE_FETCH     = 4
	M68K_CYCLE_MEM_READ  = 4
	M68K_CYCLE_MEM_WRITE = 4
	M68K_CYCLE_EXCEPTION = 34
	M68K_CYCLE_INTERRUPT = 44

	M68K_RESET_DELAY = 10 * time.Millisecond
)

// M68K CPU structure
type M68KCPU struct {
	/*
	   Cache Line 0 (64 bytes) - Hot Path Registers:
	   Optimised layout for frequent access patterns:
	   - PC          : Programme counter, accessed every instruction
	   - SR          : Status register - flags and mode control
	   - DataRegs    : D0-D7 data registers
	   - _padding0   : Ensures cache line alignment

	   Cache Line 1 (64 bytes) - Secondary Registers:
	   - AddrRegs    : A0-A7 address registers (A7 is the active SP)
	   - USP/SSP     : Inactive stack pointer banks
	   - running     : CPU execution state
	   - _padding1   : Cache line alignment

	   Cache Line 2 (64 bytes) - Execution Context:
	   - cycleCounter : Cycle accounting
	   - currentIR    : Current instruction register
	   - instrStartPC : PC of the opcode word being executed
	   - fault state  : Context captured for seven-word frames

	   Cache Lines 3+ - Bus interface and cold state.
	*/

	// Cache Line 0 (64 bytes) - Hot Path Registers
	PC        uint32
	SR        uint16
	DataRegs  [8]uint32
	_padding0 [26]byte // Cache line alignment reduces false sharing

	// Cache Line 1 (64 bytes) - Address Registers and Execution State
	AddrRegs  [8]uint32   // A7 switches between SSP and USP based on SR.S bit
	USP       uint32      // Hardware preserves this across supervisor mode transitions
	SSP       uint32      // Supervisor stack pointer (A7 when SR.S is set)
	running   atomic.Bool // Execution state (atomic for lock-free access)
	stopped   atomic.Bool // STOP state; resumes on interrupt
	halted    atomic.Bool // Double-fault latch; only a reset clears it
	debug     atomic.Bool // Debug mode flag (atomic for lock-free access)
	_padding1 [14]byte    // Cache line alignment reduces false sharing

	// Cache Line 2 (64 bytes) - Execution Context
	cycleCounter   uint32 // Enables accurate timing for cycle-exact emulation
	currentIR      uint16
	instrStartPC   uint32 // PC of the opcode word, used for fault frames and restart
	traceLatch     bool   // SR.T sampled at instruction start
	faulted        bool   // A bus or address error fired during this instruction
	inException    bool   // Frame push in progress; a fault here is a double fault
	interruptLines atomic.Uint32 // Bit n set = level n asserted; sampled between instructions
	_padding2      [33]byte      // Cache line alignment reduces false sharing

	// Fault context for the seven-word bus/address error frame
	lastFaultAddr        uint32
	lastFaultWrite       bool
	lastFaultSize        uint8
	lastFaultInstruction bool
	accessIsInstruction  bool // Set around opcode/extension fetches

	// Cache Lines 3+ - Bus Interface
	bus Bus32

	// Direct memory access for lock-free fetches below the RAM ceiling
	memory    []byte         // Direct pointer to main memory
	memBase   unsafe.Pointer // Unsafe base pointer for bounds-check-free access
	fastLimit uint32         // Accesses below this bypass the bus entirely

	// Performance monitoring
	PerfEnabled      bool      // Enable MIPS reporting
	InstructionCount uint64    // Total instructions executed
	perfStartTime    time.Time // When execution started
	lastPerfReport   time.Time // Last time we printed stats
}

// Running returns the execution state (thread-safe)
func (cpu *M68KCPU) Running() bool {
	return cpu.running.Load()
}

// SetRunning sets the execution state (thread-safe)
func (cpu *M68KCPU) SetRunning(state bool) {
	cpu.running.Store(state)
}

// Halted reports whether a double fault has latched the processor.
func (cpu *M68KCPU) Halted() bool {
	return cpu.halted.Load()
}

// Stopped reports whether the CPU is in the STOP state.
func (cpu *M68KCPU) Stopped() bool {
	return cpu.stopped.Load()
}

type faultingBus interface {
	Read8WithFault(addr uint32) (uint8, bool)
	Read16WithFault(addr uint32) (uint16, bool)
	Read32WithFault(addr uint32) (uint32, bool)
	Write8WithFault(addr uint32, value uint8) bool
	Write16WithFault(addr uint32, value uint16) bool
	Write32WithFault(addr uint32, value uint32) bool
}

type ramSizedBus interface {
	RAMLimit() uint32
}

func NewM68KCPU(bus Bus32) *M68KCPU {
	mem := bus.GetMemory()
	cpu := &M68KCPU{
		SR:      M68K_SR_S | M68K_SR_IPL, // Hardware powers up in supervisor mode, level 7 mask
		bus:     bus,
		memory:  mem,                     // Direct memory access for lock-free reads
		memBase: unsafe.Pointer(&mem[0]), // Unsafe base pointer for bounds-check-free access
	}
	cpu.fastLimit = uint32(len(mem))
	if rb, ok := bus.(ramSizedBus); ok {
		cpu.fastLimit = rb.RAMLimit()
	}
	// Atomic fields default to false - set running to true
	cpu.running.Store(true)

	// Hardware reads vectors 0 and 1 during reset
	sp := cpu.Read32(0)
	if sp == 0 {
		cpu.AddrRegs[7] = M68K_STACK_START
	} else {
		cpu.AddrRegs[7] = sp
	}
	cpu.SSP = cpu.AddrRegs[7]

	pc := cpu.Read32(M68K_RESET_VECTOR)
	if pc == 0 {
		cpu.PC = M68K_ENTRY_POINT
	} else {
		cpu.PC = pc
	}

	return cpu
}

func (cpu *M68KCPU) Reset() {
	cpu.running.Store(false)

	time.Sleep(M68K_RESET_DELAY)

	cpu.halted.Store(false)
	cpu.stopped.Store(false)
	cpu.interruptLines.Store(0)
	cpu.faulted = false
	cpu.inException = false

	// Hardware enters supervisor mode with interrupts masked
	cpu.SR = M68K_SR_S | M68K_SR_IPL

	sp := cpu.Read32(0)
	if sp == 0 {
		cpu.AddrRegs[7] = M68K_STACK_START
	} else {
		cpu.AddrRegs[7] = sp
	}
	cpu.SSP = cpu.AddrRegs[7]

	pc := cpu.Read32(M68K_RESET_VECTOR)
	if pc == 0 {
		cpu.PC = M68K_ENTRY_POINT
	} else {
		cpu.PC = pc
	}

	cpu.running.Store(true)
}

func (cpu *M68KCPU) LoadProgram(filename string) error {
	program, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	cpu.LoadProgramBytes(program)
	return nil
}

// LoadProgramBytes loads a raw programme image at M68K_ENTRY_POINT.
// Image files are big-endian per 68K conventions, which matches the bus
// byte order, so the image is copied without translation.
func (cpu *M68KCPU) LoadProgramBytes(program []byte) {
	limit := len(cpu.memory) - M68K_ENTRY_POINT
	if len(program) > limit {
		program = program[:limit]
	}
	copy(cpu.memory[M68K_ENTRY_POINT:], program)

	cpu.PC = M68K_ENTRY_POINT
	cpu.AddrRegs[7] = M68K_STACK_START
	cpu.SSP = cpu.AddrRegs[7]
	cpu.SR = M68K_SR_S | M68K_SR_IPL
	cpu.running.Store(true)
}

// ---- Interrupt lines ----
//
// Devices assert and clear numbered lines; the CPU samples the highest
// asserted level between instructions. Level 7 is non-maskable and is
// cleared on service so it behaves edge-triggered like the real pin.

// AssertInterrupt raises interrupt line level (1-7).
func (cpu *M68KCPU) AssertInterrupt(level uint8) {
	if level == 0 || level > 7 {
		return
	}
	for {
		old := cpu.interruptLines.Load()
		if cpu.interruptLines.CompareAndSwap(old, old|(1<<level)) {
			return
		}
	}
}

// ClearInterrupt lowers interrupt line level (1-7).
func (cpu *M68KCPU) ClearInterrupt(level uint8) {
	if level == 0 || level > 7 {
		return
	}
	for {
		old := cpu.interruptLines.Load()
		if cpu.interruptLines.CompareAndSwap(old, old&^(1<<level)) {
			return
		}
	}
}

// serviceInterrupts checks the asserted lines against the SR mask and
// dispatches the highest eligible level. Returns true if one was taken.
func (cpu *M68KCPU) serviceInterrupts() bool {
	lines := cpu.interruptLines.Load()
	if lines == 0 {
		return false
	}
	level := uint8(31 - bits.LeadingZeros32(lines))
	ipl := uint8((cpu.SR & M68K_SR_IPL) >> M68K_SR_IPL_SHIFT)
	if level != 7 && level <= ipl {
		return false
	}
	if level == 7 {
		cpu.ClearInterrupt(7)
	}
	cpu.stopped.Store(false)
	cpu.ProcessInterrupt(level)
	return true
}

// ---- Bus access ----
//
// All multi-byte access is big-endian. Addresses are masked to the 24-bit
// bus before anything else; word and long access to an odd address raises
// an address error before the bus is consulted. A fast path serves plain
// RAM below the ceiling; everything else goes through the bus, and a bus
// refusal becomes a bus error exception.

func (cpu *M68KCPU) Read8(addr uint32) uint8 {
	addr &= M68K_ADDR_MASK
	if addr < cpu.fastLimit {
		return *(*byte)(unsafe.Pointer(uintptr(cpu.memBase) + uintptr(addr)))
	}
	if fb, ok := cpu.bus.(faultingBus); ok {
		value, ok := fb.Read8WithFault(addr)
		if !ok {
			cpu.busError(addr, M68K_BYTE_SIZE, false)
			return 0
		}
		return value
	}
	return cpu.bus.Read8(addr)
}

func (cpu *M68KCPU) Read16(addr uint32) uint16 {
	addr &= M68K_ADDR_MASK
	if addr&1 != 0 {
		cpu.addressError(addr, M68K_WORD_SIZE, false)
		return 0
	}
	if addr+2 <= cpu.fastLimit {
		// Host load is little-endian; swap to recover the big-endian word
		leValue := *(*uint16)(unsafe.Pointer(uintptr(cpu.memBase) + uintptr(addr)))
		return bits.ReverseBytes16(leValue)
	}
	if fb, ok := cpu.bus.(faultingBus); ok {
		value, ok := fb.Read16WithFault(addr)
		if !ok {
			cpu.busError(addr, M68K_WORD_SIZE, false)
			return 0
		}
		return value
	}
	return cpu.bus.Read16(addr)
}

func (cpu *M68KCPU) Read32(addr uint32) uint32 {
	addr &= M68K_ADDR_MASK
	if addr&1 != 0 {
		cpu.addressError(addr, M68K_LONG_SIZE, false)
		return 0
	}
	if addr+4 <= cpu.fastLimit {
		leValue := *(*uint32)(unsafe.Pointer(uintptr(cpu.memBase) + uintptr(addr)))
		return bits.ReverseBytes32(leValue)
	}
	if fb, ok := cpu.bus.(faultingBus); ok {
		value, ok := fb.Read32WithFault(addr)
		if !ok {
			cpu.busError(addr, M68K_LONG_SIZE, false)
			return 0
		}
		return value
	}
	return cpu.bus.Read32(addr)
}

func (cpu *M68KCPU) Write8(addr uint32, value uint8) {
	addr &= M68K_ADDR_MASK
	if addr < cpu.fastLimit {
		*(*byte)(unsafe.Pointer(uintptr(cpu.memBase) + uintptr(addr))) = value
		return
	}
	if fb, ok := cpu.bus.(faultingBus); ok {
		if !fb.Write8WithFault(addr, value) {
			cpu.busError(addr, M68K_BYTE_SIZE, true)
		}
		return
	}
	cpu.bus.Write8(addr, value)
}

func (cpu *M68KCPU) Write16(addr uint32, value uint16) {
	addr &= M68K_ADDR_MASK
	if addr&1 != 0 {
		cpu.addressError(addr, M68K_WORD_SIZE, true)
		return
	}
	if addr+2 <= cpu.fastLimit {
		*(*uint16)(unsafe.Pointer(uintptr(cpu.memBase) + uintptr(addr))) = bits.ReverseBytes16(value)
		return
	}
	if fb, ok := cpu.bus.(faultingBus); ok {
		if !fb.Write16WithFault(addr, value) {
			cpu.busError(addr, M68K_WORD_SIZE, true)
		}
		return
	}
	cpu.bus.Write16(addr, value)
}

func (cpu *M68KCPU) Write32(addr uint32, value uint32) {
	addr &= M68K_ADDR_MASK
	if addr&1 != 0 {
		cpu.addressError(addr, M68K_LONG_SIZE, true)
		return
	}
	if addr+4 <= cpu.fastLimit {
		*(*uint32)(unsafe.Pointer(uintptr(cpu.memBase) + uintptr(addr))) = bits.ReverseBytes32(value)
		return
	}
	if fb, ok := cpu.bus.(faultingBus); ok {
		if !fb.Write32WithFault(addr, value) {
			cpu.busError(addr, M68K_LONG_SIZE, true)
		}
		return
	}
	cpu.bus.Write32(addr, value)
}

// ---- Stack and instruction stream ----

func (cpu *M68KCPU) Push16(value uint16) {
	cpu.AddrRegs[7] -= M68K_WORD_SIZE
	cpu.Write16(cpu.AddrRegs[7], value)
}

func (cpu *M68KCPU) Push32(value uint32) {
	cpu.AddrRegs[7] -= M68K_LONG_SIZE
	cpu.Write32(cpu.AddrRegs[7], value)
}

func (cpu *M68KCPU) Pop16() uint16 {
	value := cpu.Read16(cpu.AddrRegs[7])
	cpu.AddrRegs[7] += M68K_WORD_SIZE
	return value
}

func (cpu *M68KCPU) Pop32() uint32 {
	value := cpu.Read32(cpu.AddrRegs[7])
	cpu.AddrRegs[7] += M68K_LONG_SIZE
	return value
}

// Fetch16 reads the next extension word from the instruction stream.
func (cpu *M68KCPU) Fetch16() uint16 {
	cpu.accessIsInstruction = true
	value := cpu.Read16(cpu.PC)
	cpu.accessIsInstruction = false
	cpu.PC += M68K_WORD_SIZE
	return value
}

func (cpu *M68KCPU) Fetch32() uint32 {
	cpu.accessIsInstruction = true
	value := cpu.Read32(cpu.PC)
	cpu.accessIsInstruction = false
	cpu.PC += M68K_LONG_SIZE
	return value
}

// ---- Size helpers ----

func m68kSizeMask(size uint32) uint32 {
	switch size {
	case M68K_BYTE_SIZE:
		return 0x000000FF
	case M68K_WORD_SIZE:
		return 0x0000FFFF
	default:
		return 0xFFFFFFFF
	}
}

func m68kSignBit(size uint32) uint32 {
	switch size {
	case M68K_BYTE_SIZE:
		return 0x00000080
	case M68K_WORD_SIZE:
		return 0x00008000
	default:
		return 0x80000000
	}
}

func m68kSignExtend(value uint32, size uint32) uint32 {
	switch size {
	case M68K_BYTE_SIZE:
		return uint32(int32(int8(value)))
	case M68K_WORD_SIZE:
		return uint32(int32(int16(value)))
	default:
		return value
	}
}

// ---- Condition code algebra ----
//
// Carry and overflow are derived from the operand sign bits rather than
// width-promoted arithmetic, so byte, word and long share one path:
//   add:  carry    = (s AND d) OR ((s OR d) AND NOT r)     at the sign bit
//         overflow = (s XOR r) AND (d XOR r)               at the sign bit
//   sub:  borrow   = (s AND NOT d) OR (r AND NOT d) OR (s AND r)
//         overflow = (s XOR d) AND (r XOR d)               at the sign bit

func (cpu *M68KCPU) setFlag(flag uint16, set bool) {
	if set {
		cpu.SR |= flag
	} else {
		cpu.SR &^= flag
	}
}

// SetFlagsLogical sets N and Z from the result and clears V and C.
// X is never touched by moves and logical operations.
func (cpu *M68KCPU) SetFlagsLogical(result uint32, size uint32) {
	result &= m68kSizeMask(size)
	cpu.setFlag(M68K_SR_N, result&m68kSignBit(size) != 0)
	cpu.setFlag(M68K_SR_Z, result == 0)
	cpu.SR &^= M68K_SR_V | M68K_SR_C
}

// SetFlagsAdd computes all five codes for result = dst + src.
func (cpu *M68KCPU) SetFlagsAdd(src, dst, result uint32, size uint32) {
	mask := m68kSizeMask(size)
	sign := m68kSignBit(size)
	s, d, r := src&mask, dst&mask, result&mask

	carry := (s&d | (s|d)&^r) & sign
	overflow := (s ^ r) & (d ^ r) & sign

	cpu.setFlag(M68K_SR_N, r&sign != 0)
	cpu.setFlag(M68K_SR_Z, r == 0)
	cpu.setFlag(M68K_SR_V, overflow != 0)
	cpu.setFlag(M68K_SR_C, carry != 0)
	cpu.setFlag(M68K_SR_X, carry != 0)
}

// SetFlagsSub computes all five codes for result = dst - src.
func (cpu *M68KCPU) SetFlagsSub(src, dst, result uint32, size uint32) {
	mask := m68kSizeMask(size)
	sign := m68kSignBit(size)
	s, d, r := src&mask, dst&mask, result&mask

	borrow := (s&^d | r&^d | s&r) & sign
	overflow := (s ^ d) & (r ^ d) & sign

	cpu.setFlag(M68K_SR_N, r&sign != 0)
	cpu.setFlag(M68K_SR_Z, r == 0)
	cpu.setFlag(M68K_SR_V, overflow != 0)
	cpu.setFlag(M68K_SR_C, borrow != 0)
	cpu.setFlag(M68K_SR_X, borrow != 0)
}

// SetFlagsCmp is the subtract algebra without the X update.
// Compares report but never consume or produce the extend bit.
func (cpu *M68KCPU) SetFlagsCmp(src, dst, result uint32, size uint32) {
	mask := m68kSizeMask(size)
	sign := m68kSignBit(size)
	s, d, r := src&mask, dst&mask, result&mask

	borrow := (s&^d | r&^d | s&r) & sign
	overflow := (s ^ d) & (r ^ d) & sign

	cpu.setFlag(M68K_SR_N, r&sign != 0)
	cpu.setFlag(M68K_SR_Z, r == 0)
	cpu.setFlag(M68K_SR_V, overflow != 0)
	cpu.setFlag(M68K_SR_C, borrow != 0)
}

// SetFlagsAddX is the add algebra with the multi-precision Z rule:
// a non-zero result clears Z, a zero result leaves it unchanged.
func (cpu *M68KCPU) SetFlagsAddX(src, dst, result uint32, size uint32) {
	mask := m68kSizeMask(size)
	sign := m68kSignBit(size)
	s, d, r := src&mask, dst&mask, result&mask

	carry := (s&d | (s|d)&^r) & sign
	overflow := (s ^ r) & (d ^ r) & sign

	cpu.setFlag(M68K_SR_N, r&sign != 0)
	if r != 0 {
		cpu.SR &^= M68K_SR_Z
	}
	cpu.setFlag(M68K_SR_V, overflow != 0)
	cpu.setFlag(M68K_SR_C, carry != 0)
	cpu.setFlag(M68K_SR_X, carry != 0)
}

// SetFlagsSubX is the subtract algebra with the multi-precision Z rule.
func (cpu *M68KCPU) SetFlagsSubX(src, dst, result uint32, size uint32) {
	mask := m68kSizeMask(size)
	sign := m68kSignBit(size)
	s, d, r := src&mask, dst&mask, result&mask

	borrow := (s&^d | r&^d | s&r) & sign
	overflow := (s ^ d) & (r ^ d) & sign

	cpu.setFlag(M68K_SR_N, r&sign != 0)
	if r != 0 {
		cpu.SR &^= M68K_SR_Z
	}
	cpu.setFlag(M68K_SR_V, overflow != 0)
	cpu.setFlag(M68K_SR_C, borrow != 0)
	cpu.setFlag(M68K_SR_X, borrow != 0)
}

// CheckCondition evaluates one of the sixteen condition codes against SR.
func (cpu *M68KCPU) CheckCondition(code uint16) bool {
	n := cpu.SR&M68K_SR_N != 0
	z := cpu.SR&M68K_SR_Z != 0
	v := cpu.SR&M68K_SR_V != 0
	c := cpu.SR&M68K_SR_C != 0

	switch code {
	case M68K_CC_T:
		return true
	case M68K_CC_F:
		return false
	case M68K_CC_HI:
		return !c && !z
	case M68K_CC_LS:
		return c || z
	case M68K_CC_CC:
		return !c
	case M68K_CC_CS:
		return c
	case M68K_CC_NE:
		return !z
	case M68K_CC_EQ:
		return z
	case M68K_CC_VC:
		return !v
	case M68K_CC_VS:
		return v
	case M68K_CC_PL:
		return !n
	case M68K_CC_MI:
		return n
	case M68K_CC_GE:
		return n == v
	case M68K_CC_LT:
		return n != v
	case M68K_CC_GT:
		return !z && n == v
	default: // M68K_CC_LE
		return z || n != v
	}
}

// ---- Status register access ----

// GetCCR returns the user byte of the status register.
func (cpu *M68KCPU) GetCCR() uint8 {
	return uint8(cpu.SR & M68K_CCR_MASK)
}

// SetCCR replaces the user byte; the system byte is untouched.
func (cpu *M68KCPU) SetCCR(value uint8) {
	cpu.SR = (cpu.SR &^ M68K_CCR_MASK) | (uint16(value) & M68K_CCR_MASK)
}

// setSR replaces the whole status register, masking nonexistent bits and
// exchanging the stack pointer banks if the S bit changed.
func (cpu *M68KCPU) setSR(value uint16) {
	value &= M68K_SR_VALID
	oldSupervisor := cpu.SR&M68K_SR_S != 0
	newSupervisor := value&M68K_SR_S != 0
	cpu.SR = value
	if oldSupervisor != newSupervisor {
		cpu.swapStacksForMode(newSupervisor)
	}
}

func (cpu *M68KCPU) swapStacksForMode(newSupervisor bool) {
	if newSupervisor {
		cpu.USP = cpu.AddrRegs[7]
		cpu.AddrRegs[7] = cpu.SSP
	} else {
		cpu.SSP = cpu.AddrRegs[7]
		cpu.AddrRegs[7] = cpu.USP
	}
}

// ---- Execution loop ----

// FetchAndDecodeInstruction dispatches the opcode already latched in
// currentIR. The PC has been advanced past the opcode word; extension
// words are fetched by the handler as it resolves its operands.
func (cpu *M68KCPU) FetchAndDecodeInstruction() {
	cpu.instrStartPC = cpu.PC - M68K_WORD_SIZE
	cpu.traceLatch = cpu.SR&M68K_SR_T != 0
	cpu.faulted = false

	entry := m68kOpcodeTable[cpu.currentIR]
	if entry == nil {
		cpu.ProcessException(M68K_VEC_ILLEGAL)
		return
	}
	entry.Exec(cpu)
	cpu.cycleCounter += entry.Cycles

	// The latch, not the live bit, decides: a handler or SR write during
	// this instruction cannot retroactively enable or suppress its trace.
	if cpu.traceLatch && !cpu.faulted && !cpu.halted.Load() && !cpu.stopped.Load() {
		cpu.ProcessException(M68K_VEC_TRACE)
	}
}

func (cpu *M68KCPU) ExecuteInstruction() {
	logrus.Debugf("M68K: starting execution at PC=%08X", cpu.PC)

	instructionCount := uint64(0)

	// Initialize perf counters if enabled
	if cpu.PerfEnabled {
		cpu.perfStartTime = time.Now()
		cpu.lastPerfReport = cpu.perfStartTime
		cpu.InstructionCount = 0
	}

	// Cache memory base pointer for fast instruction fetch
	memBase := cpu.memBase

	// Main execution loop - batch check running flag every 4096 instructions
	for cpu.running.Load() && !cpu.halted.Load() {
	innerLoop:
		for range 4096 {
			// STOP state: only interrupts can resume execution
			if cpu.stopped.Load() {
				if !cpu.serviceInterrupts() {
					runtime.Gosched()
					break innerLoop
				}
			}

			if cpu.halted.Load() {
				break innerLoop
			}

			// Fast inline fetch for the common case of a word-aligned PC
			// inside RAM. Memory is big-endian; the host load is
			// little-endian, so swap.
			pc := cpu.PC & M68K_ADDR_MASK
			if pc&1 == 0 && pc+2 <= cpu.fastLimit {
				leValue := *(*uint16)(unsafe.Pointer(uintptr(memBase) + uintptr(pc)))
				cpu.currentIR = bits.ReverseBytes16(leValue)
				cpu.PC += M68K_WORD_SIZE
			} else {
				cpu.instrStartPC = cpu.PC
				cpu.accessIsInstruction = true
				opcode := cpu.Read16(pc)
				cpu.accessIsInstruction = false
				if cpu.faulted || cpu.halted.Load() {
					cpu.faulted = false
					continue
				}
				cpu.currentIR = opcode
				cpu.PC += M68K_WORD_SIZE
			}

			cpu.FetchAndDecodeInstruction()

			instructionCount++

			// Service interrupt lines at an instruction boundary. Sampled
			// every 16 instructions; interrupt latency is bounded without
			// paying the atomic load on every dispatch.
			if instructionCount&0xF == 0 {
				cpu.serviceInterrupts()
			}
		}

		// Performance monitoring
		if cpu.PerfEnabled {
			cpu.InstructionCount = instructionCount
			now := time.Now()
			if now.Sub(cpu.lastPerfReport) >= time.Second {
				elapsed := now.Sub(cpu.perfStartTime).Seconds()
				ips := float64(instructionCount) / elapsed
				mips := ips / 1_000_000
				fmt.Printf("M68K: %.2f MIPS (%.0f instructions in %.1fs)\n", mips, float64(instructionCount), elapsed)
				cpu.lastPerfReport = now
			}
		}
	}

	logrus.Debugf("M68K: execution loop exited at PC=%08X after %d instructions",
		cpu.PC, instructionCount)
}

// StepOne executes a single instruction and returns 1, or 0 if the CPU
// cannot make progress. Interrupt lines are sampled first so single-step
// debugging observes the same boundaries as free-running execution.
func (cpu *M68KCPU) StepOne() int {
	if cpu.halted.Load() {
		return 0
	}

	cpu.serviceInterrupts()
	if cpu.stopped.Load() {
		return 0
	}

	cpu.instrStartPC = cpu.PC
	cpu.accessIsInstruction = true
	opcode := cpu.Read16(cpu.PC)
	cpu.accessIsInstruction = false
	if cpu.faulted {
		cpu.faulted = false
		return 1
	}
	cpu.currentIR = opcode
	cpu.PC += M68K_WORD_SIZE

	cpu.FetchAndDecodeInstruction()
	return 1
}

func (cpu *M68KCPU) DumpRegisters() {
	fmt.Println("\nM68K CPU Register Dump:")

	// Data registers
	fmt.Printf("D0: %08X  D1: %08X  D2: %08X  D3: %08X\n",
		cpu.DataRegs[0], cpu.DataRegs[1], cpu.DataRegs[2], cpu.DataRegs[3])
	fmt.Printf("D4: %08X  D5: %08X  D6: %08X  D7: %08X\n",
		cpu.DataRegs[4], cpu.DataRegs[5], cpu.DataRegs[6], cpu.DataRegs[7])

	// Address registers
	fmt.Printf("A0: %08X  A1: %08X  A2: %08X  A3: %08X\n",
		cpu.AddrRegs[0], cpu.AddrRegs[1], cpu.AddrRegs[2], cpu.AddrRegs[3])
	fmt.Printf("A4: %08X  A5: %08X  A6: %08X  A7: %08X (SP)\n",
		cpu.AddrRegs[4], cpu.AddrRegs[5], cpu.AddrRegs[6], cpu.AddrRegs[7])

	// Inactive stack bank
	fmt.Printf("USP: %08X  SSP: %08X\n", cpu.USP, cpu.SSP)

	// Programme counter and status register
	fmt.Printf("PC: %08X  SR: %04X  ", cpu.PC, cpu.SR)

	// Flags
	fmt.Printf("Flags: [")
	if (cpu.SR & M68K_SR_X) != 0 {
		fmt.Printf("X")
	} else {
		fmt.Printf("-")
	}
	if (cpu.SR & M68K_SR_N) != 0 {
		fmt.Printf("N")
	} else {
		fmt.Printf("-")
	}
	if (cpu.SR & M68K_SR_Z) != 0 {
		fmt.Printf("Z")
	} else {
		fmt.Printf("-")
	}
	if (cpu.SR & M68K_SR_V) != 0 {
		fmt.Printf("V")
	} else {
		fmt.Printf("-")
	}
	if (cpu.SR & M68K_SR_C) != 0 {
		fmt.Printf("C")
	} else {
		fmt.Printf("-")
	}
	fmt.Printf("]  ")

	// Supervisor mode
	if (cpu.SR & M68K_SR_S) != 0 {
		fmt.Printf("Supervisor Mode  ")
	} else {
		fmt.Printf("User Mode  ")
	}

	// Interrupt priority level
	fmt.Printf("IPL: %d\n", (cpu.SR&M68K_SR_IPL)>>M68K_SR_IPL_SHIFT)

	fmt.Println()
}
