// cpu_m68k_exception.go - Exception and interrupt dispatch for the 68000 core

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
cpu_m68k_exception.go - Exception and Interrupt Dispatch

All control transfers outside normal instruction flow funnel through here:
memory faults, illegal and privileged instructions, the arithmetic traps,
TRAP/TRAPV/CHK, tracing and autovectored interrupts.

Every exception enters supervisor mode, clears trace, and stacks a frame on
the supervisor stack before loading the handler address from the vector
table at the bottom of memory. Most exceptions push the three-word frame of
status register and program counter. Bus and address errors push the larger
seven-word frame which additionally records the instruction register, the
faulting access address and an access-information word, enough for a handler
to identify what the processor was doing when the access failed.

A fault raised while a frame is being stacked is a double fault and latches
the halted state; only an external reset recovers the processor. The same
latch answers an odd handler address, which could otherwise never complete
its first instruction fetch.
*/

package main

import "fmt"

// ---- Exception vector numbers ----
//
// The vector table occupies the first kilobyte of memory, four bytes per
// vector. Vectors 0 and 1 are consumed at reset only; they hold the initial
// supervisor stack pointer and entry point.
const (
	M68K_VEC_RESET_SSP     = 0
	M68K_VEC_RESET_PC      = 1
	M68K_VEC_BUS_ERROR     = 2
	M68K_VEC_ADDRESS_ERROR = 3
	M68K_VEC_ILLEGAL       = 4
	M68K_VEC_ZERO_DIVIDE   = 5
	M68K_VEC_CHK           = 6
	M68K_VEC_TRAPV         = 7
	M68K_VEC_PRIVILEGE     = 8
	M68K_VEC_TRACE         = 9
	M68K_VEC_LINE_A        = 10
	M68K_VEC_LINE_F        = 11

	M68K_VEC_SPURIOUS        = 24
	M68K_VEC_AUTOVECTOR_BASE = 24 // Level n interrupt uses vector 24+n
	M68K_VEC_TRAP_BASE       = 32 // TRAP #n uses vector 32+n
	M68K_VEC_USER_BASE       = 64
)

var m68kExceptionNames = map[uint32]string{
	M68K_VEC_BUS_ERROR:     "bus error",
	M68K_VEC_ADDRESS_ERROR: "address error",
	M68K_VEC_ILLEGAL:       "illegal instruction",
	M68K_VEC_ZERO_DIVIDE:   "zero divide",
	M68K_VEC_CHK:           "CHK",
	M68K_VEC_TRAPV:         "TRAPV",
	M68K_VEC_PRIVILEGE:     "privilege violation",
	M68K_VEC_TRACE:         "trace",
	M68K_VEC_LINE_A:        "line 1010 emulator",
	M68K_VEC_LINE_F:        "line 1111 emulator",
	M68K_VEC_SPURIOUS:      "spurious interrupt",
}

// M68KExceptionName renders a vector number for diagnostics.
func M68KExceptionName(vector uint32) string {
	if name, ok := m68kExceptionNames[vector]; ok {
		return name
	}
	if vector >= M68K_VEC_TRAP_BASE && vector < M68K_VEC_TRAP_BASE+16 {
		return fmt.Sprintf("TRAP #%d", vector-M68K_VEC_TRAP_BASE)
	}
	if vector > M68K_VEC_AUTOVECTOR_BASE && vector <= M68K_VEC_AUTOVECTOR_BASE+7 {
		return fmt.Sprintf("level %d interrupt", vector-M68K_VEC_AUTOVECTOR_BASE)
	}
	return fmt.Sprintf("vector %d", vector)
}

// ---- Memory fault entry points ----

// busError records the failed access and dispatches vector 2. Called from
// the bus accessors when an address resolves to neither RAM nor a device.
func (cpu *M68KCPU) busError(addr uint32, size uint32, write bool) {
	cpu.lastFaultAddr = addr
	cpu.lastFaultSize = uint8(size)
	cpu.lastFaultWrite = write
	cpu.lastFaultInstruction = cpu.accessIsInstruction
	cpu.faulted = true
	cpu.ProcessException(M68K_VEC_BUS_ERROR)
}

// addressError records a misaligned word or long access and dispatches
// vector 3. Alignment is checked before the bus ever sees the address.
func (cpu *M68KCPU) addressError(addr uint32, size uint32, write bool) {
	cpu.lastFaultAddr = addr
	cpu.lastFaultSize = uint8(size)
	cpu.lastFaultWrite = write
	cpu.lastFaultInstruction = cpu.accessIsInstruction
	cpu.faulted = true
	cpu.ProcessException(M68K_VEC_ADDRESS_ERROR)
}

// faultInfoWord builds the access-information word of the seven-word frame:
// bits 2-0 are the function code of the failed access, bit 3 distinguishes
// data from instruction references and bit 4 reads from writes. The mode
// comes from the status register as it stood when the access was made.
func (cpu *M68KCPU) faultInfoWord(srAtFault uint16) uint16 {
	fc := uint16(1) // user data
	if cpu.lastFaultInstruction {
		fc = 2 // user program
	}
	if srAtFault&M68K_SR_S != 0 {
		fc += 4 // supervisor spaces
	}
	word := fc
	if !cpu.lastFaultInstruction {
		word |= 0x0008
	}
	if !cpu.lastFaultWrite {
		word |= 0x0010
	}
	return word
}

// ---- Exception processing ----

// ProcessException performs the full exception sequence for the given
// vector: enter supervisor mode with trace cleared, stack the frame, load
// the handler address and resume there.
//
// The program counter value stacked depends on the exception. Faults and
// refused instructions stack the address of the offending instruction so a
// handler can examine or restart it; traps, tracing and the arithmetic
// exceptions stack the address of the next instruction, which is where RTE
// resumes.
func (cpu *M68KCPU) ProcessException(vector uint32) {
	if cpu.halted.Load() {
		return
	}
	if cpu.inException {
		// A fault while stacking a frame cannot be serviced. Latch the
		// halted state; only RESET recovers from here.
		cpu.faulted = true
		cpu.halted.Store(true)
		fmt.Printf("M68K: double fault during %s processing, processor halted (PC=%08X SP=%08X)\n",
			M68KExceptionName(vector), cpu.PC, cpu.AddrRegs[7])
		return
	}
	cpu.inException = true

	oldSR := cpu.SR
	if oldSR&M68K_SR_S == 0 {
		cpu.swapStacksForMode(true)
	}
	cpu.SR |= M68K_SR_S
	cpu.SR &^= M68K_SR_T

	pushedPC := cpu.PC
	switch vector {
	case M68K_VEC_BUS_ERROR, M68K_VEC_ADDRESS_ERROR,
		M68K_VEC_ILLEGAL, M68K_VEC_PRIVILEGE,
		M68K_VEC_LINE_A, M68K_VEC_LINE_F:
		pushedPC = cpu.instrStartPC
	}

	cpu.Push32(pushedPC)
	cpu.Push16(oldSR)
	if vector == M68K_VEC_BUS_ERROR || vector == M68K_VEC_ADDRESS_ERROR {
		cpu.Push16(cpu.currentIR)
		cpu.Push32(cpu.lastFaultAddr)
		cpu.Push16(cpu.faultInfoWord(oldSR))
	}
	if cpu.halted.Load() {
		// A push re-faulted and the nested dispatch latched the halt.
		cpu.inException = false
		return
	}

	handler := cpu.Read32(vector * 4)
	if handler&1 != 0 {
		cpu.faulted = true
		cpu.halted.Store(true)
		fmt.Printf("M68K: odd handler address %08X for %s, processor halted\n",
			handler, M68KExceptionName(vector))
		cpu.inException = false
		return
	}

	// An uninitialised vector reads as zero and execution lands on the
	// vector table itself. That is what the silicon does; setting up the
	// table is the program's problem.
	cpu.PC = handler
	cpu.cycleCounter += M68K_CYCLE_EXCEPTION
	cpu.inException = false
}

// ProcessInterrupt enters the autovectored handler for an interrupt level.
// The stacked status register is the pre-interrupt one; the live mask is
// raised to the serviced level so only higher levels can nest.
func (cpu *M68KCPU) ProcessInterrupt(level uint8) {
	if cpu.halted.Load() {
		return
	}
	cpu.inException = true

	oldSR := cpu.SR
	if oldSR&M68K_SR_S == 0 {
		cpu.swapStacksForMode(true)
	}
	cpu.SR |= M68K_SR_S
	cpu.SR &^= M68K_SR_T
	cpu.SR = (cpu.SR &^ M68K_SR_IPL) | (uint16(level) << M68K_SR_IPL_SHIFT)

	cpu.Push32(cpu.PC)
	cpu.Push16(oldSR)
	if cpu.halted.Load() {
		cpu.inException = false
		return
	}

	vector := M68K_VEC_AUTOVECTOR_BASE + uint32(level)
	handler := cpu.Read32(vector * 4)
	if handler&1 != 0 {
		cpu.faulted = true
		cpu.halted.Store(true)
		fmt.Printf("M68K: odd handler address %08X for %s, processor halted\n",
			handler, M68KExceptionName(vector))
		cpu.inException = false
		return
	}

	cpu.PC = handler
	cpu.cycleCounter += M68K_CYCLE_INTERRUPT
	cpu.inException = false
}
