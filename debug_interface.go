// debug_interface.go - DebuggableCPU interface and supporting types for the machine monitor

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

package main

// RegisterInfo describes a single CPU register for display in the monitor.
type RegisterInfo struct {
	Name     string // "PC", "D0", "SR"
	BitWidth int    // 16 or 32
	Value    uint64
	Group    string // "general", "status", "flags"
}

// DisassembledLine represents one disassembled instruction.
type DisassembledLine struct {
	Address      uint64
	HexBytes     string
	Mnemonic     string
	Size         int
	IsPC         bool   // true if this is the current PC
	IsBranch     bool   // true for flow-control instructions with a static target
	BranchTarget uint64 // valid when IsBranch is set
}

// BreakpointEvent is published when a CPU hits a breakpoint during execution.
type BreakpointEvent struct {
	CPUID   int    // Stable CPU ID that hit the breakpoint
	Address uint64 // Address of the breakpoint
}

// ConditionalBreakpoint pairs an address with an optional firing condition.
// A nil Condition is unconditional. HitCount counts arrivals at the address,
// whether or not the condition let the breakpoint fire.
type ConditionalBreakpoint struct {
	Address   uint64
	Condition *BreakpointCondition
	HitCount  uint64
}

// DebuggableCPU is the interface the monitor drives a CPU through.
type DebuggableCPU interface {
	CPUName() string
	AddressWidth() int // 24 for this machine's bus

	GetRegisters() []RegisterInfo
	GetRegister(name string) (uint64, bool)
	SetRegister(name string, value uint64) bool
	GetPC() uint64
	SetPC(addr uint64)

	IsRunning() bool
	Freeze() // Stop execution, preserve state
	Resume() // Restart execution goroutine

	Step() int // Execute one instruction, return cycles

	Disassemble(addr uint64, count int) []DisassembledLine

	SetBreakpoint(addr uint64) bool
	SetConditionalBreakpoint(addr uint64, cond *BreakpointCondition)
	GetConditionalBreakpoint(addr uint64) *ConditionalBreakpoint
	ListConditionalBreakpoints() []*ConditionalBreakpoint
	ClearBreakpoint(addr uint64) bool
	ClearAllBreakpoints()
	ListBreakpoints() []uint64
	HasBreakpoint(addr uint64) bool

	ReadMemory(addr uint64, size int) []byte
	WriteMemory(addr uint64, data []byte)

	SetBreakpointChannel(ch chan<- BreakpointEvent, cpuID int)
}
