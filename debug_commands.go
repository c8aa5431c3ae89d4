// debug_commands.go - command parser and handlers for the machine monitor

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

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
)

// MonitorCommand is a parsed command with name and arguments.
type MonitorCommand struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) MonitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return MonitorCommand{}
	}
	parts := strings.Fields(input)
	return MonitorCommand{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// ParseAddress parses a monitor address in various formats:
// $hex, 0xhex, bare hex, #decimal
func ParseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// #decimal
	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 10, 64)
		return v, err == nil
	}

	// $hex
	if strings.HasPrefix(s, "$") {
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	}

	// 0x or 0X hex
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}

	// bare hex (try hex first)
	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// EvalAddress evaluates a simple expression: <term> [+|- <term>]*
// Each term is either a register name or a numeric address.
func EvalAddress(expr string, cpu DebuggableCPU) (uint64, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, false
	}

	// Tokenize: split on + and - while preserving operators
	type token struct {
		text string
		op   byte // 0 for first term, '+' or '-'
	}

	var tokens []token
	current := strings.Builder{}
	currentOp := byte(0)

	for i := 0; i < len(expr); i++ {
		ch := expr[i]
		if (ch == '+' || ch == '-') && i > 0 {
			t := strings.TrimSpace(current.String())
			if t != "" {
				tokens = append(tokens, token{text: t, op: currentOp})
			}
			currentOp = ch
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}
	t := strings.TrimSpace(current.String())
	if t != "" {
		tokens = append(tokens, token{text: t, op: currentOp})
	}

	if len(tokens) == 0 {
		return 0, false
	}

	var result uint64
	for _, tok := range tokens {
		var val uint64
		var ok bool

		// Try register name first (if CPU available)
		if cpu != nil {
			val, ok = cpu.GetRegister(strings.ToUpper(tok.text))
		}
		if !ok {
			val, ok = ParseAddress(tok.text)
		}
		if !ok {
			return 0, false
		}

		switch tok.op {
		case 0, '+':
			result += val
		case '-':
			result -= val
		}
	}

	return result, true
}

// ExecuteCommand dispatches a parsed command to the appropriate handler.
// Returns true if the monitor should deactivate and resume the machine.
// The caller holds the monitor lock; handlers never retake it, which
// keeps macro recursion safe.
func (m *MachineMonitor) ExecuteCommand(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}

	// Add to history
	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
	}

	switch cmd.Name {
	case "r":
		return m.cmdRegisters(cmd)
	case "d":
		return m.cmdDisassemble(cmd)
	case "m":
		return m.cmdMemoryDump(cmd)
	case "s":
		return m.cmdStep(cmd)
	case "bs":
		return m.cmdBackstep(cmd)
	case "g":
		return m.cmdGo(cmd)
	case "u":
		return m.cmdRunUntil(cmd)
	case "x":
		return m.cmdExit(cmd)
	case "q", "quit":
		return m.cmdQuit(cmd)
	case "b":
		return m.cmdBreakpointSet(cmd)
	case "bc":
		return m.cmdBreakpointClear(cmd)
	case "bl":
		return m.cmdBreakpointList(cmd)
	case "bt":
		return m.cmdBacktrace(cmd)
	case "f":
		return m.cmdFill(cmd)
	case "h":
		return m.cmdHunt(cmd)
	case "c":
		return m.cmdCompare(cmd)
	case "t":
		return m.cmdTransfer(cmd)
	case "w":
		return m.cmdWrite(cmd)
	case "save":
		return m.cmdSaveMemory(cmd)
	case "load":
		return m.cmdLoadMemory(cmd)
	case "ss":
		return m.cmdSaveState(cmd)
	case "sl":
		return m.cmdLoadState(cmd)
	case "io":
		return m.cmdIOView(cmd)
	case "cpu":
		return m.cmdCPU(cmd)
	case "freeze":
		return m.cmdFreeze(cmd)
	case "thaw":
		return m.cmdThaw(cmd)
	case "script":
		return m.cmdScript(cmd)
	case "macro":
		return m.cmdMacro(cmd)
	case "?", "help":
		return m.cmdHelp(cmd)
	default:
		// Check for macro invocation
		if cmds, ok := m.macros[cmd.Name]; ok {
			return m.executeMacro(cmds)
		}
		m.printLine(fmt.Sprintf("Unknown command: %s", cmd.Name), colorRed)
		return false
	}
}

func (m *MachineMonitor) cmdRegisters(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) >= 2 {
		// Set register: r <name> <value>
		name := cmd.Args[0]
		val, ok := ParseAddress(cmd.Args[1])
		if !ok {
			m.printLine(fmt.Sprintf("Invalid value: %s", cmd.Args[1]), colorRed)
			return false
		}
		if entry.CPU.SetRegister(name, val) {
			m.printLine(fmt.Sprintf("%s = $%X", strings.ToUpper(name), val), colorGreen)
		} else {
			m.printLine(fmt.Sprintf("Unknown register: %s", name), colorRed)
		}
		return false
	}

	m.showRegisters()
	return false
}

func (m *MachineMonitor) showRegisters() {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		return
	}

	for _, r := range entry.CPU.GetRegisters() {
		color := uint32(colorWhite)
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			color = colorGreen
		}

		var line string
		if r.BitWidth <= 16 {
			line = fmt.Sprintf("%-4s $%04X", r.Name, r.Value)
			if r.Name == "SR" {
				line += "  " + formatSRFlags(uint16(r.Value))
			}
		} else {
			line = fmt.Sprintf("%-4s $%08X", r.Name, r.Value)
		}
		m.printLine(line, color)
	}
}

// formatSRFlags renders the status register as T S IPL X N Z V C.
func formatSRFlags(sr uint16) string {
	flag := func(bit uint16, set, clear byte) byte {
		if sr&bit != 0 {
			return set
		}
		return clear
	}
	return fmt.Sprintf("%c%c ipl=%d %c%c%c%c%c",
		flag(M68K_SR_T, 'T', '-'),
		flag(M68K_SR_S, 'S', '-'),
		(sr>>8)&7,
		flag(M68K_SR_X, 'X', '-'),
		flag(M68K_SR_N, 'N', '-'),
		flag(M68K_SR_Z, 'Z', '-'),
		flag(M68K_SR_V, 'V', '-'),
		flag(M68K_SR_C, 'C', '-'))
}

func (m *MachineMonitor) cmdDisassemble(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	addr := entry.CPU.GetPC()
	count := 16

	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], entry.CPU); ok {
			addr = v
		}
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			count = int(v)
		}
	}

	m.showDisassemblyAt(addr, count)
	return false
}

func (m *MachineMonitor) showDisassembly(addr uint64, count int) {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		return
	}
	if addr == 0 {
		addr = entry.CPU.GetPC()
	}
	m.showDisassemblyAt(addr, count)
}

func (m *MachineMonitor) showDisassemblyAt(addr uint64, count int) {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		return
	}

	lines := entry.CPU.Disassemble(addr, count)

	// Build set of addresses in the visible window for branch target markers
	addrSet := make(map[uint64]bool, len(lines))
	for _, line := range lines {
		addrSet[line.Address] = true
	}
	// Mark which addresses are targeted by branches in the window
	targetSet := make(map[uint64]bool)
	for _, line := range lines {
		if line.IsBranch && line.BranchTarget != 0 && addrSet[line.BranchTarget] {
			targetSet[line.BranchTarget] = true
		}
	}

	for _, line := range lines {
		color := uint32(colorWhite)
		prefix := "  "
		if line.IsPC {
			color = colorYellow
			prefix = "> "
		}
		if entry.CPU.HasBreakpoint(line.Address) {
			prefix = "* "
			if !line.IsPC {
				color = colorRed
			}
		}
		if targetSet[line.Address] {
			prefix = "T "
		}

		// Branch annotation suffix
		suffix := ""
		if line.IsBranch && line.BranchTarget != 0 {
			if line.BranchTarget < line.Address {
				suffix = " <- LOOP"
				if color == colorWhite {
					color = colorMagenta
				}
			}
		}

		text := fmt.Sprintf("%s%06X: %-24s %s%s", prefix, line.Address, line.HexBytes, line.Mnemonic, suffix)
		m.printLine(text, color)
	}
}

func (m *MachineMonitor) cmdMemoryDump(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	addr := entry.CPU.GetPC()
	lines := 8

	if len(cmd.Args) >= 1 {
		if v, ok := EvalAddress(cmd.Args[0], entry.CPU); ok {
			addr = v
		}
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			lines = int(v)
		}
	}

	for i := 0; i < lines; i++ {
		data := entry.CPU.ReadMemory(addr, 16)
		if len(data) == 0 {
			break
		}

		var hexParts []string
		var asciiParts []byte
		for j := range 16 {
			if j < len(data) {
				hexParts = append(hexParts, fmt.Sprintf("%02X", data[j]))
				if data[j] >= 0x20 && data[j] < 0x7F {
					asciiParts = append(asciiParts, data[j])
				} else {
					asciiParts = append(asciiParts, '.')
				}
			} else {
				hexParts = append(hexParts, "  ")
				asciiParts = append(asciiParts, ' ')
			}
		}

		hexStr := strings.Join(hexParts[:8], " ") + "  " + strings.Join(hexParts[8:], " ")
		text := fmt.Sprintf("%06X: %s  %s", addr, hexStr, string(asciiParts))
		m.printLine(text, colorWhite)
		addr += 16
	}
	return false
}

func (m *MachineMonitor) cmdStep(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	count := 1
	if len(cmd.Args) >= 1 {
		if v, ok := ParseAddress(cmd.Args[0]); ok {
			count = int(v)
		}
	}

	// Snapshot before stepping (for backstep), per-CPU history
	snap := TakeSnapshot(entry.CPU)
	cpuID := m.focusedID
	m.stepHistory[cpuID] = append(m.stepHistory[cpuID], snap)
	if len(m.stepHistory[cpuID]) > m.maxBackstep {
		m.stepHistory[cpuID] = m.stepHistory[cpuID][len(m.stepHistory[cpuID])-m.maxBackstep:]
	}

	totalCycles := 0
	for i := 0; i < count; i++ {
		cycles := entry.CPU.Step()
		totalCycles += cycles
	}

	m.printLine(fmt.Sprintf("Step: %d instruction(s), %d cycle(s)", count, totalCycles), colorCyan)

	// Show changed registers
	regs := entry.CPU.GetRegisters()
	for _, r := range regs {
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			m.printLine(fmt.Sprintf("  %s: $%X -> $%X", r.Name, prev, r.Value), colorGreen)
		}
	}
	m.saveCurrentRegs()

	// Show next instruction
	m.showDisassembly(0, 1)
	return false
}

func (m *MachineMonitor) cmdBackstep(_ MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	cpuID := m.focusedID
	hist := m.stepHistory[cpuID]
	if len(hist) == 0 {
		m.printLine("No step history available", colorRed)
		return false
	}

	snap := hist[len(hist)-1]
	m.stepHistory[cpuID] = hist[:len(hist)-1]

	RestoreSnapshot(entry.CPU, snap)

	m.printLine(fmt.Sprintf("Backstep: restored to PC=$%X (CPU+memory)", entry.CPU.GetPC()), colorCyan)

	// Show changed registers
	regs := entry.CPU.GetRegisters()
	for _, r := range regs {
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			m.printLine(fmt.Sprintf("  %s: $%X -> $%X", r.Name, prev, r.Value), colorGreen)
		}
	}
	m.saveCurrentRegs()
	m.showDisassembly(0, 1)
	return false
}

func (m *MachineMonitor) cmdGo(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry != nil {
		if len(cmd.Args) >= 1 {
			if v, ok := EvalAddress(cmd.Args[0], entry.CPU); ok {
				entry.CPU.SetPC(v)
			}
		}
		// g means run: resume this CPU on exit even when the machine was
		// booted frozen and nothing was running at activation.
		if m.wasRunning == nil {
			m.wasRunning = make(map[int]bool)
		}
		m.wasRunning[m.focusedID] = true
	}
	return true // exit monitor
}

func (m *MachineMonitor) cmdRunUntil(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 1 {
		m.printLine("Usage: u <addr>", colorRed)
		return false
	}

	addr, ok := EvalAddress(cmd.Args[0], entry.CPU)
	if !ok {
		m.printLine(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}

	if bp := entry.CPU.GetConditionalBreakpoint(addr); bp != nil {
		// A conditional breakpoint exists. Strip the condition so
		// run-until always stops, saving the original for restore.
		if m.savedConditions[m.focusedID] == nil {
			m.savedConditions[m.focusedID] = make(map[uint64]*BreakpointCondition)
		}
		m.savedConditions[m.focusedID][addr] = bp.Condition
		entry.CPU.SetConditionalBreakpoint(addr, nil)
	} else if !entry.CPU.HasBreakpoint(addr) {
		// No breakpoint exists, plant a temporary unconditional one
		entry.CPU.SetBreakpoint(addr)
		if m.tempBreakpoints[m.focusedID] == nil {
			m.tempBreakpoints[m.focusedID] = make(map[uint64]bool)
		}
		m.tempBreakpoints[m.focusedID][addr] = true
	}
	// else: an unconditional breakpoint already exists and fires on its own

	m.printLine(fmt.Sprintf("Run until $%X", addr), colorCyan)
	return true // exit monitor to resume execution
}

func (m *MachineMonitor) cmdExit(_ MonitorCommand) bool {
	return true // exit monitor, machine resumes
}

func (m *MachineMonitor) cmdQuit(_ MonitorCommand) bool {
	m.quit = true
	return true
}

func (m *MachineMonitor) cmdBreakpointSet(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 1 {
		m.printLine("Usage: b <addr> [condition]", colorRed)
		return false
	}

	addr, ok := EvalAddress(cmd.Args[0], entry.CPU)
	if !ok {
		m.printLine(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}

	// Optional condition
	if len(cmd.Args) >= 2 {
		condStr := strings.Join(cmd.Args[1:], " ")
		cond, err := ParseCondition(condStr)
		if err != nil {
			m.printLine(fmt.Sprintf("Invalid condition: %s", err), colorRed)
			return false
		}
		entry.CPU.SetConditionalBreakpoint(addr, cond)
		m.printLine(fmt.Sprintf("Breakpoint set at $%X if %s", addr, FormatCondition(cond)), colorCyan)
	} else {
		entry.CPU.SetBreakpoint(addr)
		m.printLine(fmt.Sprintf("Breakpoint set at $%X", addr), colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointClear(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 1 {
		m.printLine("Usage: bc <addr> | bc *", colorRed)
		return false
	}

	if cmd.Args[0] == "*" {
		entry.CPU.ClearAllBreakpoints()
		// Discard any saved conditions for this CPU since the breakpoints are gone
		delete(m.savedConditions, m.focusedID)
		delete(m.tempBreakpoints, m.focusedID)
		m.printLine("All breakpoints cleared", colorCyan)
		return false
	}

	addr, ok := ParseAddress(cmd.Args[0])
	if !ok {
		m.printLine(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}

	if entry.CPU.ClearBreakpoint(addr) {
		// Discard any saved condition for this address
		if saved, ok := m.savedConditions[m.focusedID]; ok {
			delete(saved, addr)
			if len(saved) == 0 {
				delete(m.savedConditions, m.focusedID)
			}
		}
		m.printLine(fmt.Sprintf("Breakpoint cleared at $%X", addr), colorCyan)
	} else {
		m.printLine(fmt.Sprintf("No breakpoint at $%X", addr), colorRed)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointList(_ MonitorCommand) bool {
	total := 0
	for _, entry := range m.cpus {
		for _, addr := range entry.CPU.ListBreakpoints() {
			condStr := ""
			hitStr := ""
			if bp := entry.CPU.GetConditionalBreakpoint(addr); bp != nil {
				condStr = " if " + FormatCondition(bp.Condition)
				if bp.HitCount > 0 {
					hitStr = fmt.Sprintf(" (hits:%d)", bp.HitCount)
				}
			}
			m.printLine(fmt.Sprintf("$%X%s%s (id:%d %s)", addr, condStr, hitStr, entry.ID, entry.Label), colorCyan)
			total++
		}
	}
	if total == 0 {
		m.printLine("No breakpoints", colorDim)
	}
	return false
}

func (m *MachineMonitor) cmdBacktrace(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	depth := 16
	if len(cmd.Args) >= 1 {
		if v, ok := ParseAddress(cmd.Args[0]); ok {
			depth = int(v)
		}
	}

	addrs := backtrace(entry.CPU, depth)
	if len(addrs) == 0 {
		m.printLine("No stack frames found", colorDim)
		return false
	}

	for i, addr := range addrs {
		m.printLine(fmt.Sprintf("#%-3d $%06X", i, addr), colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdFill(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 3 {
		m.printLine("Usage: f <start> <end> <byte>", colorRed)
		return false
	}

	start, ok1 := ParseAddress(cmd.Args[0])
	end, ok2 := ParseAddress(cmd.Args[1])
	val, ok3 := ParseAddress(cmd.Args[2])
	if !ok1 || !ok2 || !ok3 {
		m.printLine("Invalid argument", colorRed)
		return false
	}

	size := int(end - start + 1)
	if size <= 0 || size > 0x100000 {
		m.printLine("Invalid range", colorRed)
		return false
	}

	data := make([]byte, size)
	for i := range data {
		data[i] = byte(val)
	}
	entry.CPU.WriteMemory(start, data)
	m.printLine(fmt.Sprintf("Filled $%X-$%X with $%02X", start, end, byte(val)), colorCyan)
	return false
}

func (m *MachineMonitor) cmdHunt(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 3 {
		m.printLine("Usage: h <start> <end> <bytes..>", colorRed)
		return false
	}

	start, ok1 := ParseAddress(cmd.Args[0])
	end, ok2 := ParseAddress(cmd.Args[1])
	if !ok1 || !ok2 {
		m.printLine("Invalid argument", colorRed)
		return false
	}

	var pattern []byte
	for _, arg := range cmd.Args[2:] {
		v, ok := ParseAddress(arg)
		if !ok {
			m.printLine(fmt.Sprintf("Invalid byte: %s", arg), colorRed)
			return false
		}
		pattern = append(pattern, byte(v))
	}

	found := 0
	for addr := start; addr <= end-uint64(len(pattern))+1; addr++ {
		data := entry.CPU.ReadMemory(addr, len(pattern))
		if len(data) < len(pattern) {
			break
		}
		match := true
		for i := range pattern {
			if data[i] != pattern[i] {
				match = false
				break
			}
		}
		if match {
			m.printLine(fmt.Sprintf("Found at $%X", addr), colorCyan)
			found++
			if found >= 256 {
				m.printLine("... (truncated)", colorDim)
				break
			}
		}
	}
	if found == 0 {
		m.printLine("Not found", colorDim)
	}
	return false
}

func (m *MachineMonitor) cmdCompare(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 3 {
		m.printLine("Usage: c <start> <end> <dest>", colorRed)
		return false
	}

	start, ok1 := ParseAddress(cmd.Args[0])
	end, ok2 := ParseAddress(cmd.Args[1])
	dest, ok3 := ParseAddress(cmd.Args[2])
	if !ok1 || !ok2 || !ok3 {
		m.printLine("Invalid argument", colorRed)
		return false
	}

	size := int(end - start + 1)
	if size <= 0 {
		return false
	}

	data1 := entry.CPU.ReadMemory(start, size)
	data2 := entry.CPU.ReadMemory(dest, size)
	diffs := 0
	for i := 0; i < len(data1) && i < len(data2); i++ {
		if data1[i] != data2[i] {
			m.printLine(fmt.Sprintf("$%X: %02X != %02X (at $%X)", start+uint64(i), data1[i], data2[i], dest+uint64(i)), colorYellow)
			diffs++
			if diffs >= 256 {
				m.printLine("... (truncated)", colorDim)
				break
			}
		}
	}
	if diffs == 0 {
		m.printLine("Identical", colorGreen)
	}
	return false
}

func (m *MachineMonitor) cmdTransfer(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 3 {
		m.printLine("Usage: t <start> <end> <dest>", colorRed)
		return false
	}

	start, ok1 := ParseAddress(cmd.Args[0])
	end, ok2 := ParseAddress(cmd.Args[1])
	dest, ok3 := ParseAddress(cmd.Args[2])
	if !ok1 || !ok2 || !ok3 {
		m.printLine("Invalid argument", colorRed)
		return false
	}

	size := int(end - start + 1)
	if size <= 0 {
		return false
	}

	data := entry.CPU.ReadMemory(start, size)
	entry.CPU.WriteMemory(dest, data)
	m.printLine(fmt.Sprintf("Transferred %d bytes from $%X to $%X", size, start, dest), colorCyan)
	return false
}

func (m *MachineMonitor) cmdWrite(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 2 {
		m.printLine("Usage: w <addr> <bytes..>", colorRed)
		return false
	}

	addr, ok := ParseAddress(cmd.Args[0])
	if !ok {
		m.printLine(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}

	var data []byte
	for _, arg := range cmd.Args[1:] {
		v, ok := ParseAddress(arg)
		if !ok {
			m.printLine(fmt.Sprintf("Invalid byte: %s", arg), colorRed)
			return false
		}
		data = append(data, byte(v))
	}

	entry.CPU.WriteMemory(addr, data)
	m.printLine(fmt.Sprintf("Wrote %d byte(s) at $%X", len(data), addr), colorCyan)
	return false
}

func (m *MachineMonitor) cmdSaveMemory(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 3 {
		m.printLine("Usage: save <start> <end> <filename>", colorRed)
		return false
	}

	start, ok1 := EvalAddress(cmd.Args[0], entry.CPU)
	end, ok2 := EvalAddress(cmd.Args[1], entry.CPU)
	if !ok1 || !ok2 {
		m.printLine("Invalid address", colorRed)
		return false
	}
	if end < start {
		m.printLine("End must be >= start", colorRed)
		return false
	}

	size := int(end - start + 1)
	if size > M68K_MEMORY_SIZE {
		m.printLine("Range too large (max 16MB)", colorRed)
		return false
	}

	data := entry.CPU.ReadMemory(start, size)
	if err := os.WriteFile(cmd.Args[2], data, 0644); err != nil {
		m.printLine(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}

	m.printLine(fmt.Sprintf("Saved %d bytes ($%X-$%X) to %s", size, start, end, cmd.Args[2]), colorCyan)
	return false
}

func (m *MachineMonitor) cmdLoadMemory(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 2 {
		m.printLine("Usage: load <filename> <addr>", colorRed)
		return false
	}

	data, err := os.ReadFile(cmd.Args[0])
	if err != nil {
		m.printLine(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}

	if len(data) > M68K_MEMORY_SIZE {
		m.printLine("File too large (max 16MB)", colorRed)
		return false
	}

	addr, ok := EvalAddress(cmd.Args[1], entry.CPU)
	if !ok {
		m.printLine(fmt.Sprintf("Invalid address: %s", cmd.Args[1]), colorRed)
		return false
	}

	entry.CPU.WriteMemory(addr, data)
	m.printLine(fmt.Sprintf("Loaded %d bytes from %s to $%X", len(data), cmd.Args[0], addr), colorCyan)
	return false
}

func (m *MachineMonitor) cmdSaveState(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	filename := "snapshot.i68"
	if len(cmd.Args) >= 1 {
		filename = cmd.Args[0]
	}

	snap := TakeSnapshot(entry.CPU)
	if err := SaveSnapshotToFile(snap, filename); err != nil {
		m.printLine(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}

	m.printLine(fmt.Sprintf("State saved to %s (CPU+memory)", filename), colorCyan)
	return false
}

func (m *MachineMonitor) cmdLoadState(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	filename := "snapshot.i68"
	if len(cmd.Args) >= 1 {
		filename = cmd.Args[0]
	}

	snap, err := LoadSnapshotFromFile(filename)
	if err != nil {
		m.printLine(fmt.Sprintf("Error: %s", err), colorRed)
		return false
	}

	RestoreSnapshot(entry.CPU, snap)
	m.saveCurrentRegs()
	m.printLine(fmt.Sprintf("State loaded from %s (CPU+memory)", filename), colorCyan)
	m.showRegisters()
	m.showDisassembly(0, 8)
	return false
}

func (m *MachineMonitor) cmdIOView(cmd MonitorCommand) bool {
	if m.machine == nil {
		m.printLine("No machine attached", colorRed)
		return false
	}

	if len(cmd.Args) == 0 {
		m.printLine("Available I/O devices:", colorCyan)
		for _, name := range m.listIODevices() {
			m.printLine(fmt.Sprintf("  %s", name), colorWhite)
		}
		return false
	}

	arg := strings.ToLower(cmd.Args[0])
	if arg == "all" {
		for _, name := range m.listIODevices() {
			for _, line := range m.formatIOView(name) {
				m.printLine(line, colorCyan)
			}
		}
		return false
	}

	for _, line := range m.formatIOView(arg) {
		m.printLine(line, colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdCPU(cmd MonitorCommand) bool {
	if len(cmd.Args) == 0 {
		// List all registered CPUs
		for _, entry := range m.cpus {
			status := "FROZEN"
			if entry.CPU.IsRunning() {
				status = "RUNNING"
			}
			focus := " "
			if entry.ID == m.focusedID {
				focus = "*"
			}
			m.printLine(fmt.Sprintf("%sid:%-3d %-12s [%-7s]  PC=$%X",
				focus, entry.ID, entry.Label, status, entry.CPU.GetPC()), colorWhite)
		}
		return false
	}

	// Switch focus by ID or label
	entry := m.findCPUByArg(cmd.Args[0])
	if entry == nil {
		return false
	}
	m.focusedID = entry.ID
	m.saveCurrentRegs()
	m.printLine(fmt.Sprintf("Focused on id:%d %s", entry.ID, entry.Label), colorCyan)
	m.showRegisters()
	m.showDisassembly(0, 8)
	return false
}

func (m *MachineMonitor) cmdFreeze(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.printLine("Usage: freeze <id|label|*>", colorRed)
		return false
	}

	if cmd.Args[0] == "*" {
		for _, entry := range m.cpus {
			if entry.CPU.IsRunning() {
				entry.CPU.Freeze()
			}
		}
		m.printLine("All CPUs frozen", colorCyan)
		return false
	}

	entry := m.findCPUByArg(cmd.Args[0])
	if entry == nil {
		return false
	}

	if entry.CPU.IsRunning() {
		entry.CPU.Freeze()
		m.printLine(fmt.Sprintf("Frozen id:%d %s", entry.ID, entry.Label), colorCyan)
	} else {
		m.printLine(fmt.Sprintf("id:%d %s already frozen", entry.ID, entry.Label), colorDim)
	}
	return false
}

func (m *MachineMonitor) cmdThaw(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.printLine("Usage: thaw <id|label|*>", colorRed)
		return false
	}

	if cmd.Args[0] == "*" {
		for _, entry := range m.cpus {
			if !entry.CPU.IsRunning() {
				entry.CPU.Resume()
			}
		}
		m.printLine("All CPUs thawed", colorCyan)
		return false
	}

	entry := m.findCPUByArg(cmd.Args[0])
	if entry == nil {
		return false
	}

	if !entry.CPU.IsRunning() {
		entry.CPU.Resume()
		m.printLine(fmt.Sprintf("Thawed id:%d %s", entry.ID, entry.Label), colorCyan)
	} else {
		m.printLine(fmt.Sprintf("id:%d %s already running", entry.ID, entry.Label), colorDim)
	}
	return false
}

func (m *MachineMonitor) cmdScript(cmd MonitorCommand) bool {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		m.printLine("No CPU focused", colorRed)
		return false
	}

	if len(cmd.Args) < 1 {
		m.printLine("Usage: script <file.lua>", colorRed)
		return false
	}

	host := NewScriptHost(entry.CPU, m.out)
	defer host.Close()
	if err := host.RunFile(cmd.Args[0]); err != nil {
		m.printLine(fmt.Sprintf("Script error: %s", err), colorRed)
		return false
	}

	m.saveCurrentRegs()
	m.printLine(fmt.Sprintf("Script %s complete", cmd.Args[0]), colorCyan)
	return false
}

func (m *MachineMonitor) cmdMacro(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.printLine("Usage: macro <name> <cmd1> ; <cmd2> ; ...", colorRed)
		return false
	}

	name := strings.ToLower(cmd.Args[0])
	body := strings.Join(cmd.Args[1:], " ")
	cmds := strings.Split(body, ";")
	var cleaned []string
	for _, c := range cmds {
		c = strings.TrimSpace(c)
		if c != "" {
			cleaned = append(cleaned, c)
		}
	}

	m.macros[name] = cleaned
	m.printLine(fmt.Sprintf("Macro '%s' defined (%d commands)", name, len(cleaned)), colorCyan)
	return false
}

func (m *MachineMonitor) executeMacro(cmds []string) bool {
	m.scriptDepth++
	if m.scriptDepth > 8 {
		m.scriptDepth--
		m.printLine("Macro recursion limit reached", colorRed)
		return false
	}

	if slices.ContainsFunc(cmds, m.ExecuteCommand) {
		m.scriptDepth--
		return true
	}

	m.scriptDepth--
	return false
}

func (m *MachineMonitor) cmdHelp(_ MonitorCommand) bool {
	helpLines := []string{
		"Machine Monitor Commands:",
		"  r                  Show registers",
		"  r <name> <value>   Set register",
		"  d [addr] [count]   Disassemble",
		"  m [addr] [count]   Memory dump (hex+ASCII)",
		"  s [count]          Single-step",
		"  bs                 Backstep (undo last step, CPU+memory)",
		"  g [addr]           Go/continue (machine resumes)",
		"  u <addr>           Run until address",
		"  x                  Leave monitor, machine resumes",
		"  q                  Quit machine",
		"  b <addr> [cond]    Set breakpoint (optional condition)",
		"  bc <addr|*>        Clear breakpoint(s)",
		"  bl                 List breakpoints",
		"  bt [depth]         Stack backtrace",
		"  f <start> <end> <byte>    Fill memory",
		"  w <addr> <bytes..>        Write bytes",
		"  h <start> <end> <bytes..> Hunt/search",
		"  c <start> <end> <dest>    Compare memory",
		"  t <start> <end> <dest>    Transfer/copy memory",
		"  save <s> <e> <file>  Save memory to file",
		"  load <file> <addr>   Load file into memory",
		"  ss [file]          Save machine state",
		"  sl [file]          Load machine state",
		"  io [device|all]    I/O register viewer",
		"  script <file.lua>  Run Lua script",
		"  macro <name> <cmds..> Define macro (;-separated)",
		"  cpu                List CPUs",
		"  cpu <id|label>     Switch focused CPU",
		"  freeze <id|*>      Freeze CPU(s)",
		"  thaw <id|*>        Thaw CPU(s)",
		"",
		"Addresses: $hex, 0xhex, bare hex, #decimal, expr+expr",
		"Conditions: reg==val, [$addr]==val, hitcount>val",
		"Ctrl-C at the prompt breaks into a running machine",
	}
	for _, line := range helpLines {
		m.printLine(line, colorCyan)
	}
	return false
}

// findCPUByArg resolves an ID or label argument to a CPUEntry.
func (m *MachineMonitor) findCPUByArg(arg string) *CPUEntry {
	if id, err := strconv.Atoi(arg); err == nil {
		if entry, ok := m.cpus[id]; ok {
			return entry
		}
		m.printLine(fmt.Sprintf("No CPU with id:%d", id), colorRed)
		return nil
	}

	var matches []*CPUEntry
	for _, entry := range m.cpus {
		if strings.EqualFold(entry.Label, arg) {
			matches = append(matches, entry)
		}
	}

	if len(matches) == 1 {
		return matches[0]
	}
	if len(matches) > 1 {
		m.printLine("Ambiguous label, use ID:", colorRed)
		for _, e := range matches {
			m.printLine(fmt.Sprintf("  id:%d %s", e.ID, e.Label), colorWhite)
		}
		return nil
	}

	m.printLine(fmt.Sprintf("No CPU matching '%s'", arg), colorRed)
	return nil
}
