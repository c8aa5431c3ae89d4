// debug_monitor.go - machine monitor core and console loop

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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

// MonitorState represents whether the monitor is active.
type MonitorState int

const (
	MonitorInactive MonitorState = iota
	MonitorActive
)

// CPUEntry associates a stable integer ID with a debuggable CPU.
type CPUEntry struct {
	ID    int
	Label string
	CPU   DebuggableCPU
}

// MachineMonitor is the core debugger state machine. Output goes straight
// to the console, so BREAK messages from the listener goroutine can land
// in the middle of a prompt line. That is the nature of a serial monitor.
type MachineMonitor struct {
	mu    sync.Mutex
	state MonitorState

	cpus      map[int]*CPUEntry
	nextID    int
	focusedID int

	breakpointChan chan BreakpointEvent

	out  io.Writer
	ansi bool

	history []string
	macros  map[string][]string

	scriptDepth int

	stepHistory map[int][]*MachineSnapshot
	maxBackstep int

	// Run-until bookkeeping: breakpoints planted by 'u' that must be
	// removed once hit, and conditions stripped by 'u' that must be
	// restored.
	tempBreakpoints map[int]map[uint64]bool
	savedConditions map[int]map[uint64]*BreakpointCondition

	wasRunning map[int]bool
	machine    *Machine // nil when driving a bare CPU in tests
	prevRegs   map[string]uint64

	quit bool
}

// NewMachineMonitor creates a monitor writing to out (stdout when nil).
func NewMachineMonitor(machine *Machine, out io.Writer) *MachineMonitor {
	if out == nil {
		out = os.Stdout
	}
	ansi := false
	if out == io.Writer(os.Stdout) {
		ansi = term.IsTerminal(int(os.Stdout.Fd()))
	}
	return &MachineMonitor{
		state:           MonitorInactive,
		cpus:            make(map[int]*CPUEntry),
		breakpointChan:  make(chan BreakpointEvent, 1),
		out:             out,
		ansi:            ansi,
		macros:          make(map[string][]string),
		stepHistory:     make(map[int][]*MachineSnapshot),
		maxBackstep:     8,
		tempBreakpoints: make(map[int]map[uint64]bool),
		savedConditions: make(map[int]map[uint64]*BreakpointCondition),
		wasRunning:      make(map[int]bool),
		machine:         machine,
		prevRegs:        make(map[string]uint64),
	}
}

// RegisterCPU adds a CPU to the monitor and returns its stable ID.
func (m *MachineMonitor) RegisterCPU(label string, cpu DebuggableCPU) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.cpus[id] = &CPUEntry{ID: id, Label: label, CPU: cpu}
	cpu.SetBreakpointChannel(m.breakpointChan, id)
	if len(m.cpus) == 1 {
		m.focusedID = id
	}
	return id
}

// IsActive returns whether the monitor currently holds the machine frozen.
func (m *MachineMonitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == MonitorActive
}

// FocusedCPU returns the currently focused CPU entry, or nil.
func (m *MachineMonitor) FocusedCPU() *CPUEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpus[m.focusedID]
}

// Activate freezes all CPUs and enters the monitor.
func (m *MachineMonitor) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorActive {
		return
	}
	m.state = MonitorActive
	m.wasRunning = make(map[int]bool)

	for id, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			m.wasRunning[id] = true
			entry.CPU.Freeze()
		}
	}

	// Save current register state for change highlighting
	m.saveCurrentRegs()

	m.printLine("MACHINE MONITOR - Type ? for help", colorCyan)
	m.showRegisters()
	m.showDisassembly(0, 8)
}

// Deactivate resumes previously-running CPUs and exits the monitor.
func (m *MachineMonitor) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorInactive {
		return
	}
	m.state = MonitorInactive

	for id, entry := range m.cpus {
		if m.wasRunning[id] {
			entry.CPU.Resume()
		}
	}
}

// printLine writes one styled line to the console.
func (m *MachineMonitor) printLine(text string, color uint32) {
	if m.ansi {
		if code := ansiCode(color); code != "" {
			fmt.Fprintf(m.out, "\x1b[%sm%s\x1b[0m\n", code, text)
			return
		}
	}
	fmt.Fprintln(m.out, text)
}

// saveCurrentRegs snapshots the focused CPU's registers for change detection.
func (m *MachineMonitor) saveCurrentRegs() {
	entry := m.cpus[m.focusedID]
	if entry == nil {
		return
	}
	m.prevRegs = make(map[string]uint64)
	for _, r := range entry.CPU.GetRegisters() {
		m.prevRegs[r.Name] = r.Value
	}
}

// StartBreakpointListener runs a background goroutine that watches for
// breakpoint events from any CPU and freezes the machine into the monitor.
func (m *MachineMonitor) StartBreakpointListener() {
	go func() {
		for ev := range m.breakpointChan {
			m.handleBreakpointHit(ev)
		}
	}()
}

// handleBreakpointHit freezes all CPUs, focuses on the one that hit,
// and activates the monitor.
func (m *MachineMonitor) handleBreakpointHit(ev BreakpointEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Snapshot which CPUs are running BEFORE freezing, so Deactivate
	// only resumes CPUs that were genuinely running. The CPU that hit
	// the breakpoint already stopped its own trapLoop, so IsRunning()
	// returns false for it. It is recorded explicitly below.
	wasRunning := make(map[int]bool)
	for id, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			wasRunning[id] = true
		}
	}
	wasRunning[ev.CPUID] = true

	for _, entry := range m.cpus {
		if entry.CPU.IsRunning() {
			entry.CPU.Freeze()
		}
	}

	m.cleanupRunUntil(ev.CPUID)

	entry := m.cpus[ev.CPUID]
	label := "???"
	if entry != nil {
		label = entry.Label
	}

	if m.state == MonitorActive {
		m.focusedID = ev.CPUID
		m.printLine(fmt.Sprintf("BREAK at $%X on %s (id:%d)", ev.Address, label, ev.CPUID), colorRed)
		m.saveCurrentRegs()
		m.showRegisters()
		m.showDisassembly(0, 8)
		return
	}

	m.state = MonitorActive
	m.wasRunning = wasRunning
	m.focusedID = ev.CPUID

	m.printLine(fmt.Sprintf("BREAK at $%X on %s (id:%d)", ev.Address, label, ev.CPUID), colorRed)
	m.saveCurrentRegs()
	m.showRegisters()
	m.showDisassembly(0, 8)
}

// cleanupRunUntil removes breakpoints planted by 'u' and restores any
// conditions 'u' stripped. Caller holds the lock.
func (m *MachineMonitor) cleanupRunUntil(cpuID int) {
	entry := m.cpus[cpuID]
	if entry == nil {
		return
	}
	if temps := m.tempBreakpoints[cpuID]; temps != nil {
		for addr := range temps {
			entry.CPU.ClearBreakpoint(addr)
		}
		delete(m.tempBreakpoints, cpuID)
	}
	if saved := m.savedConditions[cpuID]; saved != nil {
		for addr, cond := range saved {
			if entry.CPU.HasBreakpoint(addr) {
				entry.CPU.SetConditionalBreakpoint(addr, cond)
			}
		}
		delete(m.savedConditions, cpuID)
	}
}

// monitorCommands lists every command name for tab completion.
var monitorCommands = []string{
	"r", "d", "m", "s", "bs", "g", "u", "x", "q", "quit",
	"b", "bc", "bl", "bt", "f", "h", "c", "t", "w",
	"save", "load", "ss", "sl", "io", "cpu",
	"freeze", "thaw", "script", "macro", "help", "?",
}

// ConsoleLoop runs the interactive prompt until 'q' or end of input.
// Ctrl-C while the machine is running breaks into the monitor; while
// already stopped it just discards the current input line.
func (m *MachineMonitor) ConsoleLoop() {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(func(partial string) []string {
		if strings.ContainsRune(partial, ' ') {
			return nil
		}
		var out []string
		for _, c := range monitorCommands {
			if strings.HasPrefix(c, strings.ToLower(partial)) {
				out = append(out, c)
			}
		}
		return out
	})

	for {
		input, err := line.Prompt("68K> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				if !m.IsActive() {
					m.Activate()
				}
				continue
			}
			// EOF or a closed terminal: stop the machine and leave
			m.Deactivate()
			return
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		m.mu.Lock()
		exit := m.ExecuteCommand(input)
		quit := m.quit
		m.mu.Unlock()

		if quit {
			return
		}
		if exit {
			m.Deactivate()
		}
	}
}

// ansiCode maps a packed RGBA colour to an SGR code. White maps to the
// terminal default.
func ansiCode(color uint32) string {
	switch color {
	case colorCyan:
		return "36"
	case colorYellow:
		return "33"
	case colorRed:
		return "31"
	case colorGreen:
		return "32"
	case colorMagenta:
		return "35"
	case colorDim:
		return "90"
	default:
		return ""
	}
}

// Colour constants (RGBA packed as 0xRRGGBBAA)
const (
	colorWhite   = 0xFFFFFFFF
	colorCyan    = 0x64C8FFFF
	colorYellow  = 0xFFFF55FF
	colorRed     = 0xFF5555FF
	colorGreen   = 0x55FF55FF
	colorMagenta = 0xFF55FFFF
	colorDim     = 0x5555FFFF
)
