// debug_cpu_m68k.go - 68000 debug adapter for the machine monitor

package main

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

type DebugM68K struct {
	cpu     *M68KCPU
	machine *Machine // nil when the CPU is driven standalone

	bpMu        sync.RWMutex
	breakpoints map[uint64]*ConditionalBreakpoint
	bpChan      chan<- BreakpointEvent
	cpuID       int
	trapRunning atomic.Bool
	trapStop    chan struct{}
}

func NewDebugM68K(cpu *M68KCPU, machine *Machine) *DebugM68K {
	return &DebugM68K{
		cpu:         cpu,
		machine:     machine,
		breakpoints: make(map[uint64]*ConditionalBreakpoint),
	}
}

func (d *DebugM68K) CPUName() string   { return "M68K" }
func (d *DebugM68K) AddressWidth() int { return 24 }

func (d *DebugM68K) GetRegisters() []RegisterInfo {
	c := d.cpu
	regs := make([]RegisterInfo, 0, 19)
	for i := 0; i < 8; i++ {
		regs = append(regs, RegisterInfo{
			Name: fmt.Sprintf("D%d", i), BitWidth: 32,
			Value: uint64(c.DataRegs[i]), Group: "general",
		})
	}
	for i := 0; i < 8; i++ {
		regs = append(regs, RegisterInfo{
			Name: fmt.Sprintf("A%d", i), BitWidth: 32,
			Value: uint64(c.AddrRegs[i]), Group: "general",
		})
	}
	regs = append(regs, RegisterInfo{Name: "PC", BitWidth: 32, Value: uint64(c.PC), Group: "general"})
	regs = append(regs, RegisterInfo{Name: "SR", BitWidth: 16, Value: uint64(c.SR), Group: "flags"})
	regs = append(regs, RegisterInfo{Name: "USP", BitWidth: 32, Value: uint64(c.USP), Group: "general"})
	return regs
}

func (d *DebugM68K) GetRegister(name string) (uint64, bool) {
	c := d.cpu
	upper := strings.ToUpper(name)
	switch {
	case upper == "PC":
		return uint64(c.PC), true
	case upper == "SR":
		return uint64(c.SR), true
	case upper == "USP":
		return uint64(c.USP), true
	case upper == "SSP":
		return uint64(c.SSP), true
	case len(upper) == 2 && upper[0] == 'D' && upper[1] >= '0' && upper[1] <= '7':
		return uint64(c.DataRegs[upper[1]-'0']), true
	case len(upper) == 2 && upper[0] == 'A' && upper[1] >= '0' && upper[1] <= '7':
		return uint64(c.AddrRegs[upper[1]-'0']), true
	}
	return 0, false
}

func (d *DebugM68K) SetRegister(name string, value uint64) bool {
	c := d.cpu
	v := uint32(value)
	upper := strings.ToUpper(name)
	switch {
	case upper == "PC":
		c.PC = v
	case upper == "SR":
		c.SR = uint16(value) & M68K_SR_VALID
	case upper == "USP":
		c.USP = v
	case upper == "SSP":
		c.SSP = v
	case len(upper) == 2 && upper[0] == 'D' && upper[1] >= '0' && upper[1] <= '7':
		c.DataRegs[upper[1]-'0'] = v
	case len(upper) == 2 && upper[0] == 'A' && upper[1] >= '0' && upper[1] <= '7':
		c.AddrRegs[upper[1]-'0'] = v
	default:
		return false
	}
	return true
}

func (d *DebugM68K) GetPC() uint64     { return uint64(d.cpu.PC) }
func (d *DebugM68K) SetPC(addr uint64) { d.cpu.PC = uint32(addr) }

func (d *DebugM68K) IsRunning() bool {
	return d.cpu.Running() || d.trapRunning.Load()
}

func (d *DebugM68K) Freeze() {
	if d.trapRunning.Load() {
		close(d.trapStop)
		for d.trapRunning.Load() {
		}
		return
	}
	if d.machine != nil {
		d.machine.FreezeCPU()
		return
	}
	d.cpu.SetRunning(false)
}

func (d *DebugM68K) Resume() {
	d.bpMu.RLock()
	hasBP := len(d.breakpoints) > 0
	d.bpMu.RUnlock()
	if hasBP {
		d.trapStop = make(chan struct{})
		d.trapRunning.Store(true)
		go d.trapLoop()
		return
	}
	if d.machine != nil {
		d.machine.ResumeCPU()
		return
	}
	d.cpu.SetRunning(true)
}

// trapLoop single-steps with breakpoint checks. The first instruction is
// always executed so that resuming on top of a breakpoint makes progress.
func (d *DebugM68K) trapLoop() {
	defer d.trapRunning.Store(false)
	defer d.cpu.SetRunning(false)
	d.cpu.SetRunning(true)
	first := true
	for {
		select {
		case <-d.trapStop:
			return
		default:
		}
		if !first {
			if addr, hit := d.breakpointHit(); hit {
				if d.bpChan != nil {
					select {
					case d.bpChan <- BreakpointEvent{CPUID: d.cpuID, Address: addr}:
					default:
					}
				}
				return
			}
		}
		first = false
		if d.cpu.StepOne() == 0 {
			return
		}
	}
}

// breakpointHit reports whether the current PC sits on an armed breakpoint
// whose condition, if any, holds. Hit counts advance on every arrival.
func (d *DebugM68K) breakpointHit() (uint64, bool) {
	pc := uint64(d.cpu.PC)
	d.bpMu.Lock()
	bp := d.breakpoints[pc]
	if bp == nil {
		d.bpMu.Unlock()
		return 0, false
	}
	bp.HitCount++
	cond := bp.Condition
	hits := bp.HitCount
	d.bpMu.Unlock()
	if cond == nil {
		return pc, true
	}
	return pc, evaluateCondition(cond, d, hits)
}

// Step runs one instruction and reports the cycles it consumed. A zero
// return means the CPU is halted or stopped and made no progress.
func (d *DebugM68K) Step() int {
	before := d.cpu.cycleCounter
	if d.cpu.StepOne() == 0 {
		return 0
	}
	if cycles := int(d.cpu.cycleCounter - before); cycles > 0 {
		return cycles
	}
	// An exception dispatched in place of a decoded instruction.
	return M68K_CYCLE_EXCEPTION
}

func (d *DebugM68K) Disassemble(addr uint64, count int) []DisassembledLine {
	pc := uint64(d.cpu.PC)
	lines := disassembleM68K(d.ReadMemory, addr, count)
	for i := range lines {
		if lines[i].Address == pc {
			lines[i].IsPC = true
		}
	}
	return lines
}

func (d *DebugM68K) SetBreakpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	if _, ok := d.breakpoints[addr]; !ok {
		d.breakpoints[addr] = &ConditionalBreakpoint{Address: addr}
	}
	return true
}

func (d *DebugM68K) SetConditionalBreakpoint(addr uint64, cond *BreakpointCondition) {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.breakpoints[addr] = &ConditionalBreakpoint{Address: addr, Condition: cond}
}

func (d *DebugM68K) GetConditionalBreakpoint(addr uint64) *ConditionalBreakpoint {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	bp := d.breakpoints[addr]
	if bp == nil || bp.Condition == nil {
		return nil
	}
	return bp
}

func (d *DebugM68K) ListConditionalBreakpoints() []*ConditionalBreakpoint {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	var result []*ConditionalBreakpoint
	for _, bp := range d.breakpoints {
		if bp.Condition != nil {
			result = append(result, bp)
		}
	}
	return result
}

func (d *DebugM68K) ClearBreakpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	if _, ok := d.breakpoints[addr]; ok {
		delete(d.breakpoints, addr)
		return true
	}
	return false
}

func (d *DebugM68K) ClearAllBreakpoints() {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.breakpoints = make(map[uint64]*ConditionalBreakpoint)
}

func (d *DebugM68K) ListBreakpoints() []uint64 {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	result := make([]uint64, 0, len(d.breakpoints))
	for addr := range d.breakpoints {
		result = append(result, addr)
	}
	return result
}

func (d *DebugM68K) HasBreakpoint(addr uint64) bool {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	return d.breakpoints[addr] != nil
}

// ReadMemory returns raw backing memory without MMIO side effects, so
// peeking at device registers never consumes input or acks status bits.
func (d *DebugM68K) ReadMemory(addr uint64, size int) []byte {
	mem := d.cpu.memory
	start := uint32(addr)
	if int(start)+size > len(mem) {
		end := len(mem)
		if int(start) >= end {
			return nil
		}
		return append([]byte{}, mem[start:end]...)
	}
	return append([]byte{}, mem[start:int(start)+size]...)
}

func (d *DebugM68K) WriteMemory(addr uint64, data []byte) {
	mem := d.cpu.memory
	start := uint32(addr)
	if int(start)+len(data) > len(mem) {
		return
	}
	copy(mem[start:], data)
}

func (d *DebugM68K) SetBreakpointChannel(ch chan<- BreakpointEvent, cpuID int) {
	d.bpChan = ch
	d.cpuID = cpuID
}
