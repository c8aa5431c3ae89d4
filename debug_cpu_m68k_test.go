// debug_cpu_m68k_test.go - 68000 debug adapter: registers, memory, breakpoints, trap loop

package main

import (
	"testing"
	"time"
)

func newDebugAdapter() (*M68KCPU, *DebugM68K) {
	cpu := NewM68KCPU(NewMachineBus())
	cpu.SetRunning(false)
	return cpu, NewDebugM68K(cpu, nil)
}

func TestDebugM68KIdentity(t *testing.T) {
	_, adapter := newDebugAdapter()
	if adapter.CPUName() != "M68K" {
		t.Errorf("CPUName = %q, want M68K", adapter.CPUName())
	}
	if adapter.AddressWidth() != 24 {
		t.Errorf("AddressWidth = %d, want 24", adapter.AddressWidth())
	}
}

func TestDebugM68KGetRegisters(t *testing.T) {
	cpu, adapter := newDebugAdapter()
	cpu.DataRegs[5] = 0x12345678

	regs := adapter.GetRegisters()
	if len(regs) != 19 {
		t.Fatalf("got %d registers, want 19 (D0-D7, A0-A7, PC, SR, USP)", len(regs))
	}

	byName := make(map[string]RegisterInfo)
	for _, r := range regs {
		byName[r.Name] = r
	}

	if r := byName["D5"]; r.Value != 0x12345678 || r.BitWidth != 32 {
		t.Errorf("D5 = {$%X %d}, want {$12345678 32}", r.Value, r.BitWidth)
	}
	if r := byName["A7"]; r.Value != M68K_STACK_START {
		t.Errorf("A7 = $%X, want power-on stack $%X", r.Value, uint64(M68K_STACK_START))
	}
	if r := byName["PC"]; r.Value != M68K_ENTRY_POINT {
		t.Errorf("PC = $%X, want $%X", r.Value, uint64(M68K_ENTRY_POINT))
	}
	if r := byName["SR"]; r.BitWidth != 16 || r.Group != "flags" {
		t.Errorf("SR = {%d %q}, want 16-bit flags group", r.BitWidth, r.Group)
	}

	// The supervisor stack pointer is live in A7 here, so the snapshot
	// deliberately carries USP but not SSP.
	if _, ok := byName["SSP"]; ok {
		t.Error("register snapshot should not include SSP")
	}
	if _, ok := byName["USP"]; !ok {
		t.Error("register snapshot should include USP")
	}
}

func TestDebugM68KGetSetRegister(t *testing.T) {
	cpu, adapter := newDebugAdapter()

	if !adapter.SetRegister("d5", 0xCAFE) {
		t.Fatal("SetRegister d5 failed")
	}
	if cpu.DataRegs[5] != 0xCAFE {
		t.Errorf("D5 = %X, want CAFE", cpu.DataRegs[5])
	}
	if v, ok := adapter.GetRegister("D5"); !ok || v != 0xCAFE {
		t.Errorf("GetRegister(D5) = (%X, %v)", v, ok)
	}

	adapter.SetRegister("a3", 0x8000)
	if v, _ := adapter.GetRegister("A3"); v != 0x8000 {
		t.Errorf("A3 = %X, want 8000", v)
	}

	adapter.SetRegister("pc", 0x1000)
	if cpu.PC != 0x1000 {
		t.Errorf("PC = %X, want 1000", cpu.PC)
	}

	// SSP is reachable by name even though GetRegisters omits it
	adapter.SetRegister("ssp", 0xF000)
	if v, ok := adapter.GetRegister("SSP"); !ok || v != 0xF000 {
		t.Errorf("SSP = (%X, %v), want F000", v, ok)
	}

	// SR writes drop the bits a 68000 does not implement
	adapter.SetRegister("SR", 0xFFFF)
	if cpu.SR != M68K_SR_VALID {
		t.Errorf("SR = %04X, want %04X", cpu.SR, uint16(M68K_SR_VALID))
	}

	if adapter.SetRegister("X9", 1) {
		t.Error("SetRegister should reject unknown names")
	}
	if _, ok := adapter.GetRegister("X9"); ok {
		t.Error("GetRegister should reject unknown names")
	}
}

func TestDebugM68KReadWriteMemoryBounds(t *testing.T) {
	_, adapter := newDebugAdapter()

	adapter.WriteMemory(M68K_MEMORY_SIZE-2, []byte{0xAA, 0xBB})
	got := adapter.ReadMemory(M68K_MEMORY_SIZE-2, 2)
	if len(got) != 2 || got[0] != 0xAA || got[1] != 0xBB {
		t.Errorf("read back % X, want AA BB", got)
	}

	// Reads truncate at the end of memory
	got = adapter.ReadMemory(M68K_MEMORY_SIZE-2, 4)
	if len(got) != 2 {
		t.Errorf("truncated read returned %d bytes, want 2", len(got))
	}
	if adapter.ReadMemory(M68K_MEMORY_SIZE, 1) != nil {
		t.Error("read past end of memory should return nil")
	}

	// Writes that would run off the end are dropped whole
	adapter.WriteMemory(M68K_MEMORY_SIZE-2, []byte{1, 2, 3, 4})
	got = adapter.ReadMemory(M68K_MEMORY_SIZE-2, 2)
	if got[0] != 0xAA || got[1] != 0xBB {
		t.Errorf("overflowing write should not land, got % X", got)
	}
}

func TestDebugPeekSkipsDeviceHandlers(t *testing.T) {
	bus := NewMachineBus()
	term := NewTerminalMMIO()
	bus.MapIO(TERM_STATUS, TERM_IN+1, term.HandleRead, term.HandleWrite)
	cpu := NewM68KCPU(bus)
	cpu.SetRunning(false)
	adapter := NewDebugM68K(cpu, nil)

	term.EnqueueInput('A')
	if !term.InputPending() {
		t.Fatal("input should be pending")
	}

	// A debugger peek at the console data port must not dequeue
	adapter.ReadMemory(TERM_IN, 1)
	if !term.InputPending() {
		t.Error("debug read consumed console input")
	}

	// A real bus read does
	if got := bus.Read8(TERM_IN); got != 'A' {
		t.Errorf("bus read = %q, want 'A'", got)
	}
	if term.InputPending() {
		t.Error("bus read should have consumed the queued byte")
	}
}

func TestDebugM68KStep(t *testing.T) {
	cpu, adapter := newDebugAdapter()
	monWriteWords(cpu, PROG_START, 0x4E71) // NOP

	cycles := adapter.Step()
	if cycles <= 0 {
		t.Errorf("Step returned %d cycles, want > 0", cycles)
	}
	if cpu.PC != PROG_START+2 {
		t.Errorf("PC = %X, want %X", cpu.PC, PROG_START+2)
	}

	// A halted CPU reports zero cycles, which ends trap stepping
	cpu.halted.Store(true)
	if got := adapter.Step(); got != 0 {
		t.Errorf("Step on halted CPU = %d, want 0", got)
	}
}

func TestDebugM68KBreakpointCRUD(t *testing.T) {
	_, adapter := newDebugAdapter()

	if !adapter.SetBreakpoint(0x1000) {
		t.Fatal("SetBreakpoint failed")
	}
	if !adapter.HasBreakpoint(0x1000) {
		t.Error("breakpoint should be armed")
	}
	if got := adapter.ListBreakpoints(); len(got) != 1 || got[0] != 0x1000 {
		t.Errorf("ListBreakpoints = %X, want [1000]", got)
	}

	// Re-arming an existing conditional breakpoint keeps its condition
	cond, _ := ParseCondition("d0==5")
	adapter.SetConditionalBreakpoint(0x2000, cond)
	adapter.SetBreakpoint(0x2000)
	if adapter.GetConditionalBreakpoint(0x2000) == nil {
		t.Error("SetBreakpoint should not clobber an existing condition")
	}

	if got := adapter.ListConditionalBreakpoints(); len(got) != 1 || got[0].Address != 0x2000 {
		t.Errorf("ListConditionalBreakpoints wrong: %+v", got)
	}

	if !adapter.ClearBreakpoint(0x1000) {
		t.Error("ClearBreakpoint should report removal")
	}
	if adapter.ClearBreakpoint(0x1000) {
		t.Error("ClearBreakpoint on missing address should report false")
	}

	adapter.ClearAllBreakpoints()
	if len(adapter.ListBreakpoints()) != 0 {
		t.Error("ClearAllBreakpoints left entries behind")
	}
}

func TestDebugM68KHitCountTrap(t *testing.T) {
	cpu, adapter := newDebugAdapter()
	monWriteNOPLoop(cpu)

	bpAddr := uint64(PROG_START + 4)
	cond, err := ParseCondition("hitcount>#2")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	adapter.SetConditionalBreakpoint(bpAddr, cond)

	events := make(chan BreakpointEvent, 1)
	adapter.SetBreakpointChannel(events, 7)
	adapter.Resume()

	select {
	case ev := <-events:
		if ev.Address != bpAddr {
			t.Errorf("event address = %X, want %X", ev.Address, bpAddr)
		}
		if ev.CPUID != 7 {
			t.Errorf("event CPUID = %d, want 7", ev.CPUID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for conditional breakpoint")
	}

	// Fires on the third arrival, and every pass counted
	bp := adapter.GetConditionalBreakpoint(bpAddr)
	if bp == nil || bp.HitCount != 3 {
		t.Errorf("HitCount = %v, want 3", bp)
	}
}

func TestDebugM68KFreezeDuringTrap(t *testing.T) {
	cpu, adapter := newDebugAdapter()
	monWriteNOPLoop(cpu)

	// A condition that never holds keeps the trap loop spinning
	cond, _ := ParseCondition("d0==$DEAD")
	adapter.SetConditionalBreakpoint(uint64(PROG_START+4), cond)
	adapter.Resume()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && !adapter.IsRunning() {
		time.Sleep(time.Millisecond)
	}
	if !adapter.IsRunning() {
		t.Fatal("trap loop should be running")
	}

	adapter.Freeze()
	if adapter.IsRunning() {
		t.Error("Freeze should stop the trap loop")
	}
	if cpu.PC < PROG_START || cpu.PC > PROG_START+21 {
		t.Errorf("PC = %X, want inside the loop body", cpu.PC)
	}
}

func TestDebugM68KDisassemblePCMark(t *testing.T) {
	cpu, adapter := newDebugAdapter()
	monWriteWords(cpu, PROG_START, 0x4E71, 0x4E71)

	lines := adapter.Disassemble(PROG_START, 2)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Address != PROG_START || !lines[0].IsPC {
		t.Errorf("line 0 = {%X %v}, want PC-marked $400", lines[0].Address, lines[0].IsPC)
	}
	if lines[1].Address != PROG_START+2 || lines[1].IsPC {
		t.Errorf("line 1 = {%X %v}, want unmarked $402", lines[1].Address, lines[1].IsPC)
	}
}
