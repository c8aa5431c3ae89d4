// machine_config_test.go - machine assembly, boot contract and run-loop lifecycle

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// headlessConfig is the default machine with every device that owns a host
// resource (window, audio stream, timer goroutine) switched off. The terminal
// is pure state and stays on.
func headlessConfig() MachineConfig {
	cfg := DefaultConfig()
	cfg.EnableVideo = false
	cfg.EnablePSG = false
	cfg.EnableMFP = false
	return cfg
}

func workbenchHeadlessConfig() MachineConfig {
	cfg := WorkbenchConfig()
	cfg.EnableVideo = false
	cfg.EnablePSG = false
	cfg.EnableMFP = false
	return cfg
}

// bootMachine builds a machine, writes the programme to a scratch file and
// loads it through the boot contract. The machine is not started.
func bootMachine(t *testing.T, cfg MachineConfig, programme []byte) *Machine {
	t.Helper()
	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	path := filepath.Join(t.TempDir(), "programme.bin")
	if err := os.WriteFile(path, programme, 0o644); err != nil {
		t.Fatalf("writing programme: %v", err)
	}
	if _, err := m.LoadImage(path); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	return m
}

func waitDone(t *testing.T, m *Machine) {
	t.Helper()
	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("fetch loop did not exit")
	}
}

func loopRunning(m *Machine) bool {
	select {
	case <-m.Done():
		return false
	default:
		return true
	}
}

func TestNewMachineDeviceSelection(t *testing.T) {
	cfg := headlessConfig()
	cfg.EnableOracle = true

	m, err := NewMachine(cfg)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if m.Video != nil || m.PSG != nil || m.MFP != nil {
		t.Error("disabled devices should leave their fields nil")
	}
	if m.Terminal == nil {
		t.Error("terminal was enabled but not built")
	}
	if m.Oracle == nil {
		t.Error("oracle was enabled but not built")
	}

	cfg.EnableTerminal = false
	cfg.EnableOracle = false
	m2, err := NewMachine(cfg)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if m2.Terminal != nil || m2.Oracle != nil {
		t.Error("disabled terminal and oracle should leave their fields nil")
	}
}

func TestNewMachineRejectsBadSeeds(t *testing.T) {
	cfg := headlessConfig()
	cfg.RAMTop = 0x1000
	cfg.Seeds = []MemorySeed{{Addr: 0x2000, Size: SEED_LONG, Value: 1}}
	if _, err := NewMachine(cfg); err == nil {
		t.Error("seed outside RAM should fail machine construction")
	}

	cfg = headlessConfig()
	cfg.Seeds = []MemorySeed{{Addr: 0x100, Size: 3, Value: 1}}
	if _, err := NewMachine(cfg); err == nil {
		t.Error("seed with an impossible width should fail machine construction")
	}
}

func TestWorkbenchBootContract(t *testing.T) {
	m, err := NewMachine(workbenchHeadlessConfig())
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}

	// The CPU is built after the seeds land, so the power-on vector fetch
	// observes the seeded boot contract.
	if m.CPU.PC != WORKBENCH_ENTRY {
		t.Errorf("PC = $%06X, want $%06X", m.CPU.PC, uint32(WORKBENCH_ENTRY))
	}
	if m.CPU.AddrRegs[7] != WORKBENCH_SSP || m.CPU.SSP != WORKBENCH_SSP {
		t.Errorf("SSP = $%06X/$%06X, want $%06X",
			m.CPU.AddrRegs[7], m.CPU.SSP, uint32(WORKBENCH_SSP))
	}

	// System variables left behind for TOS-built programmes
	vars := []struct {
		addr uint32
		want uint32
	}{
		{0x000000, WORKBENCH_SSP},
		{0x000004, WORKBENCH_ENTRY},
		{0x000420, 0x752019F3},
		{0x00042E, WORKBENCH_PHYSTOP},
		{0x00043A, 0x237698AA},
		{0x00044E, VIDEO_VRAM_DEFAULT},
		{0x00051A, 0x5555AAAA},
	}
	for _, v := range vars {
		if got := m.Bus.Read32(v.addr); got != v.want {
			t.Errorf("system variable at $%06X = $%08X, want $%08X", v.addr, got, v.want)
		}
	}
	if got := m.Bus.Read16(0x0004A6); got != 0x0001 {
		t.Errorf("_nflops = %d, want 1", got)
	}
	if got := m.Bus.Read8(0x000424); got != 0x00 {
		t.Errorf("memcntlr = $%02X, want $00", got)
	}
}

func TestLoadImageBootContract(t *testing.T) {
	m := bootMachine(t, headlessConfig(), []byte{0x4E, 0x71, 0x4E, 0x75}) // NOP, RTS

	if m.CPU.PC != M68K_ENTRY_POINT {
		t.Errorf("PC = $%06X, want the configured entry $%06X",
			m.CPU.PC, uint32(M68K_ENTRY_POINT))
	}
	if m.CPU.AddrRegs[7] != M68K_STACK_START {
		t.Errorf("A7 = $%06X, want the configured SSP $%06X",
			m.CPU.AddrRegs[7], uint32(M68K_STACK_START))
	}
	if got := m.Bus.Read16(PROG_START); got != 0x4E71 {
		t.Errorf("programme word = $%04X, want $4E71", got)
	}
}

func TestLoadImageEntryPrecedence(t *testing.T) {
	m, err := NewMachine(headlessConfig())
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}

	// BRA.S at $000500 with a matching S9 entry record
	srec := "S105050060FE97\nS9030500F7\n"
	path := filepath.Join(t.TempDir(), "programme.srec")
	if err := os.WriteFile(path, []byte(srec), 0o644); err != nil {
		t.Fatalf("writing programme: %v", err)
	}

	img, err := m.LoadImage(path)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if !img.HasEntry {
		t.Fatal("S-record entry point was not reported")
	}
	if m.CPU.PC != 0x000500 {
		t.Errorf("PC = $%06X, want the image entry $000500", m.CPU.PC)
	}
}

func TestMachineStartStop(t *testing.T) {
	m := bootMachine(t, headlessConfig(), []byte{0x60, 0xFE}) // BRA.S *

	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("second Start should be a no-op: %v", err)
	}
	if !loopRunning(m) {
		t.Fatal("fetch loop exited straight after Start")
	}

	m.Stop()
	waitDone(t, m)
	m.Stop() // safe when already stopped
}

func TestMachineDoneOnDoubleFault(t *testing.T) {
	cfg := headlessConfig()
	cfg.RAMTop = 0x1000
	cfg.InitialSSP = 0x2000 // outside RAM: the exception frame push re-faults

	// MOVE.W $00FF0000,D0 reads unmapped space and takes a bus error
	m := bootMachine(t, cfg, []byte{0x30, 0x39, 0x00, 0xFF, 0x00, 0x00})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitDone(t, m)
	if !m.CPU.Halted() {
		t.Error("double fault should leave the processor halted")
	}
	m.Stop()
}

func TestFreezeResume(t *testing.T) {
	m := bootMachine(t, headlessConfig(), []byte{0x60, 0xFE})
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	m.FreezeCPU()
	pc := m.CPU.PC
	if pc != PROG_START && pc != PROG_START+2 {
		t.Errorf("frozen PC = $%06X, want inside the two-byte loop", pc)
	}

	m.ResumeCPU()
	if !loopRunning(m) {
		t.Fatal("fetch loop did not relaunch after ResumeCPU")
	}

	m.FreezeCPU()
	m.FreezeCPU() // idempotent on an already frozen machine
	pc = m.CPU.PC
	if pc != PROG_START && pc != PROG_START+2 {
		t.Errorf("refrozen PC = $%06X, want inside the two-byte loop", pc)
	}
}

func TestStartFrozen(t *testing.T) {
	m := bootMachine(t, headlessConfig(), []byte{0x60, 0xFE})
	if err := m.StartFrozen(); err != nil {
		t.Fatalf("StartFrozen: %v", err)
	}
	defer m.Stop()

	if m.CPU.PC != M68K_ENTRY_POINT {
		t.Errorf("parked PC = $%06X, want the entry point $%06X",
			m.CPU.PC, uint32(M68K_ENTRY_POINT))
	}
	if loopRunning(m) {
		t.Fatal("parked machine should report a finished loop")
	}

	m.ResumeCPU()
	if !loopRunning(m) {
		t.Fatal("fetch loop did not launch on ResumeCPU")
	}

	m.FreezeCPU()
	pc := m.CPU.PC
	if pc != PROG_START && pc != PROG_START+2 {
		t.Errorf("PC after first resume = $%06X, want inside the loop", pc)
	}
}

func TestHardReset(t *testing.T) {
	// Pad to the workbench entry offset, then loop in place
	programme := make([]byte, 0x32)
	programme[0x30] = 0x60
	programme[0x31] = 0xFE

	m := bootMachine(t, workbenchHeadlessConfig(), programme)
	if err := m.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()

	m.FreezeCPU()
	m.Bus.Write32(0x000420, 0) // scribble over the memvalid magic
	m.Bus.Write32(0x001000, 0xDEADBEEF)
	m.Terminal.EnqueueInput('x')
	m.ResumeCPU()

	m.HardReset()
	m.FreezeCPU()

	if got := m.Bus.Read32(0x000420); got != 0x752019F3 {
		t.Errorf("memvalid after reset = $%08X, want the seed restored", got)
	}
	if got := m.Bus.Read32(0x001000); got != 0xDEADBEEF {
		t.Errorf("programme RAM after reset = $%08X, want it untouched", got)
	}
	if m.Terminal.InputPending() {
		t.Error("device reset should have cleared the terminal input queue")
	}
	pc := m.CPU.PC
	if pc != WORKBENCH_ENTRY && pc != WORKBENCH_ENTRY+2 {
		t.Errorf("PC after reset = $%06X, want relatched to the entry loop", pc)
	}
}

func TestDoneBeforeStart(t *testing.T) {
	m, err := NewMachine(headlessConfig())
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	select {
	case <-m.Done():
	default:
		t.Error("Done before Start should report a finished loop")
	}
}
