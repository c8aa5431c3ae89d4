// machine_config.go - Machine assembly and configuration presets

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
machine_config.go - Machine Assembly

A Machine ties the bus, the CPU and the peripheral set together. The
MachineConfig it is built from decides the RAM ceiling, the boot contract
(load address, entry point, initial supervisor stack) and which devices get
mapped. Two presets are provided:

  - DefaultConfig: a flat machine with 4MB of RAM, programmes load and boot
    at $000400. This is the configuration the regression suite uses.
  - WorkbenchConfig: a classic ST-flavoured layout. Programmes load into the
    ROM shadow at $FC0000 and boot at $FC0030, and low memory is seeded with
    the system variables (memvalid magics, phystop, _v_bas_ad and friends)
    that software built against a TOS environment probes at startup.

Construction order matters: memory seeds are applied before the CPU is
created so the power-on vector fetch observes them, and every MapIO call
happens before Start seals the bus.
*/

package main

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ------------------------------------------------------------------------------
// Configuration
// ------------------------------------------------------------------------------

// Seed widths, matching the three bus access sizes.
const (
	SEED_BYTE = 1
	SEED_WORD = 2
	SEED_LONG = 4
)

// MemorySeed is a single power-on memory patch. Seeds are applied once,
// before the CPU latches its reset vectors, and again on hard reset.
type MemorySeed struct {
	Addr  uint32
	Size  uint32 // SEED_BYTE, SEED_WORD or SEED_LONG
	Value uint32
}

// MachineConfig describes a complete machine build.
type MachineConfig struct {
	Name       string
	RAMTop     uint32 // Exclusive upper bound of plain RAM
	LoadAddr   uint32 // Where flat binary images land
	Entry      uint32 // Boot entry point when the image names none
	InitialSSP uint32 // Boot supervisor stack pointer
	Seeds      []MemorySeed

	VideoBackend int
	Scale        int
	Fullscreen   bool

	EnableVideo    bool
	EnablePSG      bool
	EnableMFP      bool
	EnableTerminal bool
	EnableOracle   bool
}

// DefaultConfig is the flat machine: 4MB of RAM, programmes load and run at
// the conventional $000400 with the supervisor stack just below. With no
// seeds the vector table starts empty, so an image that carries its own
// vectors wins over the configured boot contract.
func DefaultConfig() MachineConfig {
	return MachineConfig{
		Name:           "default",
		RAMTop:         0x400000,
		LoadAddr:       PROG_START,
		Entry:          M68K_ENTRY_POINT,
		InitialSSP:     M68K_STACK_START,
		VideoBackend:   VIDEO_BACKEND_EBITEN,
		Scale:          2,
		EnableVideo:    true,
		EnablePSG:      true,
		EnableMFP:      true,
		EnableTerminal: true,
	}
}

// ST-flavoured layout constants for WorkbenchConfig. There is no ROM chip
// in this machine; the shadow region is ordinary RAM that programmes load
// into, which is why RAM runs all the way up to the I/O region.
const (
	WORKBENCH_ROM_BASE = 0xFC0000 // ROM shadow: flat images load here
	WORKBENCH_ENTRY    = 0xFC0030 // Conventional ROM entry point
	WORKBENCH_SSP      = 0x000104
	WORKBENCH_PHYSTOP  = 0x400000 // Value reported in the phystop system variable
)

// WorkbenchConfig builds the ST-flavoured machine. The seed table recreates
// the memory furniture TOS leaves behind after its own boot, so programmes
// that check the memvalid magics or read phystop and _v_bas_ad behave as
// they would on the real hardware.
func WorkbenchConfig() MachineConfig {
	return MachineConfig{
		Name:       "workbench",
		RAMTop:     IO_REGION_START,
		LoadAddr:   WORKBENCH_ROM_BASE,
		Entry:      WORKBENCH_ENTRY,
		InitialSSP: WORKBENCH_SSP,
		Seeds: []MemorySeed{
			{0x000000, SEED_LONG, WORKBENCH_SSP},      // Vector 0: initial SSP
			{0x000004, SEED_LONG, WORKBENCH_ENTRY},    // Vector 1: initial PC
			{0x000028, SEED_LONG, 0x0000EB9A},         // Line-A handler
			{0x000068, SEED_LONG, 0x0000543C},         // Autovector level 2
			{0x000080, SEED_LONG, 0x00005452},         // Trap #0
			{0x000420, SEED_LONG, 0x752019F3},         // memvalid magic
			{0x000424, SEED_BYTE, 0x00},               // memcntlr
			{0x000426, SEED_LONG, 0x00000000},         // resvalid: bailout vector not armed
			{0x00042A, SEED_LONG, WORKBENCH_ENTRY},    // resvector
			{0x00042E, SEED_LONG, WORKBENCH_PHYSTOP},  // phystop
			{0x00043A, SEED_LONG, 0x237698AA},         // memval2 magic
			{0x00044E, SEED_LONG, VIDEO_VRAM_DEFAULT}, // _v_bas_ad: framebuffer base
			{0x0004A6, SEED_WORD, 0x0001},             // _nflops
			{0x00051A, SEED_LONG, 0x5555AAAA},         // memval3 magic
		},
		VideoBackend:   VIDEO_BACKEND_EBITEN,
		Scale:          2,
		EnableVideo:    true,
		EnablePSG:      true,
		EnableMFP:      true,
		EnableTerminal: true,
	}
}

func applySeed(bus *MachineBus, seed MemorySeed) error {
	var ok bool
	switch seed.Size {
	case SEED_BYTE:
		ok = bus.Write8WithFault(seed.Addr, uint8(seed.Value))
	case SEED_WORD:
		ok = bus.Write16WithFault(seed.Addr, uint16(seed.Value))
	case SEED_LONG:
		ok = bus.Write32WithFault(seed.Addr, seed.Value)
	default:
		return fmt.Errorf("memory seed at $%06X has unsupported size %d", seed.Addr, seed.Size)
	}
	if !ok {
		return fmt.Errorf("memory seed at $%06X lies outside RAM", seed.Addr)
	}
	return nil
}

// ------------------------------------------------------------------------------
// Machine
// ------------------------------------------------------------------------------

// Machine is the assembled system: bus, CPU and whichever peripherals the
// configuration enabled. Device fields are nil when disabled.
type Machine struct {
	Config   MachineConfig
	Bus      *MachineBus
	CPU      *M68KCPU
	Video    *VideoMonitor
	PSG      *PSGChip
	MFP      *MFPTimer
	Terminal *TerminalMMIO
	Oracle   *OracleDevice

	mu       sync.Mutex
	started  bool
	loopDone chan struct{}
}

// NewMachine builds a machine from cfg. Seeds are applied before the CPU is
// constructed so its power-on vector fetch sees them; devices are mapped but
// not started. Call LoadImage, then Start.
func NewMachine(cfg MachineConfig) (*Machine, error) {
	bus := NewMachineBusWithRAM(cfg.RAMTop)

	for _, seed := range cfg.Seeds {
		if err := applySeed(bus, seed); err != nil {
			return nil, err
		}
	}

	m := &Machine{
		Config: cfg,
		Bus:    bus,
		CPU:    NewM68KCPU(bus),
	}

	if cfg.EnableTerminal {
		m.Terminal = NewTerminalMMIO()
		bus.MapIO(TERM_STATUS, TERM_IN+1, m.Terminal.HandleRead, m.Terminal.HandleWrite)
		bus.OnReset(m.Terminal.Reset)
	}

	if cfg.EnableOracle {
		m.Oracle = NewOracleDevice()
		bus.MapIO(ORACLE_BASE, ORACLE_END, m.Oracle.HandleRead, m.Oracle.HandleWrite)
		bus.OnReset(m.Oracle.Reset)
	}

	if cfg.EnableMFP {
		m.MFP = NewMFPTimer(m.CPU)
		// One byte below MFP_GPIP so word accesses to the even address
		// still land inside the region.
		bus.MapIO(MFP_GPIP-1, MFP_REGION_END, m.MFP.HandleRead, m.MFP.HandleWrite)
		bus.OnReset(m.MFP.Reset)
	}

	if cfg.EnablePSG {
		chip, err := NewPSGChip(PSG_SAMPLE_RATE)
		if err != nil {
			return nil, fmt.Errorf("initialising PSG: %w", err)
		}
		m.PSG = chip
		bus.MapIO(PSG_SELECT, PSG_WRITE+1, chip.HandleRead, chip.HandleWrite)
		bus.OnReset(chip.Reset)
	}

	if cfg.EnableVideo {
		output, err := NewVideoOutput(cfg.VideoBackend)
		if err != nil {
			return nil, fmt.Errorf("initialising video output: %w", err)
		}
		dc := output.GetDisplayConfig()
		dc.Scale = ClampScale(cfg.Scale)
		dc.Fullscreen = cfg.Fullscreen
		output.SetDisplayConfig(dc)

		m.Video = NewVideoMonitor(bus, output)
		bus.MapIO(VIDEO_BASE_HIGH-1, VIDEO_STATUS+1, m.Video.HandleRead, m.Video.HandleWrite)
		bus.OnReset(m.Video.Reset)

		output.SetHardResetHandler(m.HardReset)
		output.SetCloseHandler(func() { m.CPU.SetRunning(false) })
		output.SetStatusProvider(m.statusLine)
		if m.Terminal != nil {
			output.SetKeyHandler(m.Terminal.EnqueueInput)
		}
	}

	return m, nil
}

// LoadImage loads a programme image and completes the boot contract: vectors
// the image (or a seed) left empty are filled from the configuration, with an
// S-record entry point taking precedence over the configured one. The CPU
// relatches its reset vectors afterwards, so this must precede Start.
func (m *Machine) LoadImage(path string) (*LoadedImage, error) {
	img, err := LoadImageFile(m.Bus, path, m.Config.LoadAddr)
	if err != nil {
		return nil, err
	}

	entry := m.Config.Entry
	if img.HasEntry {
		entry = img.Entry
	}
	SeedBootVectors(m.Bus, m.Config.InitialSSP, entry)
	m.CPU.Reset()
	return img, nil
}

// Start seals the bus, starts the enabled peripherals and launches the CPU
// fetch loop on its own goroutine.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(false)
}

// StartFrozen starts the machine with the fetch loop parked, so a debugger
// can take control before the first instruction executes. ResumeCPU begins
// execution.
func (m *Machine) StartFrozen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startLocked(true)
}

func (m *Machine) startLocked(parked bool) error {
	if m.started {
		return nil
	}

	m.Bus.SealMappings()

	if m.Video != nil {
		if err := m.Video.Start(); err != nil {
			return fmt.Errorf("starting video monitor: %w", err)
		}
	}
	if m.PSG != nil {
		m.PSG.Start()
	}
	if m.MFP != nil {
		m.MFP.Start()
	}

	if parked {
		// A pre-closed loop channel: FreezeCPU returns at once and
		// ResumeCPU knows to launch a fresh loop.
		done := make(chan struct{})
		close(done)
		m.loopDone = done
		m.CPU.SetRunning(false)
	} else {
		m.launchLoopLocked()
	}
	m.started = true

	logrus.WithFields(logrus.Fields{
		"machine": m.Config.Name,
		"pc":      fmt.Sprintf("$%06X", m.CPU.PC),
		"ssp":     fmt.Sprintf("$%06X", m.CPU.SSP),
		"frozen":  parked,
	}).Info("machine started")
	return nil
}

func (m *Machine) launchLoopLocked() {
	done := make(chan struct{})
	m.loopDone = done
	m.CPU.SetRunning(true)
	go func() {
		m.CPU.ExecuteInstruction()
		close(done)
	}()
}

// Stop freezes the CPU and shuts the peripherals down. Safe to call more
// than once.
func (m *Machine) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}

	m.CPU.SetRunning(false)
	<-m.loopDone

	if m.MFP != nil {
		m.MFP.Stop()
	}
	if m.PSG != nil {
		m.PSG.Stop()
	}
	if m.Video != nil {
		m.Video.Stop()
	}
	m.started = false
	logrus.WithField("machine", m.Config.Name).Info("machine stopped")
}

// HardReset is the front panel reset: freeze the fetch loop, pulse every
// device reset line, reapply the memory seeds and launch a fresh loop from
// the relatched vectors. Programme RAM is left alone, as on real hardware.
func (m *Machine) HardReset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}

	m.CPU.SetRunning(false)
	<-m.loopDone

	m.Bus.ResetDevices()
	for _, seed := range m.Config.Seeds {
		// Seeds were validated during construction; they cannot fail now.
		_ = applySeed(m.Bus, seed)
	}
	m.CPU.Reset()
	m.launchLoopLocked()

	logrus.WithField("pc", fmt.Sprintf("$%06X", m.CPU.PC)).Info("machine hard reset")
}

// FreezeCPU halts the fetch loop without touching device state, so the
// debugger can inspect a quiescent machine. Peripherals keep running.
func (m *Machine) FreezeCPU() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CPU.SetRunning(false)
	if m.started && m.loopDone != nil {
		<-m.loopDone
	}
}

// ResumeCPU relaunches the fetch loop after FreezeCPU. A loop that is still
// running is left alone.
func (m *Machine) ResumeCPU() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}
	select {
	case <-m.loopDone:
		m.launchLoopLocked()
	default:
	}
}

// Done reports when the CPU fetch loop exits, whether because the programme
// halted the processor or the host asked it to stop. Valid after Start.
func (m *Machine) Done() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loopDone == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return m.loopDone
}

// statusLine feeds the video backend's status bar. The register reads are
// unsynchronised snapshots of a live CPU, which is fine for a display.
func (m *Machine) statusLine() string {
	return fmt.Sprintf("%s  PC $%06X", m.Config.Name, m.CPU.PC)
}
