// machine_bus_test.go - bus routing, the RAM ceiling and memory-mapped I/O dispatch

package main

import (
	"sync"
	"testing"
)

func TestBusMemorySharedWithCPU(t *testing.T) {
	bus := NewMachineBus()

	mem := bus.GetMemory()
	if len(mem) != DEFAULT_MEMORY_SIZE {
		t.Fatalf("GetMemory length %d, want %d", len(mem), DEFAULT_MEMORY_SIZE)
	}

	// The CPU's fast path and the bus must agree on byte order
	cpu := NewM68KCPU(bus)
	cpu.Write32(0x2000, 0xDEADBEEF)
	if got := bus.Read32(0x2000); got != 0xDEADBEEF {
		t.Errorf("bus read after CPU write = $%08X, want $DEADBEEF", got)
	}
	bus.Write32(0x3000, 0xCAFEBABE)
	if got := cpu.Read32(0x3000); got != 0xCAFEBABE {
		t.Errorf("CPU read after bus write = $%08X, want $CAFEBABE", got)
	}
}

func TestBusByteOrderIsBigEndian(t *testing.T) {
	bus := NewMachineBus()
	mem := bus.GetMemory()

	bus.Write32(0x1000, 0x12345678)
	if mem[0x1000] != 0x12 || mem[0x1001] != 0x34 ||
		mem[0x1002] != 0x56 || mem[0x1003] != 0x78 {
		t.Errorf("long stored as %02X %02X %02X %02X, want 12 34 56 78",
			mem[0x1000], mem[0x1001], mem[0x1002], mem[0x1003])
	}

	bus.Write16(0x1010, 0xABCD)
	if mem[0x1010] != 0xAB || mem[0x1011] != 0xCD {
		t.Errorf("word stored as %02X %02X, want AB CD", mem[0x1010], mem[0x1011])
	}

	if got := bus.Read16(0x1000); got != 0x1234 {
		t.Errorf("Read16 = $%04X, want $1234", got)
	}
	if got := bus.Read8(0x1003); got != 0x78 {
		t.Errorf("Read8 = $%02X, want $78", got)
	}
}

func TestBusMasksTo24Bits(t *testing.T) {
	bus := NewMachineBus()

	// The upper address byte never reaches memory, as on the 68000's
	// 24-pin address bus.
	bus.Write32(0x01001000, 0x0BADF00D)
	if got := bus.Read32(0x00001000); got != 0x0BADF00D {
		t.Errorf("wrapped read = $%08X, want $0BADF00D", got)
	}
	bus.Write8(0x00002000, 0x42)
	if got := bus.Read8(0xFF002000); got != 0x42 {
		t.Errorf("read through high address byte = $%02X, want $42", got)
	}
}

func TestBusRAMCeiling(t *testing.T) {
	bus := NewMachineBusWithRAM(0x1000)
	if bus.RAMLimit() != 0x1000 {
		t.Fatalf("RAMLimit = $%06X, want $001000", bus.RAMLimit())
	}

	if !bus.Write8WithFault(0x0FFF, 0x55) {
		t.Error("byte write below the ceiling should succeed")
	}
	if bus.Write8WithFault(0x1000, 0x55) {
		t.Error("byte write at the ceiling should fault")
	}

	// Word and long accesses must fit entirely below the ceiling
	if _, ok := bus.Read16WithFault(0x0FFE); !ok {
		t.Error("word read ending at the ceiling should succeed")
	}
	if _, ok := bus.Read16WithFault(0x0FFF); ok {
		t.Error("word read straddling the ceiling should fault")
	}
	if _, ok := bus.Read32WithFault(0x0FFC); !ok {
		t.Error("long read ending at the ceiling should succeed")
	}
	if _, ok := bus.Read32WithFault(0x0FFE); ok {
		t.Error("long read straddling the ceiling should fault")
	}

	// Unmapped space reads as zero through the non-faulting wrappers
	if got := bus.Read32(0x2000); got != 0 {
		t.Errorf("unmapped read = $%08X, want 0", got)
	}
}

func TestBusCeilingClampedToIORegion(t *testing.T) {
	bus := NewMachineBusWithRAM(0x2000000)
	if bus.RAMLimit() != IO_REGION_START {
		t.Errorf("RAMLimit = $%06X, want clamped to $%06X",
			bus.RAMLimit(), uint32(IO_REGION_START))
	}
	if NewMachineBus().RAMLimit() != IO_REGION_START {
		t.Errorf("default bus should give RAM the whole space below the registers")
	}
}

func TestBusIODispatch(t *testing.T) {
	bus := NewMachineBus()

	reads := 0
	var wrote uint32
	bus.MapIO(0xFF9000, 0xFF900F,
		func(addr uint32) uint32 {
			reads++
			return addr & 0xFF
		},
		func(addr uint32, value uint32) {
			wrote = value
		})

	if got := bus.Read8(0xFF9004); got != 0x04 {
		t.Errorf("byte read through handler = $%02X, want $04", got)
	}
	if got := bus.Read16(0xFF9004); got != 0x0004 {
		t.Errorf("word read through handler = $%04X, want $0004", got)
	}
	if got := bus.Read32(0xFF9004); got != 0x00000004 {
		t.Errorf("long read through handler = $%08X, want $00000004", got)
	}
	if reads != 3 {
		t.Errorf("read handler invoked %d times, want 3", reads)
	}

	bus.Write32(0xFF9008, 0xABCD1234)
	if wrote != 0xABCD1234 {
		t.Errorf("write handler captured $%08X, want $ABCD1234", wrote)
	}
	bus.Write8(0xFF9008, 0x7E)
	if wrote != 0x7E {
		t.Errorf("byte write delivered $%08X, want $7E", wrote)
	}

	// A handled address never faults
	if _, ok := bus.Read32WithFault(0xFF9000); !ok {
		t.Error("mapped register read should not fault")
	}
	if !bus.Write16WithFault(0xFF9000, 1) {
		t.Error("mapped register write should not fault")
	}
}

func TestBusIOReadOnlyAndWriteOnlyRegions(t *testing.T) {
	bus := NewMachineBus()

	writes := 0
	bus.MapIO(0xFF9100, 0xFF910F, nil, func(addr uint32, value uint32) { writes++ })
	bus.MapIO(0xFF9200, 0xFF920F, func(addr uint32) uint32 { return 0x5A }, nil)

	// A write-only region reads as zero without faulting
	if v, ok := bus.Read8WithFault(0xFF9100); !ok || v != 0 {
		t.Errorf("write-only region read = ($%02X, %v), want (0, true)", v, ok)
	}
	bus.Write8(0xFF9100, 1)
	if writes != 1 {
		t.Errorf("write handler invoked %d times, want 1", writes)
	}

	// A read-only region swallows writes without faulting
	if !bus.Write8WithFault(0xFF9200, 1) {
		t.Error("read-only region write should not fault")
	}
	if got := bus.Read8(0xFF9200); got != 0x5A {
		t.Errorf("read-only region read = $%02X, want $5A", got)
	}
}

func TestBusIOWriteShadowsRAM(t *testing.T) {
	bus := NewMachineBus()
	bus.MapIO(0xFF9300, 0xFF930F, nil, func(addr uint32, value uint32) {})

	// Register writes land in the backing store too, so the monitor can
	// inspect the last value written even where the device defines no
	// readback.
	bus.Write16(0xFF9300, 0xBEEF)
	mem := bus.GetMemory()
	if mem[0xFF9300] != 0xBE || mem[0xFF9301] != 0xEF {
		t.Errorf("shadow bytes = %02X %02X, want BE EF", mem[0xFF9300], mem[0xFF9301])
	}
}

func TestBusDisjointRegionsOnOnePage(t *testing.T) {
	bus := NewMachineBus()

	bus.MapIO(0xFF9400, 0xFF940F, func(addr uint32) uint32 { return 0xAA }, nil)
	bus.MapIO(0xFF9480, 0xFF948F, func(addr uint32) uint32 { return 0xBB }, nil)

	if got := bus.Read8(0xFF9400); got != 0xAA {
		t.Errorf("first region read = $%02X, want $AA", got)
	}
	if got := bus.Read8(0xFF9480); got != 0xBB {
		t.Errorf("second region read = $%02X, want $BB", got)
	}

	// The gap between them is on an I/O page but claimed by nobody
	if _, ok := bus.Read8WithFault(0xFF9440); ok {
		t.Error("unclaimed address between regions should fault")
	}
}

func TestBusSealPreventsLateMapping(t *testing.T) {
	bus := NewMachineBus()
	bus.SealMappings()
	bus.SealMappings() // idempotent

	defer func() {
		if recover() == nil {
			t.Error("MapIO after sealing should panic")
		}
	}()
	bus.MapIO(0xFF9500, 0xFF95FF, nil, nil)
}

func TestBusResetHooks(t *testing.T) {
	bus := NewMachineBus()

	var order []int
	bus.OnReset(func() { order = append(order, 1) })
	bus.OnReset(func() { order = append(order, 2) })

	bus.ResetDevices()
	bus.ResetDevices()
	if len(order) != 4 || order[0] != 1 || order[1] != 2 || order[2] != 1 || order[3] != 2 {
		t.Errorf("reset hooks fired as %v, want [1 2 1 2]", order)
	}

	bus.Write32(0x1000, 0xFFFFFFFF)
	bus.Reset()
	if got := bus.Read32(0x1000); got != 0 {
		t.Errorf("memory after Reset = $%08X, want 0", got)
	}
}

// Hardware registers must all sit above the RAM ceiling or the default
// machine could never route them to a device.
func TestRegisterLayout(t *testing.T) {
	registers := []struct {
		name string
		addr uint32
	}{
		{"VIDEO_BASE_HIGH", VIDEO_BASE_HIGH},
		{"VIDEO_RES", VIDEO_RES},
		{"VIDEO_STATUS", VIDEO_STATUS},
		{"PSG_SELECT", PSG_SELECT},
		{"PSG_WRITE", PSG_WRITE},
		{"MFP_GPIP", MFP_GPIP},
		{"MFP_REGION_END", MFP_REGION_END},
		{"TERM_STATUS", TERM_STATUS},
		{"TERM_OUT", TERM_OUT},
		{"TERM_IN", TERM_IN},
		{"ORACLE_BASE", ORACLE_BASE},
		{"ORACLE_END", ORACLE_END},
	}
	for _, r := range registers {
		if r.addr < IO_REGION_START {
			t.Errorf("%s ($%06X) lies below the register region at $%06X",
				r.name, r.addr, uint32(IO_REGION_START))
		}
		if r.addr > BUS_ADDR_MASK {
			t.Errorf("%s ($%06X) lies beyond the 24-bit bus", r.name, r.addr)
		}
	}

	if PROG_START >= IO_REGION_START {
		t.Error("the programme load address must be plain RAM")
	}
}

// Routing writes into the video register region the way the video monitor
// maps it.
func TestBusVideoRegisterRouting(t *testing.T) {
	bus := NewMachineBus()

	captured := map[uint32]uint32{}
	bus.MapIO(VIDEO_BASE_HIGH-1, VIDEO_STATUS+1, nil, func(addr uint32, value uint32) {
		captured[addr] = value
	})

	bus.Write8(VIDEO_BASE_HIGH, 0x07)
	bus.Write16(VIDEO_RES, 0x0002)
	if captured[VIDEO_BASE_HIGH] != 0x07 {
		t.Errorf("VIDEO_BASE_HIGH write not routed, captured %v", captured)
	}
	if captured[VIDEO_RES] != 0x0002 {
		t.Errorf("VIDEO_RES write not routed, captured %v", captured)
	}
}

func TestBusConcurrentAccess(t *testing.T) {
	bus := NewMachineBus()
	const iterations = 1000
	var wg sync.WaitGroup

	// Every goroutine owns a disjoint block, which is the discipline the
	// machine itself follows: the CPU and each peripheral touch different
	// pages.
	for g := range 4 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			base := uint32(0x10000 + id*0x10000)
			for i := range iterations {
				bus.Write32(base+uint32(i*4), uint32(i))
			}
		}(g)
	}
	for g := range 4 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			base := uint32(0x80000 + id*0x10000)
			for i := range iterations {
				_ = bus.Read32(base + uint32(i*4))
			}
		}(g)
	}
	wg.Wait()

	for g := range 4 {
		base := uint32(0x10000 + g*0x10000)
		if got := bus.Read32(base + 4); got != 1 {
			t.Errorf("block %d lost its write: $%08X", g, got)
		}
	}
}

// ------------------------------------------------------------------------------
// Benchmarks
// ------------------------------------------------------------------------------

func BenchmarkBusRead32RAM(b *testing.B) {
	bus := NewMachineBus()
	bus.Write32(0x1000, 0x12345678)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Read32(0x1000)
	}
}

func BenchmarkBusRead32IO(b *testing.B) {
	bus := NewMachineBus()
	bus.MapIO(0xFF9000, 0xFF90FF, func(addr uint32) uint32 { return 0x42 }, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Read32(0xFF9000)
	}
}

func BenchmarkBusWrite32RAM(b *testing.B) {
	bus := NewMachineBus()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Write32(0x1000, uint32(i))
	}
}

func BenchmarkBusWrite32IO(b *testing.B) {
	bus := NewMachineBus()
	bus.MapIO(0xFF9000, 0xFF90FF, nil, func(addr uint32, value uint32) {})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bus.Write32(0xFF9000, uint32(i))
	}
}

func BenchmarkBusRead16RAM(b *testing.B) {
	bus := NewMachineBus()
	bus.Write16(0x1000, 0x1234)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Read16(0x1000)
	}
}

func BenchmarkBusRead8RAM(b *testing.B) {
	bus := NewMachineBus()
	bus.Write8(0x1000, 0x42)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bus.Read8(0x1000)
	}
}
