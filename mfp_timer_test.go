// mfp_timer_test.go - MFP down-counters, prescaling and the level 6 interrupt path

package main

import (
	"testing"
	"time"
)

// Channel arithmetic is tested with synthetic timestamps so no test here
// depends on scheduler latency.

func TestMfpChannelStopped(t *testing.T) {
	ch := mfpChannel{ctrl: 0x00, data: 10, value: 10}
	if got := ch.settle(1_000_000_000); got != 0 {
		t.Errorf("stopped channel reported %d underflows", got)
	}
	if ch.value != 10 {
		t.Errorf("stopped channel moved to %d", ch.value)
	}
	if ch.last != 1_000_000_000 {
		t.Error("stopped channel should still consume the elapsed time")
	}

	// Event-count modes have no event source attached
	ev := mfpChannel{ctrl: 0x08, data: 10, value: 10}
	if got := ev.settle(1_000_000_000); got != 0 || ev.value != 10 {
		t.Errorf("event-count channel moved: %d underflows, value %d", got, ev.value)
	}
}

func TestMfpChannelCountsDown(t *testing.T) {
	// Divide-by-4: 50000ns of the 2.4576MHz reference is 30 prescaled pulses
	ch := mfpChannel{ctrl: 0x01, data: 50, value: 50}
	if got := ch.settle(50_000); got != 0 {
		t.Errorf("partial count reported %d underflows", got)
	}
	if ch.value != 20 {
		t.Errorf("counter = %d, want 20", ch.value)
	}
}

func TestMfpChannelUnderflowReloads(t *testing.T) {
	// 195313ns at divide-by-4 is 120 pulses: one underflow at 50, another
	// 50 counted down, then 20 more into the next period.
	ch := mfpChannel{ctrl: 0x01, data: 50, value: 50}
	if got := ch.settle(195_313); got != 2 {
		t.Errorf("underflows = %d, want 2", got)
	}
	if ch.value != 30 {
		t.Errorf("counter after reload = %d, want 30", ch.value)
	}
}

func TestMfpChannelZeroReloadCounts256(t *testing.T) {
	ch := mfpChannel{ctrl: 0x01, data: 0, value: 0}
	if got := ch.settle(50_000); got != 0 {
		t.Errorf("zero reload underflowed after 30 pulses: %d", got)
	}
	if ch.value != 226 {
		t.Errorf("counter = %d, want 256-30", ch.value)
	}
}

func TestMfpChannelAccumulatesFractions(t *testing.T) {
	// 100ns is a fraction of one prescaled pulse. The visit must not
	// consume the elapsed time or slow timers would never fire.
	ch := mfpChannel{ctrl: 0x01, data: 50, value: 50}
	if got := ch.settle(100); got != 0 {
		t.Errorf("fractional settle reported %d underflows", got)
	}
	if ch.last != 0 {
		t.Error("fractional settle consumed the elapsed time")
	}
	ch.settle(50_000)
	if ch.value != 20 {
		t.Errorf("counter = %d, want the full 30 pulses applied", ch.value)
	}
}

func TestMfpRegisterFile(t *testing.T) {
	mfp := NewMFPTimer(nil)

	if got := mfp.HandleRead(MFP_GPIP); got != 0xFF {
		t.Errorf("GPIP = $%02X, want $FF with nothing attached", got)
	}

	mfp.HandleWrite(MFP_IERA, MFP_IERA_TIMER_A)
	mfp.HandleWrite(MFP_IERB, MFP_IERB_TIMER_B)
	if got := mfp.HandleRead(MFP_IERA); got != MFP_IERA_TIMER_A {
		t.Errorf("IERA = $%02X", got)
	}
	if got := mfp.HandleRead(MFP_IERB); got != MFP_IERB_TIMER_B {
		t.Errorf("IERB = $%02X", got)
	}

	// With the control register stopped a written count stays put
	mfp.HandleWrite(MFP_TADR, 42)
	mfp.HandleWrite(MFP_TBDR, 7)
	if got := mfp.HandleRead(MFP_TADR); got != 42 {
		t.Errorf("TADR = %d, want 42", got)
	}
	if got := mfp.HandleRead(MFP_TBDR); got != 7 {
		t.Errorf("TBDR = %d, want 7", got)
	}

	mfp.HandleWrite(MFP_TACR, 0x07)
	if got := mfp.HandleRead(MFP_TACR); got != 0x07 {
		t.Errorf("TACR = $%02X, want $07", got)
	}

	if got := mfp.HandleRead(MFP_GPIP + 2); got != 0 {
		t.Errorf("unassigned register = $%02X, want 0", got)
	}
}

// underflowNow backdates a channel and settles it, forcing an underflow
// without waiting on the wall clock.
func underflowNow(mfp *MFPTimer, ch *mfpChannel) {
	mfp.mu.Lock()
	ch.last -= int64(5 * time.Millisecond)
	mfp.settleLocked(time.Now().UnixNano())
	mfp.mu.Unlock()
}

func TestMfpUnderflowSetsInService(t *testing.T) {
	bus := NewMachineBus()
	cpu := NewM68KCPU(bus)
	mfp := NewMFPTimer(cpu)

	mfp.HandleWrite(MFP_IERA, MFP_IERA_TIMER_A)
	mfp.HandleWrite(MFP_TADR, 1)
	mfp.HandleWrite(MFP_TACR, 0x01)

	underflowNow(mfp, &mfp.a)

	if got := mfp.HandleRead(MFP_ISRA); got&MFP_ISRA_TIMER_A == 0 {
		t.Errorf("ISRA = $%02X, want the timer A bit", got)
	}
	if cpu.interruptLines.Load()&(1<<MFP_TIMER_IRQ_LEVEL) == 0 {
		t.Error("level 6 line should be asserted")
	}

	// Acknowledge by writing the bit back as zero
	mfp.HandleWrite(MFP_ISRA, 0x00)
	if got := mfp.HandleRead(MFP_ISRA); got != 0 {
		t.Errorf("ISRA after acknowledge = $%02X, want 0", got)
	}
	if cpu.interruptLines.Load()&(1<<MFP_TIMER_IRQ_LEVEL) != 0 {
		t.Error("level 6 line should drop once nothing is in service")
	}
}

func TestMfpDisabledTimerStaysQuiet(t *testing.T) {
	bus := NewMachineBus()
	cpu := NewM68KCPU(bus)
	mfp := NewMFPTimer(cpu)

	mfp.HandleWrite(MFP_TADR, 1)
	mfp.HandleWrite(MFP_TACR, 0x01) // running but not enabled in IERA

	underflowNow(mfp, &mfp.a)

	if got := mfp.HandleRead(MFP_ISRA); got != 0 {
		t.Errorf("ISRA = $%02X, want 0 with the enable bit clear", got)
	}
	if cpu.interruptLines.Load() != 0 {
		t.Error("no interrupt line should be asserted")
	}
}

func TestMfpPartialAcknowledge(t *testing.T) {
	bus := NewMachineBus()
	cpu := NewM68KCPU(bus)
	mfp := NewMFPTimer(cpu)

	mfp.HandleWrite(MFP_IERA, MFP_IERA_TIMER_A)
	mfp.HandleWrite(MFP_IERB, MFP_IERB_TIMER_B)
	mfp.HandleWrite(MFP_TADR, 1)
	mfp.HandleWrite(MFP_TACR, 0x01)
	mfp.HandleWrite(MFP_TBDR, 1)
	mfp.HandleWrite(MFP_TBCR, 0x01)

	underflowNow(mfp, &mfp.a)
	underflowNow(mfp, &mfp.b)

	want := uint32(MFP_ISRA_TIMER_A | MFP_ISRA_TIMER_B)
	if got := mfp.HandleRead(MFP_ISRA); got != want {
		t.Fatalf("ISRA = $%02X, want $%02X", got, want)
	}

	// Clearing timer A alone leaves timer B in service and the line high
	mfp.HandleWrite(MFP_ISRA, ^uint32(MFP_ISRA_TIMER_A))
	if got := mfp.HandleRead(MFP_ISRA); got != MFP_ISRA_TIMER_B {
		t.Errorf("ISRA = $%02X, want timer B still in service", got)
	}
	if cpu.interruptLines.Load()&(1<<MFP_TIMER_IRQ_LEVEL) == 0 {
		t.Error("line should stay asserted while a request is in service")
	}

	mfp.HandleWrite(MFP_ISRA, 0x00)
	if cpu.interruptLines.Load()&(1<<MFP_TIMER_IRQ_LEVEL) != 0 {
		t.Error("line should drop after the last acknowledge")
	}
}

func TestMfpInterruptDelivery(t *testing.T) {
	bus := NewMachineBus()
	cpu := NewM68KCPU(bus)
	mfp := NewMFPTimer(cpu)

	// Autovector for level 6, a handler and a programme
	bus.Write32((M68K_VEC_AUTOVECTOR_BASE+MFP_TIMER_IRQ_LEVEL)*4, 0x1000)
	bus.Write16(0x1000, 0x4E71) // NOP
	bus.Write16(0x2000, 0x4E71)
	cpu.PC = 0x2000
	cpu.SR = M68K_SR_S // supervisor, interrupt mask fully open

	mfp.HandleWrite(MFP_IERA, MFP_IERA_TIMER_A)
	mfp.HandleWrite(MFP_TADR, 1)
	mfp.HandleWrite(MFP_TACR, 0x01)
	underflowNow(mfp, &mfp.a)

	cpu.StepOne()

	if cpu.PC != 0x1002 {
		t.Errorf("PC = $%06X, want $001002 after entering the handler", cpu.PC)
	}
	if ipl := (cpu.SR & M68K_SR_IPL) >> M68K_SR_IPL_SHIFT; ipl != MFP_TIMER_IRQ_LEVEL {
		t.Errorf("interrupt mask = %d, want raised to %d", ipl, MFP_TIMER_IRQ_LEVEL)
	}
}

func TestMfpReset(t *testing.T) {
	bus := NewMachineBus()
	cpu := NewM68KCPU(bus)
	mfp := NewMFPTimer(cpu)

	mfp.HandleWrite(MFP_IERA, MFP_IERA_TIMER_A)
	mfp.HandleWrite(MFP_TADR, 1)
	mfp.HandleWrite(MFP_TACR, 0x01)
	underflowNow(mfp, &mfp.a)

	mfp.Reset()
	if got := mfp.HandleRead(MFP_IERA); got != 0 {
		t.Errorf("IERA after reset = $%02X", got)
	}
	if got := mfp.HandleRead(MFP_ISRA); got != 0 {
		t.Errorf("ISRA after reset = $%02X", got)
	}
	if got := mfp.HandleRead(MFP_TACR); got != 0 {
		t.Errorf("TACR after reset = $%02X", got)
	}
	if cpu.interruptLines.Load() != 0 {
		t.Error("reset should drop the interrupt line")
	}
}

func TestMfpSweep(t *testing.T) {
	mfp := NewMFPTimer(nil)
	mfp.HandleWrite(MFP_IERA, MFP_IERA_TIMER_A)
	mfp.HandleWrite(MFP_TADR, 1)
	mfp.HandleWrite(MFP_TACR, 0x01)

	mfp.Start()
	mfp.Start() // second Start is a no-op
	defer mfp.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mfp.HandleRead(MFP_ISRA)&MFP_ISRA_TIMER_A != 0 {
			mfp.Stop()
			mfp.Stop() // idempotent
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("sweep never delivered a timer A underflow")
}
