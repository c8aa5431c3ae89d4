// full_io_test.go - executed stores and loads reaching a mapped console device

package main

import "testing"

// TestFullIOPath runs a short programme through the CPU core and checks that
// its memory traffic lands on the mapped console device rather than RAM.
func TestFullIOPath(t *testing.T) {
	bus := NewMachineBus()
	term := NewTerminalMMIO()

	termWrites := 0
	countingWrite := func(addr uint32, value uint32) {
		if addr == TERM_OUT {
			termWrites++
		}
		term.HandleWrite(addr, value)
	}
	bus.MapIO(TERM_STATUS, TERM_IN+1, term.HandleRead, countingWrite)
	bus.SealMappings()

	cpu := NewM68KCPU(bus)
	cpu.SetRunning(false)
	term.EnqueueInput('A')

	// MOVE.B #'H',TERM_OUT / MOVE.B #'I',TERM_OUT /
	// MOVE.B TERM_IN,D0 / STOP #$2700
	monWriteWords(cpu, PROG_START,
		0x13FC, 0x0048, 0x00FF, 0xFC12,
		0x13FC, 0x0049, 0x00FF, 0xFC12,
		0x1039, 0x00FF, 0xFC14,
		0x4E72, 0x2700,
	)

	for i := 0; i < 10; i++ {
		if cpu.StepOne() == 0 {
			break
		}
	}

	if termWrites != 2 {
		t.Errorf("TERM_OUT writes = %d, want 2", termWrites)
	}
	if got := term.DrainOutput(); got != "HI" {
		t.Errorf("console output = %q, want HI", got)
	}
	if cpu.DataRegs[0]&0xFF != 'A' {
		t.Errorf("D0 = %X, want the queued console byte", cpu.DataRegs[0])
	}
	if term.InputPending() {
		t.Error("input byte still queued after the read")
	}
	if !cpu.stopped.Load() {
		t.Error("programme did not reach STOP")
	}
}
