// oracle_device.go - Diagnostic capture rig for the opcode regression ROMs

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
oracle_device.go - Opcode Regression Oracle

A write-capture device claiming the top page of the address space. Self-
checking machine-code routines run one opcode group each and report into
their own slot: a byte write of 1 declares the group passed, a word write
stores a failure code identifying the check that tripped. The device is
nothing but a recording register file; the routines exercise the processor
purely through ordinary instructions, which is the point of the exercise.

Slot assignments follow the historical test ROM layout, one slot per
opcode-group routine, so a failed group can be named in the monitor and in
test output rather than reported as a bare offset.
*/

package main

import (
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	ORACLE_PASS      = 1
	ORACLE_SLOTCOUNT = 60
)

// oracleSlotNames maps slot index to the opcode group the routine covers.
var oracleSlotNames = [ORACLE_SLOTCOUNT]string{
	"ORI_TO_CCR", "ORI_TO_SR", "EORI_TO_CCR", "EORI_TO_SR", "ANDI_TO_CCR",
	"ANDI_TO_SR", "BTST", "BCHG", "BCLR", "BSET",
	"MOVEP", "BOOL_I", "BSR", "CMP_I", "ADD_I",
	"SUB_I", "MOVE", "MOVE_FLAGS", "EXT", "SWAP",
	"LEA/PEA", "TAS", "TST", "LINK", "MOVE_USP",
	"CHK", "CLR", "MOVEM", "ABCD", "SBCD",
	"NBCD", "TRAPV", "RTR", "BCC", "DBCC",
	"SCC", "ADDQ", "SUBQ", "MOVEQ", "DIVU",
	"DIVS", "OR", "AND", "EOR", "CMP",
	"CMPA", "CMPM", "ADD", "SUB", "ADDA",
	"SUBA", "ADDX", "SUBX", "MULU", "MULS",
	"EXG", "RO<L/R>", "ROX<L/R>", "AS<L/R>", "LS<L/R>",
}

// OracleSlotName returns the opcode group assigned to a slot.
func OracleSlotName(slot int) string {
	if slot < 0 || slot >= ORACLE_SLOTCOUNT {
		return "?"
	}
	return oracleSlotNames[slot]
}

type OracleDevice struct {
	mu      sync.Mutex
	results [ORACLE_SLOTCOUNT]uint32
	written [ORACLE_SLOTCOUNT]bool
}

func NewOracleDevice() *OracleDevice {
	return &OracleDevice{}
}

// HandleRead returns the recorded value so ROM-side code can re-check its
// own reports.
func (od *OracleDevice) HandleRead(addr uint32) uint32 {
	od.mu.Lock()
	defer od.mu.Unlock()
	slot := int(addr - ORACLE_BASE)
	if slot < 0 || slot >= ORACLE_SLOTCOUNT {
		return 0
	}
	return od.results[slot]
}

// HandleWrite records a routine's report. The full written value is kept,
// so a word-sized failure code survives intact.
func (od *OracleDevice) HandleWrite(addr uint32, value uint32) {
	slot := int(addr - ORACLE_BASE)
	if slot < 0 || slot >= ORACLE_SLOTCOUNT {
		return
	}
	od.mu.Lock()
	od.results[slot] = value
	od.written[slot] = true
	od.mu.Unlock()

	if value == ORACLE_PASS {
		logrus.WithField("group", OracleSlotName(slot)).Debug("oracle: group passed")
	} else {
		logrus.WithFields(logrus.Fields{
			"group": OracleSlotName(slot),
			"code":  value,
		}).Warn("oracle: group FAILED")
	}
}

// Result reports the recorded value for a slot and whether anything was
// written there.
func (od *OracleDevice) Result(slot int) (uint32, bool) {
	od.mu.Lock()
	defer od.mu.Unlock()
	if slot < 0 || slot >= ORACLE_SLOTCOUNT {
		return 0, false
	}
	return od.results[slot], od.written[slot]
}

// Failures lists every slot that reported something other than a pass.
func (od *OracleDevice) Failures() []int {
	od.mu.Lock()
	defer od.mu.Unlock()
	var failed []int
	for i := 0; i < ORACLE_SLOTCOUNT; i++ {
		if od.written[i] && od.results[i] != ORACLE_PASS {
			failed = append(failed, i)
		}
	}
	return failed
}

// Reset clears the table for another run.
func (od *OracleDevice) Reset() {
	od.mu.Lock()
	defer od.mu.Unlock()
	od.results = [ORACLE_SLOTCOUNT]uint32{}
	od.written = [ORACLE_SLOTCOUNT]bool{}
}
