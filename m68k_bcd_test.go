// m68k_bcd_test.go - packed binary-coded decimal arithmetic (ABCD/SBCD/NBCD)

package main

import (
	"testing"
)

// =============================================================================
// ABCD (Add BCD with Extend) Tests
// =============================================================================

func TestAbcdRegister(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "ABCD_simple_decimal_adjust",
			DataRegs:      [8]uint32{0x09, 0x01}, // 09 + 01 = 10 in BCD
			Opcodes:       []uint16{0xC300},      // ABCD D0,D1
			ExpectedRegs:  Reg("D1", 0x10),
			ExpectedFlags: FlagsAll(0, 0, -1, 0, 0),
		},
		{
			Name:          "ABCD_decimal_carry_out",
			DataRegs:      [8]uint32{0x99, 0x01}, // 99 + 01 = 00 carry
			Opcodes:       []uint16{0xC300},      // ABCD D0,D1
			ExpectedRegs:  Reg("D1", 0x00),
			ExpectedFlags: FlagsAll(-1, -1, -1, 1, 1),
		},
		{
			Name:          "ABCD_99_plus_99_adjusts_both_digits",
			DataRegs:      [8]uint32{0x99, 0x99}, // 99 + 99 = 98 carry
			Opcodes:       []uint16{0xC300},      // ABCD D0,D1
			ExpectedRegs:  Reg("D1", 0x98),
			ExpectedFlags: FlagsAll(-1, 0, -1, 1, 1),
		},
		{
			Name:          "ABCD_consumes_extend_bit",
			DataRegs:      [8]uint32{0x09, 0x00}, // 09 + 00 + X = 10
			SR:            M68K_SR_S | M68K_SR_X,
			Opcodes:       []uint16{0xC300}, // ABCD D0,D1
			ExpectedRegs:  Reg("D1", 0x10),
			ExpectedFlags: FlagsAll(-1, 0, -1, 0, 0),
		},
		{
			Name:          "ABCD_zero_result_keeps_sticky_Z",
			DataRegs:      [8]uint32{0x00, 0x00},
			SR:            M68K_SR_S | M68K_SR_Z,
			Opcodes:       []uint16{0xC300}, // ABCD D0,D1
			ExpectedRegs:  Reg("D1", 0x00),
			ExpectedFlags: FlagsAll(-1, 1, -1, 0, 0),
		},
		{
			Name:          "ABCD_upper_bytes_untouched",
			DataRegs:      [8]uint32{0x11223305, 0x44556604},
			Opcodes:       []uint16{0xC300}, // ABCD D0,D1
			ExpectedRegs:  Reg("D1", 0x44556609),
			ExpectedFlags: FlagsAll(-1, 0, -1, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// TestAbcdMemoryChain ripples a two-byte BCD add through the predecrement
// form, the way multi-digit totals are actually summed: 9999 + 0001 = 0000
// with the carry out and Z still reporting an all-zero result.
func TestAbcdMemoryChain(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:     "ABCD_9999_plus_0001",
			AddrRegs: [8]uint32{0x00002002, 0x00003002, 0, 0, 0, 0, 0, M68K_STACK_START},
			SR:       M68K_SR_S | M68K_SR_Z, // Z seeded for the sticky rule
			InitialMem: map[uint32]interface{}{
				0x2000: uint8(0x99), // destination, high digit pair
				0x2001: uint8(0x99),
				0x3000: uint8(0x00), // source, high digit pair
				0x3001: uint8(0x01),
			},
			Opcodes: []uint16{
				0xC109, // ABCD -(A1),-(A0)  low bytes
				0xC109, // ABCD -(A1),-(A0)  high bytes plus carry
			},
			Steps:        2,
			ExpectedRegs: Regs("A0", uint32(0x00002000), "A1", uint32(0x00003000)),
			ExpectedMem: []MemoryExpectation{
				ExpectByte(0x2000, 0x00),
				ExpectByte(0x2001, 0x00),
			},
			ExpectedFlags: FlagsAll(-1, 1, -1, 1, 1),
		},
	}

	RunM68KTests(t, tests)
}

// =============================================================================
// SBCD (Subtract BCD with Extend) Tests
// =============================================================================

func TestSbcdRegister(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "SBCD_simple",
			DataRegs:      [8]uint32{0x42, 0x17}, // 42 - 17 = 25
			Opcodes:       []uint16{0x8101},      // SBCD D1,D0
			ExpectedRegs:  Reg("D0", 0x25),
			ExpectedFlags: FlagsAll(-1, 0, -1, 0, 0),
		},
		{
			Name:          "SBCD_decimal_borrow",
			DataRegs:      [8]uint32{0x10, 0x25}, // 10 - 25 = 85 borrow
			Opcodes:       []uint16{0x8101},      // SBCD D1,D0
			ExpectedRegs:  Reg("D0", 0x85),
			ExpectedFlags: FlagsAll(1, 0, -1, 1, 1),
		},
		{
			Name:          "SBCD_consumes_extend_bit",
			DataRegs:      [8]uint32{0x50, 0x10}, // 50 - 10 - X = 39
			SR:            M68K_SR_S | M68K_SR_X,
			Opcodes:       []uint16{0x8101}, // SBCD D1,D0
			ExpectedRegs:  Reg("D0", 0x39),
			ExpectedFlags: FlagsAll(-1, 0, -1, 0, 0),
		},
		{
			Name:          "SBCD_zero_result_keeps_sticky_Z",
			DataRegs:      [8]uint32{0x25, 0x25},
			SR:            M68K_SR_S | M68K_SR_Z,
			Opcodes:       []uint16{0x8101}, // SBCD D1,D0
			ExpectedRegs:  Reg("D0", 0x00),
			ExpectedFlags: FlagsAll(-1, 1, -1, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

func TestSbcdMemory(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:     "SBCD_predecrement_form",
			AddrRegs: [8]uint32{0x00002001, 0x00003001, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem: map[uint32]interface{}{
				0x2000: uint8(0x31), // destination
				0x3000: uint8(0x12), // source
			},
			Opcodes:       []uint16{0x8109}, // SBCD -(A1),-(A0)
			ExpectedRegs:  Regs("A0", uint32(0x00002000), "A1", uint32(0x00003000)),
			ExpectedMem:   []MemoryExpectation{ExpectByte(0x2000, 0x19)},
			ExpectedFlags: FlagsAll(-1, 0, -1, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// =============================================================================
// NBCD (Negate BCD) Tests
// =============================================================================

func TestNbcd(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "NBCD_tens_complement",
			DataRegs:      [8]uint32{0x01}, // 0 - 01 = 99 borrow
			Opcodes:       []uint16{0x4800}, // NBCD D0
			ExpectedRegs:  Reg("D0", 0x99),
			ExpectedFlags: FlagsAll(1, 0, -1, 1, 1),
		},
		{
			Name:          "NBCD_zero_no_borrow",
			DataRegs:      [8]uint32{0x00},
			SR:            M68K_SR_S | M68K_SR_Z,
			Opcodes:       []uint16{0x4800}, // NBCD D0
			ExpectedRegs:  Reg("D0", 0x00),
			ExpectedFlags: FlagsAll(-1, 1, -1, 0, 0),
		},
		{
			Name:          "NBCD_zero_with_extend",
			DataRegs:      [8]uint32{0x00}, // 0 - 0 - X = 99 borrow
			SR:            M68K_SR_S | M68K_SR_X,
			Opcodes:       []uint16{0x4800}, // NBCD D0
			ExpectedRegs:  Reg("D0", 0x99),
			ExpectedFlags: FlagsAll(1, 0, -1, 1, 1),
		},
		{
			Name:          "NBCD_mid_range",
			DataRegs:      [8]uint32{0x45}, // 0 - 45 = 55 borrow
			Opcodes:       []uint16{0x4800}, // NBCD D0
			ExpectedRegs:  Reg("D0", 0x55),
			ExpectedFlags: FlagsAll(-1, 0, -1, 1, 1),
		},
		{
			Name:          "NBCD_memory_operand",
			AddrRegs:      [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:    map[uint32]interface{}{0x2000: uint8(0x02)},
			Opcodes:       []uint16{0x4810}, // NBCD (A0)
			ExpectedMem:   []MemoryExpectation{ExpectByte(0x2000, 0x98)},
			ExpectedFlags: FlagsAll(1, 0, -1, 1, 1),
		},
	}

	RunM68KTests(t, tests)
}
