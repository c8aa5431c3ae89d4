// m68k_arithmetic_test.go - ADD/SUB/CMP/NEG, multiply, divide and extended arithmetic

package main

import (
	"testing"
)

// ============================================================================
// ADD Instruction Tests
// ============================================================================

func TestAddDataRegister(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "ADD.L_D1_D0_basic",
			DataRegs:      [8]uint32{0x00000010, 0x00000005},
			Opcodes:       []uint16{0xD081}, // ADD.L D1,D0
			ExpectedRegs:  Reg("D0", 0x00000015),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "ADD.L_D1_D0_overflow_positive",
			DataRegs:      [8]uint32{0x7FFFFFFF, 0x00000001},
			Opcodes:       []uint16{0xD081}, // ADD.L D1,D0
			ExpectedRegs:  Reg("D0", 0x80000000),
			ExpectedFlags: FlagsNZVC(1, 0, 1, 0), // N=1, V=1 (overflow)
		},
		{
			Name:          "ADD.L_D1_D0_zero_result",
			DataRegs:      [8]uint32{0xFFFFFFFF, 0x00000001},
			Opcodes:       []uint16{0xD081}, // ADD.L D1,D0
			ExpectedRegs:  Reg("D0", 0x00000000),
			ExpectedFlags: FlagsAll(0, 1, 0, 1, 1), // Z=1, C=X=1 (carry out)
		},
		{
			Name:          "ADD.W_D1_D0_upper_half_untouched",
			DataRegs:      [8]uint32{0xFFFF0010, 0x00000005},
			Opcodes:       []uint16{0xD041}, // ADD.W D1,D0
			ExpectedRegs:  Reg("D0", 0xFFFF0015),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "ADD.B_D1_D0_signed_overflow",
			DataRegs:      [8]uint32{0x00000070, 0x00000020},
			Opcodes:       []uint16{0xD001}, // ADD.B D1,D0
			ExpectedRegs:  Reg("D0", 0x00000090),
			ExpectedFlags: FlagsNZVC(1, 0, 1, 0), // 0x70+0x20 overflows a signed byte
		},
		{
			Name:          "ADD.B_carry_without_overflow",
			DataRegs:      [8]uint32{0x000000FF, 0x00000002},
			Opcodes:       []uint16{0xD001}, // ADD.B D1,D0
			ExpectedRegs:  Reg("D0", 0x00000001),
			ExpectedFlags: FlagsAll(0, 0, 0, 1, 1), // -1+2 carries, no signed overflow
		},
		{
			Name:         "ADD.B_D0_to_memory",
			DataRegs:     [8]uint32{0x00000011},
			AddrRegs:     [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:   map[uint32]interface{}{0x2000: uint8(0x22)},
			Opcodes:      []uint16{0xD110}, // ADD.B D0,(A0)
			ExpectedMem:  []MemoryExpectation{ExpectByte(0x2000, 0x33)},
			ExpectedRegs: Reg("D0", 0x00000011),
		},
		{
			Name:          "ADDI.W_immediate_to_register",
			DataRegs:      [8]uint32{0x00001234},
			Opcodes:       []uint16{0x0640, 0x0001}, // ADDI.W #1,D0
			ExpectedRegs:  Reg("D0", 0x00001235),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// ============================================================================
// SUB and CMP Instruction Tests
// ============================================================================

func TestSubDataRegister(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "SUB.L_D1_D0_basic",
			DataRegs:      [8]uint32{0x00000010, 0x00000005},
			Opcodes:       []uint16{0x9081}, // SUB.L D1,D0
			ExpectedRegs:  Reg("D0", 0x0000000B),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "SUB.B_borrow",
			DataRegs:      [8]uint32{0x00000000, 0x00000001},
			Opcodes:       []uint16{0x9001}, // SUB.B D1,D0
			ExpectedRegs:  Reg("D0", 0x000000FF),
			ExpectedFlags: FlagsAll(1, 0, 0, 1, 1), // borrow propagates to X
		},
		{
			Name:          "SUB.W_zero_result",
			DataRegs:      [8]uint32{0x00005555, 0x00005555},
			Opcodes:       []uint16{0x9041}, // SUB.W D1,D0
			ExpectedRegs:  Reg("D0", 0x00000000),
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			Name:          "SUB.B_signed_overflow",
			DataRegs:      [8]uint32{0x00000080, 0x00000001},
			Opcodes:       []uint16{0x9001}, // SUB.B D1,D0
			ExpectedRegs:  Reg("D0", 0x0000007F),
			ExpectedFlags: FlagsNZVC(0, 0, 1, 0), // -128-1 overflows
		},
		{
			Name:          "SUBI.L_immediate",
			DataRegs:      [8]uint32{0x00010000},
			Opcodes:       []uint16{0x0480, 0x0000, 0x0001}, // SUBI.L #1,D0
			ExpectedRegs:  Reg("D0", 0x0000FFFF),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

func TestCmpLeavesOperandsAndExtend(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "CMP.B_equal_preserves_X",
			DataRegs:      [8]uint32{0x00000005, 0x00000005},
			SR:            M68K_SR_S | M68K_SR_X,
			Opcodes:       []uint16{0xB001}, // CMP.B D1,D0
			ExpectedRegs:  Regs("D0", uint32(0x00000005), "D1", uint32(0x00000005)),
			ExpectedFlags: FlagsAll(0, 1, 0, 0, 1), // Z set, X untouched
		},
		{
			Name:          "CMP.L_lower",
			DataRegs:      [8]uint32{0x00000003, 0x00000007},
			Opcodes:       []uint16{0xB081}, // CMP.L D1,D0
			ExpectedRegs:  Reg("D0", 0x00000003),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 1), // 3-7 borrows and goes negative
		},
		{
			// Swapping the operands of the case above flips N and C
			// while Z stays identical.
			Name:          "CMP.L_higher",
			DataRegs:      [8]uint32{0x00000007, 0x00000003},
			Opcodes:       []uint16{0xB081}, // CMP.L D1,D0
			ExpectedRegs:  Reg("D0", 0x00000007),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "CMPI.W_against_memory",
			AddrRegs:      [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:    map[uint32]interface{}{0x2000: uint16(0x0042)},
			Opcodes:       []uint16{0x0C50, 0x0042}, // CMPI.W #$42,(A0)
			ExpectedMem:   []MemoryExpectation{ExpectWord(0x2000, 0x0042)},
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			Name:     "CMPM.B_postincrement_both_sides",
			AddrRegs: [8]uint32{0x00002000, 0x00003000, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem: map[uint32]interface{}{
				0x2000: uint8(0x05),
				0x3000: uint8(0x05),
			},
			Opcodes:       []uint16{0xB308}, // CMPM.B (A0)+,(A1)+
			ExpectedRegs:  Regs("A0", uint32(0x00002001), "A1", uint32(0x00003001)),
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// ============================================================================
// AND, OR, EOR
// ============================================================================

func TestLogicalOperations(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "AND.L_D1_D0_masks",
			DataRegs:      [8]uint32{0xFF00FF00, 0x0F0F0F0F},
			Opcodes:       []uint16{0xC081}, // AND.L D1,D0
			ExpectedRegs:  Reg("D0", 0x0F000F00),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			// ANDing a register with itself twice leaves it untouched;
			// V and C come out clear on every pass, X rides through.
			Name:          "AND.B_same_register_idempotent",
			DataRegs:      [8]uint32{0x00000080},
			SR:            M68K_SR_S | M68K_SR_X | M68K_SR_V | M68K_SR_C,
			Opcodes:       []uint16{0xC000, 0xC000}, // AND.B D0,D0 twice
			Steps:         2,
			ExpectedRegs:  Reg("D0", 0x00000080),
			ExpectedFlags: FlagsAll(1, 0, 0, 0, 1),
		},
		{
			Name:          "AND.B_to_memory",
			DataRegs:      [8]uint32{0x0000000F},
			AddrRegs:      [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:    map[uint32]interface{}{0x2000: uint8(0x3C)},
			Opcodes:       []uint16{0xC110}, // AND.B D0,(A0)
			ExpectedMem:   []MemoryExpectation{ExpectByte(0x2000, 0x0C)},
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "OR.L_merges",
			DataRegs:      [8]uint32{0xF0F00000, 0x000F0F0F},
			Opcodes:       []uint16{0x8081}, // OR.L D1,D0
			ExpectedRegs:  Reg("D0", 0xF0FF0F0F),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "EOR.W_toggles_low_word_only",
			DataRegs:      [8]uint32{0x1234AAAA, 0x0000FFFF},
			Opcodes:       []uint16{0xB340}, // EOR.W D1,D0
			ExpectedRegs:  Reg("D0", 0x12345555),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "EOR.L_with_itself_zeroes",
			DataRegs:      [8]uint32{0, 0xDEADBEEF},
			Opcodes:       []uint16{0xB381}, // EOR.L D1,D1
			ExpectedRegs:  Reg("D1", 0x00000000),
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			Name:          "EORI.W_immediate",
			DataRegs:      [8]uint32{0x0000FF00},
			Opcodes:       []uint16{0x0A40, 0x00FF}, // EORI.W #$FF,D0
			ExpectedRegs:  Reg("D0", 0x0000FFFF),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// ============================================================================
// NEG, NEGX, CLR, NOT, TST
// ============================================================================

func TestNegInstruction(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "NEG.B_one",
			DataRegs:      [8]uint32{0x00000001},
			Opcodes:       []uint16{0x4400}, // NEG.B D0
			ExpectedRegs:  Reg("D0", 0x000000FF),
			ExpectedFlags: FlagsAll(1, 0, 0, 1, 1),
		},
		{
			Name:          "NEG.B_zero_no_borrow",
			DataRegs:      [8]uint32{0x00000000},
			Opcodes:       []uint16{0x4400}, // NEG.B D0
			ExpectedRegs:  Reg("D0", 0x00000000),
			ExpectedFlags: FlagsAll(0, 1, 0, 0, 0),
		},
		{
			Name:          "NEG.B_most_negative_overflows",
			DataRegs:      [8]uint32{0x00000080},
			Opcodes:       []uint16{0x4400}, // NEG.B D0
			ExpectedRegs:  Reg("D0", 0x00000080),
			ExpectedFlags: FlagsAll(1, 0, 1, 1, 1), // -(-128) does not fit
		},
		{
			Name:          "NEGX.B_extends_borrow",
			DataRegs:      [8]uint32{0x00000000},
			SR:            M68K_SR_S | M68K_SR_X | M68K_SR_Z,
			Opcodes:       []uint16{0x4000}, // NEGX.B D0
			ExpectedRegs:  Reg("D0", 0x000000FF),
			ExpectedFlags: FlagsAll(1, 0, 0, 1, 1), // non-zero result clears the sticky Z
		},
		{
			Name:          "NEGX.B_zero_keeps_sticky_Z",
			DataRegs:      [8]uint32{0x00000000},
			SR:            M68K_SR_S | M68K_SR_Z,
			Opcodes:       []uint16{0x4000}, // NEGX.B D0
			ExpectedRegs:  Reg("D0", 0x00000000),
			ExpectedFlags: FlagsAll(0, 1, 0, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

func TestClrNotTst(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "CLR.W_keeps_upper_half",
			DataRegs:      [8]uint32{0, 0, 0, 0xFFFFFFFF},
			Opcodes:       []uint16{0x4243}, // CLR.W D3
			ExpectedRegs:  Reg("D3", 0xFFFF0000),
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			Name:         "CLR.B_memory",
			AddrRegs:     [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:   map[uint32]interface{}{0x2000: uint8(0xAA)},
			Opcodes:      []uint16{0x4210}, // CLR.B (A0)
			ExpectedMem:  []MemoryExpectation{ExpectByte(0x2000, 0x00)},
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			Name:          "NOT.B_inverts",
			DataRegs:      [8]uint32{0x0000000F},
			Opcodes:       []uint16{0x4600}, // NOT.B D0
			ExpectedRegs:  Reg("D0", 0x000000F0),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "TST.B_negative_memory",
			AddrRegs:      [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:    map[uint32]interface{}{0x2000: uint8(0x80)},
			Opcodes:       []uint16{0x4A10}, // TST.B (A0)
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "TST.L_zero",
			DataRegs:      [8]uint32{0x00000000},
			Opcodes:       []uint16{0x4A80}, // TST.L D0
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// ============================================================================
// EXT and SWAP
// ============================================================================

func TestExtendAndSwap(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "EXT.W_sign_extends_byte",
			DataRegs:      [8]uint32{0x00000080},
			Opcodes:       []uint16{0x4880}, // EXT.W D0
			ExpectedRegs:  Reg("D0", 0x0000FF80),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "EXT.L_sign_extends_word",
			DataRegs:      [8]uint32{0x00008000},
			Opcodes:       []uint16{0x48C0}, // EXT.L D0
			ExpectedRegs:  Reg("D0", 0xFFFF8000),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "EXT.W_positive",
			DataRegs:      [8]uint32{0xFFFFFF7F},
			Opcodes:       []uint16{0x4880}, // EXT.W D0
			ExpectedRegs:  Reg("D0", 0xFFFF007F),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "SWAP_exchanges_halves",
			DataRegs:      [8]uint32{0x12345678},
			Opcodes:       []uint16{0x4840}, // SWAP D0
			ExpectedRegs:  Reg("D0", 0x56781234),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "SWAP_negative_result",
			DataRegs:      [8]uint32{0x0000ABCD},
			Opcodes:       []uint16{0x4840}, // SWAP D0
			ExpectedRegs:  Reg("D0", 0xABCD0000),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// ============================================================================
// Multiply
// ============================================================================

func TestMultiply(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "MULU_full_32bit_product",
			DataRegs:      [8]uint32{0x0000FFFF, 0x0000FFFF},
			Opcodes:       []uint16{0xC0C1}, // MULU D1,D0
			ExpectedRegs:  Reg("D0", 0xFFFE0001),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "MULU_zero",
			DataRegs:      [8]uint32{0x00001234, 0x00000000},
			Opcodes:       []uint16{0xC0C1}, // MULU D1,D0
			ExpectedRegs:  Reg("D0", 0x00000000),
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			Name:          "MULU_ignores_upper_half_of_source",
			DataRegs:      [8]uint32{0xABCD0002, 0xFFFF0003},
			Opcodes:       []uint16{0xC0C1}, // MULU D1,D0
			ExpectedRegs:  Reg("D0", 0x00000006),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "MULS_negative_product",
			DataRegs:      [8]uint32{0x0000FFFE, 0x00000003}, // -2 * 3
			Opcodes:       []uint16{0xC1C1},                  // MULS D1,D0
			ExpectedRegs:  Reg("D0", 0xFFFFFFFA),
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "MULS_min_times_min",
			DataRegs:      [8]uint32{0x00008000, 0x00008000}, // -32768 * -32768
			Opcodes:       []uint16{0xC1C1},                  // MULS D1,D0
			ExpectedRegs:  Reg("D0", 0x40000000),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "MULU_from_memory",
			DataRegs:      [8]uint32{0x00000005},
			AddrRegs:      [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:    map[uint32]interface{}{0x2000: uint16(0x0007)},
			Opcodes:       []uint16{0xC0D0}, // MULU (A0),D0
			ExpectedRegs:  Reg("D0", 0x00000023),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// ============================================================================
// Divide
// ============================================================================

func TestDivide(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "DIVU_quotient_low_remainder_high",
			DataRegs:      [8]uint32{0x000186A1, 0x0000000A}, // 100001 / 10
			Opcodes:       []uint16{0x80C1},                  // DIVU D1,D0
			ExpectedRegs:  Reg("D0", 0x00012710),             // r=1, q=10000
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:       "DIVU_by_zero_traps",
			DataRegs:   [8]uint32{0x00001234, 0x00000000},
			Opcodes:    []uint16{0x80C1}, // DIVU D1,D0
			ShouldTrap: true,
			TrapVector: M68K_VEC_ZERO_DIVIDE,
			ExpectedRegs: Reg("D0", 0x00001234), // register untouched
			ExpectedFlags: FlagDontCare(),
		},
		{
			Name:          "DIVU_overflow_sets_V_keeps_register",
			DataRegs:      [8]uint32{0x00020000, 0x00000001},
			Opcodes:       []uint16{0x80C1}, // DIVU D1,D0
			ExpectedRegs:  Reg("D0", 0x00020000),
			ExpectedFlags: FlagExpectation{N: -1, Z: -1, V: 1, C: 0, X: -1},
		},
		{
			Name:          "DIVS_negative_dividend",
			DataRegs:      [8]uint32{0xFFFFFF9C, 0x00000007}, // -100 / 7
			Opcodes:       []uint16{0x81C1},                  // DIVS D1,D0
			ExpectedRegs:  Reg("D0", 0xFFFEFFF2),             // r=-2, q=-14
			ExpectedFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			Name:          "DIVS_int_min_by_minus_one_overflows",
			DataRegs:      [8]uint32{0x80000000, 0x0000FFFF},
			Opcodes:       []uint16{0x81C1}, // DIVS D1,D0
			ExpectedRegs:  Reg("D0", 0x80000000),
			ExpectedFlags: FlagExpectation{N: -1, Z: -1, V: 1, C: 0, X: -1},
		},
		{
			Name:       "DIVS_by_zero_traps",
			DataRegs:   [8]uint32{0x00000064, 0x00000000},
			Opcodes:    []uint16{0x81C1}, // DIVS D1,D0
			ShouldTrap: true,
			TrapVector: M68K_VEC_ZERO_DIVIDE,
			ExpectedFlags: FlagDontCare(),
		},
	}

	RunM68KTests(t, tests)
}

// TestZeroDivideRteResumes places an RTE at the zero-divide handler and
// checks execution carries on at the instruction after the divide.
func TestZeroDivideRteResumes(t *testing.T) {
	cpu := setupTestCPU()
	cpu.DataRegs[0] = 0x1234
	cpu.DataRegs[1] = 0
	cpu.Write32(M68K_VEC_ZERO_DIVIDE*4, 0x00001000)
	cpu.Write16(0x1000, 0x4E73)   // RTE
	cpu.Write16(cpu.PC, 0x80C1)   // DIVU D1,D0
	cpu.Write16(cpu.PC+2, 0x7001) // MOVEQ #1,D0

	cpu.StepOne() // trap into the handler
	cpu.StepOne() // RTE
	if cpu.PC != M68K_ENTRY_POINT+2 {
		t.Fatalf("PC after RTE: got 0x%08X, expected 0x%08X",
			cpu.PC, M68K_ENTRY_POINT+2)
	}

	cpu.StepOne()
	if cpu.DataRegs[0] != 1 {
		t.Fatalf("D0 after resume: got 0x%08X, expected 1", cpu.DataRegs[0])
	}
}

// ============================================================================
// Quick and address arithmetic
// ============================================================================

func TestQuickArithmetic(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "ADDQ.L_data_field_zero_means_eight",
			DataRegs:      [8]uint32{0x00000001},
			Opcodes:       []uint16{0x5080}, // ADDQ.L #8,D0
			ExpectedRegs:  Reg("D0", 0x00000009),
			ExpectedFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			Name:          "ADDQ.W_to_address_register_full_width_no_flags",
			AddrRegs:      [8]uint32{0x0000FFFF, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			SR:            M68K_SR_S | M68K_SR_Z,
			Opcodes:       []uint16{0x5248}, // ADDQ.W #1,A0
			ExpectedRegs:  Reg("A0", 0x00010000),
			ExpectedFlags: FlagsAll(0, 1, 0, 0, 0), // condition codes untouched
		},
		{
			Name:          "SUBQ.B_borrow",
			DataRegs:      [8]uint32{0x00000000},
			Opcodes:       []uint16{0x5300}, // SUBQ.B #1,D0
			ExpectedRegs:  Reg("D0", 0x000000FF),
			ExpectedFlags: FlagsAll(1, 0, 0, 1, 1),
		},
		{
			Name:          "SUBQ.W_address_register",
			AddrRegs:      [8]uint32{0, 0x00010000, 0, 0, 0, 0, 0, M68K_STACK_START},
			Opcodes:       []uint16{0x5549}, // SUBQ.W #2,A1
			ExpectedRegs:  Reg("A1", 0x0000FFFE),
			ExpectedFlags: FlagDontCare(),
		},
		{
			Name:         "ADDQ.B_memory",
			AddrRegs:     [8]uint32{0x00002000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem:   map[uint32]interface{}{0x2000: uint8(0x7F)},
			Opcodes:      []uint16{0x5210}, // ADDQ.B #1,(A0)
			ExpectedMem:  []MemoryExpectation{ExpectByte(0x2000, 0x80)},
			ExpectedFlags: FlagsNZVC(1, 0, 1, 0),
		},
	}

	RunM68KTests(t, tests)
}

func TestAddressArithmetic(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "ADDA.W_sign_extends_source",
			DataRegs:      [8]uint32{0, 0x0000FFFE}, // -2
			AddrRegs:      [8]uint32{0x00001000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			SR:            M68K_SR_S | M68K_SR_Z,
			Opcodes:       []uint16{0xD0C1}, // ADDA.W D1,A0
			ExpectedRegs:  Reg("A0", 0x00000FFE),
			ExpectedFlags: FlagsAll(0, 1, 0, 0, 0), // no flag changes
		},
		{
			Name:          "ADDA.L_full_width",
			DataRegs:      [8]uint32{0, 0x00010000},
			AddrRegs:      [8]uint32{0x00001000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			Opcodes:       []uint16{0xD1C1}, // ADDA.L D1,A0
			ExpectedRegs:  Reg("A0", 0x00011000),
			ExpectedFlags: FlagDontCare(),
		},
		{
			Name:          "SUBA.W_sign_extends_source",
			DataRegs:      [8]uint32{0, 0x0000FFFF}, // -1
			AddrRegs:      [8]uint32{0x00001000, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			Opcodes:       []uint16{0x90C1}, // SUBA.W D1,A0
			ExpectedRegs:  Reg("A0", 0x00001001),
			ExpectedFlags: FlagDontCare(),
		},
		{
			Name:          "CMPA.W_sign_extended_compare",
			DataRegs:      [8]uint32{0, 0x0000FFFE},
			AddrRegs:      [8]uint32{0xFFFFFFFE, 0, 0, 0, 0, 0, 0, M68K_STACK_START},
			Opcodes:       []uint16{0xB0C1}, // CMPA.W D1,A0
			ExpectedFlags: FlagsNZVC(0, 1, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}

// ============================================================================
// Extended (multi-precision) arithmetic
// ============================================================================

func TestExtendedArithmetic(t *testing.T) {
	tests := []M68KTestCase{
		{
			Name:          "ADDX.B_adds_extend_bit",
			DataRegs:      [8]uint32{0x00000010, 0x00000020},
			SR:            M68K_SR_S | M68K_SR_X | M68K_SR_Z,
			Opcodes:       []uint16{0xD101}, // ADDX.B D1,D0
			ExpectedRegs:  Reg("D0", 0x00000031),
			ExpectedFlags: FlagsAll(0, 0, 0, 0, 0), // non-zero result clears sticky Z
		},
		{
			Name:          "ADDX.B_zero_result_keeps_sticky_Z",
			DataRegs:      [8]uint32{0x000000FF, 0x00000000},
			SR:            M68K_SR_S | M68K_SR_X | M68K_SR_Z,
			Opcodes:       []uint16{0xD101}, // ADDX.B D1,D0
			ExpectedRegs:  Reg("D0", 0x00000000),
			ExpectedFlags: FlagsAll(0, 1, 0, 1, 1),
		},
		{
			Name:          "SUBX.B_subtracts_extend_bit",
			DataRegs:      [8]uint32{0x00000010, 0x00000005},
			SR:            M68K_SR_S | M68K_SR_X,
			Opcodes:       []uint16{0x9101}, // SUBX.B D1,D0
			ExpectedRegs:  Reg("D0", 0x0000000A),
			ExpectedFlags: FlagsAll(0, 0, 0, 0, 0),
		},
		{
			Name:     "SUBX.B_memory_predecrement_form",
			AddrRegs: [8]uint32{0x00002001, 0x00003001, 0, 0, 0, 0, 0, M68K_STACK_START},
			InitialMem: map[uint32]interface{}{
				0x2000: uint8(0x50),
				0x3000: uint8(0x20),
			},
			Opcodes:      []uint16{0x9109}, // SUBX.B -(A1),-(A0)
			ExpectedRegs: Regs("A0", uint32(0x00002000), "A1", uint32(0x00003000)),
			ExpectedMem:  []MemoryExpectation{ExpectByte(0x2000, 0x30)},
			ExpectedFlags: FlagsAll(0, 0, 0, 0, 0),
		},
		{
			Name:     "64bit_add_with_ADD_then_ADDX",
			DataRegs: [8]uint32{0x00000001, 0xFFFFFFFF, 0x00000002, 0x00000001},
			Opcodes: []uint16{
				0xD283, // ADD.L D3,D1  (low halves, sets X)
				0xD182, // ADDX.L D2,D0 (high halves plus carry)
			},
			Steps:         2,
			ExpectedRegs:  Regs("D0", uint32(0x00000004), "D1", uint32(0x00000000)),
			ExpectedFlags: FlagsAll(0, 0, 0, 0, 0),
		},
	}

	RunM68KTests(t, tests)
}
