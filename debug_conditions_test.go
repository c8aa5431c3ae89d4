// debug_conditions_test.go - breakpoint condition parsing, evaluation and formatting

package main

import (
	"strings"
	"testing"
)

func newConditionCPU() (*M68KCPU, *DebugM68K) {
	cpu := NewM68KCPU(NewMachineBus())
	cpu.SetRunning(false)
	return cpu, NewDebugM68K(cpu, nil)
}

func TestParseConditionRegister(t *testing.T) {
	tests := []struct {
		input string
		reg   string
		op    ConditionOp
		value uint64
	}{
		{"d0==$FF", "D0", CondOpEqual, 0xFF},
		{"sr!=0", "SR", CondOpNotEqual, 0},
		{"a7>=8000", "A7", CondOpGreaterEqual, 0x8000},
		{"D3<=#100", "D3", CondOpLessEqual, 100},
		{"pc>$1000", "PC", CondOpGreater, 0x1000},
		{"usp<$400", "USP", CondOpLess, 0x400},
	}

	for _, tt := range tests {
		cond, err := ParseCondition(tt.input)
		if err != nil {
			t.Errorf("ParseCondition(%q): %v", tt.input, err)
			continue
		}
		if cond.Source != CondSourceRegister {
			t.Errorf("ParseCondition(%q).Source = %d, want register", tt.input, cond.Source)
		}
		if cond.RegName != tt.reg || cond.Op != tt.op || cond.Value != tt.value {
			t.Errorf("ParseCondition(%q) = {%s %d $%X}, want {%s %d $%X}",
				tt.input, cond.RegName, cond.Op, cond.Value, tt.reg, tt.op, tt.value)
		}
	}
}

func TestParseConditionMemory(t *testing.T) {
	cond, err := ParseCondition("[$1000]==$42")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Source != CondSourceMemory || cond.MemAddr != 0x1000 || cond.Op != CondOpEqual || cond.Value != 0x42 {
		t.Errorf("got {%d $%X %d $%X}", cond.Source, cond.MemAddr, cond.Op, cond.Value)
	}

	// Bare numbers are hex, matching monitor address syntax
	cond, err = ParseCondition("[1000]<10")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.MemAddr != 0x1000 || cond.Value != 0x10 {
		t.Errorf("bare hex: addr $%X value $%X, want $1000 $10", cond.MemAddr, cond.Value)
	}
}

func TestParseConditionHitCount(t *testing.T) {
	cond, err := ParseCondition("hitcount>10")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Source != CondSourceHitCount || cond.Op != CondOpGreater || cond.Value != 0x10 {
		t.Errorf("got {%d %d $%X}, want hitcount > $10", cond.Source, cond.Op, cond.Value)
	}

	// Case-insensitive keyword, decimal value via #
	cond, err = ParseCondition("HITCOUNT<=#10")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Source != CondSourceHitCount || cond.Op != CondOpLessEqual || cond.Value != 10 {
		t.Errorf("got {%d %d %d}, want hitcount <= 10", cond.Source, cond.Op, cond.Value)
	}
}

func TestParseConditionTwoCharOperators(t *testing.T) {
	// <= and >= must win over their one-character prefixes
	cond, err := ParseCondition("d0<=5")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Op != CondOpLessEqual {
		t.Errorf("d0<=5 parsed as op %d, want <=", cond.Op)
	}

	cond, err = ParseCondition("d0>=5")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Op != CondOpGreaterEqual {
		t.Errorf("d0>=5 parsed as op %d, want >=", cond.Op)
	}
}

func TestParseConditionErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "empty condition"},
		{"d0", "no operator found"},
		{"d0==wibble", "invalid value: wibble"},
		{"[wibble]==5", "invalid memory address: wibble"},
	}

	for _, tt := range tests {
		_, err := ParseCondition(tt.input)
		if err == nil {
			t.Errorf("ParseCondition(%q) should fail", tt.input)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("ParseCondition(%q) error = %q, want %q", tt.input, err, tt.want)
		}
	}
}

func TestEvaluateConditionRegister(t *testing.T) {
	cpu, adapter := newConditionCPU()
	cpu.DataRegs[0] = 0x42

	tests := []struct {
		input string
		want  bool
	}{
		{"d0==$42", true},
		{"d0!=$42", false},
		{"d0>$41", true},
		{"d0<$42", false},
		{"d0>=$42", true},
		{"d0<=$41", false},
	}

	for _, tt := range tests {
		cond, err := ParseCondition(tt.input)
		if err != nil {
			t.Fatalf("ParseCondition(%q): %v", tt.input, err)
		}
		if got := evaluateCondition(cond, adapter, 0); got != tt.want {
			t.Errorf("evaluateCondition(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestEvaluateConditionUnknownRegister(t *testing.T) {
	_, adapter := newConditionCPU()

	cond, err := ParseCondition("z9==0")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	// Unknown registers never fire, even against zero
	if evaluateCondition(cond, adapter, 0) {
		t.Error("condition on unknown register should not fire")
	}
}

func TestEvaluateConditionMemory(t *testing.T) {
	_, adapter := newConditionCPU()
	adapter.WriteMemory(0x1000, []byte{0x42})

	cond, _ := ParseCondition("[$1000]==$42")
	if !evaluateCondition(cond, adapter, 0) {
		t.Error("memory condition should hold")
	}

	cond, _ = ParseCondition("[$1000]>$50")
	if evaluateCondition(cond, adapter, 0) {
		t.Error("memory condition should not hold")
	}
}

func TestEvaluateConditionHitCount(t *testing.T) {
	_, adapter := newConditionCPU()

	cond, _ := ParseCondition("hitcount>#4")
	if !evaluateCondition(cond, adapter, 5) {
		t.Error("hitcount 5 > 4 should hold")
	}
	if evaluateCondition(cond, adapter, 4) {
		t.Error("hitcount 4 > 4 should not hold")
	}
}

func TestEvaluateNilCondition(t *testing.T) {
	_, adapter := newConditionCPU()
	if !evaluateCondition(nil, adapter, 0) {
		t.Error("nil condition is unconditional and always fires")
	}
}

func TestFormatCondition(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"d0==$FF", "D0==$FF"},
		{"[$1000]!=$42", "[$1000]!=$42"},
		{"hitcount>10", "hitcount>$10"},
		{"sr<=#31", "SR<=$1F"},
	}

	for _, tt := range tests {
		cond, err := ParseCondition(tt.input)
		if err != nil {
			t.Fatalf("ParseCondition(%q): %v", tt.input, err)
		}
		if got := FormatCondition(cond); got != tt.want {
			t.Errorf("FormatCondition(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	if got := FormatCondition(nil); got != "" {
		t.Errorf("FormatCondition(nil) = %q, want empty", got)
	}
}
