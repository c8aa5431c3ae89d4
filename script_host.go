// script_host.go - Lua automation host for the machine monitor

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
script_host.go - Lua Automation Host

Embeds a Lua interpreter and binds it to a frozen CPU so regression runs and
memory surgery can be scripted instead of typed. Each host owns a fresh
interpreter state; globals do not survive between runs.

Bound functions:

	peek8(addr) peek16(addr) peek32(addr)   read big-endian from memory
	poke8(addr, v) poke16(a, v) poke32(a, v) write big-endian to memory
	reg(name)                                read a register by name
	setreg(name, v)                          write a register by name
	pc()                                     shorthand for reg("PC")
	step([n])                                execute n instructions, return cycles
	disasm([addr[, count]])                  print disassembly, return next addr
	brk(addr) / unbrk(addr)                  plant or clear a breakpoint
	print(...)                               redirected to the monitor console

The CPU must be frozen before a script touches it; the monitor enforces that
by only offering the script command from the prompt.
*/

package main

import (
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ScriptHost runs monitor automation scripts against one CPU.
type ScriptHost struct {
	cpu DebuggableCPU
	out io.Writer
	ls  *lua.LState
}

// NewScriptHost creates a host bound to the given CPU. Output from print and
// disasm goes to out. Close must be called to release the interpreter.
func NewScriptHost(cpu DebuggableCPU, out io.Writer) *ScriptHost {
	h := &ScriptHost{
		cpu: cpu,
		out: out,
		ls:  lua.NewState(),
	}
	h.bind()
	return h
}

// Close releases the interpreter state.
func (h *ScriptHost) Close() {
	h.ls.Close()
}

// RunFile executes a script from disk.
func (h *ScriptHost) RunFile(path string) error {
	return h.ls.DoFile(path)
}

// RunString executes script source directly.
func (h *ScriptHost) RunString(src string) error {
	return h.ls.DoString(src)
}

func (h *ScriptHost) bind() {
	L := h.ls

	L.SetGlobal("peek8", L.NewFunction(h.luaPeek(1)))
	L.SetGlobal("peek16", L.NewFunction(h.luaPeek(2)))
	L.SetGlobal("peek32", L.NewFunction(h.luaPeek(4)))
	L.SetGlobal("poke8", L.NewFunction(h.luaPoke(1)))
	L.SetGlobal("poke16", L.NewFunction(h.luaPoke(2)))
	L.SetGlobal("poke32", L.NewFunction(h.luaPoke(4)))
	L.SetGlobal("reg", L.NewFunction(h.luaReg))
	L.SetGlobal("setreg", L.NewFunction(h.luaSetReg))
	L.SetGlobal("pc", L.NewFunction(h.luaPC))
	L.SetGlobal("step", L.NewFunction(h.luaStep))
	L.SetGlobal("disasm", L.NewFunction(h.luaDisasm))
	L.SetGlobal("brk", L.NewFunction(h.luaBreak))
	L.SetGlobal("unbrk", L.NewFunction(h.luaUnbreak))
	L.SetGlobal("print", L.NewFunction(h.luaPrint))
}

// luaPeek builds a big-endian memory reader for the given width.
func (h *ScriptHost) luaPeek(size int) lua.LGFunction {
	return func(L *lua.LState) int {
		addr := uint64(L.CheckInt64(1))
		data := h.cpu.ReadMemory(addr, size)
		if len(data) < size {
			L.RaiseError("peek: address $%X out of range", addr)
			return 0
		}
		var val uint64
		for _, b := range data {
			val = val<<8 | uint64(b)
		}
		L.Push(lua.LNumber(val))
		return 1
	}
}

// luaPoke builds a big-endian memory writer for the given width.
func (h *ScriptHost) luaPoke(size int) lua.LGFunction {
	return func(L *lua.LState) int {
		addr := uint64(L.CheckInt64(1))
		val := uint64(L.CheckInt64(2))
		data := make([]byte, size)
		for i := size - 1; i >= 0; i-- {
			data[i] = byte(val)
			val >>= 8
		}
		h.cpu.WriteMemory(addr, data)
		return 0
	}
}

func (h *ScriptHost) luaReg(L *lua.LState) int {
	name := strings.ToUpper(L.CheckString(1))
	val, ok := h.cpu.GetRegister(name)
	if !ok {
		L.RaiseError("reg: unknown register %s", name)
		return 0
	}
	L.Push(lua.LNumber(val))
	return 1
}

func (h *ScriptHost) luaSetReg(L *lua.LState) int {
	name := strings.ToUpper(L.CheckString(1))
	val := uint64(L.CheckInt64(2))
	if !h.cpu.SetRegister(name, val) {
		L.RaiseError("setreg: unknown register %s", name)
	}
	return 0
}

func (h *ScriptHost) luaPC(L *lua.LState) int {
	L.Push(lua.LNumber(h.cpu.GetPC()))
	return 1
}

// luaStep executes n instructions (default 1) and returns the cycle total.
// Stops early if the CPU halts.
func (h *ScriptHost) luaStep(L *lua.LState) int {
	n := L.OptInt(1, 1)
	cycles := 0
	for i := 0; i < n; i++ {
		c := h.cpu.Step()
		if c == 0 {
			break
		}
		cycles += c
	}
	L.Push(lua.LNumber(cycles))
	return 1
}

// luaDisasm prints count lines from addr (defaults: PC, 8) and returns the
// address following the last line so scripts can walk forward.
func (h *ScriptHost) luaDisasm(L *lua.LState) int {
	addr := uint64(L.OptInt64(1, int64(h.cpu.GetPC())))
	count := L.OptInt(2, 8)

	lines := h.cpu.Disassemble(addr, count)
	next := addr
	for _, line := range lines {
		fmt.Fprintf(h.out, "%06X: %-20s %s\n", line.Address, line.HexBytes, line.Mnemonic)
		next = line.Address + uint64(line.Size)
	}
	L.Push(lua.LNumber(next))
	return 1
}

func (h *ScriptHost) luaBreak(L *lua.LState) int {
	addr := uint64(L.CheckInt64(1))
	L.Push(lua.LBool(h.cpu.SetBreakpoint(addr)))
	return 1
}

func (h *ScriptHost) luaUnbreak(L *lua.LState) int {
	addr := uint64(L.CheckInt64(1))
	L.Push(lua.LBool(h.cpu.ClearBreakpoint(addr)))
	return 1
}

// luaPrint replaces the stock print so script output lands on the monitor
// console rather than the process stdout.
func (h *ScriptHost) luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	fmt.Fprintln(h.out, strings.Join(parts, "\t"))
	return 0
}
