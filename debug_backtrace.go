// debug_backtrace.go - stack trace for the machine monitor

package main

import "encoding/binary"

// backtrace walks the active stack (A7) and returns up to depth 4-byte
// big-endian slots. Exception frames interleave SR words with return
// addresses, so early entries are the trustworthy ones.
func backtrace(cpu DebuggableCPU, depth int) []uint64 {
	sp, _ := cpu.GetRegister("A7")
	var result []uint64
	for range depth {
		data := cpu.ReadMemory(sp, 4)
		if len(data) < 4 {
			break
		}
		addr := uint64(binary.BigEndian.Uint32(data))
		result = append(result, addr)
		sp += 4
	}
	return result
}
