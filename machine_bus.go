// machine_bus.go - Machine bus for the Intuition 68K

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
machine_bus.go - Machine Bus for the Intuition 68K

This module implements the memory bus that forms the backbone of the Intuition
68K's memory subsystem. It provides a unified interface for byte, word and
long operations, including both standard memory access and memory-mapped I/O.
The implementation emphasises cache efficiency and precise control over memory
layout, both of which are critical for accurate 68000 machine emulation.

Core Features:

    16MB of addressable space allocated as a contiguous block, covering the
    full 24-bit address bus of the 68000.
    A configurable RAM ceiling: accesses between the ceiling and the hardware
    register region report a fault, which the CPU turns into a bus error
    exception exactly as unpopulated address space does on real boards.
    Support for memory-mapped I/O via an I/O region mapping table that uses
    page masking and fixed page sizes.
    Big-endian read/write operations throughout, matching 68000 byte order.
    Reset hooks so the RESET instruction can pulse every attached device
    without disturbing processor state.

Technical Details:

    The MachineBus struct fulfils the Bus32 interface, encapsulating the main
    memory and a mapping of I/O regions.
    I/O regions are registered with a defined start and end address along with
    callback functions (onRead and onWrite) to intercept memory accesses.
    Memory page keys are calculated using a page mask (0xFFFF00) and a fixed
    page size of 256 bytes, ensuring that I/O regions are correctly mapped
    across the full 24-bit space.
    Multi-byte values are accessed using binary.BigEndian conversion routines,
    maintaining consistency with the CPU's data handling.
    Addresses are masked to 24 bits on entry, mirroring the physical address
    bus; the upper byte of a 32-bit address never reaches memory.

The bus deliberately performs no alignment checking. Word and long access to
odd addresses is a processor-level fault (address error, vector 3) and is
detected by the CPU core before the bus is consulted.
*/

package main

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_MEMORY_SIZE = 16 * 1024 * 1024 // Full 24-bit address space
	BUS_ADDR_MASK       = DEFAULT_MEMORY_SIZE - 1
	PAGE_SIZE           = 0x100
	PAGE_MASK           = 0xFFFF00
)

type Bus32 interface {
	/*
		Bus32 defines the interface for memory operations within the
		Intuition 68K. It provides methods to read and write byte, word
		and long values as well as to reset the memory state.

		Implementations must supply big-endian byte order and support
		memory-mapped I/O.
	*/

	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Reset()
	GetMemory() []byte
}

type MachineBus struct {
	/*
		MachineBus implements the Bus32 interface and serves as the
		primary memory bus for the Intuition 68K.

		It maintains a contiguous 16MB block covering the whole 24-bit
		address space, a RAM ceiling below which plain accesses succeed,
		and a mapping of memory-mapped I/O regions above it.
	*/

	memory   []byte
	ramLimit uint32
	mapping  map[uint32][]IORegion

	// Fast I/O page bitmap - indexed by (addr >> 8), true if page has I/O mappings.
	ioPageBitmap []bool

	// Devices that want a pulse when the CPU executes RESET
	resetHooks []func()

	// Sealed state to prevent I/O mapping after execution has started
	sealed atomic.Bool
}

type IORegion struct {
	/*
		IORegion represents a memory-mapped I/O region within the system.
		Each region is defined by its start and end addresses and includes
		callback functions to handle read and write operations.

		Word and long accesses that land inside a region are delivered to
		the callbacks at the access address with the full value; devices
		that distinguish widths decompose the value themselves.
	*/
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint32
	onWrite func(addr uint32, value uint32)
}

func NewMachineBus() *MachineBus {
	return NewMachineBusWithRAM(IO_REGION_START)
}

// NewMachineBusWithRAM creates a bus whose plain-RAM region ends at ramLimit.
// Accesses at or above ramLimit must hit a mapped I/O region or they fault.
func NewMachineBusWithRAM(ramLimit uint32) *MachineBus {
	if ramLimit > IO_REGION_START {
		ramLimit = IO_REGION_START
	}
	return &MachineBus{
		memory:       make([]byte, DEFAULT_MEMORY_SIZE),
		ramLimit:     ramLimit,
		mapping:      make(map[uint32][]IORegion),
		ioPageBitmap: make([]bool, DEFAULT_MEMORY_SIZE/PAGE_SIZE),
	}
}

func (bus *MachineBus) GetMemory() []byte {
	/*
		GetMemory returns a direct reference to the underlying memory
		slice. This allows the CPU core to cache the memory reference
		for fast access while maintaining visibility to peripherals
		that read through the bus.
	*/
	return bus.memory
}

// RAMLimit reports the top of the plain-RAM region.
func (bus *MachineBus) RAMLimit() uint32 {
	return bus.ramLimit
}

// OnReset registers a hook invoked when the CPU executes RESET.
func (bus *MachineBus) OnReset(hook func()) {
	bus.resetHooks = append(bus.resetHooks, hook)
}

// ResetDevices pulses the reset line of every attached device.
// Processor state is untouched; that is the RESET instruction contract.
func (bus *MachineBus) ResetDevices() {
	for _, hook := range bus.resetHooks {
		hook()
	}
}

// SealMappings prevents further MapIO calls. This is called when execution
// starts to ensure the ioPageBitmap remains stable during hot-path access.
func (bus *MachineBus) SealMappings() {
	bus.sealed.CompareAndSwap(false, true)
}

func (bus *MachineBus) MapIO(start, end uint32, onRead func(addr uint32) uint32, onWrite func(addr uint32, value uint32)) {
	if bus.sealed.Load() {
		logrus.Panicf("MapIO called after execution started (mapping range $%06X-$%06X)", start, end)
	}
	start &= BUS_ADDR_MASK
	end &= BUS_ADDR_MASK
	region := IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}

	firstPage := start & PAGE_MASK
	lastPage := end & PAGE_MASK
	for page := firstPage; page <= lastPage; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
		bus.ioPageBitmap[page>>8] = true
	}
}

// findIORegion looks up the I/O region claiming the given address.
func (bus *MachineBus) findIORegion(addr uint32) *IORegion {
	if regions, exists := bus.mapping[addr&PAGE_MASK]; exists {
		for i := range regions {
			if addr >= regions[i].start && addr <= regions[i].end {
				return &regions[i]
			}
		}
	}
	return nil
}

// ---- Faulting access variants ----
//
// These are the primary CPU-facing entry points. A false return means no
// RAM and no device claims the address; the CPU raises a bus error.

func (bus *MachineBus) Read8WithFault(addr uint32) (uint8, bool) {
	addr &= BUS_ADDR_MASK
	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onRead != nil {
				return uint8(region.onRead(addr)), true
			}
			return 0, true
		}
	}
	if addr < bus.ramLimit {
		return bus.memory[addr], true
	}
	return 0, false
}

func (bus *MachineBus) Write8WithFault(addr uint32, value uint8) bool {
	addr &= BUS_ADDR_MASK
	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onWrite != nil {
				region.onWrite(addr, uint32(value))
			}
			bus.memory[addr] = value
			return true
		}
	}
	if addr < bus.ramLimit {
		bus.memory[addr] = value
		return true
	}
	return false
}

func (bus *MachineBus) Read16WithFault(addr uint32) (uint16, bool) {
	addr &= BUS_ADDR_MASK
	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onRead != nil {
				return uint16(region.onRead(addr)), true
			}
			return 0, true
		}
	}
	if addr+2 <= bus.ramLimit {
		return binary.BigEndian.Uint16(bus.memory[addr : addr+2]), true
	}
	return 0, false
}

func (bus *MachineBus) Write16WithFault(addr uint32, value uint16) bool {
	addr &= BUS_ADDR_MASK
	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onWrite != nil {
				region.onWrite(addr, uint32(value))
			}
			if addr+2 <= uint32(len(bus.memory)) {
				binary.BigEndian.PutUint16(bus.memory[addr:addr+2], value)
			}
			return true
		}
	}
	if addr+2 <= bus.ramLimit {
		binary.BigEndian.PutUint16(bus.memory[addr:addr+2], value)
		return true
	}
	return false
}

func (bus *MachineBus) Read32WithFault(addr uint32) (uint32, bool) {
	addr &= BUS_ADDR_MASK
	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onRead != nil {
				return region.onRead(addr), true
			}
			return 0, true
		}
	}
	if addr+4 <= bus.ramLimit {
		return binary.BigEndian.Uint32(bus.memory[addr : addr+4]), true
	}
	return 0, false
}

func (bus *MachineBus) Write32WithFault(addr uint32, value uint32) bool {
	addr &= BUS_ADDR_MASK
	if bus.ioPageBitmap[addr>>8] {
		if region := bus.findIORegion(addr); region != nil {
			if region.onWrite != nil {
				region.onWrite(addr, value)
			}
			if addr+4 <= uint32(len(bus.memory)) {
				binary.BigEndian.PutUint32(bus.memory[addr:addr+4], value)
			}
			return true
		}
	}
	if addr+4 <= bus.ramLimit {
		binary.BigEndian.PutUint32(bus.memory[addr:addr+4], value)
		return true
	}
	return false
}

// ---- Non-faulting access ----
//
// Used by loaders, the monitor and tests. Out-of-policy accesses log a
// warning and read as zero rather than faulting.

func (bus *MachineBus) Read8(addr uint32) uint8 {
	value, ok := bus.Read8WithFault(addr)
	if !ok {
		logrus.Warnf("bus: Read8 from unmapped address $%06X", addr&BUS_ADDR_MASK)
	}
	return value
}

func (bus *MachineBus) Write8(addr uint32, value uint8) {
	if !bus.Write8WithFault(addr, value) {
		logrus.Warnf("bus: Write8 to unmapped address $%06X", addr&BUS_ADDR_MASK)
	}
}

func (bus *MachineBus) Read16(addr uint32) uint16 {
	value, ok := bus.Read16WithFault(addr)
	if !ok {
		logrus.Warnf("bus: Read16 from unmapped address $%06X", addr&BUS_ADDR_MASK)
	}
	return value
}

func (bus *MachineBus) Write16(addr uint32, value uint16) {
	if !bus.Write16WithFault(addr, value) {
		logrus.Warnf("bus: Write16 to unmapped address $%06X", addr&BUS_ADDR_MASK)
	}
}

func (bus *MachineBus) Read32(addr uint32) uint32 {
	value, ok := bus.Read32WithFault(addr)
	if !ok {
		logrus.Warnf("bus: Read32 from unmapped address $%06X", addr&BUS_ADDR_MASK)
	}
	return value
}

func (bus *MachineBus) Write32(addr uint32, value uint32) {
	if !bus.Write32WithFault(addr, value) {
		logrus.Warnf("bus: Write32 to unmapped address $%06X", addr&BUS_ADDR_MASK)
	}
}

func (bus *MachineBus) Reset() {
	/*
		Reset clears the entire main memory of the system bus by
		iterating through the memory block and setting every byte
		to zero.
	*/

	for i := range bus.memory {
		bus.memory[i] = 0
	}
}
