// registers.go - Centralized I/O register address map for the Intuition 68K

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
registers.go - Master I/O Register Address Map

This file provides a centralised reference for all memory-mapped I/O regions
in the Intuition 68K. Individual device implementations define their detailed
register behaviour in their respective device files.

The 68000 drives a 24-bit address bus, so the machine's physical address space
is 16MB. Following classic 68K machine convention, all hardware registers live
in the top 32KB of that space and are normally reached through sign-extended
short absolute addressing (a MOVE to $FFFFFA19 lands on the MFP timer control
register at physical $FFFA19).

MEMORY MAP OVERVIEW
===================

Address Range        Size    Device               File
---------------------------------------------------------------------------
$000000-$0003FF      1KB     Exception vectors    cpu_m68k_exception.go
$000400-RAM top      -       Programme RAM        machine_bus.go
$078000-$0879FF      31KB    Default framebuffer  video_monitor.go
$FF8200-$FF8264      -       Video shifter        video_monitor.go
$FF8800-$FF8803      4B      PSG (YM2149)         audio_psg.go
$FFFA01-$FFFA2F      47B     MFP timers           mfp_timer.go
$FFFC10-$FFFC17      8B      Console ACIA         terminal_mmio.go
$FFFF00-$FFFFFF      256B    Diagnostic rig       oracle_device.go
---------------------------------------------------------------------------

Everything below IO_REGION_START is ordinary RAM (subject to the configured
RAM ceiling); everything above it must be claimed by a device mapping or the
bus reports a fault and the CPU raises a bus error exception.
*/

package main

// ------------------------------------------------------------------------------
// Physical memory layout
// ------------------------------------------------------------------------------
const (
	VECTOR_TABLE    = 0x000000 // Exception vector table (64 vectors x 4 bytes)
	PROG_START      = 0x000400 // Conventional programme load address
	IO_REGION_START = 0xFF8000 // Start of the hardware register region
)

// ------------------------------------------------------------------------------
// Video shifter ($FF8200)
// The framebuffer base address is programmed as three bytes (high/mid/low),
// shifter fashion; the monitor fetches whole words from the programmed base.
// ------------------------------------------------------------------------------
const (
	VIDEO_BASE_HIGH = 0xFF8201 // Framebuffer base bits 23-16
	VIDEO_BASE_MID  = 0xFF8203 // Framebuffer base bits 15-8
	VIDEO_BASE_LOW  = 0xFF820D // Framebuffer base bits 7-0
	VIDEO_RES       = 0xFF8260 // Resolution select (only hi-res mono implemented)
	VIDEO_STATUS    = 0xFF8264 // Bit 0: VBlank toggle

	VIDEO_VRAM_DEFAULT = 0x078000 // Power-on framebuffer base
	VIDEO_WIDTH        = 640
	VIDEO_HEIGHT       = 400
	VIDEO_VRAM_SIZE    = (VIDEO_WIDTH * VIDEO_HEIGHT) / 8 // 1 bit per pixel
)

// ------------------------------------------------------------------------------
// Programmable sound generator ($FF8800)
// Register select / data pairing as on the YM2149.
// ------------------------------------------------------------------------------
const (
	PSG_SELECT = 0xFF8800 // Write: select register; Read: selected register value
	PSG_WRITE  = 0xFF8802 // Write: store to selected register
)

// ------------------------------------------------------------------------------
// Multi-function peripheral ($FFFA01)
// Timer registers at the odd addresses used by the MC68901.
// ------------------------------------------------------------------------------
const (
	MFP_GPIP = 0xFFFA01 // General purpose I/O (unused lines read high)
	MFP_IERA = 0xFFFA07 // Interrupt enable A (bit 5 = timer A)
	MFP_IERB = 0xFFFA09 // Interrupt enable B (bit 0 = timer B)
	MFP_ISRA = 0xFFFA0F // Interrupt in-service A
	MFP_TACR = 0xFFFA19 // Timer A control (prescaler select)
	MFP_TBCR = 0xFFFA1B // Timer B control
	MFP_TADR = 0xFFFA1F // Timer A data (countdown reload value)
	MFP_TBDR = 0xFFFA21 // Timer B data

	MFP_REGION_END = 0xFFFA2F
)

// ------------------------------------------------------------------------------
// Console ACIA ($FFFC10)
// Polled serial console. STATUS bit 0 is set when input is waiting,
// bit 1 is always set (the transmitter never blocks).
// ------------------------------------------------------------------------------
const (
	TERM_STATUS = 0xFFFC10
	TERM_OUT    = 0xFFFC12
	TERM_IN     = 0xFFFC14

	TERM_STATUS_RX_READY = 0x01
	TERM_STATUS_TX_READY = 0x02
)

// ------------------------------------------------------------------------------
// Diagnostic rig ($FFFF00)
// Write-only capture region used by the opcode regression ROMs. Each test
// group owns one byte slot; the ROM writes a result code as it completes a
// group and the rig records it for inspection from the host side.
// ------------------------------------------------------------------------------
const (
	ORACLE_BASE = 0xFFFF00
	ORACLE_END  = 0xFFFFFF
)
