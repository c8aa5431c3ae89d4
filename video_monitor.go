// video_monitor.go - Monochrome monitor scanning the framebuffer out of RAM

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
video_monitor.go - Monochrome Monitor

A 640x400 1-bit display scanned out of machine RAM, in the manner of the
ST's high resolution mode. The framebuffer base address lives in three
byte-wide registers; the programme renders by writing ordinary memory
and the monitor picks it up on the next scan. Each framebuffer byte
covers eight horizontal pixels, most significant bit leftmost, a set bit
drawing white on black.

The scan-out goroutine runs at the refresh rate, expands the 1-bit plane
to RGBA and hands complete frames to the video backend. VIDEO_STATUS
bit 0 flips once per scanned frame, so a programme can synchronise to
the display by polling for a change. There is no vertical blank
interrupt; timed interrupts are the MFP's job.

Only the monochrome resolution is implemented. Writes selecting another
resolution are stored and warned about, and the scan carries on in mono.
*/

package main

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const VIDEO_RES_MONO = 0x02 // Resolution register value for 640x400x1

type VideoMonitor struct {
	mu     sync.Mutex
	bus    *MachineBus
	output VideoOutput

	baseHigh uint8
	baseMid  uint8
	baseLow  uint8
	res      uint8
	vblank   bool

	frameBuf []byte // Expanded RGBA scan-out buffer
	stopCh   chan struct{}
	done     chan struct{}
	started  bool
}

func NewVideoMonitor(bus *MachineBus, output VideoOutput) *VideoMonitor {
	mon := &VideoMonitor{
		bus:      bus,
		output:   output,
		res:      VIDEO_RES_MONO,
		frameBuf: make([]byte, VIDEO_WIDTH*VIDEO_HEIGHT*4),
	}
	mon.setBaseLocked(VIDEO_VRAM_DEFAULT)
	return mon
}

func (mon *VideoMonitor) setBaseLocked(base uint32) {
	mon.baseHigh = uint8(base >> 16)
	mon.baseMid = uint8(base >> 8)
	mon.baseLow = uint8(base)
}

// Base returns the current framebuffer base address.
func (mon *VideoMonitor) Base() uint32 {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	return mon.baseLocked()
}

func (mon *VideoMonitor) baseLocked() uint32 {
	base := uint32(mon.baseHigh)<<16 | uint32(mon.baseMid)<<8 | uint32(mon.baseLow)
	return base & BUS_ADDR_MASK
}

// ---- Bus interface ----

func (mon *VideoMonitor) HandleRead(addr uint32) uint32 {
	mon.mu.Lock()
	defer mon.mu.Unlock()

	switch addr {
	case VIDEO_BASE_HIGH:
		return uint32(mon.baseHigh)
	case VIDEO_BASE_MID:
		return uint32(mon.baseMid)
	case VIDEO_BASE_LOW:
		return uint32(mon.baseLow)
	case VIDEO_RES:
		return uint32(mon.res)
	case VIDEO_STATUS:
		if mon.vblank {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func (mon *VideoMonitor) HandleWrite(addr uint32, value uint32) {
	mon.mu.Lock()
	defer mon.mu.Unlock()

	switch addr {
	case VIDEO_BASE_HIGH:
		mon.baseHigh = uint8(value)
	case VIDEO_BASE_MID:
		mon.baseMid = uint8(value)
	case VIDEO_BASE_LOW:
		mon.baseLow = uint8(value)
	case VIDEO_RES:
		mon.res = uint8(value) & 0x03
		if mon.res != VIDEO_RES_MONO {
			logrus.Warnf("video: resolution %d not implemented, scanning mono", mon.res)
		}
	}
	// VIDEO_STATUS is read-only; writes to it fall through
}

// ---- Scan-out ----

func (mon *VideoMonitor) Start() error {
	mon.mu.Lock()
	if mon.started {
		mon.mu.Unlock()
		return nil
	}
	mon.stopCh = make(chan struct{})
	mon.done = make(chan struct{})
	mon.started = true
	mon.mu.Unlock()

	if err := mon.output.Start(); err != nil {
		mon.mu.Lock()
		mon.started = false
		mon.mu.Unlock()
		return err
	}

	go mon.scanLoop(mon.stopCh, mon.done)
	return nil
}

func (mon *VideoMonitor) Stop() {
	mon.mu.Lock()
	if !mon.started {
		mon.mu.Unlock()
		return
	}
	mon.started = false
	stopCh := mon.stopCh
	done := mon.done
	mon.mu.Unlock()

	close(stopCh)
	<-done
	if err := mon.output.Stop(); err != nil {
		logrus.Warnf("video: backend stop: %v", err)
	}
}

// Reset restores the power-on register state. The scan keeps running;
// the RESET instruction does not blank a real monitor either.
func (mon *VideoMonitor) Reset() {
	mon.mu.Lock()
	defer mon.mu.Unlock()
	mon.setBaseLocked(VIDEO_VRAM_DEFAULT)
	mon.res = VIDEO_RES_MONO
	mon.vblank = false
}

func (mon *VideoMonitor) scanLoop(stopCh, done chan struct{}) {
	defer close(done)

	refresh := mon.output.GetRefreshRate()
	if refresh <= 0 {
		refresh = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(refresh))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			mon.scanFrame()
		}
	}
}

// scanFrame expands the 1-bit plane at the framebuffer base into RGBA
// and pushes it to the backend. Memory is read through the bus's direct
// reference, the same view the CPU writes.
func (mon *VideoMonitor) scanFrame() {
	mon.mu.Lock()
	base := mon.baseLocked()
	mon.vblank = !mon.vblank
	mon.mu.Unlock()

	mem := mon.bus.GetMemory()
	out := mon.frameBuf
	for i := 0; i < VIDEO_VRAM_SIZE; i++ {
		b := mem[(base+uint32(i))&BUS_ADDR_MASK]
		offset := i * 8 * 4
		for j := 0; j < 8; j++ {
			v := uint8(0)
			if b&(1<<(7-j)) != 0 {
				v = 0xFF
			}
			out[offset+j*4] = v
			out[offset+j*4+1] = v
			out[offset+j*4+2] = v
			out[offset+j*4+3] = 0xFF
		}
	}

	if err := mon.output.UpdateFrame(out); err != nil {
		logrus.Warnf("video: frame update: %v", err)
	}
}
