// mfp_timer.go - MK68901-style multi-function peripheral timers

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
mfp_timer.go - Multi-Function Peripheral Timers

A reduced MK68901: two 8-bit down-counters (A and B) clocked from a shared
2.4576 MHz reference through a per-timer prescaler, a general purpose I/O
port with nothing attached, and interrupt enable/in-service registers.

Each timer divides the reference clock by a prescaler selected in its
control register and counts its data register down to zero. On underflow
the counter reloads from the data register and, when the timer's enable
bit is set, the MFP asserts the machine's level 6 interrupt line. The
in-service register records which timer fired; the handler acknowledges
by writing the bit back as zero, and the line drops when no request is
left in service.

Counting is accounted lazily from wall-clock time rather than ticked per
emulated cycle: reads of a timer's data register and the periodic sweep
both settle the elapsed reference pulses into the counter first. An 8-bit
reload of zero counts a full 256 pulses, as on the real part.
*/

package main

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	MFP_CLOCK_HZ = 2457600.0 // Shared timer reference clock

	MFP_TIMER_IRQ_LEVEL = 6

	MFP_IERA_TIMER_A = 0x20 // Enable bit for timer A in IERA
	MFP_IERB_TIMER_B = 0x01 // Enable bit for timer B in IERB
	MFP_ISRA_TIMER_A = 0x20 // In-service bit for timer A
	MFP_ISRA_TIMER_B = 0x01 // In-service bit for timer B
)

// mfpPrescale maps the three control mode bits to a reference clock
// divisor. Mode 0 stops the timer.
var mfpPrescale = [8]uint32{0, 4, 10, 16, 50, 64, 100, 200}

type mfpChannel struct {
	ctrl  uint8
	data  uint8 // Reload value; 0 counts as 256
	value uint32
	last  int64 // UnixNano of the last settled pulse accounting
}

// settle folds the reference pulses elapsed since the last visit into the
// counter and reports how many underflows occurred.
func (ch *mfpChannel) settle(now int64) uint32 {
	mode := ch.ctrl & 0x0F
	if mode == 0 || mode > 7 {
		// Stopped, or event-count modes with no event source attached
		ch.last = now
		return 0
	}
	prescale := mfpPrescale[mode]
	elapsed := now - ch.last
	pulses := uint32(float64(elapsed) * MFP_CLOCK_HZ / 1e9 / float64(prescale))
	if pulses == 0 {
		return 0
	}
	ch.last = now

	reload := uint32(ch.data)
	if reload == 0 {
		reload = 256
	}
	if ch.value == 0 {
		ch.value = reload
	}
	if pulses < ch.value {
		ch.value -= pulses
		return 0
	}
	rem := pulses - ch.value
	ch.value = reload - rem%reload
	return 1 + rem/reload
}

type MFPTimer struct {
	mu   sync.Mutex
	cpu  *M68KCPU
	iera uint8
	ierb uint8
	isra uint8
	a    mfpChannel
	b    mfpChannel

	stopCh chan struct{}
	done   chan struct{}
}

func NewMFPTimer(cpu *M68KCPU) *MFPTimer {
	now := time.Now().UnixNano()
	return &MFPTimer{
		cpu: cpu,
		a:   mfpChannel{last: now},
		b:   mfpChannel{last: now},
	}
}

// Start begins the periodic sweep that keeps the counters moving and the
// interrupt line serviced even when the programme never reads a timer.
func (mfp *MFPTimer) Start() {
	mfp.mu.Lock()
	defer mfp.mu.Unlock()
	if mfp.stopCh != nil {
		return
	}
	mfp.stopCh = make(chan struct{})
	mfp.done = make(chan struct{})
	go mfp.sweep(mfp.stopCh, mfp.done)
}

func (mfp *MFPTimer) Stop() {
	mfp.mu.Lock()
	stopCh, done := mfp.stopCh, mfp.done
	mfp.stopCh = nil
	mfp.mu.Unlock()
	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done
}

func (mfp *MFPTimer) sweep(stopCh chan struct{}, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			mfp.mu.Lock()
			now := time.Now().UnixNano()
			mfp.settleLocked(now)
			mfp.mu.Unlock()
		}
	}
}

func (mfp *MFPTimer) settleLocked(now int64) {
	if mfp.a.settle(now) > 0 && mfp.iera&MFP_IERA_TIMER_A != 0 {
		mfp.isra |= MFP_ISRA_TIMER_A
		mfp.requestInterrupt("A")
	}
	if mfp.b.settle(now) > 0 && mfp.ierb&MFP_IERB_TIMER_B != 0 {
		mfp.isra |= MFP_ISRA_TIMER_B
		mfp.requestInterrupt("B")
	}
}

func (mfp *MFPTimer) requestInterrupt(timer string) {
	if mfp.cpu == nil {
		return
	}
	logrus.WithFields(logrus.Fields{
		"timer": timer,
		"level": MFP_TIMER_IRQ_LEVEL,
	}).Debug("mfp: timer underflow interrupt")
	mfp.cpu.AssertInterrupt(MFP_TIMER_IRQ_LEVEL)
}

// HandleRead services byte reads of the MFP register block.
func (mfp *MFPTimer) HandleRead(addr uint32) uint32 {
	mfp.mu.Lock()
	defer mfp.mu.Unlock()

	switch addr {
	case MFP_GPIP:
		return 0xFF // Nothing attached; open lines read high
	case MFP_IERA:
		return uint32(mfp.iera)
	case MFP_IERB:
		return uint32(mfp.ierb)
	case MFP_ISRA:
		return uint32(mfp.isra)
	case MFP_TACR:
		return uint32(mfp.a.ctrl)
	case MFP_TBCR:
		return uint32(mfp.b.ctrl)
	case MFP_TADR:
		mfp.settleLocked(time.Now().UnixNano())
		return uint32(uint8(mfp.a.value))
	case MFP_TBDR:
		mfp.settleLocked(time.Now().UnixNano())
		return uint32(uint8(mfp.b.value))
	default:
		return 0
	}
}

// HandleWrite services byte writes of the MFP register block.
func (mfp *MFPTimer) HandleWrite(addr uint32, value uint32) {
	mfp.mu.Lock()
	defer mfp.mu.Unlock()

	b := uint8(value)
	now := time.Now().UnixNano()

	switch addr {
	case MFP_IERA:
		mfp.iera = b
	case MFP_IERB:
		mfp.ierb = b
	case MFP_ISRA:
		// Handlers acknowledge by writing the serviced bit back as zero
		mfp.isra &= b
		if mfp.isra == 0 && mfp.cpu != nil {
			mfp.cpu.ClearInterrupt(MFP_TIMER_IRQ_LEVEL)
		}
	case MFP_TACR:
		mfp.a.ctrl = b
		mfp.a.last = now
	case MFP_TBCR:
		mfp.b.ctrl = b
		mfp.b.last = now
	case MFP_TADR:
		mfp.a.data = b
		mfp.a.value = uint32(b)
		mfp.a.last = now
	case MFP_TBDR:
		mfp.b.data = b
		mfp.b.value = uint32(b)
		mfp.b.last = now
	}
}

// Reset returns the timer block to its power-on state. The sweep keeps
// running; a stopped control register keeps the counters still.
func (mfp *MFPTimer) Reset() {
	mfp.mu.Lock()
	defer mfp.mu.Unlock()
	now := time.Now().UnixNano()
	mfp.iera = 0
	mfp.ierb = 0
	mfp.isra = 0
	mfp.a = mfpChannel{last: now}
	mfp.b = mfpChannel{last: now}
	if mfp.cpu != nil {
		mfp.cpu.ClearInterrupt(MFP_TIMER_IRQ_LEVEL)
	}
}
