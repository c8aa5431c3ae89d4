// terminal_mmio.go - Memory-mapped console device

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
terminal_mmio.go - Console ACIA Device

A polled serial console in the style of a 6850 ACIA: a status register, a
transmit register and a receive register. Programmes poll TERM_STATUS for
the receive-ready bit, read bytes from TERM_IN and write bytes to TERM_OUT.
The transmitter never blocks, so the transmit-ready bit is always set.

The host side feeds keystrokes in through EnqueueInput (see
terminal_host.go) and collects output either through a registered callback
or by draining the buffered output. Callbacks are invoked outside the
device lock so a callback may touch the device again without deadlocking.
*/

package main

import "sync"

const termInputBufSize = 256

type TerminalMMIO struct {
	mu        sync.Mutex
	inputBuf  [termInputBufSize]byte
	inputHead int
	inputLen  int
	outputBuf []byte
	onOutput  func(byte)
}

func NewTerminalMMIO() *TerminalMMIO {
	return &TerminalMMIO{
		outputBuf: make([]byte, 0, 256),
	}
}

// SetOutputCallback routes TERM_OUT bytes to fn instead of the internal
// buffer. Pass nil to return to buffering.
func (tm *TerminalMMIO) SetOutputCallback(fn func(byte)) {
	tm.mu.Lock()
	tm.onOutput = fn
	tm.mu.Unlock()
}

// HandleRead services reads of the console registers.
func (tm *TerminalMMIO) HandleRead(addr uint32) uint32 {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	switch addr {
	case TERM_STATUS:
		status := uint32(TERM_STATUS_TX_READY)
		if tm.inputLen > 0 {
			status |= TERM_STATUS_RX_READY
		}
		return status

	case TERM_IN:
		if tm.inputLen == 0 {
			return 0
		}
		b := tm.inputBuf[tm.inputHead]
		tm.inputHead = (tm.inputHead + 1) % termInputBufSize
		tm.inputLen--
		return uint32(b)

	default:
		// TERM_OUT is write-only
		return 0
	}
}

// HandleWrite services writes of the console registers.
func (tm *TerminalMMIO) HandleWrite(addr uint32, value uint32) {
	if addr != TERM_OUT {
		return
	}
	ch := byte(value)

	tm.mu.Lock()
	fn := tm.onOutput
	if fn == nil {
		tm.outputBuf = append(tm.outputBuf, ch)
	}
	tm.mu.Unlock()

	if fn != nil {
		fn(ch)
	}
}

// EnqueueInput adds a keystroke to the receive queue. When the queue is
// full the byte is dropped, as on a real ACIA with an unread character.
func (tm *TerminalMMIO) EnqueueInput(b byte) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.inputLen >= termInputBufSize {
		return
	}
	tm.inputBuf[(tm.inputHead+tm.inputLen)%termInputBufSize] = b
	tm.inputLen++
}

// DrainOutput returns and clears the buffered output.
func (tm *TerminalMMIO) DrainOutput() string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if len(tm.outputBuf) == 0 {
		return ""
	}
	out := string(tm.outputBuf)
	tm.outputBuf = tm.outputBuf[:0]
	return out
}

// InputPending reports whether unread input remains queued.
func (tm *TerminalMMIO) InputPending() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return tm.inputLen > 0
}

// Reset clears both queues. Registered callbacks survive a reset.
func (tm *TerminalMMIO) Reset() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.inputHead = 0
	tm.inputLen = 0
	tm.outputBuf = tm.outputBuf[:0]
}
