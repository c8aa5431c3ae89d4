// audio_psg.go - YM2149 programmable sound generator

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
audio_psg.go - YM2149 Programmable Sound Generator

A reduced YM2149 behind the ST-style select/data port pair: writing the
select port latches a register number, the data port reads and writes the
latched register. Three square-wave tone channels, a 17-bit LFSR noise
source and the hardware envelope generator are synthesized at the output
sample rate and pulled by the audio backend one sample at a time.

Tone and noise frequencies derive from a 2 MHz master clock divided by
16 times the programmed period; the envelope steps at the clock divided
by 256 times its period. A period of zero counts as one, as on the real
part, and tones above the output Nyquist rate collapse to a steady high
level rather than aliasing. The mixer register gates tone and noise into
each channel with active-low enables, ANDing the two sources the way the
chip's analogue mixer does.

Registers 14 and 15 are the parallel I/O ports. They are stored and read
back but drive nothing.
*/

package main

import (
	"sync"
)

const (
	PSG_REG_COUNT   = 16
	PSG_CLOCK_HZ    = 2000000 // Master clock feed, Atari ST rate
	PSG_SAMPLE_RATE = 44100

	PSG_REG_A_FINE     = 0
	PSG_REG_A_COARSE   = 1
	PSG_REG_B_FINE     = 2
	PSG_REG_B_COARSE   = 3
	PSG_REG_C_FINE     = 4
	PSG_REG_C_COARSE   = 5
	PSG_REG_NOISE      = 6
	PSG_REG_MIXER      = 7
	PSG_REG_VOL_A      = 8
	PSG_REG_VOL_B      = 9
	PSG_REG_VOL_C      = 10
	PSG_REG_ENV_FINE   = 11
	PSG_REG_ENV_COARSE = 12
	PSG_REG_ENV_SHAPE  = 13
	PSG_REG_PORT_A     = 14
	PSG_REG_PORT_B     = 15
)

// psgRegMask holds the writable bits of each register. The YM2149 does
// not implement the upper bits of the coarse period, noise and volume
// registers; they read back as zero.
var psgRegMask = [PSG_REG_COUNT]uint8{
	0xFF, 0x0F, // Channel A period
	0xFF, 0x0F, // Channel B period
	0xFF, 0x0F, // Channel C period
	0x1F,       // Noise period
	0xFF,       // Mixer
	0x1F,       // Volume A, bit 4 selects the envelope
	0x1F,       // Volume B
	0x1F,       // Volume C
	0xFF, 0xFF, // Envelope period
	0x0F,       // Envelope shape
	0xFF, 0xFF, // I/O ports
}

type PSGChip struct {
	mutex      sync.Mutex
	sampleRate int
	clockHz    uint32

	selected uint8
	regs     [PSG_REG_COUNT]uint8

	// Square cycles advanced per output sample; zero marks a tone
	// beyond Nyquist, held at a constant high level
	tonePhase [3]float64
	toneStep  [3]float64

	noisePhase float64
	noiseStep  float64
	noiseLFSR  uint32
	noiseHigh  bool

	envPeriodSamples float64
	envSampleCounter float64
	envLevel         int
	envDirection     int
	envHold          bool

	enabled bool
	output  *OtoPlayer
}

func NewPSGChip(sampleRate int) (*PSGChip, error) {
	chip := &PSGChip{
		sampleRate:   sampleRate,
		clockHz:      PSG_CLOCK_HZ,
		noiseLFSR:    1,
		envLevel:     15,
		envDirection: -1,
	}
	chip.updateToneSteps()
	chip.updateNoiseStep()
	chip.updateEnvPeriodSamples()

	output, err := NewOtoPlayer(sampleRate)
	if err != nil {
		return nil, err
	}
	output.SetupPlayer(chip)
	chip.output = output

	return chip, nil
}

func (chip *PSGChip) Start() {
	chip.output.Start()
}

func (chip *PSGChip) Stop() {
	chip.output.Stop()
	chip.output.Close()
}

// Reset returns the register file to power-on state. The chip wakes
// silent until the programme writes a register.
func (chip *PSGChip) Reset() {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	chip.selected = 0
	for i := range chip.regs {
		chip.regs[i] = 0
	}
	chip.tonePhase = [3]float64{}
	chip.noisePhase = 0
	chip.noiseLFSR = 1
	chip.noiseHigh = false
	chip.envSampleCounter = 0
	chip.envLevel = 15
	chip.envDirection = -1
	chip.envHold = false
	chip.enabled = false

	chip.updateToneSteps()
	chip.updateNoiseStep()
	chip.updateEnvPeriodSamples()
}

// ---- Bus interface ----

// HandleRead returns the selected register for any address in the PSG
// window. On the ST both the select and data ports read back the
// latched register.
func (chip *PSGChip) HandleRead(addr uint32) uint32 {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()
	return uint32(chip.regs[chip.selected&0x0F])
}

func (chip *PSGChip) HandleWrite(addr uint32, value uint32) {
	if addr >= PSG_WRITE {
		chip.WriteRegister(uint8(value))
		return
	}
	chip.mutex.Lock()
	chip.selected = uint8(value) & 0x0F
	chip.mutex.Unlock()
}

// WriteRegister stores value into the currently selected register and
// refreshes whatever the register derives.
func (chip *PSGChip) WriteRegister(value uint8) {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	reg := chip.selected & 0x0F
	chip.regs[reg] = value & psgRegMask[reg]
	chip.enabled = true

	switch reg {
	case PSG_REG_A_FINE, PSG_REG_A_COARSE,
		PSG_REG_B_FINE, PSG_REG_B_COARSE,
		PSG_REG_C_FINE, PSG_REG_C_COARSE:
		chip.updateToneSteps()
	case PSG_REG_NOISE:
		chip.updateNoiseStep()
	case PSG_REG_ENV_FINE, PSG_REG_ENV_COARSE:
		chip.updateEnvPeriodSamples()
	case PSG_REG_ENV_SHAPE:
		chip.resetEnvelope()
	}
}

// Registers returns a copy of the register file for the debugger.
func (chip *PSGChip) Registers() [PSG_REG_COUNT]uint8 {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()
	return chip.regs
}

// ---- Derived rates ----

func (chip *PSGChip) updateToneSteps() {
	for ch := 0; ch < 3; ch++ {
		low := uint16(chip.regs[ch*2])
		high := uint16(chip.regs[ch*2+1] & 0x0F)
		period := (high << 8) | low
		if period == 0 {
			period = 1
		}
		freq := float64(chip.clockHz) / (16.0 * float64(period))
		step := freq / float64(chip.sampleRate)
		if step >= 0.5 {
			step = 0
		}
		chip.toneStep[ch] = step
	}
}

func (chip *PSGChip) updateNoiseStep() {
	period := chip.regs[PSG_REG_NOISE] & 0x1F
	if period == 0 {
		period = 1
	}
	freq := float64(chip.clockHz) / (16.0 * float64(period))
	chip.noiseStep = freq / float64(chip.sampleRate)
}

func (chip *PSGChip) updateEnvPeriodSamples() {
	period := uint16(chip.regs[PSG_REG_ENV_FINE]) | uint16(chip.regs[PSG_REG_ENV_COARSE])<<8
	if period == 0 {
		period = 1
	}
	chip.envPeriodSamples = float64(chip.sampleRate) * 256.0 * float64(period) / float64(chip.clockHz)
	if chip.envPeriodSamples <= 0 {
		chip.envPeriodSamples = 1
	}
}

// ---- Envelope generator ----

func (chip *PSGChip) resetEnvelope() {
	shape := chip.regs[PSG_REG_ENV_SHAPE] & 0x0F
	attack := (shape & 0x04) != 0
	if attack {
		chip.envLevel = 0
		chip.envDirection = 1
	} else {
		chip.envLevel = 15
		chip.envDirection = -1
	}
	chip.envHold = false
}

func (chip *PSGChip) advanceEnvelope() {
	chip.envSampleCounter++
	if chip.envSampleCounter < chip.envPeriodSamples {
		return
	}

	steps := int(chip.envSampleCounter / chip.envPeriodSamples)
	chip.envSampleCounter -= float64(steps) * chip.envPeriodSamples

	for i := 0; i < steps; i++ {
		if chip.envHold {
			break
		}

		chip.envLevel += chip.envDirection
		if chip.envLevel > 15 {
			chip.envLevel = 15
		}
		if chip.envLevel < 0 {
			chip.envLevel = 0
		}

		if chip.envLevel == 0 || chip.envLevel == 15 {
			shape := chip.regs[PSG_REG_ENV_SHAPE] & 0x0F
			cont := (shape & 0x08) != 0
			alt := (shape & 0x02) != 0
			hold := (shape & 0x01) != 0

			if !cont {
				chip.envLevel = 0
				chip.envHold = true
				break
			}
			if hold {
				// Alternate-and-hold parks at the flipped extreme
				if alt {
					chip.envLevel = 15 - chip.envLevel
				}
				chip.envHold = true
				break
			}
			if alt {
				chip.envDirection = -chip.envDirection
			}
		}
	}
}

// ---- Synthesis ----

// GenerateSample advances the generators by one output sample and mixes
// the three channels. The audio backend pulls this from its own thread.
func (chip *PSGChip) GenerateSample() float32 {
	chip.mutex.Lock()
	defer chip.mutex.Unlock()

	if !chip.enabled {
		return 0
	}

	chip.advanceEnvelope()

	for ch := 0; ch < 3; ch++ {
		chip.tonePhase[ch] += chip.toneStep[ch]
		if chip.tonePhase[ch] >= 1.0 {
			chip.tonePhase[ch] -= float64(int(chip.tonePhase[ch]))
		}
	}

	chip.noisePhase += chip.noiseStep
	for chip.noisePhase >= 1.0 {
		chip.noisePhase--
		chip.stepNoiseLFSR()
	}

	mixer := chip.regs[PSG_REG_MIXER]
	var sample float32
	for ch := 0; ch < 3; ch++ {
		toneOff := mixer&(1<<ch) != 0
		noiseOff := mixer&(1<<(ch+3)) != 0

		toneHigh := chip.toneStep[ch] == 0 || chip.tonePhase[ch] < 0.5
		high := (toneOff || toneHigh) && (noiseOff || chip.noiseHigh)
		if !high {
			continue
		}

		vol := chip.regs[PSG_REG_VOL_A+ch]
		level := int(vol & 0x0F)
		if vol&0x10 != 0 {
			level = chip.envLevel
		}
		sample += float32(level) / 15.0
	}

	return sample / 3.0
}

func (chip *PSGChip) stepNoiseLFSR() {
	bit := (chip.noiseLFSR ^ (chip.noiseLFSR >> 3)) & 1
	chip.noiseLFSR = (chip.noiseLFSR >> 1) | (bit << 16)
	chip.noiseHigh = chip.noiseLFSR&1 != 0
}
