// debug_ioview.go - live I/O register viewer for the machine monitor

package main

import "fmt"

// psgRegNames gives the conventional mnemonic for each PSG register index.
var psgRegNames = [PSG_REG_COUNT]string{
	"A_FINE", "A_COARSE", "B_FINE", "B_COARSE", "C_FINE", "C_COARSE",
	"NOISE", "MIXER", "VOL_A", "VOL_B", "VOL_C",
	"ENV_FINE", "ENV_COARSE", "ENV_SHAPE", "PORT_A", "PORT_B",
}

// listIODevices returns the names of the devices fitted to the machine.
func (m *MachineMonitor) listIODevices() []string {
	if m.machine == nil {
		return nil
	}
	var names []string
	if m.machine.Video != nil {
		names = append(names, "video")
	}
	if m.machine.PSG != nil {
		names = append(names, "psg")
	}
	if m.machine.MFP != nil {
		names = append(names, "mfp")
	}
	if m.machine.Terminal != nil {
		names = append(names, "terminal")
	}
	if m.machine.Oracle != nil {
		names = append(names, "oracle")
	}
	return names
}

// formatIOView renders the register view for one device. Values come from the
// device models rather than backing RAM, and only through reads the hardware
// treats as harmless: the console data port dequeues on read, so the view
// reports queue state instead of touching it.
func (m *MachineMonitor) formatIOView(name string) []string {
	if m.machine == nil {
		return []string{"No machine attached"}
	}
	switch name {
	case "video":
		return m.formatVideoView()
	case "psg":
		return m.formatPSGView()
	case "mfp":
		return m.formatMFPView()
	case "terminal":
		return m.formatTerminalView()
	case "oracle":
		return m.formatOracleView()
	default:
		return []string{fmt.Sprintf("Unknown device: %s", name)}
	}
}

func (m *MachineMonitor) formatVideoView() []string {
	v := m.machine.Video
	if v == nil {
		return []string{"Video shifter not fitted"}
	}

	lines := []string{"--- Video Shifter ---"}
	lines = append(lines, fmt.Sprintf("  BASE_HIGH  ($%06X) = $%02X", uint32(VIDEO_BASE_HIGH), v.HandleRead(VIDEO_BASE_HIGH)))
	lines = append(lines, fmt.Sprintf("  BASE_MID   ($%06X) = $%02X", uint32(VIDEO_BASE_MID), v.HandleRead(VIDEO_BASE_MID)))
	lines = append(lines, fmt.Sprintf("  BASE_LOW   ($%06X) = $%02X", uint32(VIDEO_BASE_LOW), v.HandleRead(VIDEO_BASE_LOW)))

	res := v.HandleRead(VIDEO_RES)
	resNote := "unsupported"
	if res == VIDEO_RES_MONO {
		resNote = fmt.Sprintf("%dx%d mono", VIDEO_WIDTH, VIDEO_HEIGHT)
	}
	lines = append(lines, fmt.Sprintf("  RES        ($%06X) = $%02X       %s", uint32(VIDEO_RES), res, resNote))

	vblank := "displaying"
	if v.HandleRead(VIDEO_STATUS)&1 != 0 {
		vblank = "vblank"
	}
	lines = append(lines, fmt.Sprintf("  STATUS     ($%06X) = $%02X       %s", uint32(VIDEO_STATUS), v.HandleRead(VIDEO_STATUS), vblank))
	lines = append(lines, fmt.Sprintf("  framebuffer at $%06X", v.Base()))
	return lines
}

func (m *MachineMonitor) formatPSGView() []string {
	p := m.machine.PSG
	if p == nil {
		return []string{"PSG not fitted"}
	}

	regs := p.Registers()
	lines := []string{"--- PSG Registers ---"}
	for i := 0; i < PSG_REG_COUNT; i++ {
		lines = append(lines, fmt.Sprintf("  R%-2d %-10s = $%02X [%d]", i, psgRegNames[i], regs[i], regs[i]))
	}

	// Decode the three tone periods so nobody has to do the maths at the prompt.
	for voice, name := range []string{"A", "B", "C"} {
		period := uint32(regs[voice*2+1]&0x0F)<<8 | uint32(regs[voice*2])
		if period == 0 {
			period = 1
		}
		hz := float64(PSG_CLOCK_HZ) / (16.0 * float64(period))
		lines = append(lines, fmt.Sprintf("  tone %s period %4d (%.1f Hz)", name, period, hz))
	}
	return lines
}

func (m *MachineMonitor) formatMFPView() []string {
	mfp := m.machine.MFP
	if mfp == nil {
		return []string{"MFP not fitted"}
	}

	regs := []struct {
		name string
		addr uint32
	}{
		{"GPIP", MFP_GPIP},
		{"IERA", MFP_IERA},
		{"IERB", MFP_IERB},
		{"ISRA", MFP_ISRA},
		{"TACR", MFP_TACR},
		{"TBCR", MFP_TBCR},
		{"TADR", MFP_TADR},
		{"TBDR", MFP_TBDR},
	}

	lines := []string{"--- MFP Registers ---"}
	for _, r := range regs {
		lines = append(lines, fmt.Sprintf("  %-5s ($%06X) = $%02X", r.name, r.addr, mfp.HandleRead(r.addr)))
	}

	iera := mfp.HandleRead(MFP_IERA)
	ierb := mfp.HandleRead(MFP_IERB)
	timerA := "off"
	if iera&MFP_IERA_TIMER_A != 0 && mfp.HandleRead(MFP_TACR)&0x07 != 0 {
		timerA = mfpTimerRate(mfp.HandleRead(MFP_TACR), mfp.HandleRead(MFP_TADR))
	}
	timerB := "off"
	if ierb&MFP_IERB_TIMER_B != 0 && mfp.HandleRead(MFP_TBCR)&0x07 != 0 {
		timerB = mfpTimerRate(mfp.HandleRead(MFP_TBCR), mfp.HandleRead(MFP_TBDR))
	}
	lines = append(lines, fmt.Sprintf("  timer A %s, timer B %s", timerA, timerB))
	return lines
}

// mfpTimerRate reports the interrupt rate a control/data pair programmes.
func mfpTimerRate(cr, dr uint32) string {
	pre := mfpPrescale[cr&0x07]
	if pre == 0 {
		return "stopped"
	}
	reload := dr
	if reload == 0 {
		reload = 256
	}
	hz := MFP_CLOCK_HZ / (float64(pre) * float64(reload))
	return fmt.Sprintf("%.1f Hz", hz)
}

func (m *MachineMonitor) formatTerminalView() []string {
	t := m.machine.Terminal
	if t == nil {
		return []string{"Console not fitted"}
	}

	// TERM_IN dequeues on read, so the view never touches it.
	status := uint32(TERM_STATUS_TX_READY)
	rx := "empty"
	if t.InputPending() {
		status |= TERM_STATUS_RX_READY
		rx = "data waiting"
	}

	lines := []string{"--- Console ACIA ---"}
	lines = append(lines, fmt.Sprintf("  STATUS ($%06X) = $%02X", uint32(TERM_STATUS), status))
	lines = append(lines, fmt.Sprintf("  rx queue %s, tx always ready", rx))
	lines = append(lines, fmt.Sprintf("  IN     ($%06X) read skipped (dequeues input)", uint32(TERM_IN)))
	return lines
}

func (m *MachineMonitor) formatOracleView() []string {
	o := m.machine.Oracle
	if o == nil {
		return []string{"Diagnostic rig not fitted"}
	}

	lines := []string{"--- Diagnostic Rig ---"}
	reported := 0
	for slot := 0; slot < ORACLE_SLOTCOUNT; slot++ {
		if _, ok := o.Result(slot); ok {
			reported++
		}
	}
	lines = append(lines, fmt.Sprintf("  %d/%d groups reported", reported, ORACLE_SLOTCOUNT))

	failures := o.Failures()
	if reported > 0 && len(failures) == 0 {
		lines = append(lines, "  all reported groups pass")
	}
	for _, slot := range failures {
		code, _ := o.Result(slot)
		lines = append(lines, fmt.Sprintf("  FAIL slot %2d %-12s code $%02X", slot, OracleSlotName(slot), code))
	}
	return lines
}
