//go:build !headless

// video_backend_ebiten.go - Ebiten video backend

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

package main

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type EbitenOutput struct {
	running     bool
	window      *ebiten.Image
	width       int
	height      int
	fullscreen  bool
	scale       int
	windowedW   int
	windowedH   int
	frameBuffer []byte
	bufferMutex sync.RWMutex
	frameCount  atomic.Uint64
	refreshRate int
	vsyncChan   chan struct{}
	done        chan struct{}

	keyHandler       func(byte)
	statusProvider   func() string
	closeHandler     func()
	hardResetHandler func()
	resetInProgress  atomic.Bool
	showStatusBar    bool
}

func NewEbitenOutput() (VideoOutput, error) {
	return &EbitenOutput{
		width:         VIDEO_WIDTH,
		height:        VIDEO_HEIGHT,
		scale:         2,
		windowedW:     VIDEO_WIDTH * 2,
		windowedH:     VIDEO_HEIGHT * 2,
		frameBuffer:   make([]byte, VIDEO_WIDTH*VIDEO_HEIGHT*4),
		refreshRate:   60,
		vsyncChan:     make(chan struct{}, 1),
		done:          make(chan struct{}),
		showStatusBar: true,
	}, nil
}

func (eo *EbitenOutput) Start() error {
	if eo.running {
		return nil
	}
	eo.bufferMutex.Lock()
	eo.done = make(chan struct{})
	eo.bufferMutex.Unlock()
	eo.running = true
	ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
	ebiten.SetWindowTitle("Intuition 68K (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetVsyncEnabled(true)
	if eo.fullscreen {
		ebiten.SetFullscreen(true)
	}

	go func() {
		defer func() {
			eo.running = false
			eo.bufferMutex.RLock()
			done := eo.done
			eo.bufferMutex.RUnlock()
			select {
			case <-done:
			default:
				close(done)
			}
		}()
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Ebiten error: %v\n", err)
		}
	}()

	// Wait for first Draw call to ensure Ebiten is ready
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.running = false
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

func (eo *EbitenOutput) Done() <-chan struct{} {
	eo.bufferMutex.RLock()
	done := eo.done
	eo.bufferMutex.RUnlock()
	return done
}

func (eo *EbitenOutput) UpdateFrame(data []byte) error {
	eo.bufferMutex.Lock()
	copy(eo.frameBuffer, data)
	eo.bufferMutex.Unlock()
	return nil
}

func (eo *EbitenOutput) SetDisplayConfig(config DisplayConfig) error {
	eo.bufferMutex.Lock()
	defer eo.bufferMutex.Unlock()

	width := config.Width
	height := config.Height
	if width <= 0 {
		width = eo.width
	}
	if height <= 0 {
		height = eo.height
	}
	eo.width = width
	eo.height = height
	eo.scale = ClampScale(config.Scale)
	newSize := eo.width * eo.height * 4

	if len(eo.frameBuffer) != newSize {
		eo.frameBuffer = make([]byte, newSize)
	}

	eo.windowedW = eo.width * eo.scale
	eo.windowedH = eo.height * eo.scale
	eo.fullscreen = config.Fullscreen
	ebiten.SetFullscreen(eo.fullscreen)
	if !eo.fullscreen {
		ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
	}
	if eo.window != nil {
		eo.window.Dispose()
		eo.window = nil
	}
	return nil
}

func (eo *EbitenOutput) GetDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Width:       eo.width,
		Height:      eo.height,
		Scale:       eo.scale,
		RefreshRate: eo.refreshRate,
		VSync:       true,
		Fullscreen:  eo.fullscreen,
	}
}

func (eo *EbitenOutput) WaitForVSync() error {
	<-eo.vsyncChan
	return nil
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return eo.frameCount.Load()
}

func (eo *EbitenOutput) GetRefreshRate() int {
	return eo.refreshRate
}

func (eo *EbitenOutput) GetSnapshot() (FrameSnapshot, error) {
	eo.bufferMutex.RLock()
	defer eo.bufferMutex.RUnlock()

	snapshot := FrameSnapshot{
		Buffer:    make([]byte, len(eo.frameBuffer)),
		Width:     eo.width,
		Height:    eo.height,
		Timestamp: time.Now(),
	}
	copy(snapshot.Buffer, eo.frameBuffer)
	return snapshot, nil
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.running
}

func (eo *EbitenOutput) Update() error {
	// Window close via the host decoration is a quit request
	if ebiten.IsWindowBeingClosed() {
		eo.bufferMutex.RLock()
		handler := eo.closeHandler
		eo.bufferMutex.RUnlock()
		if handler != nil {
			handler()
		}
		return ebiten.Termination
	}

	if !eo.running {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		eo.bufferMutex.Lock()
		eo.fullscreen = !eo.fullscreen
		ebiten.SetFullscreen(eo.fullscreen)
		if !eo.fullscreen {
			ebiten.SetWindowSize(eo.windowedW, eo.windowedH)
		}
		eo.bufferMutex.Unlock()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		if eo.resetInProgress.CompareAndSwap(false, true) {
			eo.bufferMutex.RLock()
			handler := eo.hardResetHandler
			eo.bufferMutex.RUnlock()
			if handler != nil {
				go func() {
					defer eo.resetInProgress.Store(false)
					handler()
				}()
			} else {
				eo.resetInProgress.Store(false)
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF12) {
		eo.bufferMutex.Lock()
		eo.showStatusBar = !eo.showStatusBar
		eo.bufferMutex.Unlock()
	}
	eo.handleKeyboardInput()
	return nil
}

func (eo *EbitenOutput) SetHardResetHandler(fn func()) {
	eo.bufferMutex.Lock()
	eo.hardResetHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) SetCloseHandler(fn func()) {
	eo.bufferMutex.Lock()
	eo.closeHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) SetKeyHandler(fn func(byte)) {
	eo.bufferMutex.Lock()
	eo.keyHandler = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) SetStatusProvider(fn func() string) {
	eo.bufferMutex.Lock()
	eo.statusProvider = fn
	eo.bufferMutex.Unlock()
}

func (eo *EbitenOutput) emitByte(b byte) {
	eo.bufferMutex.RLock()
	handler := eo.keyHandler
	eo.bufferMutex.RUnlock()
	if handler != nil {
		handler(b)
	}
}

func (eo *EbitenOutput) emitSeq(seq []byte) {
	for _, b := range seq {
		eo.emitByte(b)
	}
}

func (eo *EbitenOutput) handleKeyboardInput() {
	eo.bufferMutex.RLock()
	hasHandler := eo.keyHandler != nil
	eo.bufferMutex.RUnlock()
	if !hasHandler {
		return
	}

	// Printable input path.
	for _, r := range ebiten.AppendInputChars(nil) {
		if b, ok := runeToInputByte(r); ok {
			eo.emitByte(b)
		}
	}

	specialKeys := []ebiten.Key{
		ebiten.KeyEnter,
		ebiten.KeyNumpadEnter,
		ebiten.KeyBackspace,
		ebiten.KeyTab,
		ebiten.KeyEscape,
		ebiten.KeyArrowUp,
		ebiten.KeyArrowDown,
		ebiten.KeyArrowRight,
		ebiten.KeyArrowLeft,
		ebiten.KeyHome,
		ebiten.KeyEnd,
		ebiten.KeyDelete,
	}
	for _, key := range specialKeys {
		if inpututil.IsKeyJustPressed(key) {
			if seq, ok := translateSpecialKey(key); ok {
				eo.emitSeq(seq)
			}
		}
	}
}

func runeToInputByte(r rune) (byte, bool) {
	if r <= 0 || r > 0xFF {
		return 0, false
	}
	return byte(r), true
}

func translateSpecialKey(key ebiten.Key) ([]byte, bool) {
	switch key {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return []byte{'\n'}, true
	case ebiten.KeyBackspace:
		return []byte{'\b'}, true
	case ebiten.KeyTab:
		return []byte{'\t'}, true
	case ebiten.KeyEscape:
		return []byte{0x1B}, true
	case ebiten.KeyArrowUp:
		return []byte{0x1B, '[', 'A'}, true
	case ebiten.KeyArrowDown:
		return []byte{0x1B, '[', 'B'}, true
	case ebiten.KeyArrowRight:
		return []byte{0x1B, '[', 'C'}, true
	case ebiten.KeyArrowLeft:
		return []byte{0x1B, '[', 'D'}, true
	case ebiten.KeyHome:
		return []byte{0x1B, '[', 'H'}, true
	case ebiten.KeyEnd:
		return []byte{0x1B, '[', 'F'}, true
	case ebiten.KeyDelete:
		return []byte{0x1B, '[', '3', '~'}, true
	default:
		return nil, false
	}
}

func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	if eo.window == nil {
		eo.window = ebiten.NewImage(eo.width, eo.height)
	}

	eo.bufferMutex.RLock()
	eo.window.WritePixels(eo.frameBuffer)
	showStatusBar := eo.showStatusBar
	eo.bufferMutex.RUnlock()
	screen.DrawImage(eo.window, nil)
	if showStatusBar {
		eo.drawStatusBar(screen)
	}

	eo.frameCount.Add(1)
	select {
	case eo.vsyncChan <- struct{}{}:
	default:
	}
}

func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	return eo.width, eo.height
}

func (eo *EbitenOutput) drawStatusBar(screen *ebiten.Image) {
	barHeight := 18
	if barHeight >= eo.height {
		return
	}
	y := eo.height - barHeight
	ebitenutil.DrawRect(screen, 0, float64(y), float64(eo.width), float64(barHeight), color.RGBA{0, 0, 0, 180})

	face := basicfont.Face7x13
	statusColor := color.RGBA{0, 220, 90, 255}
	legendColor := color.RGBA{160, 160, 160, 255}

	eo.bufferMutex.RLock()
	provider := eo.statusProvider
	eo.bufferMutex.RUnlock()

	status := fmt.Sprintf("68K  %0.f fps  frame %d", ebiten.ActualFPS(), eo.frameCount.Load())
	if provider != nil {
		status = provider() + fmt.Sprintf("  %0.f fps", ebiten.ActualFPS())
	}
	text.Draw(screen, status, face, 6, y+13, statusColor)

	legend := "F10 Reset  F11 Fullscreen  F12 Status Bar"
	legendW := text.BoundString(face, legend).Dx()
	legendX := max(eo.width-legendW-6, 6)
	text.Draw(screen, legend, face, legendX, y+13, legendColor)
}
