package main

import (
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"golang.design/x/clipboard"

	"github.com/bshepherdson/coemu/hardware"
)

func init() {
	runtime.LockOSThread() // SDL must stay on the main thread.
}

const (
	scaleFactor   = 4
	borderPixels  = 8 * scaleFactor
	paintInterval = 50 * time.Millisecond
)

// sdlFrontend draws the LEM1802 in a window and feeds SDL key events to the
// keyboard.
type sdlFrontend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	log      *logrus.Entry

	lastFrame time.Time

	clipboardOnce sync.Once
	clipboardOK   bool
}

func newSDLFrontend() (*sdlFrontend, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %w", err)
	}

	w := int32(hardware.WidthPixels*scaleFactor + 2*borderPixels)
	h := int32(hardware.HeightPixels*scaleFactor + 2*borderPixels)
	window, err := sdl.CreateWindow("LEM 1802", sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED, w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING, hardware.WidthPixels, hardware.HeightPixels)
	if err != nil {
		renderer.Destroy()
		window.Destroy()
		return nil, fmt.Errorf("failed to create texture: %w", err)
	}

	return &sdlFrontend{
		window:   window,
		renderer: renderer,
		texture:  texture,
		log:      logrus.WithField("component", "sdl"),
	}, nil
}

func (s *sdlFrontend) Close() {
	s.texture.Destroy()
	s.renderer.Destroy()
	s.window.Destroy()
	sdl.Quit()
}

func (s *sdlFrontend) Frame(m *machine) bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch t := event.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.KeyboardEvent:
			s.key(m, t)
		}
	}

	if time.Since(s.lastFrame) < paintInterval {
		return true
	}
	s.lastFrame = time.Now()
	if m.display != nil {
		if err := s.paint(m.display); err != nil {
			s.log.WithError(err).Error("painting")
			return false
		}
	}
	return true
}

func (s *sdlFrontend) key(m *machine, e *sdl.KeyboardEvent) {
	sym := e.Keysym.Sym
	if sdl.K_F1 <= sym && sym <= sdl.K_F12 {
		if e.Type != sdl.KEYDOWN {
			return
		}
		if sym == sdl.K_F5 {
			s.paste(m)
		} else {
			m.fKey(int(sym-sdl.K_F1) + 1)
		}
		return
	}

	kb := m.keyboard
	if kb == nil {
		return
	}
	code, ch := readKey(e.Keysym)
	if code == 0 {
		s.log.WithField("keycode", sym).Debug("unrecognized key")
		return
	}

	if e.Type == sdl.KEYUP {
		kb.Release(code)
		return
	}
	kb.Press(code)
	if ch != 0 {
		kb.Type(ch)
	}
}

// paste types the clipboard's text.
func (s *sdlFrontend) paste(m *machine) {
	s.clipboardOnce.Do(func() {
		s.clipboardOK = clipboard.Init() == nil
	})
	if !s.clipboardOK || m.keyboard == nil {
		return
	}
	for _, ch := range string(clipboard.Read(clipboard.FmtText)) {
		m.keyboard.Type(ch)
	}
}

var keyCodes = map[sdl.Keycode]uint16{
	sdl.K_LSHIFT:    hardware.KeyShift,
	sdl.K_RSHIFT:    hardware.KeyShift,
	sdl.K_LCTRL:     hardware.KeyControl,
	sdl.K_RCTRL:     hardware.KeyControl,
	sdl.K_BACKSPACE: hardware.KeyBackspace,
	sdl.K_RETURN:    hardware.KeyReturn,
	sdl.K_INSERT:    hardware.KeyInsert,
	sdl.K_DELETE:    hardware.KeyDelete,
	sdl.K_UP:        hardware.KeyUp,
	sdl.K_DOWN:      hardware.KeyDown,
	sdl.K_LEFT:      hardware.KeyLeft,
	sdl.K_RIGHT:     hardware.KeyRight,
}

var shiftedKeys = map[sdl.Keycode]rune{
	sdl.K_0:            ')',
	sdl.K_1:            '!',
	sdl.K_2:            '@',
	sdl.K_3:            '#',
	sdl.K_4:            '$',
	sdl.K_5:            '%',
	sdl.K_6:            '^',
	sdl.K_7:            '&',
	sdl.K_8:            '*',
	sdl.K_9:            '(',
	sdl.K_MINUS:        '_',
	sdl.K_EQUALS:       '+',
	sdl.K_LEFTBRACKET:  '{',
	sdl.K_RIGHTBRACKET: '}',
	sdl.K_BACKSLASH:    '|',
	sdl.K_BACKQUOTE:    '~',
	sdl.K_COMMA:        '<',
	sdl.K_PERIOD:       '>',
	sdl.K_SLASH:        '?',
	sdl.K_SEMICOLON:    ':',
	sdl.K_QUOTE:        '"',
}

// readKey returns the key number for sym, and the character it types, if any.
func readKey(sym sdl.Keysym) (uint16, rune) {
	if code, ok := keyCodes[sym.Sym]; ok {
		return code, 0
	}
	if sym.Sym < 0x20 || sym.Sym >= 0x7f {
		return 0, 0
	}

	ch := rune(sym.Sym)
	if sym.Mod&sdl.KMOD_SHIFT != 0 {
		if sdl.K_a <= sym.Sym && sym.Sym <= sdl.K_z {
			ch &^= 0x20
		} else if c, ok := shiftedKeys[sym.Sym]; ok {
			ch = c
		}
	}
	return uint16(sym.Sym), ch
}

func (s *sdlFrontend) paint(lem *hardware.LEM1802) error {
	palette := lem.Palette()
	r, g, b := rgb(palette.At(int(lem.Border())))
	if err := s.renderer.SetDrawColor(r, g, b, 0xff); err != nil {
		return err
	}
	if err := s.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear renderer: %w", err)
	}

	// A disconnected or booting screen shows only its border.
	if lem.Connected() && !lem.Booting() {
		pixels, pitch, err := s.texture.Lock(nil)
		if err != nil {
			return fmt.Errorf("error locking texture: %w", err)
		}
		if pitch != hardware.WidthPixels*4 {
			s.texture.Unlock()
			return fmt.Errorf("unexpected pitch: %d", pitch)
		}

		blink := time.Now().UnixMilli()&1024 != 0
		vram := lem.Nametable()
		font := lem.Font()
		for row := 0; row < hardware.HeightChars; row++ {
			for col := 0; col < hardware.WidthChars; col++ {
				writeChar(pixels, palette, font, vram.At(row*hardware.WidthChars+col), row, col, blink)
			}
		}
		s.texture.Unlock()

		dst := sdl.Rect{
			X: borderPixels,
			Y: borderPixels,
			W: hardware.WidthPixels * scaleFactor,
			H: hardware.HeightPixels * scaleFactor,
		}
		if err := s.renderer.Copy(s.texture, nil, &dst); err != nil {
			return fmt.Errorf("failed to copy texture: %w", err)
		}
	}

	s.renderer.Present()
	return nil
}

// Cells are ffffbbbbBccccccc: foreground, background, blink and character.
func writeChar(pixels []byte, palette, font hardware.Words, cell uint16, row, col int, blink bool) {
	c := int(cell & 0x7f)
	fg := argb(palette.At(int(cell>>12) & 0xf))
	bg := argb(palette.At(int(cell>>8) & 0xf))
	if cell&0x80 != 0 && !blink {
		fg = bg
	}

	// Each font word holds two columns, high byte first, and the LSB of each
	// byte is the topmost pixel.
	lo, hi := font.At(2*c), font.At(2*c+1)
	columns := [hardware.FontWidth]uint8{uint8(lo >> 8), uint8(lo), uint8(hi >> 8), uint8(hi)}

	x := col * hardware.FontWidth
	y := row * hardware.FontHeight
	for i, bits := range columns {
		for j := 0; j < hardware.FontHeight; j++ {
			color := bg
			if bits>>j&1 != 0 {
				color = fg
			}
			offset := 4 * ((y+j)*hardware.WidthPixels + x + i)
			binary.LittleEndian.PutUint32(pixels[offset:], color)
		}
	}
}

// rgb expands a 0000rrrrggggbbbb colour to 8 bits per channel.
func rgb(c uint16) (uint8, uint8, uint8) {
	r := uint8(c>>8) & 0xf
	g := uint8(c>>4) & 0xf
	b := uint8(c) & 0xf
	return r | r<<4, g | g<<4, b | b<<4
}

// argb converts a DCPU colour to the texture's ARGB8888.
func argb(c uint16) uint32 {
	r, g, b := rgb(c)
	return 0xff000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}
