package x11

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/jezek/xgb/xproto"

	"github.com/dshills/xchainkeys/internal/backend"
	"github.com/dshills/xchainkeys/internal/input"
)

const (
	popupMargin = 3
	popupBorder = 2

	// ImageText8 takes at most 255 bytes.
	maxTextLen = 255
)

// Popup is the feedback window: an override-redirect window centered on
// the screen showing one line of text.
type Popup struct {
	input.HideTimer

	d    *Display
	win  xproto.Window
	gc   xproto.Gcontext
	font xproto.Font

	ascent    int
	descent   int
	charWidth int

	mu     sync.Mutex
	text   string
	mapped bool
	width  uint16
	height uint16
}

var _ input.Feedback = (*Popup)(nil)

func newPopup(d *Display, style backend.Style) (*Popup, error) {
	screen := d.xu.Screen()

	fg, err := d.allocColor(screen.DefaultColormap, style.Foreground)
	if err != nil {
		return nil, err
	}
	bg, err := d.allocColor(screen.DefaultColormap, style.Background)
	if err != nil {
		return nil, err
	}

	p := &Popup{d: d, width: 1, height: 1}

	if p.font, err = xproto.NewFontId(d.conn); err != nil {
		return nil, fmt.Errorf("x11: font id: %w", err)
	}
	if err := xproto.OpenFontChecked(d.conn, p.font, uint16(len(style.Font)), style.Font).Check(); err != nil {
		return nil, fmt.Errorf("x11: load font %q: %w", style.Font, err)
	}
	info, err := xproto.QueryFont(d.conn, xproto.Fontable(p.font)).Reply()
	if err != nil {
		xproto.CloseFont(d.conn, p.font)
		return nil, fmt.Errorf("x11: query font %q: %w", style.Font, err)
	}
	p.ascent = int(info.FontAscent)
	p.descent = int(info.FontDescent)
	p.charWidth = int(info.MaxBounds.CharacterWidth)

	if p.win, err = xproto.NewWindowId(d.conn); err != nil {
		xproto.CloseFont(d.conn, p.font)
		return nil, fmt.Errorf("x11: window id: %w", err)
	}
	err = xproto.CreateWindowChecked(d.conn, screen.RootDepth, p.win, d.root,
		0, 0, 1, 1, popupBorder,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{bg, fg, 1, xproto.EventMaskExposure}).Check()
	if err != nil {
		xproto.CloseFont(d.conn, p.font)
		return nil, fmt.Errorf("x11: create popup: %w", err)
	}

	if p.gc, err = xproto.NewGcontextId(d.conn); err != nil {
		p.destroy()
		return nil, fmt.Errorf("x11: gc id: %w", err)
	}
	err = xproto.CreateGCChecked(d.conn, p.gc, xproto.Drawable(p.win),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont,
		[]uint32{fg, bg, uint32(p.font)}).Check()
	if err != nil {
		p.gc = 0
		p.destroy()
		return nil, fmt.Errorf("x11: create gc: %w", err)
	}
	return p, nil
}

// allocColor allocates a named color or a #rgb / #rrggbb value.
func (d *Display) allocColor(cmap xproto.Colormap, name string) (uint32, error) {
	if r, g, b, ok := parseHexColor(name); ok {
		reply, err := xproto.AllocColor(d.conn, cmap, r, g, b).Reply()
		if err != nil {
			return 0, fmt.Errorf("x11: color %q: %w", name, err)
		}
		return reply.Pixel, nil
	}
	reply, err := xproto.AllocNamedColor(d.conn, cmap, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: color %q: %w", name, err)
	}
	return reply.Pixel, nil
}

// parseHexColor parses #rgb and #rrggbb into 16-bit channels.
func parseHexColor(s string) (r, g, b uint16, ok bool) {
	hex, found := strings.CutPrefix(s, "#")
	if !found {
		return 0, 0, 0, false
	}
	var width int
	switch len(hex) {
	case 3:
		width = 1
	case 6:
		width = 2
	default:
		return 0, 0, 0, false
	}

	var ch [3]uint16
	for i := range ch {
		v, err := strconv.ParseUint(hex[i*width:(i+1)*width], 16, 16)
		if err != nil {
			return 0, 0, 0, false
		}
		if width == 1 {
			v |= v << 4
		}
		ch[i] = uint16(v<<8 | v)
	}
	return ch[0], ch[1], ch[2], true
}

// popupGeometry centers a box holding textWidth pixels of text.
func popupGeometry(screenW, screenH, textWidth, ascent, descent int) (x, y int, w, h int) {
	w = textWidth + popupMargin*2
	h = ascent + descent + popupMargin*2
	x = screenW/2 - (w+popupMargin)/2
	y = screenH/2 - (h+popupMargin)/2
	return x, y, w, h
}

// truncateText keeps at most maxTextLen bytes from the end of text, so
// the newest key of a long path stays visible. It never splits a rune.
func truncateText(text string) string {
	if len(text) <= maxTextLen {
		return text
	}
	cut := len(text) - maxTextLen
	for cut < len(text) && !utf8.RuneStart(text[cut]) {
		cut++
	}
	return text[cut:]
}

// SetText implements input.Feedback.
func (p *Popup) SetText(text string) {
	text = truncateText(text)
	p.mu.Lock()
	p.text = text
	p.mu.Unlock()
}

// Show implements input.Feedback.
func (p *Popup) Show() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	screen := p.d.xu.Screen()
	x, y, w, h := popupGeometry(int(screen.WidthInPixels), int(screen.HeightInPixels),
		len(p.text)*p.charWidth, p.ascent, p.descent)
	p.width, p.height = uint16(w), uint16(h)

	err := xproto.ConfigureWindowChecked(p.d.conn, p.win,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|
			xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{uint32(int32(x)), uint32(int32(y)), uint32(w), uint32(h), xproto.StackModeAbove}).Check()
	if err != nil {
		return fmt.Errorf("x11: move popup: %w", err)
	}
	if !p.mapped {
		if err := xproto.MapWindowChecked(p.d.conn, p.win).Check(); err != nil {
			return fmt.Errorf("x11: map popup: %w", err)
		}
		p.mapped = true
	}
	return p.draw()
}

// draw paints the text. Callers hold p.mu.
func (p *Popup) draw() error {
	if err := xproto.ClearAreaChecked(p.d.conn, false, p.win, 0, 0, 0, 0).Check(); err != nil {
		return fmt.Errorf("x11: clear popup: %w", err)
	}
	err := xproto.ImageText8Checked(p.d.conn, byte(len(p.text)), xproto.Drawable(p.win), p.gc,
		popupMargin, int16(popupMargin+p.ascent), p.text).Check()
	if err != nil {
		return fmt.Errorf("x11: draw popup: %w", err)
	}
	return nil
}

func (p *Popup) expose(w xproto.Window) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w != p.win || !p.mapped {
		return
	}
	if err := p.draw(); err != nil {
		p.d.logger.Debug("redraw: %v", err)
	}
}

// Hide implements input.Feedback.
func (p *Popup) Hide() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.mapped {
		return nil
	}
	p.mapped = false
	if err := xproto.UnmapWindowChecked(p.d.conn, p.win).Check(); err != nil {
		return fmt.Errorf("x11: unmap popup: %w", err)
	}
	return nil
}

// Visible implements input.Feedback.
func (p *Popup) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mapped
}

// Close implements input.Feedback.
func (p *Popup) Close() error {
	p.d.forget(p)
	return p.destroy()
}

func (p *Popup) destroy() error {
	var errs []error
	if p.gc != 0 {
		errs = append(errs, xproto.FreeGCChecked(p.d.conn, p.gc).Check())
	}
	errs = append(errs,
		xproto.DestroyWindowChecked(p.d.conn, p.win).Check(),
		xproto.CloseFontChecked(p.d.conn, p.font).Check())
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("x11: close popup: %w", err)
	}
	return nil
}
