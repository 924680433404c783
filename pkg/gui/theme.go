package gui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
)

// Terminal safe color palette is available here
// https://upload.wikimedia.org/wikipedia/commons/1/15/Xterm_256color_chart.svg

// Theme colors the terminal UI.
type Theme struct {
	Name        string      `yaml:"name"`
	SquareDark  tcell.Color `yaml:"-"`
	SquareLight tcell.Color `yaml:"-"`
	SquareHigh  tcell.Color `yaml:"-"`
	SquareHint  tcell.Color `yaml:"-"`
	SquareCheck tcell.Color `yaml:"-"`
	White       tcell.Color `yaml:"-"`
	Black       tcell.Color `yaml:"-"`
	Msg         tcell.Color `yaml:"-"`
	Rank        tcell.Color `yaml:"-"`
	File        tcell.Color `yaml:"-"`
}

// ThemeHex is a Theme with colors spelled as "#rrggbb" or color names.
type ThemeHex struct {
	Name        string `yaml:"name"`
	SquareDark  string `yaml:"square_dark"`
	SquareLight string `yaml:"square_light"`
	SquareHigh  string `yaml:"square_high"`
	SquareHint  string `yaml:"square_hint"`
	SquareCheck string `yaml:"square_check"`
	White       string `yaml:"white"`
	Black       string `yaml:"black"`
	Msg         string `yaml:"msg"`
	Rank        string `yaml:"rank"`
	File        string `yaml:"file"`
}

// fmtHex keeps ColorDefault distinguishable from black.
func fmtHex(v int32) string {
	if v == -1 {
		return "#0"
	}
	return fmt.Sprintf("#%06x", v)
}

func (t Theme) Hex() ThemeHex {
	return ThemeHex{
		Name:        t.Name,
		SquareDark:  fmtHex(t.SquareDark.Hex()),
		SquareLight: fmtHex(t.SquareLight.Hex()),
		SquareHigh:  fmtHex(t.SquareHigh.Hex()),
		SquareHint:  fmtHex(t.SquareHint.Hex()),
		SquareCheck: fmtHex(t.SquareCheck.Hex()),
		White:       fmtHex(t.White.Hex()),
		Black:       fmtHex(t.Black.Hex()),
		Msg:         fmtHex(t.Msg.Hex()),
		Rank:        fmtHex(t.Rank.Hex()),
		File:        fmtHex(t.File.Hex()),
	}
}

func (t ThemeHex) Theme() Theme {
	return Theme{
		Name:        t.Name,
		SquareDark:  tcell.GetColor(t.SquareDark),
		SquareLight: tcell.GetColor(t.SquareLight),
		SquareHigh:  tcell.GetColor(t.SquareHigh),
		SquareHint:  tcell.GetColor(t.SquareHint),
		SquareCheck: tcell.GetColor(t.SquareCheck),
		White:       tcell.GetColor(t.White),
		Black:       tcell.GetColor(t.Black),
		Msg:         tcell.GetColor(t.Msg),
		Rank:        tcell.GetColor(t.Rank),
		File:        tcell.GetColor(t.File),
	}
}

var ErrNoTheme = errors.New("theme: no theme found")

// ThemeBasic is the default theme
var ThemeBasic = Theme{
	Name:        "basic",
	SquareDark:  tcell.Color188,
	SquareLight: tcell.Color230,
	SquareHigh:  tcell.Color226,
	SquareHint:  tcell.Color223,
	SquareCheck: tcell.Color218,
	White:       tcell.Color232,
	Black:       tcell.Color232,
	Msg:         tcell.Color160,
	Rank:        tcell.Color247,
	File:        tcell.Color247,
}

var ThemeClassic = Theme{
	Name:        "classic",
	SquareDark:  tcell.ColorBlue,
	SquareLight: tcell.ColorGreen,
	SquareHigh:  tcell.ColorRed,
	SquareHint:  tcell.ColorOlive,
	SquareCheck: tcell.ColorMaroon,
	White:       tcell.ColorWhite,
	Black:       tcell.ColorBlack,
	Msg:         tcell.ColorYellow,
	Rank:        tcell.ColorDefault,
	File:        tcell.ColorDefault,
}

// ThemeByName looks in extra first, then the built-in themes.
func ThemeByName(name string, extra ...ThemeHex) (Theme, error) {
	for _, t := range extra {
		if strings.EqualFold(t.Name, name) {
			return t.Theme(), nil
		}
	}
	for _, t := range []Theme{ThemeBasic, ThemeClassic} {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return Theme{}, fmt.Errorf("%w: %q", ErrNoTheme, name)
}

// palette is the fatih/color counterpart of a Theme for plain terminals.
type palette struct {
	enabled bool
	dark    color.Attribute
	light   color.Attribute
	high    color.Attribute
	hint    color.Attribute
	check   color.Attribute
	white   []color.Attribute
	black   []color.Attribute
	label   []color.Attribute
}

func newPalette(enabled bool) palette {
	return palette{
		enabled: enabled,
		dark:    color.BgBlue,
		light:   color.BgGreen,
		high:    color.BgRed,
		hint:    color.BgYellow,
		check:   color.BgMagenta,
		white:   []color.Attribute{color.FgHiWhite, color.Bold},
		black:   []color.Attribute{color.FgBlack, color.Bold},
		label:   []color.Attribute{color.FgHiBlack},
	}
}

func (p palette) paint(s string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if p.enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}
