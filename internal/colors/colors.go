// Package colors provides centralized color output with TTY-aware defaults.
//
// Colors are automatically disabled when stdout is not a terminal (piped or
// redirected to a file). This behavior is provided by the underlying fatih/color
// library and respected by default. Use Init() to override based on CLI flags.
package colors

import "github.com/fatih/color"

// Init allows overriding the auto-detected color setting.
//
// By default, colors are automatically disabled when stdout is not a TTY.
// Use this function to override based on CLI flags:
//   - forceColor == nil: keep auto-detected value (recommended default)
//   - forceColor == true: force colors on (e.g., --color flag)
//   - forceColor == false: force colors off (e.g., --color=false)
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

// -----------------------------------------------------------------------------
// Basic styles
// -----------------------------------------------------------------------------

func Bold() *color.Color  { return color.New(color.Bold) }
func Faint() *color.Color { return color.New(color.Faint) }

// -----------------------------------------------------------------------------
// Foreground colors
// -----------------------------------------------------------------------------

func Green() *color.Color  { return color.New(color.FgGreen) }
func Yellow() *color.Color { return color.New(color.FgYellow) }

// -----------------------------------------------------------------------------
// Combinations
// -----------------------------------------------------------------------------

func BoldGreen() *color.Color   { return color.New(color.Bold, color.FgGreen) }
func FaintHiBlue() *color.Color { return color.New(color.Faint, color.FgHiBlue) }
func ItalicFaint() *color.Color { return color.New(color.Italic, color.Faint) }
