// Package report defines the build report data model: the identity of an
// insertion step (Descriptor/Symbol), the dependency records an insertable
// reports back to the engine, and the persisted manifest of the last
// successful build (BuildReport).
package report

import (
	"fmt"
)

// Symbol identifies the kind of an insertion step.
type Symbol string

const (
	Graphics          Symbol = "graphics"
	ExGraphics        Symbol = "ex_graphics"
	SharedPalettes    Symbol = "shared_palettes"
	Overworld         Symbol = "overworld"
	TitleScreen       Symbol = "title_screen"
	Credits           Symbol = "credits"
	GlobalExAnimation Symbol = "global_ex_animation"
	TitleMoves        Symbol = "title_moves"
	Levels            Symbol = "levels"
	Map16             Symbol = "map16"
	Pixi              Symbol = "pixi"
	ExternalTool      Symbol = "external_tool"
	Patch             Symbol = "patch"
	Module            Symbol = "module"
)

// HasName reports whether entries of this symbol carry a secondary
// identifier (a module source path, an external tool name, or a patch
// source path).
func (s Symbol) HasName() bool {
	return s == Module || s == ExternalTool || s == Patch
}

// AllowsDuplicates reports whether the build order may legally contain more
// than one descriptor of this symbol.
func (s Symbol) AllowsDuplicates() bool {
	return s == Module || s == ExternalTool
}

func (s Symbol) String() string {
	return string(s)
}

var validSymbols = map[Symbol]bool{
	Graphics: true, ExGraphics: true, SharedPalettes: true, Overworld: true,
	TitleScreen: true, Credits: true, GlobalExAnimation: true, TitleMoves: true,
	Levels: true, Map16: true, Pixi: true, ExternalTool: true, Patch: true, Module: true,
}

// ParseSymbol validates and returns a Symbol from its wire representation.
func ParseSymbol(s string) (Symbol, error) {
	sym := Symbol(s)
	if !validSymbols[sym] {
		return "", fmt.Errorf("unknown symbol %q", s)
	}
	return sym, nil
}
