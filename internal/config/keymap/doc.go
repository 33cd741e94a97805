// Package keymap parses keybinding combos and names the actions they
// trigger.
//
// A combo such as "Shift+Ctrl+P" is parsed into a Combo holding a canonical
// modifier set and one base key, so differently ordered spellings compare
// equal and can be used as map keys. Actions are either built-in command
// names or "custom:<name>" passthroughs that the host resolves; this
// package never executes them.
package keymap
