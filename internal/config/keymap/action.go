package keymap

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Action is the command a combo triggers. It is either one of the built-in
// commands below or "custom:<name>", which is passed through to the host's
// dispatcher unvalidated.
type Action string

// CustomPrefix marks actions resolved outside the built-in vocabulary.
const CustomPrefix = "custom:"

// Built-in commands.
const (
	// Navigation
	MoveUp        Action = "move_up"
	MoveDown      Action = "move_down"
	MoveLeft      Action = "move_left"
	MoveRight     Action = "move_right"
	MoveLineStart Action = "move_line_start"
	MoveLineEnd   Action = "move_line_end"
	MovePageUp    Action = "move_page_up"
	MovePageDown  Action = "move_page_down"
	MoveWordNext  Action = "move_word_next"
	MoveWordPrev  Action = "move_word_prev"
	MoveToLine    Action = "move_to_line"

	// Editing
	Insert          Action = "insert"
	InsertLineAbove Action = "insert_line_above"
	InsertLineBelow Action = "insert_line_below"
	Delete          Action = "delete"
	DeleteLine      Action = "delete_line"
	DeleteWord      Action = "delete_word"
	DeleteToEnd     Action = "delete_to_end"
	Undo            Action = "undo"
	Redo            Action = "redo"
	Copy            Action = "copy"
	Cut             Action = "cut"
	Paste           Action = "paste"

	// Search
	Search     Action = "search"
	SearchNext Action = "search_next"
	SearchPrev Action = "search_prev"
	Replace    Action = "replace"

	// Files
	Save      Action = "save"
	SaveAs    Action = "save_as"
	Open      Action = "open"
	New       Action = "new"
	Quit      Action = "quit"
	ForceQuit Action = "force_quit"

	// Splits
	SplitVertical   Action = "split_vertical"
	SplitHorizontal Action = "split_horizontal"
	CloseSplit      Action = "close_split"
	NextSplit       Action = "next_split"
	PrevSplit       Action = "prev_split"

	// Modes
	NormalMode  Action = "normal_mode"
	InsertMode  Action = "insert_mode"
	VisualMode  Action = "visual_mode"
	CommandMode Action = "command_mode"
)

var builtinActions = []Action{
	MoveUp, MoveDown, MoveLeft, MoveRight, MoveLineStart, MoveLineEnd,
	MovePageUp, MovePageDown, MoveWordNext, MoveWordPrev, MoveToLine,
	Insert, InsertLineAbove, InsertLineBelow, Delete, DeleteLine, DeleteWord,
	DeleteToEnd, Undo, Redo, Copy, Cut, Paste,
	Search, SearchNext, SearchPrev, Replace,
	Save, SaveAs, Open, New, Quit, ForceQuit,
	SplitVertical, SplitHorizontal, CloseSplit, NextSplit, PrevSplit,
	NormalMode, InsertMode, VisualMode, CommandMode,
}

// ErrUnknownAction is returned for names outside the built-in vocabulary
// that lack the custom: prefix.
var ErrUnknownAction = errors.New("unknown action")

// BuiltinActions returns the built-in command vocabulary.
func BuiltinActions() []Action {
	return slices.Clone(builtinActions)
}

// Custom returns the passthrough action for name.
func Custom(name string) Action {
	return Action(CustomPrefix + name)
}

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	if name, ok := strings.CutPrefix(s, CustomPrefix); ok {
		if strings.TrimSpace(name) == "" {
			return "", fmt.Errorf("%w: %q has an empty custom name", ErrUnknownAction, s)
		}
		return Action(s), nil
	}
	a := Action(s)
	if !a.IsBuiltin() {
		return "", fmt.Errorf("%w %q", ErrUnknownAction, s)
	}
	return a, nil
}

// IsBuiltin reports whether a is in the built-in vocabulary.
func (a Action) IsBuiltin() bool {
	return slices.Contains(builtinActions, a)
}

// IsCustom reports whether a carries the custom: prefix.
func (a Action) IsCustom() bool {
	return strings.HasPrefix(string(a), CustomPrefix)
}

// CustomName returns the name after custom:, or "" for built-ins.
func (a Action) CustomName() string {
	name, _ := strings.CutPrefix(string(a), CustomPrefix)
	if !a.IsCustom() {
		return ""
	}
	return name
}

func (a Action) String() string { return string(a) }
