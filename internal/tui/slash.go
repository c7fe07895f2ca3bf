package tui

import "strings"

type slashKind int

const (
	slashNone slashKind = iota
	slashExit
	slashClear
	slashSave
	slashCopy
	slashUnknown
)

type slashCommand struct {
	kind slashKind
	arg  string
	name string
}

// parseSlash recognises chat commands typed into the input box. Plain
// "exit" and "quit" also leave, as in most REPLs.
func parseSlash(input string) slashCommand {
	input = strings.TrimSpace(input)
	switch input {
	case "exit", "quit":
		return slashCommand{kind: slashExit, name: input}
	}
	if !strings.HasPrefix(input, "/") {
		return slashCommand{kind: slashNone}
	}

	name, arg, _ := strings.Cut(input[1:], " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "exit", "quit":
		return slashCommand{kind: slashExit, name: name}
	case "clear", "new":
		return slashCommand{kind: slashClear, name: name}
	case "save", "export":
		return slashCommand{kind: slashSave, arg: arg, name: name}
	case "copy":
		return slashCommand{kind: slashCopy, name: name}
	}
	return slashCommand{kind: slashUnknown, name: name}
}
