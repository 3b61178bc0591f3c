package preview

import "golang.org/x/mobile/event/key"

// action is what a key press asks the window to do.
type action int

const (
	actionNone action = iota
	actionQuit
	actionCancel
	actionRestart
)

func (a action) String() string {
	switch a {
	case actionQuit:
		return "quit"
	case actionCancel:
		return "cancel"
	case actionRestart:
		return "restart"
	default:
		return "none"
	}
}

// actionFor maps a key event to an action. Only presses count.
func actionFor(e key.Event) action {
	if e.Direction != key.DirPress {
		return actionNone
	}
	switch e.Code {
	case key.CodeEscape:
		return actionQuit
	case key.CodeC, key.CodeDeleteBackspace:
		return actionCancel
	case key.CodeR, key.CodeSpacebar:
		return actionRestart
	}
	return actionNone
}
