package gate

// InputKind is the kind of a raw input event.
type InputKind int

const (
	PointerMove InputKind = iota
	PointerDown
	PointerUp
	TouchStart
	TouchMove
	TouchEnd
	Wheel
)

var kindNames = [...]string{
	PointerMove: "pointer-move",
	PointerDown: "pointer-down",
	PointerUp:   "pointer-up",
	TouchStart:  "touch-start",
	TouchMove:   "touch-move",
	TouchEnd:    "touch-end",
	Wheel:       "wheel",
}

func (k InputKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Input is a raw pointer or touch event. X and Y are in the widget's
// percent coordinates.
type Input struct {
	Kind InputKind
	X, Y float64
	// Buttons is the pointer button bit mask at the time of the event.
	Buttons int
}

// Genuine reports whether the event shows deliberate interaction with the
// widget: pressing, dragging or touching. Hovering, releasing and
// scrolling over the widget do not count.
func (in Input) Genuine() bool {
	switch in.Kind {
	case PointerDown, TouchStart, TouchMove:
		return true
	case PointerMove:
		return in.Buttons != 0
	default:
		return false
	}
}
