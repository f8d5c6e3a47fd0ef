package core

// GestureMode selects how touch gestures are decoded for a game.
type GestureMode int

const (
	// GestureDiscrete classifies a whole gesture on touch end:
	// one tap or one swipe per gesture (snake, tetris).
	GestureDiscrete GestureMode = iota

	// GestureContinuous turns horizontal drag into a stream of short
	// left/right pulses (paddle games).
	GestureContinuous
)

// String returns the mode name used in catalog manifests.
func (m GestureMode) String() string {
	switch m {
	case GestureContinuous:
		return "continuous"
	default:
		return "discrete"
	}
}

// ParseGestureMode parses a manifest value; anything unknown is discrete.
func ParseGestureMode(s string) GestureMode {
	if s == "continuous" {
		return GestureContinuous
	}
	return GestureDiscrete
}
