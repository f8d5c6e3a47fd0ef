package input

import "github.com/vovakirdan/retrodesk/internal/core"

// DefaultKeyMap returns the fixed physical key table. Keys are matched
// case-insensitively; browser key names and terminal key strings both map.
func DefaultKeyMap() map[string]core.Slot {
	return map[string]core.Slot{
		"arrowup": core.SlotUp,
		"up":      core.SlotUp,
		"w":       core.SlotUp,

		"arrowdown": core.SlotDown,
		"down":      core.SlotDown,
		"s":         core.SlotDown,

		"arrowleft": core.SlotLeft,
		"left":      core.SlotLeft,
		"a":         core.SlotLeft,

		"arrowright": core.SlotRight,
		"right":      core.SlotRight,
		"d":          core.SlotRight,

		"space":    core.SlotAction,
		"spacebar": core.SlotAction,

		"enter": core.SlotConfirm,

		"escape": core.SlotCancel,
		"esc":    core.SlotCancel,

		"z":     core.SlotAux1,
		"x":     core.SlotAux2,
		"shift": core.SlotAux3,
	}
}

// SlotForKey reports the slot bound to key in the default table.
func SlotForKey(key string) (core.Slot, bool) {
	s, ok := DefaultKeyMap()[normalizeKey(key)]
	return s, ok
}
