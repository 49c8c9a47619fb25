package game

import (
	"errors"
	"fmt"
)

// Mode is an osu! game mode
type Mode uint8

// The game modes that can appear in beatmaps and replays
const (
	ModeStandard Mode = iota
	ModeTaiko
	ModeCatchTheBeat
	ModeMania
)

// ErrUnknownMode is returned when a raw mode value is out of range
var ErrUnknownMode = errors.New("unknown game mode")

// ParseMode validates and converts a raw mode value
func ParseMode(v int) (Mode, error) {
	if v < int(ModeStandard) || v > int(ModeMania) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMode, v)
	}
	return Mode(v), nil
}

// String implements fmt.Stringer
func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "osu!standard"
	case ModeTaiko:
		return "osu!taiko"
	case ModeCatchTheBeat:
		return "osu!catch"
	case ModeMania:
		return "osu!mania"
	}
	return "unknown"
}
