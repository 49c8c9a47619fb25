package game

import "strings"

// Mods is the bitmask of gameplay modifiers attached to a score or replay
type Mods uint32

// The individual mod bits as stored in replay files and returned by the web
// API. Some bits are aliased: AutoPilot shares a bit with the retired Relax2
// name and Cinema shares a bit with LastMod.
const (
	ModNoFail Mods = 1 << iota
	ModEasy
	ModNoVideo // no longer a selectable mod
	ModHidden
	ModHardRock
	ModSuddenDeath
	ModDoubleTime
	ModRelax
	ModHalfTime
	ModNightcore // always set together with double time
	ModFlashlight
	ModAutoplay
	ModSpunOut
	ModAutoPilot
	ModPerfect
	ModKey4
	ModKey5
	ModKey6
	ModKey7
	ModKey8
	ModFadeIn
	ModRandom
	ModCinema
	ModTargetPractice
	ModKey9
	ModCoop
	ModKey1
	ModKey3
	ModKey2
	ModScoreV2
)

var modNames = []struct {
	bit  Mods
	name string
}{
	{ModNoFail, "NF"},
	{ModEasy, "EZ"},
	{ModHidden, "HD"},
	{ModHardRock, "HR"},
	{ModSuddenDeath, "SD"},
	{ModDoubleTime, "DT"},
	{ModRelax, "RX"},
	{ModHalfTime, "HT"},
	{ModNightcore, "NC"},
	{ModFlashlight, "FL"},
	{ModAutoplay, "AT"},
	{ModSpunOut, "SO"},
	{ModAutoPilot, "AP"},
	{ModPerfect, "PF"},
	{ModScoreV2, "V2"},
}

// Has reports whether every bit in query is enabled
func (m Mods) Has(query Mods) bool {
	return m&query == query
}

// String returns the short-form mod string as displayed in game, e.g. "HDHR".
// NoMod is rendered as "None".
func (m Mods) String() string {
	if m == 0 {
		return "None"
	}
	var b strings.Builder
	for _, mn := range modNames {
		if m.Has(mn.bit) {
			b.WriteString(mn.name)
		}
	}
	if b.Len() == 0 {
		return "None"
	}
	return b.String()
}
