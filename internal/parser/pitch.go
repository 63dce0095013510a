package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/scorecache/pkg/types"
)

var stepSemitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

var (
	majorTonics = []string{"C-", "G-", "D-", "A-", "E-", "B-", "F", "C", "G", "D", "A", "E", "B", "F#", "C#"}
	minorTonics = []string{"a-", "e-", "b-", "f", "c", "g", "d", "a", "e", "b", "f#", "c#", "g#", "d#", "a#"}
)

// keyName names the key with the given number of sharps (positive) or
// flats (negative). Minor tonics are lower case.
func keyName(fifths int, mode string) string {
	if fifths < -7 || fifths > 7 {
		return ""
	}
	if strings.EqualFold(mode, "minor") {
		return minorTonics[fifths+7] + " minor"
	}
	if mode == "" || strings.EqualFold(mode, "major") {
		return majorTonics[fifths+7] + " major"
	}
	return majorTonics[fifths+7] + " " + strings.ToLower(mode)
}

// pitchName spells a pitch with '#' for sharps and '-' for flats, e.g. "E-5"
func pitchName(step byte, alter, octave int) string {
	var acc string
	switch {
	case alter > 0:
		acc = strings.Repeat("#", alter)
	case alter < 0:
		acc = strings.Repeat("-", -alter)
	}
	return string(step) + acc + strconv.Itoa(octave)
}

// pitchRange tracks the lowest and highest pitch seen
type pitchRange struct {
	seen      bool
	low, high int
	lowName   string
	highName  string
}

func (r *pitchRange) observe(step byte, alter, octave int) {
	semis, ok := stepSemitones[step]
	if !ok {
		return
	}
	midi := (octave+1)*12 + semis + alter
	name := pitchName(step, alter, octave)

	if !r.seen || midi < r.low {
		r.low, r.lowName = midi, name
	}
	if !r.seen || midi > r.high {
		r.high, r.highName = midi, name
	}
	r.seen = true
}

func (r *pitchRange) apply(md *types.Metadata) {
	if !r.seen {
		return
	}
	md.PitchLowest = r.lowName
	md.PitchHighest = r.highName
	md.Ambitus = fmt.Sprintf("%d semitones", r.high-r.low)
}
