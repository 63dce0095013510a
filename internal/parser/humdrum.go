package parser

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/dshills/scorecache/pkg/types"
)

// maxHumdrumLine bounds one Humdrum record
const maxHumdrumLine = 1 << 20

// parseHumdrum reads reference records and **kern interpretations.
// Humdrum is line oriented and forgiving, so malformed lines are skipped.
// A line longer than maxHumdrumLine fails the whole source.
func parseHumdrum(data []byte) (*types.Metadata, error) {
	md := &types.Metadata{}
	var (
		spines  []string
		pitches pitchRange
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxHumdrumLine)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "!!!"):
			applyReference(md, line[3:])
		case strings.HasPrefix(line, "!"):
			continue
		case strings.HasPrefix(line, "**"):
			spines = strings.Split(line, "\t")
		case strings.HasPrefix(line, "*"):
			tokens := strings.Split(line, "\t")
			for _, tok := range tokens {
				applyInterpretation(md, tok)
			}
			spines = manipulateSpines(spines, tokens)
		case strings.HasPrefix(line, "="):
			continue
		default:
			for i, tok := range strings.Split(line, "\t") {
				if i >= len(spines) || spines[i] != "**kern" {
					continue
				}
				for _, note := range strings.Fields(tok) {
					if step, alter, octave, ok := kernPitch(note); ok {
						md.NoteCount++
						pitches.observe(step, alter, octave)
					}
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan humdrum: %w", err)
	}
	pitches.apply(md)
	return md, nil
}

// applyReference handles one "!!!KEY: value" record
func applyReference(md *types.Metadata, record string) {
	key, value, ok := strings.Cut(record, ":")
	if !ok {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}

	switch strings.TrimSpace(key) {
	case "COM":
		if md.Composer == "" {
			md.Composer = value
		}
	case "OTL":
		if md.Title == "" {
			md.Title = value
		}
	case "OTA", "OTP":
		if md.AlternativeTitle == "" {
			md.AlternativeTitle = value
		}
	case "OMD":
		md.MovementName = value
	case "OMV":
		md.MovementNumber = value
	case "OPS":
		md.OpusNumber = value
	case "ONM", "SCT":
		if md.Number == "" {
			md.Number = value
		}
	case "ODT", "CDT":
		if md.Date == "" {
			md.Date = value
		}
	case "OPC":
		md.LocaleOfComposition = value
	}
}

// applyInterpretation handles tandem interpretations in one spine
func applyInterpretation(md *types.Metadata, tok string) {
	switch {
	case strings.HasPrefix(tok, "*MM"):
		md.Tempos = appendUnique(md.Tempos, "quarter="+strings.TrimPrefix(tok, "*MM"))
	case strings.HasPrefix(tok, "*M") && strings.Contains(tok, "/"):
		md.TimeSignatures = appendUnique(md.TimeSignatures, strings.TrimPrefix(tok, "*M"))
	case len(tok) >= 3 && strings.HasSuffix(tok, ":") && isKeyTonic(tok[1:len(tok)-1]):
		md.KeySignatures = appendUnique(md.KeySignatures, kernKeyName(tok[1:len(tok)-1]))
	}
}

func isKeyTonic(s string) bool {
	if s == "" || !strings.ContainsRune("abcdefgABCDEFG", rune(s[0])) {
		return false
	}
	for _, r := range s[1:] {
		if r != '#' && r != '-' {
			return false
		}
	}
	return true
}

// kernKeyName turns "A" into "A major" and "f#" into "f# minor"
func kernKeyName(tonic string) string {
	if unicode.IsUpper(rune(tonic[0])) {
		return tonic + " major"
	}
	return tonic + " minor"
}

// manipulateSpines applies split, join and terminate manipulators
func manipulateSpines(spines, tokens []string) []string {
	if len(tokens) != len(spines) {
		return spines
	}
	out := make([]string, 0, len(spines))
	for i := 0; i < len(tokens); i++ {
		switch tokens[i] {
		case "*^":
			out = append(out, spines[i], spines[i])
		case "*v":
			out = append(out, spines[i])
			for i+1 < len(tokens) && tokens[i+1] == "*v" {
				i++
			}
		case "*-":
		default:
			out = append(out, spines[i])
		}
	}
	return out
}

// kernPitch decodes the pitch of one **kern note token. Lower-case letters
// start at middle-C octave and rise with repetition; upper-case letters
// start an octave below and fall.
func kernPitch(tok string) (step byte, alter, octave int, ok bool) {
	if strings.Contains(tok, "r") {
		return 0, 0, 0, false
	}

	var letter rune
	count := 0
	for _, r := range tok {
		switch {
		case strings.ContainsRune("abcdefgABCDEFG", r):
			if letter != 0 && r != letter {
				return 0, 0, 0, false
			}
			letter = r
			count++
		case r == '#':
			alter++
		case r == '-':
			alter--
		}
	}
	if letter == 0 {
		return 0, 0, 0, false
	}

	if unicode.IsLower(letter) {
		octave = 3 + count
	} else {
		octave = 4 - count
	}
	return byte(unicode.ToUpper(letter)), alter, octave, true
}
