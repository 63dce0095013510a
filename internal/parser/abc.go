package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/scorecache/pkg/types"
)

var abcField = regexp.MustCompile(`^[A-Za-z]:`)

// parseABC splits an ABC file into tunes at each X: field. Files with more
// than one tune number their documents by the X: value, or by position when
// any X: value is missing, malformed or repeated.
func parseABC(data []byte) []document {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	type tune struct {
		label  string
		number int
		start  int
		end    int
	}
	var tunes []tune
	seen := make(map[int]bool)
	byPosition := false
	for i, line := range lines {
		if !strings.HasPrefix(line, "X:") {
			continue
		}
		if len(tunes) > 0 {
			tunes[len(tunes)-1].end = i
		}
		label := strings.TrimSpace(stripComment(line[2:]))
		n, err := strconv.Atoi(label)
		if err != nil || seen[n] {
			byPosition = true
		}
		seen[n] = true
		tunes = append(tunes, tune{label: label, number: n, start: i, end: len(lines)})
	}
	if byPosition {
		for i := range tunes {
			tunes[i].number = i + 1
		}
	}

	if len(tunes) == 0 {
		return []document{{metadata: parseABCTune(lines), content: data}}
	}

	docs := make([]document, 0, len(tunes))
	for _, t := range tunes {
		body := lines[t.start:t.end]
		md := parseABCTune(body)
		md.Number = t.label
		if md.Number == "" {
			md.Number = strconv.Itoa(t.number)
		}

		d := document{
			metadata: md,
			content:  []byte(strings.TrimRight(strings.Join(body, "\n"), "\n") + "\n"),
		}
		if len(tunes) > 1 {
			n := t.number
			d.number = &n
		}
		docs = append(docs, d)
	}
	return docs
}

// parseABCTune reads the header fields and counts the notes of one tune
func parseABCTune(lines []string) *types.Metadata {
	md := &types.Metadata{}
	var pitches pitchRange
	titles := 0

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		if !abcField.MatchString(line) {
			countABCNotes(md, &pitches, line)
			continue
		}

		value := strings.TrimSpace(stripComment(line[2:]))
		if value == "" {
			continue
		}
		switch line[0] {
		case 'T':
			switch titles {
			case 0:
				md.Title = value
			case 1:
				md.AlternativeTitle = value
			}
			titles++
		case 'C':
			if md.Composer == "" {
				md.Composer = value
			}
		case 'O':
			md.LocaleOfComposition = value
		case 'M':
			md.TimeSignatures = appendUnique(md.TimeSignatures, abcMeter(value))
		case 'Q':
			md.Tempos = appendUnique(md.Tempos, value)
		case 'K':
			md.KeySignatures = appendUnique(md.KeySignatures, abcKeyName(value))
		}
	}
	pitches.apply(md)
	return md
}

func stripComment(s string) string {
	if i := strings.IndexByte(s, '%'); i >= 0 {
		return s[:i]
	}
	return s
}

func abcMeter(v string) string {
	switch v {
	case "C":
		return "4/4"
	case "C|":
		return "2/2"
	case "none":
		return ""
	default:
		return v
	}
}

var abcModes = map[string]string{
	"":    "major",
	"maj": "major",
	"ion": "major",
	"m":   "minor",
	"min": "minor",
	"aeo": "minor",
	"dor": "dorian",
	"phr": "phrygian",
	"lyd": "lydian",
	"mix": "mixolydian",
	"loc": "locrian",
}

// abcKeyName turns a K: field such as "Ador" or "Bbm" into "A dorian" or
// "b- minor"
func abcKeyName(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	k := fields[0]
	if k[0] < 'A' || k[0] > 'G' {
		return ""
	}

	tonic := string(k[0])
	rest := k[1:]
	if rest != "" && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			tonic += "#"
		} else {
			tonic += "-"
		}
		rest = rest[1:]
	}
	if rest == "" && len(fields) > 1 {
		rest = fields[1]
	}

	rest = strings.ToLower(rest)
	if len(rest) > 3 {
		rest = rest[:3]
	}
	mode, ok := abcModes[rest]
	if !ok {
		mode = "major"
	}
	if mode == "minor" {
		tonic = strings.ToLower(tonic)
	}
	return tonic + " " + mode
}

// countABCNotes scans one body line for notes, skipping chord symbols,
// decorations, inline fields and comments
func countABCNotes(md *types.Metadata, pitches *pitchRange, line string) {
	alter := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '%':
			return
		case c == '"' || c == '!' || c == '+':
			if j := strings.IndexByte(line[i+1:], c); j >= 0 {
				i += j + 1
			}
		case c == '[' && i+2 < len(line) && line[i+2] == ':':
			if j := strings.IndexByte(line[i:], ']'); j >= 0 {
				i += j
			}
		case c == '^':
			alter++
		case c == '_':
			alter--
		case c == '=':
			alter = 0
		case c >= 'A' && c <= 'G', c >= 'a' && c <= 'g':
			octave := 4
			step := c
			if c >= 'a' {
				octave = 5
				step = c - 'a' + 'A'
			}
			for i+1 < len(line) && (line[i+1] == '\'' || line[i+1] == ',') {
				if line[i+1] == '\'' {
					octave++
				} else {
					octave--
				}
				i++
			}
			md.NoteCount++
			pitches.observe(step, alter, octave)
			alter = 0
		}
	}
}
