package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/scorecache/pkg/types"
)

type xmlScore struct {
	XMLName        xml.Name       `xml:"score-partwise"`
	WorkTitle      string         `xml:"work>work-title"`
	WorkNumber     string         `xml:"work>work-number"`
	MovementNumber string         `xml:"movement-number"`
	MovementTitle  string         `xml:"movement-title"`
	Creators       []xmlTyped     `xml:"identification>creator"`
	Miscellaneous  []xmlMiscField `xml:"identification>miscellaneous>miscellaneous-field"`
	Parts          []xmlPart      `xml:"part"`
}

type xmlTyped struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlMiscField struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlPart struct {
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Attributes []xmlAttributes `xml:"attributes"`
	Directions []xmlDirection  `xml:"direction"`
	Notes      []xmlNote       `xml:"note"`
}

type xmlAttributes struct {
	Divisions int       `xml:"divisions"`
	Keys      []xmlKey  `xml:"key"`
	Times     []xmlTime `xml:"time"`
}

type xmlKey struct {
	Fifths int    `xml:"fifths"`
	Mode   string `xml:"mode"`
}

type xmlTime struct {
	Symbol   string `xml:"symbol,attr"`
	Beats    string `xml:"beats"`
	BeatType string `xml:"beat-type"`
}

type xmlDirection struct {
	Words     []string      `xml:"direction-type>words"`
	Metronome *xmlMetronome `xml:"direction-type>metronome"`
}

type xmlMetronome struct {
	BeatUnit  string `xml:"beat-unit"`
	PerMinute string `xml:"per-minute"`
}

type xmlNote struct {
	Chord    *struct{} `xml:"chord"`
	Grace    *struct{} `xml:"grace"`
	Rest     *struct{} `xml:"rest"`
	Pitch    *xmlPitch `xml:"pitch"`
	Duration int       `xml:"duration"`
}

type xmlPitch struct {
	Step   string  `xml:"step"`
	Alter  float64 `xml:"alter"`
	Octave int     `xml:"octave"`
}

// parseMusicXML extracts header metadata from a partwise MusicXML document
func parseMusicXML(data []byte) (*types.Metadata, error) {
	var score xmlScore
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	if err := dec.Decode(&score); err != nil {
		return nil, fmt.Errorf("invalid MusicXML: %w", err)
	}

	md := &types.Metadata{
		Title:          strings.TrimSpace(score.WorkTitle),
		Number:         strings.TrimSpace(score.WorkNumber),
		MovementName:   strings.TrimSpace(score.MovementTitle),
		MovementNumber: strings.TrimSpace(score.MovementNumber),
	}
	if md.Title == "" {
		md.Title = md.MovementName
	}

	for _, c := range score.Creators {
		if strings.EqualFold(c.Type, "composer") && md.Composer == "" {
			md.Composer = strings.TrimSpace(c.Value)
		}
	}
	for _, f := range score.Miscellaneous {
		v := strings.TrimSpace(f.Value)
		switch strings.ToLower(f.Name) {
		case "date":
			md.Date = v
		case "opus", "opus-number":
			md.OpusNumber = v
		case "locale", "place":
			md.LocaleOfComposition = v
		}
	}

	var pitches pitchRange
	for i, part := range score.Parts {
		divisions := 1
		var elapsed float64
		for _, m := range part.Measures {
			for _, a := range m.Attributes {
				if a.Divisions > 0 {
					divisions = a.Divisions
				}
				for _, k := range a.Keys {
					md.KeySignatures = appendUnique(md.KeySignatures, keyName(k.Fifths, k.Mode))
				}
				for _, t := range a.Times {
					md.TimeSignatures = appendUnique(md.TimeSignatures, timeName(t))
				}
			}
			for _, d := range m.Directions {
				md.Tempos = appendUnique(md.Tempos, tempoName(d))
			}
			for _, n := range m.Notes {
				if i == 0 && n.Chord == nil && n.Grace == nil {
					elapsed += float64(n.Duration) / float64(divisions)
				}
				if n.Rest != nil || n.Pitch == nil || n.Pitch.Step == "" {
					continue
				}
				md.NoteCount++
				pitches.observe(strings.ToUpper(n.Pitch.Step)[0], int(n.Pitch.Alter), n.Pitch.Octave)
			}
		}
		if i == 0 {
			md.QuarterLength = elapsed
		}
	}
	pitches.apply(md)

	return md, nil
}

func timeName(t xmlTime) string {
	switch {
	case t.Beats != "" && t.BeatType != "":
		return t.Beats + "/" + t.BeatType
	case t.Symbol == "common":
		return "4/4"
	case t.Symbol == "cut":
		return "2/2"
	default:
		return ""
	}
}

func tempoName(d xmlDirection) string {
	if d.Metronome != nil && d.Metronome.PerMinute != "" {
		unit := d.Metronome.BeatUnit
		if unit == "" {
			unit = "quarter"
		}
		if _, err := strconv.ParseFloat(d.Metronome.PerMinute, 64); err == nil {
			return unit + "=" + d.Metronome.PerMinute
		}
	}
	for _, w := range d.Words {
		if w = strings.TrimSpace(w); isTempoWord(w) {
			return w
		}
	}
	return ""
}

var tempoWords = []string{
	"grave", "largo", "lento", "adagio", "andante", "moderato",
	"allegretto", "allegro", "vivace", "presto",
}

func isTempoWord(w string) bool {
	lw := strings.ToLower(w)
	for _, t := range tempoWords {
		if strings.HasPrefix(lw, t) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
