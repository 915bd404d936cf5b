package ingest

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/myrjola/mysteries/internal/errors"
	"github.com/myrjola/mysteries/internal/models"
)

// CaseDraft is an unvalidated case payload as submitted by a client or produced by the generator.
type CaseDraft struct {
	Title      string         `json:"title"      yaml:"title"`
	Desc       string         `json:"desc"       yaml:"desc"`
	Img        string         `json:"img"        yaml:"img"`
	RealKiller string         `json:"realKiller" yaml:"realKiller"`
	Time       string         `json:"time"       yaml:"time"`
	Clues      []ClueDraft    `json:"clues"      yaml:"clues"`
	Timeline   []string       `json:"timeline"   yaml:"timeline"`
	Suspects   []SuspectDraft `json:"suspects"   yaml:"suspects"`
}

type ClueDraft struct {
	Title string `json:"title" yaml:"title"`
	Desc  string `json:"desc"  yaml:"desc"`
	Img   string `json:"img"   yaml:"img"`
}

type SuspectDraft struct {
	Name     string `json:"name"     yaml:"name"`
	Age      Age    `json:"age"      yaml:"age"`
	Relation string `json:"relation" yaml:"relation"`
	Motive   string `json:"motive"   yaml:"motive"`
	Alibi    string `json:"alibi"    yaml:"alibi"`
	Notes    string `json:"notes"    yaml:"notes"`
	Img      string `json:"img"      yaml:"img"`
}

// Validate requires every supplied suspect to be named.
func (s SuspectDraft) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required),
	)
}

// Age is a suspect age that decodes from a JSON number or a numeric string.
type Age int

var errInvalidAge = errors.NewSentinel("age must be a whole number")

func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return errors.Wrap(err, "decode age string")
		}
		raw = strings.TrimSpace(raw)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return errInvalidAge
	}
	*a = Age(f)
	return nil
}

// generatedSuspect keeps the age as written by the generator so that a loosely formatted age does not reject the
// whole case.
type generatedSuspect struct {
	SuspectDraft
	Age json.RawMessage `json:"age"`
}

// generatedDraft is the shape decoded from generator output.
type generatedDraft struct {
	CaseDraft
	Suspects []generatedSuspect `json:"suspects"`
}

// caseDraft reads every suspect age leniently. Ages that are not whole non-negative numbers are stored as unknown
// and the affected suspect names are returned.
func (g generatedDraft) caseDraft() (CaseDraft, []string) {
	var unreadable []string
	draft := g.CaseDraft
	draft.Suspects = make([]SuspectDraft, 0, len(g.Suspects))
	for _, s := range g.Suspects {
		suspect := s.SuspectDraft
		if len(s.Age) > 0 {
			if err := suspect.Age.UnmarshalJSON(s.Age); err != nil {
				suspect.Age = 0
				unreadable = append(unreadable, suspect.Name)
			}
		}
		draft.Suspects = append(draft.Suspects, suspect)
	}
	return draft, unreadable
}

// normalize trims surrounding whitespace from every string in the draft.
func (d *CaseDraft) normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Desc = strings.TrimSpace(d.Desc)
	d.Img = strings.TrimSpace(d.Img)
	d.RealKiller = strings.TrimSpace(d.RealKiller)
	d.Time = strings.TrimSpace(d.Time)
	for i := range d.Clues {
		c := &d.Clues[i]
		c.Title = strings.TrimSpace(c.Title)
		c.Desc = strings.TrimSpace(c.Desc)
		c.Img = strings.TrimSpace(c.Img)
	}
	for i := range d.Timeline {
		d.Timeline[i] = strings.TrimSpace(d.Timeline[i])
	}
	for i := range d.Suspects {
		s := &d.Suspects[i]
		s.Name = strings.TrimSpace(s.Name)
		s.Relation = strings.TrimSpace(s.Relation)
		s.Motive = strings.TrimSpace(s.Motive)
		s.Alibi = strings.TrimSpace(s.Alibi)
		s.Notes = strings.TrimSpace(s.Notes)
		s.Img = strings.TrimSpace(s.Img)
	}
}

// validateDirect checks a client submitted draft. Children are optional.
func (d CaseDraft) validateDirect() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Desc, validation.Required),
		validation.Field(&d.Img, validation.Required),
		validation.Field(&d.RealKiller, validation.Required),
		validation.Field(&d.Suspects),
	)
}

// validateGenerated checks a generated draft. A generated case must be complete.
func (d CaseDraft) validateGenerated() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required),
		validation.Field(&d.Desc, validation.Required),
		validation.Field(&d.Img, validation.Required),
		validation.Field(&d.Clues, validation.Required),
		validation.Field(&d.Timeline, validation.Required),
		validation.Field(&d.Suspects, validation.Required),
		validation.Field(&d.RealKiller, validation.Required),
	)
}

// culpritIsSuspect reports whether the culprit matches a suspect name ignoring case.
func (d CaseDraft) culpritIsSuspect() bool {
	for _, s := range d.Suspects {
		if strings.EqualFold(s.Name, d.RealKiller) {
			return true
		}
	}
	return false
}

func (c ClueDraft) model() models.Clue {
	return models.Clue{Img: c.Img, Title: c.Title, Description: c.Desc}
}

func (s SuspectDraft) model() models.Suspect {
	return models.Suspect{
		Img:      s.Img,
		Name:     s.Name,
		Age:      int(s.Age),
		Relation: s.Relation,
		Alibi:    s.Alibi,
		Notes:    s.Notes,
		Motive:   s.Motive,
	}
}
