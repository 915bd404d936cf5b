package models

import "unicode/utf8"

// PlaceholderThumbnail is shown for cases that have no clue image.
const PlaceholderThumbnail = "https://via.placeholder.com/400x140?text=No+Image"

// summaryLength is the number of runes of the background shown in case listings.
const summaryLength = 80

// Case is the root record of a mystery. Every other record belongs to exactly one case.
type Case struct {
	ID         int64  `db:"id"         json:"id"`
	Title      string `db:"title"      json:"title"`
	Background string `db:"background" json:"background"`
	Time       string `db:"time"       json:"time"`
}

type Clue struct {
	ID          int64  `db:"id"          json:"id"`
	CaseID      int64  `db:"case_id"     json:"case_id"`
	Img         string `db:"img"         json:"img"`
	Title       string `db:"title"       json:"title"`
	Description string `db:"description" json:"desc"`
}

type Suspect struct {
	ID       int64  `db:"id"       json:"id"`
	CaseID   int64  `db:"case_id"  json:"case_id"`
	Img      string `db:"img"      json:"img"`
	Name     string `db:"name"     json:"name"`
	Age      int    `db:"age"      json:"age"`
	Relation string `db:"relation" json:"relation"`
	Alibi    string `db:"alibi"    json:"alibi"`
	Notes    string `db:"notes"    json:"notes"`
	Motive   string `db:"motive"   json:"motive"`
}

type TimelineEntry struct {
	ID     int64  `db:"id"      json:"id"`
	CaseID int64  `db:"case_id" json:"case_id"`
	Event  string `db:"event"   json:"event"`
}

// Solution names the culprit of a case.
type Solution struct {
	CaseID  int64  `db:"case_id" json:"case_id"`
	Culprit string `db:"culprit" json:"culprit"`
}

// CaseDetail is a case with all of its children ordered by insertion.
type CaseDetail struct {
	Case
	Clues    []Clue          `json:"clues"`
	Suspects []Suspect       `json:"suspects"`
	Timeline []TimelineEntry `json:"-"`
}

// Events returns the timeline as plain strings in insertion order.
func (d CaseDetail) Events() []string {
	events := make([]string, 0, len(d.Timeline))
	for _, entry := range d.Timeline {
		events = append(events, entry.Event)
	}
	return events
}

// CaseSummary is the listing view of a case.
type CaseSummary struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"desc"`
	Img         string `json:"img"`
}

// NewCaseSummary builds the listing view from a case and the image of its first clue.
func NewCaseSummary(c Case, firstClueImg string) CaseSummary {
	img := firstClueImg
	if img == "" {
		img = PlaceholderThumbnail
	}
	return CaseSummary{
		ID:          c.ID,
		Title:       c.Title,
		Description: Truncate(c.Background, summaryLength),
		Img:         img,
	}
}

// Truncate shortens s to n runes and appends "..." only when something was cut.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
