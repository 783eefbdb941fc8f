// Package script parses a delimited narration script into speakable units.
//
// A structured script has the shape
//
//	opening statement
//	===
//	<item> first news item
//	<item> second news item
//	===
//	closing statement
//
// where "===" and "<item>" are configurable. Text without the section
// delimiter is treated as one opaque unit.
package script

import (
	"errors"
	"fmt"
	"strings"
)

// Labels attached to the units of a structured script. Items are labeled
// with ItemLabel.
const (
	LabelOpening = "opening"
	LabelClosing = "closing"
	LabelFull    = "full"
)

// ErrMalformedScript reports a script whose delimiter structure does not
// split into opening/items/closing. Malformed scripts are rejected rather
// than guessed at; silently dropping narration text is never acceptable.
var ErrMalformedScript = errors.New("malformed script")

// Unit is one speakable piece of a script.
type Unit struct {
	Label string
	Text  string
}

// ItemLabel returns the label of the n-th news item, starting at zero.
func ItemLabel(n int) string {
	return fmt.Sprintf("item_%d", n)
}

// Segment splits a script into its ordered speakable units.
//
// When the section delimiter is present the script must split into exactly
// three parts (opening, items block, closing); anything else fails with
// ErrMalformedScript. The items block splits on the item delimiter, with
// empty items discarded and order preserved. When the section delimiter is
// absent the whole trimmed script becomes a single "full" unit.
func Segment(text, sectionDelim, itemDelim string) ([]Unit, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: script is empty", ErrMalformedScript)
	}
	if sectionDelim == "" || !strings.Contains(text, sectionDelim) {
		return []Unit{{Label: LabelFull, Text: strings.TrimSpace(text)}}, nil
	}

	parts := strings.Split(text, sectionDelim)
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected opening/items/closing separated by %q, got %d sections",
			ErrMalformedScript, sectionDelim, len(parts))
	}

	units := []Unit{{Label: LabelOpening, Text: strings.TrimSpace(parts[0])}}
	for _, item := range splitItems(parts[1], itemDelim) {
		units = append(units, Unit{Label: ItemLabel(len(units) - 1), Text: item})
	}
	units = append(units, Unit{Label: LabelClosing, Text: strings.TrimSpace(parts[2])})
	return units, nil
}

func splitItems(block, itemDelim string) []string {
	if itemDelim == "" {
		if item := strings.TrimSpace(block); item != "" {
			return []string{item}
		}
		return nil
	}
	var items []string
	for _, raw := range strings.Split(block, itemDelim) {
		if item := strings.TrimSpace(raw); item != "" {
			items = append(items, item)
		}
	}
	return items
}
