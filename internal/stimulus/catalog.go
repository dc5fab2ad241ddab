// Package stimulus defines the word stimuli and their congruency groupings.
package stimulus

import (
	"fmt"
	"strings"
)

// Label is the word shown on screen.
type Label int

// Side is the horizontal position of the word.
type Side int

const (
	LabelLeft Label = iota
	LabelRight
)

const (
	SideLeft Side = iota
	SideRight
)

// String returns the displayed word.
func (l Label) String() string {
	if l == LabelRight {
		return "RIGHT"
	}
	return "LEFT"
}

func (s Side) String() string {
	if s == SideRight {
		return "right"
	}
	return "left"
}

// Variant is one of the four label/side combinations.
type Variant struct {
	Label Label
	Side  Side
}

// The four stimulus variants, named by label then side.
var (
	LL = Variant{Label: LabelLeft, Side: SideLeft}
	LR = Variant{Label: LabelLeft, Side: SideRight}
	RR = Variant{Label: LabelRight, Side: SideRight}
	RL = Variant{Label: LabelRight, Side: SideLeft}
)

// Variants lists every variant in catalog order.
var Variants = []Variant{LL, LR, RR, RL}

// Congruent reports whether the word matches its screen side.
func (v Variant) Congruent() bool {
	return int(v.Label) == int(v.Side)
}

// String returns the two-letter code, e.g. "LR" for LEFT shown on the right.
func (v Variant) String() string {
	return v.Label.String()[:1] + strings.ToUpper(v.Side.String()[:1])
}

// ParseVariant parses a two-letter variant code.
func ParseVariant(code string) (Variant, error) {
	for _, v := range Variants {
		if strings.EqualFold(v.String(), code) {
			return v, nil
		}
	}
	return Variant{}, fmt.Errorf("unknown stimulus variant %q", code)
}

// CongruentSet returns the variants whose label equals their side.
func CongruentSet() []Variant {
	out := make([]Variant, 0, 2)
	for _, v := range Variants {
		if v.Congruent() {
			out = append(out, v)
		}
	}
	return out
}

// LabelGroups groups the variants by label, independent of side.
func LabelGroups() map[Label][]Variant {
	groups := map[Label][]Variant{}
	for _, v := range Variants {
		groups[v.Label] = append(groups[v.Label], v)
	}
	return groups
}

// Key names a keyboard key as reported by the input source ("z", "m", "escape").
type Key string

// NoKey marks a trial that timed out without a qualifying key press.
const NoKey Key = "no_key"

// KeyMap assigns one response key to each label.
type KeyMap struct {
	Left  Key
	Right Key
}

// DefaultKeyMap answers LEFT with z and RIGHT with m.
var DefaultKeyMap = KeyMap{Left: "z", Right: "m"}

// CorrectKey returns the expected response for a variant. Only the label matters.
func (k KeyMap) CorrectKey(v Variant) Key {
	if v.Label == LabelRight {
		return k.Right
	}
	return k.Left
}

// Keys returns the qualifying response keys.
func (k KeyMap) Keys() []Key {
	return []Key{k.Left, k.Right}
}

// Validate checks that both keys are set and distinct.
func (k KeyMap) Validate() error {
	if k.Left == "" || k.Right == "" {
		return fmt.Errorf("both response keys must be set")
	}
	if k.Left == k.Right {
		return fmt.Errorf("response keys must differ (both %q)", k.Left)
	}
	return nil
}
