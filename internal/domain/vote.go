package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
)

// Vote is one participant's current estimate. Votes are keyed by Name
// inside a poll and are never addressed on their own.
type Vote struct {
	Name   string
	Value  float64
	Avatar *Avatar
}

// Avatar is either an index into the client's doodle set or a literal
// string such as an emoji. The zero Avatar means "no avatar".
type Avatar struct {
	index *int
	label string
}

func AvatarIndex(i int) *Avatar {
	return &Avatar{index: &i}
}

func AvatarLabel(label string) *Avatar {
	return &Avatar{label: label}
}

func (a *Avatar) Index() (int, bool) {
	if a == nil || a.index == nil {
		return 0, false
	}
	return *a.index, true
}

func (a *Avatar) Label() string {
	if a == nil {
		return ""
	}
	return a.label
}

func (a *Avatar) IsZero() bool {
	return a == nil || (a.index == nil && a.label == "")
}

func (a *Avatar) clone() *Avatar {
	if a == nil {
		return nil
	}
	c := &Avatar{label: a.label}
	if a.index != nil {
		i := *a.index
		c.index = &i
	}
	return c
}

func (a Avatar) MarshalJSON() ([]byte, error) {
	if a.index != nil {
		return json.Marshal(*a.index)
	}
	if a.label == "" {
		return []byte("null"), nil
	}
	return json.Marshal(a.label)
}

func (a *Avatar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Avatar{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		*a = Avatar{label: label}
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("avatar must be an integer index or a string")
	}
	if n != math.Trunc(n) || n < 0 {
		return errors.New("avatar index must be a non-negative integer")
	}
	i := int(n)
	*a = Avatar{index: &i}
	return nil
}
