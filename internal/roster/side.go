package roster

import (
	"fmt"
	"strings"
)

type Side string

const (
	SideLeft        Side = "left"
	SideRight       Side = "right"
	SideUnspecified Side = "unspecified"
)

// Sides lists the roster partitions in scan order.
var Sides = [2]Side{SideLeft, SideRight}

// ParseSide accepts the spellings used by the API and the registration
// form. An empty value is Unspecified.
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "l", "lefty", "lefties":
		return SideLeft, nil
	case "right", "r", "righty", "righties":
		return SideRight, nil
	case "", "unspecified", "na", "n/a", "either", "both", "none":
		return SideUnspecified, nil
	default:
		return SideUnspecified, fmt.Errorf("%w: %q", ErrInvalidSide, v)
	}
}

func (s Side) Valid() bool {
	return s == SideLeft || s == SideRight
}

func (s Side) Title() string {
	switch s {
	case SideLeft:
		return "Left"
	case SideRight:
		return "Right"
	default:
		return "Unspecified"
	}
}
