package state

import (
	"errors"
	"strings"

	"github.com/five82/atlas/internal/notify"
)

var (
	// ErrUnknownRegion is returned for a region outside Regions.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrInvalidCode is returned for an identifier that is not a cca3 code.
	ErrInvalidCode = errors.New("invalid country code")
)

// Regions lists the selectable regions in display order.
var Regions = []string{"Africa", "Americas", "Asia", "Europe", "Oceania"}

// ValidRegion reports whether region is empty or one of Regions. The
// comparison is exact.
func ValidRegion(region string) bool {
	if region == "" {
		return true
	}
	for _, r := range Regions {
		if r == region {
			return true
		}
	}
	return false
}

// NextRegion cycles through "", Regions[0], ..., Regions[n-1], "".
func NextRegion(current string) string {
	for i, r := range Regions {
		if r == current {
			if i+1 < len(Regions) {
				return Regions[i+1]
			}
			return ""
		}
	}
	return Regions[0]
}

// NormalizeCode trims and upper-cases id and checks it is three ASCII letters.
func NormalizeCode(id string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(id))
	if len(code) != 3 {
		return "", ErrInvalidCode
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return "", ErrInvalidCode
		}
	}
	return code, nil
}

// Publisher announces a local mutation. *notify.Notifier implements it.
type Publisher interface {
	Publish(ch notify.Channel)
}

func publish(p Publisher, ch notify.Channel) {
	if p != nil {
		p.Publish(ch)
	}
}
