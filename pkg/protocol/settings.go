package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// TableSettings is the decoded form of a settings block: the line-oriented
// key:value grammar used by ADDTABLE and by the table listing/join
// responses. Unknown keys are ignored; missing keys take the defaults
// below.
type TableSettings struct {
	MaxPlayers  uint8
	NumberDecks uint8
	PayoffHigh  uint16
	PayoffLow   uint16
	BetMin      uint32
	BetMax      uint32
	HitSoft17   bool
}

// DefaultTableSettings returns the settings-block defaults named in spec
// section 4.1: max-players 5, number-decks 8, payoff 3-2, bet-limits
// 25-1000, hit-soft-17 true.
func DefaultTableSettings() TableSettings {
	return TableSettings{
		MaxPlayers:  5,
		NumberDecks: 8,
		PayoffHigh:  3,
		PayoffLow:   2,
		BetMin:      25,
		BetMax:      1000,
		HitSoft17:   true,
	}
}

// ParseTableSettings parses a key:value\n...\n block, starting from
// defaults and overriding recognized keys. Malformed lines and unknown
// keys are ignored rather than rejected, matching spec section 4.1.
func ParseTableSettings(block string) TableSettings {
	s := DefaultTableSettings()
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "max-players":
			if v, err := strconv.ParseUint(val, 10, 8); err == nil {
				s.MaxPlayers = uint8(v)
			}
		case "number-decks":
			if v, err := strconv.ParseUint(val, 10, 8); err == nil {
				s.NumberDecks = uint8(v)
			}
		case "payoff":
			if h, l, ok := strings.Cut(val, "-"); ok {
				hv, errH := strconv.ParseUint(h, 10, 16)
				lv, errL := strconv.ParseUint(l, 10, 16)
				if errH == nil && errL == nil {
					s.PayoffHigh, s.PayoffLow = uint16(hv), uint16(lv)
				}
			}
		case "bet-limits":
			if lo, hi, ok := strings.Cut(val, "-"); ok {
				lov, errLo := strconv.ParseUint(lo, 10, 32)
				hiv, errHi := strconv.ParseUint(hi, 10, 32)
				if errLo == nil && errHi == nil {
					s.BetMin, s.BetMax = uint32(lov), uint32(hiv)
				}
			}
		case "hit-soft-17":
			s.HitSoft17 = val == "true"
		}
	}
	return s
}

// Encode renders the settings block in key:value\n form, without the
// trailing blank-line terminator (callers append that via writeBlock).
func (s TableSettings) Encode() string {
	var b strings.Builder
	fmt.Fprintf(&b, "max-players:%d\n", s.MaxPlayers)
	fmt.Fprintf(&b, "number-decks:%d\n", s.NumberDecks)
	fmt.Fprintf(&b, "payoff:%d-%d\n", s.PayoffHigh, s.PayoffLow)
	fmt.Fprintf(&b, "bet-limits:%d-%d\n", s.BetMin, s.BetMax)
	fmt.Fprintf(&b, "hit-soft-17:%t\n", s.HitSoft17)
	return b.String()
}

// Validate reports whether the settings satisfy the invariants in spec
// section 3: max_players >= 1, number_decks >= 1, payoff ratio positive,
// bet_min <= bet_max.
func (s TableSettings) Validate() error {
	if s.MaxPlayers < 1 {
		return fmt.Errorf("max-players must be at least 1")
	}
	if s.NumberDecks < 1 {
		return fmt.Errorf("number-decks must be at least 1")
	}
	if s.PayoffHigh == 0 || s.PayoffLow == 0 {
		return fmt.Errorf("payoff ratio must be positive")
	}
	if s.BetMin > s.BetMax {
		return fmt.Errorf("bet-limits: min must not exceed max")
	}
	return nil
}
