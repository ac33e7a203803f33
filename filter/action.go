package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Action is the verdict attached to a prefix.
//
// The numeric values are part of the C ABI: 0 means no match.
type Action uint8

const (
	// ActionNone means that no rule covers the address.
	ActionNone Action = 0
	// ActionDeny blacklists the prefix.
	ActionDeny Action = 1
	// ActionAllow whitelists the prefix.
	ActionAllow Action = 2
)

var actionNames = map[string]Action{
	"none":      ActionNone,
	"deny":      ActionDeny,
	"blacklist": ActionDeny,
	"allow":     ActionAllow,
	"whitelist": ActionAllow,
}

func (m Action) String() string {
	switch m {
	case ActionNone:
		return "none"
	case ActionDeny:
		return "deny"
	case ActionAllow:
		return "allow"
	default:
		return strconv.Itoa(int(m))
	}
}

// ParseAction parses an action by name or by its numeric code.
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if action, ok := actionNames[s]; ok {
		return action, nil
	}

	code, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return ActionNone, fmt.Errorf("unknown action %q", s)
	}

	return Action(code), nil
}

func (m Action) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Action) UnmarshalText(text []byte) error {
	action, err := ParseAction(string(text))
	if err != nil {
		return err
	}

	*m = action
	return nil
}
