package signal

import "strings"

// Intent is the lead urgency class
type Intent string

// Intent classes in precedence order
const (
	IntentHot  Intent = "HOT"
	IntentWarm Intent = "WARM"
	IntentOK   Intent = "OK"
)

// ParseIntent accepts any case; unknown values map to OK
func ParseIntent(s string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(s))) {
	case IntentHot:
		return IntentHot
	case IntentWarm:
		return IntentWarm
	default:
		return IntentOK
	}
}

// Valid reports whether i is one of the known classes
func (i Intent) Valid() bool {
	return i == IntentHot || i == IntentWarm || i == IntentOK
}

// Rank orders intents, higher is more urgent
func (i Intent) Rank() int {
	switch i {
	case IntentHot:
		return 2
	case IntentWarm:
		return 1
	default:
		return 0
	}
}
