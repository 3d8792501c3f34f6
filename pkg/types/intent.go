package types

// Intent is the directional decision of a strategy before it is executed
type Intent int

const (
	IntentNone Intent = iota
	IntentLong
	IntentShort
)

func (i Intent) String() string {
	switch i {
	case IntentLong:
		return "long"
	case IntentShort:
		return "short"
	}
	return "none"
}

// Side maps the intent to the order side used to enter it
func (i Intent) Side() (SideType, bool) {
	switch i {
	case IntentLong:
		return SideTypeBuy, true
	case IntentShort:
		return SideTypeSell, true
	}
	return "", false
}
