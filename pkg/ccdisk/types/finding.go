package types

// Risk is the severity of a finding.
type Risk string

// Risk levels, most severe first.
const (
	RiskCritical Risk = "critical"
	RiskHigh     Risk = "high"
	RiskMedium   Risk = "medium"
	RiskLow      Risk = "low"
	RiskInfo     Risk = "info"
)

// Rank returns the sort position of the risk level; lower is more severe.
// Unknown levels sort after info.
func (r Risk) Rank() int {
	switch r {
	case RiskCritical:
		return 0
	case RiskHigh:
		return 1
	case RiskMedium:
		return 2
	case RiskLow:
		return 3
	case RiskInfo:
		return 4
	default:
		return 5
	}
}

// Evidence is a key/value pair justifying a finding. Values are limited to
// strings, integers, booleans and string lists; use the constructors below.
// Evidence never carries file content.
type Evidence struct {
	Key   string `json:"key" yaml:"key"`
	Value any    `json:"value" yaml:"value"`
}

// StringEvidence returns evidence with a string value.
func StringEvidence(key, value string) Evidence {
	return Evidence{Key: key, Value: value}
}

// IntEvidence returns evidence with an integer value.
func IntEvidence(key string, value int64) Evidence {
	return Evidence{Key: key, Value: value}
}

// BoolEvidence returns evidence with a boolean value.
func BoolEvidence(key string, value bool) Evidence {
	return Evidence{Key: key, Value: value}
}

// ListEvidence returns evidence with an ordered list of strings.
// The slice is copied.
func ListEvidence(key string, values []string) Evidence {
	cp := make([]string, len(values))
	copy(cp, values)
	return Evidence{Key: key, Value: cp}
}

// SizeEvidence returns the conventional size_bytes and size_human pair.
func SizeEvidence(size int64) []Evidence {
	return []Evidence{
		IntEvidence("size_bytes", size),
		StringEvidence("size_human", FormatSize(size)),
	}
}

// Finding is a detected condition. Each finding is produced by exactly one
// detector per scan.
type Finding struct {
	ID                 string     `json:"id" yaml:"id"`
	Title              string     `json:"title" yaml:"title"`
	Risk               Risk       `json:"risk" yaml:"risk"`
	Evidence           []Evidence `json:"evidence" yaml:"evidence"`
	WhyItMatters       string     `json:"why_it_matters" yaml:"why_it_matters"`
	RecommendedActions []ActionID `json:"recommended_actions" yaml:"recommended_actions"`
	References         []string   `json:"references" yaml:"references"`
}
