package engine

// Status is the outcome of one search attempt. Every non-zero value is a
// normal negative outcome; callers retry with a fresh seed.
type Status int

const (
	Success Status = iota
	BadSeed
	BadSearchSpace
	TooManySites
	TooFewSites
	TooSimilar
)

func (s Status) String() string {
	switch s {
	case Success:
		return "SUCCESS"
	case BadSeed:
		return "BAD_SEED"
	case BadSearchSpace:
		return "BAD_SEARCH_SPACE"
	case TooManySites:
		return "TOO_MANY_SITES"
	case TooFewSites:
		return "TOO_FEW_SITES"
	case TooSimilar:
		return "TOO_SIMILAR"
	}
	return "UNKNOWN"
}
