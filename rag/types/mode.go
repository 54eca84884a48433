package types

import "fmt"

// Mode selects the retrieval strategy for a query.
type Mode string

const (
	// ModeKeyword ranks with the BM25 keyword index only.
	ModeKeyword Mode = "keyword"
	// ModeSemantic ranks with the semantic adapter only.
	ModeSemantic Mode = "semantic"
	// ModeHybrid runs both rankers and fuses their lists.
	ModeHybrid Mode = "hybrid"
)

// ParseMode maps a request string to a Mode. The empty string defaults to
// hybrid.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeKeyword, ModeSemantic, ModeHybrid:
		return Mode(s), nil
	case "":
		return ModeHybrid, nil
	}
	return "", fmt.Errorf("unknown query mode %q", s)
}
