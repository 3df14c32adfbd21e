package tracker

import (
	"errors"
	"fmt"

	"github.com/dreamware/loctrack/internal/value"
)

// HistoryCapacity bounds the history; older entries are evicted first.
const HistoryCapacity = 1000

// ErrMalformedHistory is returned by DecodeHistory when the document parses
// but is not shaped like {"locations": [...]}.
var ErrMalformedHistory = errors.New("tracker: history document has no locations list")

// HistoryValue renders reports as {"locations": [...]}, oldest first.
func HistoryValue(reports []Report) value.Value {
	items := make([]value.Value, 0, len(reports))
	for _, r := range reports {
		items = append(items, r.Value())
	}
	return value.Mapping(map[string]value.Value{
		"locations": value.List(items...),
	})
}

// EncodeHistory renders the history document persisted by the state.
func EncodeHistory(reports []Report) []byte {
	return []byte(value.Render(HistoryValue(reports)))
}

// DecodeHistory parses a history document. Entries missing a required
// field are skipped rather than failing the whole document.
func DecodeHistory(doc []byte) ([]Report, error) {
	v, err := value.Parse(string(doc))
	if err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	locations, ok := v.Get("locations")
	if !ok {
		return nil, ErrMalformedHistory
	}
	items, ok := locations.AsList()
	if !ok {
		return nil, ErrMalformedHistory
	}

	reports := make([]Report, 0, len(items))
	for _, item := range items {
		if r, ok := ReportFromValue(item); ok {
			reports = append(reports, r)
		}
	}
	return reports, nil
}
