package conflict

import (
	"sort"
	"strings"
)

// Difference is one field whose values disagree between backends.
type Difference struct {
	Field        string `json:"field"`
	AdapterValue string `json:"adapterValue"`
	LegacyValue  string `json:"legacyValue"`
}

type Comparison struct {
	HasDifferences bool         `json:"hasDifferences"`
	Differences    []Difference `json:"differences"`
}

// CompareData compares two normalized field maps. Only fields non-empty on
// at least one side are considered; differences are sorted by field.
func CompareData(adapter, legacy map[string]string) Comparison {
	fields := make(map[string]struct{}, len(adapter)+len(legacy))
	for k, v := range adapter {
		if strings.TrimSpace(v) != "" {
			fields[k] = struct{}{}
		}
	}
	for k, v := range legacy {
		if strings.TrimSpace(v) != "" {
			fields[k] = struct{}{}
		}
	}
	cmp := Comparison{Differences: []Difference{}}
	for f := range fields {
		a, l := strings.TrimSpace(adapter[f]), strings.TrimSpace(legacy[f])
		if a != l {
			cmp.Differences = append(cmp.Differences, Difference{Field: f, AdapterValue: a, LegacyValue: l})
		}
	}
	sort.Slice(cmp.Differences, func(i, j int) bool { return cmp.Differences[i].Field < cmp.Differences[j].Field })
	cmp.HasDifferences = len(cmp.Differences) > 0
	return cmp
}
