// Package diff compares a submitted snapshot with the live profile and
// classifies each change as significant or minor.
package diff

import (
	"sort"
	"strings"

	"travelkeep/internal/profile/models"
	id "travelkeep/pkg/domain"
	strutil "travelkeep/pkg/platform/strings"
)

// Fields whose change invalidates a submission.
var significantFields = map[string]bool{
	"passportNumber":        true,
	"fullName":              true,
	"nationality":           true,
	"dateOfBirth":           true,
	"arrivalDate":           true,
	"arrivalFlightNumber":   true,
	"departureFlightNumber": true,
}

// Field names used for fund item changes.
const (
	FieldFundItems      = "fundItems"
	FieldFundItemAmount = "fundItems.amount"
)

// IsSignificant reports whether a change to field requires resubmission.
func IsSignificant(field string) bool { return significantFields[field] }

type Diff struct {
	Changes     []models.FieldChange `json:"changes"`
	Significant bool                 `json:"significant"`
}

// RequiresImmediateResubmission is true iff a significant field changed.
func (d Diff) RequiresImmediateResubmission() bool { return d.Significant }

// HasChanges reports whether anything changed at all.
func (d Diff) HasChanges() bool { return len(d.Changes) > 0 }

// ChangedFields lists distinct changed field names in first-seen order.
func (d Diff) ChangedFields() []string {
	names := make([]string, 0, len(d.Changes))
	for _, c := range d.Changes {
		names = append(names, c.Field)
	}
	return strutil.DedupeAndTrim(names)
}

// SignificantFields lists distinct significant field names.
func (d Diff) SignificantFields() []string {
	var names []string
	for _, c := range d.Changes {
		if c.Significant {
			names = append(names, c.Field)
		}
	}
	return strutil.DedupeAndTrim(names)
}

// CalculateDiff compares snapshot data against the current view of the
// same entry pack.
func CalculateDiff(snapshot, current models.SnapshotData) Diff {
	var changes []models.FieldChange
	for _, section := range []string{models.SectionPassport, models.SectionPersonalInfo, models.SectionTravelInfo} {
		changes = append(changes, compareSection(section, snapshot.Section(section), current.Section(section))...)
	}
	changes = append(changes, compareFunds(snapshot.FundItems, current.FundItems)...)

	d := Diff{Changes: changes}
	if d.Changes == nil {
		d.Changes = []models.FieldChange{}
	}
	for _, c := range d.Changes {
		if c.Significant {
			d.Significant = true
			break
		}
	}
	return d
}

func compareSection(section string, before, after map[string]string) []models.FieldChange {
	keys := make(map[string]struct{}, len(before)+len(after))
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}
	fields := make([]string, 0, len(keys))
	for k := range keys {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	var out []models.FieldChange
	for _, f := range fields {
		old, cur := normalize(before[f]), normalize(after[f])
		if old == cur {
			continue
		}
		out = append(out, models.FieldChange{
			Section:     section,
			Field:       f,
			Old:         old,
			New:         cur,
			Significant: IsSignificant(f),
		})
	}
	return out
}

func compareFunds(before, after []models.FundItemSummary) []models.FieldChange {
	old := indexFunds(before)
	cur := indexFunds(after)

	var out []models.FieldChange
	for _, f := range before {
		if _, ok := cur[f.ID]; !ok {
			out = append(out, models.FieldChange{Section: models.SectionFundItems, Field: FieldFundItems, Old: f.ID.String()})
		}
	}
	for _, f := range after {
		prev, ok := old[f.ID]
		if !ok {
			out = append(out, models.FieldChange{Section: models.SectionFundItems, Field: FieldFundItems, New: f.ID.String()})
			continue
		}
		if models.NormalizeAmount(prev.Amount) != models.NormalizeAmount(f.Amount) {
			out = append(out, models.FieldChange{
				Section: models.SectionFundItems,
				Field:   FieldFundItemAmount,
				Old:     strings.TrimSpace(prev.Amount),
				New:     strings.TrimSpace(f.Amount),
			})
		}
	}
	return out
}

func indexFunds(items []models.FundItemSummary) map[id.EntityID]models.FundItemSummary {
	m := make(map[id.EntityID]models.FundItemSummary, len(items))
	for _, f := range items {
		m[f.ID] = f
	}
	return m
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "null" {
		return ""
	}
	return v
}
