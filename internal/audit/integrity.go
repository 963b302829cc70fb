package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"travelkeep/internal/profile/models"
	"travelkeep/internal/profile/store"
	id "travelkeep/pkg/domain"
	dErrors "travelkeep/pkg/domain-errors"
)

// VerifyIntegrity cross-checks both targets for a snapshot. Violations are
// reported in the result, never as an error.
func (s *Service) VerifyIntegrity(ctx context.Context, snapshotID id.SnapshotID) (IntegrityReport, error) {
	var adapterEvents, fileEvents []models.AuditEvent
	if s.sink != nil {
		evs, err := s.sink.AuditEventsBySnapshot(ctx, snapshotID, store.AuditQuery{})
		if err != nil {
			return IntegrityReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit events")
		}
		adapterEvents = evs
	}
	if s.blobs != nil {
		evs, err := s.scanTree(ctx, snapshotID)
		if err != nil {
			return IntegrityReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit files")
		}
		fileEvents = evs
	}

	report := IntegrityReport{
		SnapshotID:    snapshotID,
		AdapterEvents: len(adapterEvents),
		FileEvents:    len(fileEvents),
		Issues:        []Issue{},
		CheckedAt:     s.now().UTC(),
	}
	if s.sink != nil && s.blobs != nil && len(adapterEvents) != len(fileEvents) {
		report.Issues = append(report.Issues, Issue{
			Kind:   IssueCountMismatch,
			Detail: fmt.Sprintf("adapter holds %d events, file tree holds %d", len(adapterEvents), len(fileEvents)),
		})
	}

	all := append(append([]models.AuditEvent{}, adapterEvents...), fileEvents...)
	byID := make(map[id.EventID][]byte)
	var order []id.EventID
	flagged := make(map[id.EventID]bool)
	for _, e := range all {
		canon, err := json.Marshal(e)
		if err != nil {
			return IntegrityReport{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode audit event")
		}
		prev, seen := byID[e.ID]
		if !seen {
			byID[e.ID] = canon
			order = append(order, e.ID)
			if !e.Immutable || e.Version != models.AuditEventVersion {
				report.Issues = append(report.Issues, Issue{
					Kind:    IssueMissingMarkers,
					EventID: e.ID,
					Detail:  fmt.Sprintf("immutable=%t version=%d", e.Immutable, e.Version),
				})
			}
			continue
		}
		if !bytes.Equal(prev, canon) && !flagged[e.ID] {
			flagged[e.ID] = true
			report.Issues = append(report.Issues, Issue{
				Kind:    IssueContentMismatch,
				EventID: e.ID,
				Detail:  "copies of the event differ",
			})
		}
	}
	sort.SliceStable(report.Issues, func(i, j int) bool { return report.Issues[i].Kind < report.Issues[j].Kind })

	report.TotalEvents = len(order)
	report.Intact = len(report.Issues) == 0
	if !report.Intact {
		s.logger.WarnContext(ctx, "audit integrity violations found", "snapshot_id", snapshotID, "issues", len(report.Issues))
	}
	return report, nil
}
