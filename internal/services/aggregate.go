package services

import (
	"strings"

	"github.com/ItaiMaoz/wnwd/internal/domain"
)

// attachErrorSummaries joins, per record, the messages of all errors
// keyed by that record's container number or shipment id and stores the
// "; "-joined result on the record. Records with no matching errors are
// left untouched so the field stays absent. No deduplication and no
// referential validation: consumers correlate records and errors by key
// themselves.
func attachErrorSummaries(records []domain.AnalysisRecord, errs []domain.AnalysisError) {
	if len(records) == 0 || len(errs) == 0 {
		return
	}

	byKey := make(map[string][]string, len(errs))
	for _, e := range errs {
		byKey[e.ContainerNumber] = append(byKey[e.ContainerNumber], e.Message)
	}

	for i := range records {
		var msgs []string
		if records[i].ContainerNumber != "" {
			msgs = append(msgs, byKey[records[i].ContainerNumber]...)
		}
		msgs = append(msgs, byKey[records[i].ShipmentID]...)

		if len(msgs) > 0 {
			records[i].Error = strings.Join(msgs, "; ")
		}
	}
}
