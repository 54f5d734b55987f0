package core

import (
	"context"
	"fmt"
	"time"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/logging"
	"github.com/willbda/happy-to-have-lived-sub002/internal/metrics"
)

// Confirm commits every record marked ShouldImport, in the order given, one
// atomic creation per record. A failed creation is reported in the result
// and does not stop the remaining records.
//
// Cancellation is observed between records only: a record being written is
// always finished. Records not reached count as skipped, Cancelled is set
// and ctx.Err() is returned together with the complete result.
func (s *Service) Confirm(ctx context.Context, records []ImportRecord[domain.Record]) (ImportResult, error) {
	start := time.Now()
	result := ImportResult{
		Kind:         batchKind(records),
		TotalRecords: len(records),
		Failed:       []FailedRecord{},
	}
	log := logging.WithFields(ctx, "kind", result.Kind, "rows", len(records))

	if err := s.limiter.Acquire(ctx); err != nil {
		result.Skipped = len(records)
		result.Cancelled = ctx.Err() != nil
		result.Duration = time.Since(start)
		log.Warn("confirm rejected", "error", err)
		return result, err
	}
	defer s.limiter.Release()
	metrics.ConfirmsInFlight.Inc()
	defer metrics.ConfirmsInFlight.Dec()

	// Writes run detached from cancellation so a record is never cut off
	// mid-creation; the loop checks ctx itself before each record.
	writeCtx := context.WithoutCancel(ctx)

	for i, ir := range records {
		if err := ctx.Err(); err != nil {
			result.Skipped += len(records) - i
			result.Cancelled = true
			break
		}
		if !ir.ShouldImport {
			result.Skipped++
			metrics.RecordsCommitted.WithLabelValues(string(ir.Record.RecordKind()), "skipped").Inc()
			continue
		}

		if err := s.commit(writeCtx, ir.Record); err != nil {
			result.Failed = append(result.Failed, FailedRecord{RowNumber: ir.RowNumber, Message: err.Error()})
			metrics.RecordsCommitted.WithLabelValues(string(ir.Record.RecordKind()), "failed").Inc()
			log.Warn("record import failed", "row", ir.RowNumber, "id", ir.Record.RecordID(), "error", err)
			continue
		}
		result.Imported++
		metrics.RecordsCommitted.WithLabelValues(string(ir.Record.RecordKind()), "imported").Inc()
	}

	result.Duration = time.Since(start)
	metrics.ConfirmDuration.WithLabelValues(string(result.Kind)).Observe(result.Duration.Seconds())

	attrs := []any{
		"imported", result.Imported,
		"skipped", result.Skipped,
		"failed", len(result.Failed),
		"duration_ms", result.Duration.Milliseconds(),
	}
	if origin, ok := OriginFromContext(ctx); ok {
		attrs = append(attrs, "source", origin.Source, "remote_addr", origin.RemoteAddr)
	}

	if result.Cancelled {
		log.Warn("confirm cancelled", attrs...)
		return result, ctx.Err()
	}
	log.Info("confirm complete", attrs...)
	return result, nil
}

// commit is the transform-then-create step for one record.
func (s *Service) commit(ctx context.Context, rec domain.Record) error {
	def, err := lookup(rec.RecordKind())
	if err != nil {
		return err
	}
	req, err := def.Transform(rec)
	if err != nil {
		return fmt.Errorf("transform %s %s: %w", def.Info.Kind, rec.RecordID(), err)
	}
	return def.Create(ctx, s.store, req)
}

func batchKind(records []ImportRecord[domain.Record]) domain.Kind {
	if len(records) == 0 {
		return ""
	}
	return records[0].Record.RecordKind()
}
