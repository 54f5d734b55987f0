package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/logging"
	"github.com/willbda/happy-to-have-lived-sub002/internal/metrics"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
	"github.com/willbda/happy-to-have-lived-sub002/internal/tabular"
)

// exportStamp names export files; it sorts lexically by time.
const exportStamp = "20060102T150405Z"

// Export writes every stored record of kind to w and returns how many were
// written. The output decodes back through Preview to equal records.
func (s *Service) Export(ctx context.Context, kind domain.Kind, format Format, w io.Writer) (int, error) {
	def, err := lookup(kind)
	if err != nil {
		return 0, err
	}
	records, err := def.FetchAll(ctx, s.store)
	if err != nil {
		return 0, fmt.Errorf("fetch %s records: %w", kind, err)
	}

	switch format {
	case FormatCSV:
		err = encodeTabular(def, records, w)
	case FormatJSON:
		err = encodeStructured(def, records, w)
	default:
		err = fmt.Errorf("unsupported format: %q", format)
	}
	if err != nil {
		return 0, err
	}

	metrics.ExportsTotal.WithLabelValues(string(kind), string(format)).Inc()
	logging.FromContext(ctx).Info("export complete", "kind", kind, "format", format, "rows", len(records))
	return len(records), nil
}

// ExportFile exports kind into a new timestamped file in dir and returns
// its path. A failed export leaves no file behind.
func (s *Service) ExportFile(ctx context.Context, kind domain.Kind, format Format, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure export directory: %w", err)
	}
	name := fmt.Sprintf("%s-%s.%s", kind, s.now().UTC().Format(exportStamp), format)
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	if _, err := s.Export(ctx, kind, format, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// Template returns the header-only tabular file for kind.
func (s *Service) Template(kind domain.Kind) ([]byte, error) {
	def, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tabular.Encode(&buf, def.Info.Columns, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeTabular(def KindDefinition, records []domain.Record, w io.Writer) error {
	rows := make([][]string, len(records))
	for i, rec := range records {
		row, err := def.ToFields(rec)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", def.Info.Kind, rec.RecordID(), err)
		}
		rows[i] = row
	}
	return tabular.Encode(w, def.Info.Columns, rows)
}

func encodeStructured(def KindDefinition, records []domain.Record, w io.Writer) error {
	objects := make([]*structured.Object, len(records))
	for i, rec := range records {
		obj, err := def.ToObject(rec)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", def.Info.Kind, rec.RecordID(), err)
		}
		objects[i] = obj
	}
	return structured.Encode(w, objects)
}
