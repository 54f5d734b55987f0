package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/logging"
	"github.com/willbda/happy-to-have-lived-sub002/internal/metrics"
	"github.com/willbda/happy-to-have-lived-sub002/internal/similarity"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/structured"
	"github.com/willbda/happy-to-have-lived-sub002/internal/tabular"
)

var (
	// ErrUnknownKind is returned for a kind with no registered definition.
	ErrUnknownKind = domain.ErrUnknownKind

	// ErrFileTooLarge is returned when a source exceeds Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")
)

// DefaultMaxFileSize bounds import sources when no limit is configured.
const DefaultMaxFileSize = 10 << 20

// maxMappingErrors caps how many row errors a failed preview reports.
const maxMappingErrors = 20

// Storage is the store access the service needs.
type Storage interface {
	store.Reader
	store.Writer
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Finder              similarity.Finder // nil disables semantic duplicate detection
	SimilarityThreshold float64
	MaxFileSize         int64
	PreviewTTL          time.Duration
	MaxConcurrent       int
	MaxWait             time.Duration
}

// Service runs previews, confirms and exports over one store.
type Service struct {
	store     Storage
	validator *Validator
	limiter   *ImportLimiter
	opts      Options
	now       func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*PreviewSession
}

// NewService creates a new Service instance.
func NewService(st Storage, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.PreviewTTL <= 0 {
		opts.PreviewTTL = DefaultPreviewTTL
	}
	return &Service{
		store:     st,
		validator: NewValidator(st, opts.Finder, opts.SimilarityThreshold),
		limiter:   NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:      opts,
		now:       time.Now,
		sessions:  make(map[uuid.UUID]*PreviewSession),
	}
}

// Kinds returns information about all registered kinds.
func (s *Service) Kinds() []KindInfo {
	defs := All()
	infos := make([]KindInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Limiter exposes the confirm limiter for status reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter { return s.limiter }

type previewConfig struct {
	semantic bool
}

// PreviewOption adjusts one preview call.
type PreviewOption func(*previewConfig)

// SkipSemantic disables the similarity check for one preview.
func SkipSemantic() PreviewOption {
	return func(c *previewConfig) { c.semantic = false }
}

// Preview decodes, maps and classifies src without writing anything.
// Any format or mapping error fails the whole call.
func (s *Service) Preview(ctx context.Context, kind domain.Kind, format Format, src io.Reader, opts ...PreviewOption) ([]ImportRecord[domain.Record], error) {
	cfg := previewConfig{semantic: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	records, err := s.preview(ctx, kind, format, src, cfg)
	if err != nil {
		metrics.PreviewsTotal.WithLabelValues(string(kind), string(format), "error").Inc()
		logging.FromContext(ctx).Warn("preview failed", "kind", kind, "format", format, "error", err)
		return nil, err
	}

	counts := make(map[StatusType]int)
	for _, r := range records {
		counts[r.Status.Type]++
	}
	for status, n := range counts {
		metrics.RecordsClassified.WithLabelValues(string(kind), string(status)).Add(float64(n))
	}
	metrics.PreviewsTotal.WithLabelValues(string(kind), string(format), "ok").Inc()
	logging.FromContext(ctx).Info("preview complete",
		"kind", kind,
		"format", format,
		"rows", len(records),
		"valid", counts[StatusValid],
		"duplicate_id", counts[StatusDuplicateID],
		"semantic_duplicate", counts[StatusSemanticDuplicate],
		"validation_error", counts[StatusValidationError],
		"foreign_key_missing", counts[StatusForeignKeyMissing],
	)
	return records, nil
}

func (s *Service) preview(ctx context.Context, kind domain.Kind, format Format, src io.Reader, cfg previewConfig) ([]ImportRecord[domain.Record], error) {
	def, err := lookup(kind)
	if err != nil {
		return nil, err
	}
	data, err := readSource(src, s.opts.MaxFileSize)
	if err != nil {
		return nil, err
	}

	var mapped []sourceRecord
	switch format {
	case FormatCSV:
		mapped, err = mapTabular(def, data)
	case FormatJSON:
		mapped, err = mapStructured(def, data)
	default:
		err = fmt.Errorf("unsupported format: %q", format)
	}
	if err != nil {
		return nil, err
	}

	return s.validator.Classify(ctx, def, mapped, cfg.semantic)
}

func readSource(src io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read import source: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}

func mapTabular(def KindDefinition, data []byte) ([]sourceRecord, error) {
	table, err := tabular.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s csv: %w", def.Info.Kind, err)
	}

	records := make([]sourceRecord, 0, len(table.Rows))
	var errs rowErrors
	for _, row := range table.Rows {
		rec, err := def.FromFields(NewFields(row.Number, table.Map(row)))
		if err != nil {
			errs.add(row.Number, err)
			continue
		}
		records = append(records, sourceRecord{Row: row.Number, Record: rec})
	}
	if err := errs.err(def.Info.Kind); err != nil {
		return nil, err
	}
	return records, nil
}

func mapStructured(def KindDefinition, data []byte) ([]sourceRecord, error) {
	objects, err := structured.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s json: %w", def.Info.Kind, err)
	}

	records := make([]sourceRecord, 0, len(objects))
	var errs rowErrors
	for i, obj := range objects {
		row := i + 1
		rec, err := def.FromObject(obj)
		if err != nil {
			errs.add(row, err)
			continue
		}
		records = append(records, sourceRecord{Row: row, Record: rec})
	}
	if err := errs.err(def.Info.Kind); err != nil {
		return nil, err
	}
	return records, nil
}

// rowErrors collects per-row mapping failures into one error.
type rowErrors struct {
	errs  []error
	total int
}

func (e *rowErrors) add(row int, err error) {
	e.total++
	if len(e.errs) >= maxMappingErrors {
		return
	}
	var me *MappingError
	if !errors.As(err, &me) {
		err = &MappingError{Row: row, Err: err}
	}
	e.errs = append(e.errs, err)
}

func (e *rowErrors) err(kind domain.Kind) error {
	if e.total == 0 {
		return nil
	}
	errs := e.errs
	if extra := e.total - len(errs); extra > 0 {
		errs = append(errs, fmt.Errorf("%d more rows failed to map", extra))
	}
	return fmt.Errorf("map %s records: %w", kind, errors.Join(errs...))
}
