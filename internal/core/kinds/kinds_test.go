package kinds_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/core/kinds"
	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
	"github.com/willbda/happy-to-have-lived-sub002/internal/similarity"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store"
	"github.com/willbda/happy-to-have-lived-sub002/internal/store/memstore"
)

func newService(t *testing.T, opts core.Options) (*core.Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	return core.NewService(st, opts), st
}

func preview(t *testing.T, svc *core.Service, kind domain.Kind, format core.Format, src string, opts ...core.PreviewOption) []core.ImportRecord[domain.Record] {
	t.Helper()
	records, err := svc.Preview(context.Background(), kind, format, strings.NewReader(src), opts...)
	require.NoError(t, err)
	return records
}

func TestRegisteredKinds(t *testing.T) {
	svc, _ := newService(t, core.Options{})
	infos := svc.Kinds()
	require.Len(t, infos, 4)

	got := make([]domain.Kind, len(infos))
	for i, info := range infos {
		got[i] = info.Kind
		assert.Equal(t, "ID", info.Columns[0], "%s columns start with the id", info.Kind)
		assert.NotEmpty(t, info.Label)
		for _, req := range info.Required {
			assert.Contains(t, info.Columns, req)
		}
	}
	assert.Equal(t, domain.Kinds(), got)
}

func TestPreviewConfirm_MinimalAction(t *testing.T) {
	svc, st := newService(t, core.Options{})
	id := uuid.New()
	src := "ID,Title,LogTime\n" + id.String() + ",\"Morning run\",\"2025-01-01T08:00:00Z\"\n"

	records := preview(t, svc, domain.KindAction, core.FormatCSV, src)
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusValid, records[0].Status.Type)
	assert.True(t, records[0].ShouldImport)
	assert.Equal(t, 2, records[0].RowNumber)

	result, err := svc.Confirm(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalRecords)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 0, result.Skipped)
	assert.Empty(t, result.Failed)
	assert.NotNil(t, result.Failed)

	actions, err := st.FetchActions(context.Background())
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, id, actions[0].ID)
	assert.Equal(t, "Morning run", actions[0].Title)
	assert.Equal(t, time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), actions[0].LogTime)
}

func TestPreview_QuotedComma(t *testing.T) {
	svc, _ := newService(t, core.Options{})
	src := "title,logtime\n\"Run, then stretch\",2025-01-01T00:00:00Z\n"

	records := preview(t, svc, domain.KindAction, core.FormatCSV, src)
	require.Len(t, records, 1)
	assert.Equal(t, "Run, then stretch", records[0].Record.DisplayTitle())
	assert.NotEqual(t, uuid.Nil, records[0].Record.RecordID(), "a blank id is allocated")
}

func TestPreview_DuplicateID(t *testing.T) {
	svc, st := newService(t, core.Options{})
	id := uuid.New()
	require.NoError(t, st.CreateValue(context.Background(), store.NewValue{
		ID: id, Title: "Health", Priority: 10, ValueLevel: domain.ValueLevelMajor,
	}))

	records := preview(t, svc, domain.KindValue, core.FormatCSV, "ID,Title\n"+id.String()+",Health again\n")
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusDuplicateID, records[0].Status.Type)
	assert.Equal(t, id, records[0].Status.ExistingID)
	assert.False(t, records[0].ShouldImport)

	result, err := svc.Confirm(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Imported)
}

func TestPreview_SameFileDuplicate(t *testing.T) {
	svc, _ := newService(t, core.Options{})
	id := uuid.New().String()
	src := "ID,Title\n" + id + ",First\n" + id + ",Second\n"

	records := preview(t, svc, domain.KindValue, core.FormatCSV, src)
	require.Len(t, records, 2)
	assert.Equal(t, core.StatusValid, records[0].Status.Type)
	assert.Equal(t, core.StatusValidationError, records[1].Status.Type)
	assert.Contains(t, records[1].Errors, "duplicate id in file, first seen at row 2")
	assert.False(t, records[1].ShouldImport)
}

func TestPreview_ForeignKeyMissing(t *testing.T) {
	svc, _ := newService(t, core.Options{})
	goal := uuid.New()
	src := fmt.Sprintf(`[{"title": "Run", "logTime": "2025-01-01T00:00:00Z", "goalIds": [%q]}]`, goal)

	records := preview(t, svc, domain.KindAction, core.FormatJSON, src)
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusForeignKeyMissing, records[0].Status.Type)
	assert.Equal(t, domain.KindGoal, records[0].Status.MissingKind)
	assert.Equal(t, []string{"referenced goal " + goal.String() + " not found"}, records[0].Errors)
	assert.False(t, records[0].ShouldImport)
}

func TestPreview_SemanticDuplicate(t *testing.T) {
	svc, st := newService(t, core.Options{Finder: similarity.FingerprintFinder{}})
	existing := uuid.New()
	require.NoError(t, st.CreateValue(context.Background(), store.NewValue{
		ID: existing, Title: "Physical health", Description: "Move every day and sleep well",
		Priority: 10, ValueLevel: domain.ValueLevelMajor,
	}))
	src := "Title,Description\nPhysical Health,Move every day and sleep well\n"

	records := preview(t, svc, domain.KindValue, core.FormatCSV, src)
	require.Len(t, records, 1)
	assert.Equal(t, core.StatusSemanticDuplicate, records[0].Status.Type)
	assert.InDelta(t, 1.0, records[0].Status.Score, 1e-9)
	assert.True(t, records[0].ShouldImport, "similar records import unless excluded")
	require.NotEmpty(t, records[0].Matches)
	assert.Equal(t, existing, records[0].Matches[0].ID)

	records = preview(t, svc, domain.KindValue, core.FormatCSV, src, core.SkipSemantic())
	assert.Equal(t, core.StatusValid, records[0].Status.Type)
}

func TestPreview_ValidationRules(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.Kind
		src     string
		wantErr string
	}{
		{
			name:    "priority out of range",
			kind:    domain.KindValue,
			src:     "Title,Priority\nHealth,0\n",
			wantErr: "Priority must be at least 1",
		},
		{
			name:    "unknown value level",
			kind:    domain.KindValue,
			src:     "Title,ValueLevel\nHealth,cosmic\n",
			wantErr: "ValueLevel must be one of: general, major, highest_order, life_area",
		},
		{
			name:    "term dates reversed",
			kind:    domain.KindTerm,
			src:     "TermNumber,StartDate,TargetDate\n1,2025-03-01T00:00:00Z,2025-01-01T00:00:00Z\n",
			wantErr: "StartDate must be before TargetDate",
		},
		{
			name:    "action starts after it was logged",
			kind:    domain.KindAction,
			src:     "Title,LogTime,StartTime\nRun,2025-01-01T08:00:00Z,2025-01-01T09:00:00Z\n",
			wantErr: "StartTime must not be after LogTime",
		},
		{
			name:    "negative duration",
			kind:    domain.KindAction,
			src:     "Title,LogTime,DurationMinutes\nRun,2025-01-01T08:00:00Z,-5\n",
			wantErr: "DurationMinutes must be at least 0",
		},
		{
			name:    "infinite duration",
			kind:    domain.KindAction,
			src:     "Title,LogTime,DurationMinutes\nRun,2025-01-01T08:00:00Z,+Inf\n",
			wantErr: "DurationMinutes must be a finite number",
		},
		{
			name:    "goal dates reversed",
			kind:    domain.KindGoal,
			src:     "Title,StartDate,TargetDate\nMarathon,2025-06-01T00:00:00Z,2025-06-01T00:00:00Z\n",
			wantErr: "StartDate must be before TargetDate",
		},
		{
			name:    "blank json title",
			kind:    domain.KindGoal,
			src:     `[{"title": ""}]`,
			wantErr: "Title is required",
		},
		{
			name:    "whitespace json title",
			kind:    domain.KindValue,
			src:     `[{"title": "   "}]`,
			wantErr: "Title is required",
		},
		{
			name:    "whitespace json measurement unit",
			kind:    domain.KindAction,
			src:     `[{"title": "Run", "logTime": "2025-01-01T08:00:00Z", "measurements": [{"unit": " ", "value": 5}]}]`,
			wantErr: "Measurements[0].Unit is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, core.Options{})
			format := core.FormatCSV
			if strings.HasPrefix(tt.src, "[") {
				format = core.FormatJSON
			}
			records := preview(t, svc, tt.kind, format, tt.src)
			require.Len(t, records, 1)
			assert.Equal(t, core.StatusValidationError, records[0].Status.Type)
			assert.Contains(t, records[0].Errors, tt.wantErr)
			assert.False(t, records[0].ShouldImport)
		})
	}
}

func TestPreview_ValueDefaults(t *testing.T) {
	svc, _ := newService(t, core.Options{})
	records := preview(t, svc, domain.KindValue, core.FormatCSV, "Title,ValueLevel\nHealth,Highest Order\nFamily,\n")
	require.Len(t, records, 2)

	first := records[0].Record.(*domain.PersonalValue)
	assert.Equal(t, domain.ValueLevelHighestOrder, first.ValueLevel)
	assert.Equal(t, kinds.DefaultPriority, first.Priority)

	second := records[1].Record.(*domain.PersonalValue)
	assert.Equal(t, domain.ValueLevelGeneral, second.ValueLevel)
	assert.Equal(t, core.StatusValid, records[1].Status.Type)
}

func TestPreview_MappingErrors(t *testing.T) {
	tests := []struct {
		name      string
		kind      domain.Kind
		format    core.Format
		src       string
		wantRow   int
		wantField string
		wantCode  string
	}{
		{
			name:      "bad timestamp",
			kind:      domain.KindAction,
			format:    core.FormatCSV,
			src:       "Title,LogTime\nRun,yesterday\n",
			wantRow:   2,
			wantField: "LogTime",
			wantCode:  "MAP002",
		},
		{
			name:      "blank required column",
			kind:      domain.KindAction,
			format:    core.FormatCSV,
			src:       "Title,LogTime\nRun,2025-01-01T00:00:00Z\n,2025-01-01T00:00:00Z\n",
			wantRow:   3,
			wantField: "Title",
			wantCode:  "MAP001",
		},
		{
			name:      "whitespace required column",
			kind:      domain.KindValue,
			format:    core.FormatCSV,
			src:       "Title,Priority\n\"   \",10\n",
			wantRow:   2,
			wantField: "Title",
			wantCode:  "MAP001",
		},
		{
			name:      "bad reference id",
			kind:      domain.KindTerm,
			format:    core.FormatCSV,
			src:       "TermNumber,StartDate,TargetDate,GoalIDs\n1,2025-01-01T00:00:00Z,2025-03-01T00:00:00Z,not-a-uuid\n",
			wantRow:   2,
			wantField: "GoalIDs",
			wantCode:  "MAP003",
		},
		{
			name:      "bad nested measurement",
			kind:      domain.KindAction,
			format:    core.FormatCSV,
			src:       "Title,LogTime,Measurements\nRun,2025-01-01T00:00:00Z,\"[{\"\"value\"\": 5}]\"\n",
			wantRow:   2,
			wantField: "Measurements",
			wantCode:  "MAP001",
		},
		{
			name:     "json wrong type",
			kind:     domain.KindValue,
			format:   core.FormatJSON,
			src:      `[{"title": "Health"}, {"title": "Family", "priority": "high"}]`,
			wantRow:  2,
			wantCode: "MAP005",
		},
		{
			name:     "json missing key",
			kind:     domain.KindTerm,
			format:   core.FormatJSON,
			src:      `[{"startDate": "2025-01-01T00:00:00Z", "targetDate": "2025-03-01T00:00:00Z"}]`,
			wantRow:  1,
			wantCode: "MAP001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t, core.Options{})
			records, err := svc.Preview(context.Background(), tt.kind, tt.format, strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Nil(t, records, "no partial preview")

			var me *core.MappingError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.wantRow, me.Row)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, me.Field)
			}
			assert.Equal(t, tt.wantCode, core.MapError(err).Code)
		})
	}
}

func TestPreview_SourceErrors(t *testing.T) {
	svc, _ := newService(t, core.Options{MaxFileSize: 64})

	_, err := svc.Preview(context.Background(), "habit", core.FormatCSV, strings.NewReader("Title\nx\n"))
	assert.ErrorIs(t, err, core.ErrUnknownKind)

	_, err = svc.Preview(context.Background(), domain.KindValue, core.Format("xml"), strings.NewReader("Title\nx\n"))
	assert.Equal(t, "FMT007", core.MapError(err).Code)

	_, err = svc.Preview(context.Background(), domain.KindValue, core.FormatCSV, strings.NewReader(strings.Repeat("x", 100)))
	assert.ErrorIs(t, err, core.ErrFileTooLarge)

	_, err = svc.Preview(context.Background(), domain.KindValue, core.FormatCSV, strings.NewReader(""))
	assert.Equal(t, "FMT003", core.MapError(err).Code)

	_, err = svc.Preview(context.Background(), domain.KindValue, core.FormatCSV, strings.NewReader("Title\n\"open\n"))
	assert.Equal(t, "FMT001", core.MapError(err).Code)

	_, err = svc.Preview(context.Background(), domain.KindValue, core.FormatJSON, strings.NewReader(`{"title": "x"}`))
	assert.Equal(t, "FMT005", core.MapError(err).Code)
}

// failingStore rejects creation of one id, or cancels a context after the
// first successful creation.
type failingStore struct {
	*memstore.Store
	failID uuid.UUID
	cancel context.CancelFunc
}

func (s *failingStore) CreateValue(ctx context.Context, req store.NewValue) error {
	if req.ID == s.failID {
		return errors.New("disk on fire")
	}
	if err := s.Store.CreateValue(ctx, req); err != nil {
		return err
	}
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

func valuesCSV(ids ...uuid.UUID) string {
	var b strings.Builder
	b.WriteString("ID,Title\n")
	for i, id := range ids {
		fmt.Fprintf(&b, "%s,Value %d\n", id, i+1)
	}
	return b.String()
}

func TestConfirm_FailureIsolation(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	st := &failingStore{Store: memstore.New(), failID: ids[1]}
	svc := core.NewService(st, core.Options{})

	records := preview(t, svc, domain.KindValue, core.FormatCSV, valuesCSV(ids...))
	result, err := svc.Confirm(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 3, result.Failed[0].RowNumber)
	assert.Contains(t, result.Failed[0].Message, "disk on fire")
	assert.True(t, result.Balanced())

	values, err := st.FetchValues(context.Background())
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestConfirm_Accounting(t *testing.T) {
	svc, st := newService(t, core.Options{})
	existing := uuid.New()
	require.NoError(t, st.CreateValue(context.Background(), store.NewValue{
		ID: existing, Title: "Old", Priority: 1, ValueLevel: domain.ValueLevelGeneral,
	}))

	records := preview(t, svc, domain.KindValue, core.FormatCSV, valuesCSV(uuid.New(), existing, uuid.New()))
	require.Len(t, records, 3)
	records[2].ShouldImport = false

	result, err := svc.Confirm(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRecords)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.True(t, result.Balanced())
	assert.Equal(t, domain.KindValue, result.Kind)
}

func TestConfirm_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st := &failingStore{Store: memstore.New(), cancel: cancel}
	svc := core.NewService(st, core.Options{})

	records := preview(t, svc, domain.KindValue, core.FormatCSV, valuesCSV(uuid.New(), uuid.New(), uuid.New()))
	result, err := svc.Confirm(ctx, records)
	require.ErrorIs(t, err, context.Canceled)

	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.Imported, "the record in flight is finished")
	assert.Equal(t, 2, result.Skipped)
	assert.True(t, result.Balanced())
}

func TestConfirm_LimiterFull(t *testing.T) {
	svc, _ := newService(t, core.Options{MaxConcurrent: 1, MaxWait: 10 * time.Millisecond})
	records := preview(t, svc, domain.KindValue, core.FormatCSV, valuesCSV(uuid.New(), uuid.New()))

	require.True(t, svc.Limiter().TryAcquire())
	defer svc.Limiter().Release()

	result, err := svc.Confirm(context.Background(), records)
	require.ErrorIs(t, err, core.ErrTooManyImports)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 0, result.Imported)
	assert.True(t, result.Balanced())
}

func TestPreviewSessions(t *testing.T) {
	svc, st := newService(t, core.Options{})
	ctx := context.Background()
	src := valuesCSV(uuid.New(), uuid.New())

	session, err := svc.StartPreview(ctx, domain.KindValue, core.FormatCSV, strings.NewReader(src))
	require.NoError(t, err)
	assert.Len(t, session.Records, 2)
	assert.True(t, session.ExpiresAt.After(session.CreatedAt))

	got, err := svc.GetPreview(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	_, err = svc.ConfirmPreview(ctx, session.ID, map[int]bool{9: true})
	require.ErrorIs(t, err, core.ErrUnknownRow)
	_, err = svc.GetPreview(session.ID)
	require.NoError(t, err, "a rejected override keeps the preview")

	result, err := svc.ConfirmPreview(ctx, session.ID, map[int]bool{2: false})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)

	values, err := st.FetchValues(ctx)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, "Value 2", values[0].Title)

	_, err = svc.ConfirmPreview(ctx, session.ID, nil)
	assert.ErrorIs(t, err, core.ErrPreviewNotFound, "a preview confirms once")
}

func TestPreviewSessions_CancelledBeforeStart(t *testing.T) {
	svc, st := newService(t, core.Options{})
	session, err := svc.StartPreview(context.Background(), domain.KindValue, core.FormatCSV, strings.NewReader(valuesCSV(uuid.New(), uuid.New())))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.ConfirmPreview(ctx, session.ID, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, result.Cancelled)
	assert.Equal(t, 2, result.Skipped)
	assert.True(t, result.Balanced())

	_, err = svc.GetPreview(session.ID)
	require.NoError(t, err, "nothing was written, so the preview stays")

	result, err = svc.ConfirmPreview(context.Background(), session.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	values, err := st.FetchValues(context.Background())
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestPreviewSessions_Expiry(t *testing.T) {
	svc, _ := newService(t, core.Options{PreviewTTL: time.Millisecond})
	ctx := context.Background()

	session, err := svc.StartPreview(ctx, domain.KindValue, core.FormatCSV, strings.NewReader(valuesCSV(uuid.New())))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = svc.GetPreview(session.ID)
	assert.ErrorIs(t, err, core.ErrPreviewNotFound)
	assert.Equal(t, 1, svc.SweepExpired())
	assert.False(t, svc.DiscardPreview(session.ID))
}

// seed stores one linked record of every kind, with text that needs quoting.
func seed(t *testing.T, st *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	valueID, goalID := uuid.New(), uuid.New()
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	target := start.AddDate(0, 0, 70)
	logged := time.Date(2025, 2, 3, 7, 30, 0, 0, time.UTC)
	began := logged.Add(-45 * time.Minute)

	require.NoError(t, st.CreateValue(ctx, store.NewValue{
		ID: valueID, Title: "Health, \"broadly\"", Description: "Sleep\nmove\neat well",
		Notes: "Ünïcödé café", Priority: 5, ValueLevel: domain.ValueLevelHighestOrder,
		LifeDomain: "Body", AlignmentGuidance: "Ask: does this help?",
	}))
	require.NoError(t, st.CreateValue(ctx, store.NewValue{
		ID: uuid.New(), Title: "Family", Priority: 20, ValueLevel: domain.ValueLevelGeneral,
	}))
	require.NoError(t, st.CreateGoal(ctx, store.NewGoal{
		ID: goalID, Title: "Run a 10k", Description: "Build up slowly, no injuries",
		StartDate: &start, TargetDate: &target, ActionPlan: "3 runs a week",
		ExpectedTermLength: 10,
		Targets: []store.NewTarget{
			{ID: uuid.New(), Unit: "km", MeasureType: "distance", TargetValue: 10, Notes: "in one go"},
			{ID: uuid.New(), Unit: "minutes", MeasureType: "time", TargetValue: 59.5},
		},
		Values: []store.Link{{ID: uuid.New(), TargetID: valueID}},
	}))
	require.NoError(t, st.CreateGoal(ctx, store.NewGoal{ID: uuid.New(), Title: "Read more"}))
	require.NoError(t, st.CreateAction(ctx, store.NewAction{
		ID: uuid.New(), Title: "Easy run", Notes: "felt \"great\", knees ok",
		LogTime: logged, StartTime: &began, DurationMinutes: 42.25,
		Measurements: []store.NewMeasurement{{ID: uuid.New(), Unit: "km", MeasureType: "distance", Value: 6.2}},
		Goals:        []store.Link{{ID: uuid.New(), TargetID: goalID}},
	}))
	require.NoError(t, st.CreateAction(ctx, store.NewAction{ID: uuid.New(), Title: "Stretch", LogTime: logged}))
	require.NoError(t, st.CreateTerm(ctx, store.NewTerm{
		ID: uuid.New(), Title: "Winter block", TermNumber: 1, Theme: "Base, then speed",
		StartDate: start, TargetDate: target, Reflection: "Line one\nLine two",
		Goals: []store.Link{{ID: uuid.New(), TargetID: goalID}},
	}))
}

func TestExportImport_RoundTrip(t *testing.T) {
	for _, format := range []core.Format{core.FormatCSV, core.FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			src, srcStore := newService(t, core.Options{})
			seed(t, srcStore)
			dst, dstStore := newService(t, core.Options{})

			// Kinds are imported in reference order.
			for _, kind := range []domain.Kind{domain.KindValue, domain.KindGoal, domain.KindAction, domain.KindTerm} {
				var exported bytes.Buffer
				n, err := src.Export(ctx, kind, format, &exported)
				require.NoError(t, err)
				assert.Positive(t, n)

				records, err := dst.Preview(ctx, kind, format, bytes.NewReader(exported.Bytes()))
				require.NoError(t, err, "%s export:\n%s", kind, exported.String())
				for _, r := range records {
					assert.Equal(t, core.StatusValid, r.Status.Type, "%s row %d: %v", kind, r.RowNumber, r.Errors)
				}
				result, err := dst.Confirm(ctx, records)
				require.NoError(t, err)
				require.Empty(t, result.Failed)
				assert.Equal(t, n, result.Imported)

				var reexported bytes.Buffer
				_, err = dst.Export(ctx, kind, format, &reexported)
				require.NoError(t, err)
				assert.Equal(t, exported.String(), reexported.String())
			}

			for _, pair := range []struct {
				name string
				a, b func(context.Context) (any, error)
			}{
				{"values", wrap(srcStore.FetchValues), wrap(dstStore.FetchValues)},
				{"goals", wrap(srcStore.FetchGoals), wrap(dstStore.FetchGoals)},
				{"actions", wrap(srcStore.FetchActions), wrap(dstStore.FetchActions)},
				{"terms", wrap(srcStore.FetchTerms), wrap(dstStore.FetchTerms)},
			} {
				want, err := pair.a(ctx)
				require.NoError(t, err)
				got, err := pair.b(ctx)
				require.NoError(t, err)
				assert.Equal(t, want, got, pair.name)
			}
		})
	}
}

func wrap[T any](fetch func(context.Context) ([]T, error)) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) { return fetch(ctx) }
}

func TestExport_Layout(t *testing.T) {
	svc, st := newService(t, core.Options{})
	ctx := context.Background()
	logged := time.Date(2025, 2, 3, 7, 30, 0, 0, time.UTC)
	id := uuid.New()
	require.NoError(t, st.CreateAction(ctx, store.NewAction{ID: id, Title: "Stretch", LogTime: logged}))

	var csv bytes.Buffer
	_, err := svc.Export(ctx, domain.KindAction, core.FormatCSV, &csv)
	require.NoError(t, err)
	assert.Equal(t,
		"ID,Title,Description,Notes,LogTime,StartTime,DurationMinutes,Measurements,GoalIDs\n"+
			id.String()+",Stretch,,,2025-02-03T07:30:00Z,,,,\n",
		csv.String())

	var js bytes.Buffer
	_, err = svc.Export(ctx, domain.KindAction, core.FormatJSON, &js)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"id": "`+id.String()+`",
		"title": "Stretch",
		"detailedDescription": "",
		"freeformNotes": "",
		"logTime": "2025-02-03T07:30:00Z",
		"startTime": null,
		"durationMinutes": 0,
		"measurements": [],
		"goalIds": []
	}]`, js.String())
}

func TestExportFileAndTemplate(t *testing.T) {
	svc, st := newService(t, core.Options{})
	seed(t, st)
	ctx := context.Background()
	dir := t.TempDir()

	path, err := svc.ExportFile(ctx, domain.KindValue, core.FormatJSON, filepath.Join(dir, "out"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "value-"))
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var direct bytes.Buffer
	_, err = svc.Export(ctx, domain.KindValue, core.FormatJSON, &direct)
	require.NoError(t, err)
	assert.Equal(t, direct.String(), string(data))

	_, err = svc.ExportFile(ctx, "habit", core.FormatCSV, dir)
	require.ErrorIs(t, err, core.ErrUnknownKind)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a failed export leaves no file")

	tmpl, err := svc.Template(domain.KindTerm)
	require.NoError(t, err)
	assert.Equal(t, "ID,Title,TermNumber,Theme,StartDate,TargetDate,Reflection,GoalIDs\n", string(tmpl))
}

func TestNormalizeValueLevel(t *testing.T) {
	tests := map[string]string{
		"":              domain.ValueLevelGeneral,
		"  Major ":      domain.ValueLevelMajor,
		"Highest Order": domain.ValueLevelHighestOrder,
		"life-area":     domain.ValueLevelLifeArea,
		"LifeArea":      domain.ValueLevelLifeArea,
		"cosmic":        "cosmic",
	}
	for in, want := range tests {
		assert.Equal(t, want, kinds.NormalizeValueLevel(in), "input %q", in)
	}
}
