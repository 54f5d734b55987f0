package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/willbda/happy-to-have-lived-sub002/internal/core"
	"github.com/willbda/happy-to-have-lived-sub002/internal/domain"
)

func newKindsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List importable record kinds and their columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *core.Service) error {
				var rows [][]string
				for _, info := range svc.Kinds() {
					rows = append(rows, []string{
						string(info.Kind),
						info.Label,
						strings.Join(info.Columns, ", "),
						strings.Join(info.Required, ", "),
					})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(out, []string{"Kind", "Label", "Columns", "Required"}, rows, nil))
				return nil
			})
		},
	}
}

func newTemplateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "template <kind>",
		Short: "Print an empty CSV file with the kind's header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return describe(err)
			}
			return ctx.withService(cmd.Context(), func(svc *core.Service) error {
				data, err := svc.Template(kind)
				if err != nil {
					return describe(err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

type previewFlags struct {
	format       string
	skipSemantic bool
}

func (f *previewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.format, "format", "", "Source format: csv or json (default: from the file extension)")
	cmd.Flags().BoolVar(&f.skipSemantic, "skip-semantic", false, "Skip near-duplicate detection")
}

// run previews the file named by args and prints the classification.
func (f *previewFlags) run(cmd *cobra.Command, svc *core.Service, args []string) ([]core.ImportRecord[domain.Record], error) {
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return nil, describe(err)
	}
	path := args[1]
	raw := f.format
	if raw == "" {
		raw = filepath.Ext(path)
	}
	format, err := core.ParseFormat(raw)
	if err != nil {
		return nil, describe(err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	var opts []core.PreviewOption
	if f.skipSemantic {
		opts = append(opts, core.SkipSemantic())
	}
	records, err := svc.Preview(cliContext(cmd.Context()), kind, format, file, opts...)
	if err != nil {
		return nil, describe(err)
	}

	printPreview(cmd.OutOrStdout(), records)
	return records, nil
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var flags previewFlags

	cmd := &cobra.Command{
		Use:   "preview <kind> <file>",
		Short: "Classify a file without importing anything",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd.Context(), func(svc *core.Service) error {
				_, err := flags.run(cmd, svc, args)
				return err
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	var (
		flags       previewFlags
		skipSimilar bool
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "import <kind> <file>",
		Short: "Preview a file, then import the records marked for import",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := acquireImportLock(cfg.Store)
			if err != nil {
				return err
			}
			defer lock.Release()

			return ctx.withService(cmd.Context(), func(svc *core.Service) error {
				records, err := flags.run(cmd, svc, args)
				if err != nil {
					return err
				}

				importable := 0
				for i := range records {
					if skipSimilar && records[i].Status.Type == core.StatusSemanticDuplicate {
						records[i].ShouldImport = false
					}
					if records[i].ShouldImport {
						importable++
					}
				}

				out := cmd.OutOrStdout()
				if importable == 0 {
					fmt.Fprintln(out, "Nothing to import.")
					return nil
				}
				if !yes && !confirmPrompt(cmd.InOrStdin(), out, importable, len(records)) {
					fmt.Fprintln(out, "Import cancelled.")
					return nil
				}

				result, err := svc.Confirm(cliContext(cmd.Context()), records)
				printResult(out, result)
				if err != nil {
					return describe(err)
				}
				if len(result.Failed) > 0 {
					return fmt.Errorf("%d of %d records failed to import", len(result.Failed), result.TotalRecords)
				}
				return nil
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&skipSimilar, "skip-similar", false, "Do not import records that resemble existing ones")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Import without asking for confirmation")
	return cmd
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		formatFlag string
		outDir     string
	)

	cmd := &cobra.Command{
		Use:   "export <kind>",
		Short: "Export every stored record of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := domain.ParseKind(args[0])
			if err != nil {
				return describe(err)
			}
			format, err := core.ParseFormat(formatFlag)
			if err != nil {
				return describe(err)
			}

			return ctx.withService(cmd.Context(), func(svc *core.Service) error {
				out := cmd.OutOrStdout()
				if outDir == "" {
					n, err := svc.Export(cliContext(cmd.Context()), kind, format, out)
					if err != nil {
						return describe(err)
					}
					slog.Debug("exported records", "kind", kind, "count", n)
					return nil
				}

				path, err := svc.ExportFile(cliContext(cmd.Context()), kind, format, outDir)
				if err != nil {
					return describe(err)
				}
				fmt.Fprintln(out, path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&formatFlag, "format", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Write a timestamped file into this directory instead of stdout")
	return cmd
}

func printPreview(w io.Writer, records []core.ImportRecord[domain.Record]) {
	rows := make([][]string, 0, len(records))
	counts := make(map[core.StatusType]int)
	for _, r := range records {
		counts[r.Status.Type]++
		rows = append(rows, []string{
			strconv.Itoa(r.RowNumber),
			r.Record.DisplayTitle(),
			string(r.Status.Type),
			yesNo(r.ShouldImport),
			previewDetail(r),
		})
	}

	headers := []string{"Row", "Title", "Status", "Import", "Detail"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(w, renderTable(w, headers, rows, aligns))
	fmt.Fprintf(w, "%d records: %d valid, %d duplicate id, %d similar, %d invalid, %d missing reference\n",
		len(records),
		counts[core.StatusValid],
		counts[core.StatusDuplicateID],
		counts[core.StatusSemanticDuplicate],
		counts[core.StatusValidationError],
		counts[core.StatusForeignKeyMissing],
	)
}

func previewDetail(r core.ImportRecord[domain.Record]) string {
	switch r.Status.Type {
	case core.StatusDuplicateID:
		return "exists as " + r.Status.ExistingID.String()
	case core.StatusSemanticDuplicate:
		if len(r.Matches) > 0 {
			return fmt.Sprintf("resembles %q (%.2f)", r.Matches[0].Title, r.Matches[0].Score)
		}
		return fmt.Sprintf("score %.2f", r.Status.Score)
	default:
		return strings.Join(r.Errors, "; ")
	}
}

func printResult(w io.Writer, result core.ImportResult) {
	fmt.Fprintf(w, "Imported %d, skipped %d, failed %d of %d records in %s\n",
		result.Imported, result.Skipped, len(result.Failed), result.TotalRecords, result.Duration.Round(time.Millisecond))
	if result.Cancelled {
		fmt.Fprintln(w, "Import was interrupted; records not reached were skipped.")
	}
	if len(result.Failed) == 0 {
		return
	}
	rows := make([][]string, 0, len(result.Failed))
	for _, f := range result.Failed {
		rows = append(rows, []string{strconv.Itoa(f.RowNumber), f.Message})
	}
	fmt.Fprintln(w, renderTable(w, []string{"Row", "Error"}, rows, []columnAlignment{alignRight}))
}

func confirmPrompt(in io.Reader, out io.Writer, importable, total int) bool {
	fmt.Fprintf(out, "Import %d of %d records? [y/N] ", importable, total)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// describe prefixes err with its user message and code.
func describe(err error) error {
	msg := core.MapError(err)
	if msg.Action == "" {
		return fmt.Errorf("%s [%s]: %w", msg.Message, msg.Code, err)
	}
	return fmt.Errorf("%s %s [%s]: %w", msg.Message, msg.Action, msg.Code, err)
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
