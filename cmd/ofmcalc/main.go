package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"text/tabwriter"

	"github.com/rgehrsitz/ofmcalc/internal/calculation"
	"github.com/rgehrsitz/ofmcalc/internal/compare"
	"github.com/rgehrsitz/ofmcalc/internal/config"
	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"github.com/rgehrsitz/ofmcalc/internal/logging"
	"github.com/rgehrsitz/ofmcalc/internal/output"
	"github.com/rgehrsitz/ofmcalc/internal/store"
	"github.com/rgehrsitz/ofmcalc/internal/store/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// repository is what the commands need beyond calculation.Repository
type repository interface {
	calculation.Repository
	PutRateSchedule(ctx context.Context, rs domain.RateSchedule) error
	PutFunding(ctx context.Context, f domain.Funding) error
	ListFundingIDs(ctx context.Context) ([]string, error)
	FundingAmountsHistory(ctx context.Context, fundingID string) ([]*domain.FundingResult, error)
	DefaultSpacesAllocation(ctx context.Context, fundingID string) ([]domain.SpaceAllocation, error)
}

var (
	_ repository = (*store.Memory)(nil)
	_ repository = (*sqlite.Store)(nil)
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ofmcalc %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

// fileExists checks if a file exists
func fileExists(filename string) bool {
	_, err := os.Stat(filename)
	return !os.IsNotExist(err)
}

func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	debugMode, _ := cmd.Flags().GetBool("debug")
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.New(logging.Config{Level: level, Format: format, Debug: debugMode, Version: version})
}

// openRepository opens the --db store when given, otherwise an in-memory one,
// and loads any --schedules and --funding files into it
func openRepository(cmd *cobra.Command) (repository, func() error, error) {
	ctx := cmd.Context()
	dbPath, _ := cmd.Flags().GetString("db")
	schedulesFiles, _ := cmd.Flags().GetStringSlice("schedules")
	fundingFile, _ := cmd.Flags().GetString("funding")

	var repo repository
	closer := func() error { return nil }
	if dbPath != "" {
		s, err := sqlite.New(dbPath)
		if err != nil {
			return nil, nil, err
		}
		repo, closer = s, s.Close
	} else {
		if len(schedulesFiles) == 0 || fundingFile == "" {
			return nil, nil, errors.New("--schedules and --funding are required when --db is not given")
		}
		repo = store.NewMemory()
	}

	if err := importFiles(ctx, repo, schedulesFiles, fundingFile); err != nil {
		closer()
		return nil, nil, err
	}
	return repo, closer, nil
}

func importFiles(ctx context.Context, repo repository, schedulesFiles []string, fundingFile string) error {
	parser := config.NewInputParser()
	for _, schedulesFile := range schedulesFiles {
		schedules, err := parser.LoadRateSchedules(schedulesFile)
		if err != nil {
			return err
		}
		for _, rs := range schedules {
			if err := repo.PutRateSchedule(ctx, rs); err != nil {
				return fmt.Errorf("failed to store rate schedule %s: %w", rs.ID, err)
			}
		}
	}
	if fundingFile != "" {
		fundings, err := parser.LoadFundings(fundingFile)
		if err != nil {
			return err
		}
		for _, f := range fundings {
			if err := repo.PutFunding(ctx, f); err != nil {
				return fmt.Errorf("failed to store funding %s: %w", f.ID, err)
			}
		}
	}
	return nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ofmcalc",
		Short:         "Operating funding envelope calculator",
		Long:          "Calculates the annual funding envelopes of licensed childcare facilities from rate schedules and facility licence data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("debug", false, "Enable debug logging for detailed calculations")
	root.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); default warn")
	root.PersistentFlags().String("log-format", "console", "Log format (console, json)")

	root.AddCommand(calculateCmd())
	root.AddCommand(allocateCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(importCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(compareCmd())
	root.AddCommand(versionCmd())
	return root
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("schedules", nil, "Rate schedule YAML file (repeatable)")
	cmd.Flags().String("funding", "", "Funding records YAML file")
	cmd.Flags().String("db", "", "SQLite database path; files given with --schedules/--funding are imported into it")
}

func calculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate funding envelopes",
		Long:  "Calculates the funding envelopes of the given funding records, or of every stored record when no --id is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			outputFormat, _ := cmd.Flags().GetString("format")
			formatter := output.GetFormatterByName(outputFormat)
			if formatter == nil {
				return fmt.Errorf("unsupported format: %s (available: %v, aliases: %v)",
					outputFormat, output.AvailableFormatterNames(), output.AvailableFormatAliases())
			}

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, closeRepo, err := openRepository(cmd)
			if err != nil {
				return err
			}
			defer closeRepo()

			ids, _ := cmd.Flags().GetStringSlice("id")
			if len(ids) == 0 {
				if ids, err = repo.ListFundingIDs(ctx); err != nil {
					return err
				}
			}

			calc := calculation.NewFundingCalculator(repo)
			calc.SetLogger(logging.NewAdapter(logger))
			save, _ := cmd.Flags().GetBool("save")
			verbose, _ := cmd.Flags().GetBool("verbose")
			outDir, _ := cmd.Flags().GetString("out-dir")

			out := cmd.OutOrStdout()
			for _, id := range ids {
				result, err := calc.Calculate(ctx, id)
				if err != nil {
					return err
				}
				f := formatter
				if verbose && result.Decision() != domain.DecisionInvalid {
					f = withBreakdown(ctx, formatter, calc, repo)
				}

				if outDir != "" {
					filename, err := output.WriteFormatted(outDir, f, result, output.FileExtension(formatter.Name()))
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", filename)
				} else {
					data, err := f.Format(result)
					if err != nil {
						return err
					}
					out.Write(data)
				}
				if save {
					if calc.ProcessFundingResult(ctx, result) {
						fmt.Fprintf(cmd.ErrOrStderr(), "saved funding %s (run %s)\n", id, result.RunID())
					} else {
						fmt.Fprintf(cmd.ErrOrStderr(), "funding %s not saved (decision %s)\n", id, result.Decision())
					}
				}
			}
			return nil
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().StringSlice("id", nil, "Funding ID to calculate (repeatable; default all)")
	cmd.Flags().StringP("format", "f", "console", "Output format (console, json, csv, yaml)")
	cmd.Flags().Bool("save", false, "Persist valid results to the repository")
	cmd.Flags().BoolP("verbose", "v", false, "Print the staffing and wage breakdown")
	cmd.Flags().String("out-dir", "", "Write one report file per funding into this directory instead of stdout")
	return cmd
}

// withBreakdown appends the staffing and wage breakdown to the formatted report
func withBreakdown(ctx context.Context, f output.Formatter, calc *calculation.FundingCalculator, repo repository) output.Formatter {
	return output.FormatterFunc{
		ID: f.Name(),
		F: func(result *domain.FundingResult) ([]byte, error) {
			data, err := f.Format(result)
			if err != nil {
				return nil, err
			}
			buf := bytes.NewBuffer(data)
			if err := writeBreakdown(ctx, buf, calc, repo, result.FundingID()); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	}
}

func writeBreakdown(ctx context.Context, w io.Writer, calc *calculation.FundingCalculator, repo repository, fundingID string) error {
	funding, err := repo.GetFundingByID(ctx, fundingID)
	if err != nil {
		return err
	}
	schedules, err := repo.LoadRateSchedules(ctx)
	if err != nil {
		return err
	}
	for i := range schedules {
		if schedules[i].ID != funding.RateScheduleID {
			continue
		}
		b, err := calc.Compute(funding, &schedules[i])
		if err != nil {
			return err
		}
		fmt.Fprintln(w)
		w.Write(output.FormatBreakdown(b))
		return nil
	}
	return fmt.Errorf("%w: %s", domain.ErrRateScheduleNotFound, funding.RateScheduleID)
}

func allocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Compute the default per-tier space allocation of a room-split facility",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, _ := cmd.Flags().GetString("id")

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, closeRepo, err := openRepository(cmd)
			if err != nil {
				return err
			}
			defer closeRepo()

			calc := calculation.NewFundingCalculator(repo)
			calc.SetLogger(logging.NewAdapter(logger))
			if !calc.CalculateDefaultSpacesAllocation(ctx, id) {
				return fmt.Errorf("no default allocation computed for funding %s (not room split, or see log)", id)
			}

			allocations, err := repo.DefaultSpacesAllocation(ctx, id)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LICENCE DETAIL\tLICENCE TYPE\tTIER\tGROUP SIZE\tGROUPS\tDEFAULT\tADJUSTED")
			for _, a := range allocations {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					a.LicenceDetailID, a.LicenceType, a.RatioTierID, a.GroupSize, a.Groups, a.DefaultSpaces, a.AdjustedSpaces)
			}
			return tw.Flush()
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().String("id", "", "Funding ID (required)")
	cmd.MarkFlagRequired("id")
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate rate schedule and funding files",
		RunE: func(cmd *cobra.Command, args []string) error {
			schedulesFiles, _ := cmd.Flags().GetStringSlice("schedules")
			fundingFile, _ := cmd.Flags().GetString("funding")
			if len(schedulesFiles) == 0 && fundingFile == "" {
				return errors.New("nothing to validate: give --schedules and/or --funding")
			}

			out := cmd.OutOrStdout()
			parser := config.NewInputParser()
			for _, schedulesFile := range schedulesFiles {
				schedules, err := parser.LoadRateSchedules(schedulesFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Rate schedule file %s is valid (%d schedules)\n", schedulesFile, len(schedules))
			}
			if fundingFile != "" {
				fundings, err := parser.LoadFundings(fundingFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Funding file %s is valid (%d fundings)\n", fundingFile, len(fundings))

				chain := calculation.DefaultValidationChain()
				for i := range fundings {
					if err := chain.Validate(&fundings[i]); err != nil {
						fmt.Fprintf(out, "  warning: funding %s is not calculable: %v\n", fundings[i].ID, err)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("schedules", nil, "Rate schedule YAML file (repeatable)")
	cmd.Flags().String("funding", "", "Funding records YAML file")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import rate schedule and funding files into a SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			schedulesFiles, _ := cmd.Flags().GetStringSlice("schedules")
			fundingFile, _ := cmd.Flags().GetString("funding")
			for _, f := range append(schedulesFiles, fundingFile) {
				if f != "" && !fileExists(f) {
					return fmt.Errorf("file not found: %s", f)
				}
			}

			s, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			ctx := cmd.Context()
			if err := importFiles(ctx, s, schedulesFiles, fundingFile); err != nil {
				return err
			}
			schedules, err := s.LoadRateSchedules(ctx)
			if err != nil {
				return err
			}
			ids, err := s.ListFundingIDs(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now holds %d rate schedules and %d fundings\n", dbPath, len(schedules), len(ids))
			return nil
		},
	}
	cmd.Flags().String("db", "", "SQLite database path (required)")
	cmd.Flags().StringSlice("schedules", nil, "Rate schedule YAML file (repeatable)")
	cmd.Flags().String("funding", "", "Funding records YAML file")
	cmd.MarkFlagRequired("db")
	return cmd
}

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the saved calculation runs of a funding",
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			id, _ := cmd.Flags().GetString("id")

			s, err := sqlite.New(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			results, err := s.FundingAmountsHistory(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no saved runs for funding %s\n", id)
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tDECISION\tCALCULATED\tGRAND TOTAL\tPARENT FEES")
			for _, r := range results {
				a := r.Amounts()
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.RunID(), r.Decision(),
					r.CalculatedAt().Format("2006-01-02 15:04:05"),
					output.FormatCurrency(a.GrandTotal()), output.FormatCurrency(a.TotalParentFees()))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("db", "", "SQLite database path (required)")
	cmd.Flags().String("id", "", "Funding ID (required)")
	cmd.MarkFlagRequired("db")
	cmd.MarkFlagRequired("id")
	return cmd
}

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a funding's envelopes under different rate schedules",
		Long:  "Calculates one funding under a base rate schedule and each alternative, and reports the per-envelope differences. Nothing is saved.",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("format")
			id, _ := cmd.Flags().GetString("id")
			base, _ := cmd.Flags().GetString("base")
			against, _ := cmd.Flags().GetStringSlice("against")

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			repo, closeRepo, err := openRepository(cmd)
			if err != nil {
				return err
			}
			defer closeRepo()

			calc := calculation.NewFundingCalculator(repo)
			calc.SetLogger(logging.NewAdapter(logger))
			engine := compare.NewCompareEngine(calc)
			compSet, err := engine.Compare(cmd.Context(), compare.CompareOptions{
				FundingID:      id,
				BaseScheduleID: base,
				Alternatives:   against,
			})
			if err != nil {
				return err
			}

			var rendered string
			switch outputFormat {
			case "table", "console":
				rendered = (&compare.TableFormatter{}).Format(compSet)
			case "compact":
				rendered = (&compare.TableFormatter{}).FormatCompact(compSet) + "\n"
			case "csv":
				rendered, err = (&compare.CSVFormatter{}).Format(compSet)
			case "json":
				rendered, err = (&compare.JSONFormatter{Pretty: true}).Format(compSet)
			default:
				return fmt.Errorf("unsupported format: %s (available: table, compact, csv, json)", outputFormat)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
	addSourceFlags(cmd)
	cmd.Flags().String("id", "", "Funding ID (required)")
	cmd.Flags().String("base", "", "Base rate schedule ID (default: the funding's own schedule)")
	cmd.Flags().StringSlice("against", nil, "Rate schedule IDs to compare against the base (repeatable)")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	cmd.MarkFlagRequired("id")
	return cmd
}

var rootCmd = newRootCmd()

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
