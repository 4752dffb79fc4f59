// Package commands implements CLI command handlers for impsort.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/impsort/internal/config"
	"github.com/Sumatoshi-tech/impsort/internal/observability"
	"github.com/Sumatoshi-tech/impsort/internal/walker"
	"github.com/Sumatoshi-tech/impsort/pkg/impsort"
	"github.com/Sumatoshi-tech/impsort/pkg/javasyntax"
)

type fileDiscoverer func(ctx context.Context, roots []string, opts walker.Options, log *slog.Logger) ([]string, error)

type observabilityInitializer func(cfg observability.Config) (observability.Providers, error)

// runMode selects what happens to files whose imports are out of order.
type runMode int

const (
	// modeWrite rewrites unsorted files in place.
	modeWrite runMode = iota

	// modeCheck reports unsorted files and exits non-zero.
	modeCheck

	// modeDiff prints the rewrite as a diff and leaves files untouched.
	modeDiff
)

const (
	runSpanName       = "impsort.run"
	attrError         = "error"
	attrDurationClass = "impsort.duration_class"

	tmpExtension = ".tmp"
)

const (
	durationClassFast   = "fast"
	durationClassNormal = "normal"
	durationClassSlow   = "slow"

	durationClassFastLimit   = 10 * time.Second
	durationClassNormalLimit = time.Minute
)

var (
	// ErrFilesFailed aggregates per-file failures; details are in the run output.
	ErrFilesFailed = errors.New("some files could not be processed")
	// ErrCheckFailed is the check-mode exit condition for unsorted files.
	ErrCheckFailed = errors.New(
		"import declarations are not sorted.\n" +
			"Run 'impsort run' without --check to rewrite the files",
	)
	// ErrUnknownFormat indicates a --format value outside text, json, yaml.
	ErrUnknownFormat = errors.New("unknown output format: use text, json, or yaml")
	// ErrDiffRequiresText rejects --diff combined with a structured format.
	ErrDiffRequiresText = errors.New("--diff produces text output: drop --format or set it to text")
)

// RunCommand holds configuration and dependencies for the run command.
type RunCommand struct {
	check   bool
	diff    bool
	summary bool
	format  string
	silent  bool
	noColor bool
	path    string

	workers         int
	maxFileSize     string
	includeVendored bool

	groups           string
	staticGroups     string
	staticAfter      bool
	joinStatic       bool
	separateGroups   bool
	firstMatchWins   bool
	unmatchedFirst   bool
	breadthFirst     bool
	lineEnding       string
	removeUnused     bool
	treatSamePackage bool

	debugTrace bool

	discover fileDiscoverer
	obsInit  observabilityInitializer
}

// NewRunCommand creates the batch sorting command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithDeps(discoverSourceFiles, observability.Init)
}

func newRunCommandWithDeps(discover fileDiscoverer, obsInit observabilityInitializer) *cobra.Command {
	rc := &RunCommand{
		format:   formatText,
		discover: discover,
		obsInit:  obsInit,
	}

	cmd := &cobra.Command{
		Use:   "run [paths...]",
		Short: "Sort Java import declarations",
		Long:  "Sort the import declarations of Java source files in place, or report files that need it.",
		Args:  cobra.ArbitraryArgs,
		RunE:  rc.run,
	}

	cmd.Flags().BoolVar(&rc.check, "check", false, "Report unsorted files without rewriting; exit non-zero when any are found")
	cmd.Flags().BoolVar(&rc.diff, "diff", false, "Print the rewrite as a diff without touching files")
	cmd.Flags().BoolVar(&rc.summary, "summary", false, "Print a per-file summary table instead of status lines")
	cmd.Flags().StringVar(&rc.format, "format", formatText, "Output format: text, json, yaml")
	cmd.Flags().BoolVar(&rc.silent, "silent", false, "Disable progress output")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVarP(&rc.path, "path", "p", ".", "Folder to process when no paths are given")

	cmd.Flags().IntVar(&rc.workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
	cmd.Flags().StringVar(&rc.maxFileSize, "max-file-size", "", "Skip files larger than this size (e.g. '2MB')")
	cmd.Flags().BoolVar(&rc.includeVendored, "include-vendored", false, "Process files inside vendored directories")

	cmd.Flags().StringVar(&rc.groups, "groups", "", "Comma separated group prefixes (e.g. 'java.,javax.,org.,com.')")
	cmd.Flags().StringVar(&rc.staticGroups, "static-groups", "", "Comma separated group prefixes for static imports")
	cmd.Flags().BoolVar(&rc.staticAfter, "static-after", false, "Place static imports after non-static ones")
	cmd.Flags().BoolVar(&rc.joinStatic, "join-static", false, "Order static imports together with non-static ones")
	cmd.Flags().BoolVar(&rc.separateGroups, "separate-groups", true, "Separate import groups with blank lines")
	cmd.Flags().BoolVar(&rc.firstMatchWins, "first-match-wins", false, "Assign imports to the first matching group instead of the longest match")
	cmd.Flags().BoolVar(&rc.unmatchedFirst, "unmatched-first", false, "Place unmatched imports before the matched groups")
	cmd.Flags().BoolVar(&rc.breadthFirst, "breadth-first", false, "Order imports by package depth before name")
	cmd.Flags().StringVar(&rc.lineEnding, "line-ending", "", "Line ending policy: auto, keep, lf, crlf, cr")
	cmd.Flags().BoolVar(&rc.removeUnused, "remove-unused", false, "Remove imports the file never references")
	cmd.Flags().BoolVar(&rc.treatSamePackage, "treat-same-package-as-unused", false, "Treat imports from the file's own package as unused")

	cmd.Flags().BoolVar(&rc.debugTrace, "debug-trace", false, "Force full trace sampling")

	cmd.MarkFlagsMutuallyExclusive("check", "diff")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) error {
	validateErr := rc.validateFlags()
	if validateErr != nil {
		return validateErr
	}

	if rc.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global
	}

	cfg, err := rc.loadRunConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := rc.obsInit(rc.observabilityConfig(cmd, cfg))
	if err != nil {
		return err
	}

	defer func() {
		if providers.Shutdown == nil {
			return
		}

		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providersLogger(providers).Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	ctx := cmd.Context()

	var span trace.Span
	if providers.Tracer != nil {
		ctx, span = providers.Tracer.Start(ctx, runSpanName)
	}

	startedAt := time.Now()
	runErr := rc.execute(ctx, cmd, cfg, providers, args)

	if span != nil {
		span.SetAttributes(
			attribute.Bool(attrError, runErr != nil),
			attribute.String(attrDurationClass, durationClass(time.Since(startedAt))),
		)
		span.End()
	}

	return runErr
}

func (rc *RunCommand) execute(
	ctx context.Context,
	cmd *cobra.Command,
	cfg *config.Config,
	providers observability.Providers,
	args []string,
) error {
	log := providersLogger(providers)
	silent := rc.isSilent(cmd)
	progressWriter := cmd.ErrOrStderr()

	mode := rc.mode()
	roots := rc.resolveRoots(args)

	rc.progressf(silent, progressWriter, "starting run roots=%d mode=%s", len(roots), mode)

	maxSize, err := cfg.MaxFileSizeBytes()
	if err != nil {
		return err
	}

	discoverStarted := time.Now()

	files, err := rc.discover(ctx, roots, walker.Options{
		MaxFileSize:     maxSize,
		IncludeVendored: cfg.Run.IncludeVendored,
	}, log)
	if err != nil {
		return err
	}

	rc.progressf(silent, progressWriter, "discovered files: total=%d duration=%s",
		len(files), time.Since(discoverStarted).Round(time.Millisecond))

	if len(files) == 0 {
		rc.progressf(silent, progressWriter, "no Java files found")

		return nil
	}

	engines, err := buildEngines(cfg, min(cfg.WorkerCount(), len(files)), log)
	if err != nil {
		return err
	}

	sortStarted := time.Now()
	report := summarize(processFiles(ctx, engines, files, mode))

	rc.progressf(silent, progressWriter, "processed files: rewritten=%d unsorted=%d failed=%d duration=%s",
		report.Rewritten, report.Unsorted, report.Failed, time.Since(sortStarted).Round(time.Millisecond))

	recordRunMetrics(ctx, providers, report)

	writeErr := rc.writeOutput(report, cmd.OutOrStdout())
	if writeErr != nil {
		return writeErr
	}

	rc.progressf(silent, progressWriter, "run completed")

	return report.exitError(mode)
}

// processFiles fans the files out over one goroutine per engine. Workers
// write disjoint slice indexes, so the per-file order of the input is
// preserved without locking.
func processFiles(ctx context.Context, engines []*impsort.Engine, files []string, mode runMode) []fileReport {
	reports := make([]fileReport, len(files))
	jobs := make(chan int)

	var wg sync.WaitGroup

	wg.Add(len(engines))

	for _, engine := range engines {
		go func() {
			defer wg.Done()

			for idx := range jobs {
				reports[idx] = processFile(ctx, engine, files[idx], mode)
			}
		}()
	}

	for idx := range files {
		jobs <- idx
	}

	close(jobs)
	wg.Wait()

	return reports
}

func processFile(ctx context.Context, engine *impsort.Engine, path string, mode runMode) fileReport {
	startedAt := time.Now()
	report := fileReport{Path: path}

	defer func() {
		report.duration = time.Since(startedAt)
	}()

	content, readErr := os.ReadFile(path)
	if readErr != nil {
		report.Status = statusFailed
		report.Reason = readErr.Error()

		return report
	}

	result, sortErr := engine.Sort(ctx, path, content)
	if sortErr != nil {
		report.Status = statusFailed

		var classified *impsort.Error
		if errors.As(sortErr, &classified) {
			report.classified = true
			report.Reason = classified.Reason.String()
		} else {
			report.Reason = sortErr.Error()
		}

		return report
	}

	report.Imports = len(result.Imports())
	report.Removed = result.Removed()

	if result.IsSorted() {
		report.Status = statusSorted

		return report
	}

	switch mode {
	case modeCheck:
		report.Status = statusUnsorted
	case modeDiff:
		report.Status = statusUnsorted
		report.diff = renderDiff(path, string(content), string(result.Rewritten()))
	case modeWrite:
		writeErr := writeFileAtomic(path, result.Rewritten())
		if writeErr != nil {
			report.Status = statusFailed
			report.Reason = writeErr.Error()
		} else {
			report.Status = statusRewritten
		}
	}

	return report
}

// buildEngines creates one engine per worker. Engines hold a tree-sitter
// parser, which is not safe for concurrent use.
func buildEngines(cfg *config.Config, count int, log *slog.Logger) ([]*impsort.Engine, error) {
	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		return nil, err
	}

	engines := make([]*impsort.Engine, 0, count)

	for range count {
		parser, parserErr := javasyntax.NewParser()
		if parserErr != nil {
			return nil, fmt.Errorf("init java parser: %w", parserErr)
		}

		engine, engineErr := impsort.New(engineCfg, parser, log)
		if engineErr != nil {
			return nil, fmt.Errorf("create engine: %w", engineErr)
		}

		engines = append(engines, engine)
	}

	return engines, nil
}

// writeFileAtomic replaces path through a same-directory temp file and
// rename, keeping the original permissions.
func writeFileAtomic(path string, data []byte) error {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return fmt.Errorf("stat %s: %w", path, statErr)
	}

	tmpPath := path + tmpExtension

	writeErr := os.WriteFile(tmpPath, data, info.Mode().Perm())
	if writeErr != nil {
		return fmt.Errorf("write %s: %w", tmpPath, writeErr)
	}

	renameErr := os.Rename(tmpPath, path)
	if renameErr != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("replace %s: %w", path, renameErr)
	}

	return nil
}

func discoverSourceFiles(ctx context.Context, roots []string, opts walker.Options, log *slog.Logger) ([]string, error) {
	return walker.New(opts, log).Discover(ctx, roots)
}

func recordRunMetrics(ctx context.Context, providers observability.Providers, report *runReport) {
	if providers.Meter == nil {
		return
	}

	metrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		providersLogger(providers).Warn("run metrics unavailable", "error", err)

		return
	}

	metrics.RecordRun(ctx, report.stats())
}

func (rc *RunCommand) validateFlags() error {
	switch rc.format {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w (got %q)", ErrUnknownFormat, rc.format)
	}

	if rc.diff && rc.format != formatText {
		return ErrDiffRequiresText
	}

	return nil
}

func (rc *RunCommand) loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadFileConfig(cmd)
	if err != nil {
		return nil, err
	}

	rc.applyFlagOverrides(cmd, cfg)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

// applyFlagOverrides copies explicitly set flags over the file and
// environment configuration; unset flags leave it untouched.
func (rc *RunCommand) applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("groups") {
		cfg.Groups.Order = rc.groups
	}

	if flags.Changed("static-groups") {
		cfg.Groups.StaticOrder = rc.staticGroups
	}

	if flags.Changed("static-after") {
		cfg.Groups.StaticAfter = rc.staticAfter
	}

	if flags.Changed("join-static") {
		cfg.Groups.JoinStatic = rc.joinStatic
	}

	if flags.Changed("separate-groups") {
		cfg.Groups.Separate = rc.separateGroups
	}

	if flags.Changed("first-match-wins") {
		cfg.Groups.FirstMatchWins = rc.firstMatchWins
	}

	if flags.Changed("unmatched-first") {
		cfg.Groups.UnmatchedFirst = rc.unmatchedFirst
	}

	if flags.Changed("breadth-first") {
		cfg.Groups.BreadthFirst = rc.breadthFirst
	}

	if flags.Changed("line-ending") {
		cfg.LineEnding = rc.lineEnding
	}

	if flags.Changed("remove-unused") {
		cfg.Unused.Remove = rc.removeUnused
	}

	if flags.Changed("treat-same-package-as-unused") {
		cfg.Unused.TreatSamePackage = rc.treatSamePackage
	}

	if flags.Changed("workers") {
		cfg.Run.Workers = rc.workers
	}

	if flags.Changed("max-file-size") {
		cfg.Run.MaxFileSize = rc.maxFileSize
	}

	if flags.Changed("include-vendored") {
		cfg.Run.IncludeVendored = rc.includeVendored
	}
}

func (rc *RunCommand) observabilityConfig(cmd *cobra.Command, cfg *config.Config) observability.Config {
	obsCfg := telemetryConfig(cfg, observability.ModeCLI)
	obsCfg.LogJSON = strings.EqualFold(cfg.Telemetry.LogFormat, "json")
	obsCfg.DebugTrace = rc.debugTrace

	if rc.isVerbose(cmd) {
		obsCfg.LogLevel = slog.LevelDebug
	}

	return obsCfg
}

func (rc *RunCommand) mode() runMode {
	switch {
	case rc.diff:
		return modeDiff
	case rc.check:
		return modeCheck
	default:
		return modeWrite
	}
}

func (m runMode) String() string {
	switch m {
	case modeCheck:
		return "check"
	case modeDiff:
		return "diff"
	default:
		return "write"
	}
}

func (rc *RunCommand) resolveRoots(args []string) []string {
	if len(args) > 0 {
		return args
	}

	return []string{rc.path}
}

func (rc *RunCommand) isSilent(cmd *cobra.Command) bool {
	if rc.silent {
		return true
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

func (rc *RunCommand) isVerbose(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}

	return verbose
}

func (rc *RunCommand) progressf(silent bool, writer io.Writer, format string, args ...any) {
	if silent {
		return
	}

	_, _ = fmt.Fprintf(writer, "progress: "+format+"\n", args...)
}

func providersLogger(providers observability.Providers) *slog.Logger {
	if providers.Logger != nil {
		return providers.Logger
	}

	return slog.Default()
}

func durationClass(d time.Duration) string {
	switch {
	case d < durationClassFastLimit:
		return durationClassFast
	case d < durationClassNormalLimit:
		return durationClassNormal
	default:
		return durationClassSlow
	}
}
