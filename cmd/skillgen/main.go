package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/yourorg/skillgen/internal/config"
	"github.com/yourorg/skillgen/internal/generator"
	"github.com/yourorg/skillgen/internal/secrets"
	"github.com/yourorg/skillgen/internal/segment"
	"github.com/yourorg/skillgen/internal/server"
	"github.com/yourorg/skillgen/internal/spec"
	"github.com/yourorg/skillgen/internal/store"
	"github.com/yourorg/skillgen/internal/validate"
	"github.com/yourorg/skillgen/pkg/types"
)

const defaultConfigContent = `llm:
  provider: "openai"
  api_key: ""
  base_url: "https://api.openai.com/v1"
  model: "gpt-4o"
  max_tokens: 8192
  temperature: 0.2

output:
  dir: "./skill"
  keep_invalid: false

generate:
  workers: 3
  max_repairs: 3
  segment_from: 20
  sequential: false

filter:
  ignore_paths: []
  ignore_tags: []
  skip_deprecated: false

secrets:
  watch_env:
    - OPENAI_API_KEY
    - ANTHROPIC_API_KEY
    - SKILLGEN_LLM_API_KEY

server:
  host: "127.0.0.1"
  port: 3000

log:
  level: "info"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "skillgen",
		Short: "Generate agent skill files from OpenAPI descriptions",
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")

	root.AddCommand(newInitCmd())
	root.AddCommand(newGenerateCmd(&cfgPath))
	root.AddCommand(newValidateCmd(&cfgPath))
	root.AddCommand(newSegmentsCmd(&cfgPath))
	root.AddCommand(newServeCmd(&cfgPath))
	root.AddCommand(newListCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newDeleteCmd())

	return root
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.skillgen directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			baseDir := filepath.Join(home, ".skillgen")
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return err
			}

			cfgFile := filepath.Join(baseDir, "config.yaml")
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database ready")
			fmt.Fprintln(cmd.OutOrStdout(), "please update llm.api_key in", cfgFile)
			return nil
		},
	}
}

func newGenerateCmd(cfgPath *string) *cobra.Command {
	var specPath, outDir string
	var segmented, noCache, resume, keepInvalid bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate skill files from an OpenAPI description",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Output.Dir = outDir
			}
			if keepInvalid {
				cfg.Output.KeepInvalid = true
			}
			if err := cfg.ValidateGenerate(); err != nil {
				return err
			}
			return runGenerate(cmd, cfg, specPath, segmented, noCache, resume)
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "OpenAPI description path (YAML or JSON)")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory (overrides config)")
	cmd.Flags().BoolVar(&segmented, "segmented", false, "force segmented output")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore drafts from earlier runs")
	cmd.Flags().BoolVar(&resume, "resume", false, "reuse validated drafts from the latest run of this description")
	cmd.Flags().BoolVar(&keepInvalid, "keep-invalid", false, "write targets that failed validation too")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, specPath string, segmented, noCache, resume bool) error {
	logger := newLogger(cfg.Log.Level)
	ir, err := buildIR(cmd, cfg, specPath)
	if err != nil {
		return err
	}

	mode := "single"
	var segments []types.Segment
	if segmented || len(ir.Operations) >= cfg.Generate.SegmentFrom {
		mode = "segmented"
		segments = segment.Build(ir)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	targets := 1
	if mode == "segmented" {
		targets = len(segments) + 1
	}
	run, err := st.CreateRun(specPath, ir.Title, mode, targets)
	if err != nil {
		return err
	}
	logger.Info("run created", "id", run.ID, "mode", mode, "targets", targets)

	cache := &draftCache{store: st, runID: run.ID, model: cfg.LLM.Model}
	if !noCache && resume {
		if prev := latestRunFor(st, specPath, run.ID); prev != "" {
			cache.resumeID = prev
			logger.Info("resuming from run", "id", prev)
		}
	}

	workers := cfg.Generate.Workers
	if cfg.Generate.Sequential {
		workers = 1
	}
	orch := &generator.Orchestrator{
		Gen: &generator.Client{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
			Logger:      logger,
		},
		Workers:     workers,
		MaxRepairs:  cfg.Generate.MaxRepairs,
		TokenBudget: cfg.LLM.MaxTokens,
		WatchEnv:    cfg.Secrets.WatchEnv,
		Cache:       cache,
		Logger:      logger,
	}

	ctx := cmd.Context()
	var results []generator.TargetResult
	if mode == "segmented" {
		out, err := orch.RunSegmented(ctx, ir, segments)
		if err != nil {
			_ = st.UpdateRunStatus(run.ID, "failed")
			printDiagnostics(cmd, out.Index.Diagnostics)
			return err
		}
		results = append(out.Targets, out.Index)
	} else {
		res, err := orch.RunSingle(ctx, ir)
		if err != nil {
			_ = st.UpdateRunStatus(run.ID, "failed")
			return err
		}
		results = []generator.TargetResult{res}
	}

	written, err := generator.WriteArtifacts(cfg.Output.Dir, results, cfg.Output.KeepInvalid)
	if err != nil {
		_ = st.UpdateRunStatus(run.ID, "failed")
		return err
	}

	allValid := true
	for _, res := range results {
		if !res.Valid {
			allValid = false
			fmt.Fprintf(cmd.OutOrStdout(), "target %s failed validation after %d attempts:\n", res.Name, res.Attempts)
			printDiagnostics(cmd, res.Diagnostics)
		}
	}
	status := "completed"
	if !allValid {
		status = "partial"
	}
	if err := st.UpdateRunStatus(run.ID, status); err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
	}
	if !allValid {
		return fmt.Errorf("run %s finished with invalid targets", run.ID)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "run", run.ID, "completed")
	return nil
}

func newValidateCmd(cfgPath *string) *cobra.Command {
	var specPath string
	cmd := &cobra.Command{
		Use:   "validate <artifact file or directory>",
		Short: "Validate existing skill files against an OpenAPI description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			ir, err := buildIR(cmd, cfg, specPath)
			if err != nil {
				return err
			}
			diags, err := validateArtifacts(ir, cfg, args[0])
			if err != nil {
				return err
			}
			printDiagnostics(cmd, diags)
			if types.HasErrors(diags) {
				return fmt.Errorf("%d validation errors", len(types.Errors(diags)))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "OpenAPI description path (YAML or JSON)")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func validateArtifacts(ir *types.SpecIR, cfg *config.Config, path string) ([]types.Diagnostic, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		diags := validate.ValidateDocument(ir, string(data))
		return append(diags, secrets.Scan(string(data), cfg.Secrets.WatchEnv)...), nil
	}

	segments := segment.Build(ir)
	diags := validate.CheckCoverage(ir, segments)
	for _, seg := range segments {
		data, err := os.ReadFile(filepath.Join(path, filepath.FromSlash(seg.FilePath)))
		if err != nil {
			diags = append(diags, types.Errorf("ARTIFACT_MISSING", fmt.Sprintf("cannot read %s: %v", seg.FilePath, err)))
			continue
		}
		subIR := &types.SpecIR{
			Title:           ir.Title,
			Version:         ir.Version,
			Servers:         ir.Servers,
			SecuritySchemes: ir.SecuritySchemes,
			Operations:      seg.Operations,
			Schemas:         seg.Schemas,
		}
		diags = append(diags, validate.ValidateDocument(subIR, string(data))...)
		diags = append(diags, secrets.Scan(string(data), cfg.Secrets.WatchEnv)...)
	}
	data, err := os.ReadFile(filepath.Join(path, generator.IndexTarget))
	if err != nil {
		diags = append(diags, types.Errorf("ARTIFACT_MISSING", fmt.Sprintf("cannot read %s: %v", generator.IndexTarget, err)))
	} else {
		diags = append(diags, validate.ValidateIndex(segments, string(data))...)
		diags = append(diags, secrets.Scan(string(data), cfg.Secrets.WatchEnv)...)
	}
	return types.Dedupe(diags), nil
}

func newSegmentsCmd(cfgPath *string) *cobra.Command {
	var specPath string
	cmd := &cobra.Command{
		Use:   "segments",
		Short: "Show the segment plan for an OpenAPI description",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			ir, err := buildIR(cmd, cfg, specPath)
			if err != nil {
				return err
			}
			segments := segment.Build(ir)
			for _, seg := range segments {
				fmt.Fprintf(cmd.OutOrStdout(), "%-30s %-40s %3d operations %3d schemas\n",
					seg.Title, seg.FilePath, len(seg.Operations), len(seg.Schemas))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d segments, %d operations total\n", len(segments), len(ir.Operations))
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "OpenAPI description path (YAML or JSON)")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func newServeCmd(cfgPath *string) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generated skill files and run history over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			srv, err := server.New(cfg, st)
			if err != nil {
				return err
			}
			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			fmt.Fprintln(cmd.OutOrStdout(), "listening on", addr)
			return srv.ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "server host")
	cmd.Flags().IntVar(&port, "port", 0, "server port")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List generation runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			runs, err := st.ListRuns()
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %-10s %-10s %3d targets  %s\n",
					r.ID, r.Mode, r.Status, r.Targets, r.Title)
			}
			return nil
		},
	}
}

func newShowCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one run and its drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			run, err := st.GetRun(runID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  mode=%s status=%s targets=%d\n",
				run.ID, run.Title, run.Mode, run.Status, run.Targets)
			drafts, err := st.GetDrafts(runID)
			if err != nil {
				return err
			}
			sort.Slice(drafts, func(i, j int) bool { return drafts[i].Target < drafts[j].Target })
			for _, d := range drafts {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-40s %-8s attempts=%d len=%d\n",
					d.Target, d.Status, d.Attempts, len(d.Content))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a run and its drafts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.DeleteRun(runID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", runID)
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

// buildIR loads, compiles and filters the description, printing loader
// warnings as it goes.
func buildIR(cmd *cobra.Command, cfg *config.Config, specPath string) (*types.SpecIR, error) {
	doc, diags, err := spec.Load(specPath)
	printDiagnostics(cmd, diags)
	if err != nil {
		return nil, err
	}
	ir, err := spec.Compile(doc)
	if err != nil {
		return nil, err
	}
	ir = spec.FilterOperations(ir, cfg.Filter)
	if len(ir.Operations) == 0 {
		return nil, errors.New("no operations remain after filtering")
	}
	return ir, nil
}

func openStore() (store.Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	baseDir := filepath.Join(home, ".skillgen")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(filepath.Join(baseDir, "skillgen.db"))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func printDiagnostics(cmd *cobra.Command, diags []types.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", d.Level, d.Code, d.Message)
	}
}

// latestRunFor returns the most recent earlier run for the same source, or
// "" when there is none.
func latestRunFor(st store.Store, source, excludeID string) string {
	runs, err := st.ListRuns()
	if err != nil {
		return ""
	}
	for _, r := range runs {
		if r.ID != excludeID && r.Source == source {
			return r.ID
		}
	}
	return ""
}

// draftCache persists target results as drafts of the current run and, when
// resuming, serves validated drafts recorded under an earlier run.
type draftCache struct {
	store    store.Store
	runID    string
	resumeID string
	model    string
	mu       sync.Mutex
}

func (c *draftCache) Lookup(target string) (generator.TargetResult, bool) {
	if c.resumeID == "" {
		return generator.TargetResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	d, err := c.store.GetDraft(c.resumeID, target)
	if err != nil {
		return generator.TargetResult{}, false
	}
	if d.Status != "valid" {
		return generator.TargetResult{}, false
	}
	res := generator.TargetResult{Name: target, Content: d.Content, Attempts: d.Attempts, Valid: true}
	if d.Diagnostics != "" {
		_ = json.Unmarshal([]byte(d.Diagnostics), &res.Diagnostics)
	}
	// carry the draft forward into the current run
	_ = c.store.SaveDraft(&types.Draft{
		RunID: c.runID, Target: target, Attempts: d.Attempts,
		Status: d.Status, Content: d.Content, Diagnostics: d.Diagnostics, Model: d.Model,
	})
	return res, true
}

func (c *draftCache) Store(res generator.TargetResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status := "invalid"
	if res.Valid {
		status = "valid"
	}
	diags, _ := json.Marshal(res.Diagnostics)
	_ = c.store.SaveDraft(&types.Draft{
		RunID: c.runID, Target: res.Name, Attempts: res.Attempts,
		Status: status, Content: res.Content, Diagnostics: string(diags), Model: c.model,
	})
}
