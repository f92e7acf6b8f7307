package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/yourorg/skillgen/internal/secrets"
	"github.com/yourorg/skillgen/internal/validate"
	"github.com/yourorg/skillgen/pkg/types"
)

// IndexTarget is the index document's file name in segmented mode; in
// single mode the whole skill lives in this one file.
const IndexTarget = "SKILL.md"

// TargetResult is the outcome of one target's draft/validate/repair cycle.
// A target that exhausts its repair budget keeps its last document and the
// unresolved diagnostics; it never fabricates success.
type TargetResult struct {
	Name        string             `json:"name"`
	Content     string             `json:"content"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
	Attempts    int                `json:"attempts"`
	Valid       bool               `json:"valid"`
}

// RunResult collects per-segment results plus the index document.
type RunResult struct {
	Targets []TargetResult
	Index   TargetResult
}

// DraftCache lets a run reuse drafts that already validated in an earlier
// attempt and persist new ones. Implementations must be safe for
// concurrent use.
type DraftCache interface {
	Lookup(target string) (TargetResult, bool)
	Store(res TargetResult)
}

// Orchestrator sequences draft generation, validation and bounded repair.
type Orchestrator struct {
	Gen         Generator
	Workers     int
	MaxRepairs  int
	TokenBudget int
	WatchEnv    []string
	Cache       DraftCache
	Logger      *slog.Logger
}

// RunSingle produces and validates one document covering the whole IR.
func (o *Orchestrator) RunSingle(ctx context.Context, ir *types.SpecIR) (TargetResult, error) {
	base := BuildDocumentPrompt(ir, o.TokenBudget)
	check := func(doc string) []types.Diagnostic {
		diags := validate.ValidateDocument(ir, doc)
		return append(diags, secrets.Scan(doc, o.WatchEnv)...)
	}
	return o.runTarget(ctx, IndexTarget, base, check)
}

// RunSegmented runs one cycle per segment with bounded concurrency, then
// generates the index. The index comes last by design: its contract depends
// on the final per-segment operation-id assignments, which are fixed before
// any generation starts, but consuming generator replies for it first would
// break deterministic scripted runs.
func (o *Orchestrator) RunSegmented(ctx context.Context, ir *types.SpecIR, segments []types.Segment) (RunResult, error) {
	coverage := validate.CheckCoverage(ir, segments)
	if types.HasErrors(coverage) {
		// a broken partition cannot be repaired by re-prompting
		return RunResult{Index: TargetResult{Name: IndexTarget, Diagnostics: coverage}},
			fmt.Errorf("segmentation does not cover the operation set")
	}

	results := make([]TargetResult, len(segments))
	workers := o.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(segments) {
		workers = len(segments)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// fixed pool of workers draining a shared cursor keeps resource usage
	// bounded independent of segment count
	var cursor atomic.Int64
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if runCtx.Err() != nil {
					return
				}
				i := int(cursor.Add(1)) - 1
				if i >= len(segments) {
					return
				}
				seg := segments[i]
				res, err := o.runSegment(runCtx, ir, seg)
				if err != nil {
					fail(err)
					return
				}
				results[i] = res
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return RunResult{}, firstErr
	}

	base := BuildIndexPrompt(ir, segments)
	check := func(doc string) []types.Diagnostic {
		diags := append([]types.Diagnostic(nil), coverage...)
		diags = append(diags, validate.ValidateIndex(segments, doc)...)
		return append(diags, secrets.Scan(doc, o.WatchEnv)...)
	}
	index, err := o.runTarget(ctx, IndexTarget, base, check)
	if err != nil {
		return RunResult{}, err
	}
	return RunResult{Targets: results, Index: index}, nil
}

func (o *Orchestrator) runSegment(ctx context.Context, ir *types.SpecIR, seg types.Segment) (TargetResult, error) {
	subIR := &types.SpecIR{
		Title:           ir.Title,
		Version:         ir.Version,
		Servers:         ir.Servers,
		SecuritySchemes: ir.SecuritySchemes,
		Operations:      seg.Operations,
		Schemas:         seg.Schemas,
	}
	base := BuildSegmentPrompt(ir, seg, o.TokenBudget)
	check := func(doc string) []types.Diagnostic {
		diags := validate.ValidateDocument(subIR, doc)
		return append(diags, secrets.Scan(doc, o.WatchEnv)...)
	}
	return o.runTarget(ctx, seg.FilePath, base, check)
}

// runTarget drives Draft -> Validate -> (done | Repair -> Validate -> ...),
// bounded by MaxRepairs. Transport failures (including an empty completion)
// abort immediately; only structural-contract failures re-prompt.
func (o *Orchestrator) runTarget(ctx context.Context, name, basePrompt string, check func(string) []types.Diagnostic) (TargetResult, error) {
	if o.Cache != nil {
		if cached, ok := o.Cache.Lookup(name); ok && cached.Valid {
			o.logf("reusing cached draft", name, cached.Attempts, 0)
			return cached, nil
		}
	}
	res := TargetResult{Name: name}
	prompt := basePrompt
	for attempt := 0; ; attempt++ {
		doc, err := o.Gen.Complete(ctx, prompt)
		if err != nil {
			return res, fmt.Errorf("generate %s: %w", name, err)
		}
		res.Content = doc
		res.Attempts = attempt + 1
		res.Diagnostics = check(doc)
		if !types.HasErrors(res.Diagnostics) {
			res.Valid = true
			o.logf("target validated", name, attempt+1, 0)
			if o.Cache != nil {
				o.Cache.Store(res)
			}
			return res, nil
		}
		if attempt >= o.MaxRepairs {
			o.logf("repair budget exhausted", name, attempt+1, len(types.Errors(res.Diagnostics)))
			if o.Cache != nil {
				o.Cache.Store(res)
			}
			return res, nil
		}
		o.logf("repairing target", name, attempt+1, len(types.Errors(res.Diagnostics)))
		prompt = BuildRepairPrompt(basePrompt, doc, types.Errors(res.Diagnostics))
	}
}

func (o *Orchestrator) logf(msg, target string, attempt, errs int) {
	if o.Logger == nil {
		return
	}
	o.Logger.Info(msg, "target", target, "attempt", attempt, "errors", errs)
}
