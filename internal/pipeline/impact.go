package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"aotbridge/internal/analysis"
	"aotbridge/internal/git"
	"aotbridge/internal/graph"
	"aotbridge/internal/storage"
)

// ImpactResult lists what a working-tree change touches.
type ImpactResult struct {
	BaseRef string
	Changes []git.ChangedFile
	Report  *analysis.ImpactReport

	// Adapters are the registrations of the last successful run whose
	// owner type is affected. BaselineRun is empty when no run exists.
	Adapters    []storage.RegistrationRecord
	BaselineRun string
}

// changedFiles is swapped in tests.
var changedFiles = git.GetChangedFiles

// Impact diffs the project root against baseRef and reports the affected
// types, together with the previously generated adapters that would change.
func (p *Pipeline) Impact(ctx context.Context, baseRef string) (*ImpactResult, error) {
	if baseRef == "" {
		baseRef = "HEAD"
	}
	changes, err := changedFiles(p.cfg.Project.Root, baseRef)
	if err != nil {
		return nil, err
	}

	c, err := p.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	cr, err := p.Resolvers(c)
	if err != nil {
		return nil, err
	}
	g := graph.Build(c, cr)

	res := &ImpactResult{
		BaseRef: baseRef,
		Changes: changes,
		Report:  analysis.NewAnalyzer(g).WithRoot(p.cfg.Project.Root).AnalyzeImpact(changes),
	}
	p.logger.Info("analyzed impact",
		slog.Int("changed_files", len(changes)),
		slog.Int("direct", len(res.Report.DirectlyAffected)),
		slog.Int("indirect", len(res.Report.IndirectlyAffected)),
	)

	if p.cfg.Store.Disabled && p.store == nil {
		return res, nil
	}
	run, err := p.baseline(ctx)
	switch {
	case errors.Is(err, storage.ErrRunNotFound):
		return res, nil
	case err != nil:
		p.logger.Warn("ledger unavailable", slog.String("error", err.Error()))
		return res, nil
	}

	res.BaselineRun = run.ID
	affected := res.Report.Affected()
	for _, r := range run.Registrations {
		if affected[r.Owner] {
			res.Adapters = append(res.Adapters, r)
		}
	}
	return res, nil
}

// baseline loads the most recent successful run.
func (p *Pipeline) baseline(ctx context.Context) (*storage.Run, error) {
	store, closeStore, err := p.openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore()

	runs, err := store.ListRuns(ctx, 50)
	if err != nil {
		return nil, err
	}
	for _, r := range runs {
		if r.Status == storage.StatusSucceeded {
			return store.LoadRun(ctx, r.ID)
		}
	}
	return nil, storage.ErrRunNotFound
}
