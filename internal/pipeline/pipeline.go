// Package pipeline runs one generation pass: scan, resolve, emit, write,
// record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"aotbridge/internal/bridge"
	"aotbridge/internal/builder"
	"aotbridge/internal/catalog"
	"aotbridge/internal/config"
	"aotbridge/internal/crawler"
	"aotbridge/internal/diag"
	"aotbridge/internal/discover"
	"aotbridge/internal/extractor"
	"aotbridge/internal/graph"
	"aotbridge/internal/index"
	"aotbridge/internal/resolver"
	"aotbridge/internal/storage"
)

type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.Store
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithStore records runs in s instead of opening the configured ledger.
func WithStore(s storage.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Result is what one pass produced.
type Result struct {
	RunID       string
	Catalog     *catalog.Catalog
	Graph       *graph.Graph
	Requests    []discover.Request
	Results     []discover.Result
	Handles     []*bridge.Registration
	Output      *bridge.Output
	ManagedPath string
	NativePath  string

	// Problems lists every construction problem found by Check.
	Problems []string
}

// Run executes a full generation pass with cfg.
func Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	return New(cfg).Generate(ctx)
}

// Generate produces both artifacts and records the run. On error neither
// artifact is written.
func (p *Pipeline) Generate(ctx context.Context) (*Result, error) {
	run := storage.NewRun(p.cfg.Project.Root)
	logger := p.logger.With(slog.String("run", run.ID))
	start := time.Now()

	res, err := p.generate(ctx, logger)
	if res == nil {
		res = &Result{}
	}
	res.RunID = run.ID
	if err == nil {
		res.ManagedPath = p.cfg.ResolvePath(p.cfg.Output.Managed)
		res.NativePath = p.cfg.ResolvePath(p.cfg.Output.Native)
		err = p.writeStage(ctx, res)
	}

	run.Finish(err)
	p.recordStage(ctx, logger, run, res)

	if err != nil {
		logger.Error("generation failed", slog.String("error", err.Error()))
		return res, err
	}
	logger.Info("generation finished",
		slog.Int("adapters", len(res.Handles)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func (p *Pipeline) generate(ctx context.Context, logger *slog.Logger) (*Result, error) {
	c, err := p.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Catalog: c}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	cr, err := p.Resolvers(c)
	if err != nil {
		return res, err
	}
	res.Graph = graph.Build(c, cr)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	reqs, err := discover.Discover(c)
	if err != nil {
		return res, err
	}
	res.Requests = reqs
	logger.Debug("discovered bridge requests", slog.Int("requests", len(reqs)))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	gen := bridge.NewGenerator(builder.New(cr), p.bridgeOptions())
	results, err := discover.Apply(gen, reqs)
	if err != nil {
		return res, err
	}
	res.Results = results

	out, err := gen.Render()
	if err != nil {
		return res, err
	}
	res.Output = out
	res.Handles = gen.Registry().Registrations()
	logger.Info("rendered bridge",
		slog.Int("registrations", gen.Registry().Len()),
		slog.Int("workers", len(gen.Workers())),
	)
	return res, nil
}

// Check resolves everything Generate would, without writing. Construction
// problems across the whole program are collected into Result.Problems;
// the returned error is set only when checking could not run.
func (p *Pipeline) Check(ctx context.Context) (*Result, error) {
	c, err := p.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	res := &Result{Catalog: c}

	cr, err := p.Resolvers(c)
	if err != nil {
		res.Problems = append(res.Problems, err.Error())
		return res, nil
	}
	res.Graph = graph.Build(c, cr)
	for _, u := range res.Graph.Unresolved {
		res.Problems = append(res.Problems, u.Message)
	}

	reqs, err := discover.Discover(c)
	if err != nil {
		res.Problems = append(res.Problems, err.Error())
		return res, nil
	}
	res.Requests = reqs

	// Graph problems already cover construction failures; signature
	// problems only show up when registering.
	gen := bridge.NewGenerator(builder.New(cr), p.bridgeOptions())
	for _, r := range reqs {
		if _, err := discover.Apply(gen, []discover.Request{r}); err != nil && !containsMessage(res.Problems, err.Error()) {
			res.Problems = append(res.Problems, err.Error())
		}
	}
	return res, nil
}

func containsMessage(msgs []string, m string) bool {
	for _, x := range msgs {
		if x == m {
			return true
		}
	}
	return false
}

// LoadCatalog builds the linked catalog from the configured manifest, or
// by scanning the project root for C# sources.
func (p *Pipeline) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	if p.cfg.Project.Manifest != "" {
		path := p.cfg.ResolvePath(p.cfg.Project.Manifest)
		c, err := catalog.LoadManifest(path)
		if err != nil {
			return nil, err
		}
		p.logger.Info("loaded manifest", slog.String("path", path), slog.Int("types", c.Len()))
		return c, nil
	}

	idx, err := p.Indexer()
	if err != nil {
		return nil, err
	}
	cat, err := idx.BuildCatalog(ctx, p.cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", p.cfg.Project.Root, err)
	}
	p.logger.Info("scanned project", slog.String("root", p.cfg.Project.Root), slog.Int("types", cat.Len()))
	return cat, nil
}

// Indexer returns a C# source indexer logging through the pipeline logger.
func (p *Pipeline) Indexer() (*index.Indexer, error) {
	ext, err := extractor.NewExtractor("csharp")
	if err != nil {
		return nil, err
	}
	return index.NewIndexer(crawler.NewCrawler(ext).WithLogger(p.logger)), nil
}

// Resolvers builds the resolver stack for c. Multiple configuration roots
// fail here, before any code is generated.
func (p *Pipeline) Resolvers(c *catalog.Catalog) (*resolver.ConstructorResolver, error) {
	root, err := resolver.NewRootConfigResolver(c, p.cfg.Bridge.ConfigAccessor)
	if err != nil {
		return nil, err
	}
	var chain *resolver.ConfigResolverChain
	if len(p.cfg.Bridge.ConfigAccess) > 0 {
		chain = resolver.NewConfigResolverChain(root, resolver.NewStaticConfigResolver(p.cfg.Bridge.ConfigAccess))
	} else {
		chain = resolver.NewConfigResolverChain(root)
	}
	return resolver.NewConstructorResolver(resolver.NewInterfaceResolverForCatalog(c), chain), nil
}

func (p *Pipeline) bridgeOptions() bridge.Options {
	tm := bridge.DefaultTypeMap()
	for managed, native := range p.cfg.Bridge.NativeTypes {
		tm.Add(managed, native)
	}
	return bridge.Options{
		Namespace: p.cfg.Bridge.Namespace,
		Class:     p.cfg.Bridge.Class,
		Table:     p.cfg.Bridge.Table,
		Guard:     p.cfg.Bridge.Guard,
		TypeMap:   tm,
	}
}

func (p *Pipeline) writeStage(ctx context.Context, res *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAll([]outputFile{
		{Path: res.ManagedPath, Content: res.Output.Managed},
		{Path: res.NativePath, Content: res.Output.Native},
	})
}

// recordStage writes the run to the ledger. Ledger failures are logged and
// never change the outcome of the run.
func (p *Pipeline) recordStage(ctx context.Context, logger *slog.Logger, run *storage.Run, res *Result) {
	if p.cfg.Store.Disabled && p.store == nil {
		return
	}
	store, closeStore, err := p.openStore()
	if err != nil {
		logger.Warn("ledger unavailable", slog.String("error", err.Error()))
		return
	}
	defer closeStore()

	// Use a context that outlives cancellation so failed runs are recorded.
	ctx = context.WithoutCancel(ctx)

	fillRun(run, res)
	if err := store.SaveRun(ctx, run); err != nil {
		logger.Warn("failed to record run", slog.String("error", err.Error()))
		return
	}
	if res.Graph != nil {
		if err := store.SaveGraph(ctx, run.ID, res.Graph); err != nil {
			logger.Warn("failed to record graph", slog.String("error", err.Error()))
		}
	}
}

// openStore returns the injected store, or opens the configured ledger.
// The returned func closes only what openStore opened.
func (p *Pipeline) openStore() (storage.Store, func(), error) {
	if p.store != nil {
		return p.store, func() {}, nil
	}
	path := p.cfg.ResolvePath(p.cfg.Store.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	s, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	return s, func() { _ = s.Close() }, nil
}

func fillRun(run *storage.Run, res *Result) {
	if run.Status == storage.StatusSucceeded {
		run.ManagedPath = res.ManagedPath
		run.NativePath = res.NativePath
	}
	if res.Catalog != nil {
		for _, t := range res.Catalog.Types() {
			markers := map[string]string{}
			if t.Markers.ReplacesInterface != "" {
				markers["replaces_interface"] = t.Markers.ReplacesInterface
			}
			if t.Markers.ConfigurationRoot {
				markers["configuration_root"] = strconv.FormatBool(true)
			}
			if t.Markers.Worker {
				markers["worker"] = strconv.FormatBool(true)
			}
			if len(markers) == 0 {
				markers = nil
			}
			run.Types = append(run.Types, storage.TypeRecord{
				Name:     t.Name,
				Kind:     string(t.Kind),
				File:     t.Pos.File,
				Line:     t.Pos.Line,
				Abstract: t.Abstract,
				Markers:  markers,
			})
		}
	}
	for _, r := range res.Results {
		if r.Factory != nil {
			run.Workers = append(run.Workers, storage.WorkerRecord{Factory: r.Factory.Name, Type: r.Factory.Type.Name})
		}
	}
	for _, reg := range res.Handles {
		run.Registrations = append(run.Registrations, storage.RegistrationRecord{
			Handle:   reg.Handle,
			Adapter:  reg.Adapter.Name,
			Owner:    reg.Adapter.Owner.Name,
			Method:   reg.Adapter.Method.Name,
			Template: string(reg.Template),
		})
	}
}

// IsDiagnostic reports whether err is a programming-model error of the
// consuming application rather than an operational failure.
func IsDiagnostic(err error) bool {
	_, ok := diag.As(err)
	return ok
}
