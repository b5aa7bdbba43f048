// Package batch loads the standoff annotations of many documents.
//
// Each job names a document header. The header locates the primary text
// and one standoff file per annotation type. Files are parsed into one
// graph per document, dependencies first, and each file's annotations are
// flattened into an annotation set of the store. Documents are converted
// in parallel; a single document is always converted by one goroutine.
package batch

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/FocuswithJustin/grafstandoff/core/convert"
	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/grafxml"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
	"github.com/FocuswithJustin/grafstandoff/core/store"
	"github.com/FocuswithJustin/grafstandoff/core/text"
	"github.com/FocuswithJustin/grafstandoff/internal/fileio"
	"github.com/FocuswithJustin/grafstandoff/internal/logging"
	"github.com/FocuswithJustin/grafstandoff/internal/validation"
)

// DefaultHeaderCacheSize bounds the number of parsed resource headers kept.
const DefaultHeaderCacheSize = 64

// Job is one document to load.
type Job struct {
	// Header is the path of the document header.
	Header string

	// Types selects the annotation types to load. Empty loads every type
	// the header lists. Dependencies of a selected type are parsed but not
	// stored.
	Types []string

	// ResourceHeader overrides Options.ResourceHeader for this document.
	ResourceHeader string
}

// Options configures a Runner.
type Options struct {
	Policy  convert.Policy
	Workers int

	// ResourceHeader is the path of the corpus resource header declaring
	// annotation spaces. Optional.
	ResourceHeader string

	// SpaceTypeBase derives types for spaces declared without one.
	SpaceTypeBase string

	// StandoffSet names the annotation set records go to.
	StandoffSet string

	// PerTypeSets stores each annotation type in a set named after it
	// instead of StandoffSet.
	PerTypeSets bool

	// DefaultSpaceName is written as graf:set for annotations outside any
	// annotation space.
	DefaultSpaceName string

	// Store receives texts, records and metadata. When nil, records are
	// only returned in the report.
	Store *store.Store

	HeaderCacheSize int
}

// DocumentReport is the outcome of one job.
type DocumentReport struct {
	Path        string // document header
	Document    string // name the document is stored under
	Records     int
	Sets        map[string]*spans.Index
	Diagnostics convert.Diagnostics
	Err         error
}

// Report is the outcome of a run, with one entry per job in job order.
type Report struct {
	RunID     string
	Documents []DocumentReport
}

// Failed returns the number of documents that did not convert.
func (r *Report) Failed() int {
	n := 0
	for _, d := range r.Documents {
		if d.Err != nil {
			n++
		}
	}
	return n
}

// Runner converts batches of documents. A Runner may be reused; parsed
// resource headers are cached across runs.
type Runner struct {
	opts    Options
	headers *lru.Cache[string, *grafxml.ResourceHeader]
}

// NewRunner returns a Runner with defaults filled in.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.StandoffSet == "" && !opts.PerTypeSets {
		return nil, errors.NewValidation("standoff set", "must not be empty")
	}
	if opts.SpaceTypeBase == "" {
		opts.SpaceTypeBase = graf.DefaultSpaceTypeBase
	}
	size := opts.HeaderCacheSize
	if size <= 0 {
		size = DefaultHeaderCacheSize
	}
	cache, err := lru.New[string, *grafxml.ResourceHeader](size)
	if err != nil {
		return nil, errors.Wrap(err, "create header cache")
	}
	return &Runner{opts: opts, headers: cache}, nil
}

// Run converts jobs with a one-off Runner.
func Run(ctx context.Context, jobs []Job, opts Options) (*Report, error) {
	r, err := NewRunner(opts)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, jobs)
}

// Run converts jobs in parallel. Under fail-fast the first document error
// cancels the run and is returned with the partial report. Otherwise
// failed documents are logged, recorded in the report, and skipped.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), Documents: make([]DocumentReport, len(jobs))}
	ctx = logging.WithRunID(ctx, report.RunID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Documents[i] = DocumentReport{Path: job.Header, Err: err}
				return nil
			}
			rep := r.document(gctx, job)
			report.Documents[i] = rep
			return r.opts.Policy.Handle(logging.WithDocument(gctx, job.Header), job.Header, rep.Err)
		})
	}
	err := g.Wait()
	logging.BatchSummary(ctx, len(jobs), report.Failed(), time.Since(start))
	return report, err
}

// DocumentName derives the stored document name from a header path:
// the base name without extension.
func DocumentName(headerPath string) string {
	base := filepath.Base(headerPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (r *Runner) document(ctx context.Context, job Job) DocumentReport {
	start := time.Now()
	ctx = logging.WithDocument(ctx, job.Header)
	rep := DocumentReport{
		Path:     job.Header,
		Document: DocumentName(job.Header),
		Sets:     make(map[string]*spans.Index),
	}
	rep.Err = r.convert(ctx, job, &rep)
	rep.Diagnostics.Log(ctx)
	if rep.Err == nil {
		logging.ConversionDone(ctx, "load", job.Header, rep.Records, rep.Diagnostics.Len(), time.Since(start),
			rep.Diagnostics.LogAttrs()...)
	}
	return rep
}

func (r *Runner) resourceHeader(path string) (*grafxml.ResourceHeader, error) {
	if h, ok := r.headers.Get(path); ok {
		return h, nil
	}
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := grafxml.ParseResourceHeader(f, path)
	if err != nil {
		return nil, err
	}
	r.headers.Add(path, h)
	return h, nil
}

func (r *Runner) convert(ctx context.Context, job Job, rep *DocumentReport) error {
	hf, err := fileio.Open(job.Header)
	if err != nil {
		return err
	}
	header, err := grafxml.ParseDocumentHeader(hf, job.Header)
	hf.Close()
	if err != nil {
		return err
	}
	dir := filepath.Dir(job.Header)

	content, err := r.readText(ctx, dir, header, rep.Document)
	if err != nil {
		return err
	}

	reg := graf.NewSpaceRegistry("", "", r.opts.SpaceTypeBase)
	resource := job.ResourceHeader
	if resource == "" {
		resource = r.opts.ResourceHeader
	}
	if resource != "" {
		rh, err := r.resourceHeader(resource)
		if err != nil {
			return err
		}
		rh.Apply(reg, r.opts.SpaceTypeBase)
	}

	types := job.Types
	if len(types) == 0 {
		types = header.Types()
	}
	files, err := r.order(dir, header, types, &rep.Diagnostics)
	if err != nil {
		return err
	}

	g := graf.NewWithSpaces(reg)
	seen := convert.NewSeenSet()
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	written := make(map[string]bool)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := grafxml.Parse(bytes.NewReader(f.data), grafxml.ParseOptions{Path: f.path, Graph: g})
		if err != nil {
			return err
		}
		if err := res.VerifyText(content); err != nil {
			return errors.Wrap(err, f.path)
		}
		rep.Diagnostics.Append(res.Diagnostics)

		idx, diags := convert.Flatten(g, int64(content.Len()), convert.FlattenOptions{
			DefaultSpaceName: r.opts.DefaultSpaceName,
			Seen:             seen,
		})
		rep.Diagnostics.Append(diags)
		if !wanted[f.typ] {
			continue
		}

		set := r.opts.StandoffSet
		if r.opts.PerTypeSets {
			set = f.typ
		}
		if prev, ok := rep.Sets[set]; ok {
			for rec := range idx.All() {
				prev.AddRecord(rec)
			}
		} else {
			rep.Sets[set] = idx
		}
		rep.Records += idx.Len()

		if r.opts.Store != nil {
			if written[set] {
				err = r.opts.Store.Append(ctx, rep.Document, set, idx)
			} else {
				err = r.opts.Store.Save(ctx, rep.Document, set, idx)
			}
			if err != nil {
				return err
			}
			written[set] = true
		}
	}

	if r.opts.Store != nil {
		if err := r.opts.Store.PutMetadata(ctx, rep.Document, convert.HeaderMetadata(g.Header)); err != nil {
			return err
		}
	}
	return nil
}

// readText loads the primary data. A text already stored under doc must
// carry the same digest, since stored offsets refer to it.
func (r *Runner) readText(ctx context.Context, dir string, header *grafxml.DocumentHeader, doc string) (*text.Buffer, error) {
	if header.ContentLocation == "" {
		return nil, errors.NewValidation("primary data", "document header has no primaryData location")
	}
	path, err := validation.ResolveLocation(dir, header.ContentLocation)
	if err != nil {
		return nil, errors.NewValidation("primary data", err.Error())
	}
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := text.Read(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if content.Len() == 0 {
		return nil, errors.NewValidation("primary data", path+" is empty")
	}
	if r.opts.Store == nil {
		return content, nil
	}

	stored, err := r.opts.Store.Text(ctx, doc)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		if err := r.opts.Store.PutText(ctx, doc, content); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !stored.VerifyDigest(content.Digest()):
		return nil, errors.NewValidation("primary data", path+" differs from the text stored for "+doc)
	}
	return content, nil
}

type standoff struct {
	typ  string
	path string
	data []byte
}

// order reads the standoff files of types and their dependencies and
// returns them dependencies first. Missing or empty files are errors under
// fail-fast and skipped with a diagnostic otherwise.
func (r *Runner) order(dir string, header *grafxml.DocumentHeader, types []string, diags *convert.Diagnostics) ([]standoff, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var out []standoff

	var visit func(typ string) error
	visit = func(typ string) error {
		if state[typ] != 0 {
			return nil
		}
		state[typ] = visiting
		defer func() { state[typ] = done }()

		loc, ok := header.Location(typ)
		if !ok {
			diags.Add(convert.Unresolved, typ, "annotation type not listed in document header")
			return nil
		}
		path, err := validation.ResolveLocation(dir, loc)
		if err != nil {
			if r.opts.Policy.FailFast {
				return errors.NewValidation("standoff location", err.Error())
			}
			diags.Add(convert.Invalid, typ, "standoff location rejected: %v", err)
			return nil
		}
		data, err := fileio.ReadFile(path)
		if err == nil && len(bytes.TrimSpace(data)) == 0 {
			err = errors.NewValidation("standoff file", path+" is empty")
		}
		if err != nil {
			if r.opts.Policy.FailFast {
				return err
			}
			diags.Add(convert.Skipped, path, "standoff file skipped: %v", err)
			return nil
		}

		deps, err := grafxml.Dependencies(bytes.NewReader(data), path)
		if err != nil {
			return err
		}
		for _, d := range deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		out = append(out, standoff{typ: typ, path: path, data: data})
		return nil
	}

	for _, t := range types {
		if err := visit(t); err != nil {
			return nil, err
		}
	}
	return out, nil
}
