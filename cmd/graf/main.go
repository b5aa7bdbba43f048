// Command graf converts between flat annotation sets and GrAF standoff
// annotation graphs.
package main

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/grafstandoff/core/convert"
	graferrors "github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/graf"
	"github.com/FocuswithJustin/grafstandoff/core/grafxml"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
	"github.com/FocuswithJustin/grafstandoff/core/sqlite"
	"github.com/FocuswithJustin/grafstandoff/core/store"
	"github.com/FocuswithJustin/grafstandoff/core/text"
	"github.com/FocuswithJustin/grafstandoff/core/xml"
	"github.com/FocuswithJustin/grafstandoff/internal/batch"
	"github.com/FocuswithJustin/grafstandoff/internal/config"
	"github.com/FocuswithJustin/grafstandoff/internal/diff"
	"github.com/FocuswithJustin/grafstandoff/internal/fileio"
	"github.com/FocuswithJustin/grafstandoff/internal/logging"
)

const version = "0.1.0"

// stdout receives command output.
var stdout io.Writer = os.Stdout

// errSetsDiffer is returned by compare when the sets are not equal.
var errSetsDiffer = errors.New("annotation sets differ")

// CLI defines the command-line interface for graf.
var CLI struct {
	Globals

	Save    SaveCmd    `cmd:"" help:"Convert a JSON annotation set into a GrAF standoff file"`
	Load    LoadCmd    `cmd:"" help:"Convert GrAF standoff files into a flat annotation set"`
	LoadAll LoadAllCmd `cmd:"" name:"load-all" help:"Load every standoff file listed by document headers"`
	CES     CESGroup   `cmd:"" name:"ces" help:"Legacy XCES cesAna files"`
	Check   CheckCmd   `cmd:"" help:"Check standoff files for malformed XML and unresolved references"`
	Content ContentCmd `cmd:"" help:"Write the stored text of a document"`
	Compare CompareCmd `cmd:"" help:"Diff two JSON annotation sets"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Globals are the flags shared by every command. Empty values fall back
// to GRAF_* environment variables and then to built-in defaults.
type Globals struct {
	EnvFile   string `name:"env-file" help:"Load GRAF_* settings from this file" type:"path"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	SpaceName string `name:"space-name" help:"Annotation space of saved graphs"`
	SpaceType string `name:"space-type" help:"Type URI of the annotation space"`
	FailFast  bool   `name:"fail-fast" help:"Abort on the first document error"`
}

// CESGroup contains the cesAna commands.
type CESGroup struct {
	Write CESWriteCmd `cmd:"" help:"Write a JSON annotation set as cesAna"`
	Read  CESReadCmd  `cmd:"" help:"Read a cesAna file into a JSON annotation set"`
}

// SaveCmd builds a graph from flat records and renders it.
type SaveCmd struct {
	Spans   string   `name:"spans" required:"" help:"JSON annotation set" type:"existingfile"`
	Text    string   `name:"text" help:"Primary text; records are checked against it and its digest is recorded" type:"existingfile"`
	Out     string   `name:"out" short:"o" help:"Output file (.xz, .zst and .gz are compressed); stdout when empty"`
	Types   []string `name:"type" help:"Record types to save (repeatable); all when empty"`
	Compact bool     `name:"compact" help:"Write unindented XML"`
}

func (c *SaveCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	start := time.Now()
	ctx := logging.WithDocument(context.Background(), c.Spans)

	doc, err := readDocument(c.Spans)
	if err != nil {
		return err
	}
	var content *text.Buffer
	if c.Text != "" {
		if content, err = readText(c.Text); err != nil {
			return err
		}
		for _, p := range doc.Records.Validate(content.Len()) {
			logging.WarnContext(ctx, "record_outside_text", "record", p.Record.String(), "message", p.Message)
		}
	}

	g, diags, err := convert.Build(doc.Records, cfg.BuildOptions(c.Types...))
	if err != nil {
		return graferrors.NewStructural(c.Spans, err)
	}
	if doc.Metadata != nil {
		convert.ApplyMetadata(g, doc.Metadata)
	}
	if content != nil {
		g.Header.SetInfo(graf.InfoTextDigest, content.Digest())
	}
	diags.Log(ctx)

	opts := grafxml.RenderOptions{Indent: "  "}
	if c.Compact {
		opts.Indent = ""
	}
	var buf bytes.Buffer
	if err := grafxml.Render(&buf, g, opts); err != nil {
		return err
	}
	if err := writeOutput(c.Out, buf.Bytes()); err != nil {
		return err
	}
	logging.ConversionDone(ctx, "save", c.Out, g.AnnotationCount(), diags.Len(), time.Since(start), diags.LogAttrs()...)
	return nil
}

// LoadCmd parses standoff files of one document and flattens them.
type LoadCmd struct {
	Standoff       []string `arg:"" help:"Standoff files, dependencies first" type:"existingfile"`
	Text           string   `name:"text" required:"" help:"Primary text the offsets refer to" type:"existingfile"`
	ResourceHeader string   `name:"resource-header" help:"Resource header declaring annotation spaces" type:"existingfile"`
	DB             string   `name:"db" help:"Store the records in this SQLite database instead of printing them" type:"path"`
	Doc            string   `name:"doc" help:"Document name in the store; derived from the text file when empty"`
	Set            string   `name:"set" help:"Annotation set receiving the records"`
	Out            string   `name:"out" short:"o" help:"Output JSON file; stdout when empty"`
}

func (c *LoadCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	start := time.Now()
	ctx := logging.WithDocument(context.Background(), c.Text)

	content, err := readText(c.Text)
	if err != nil {
		return err
	}
	reg := graf.NewSpaceRegistry(cfg.SpaceName, cfg.SpaceType, cfg.DefaultSpaceType)
	if c.ResourceHeader != "" {
		rh, err := readResourceHeader(c.ResourceHeader)
		if err != nil {
			return err
		}
		rh.Apply(reg, cfg.DefaultSpaceType)
	}

	g := graf.NewWithSpaces(reg)
	var diags convert.Diagnostics
	for _, path := range c.Standoff {
		f, err := fileio.Open(path)
		if err != nil {
			return err
		}
		res, err := grafxml.Parse(f, grafxml.ParseOptions{Path: path, Graph: g})
		f.Close()
		if err != nil {
			return graferrors.NewStructural(path, err)
		}
		diags.Append(res.Diagnostics)
		if err := res.VerifyText(content); err != nil {
			return graferrors.NewStructural(path, err)
		}
	}

	idx, flat := convert.Flatten(g, int64(content.Len()), convert.FlattenOptions{DefaultSpaceName: cfg.DefaultSpaceName})
	diags.Append(flat)
	diags.Log(ctx)
	meta := convert.HeaderMetadata(g.Header)
	set := cmp.Or(c.Set, cfg.StandoffSet)

	if c.DB != "" {
		st, err := store.Open(c.DB)
		if err != nil {
			return err
		}
		defer st.Close()
		name := cmp.Or(c.Doc, batch.DocumentName(fileio.TrimCodec(c.Text)))
		bg := context.Background()
		if err := st.PutText(bg, name, content); err != nil {
			return err
		}
		if err := st.Save(bg, name, set, idx); err != nil {
			return err
		}
		if err := st.PutMetadata(bg, name, meta); err != nil {
			return err
		}
	} else {
		var buf bytes.Buffer
		if err := spans.WriteDocument(&buf, &spans.Document{Set: set, Metadata: meta, Records: idx}); err != nil {
			return err
		}
		if err := writeOutput(c.Out, buf.Bytes()); err != nil {
			return err
		}
	}
	logging.ConversionDone(ctx, "load", c.Text, idx.Len(), diags.Len(), time.Since(start), diags.LogAttrs()...)
	return nil
}

// LoadAllCmd runs the batch driver over document headers.
type LoadAllCmd struct {
	Headers        []string `arg:"" help:"Document headers" type:"existingfile"`
	ResourceHeader string   `name:"resource-header" help:"Resource header declaring annotation spaces" type:"existingfile"`
	DB             string   `name:"db" required:"" help:"SQLite database receiving texts and records" type:"path"`
	Types          []string `name:"type" help:"Annotation types to load (repeatable); all when empty"`
	Set            string   `name:"set" help:"Annotation set receiving the records"`
	PerTypeSets    bool     `name:"per-type-sets" help:"Store each annotation type in a set named after it"`
	Workers        int      `name:"workers" short:"j" help:"Documents converted in parallel"`
}

func (c *LoadAllCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	jobs := make([]batch.Job, len(c.Headers))
	for i, h := range c.Headers {
		jobs[i] = batch.Job{Header: h, Types: c.Types}
	}
	report, err := batch.Run(context.Background(), jobs, batch.Options{
		Policy:           cfg.Policy(),
		Workers:          cmp.Or(c.Workers, cfg.Workers),
		ResourceHeader:   c.ResourceHeader,
		SpaceTypeBase:    cfg.DefaultSpaceType,
		StandoffSet:      cmp.Or(c.Set, cfg.StandoffSet),
		PerTypeSets:      c.PerTypeSets,
		DefaultSpaceName: cfg.DefaultSpaceName,
		Store:            st,
	})
	if report != nil {
		for _, d := range report.Documents {
			status := "ok"
			if d.Err != nil {
				status = d.Err.Error()
			}
			fmt.Fprintf(stdout, "%s\t%d records\t%d diagnostics\t%s\n", d.Path, d.Records, d.Diagnostics.Len(), status)
		}
	}
	return err
}

// CESWriteCmd writes records as cesAna.
type CESWriteCmd struct {
	Spans          string   `arg:"" help:"JSON annotation set" type:"existingfile"`
	Out            string   `name:"out" short:"o" help:"Output file; stdout when empty"`
	Types          []string `name:"type" help:"Record types to write (repeatable); all when empty"`
	SchemaLocation string   `name:"schema-location" help:"xsi:schemaLocation of the cesAna root"`
}

func (c *CESWriteCmd) Run() error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	doc, err := readDocument(c.Spans)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := grafxml.WriteCES(&buf, doc.Records, grafxml.CESOptions{Types: c.Types, SchemaLocation: c.SchemaLocation}); err != nil {
		return err
	}
	return writeOutput(c.Out, buf.Bytes())
}

// CESReadCmd reads a cesAna file.
type CESReadCmd struct {
	Path string `arg:"" help:"cesAna file" type:"existingfile"`
	Out  string `name:"out" short:"o" help:"Output JSON file; stdout when empty"`
	Set  string `name:"set" help:"Annotation set name written to the JSON document"`
}

func (c *CESReadCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, err := fileio.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	idx, diags, err := grafxml.ReadCES(f, c.Path)
	if err != nil {
		return err
	}
	diags.Log(logging.WithDocument(context.Background(), c.Path))
	var buf bytes.Buffer
	if err := spans.WriteDocument(&buf, &spans.Document{Set: cmp.Or(c.Set, cfg.StandoffSet), Records: idx}); err != nil {
		return err
	}
	return writeOutput(c.Out, buf.Bytes())
}

// CheckCmd reports what a load would diagnose, without a text.
type CheckCmd struct {
	Files []string `arg:"" help:"Standoff files" type:"existingfile"`
}

func (c *CheckCmd) Run() error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	failed := 0
	for _, path := range c.Files {
		data, err := fileio.ReadFile(path)
		if err != nil {
			return err
		}
		if res := xml.Validate(data); !res.Valid {
			failed++
			for _, e := range res.Errors {
				fmt.Fprintf(stdout, "%s:%d: %s\n", path, e.Line, e.Message)
			}
			continue
		}
		res, err := grafxml.Parse(bytes.NewReader(data), grafxml.ParseOptions{Path: path})
		if err != nil {
			failed++
			fmt.Fprintf(stdout, "%s: %v\n", path, err)
			continue
		}
		for _, d := range res.Diagnostics {
			fmt.Fprintln(stdout, d.String())
		}
		fmt.Fprintf(stdout, "%s: %d nodes, %d annotations, %d diagnostics\n",
			path, res.Graph.NodeCount(), res.Graph.AnnotationCount(), res.Diagnostics.Len())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(c.Files))
	}
	return nil
}

// ContentCmd writes a stored document text.
type ContentCmd struct {
	DB  string `name:"db" required:"" help:"SQLite database" type:"existingfile"`
	Doc string `name:"doc" required:"" help:"Document name"`
	Out string `name:"out" short:"o" help:"Output file; stdout when empty"`
}

func (c *ContentCmd) Run() error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	st, err := store.OpenReadOnly(c.DB)
	if err != nil {
		return err
	}
	defer st.Close()
	content, err := st.Text(context.Background(), c.Doc)
	if err != nil {
		return err
	}
	return writeOutput(c.Out, []byte(content.String()))
}

// CompareCmd diffs the listings of two annotation sets.
type CompareCmd struct {
	A       string   `arg:"" help:"First JSON annotation set" type:"existingfile"`
	B       string   `arg:"" help:"Second JSON annotation set" type:"existingfile"`
	Ignore  []string `name:"ignore" help:"Feature keys left out of the comparison (repeatable)"`
	Context int      `name:"context" short:"U" help:"Lines of context"`
}

func (c *CompareCmd) Run() error {
	a, err := readDocument(c.A)
	if err != nil {
		return err
	}
	b, err := readDocument(c.B)
	if err != nil {
		return err
	}
	body, _ := diff.Sets(c.A, c.B, a.Records, b.Records, diff.Options{Context: c.Context}, c.Ignore...)
	if body == "" {
		return nil
	}
	fmt.Fprint(stdout, body)
	return errSetsDiffer
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Fprintf(stdout, "graf version %s (sqlite: %s)\n", version, sqlite.GetInfo())
	return nil
}

// Helper functions

// loadConfig resolves settings from defaults, environment and global
// flags, and configures logging accordingly.
func loadConfig() (config.Config, error) {
	var files []string
	if CLI.EnvFile != "" {
		files = append(files, CLI.EnvFile)
	}
	cfg, err := config.FromEnv(files...)
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = cmp.Or(CLI.LogLevel, cfg.LogLevel)
	cfg.LogFormat = cmp.Or(CLI.LogFormat, cfg.LogFormat)
	cfg.SpaceName = cmp.Or(CLI.SpaceName, cfg.SpaceName)
	cfg.SpaceType = cmp.Or(CLI.SpaceType, cfg.SpaceType)
	if CLI.FailFast {
		cfg.FailFast = true
	}
	logging.InitLogger(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))
	return cfg, cfg.Validate()
}

func readDocument(path string) (*spans.Document, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := spans.ReadDocument(f)
	if err != nil {
		return nil, &graferrors.ParseError{Format: "JSON annotation set", Path: path, Message: err.Error(), Err: err}
	}
	return doc, nil
}

func readText(path string) (*text.Buffer, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := text.Read(f)
	if err != nil {
		return nil, graferrors.Wrapf(err, "read %s", path)
	}
	return content, nil
}

func readResourceHeader(path string) (*grafxml.ResourceHeader, error) {
	f, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return grafxml.ParseResourceHeader(f, path)
}

// writeOutput writes data to path, or to stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return fileio.WriteFileAtomic(path, data)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("graf"),
		kong.Description("GrAF standoff annotation converter"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
