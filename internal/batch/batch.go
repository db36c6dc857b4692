// Package batch converts directories of photometric files between the LDT
// and IES formats.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/photometric/internal/eulumdat"
	"github.com/banshee-data/photometric/internal/fsutil"
	"github.com/banshee-data/photometric/internal/ies"
	"github.com/banshee-data/photometric/internal/monitoring"
	"github.com/banshee-data/photometric/internal/photometry"
	"github.com/banshee-data/photometric/internal/security"
	"github.com/banshee-data/photometric/internal/timeutil"
)

var logf = monitoring.Component("batch")

// Options control a conversion run.
type Options struct {
	// Target is eulumdat.Format or ies.Format. Files already in the target
	// format are re-exported too, which normalizes them.
	Target    string
	Recursive bool
	Overwrite bool
}

// Outcome of a single file.
type Outcome int

const (
	Converted Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Converted:
		return "converted"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return photometry.UnknownName
}

// Result describes what happened to one source file.
type Result struct {
	Source  string
	Dest    string
	Outcome Outcome
	Err     error
}

// Summary is the result of a run. Results are in directory walk order.
type Summary struct {
	Results   []Result
	Converted int
	Skipped   int
	Failed    int
	Elapsed   time.Duration
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case Converted:
		s.Converted++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
	}
}

// Converter walks a source tree and writes converted files to a mirror of it.
type Converter struct {
	fs    fsutil.FileSystem
	clock timeutil.Clock
}

// New returns a Converter working through fsys.
func New(fsys fsutil.FileSystem) *Converter {
	return &Converter{fs: fsys, clock: timeutil.RealClock{}}
}

// SetClock replaces the clock used to time a run.
func (c *Converter) SetClock(clock timeutil.Clock) {
	c.clock = clock
}

type parseFunc func(string) (*photometry.Luminaire, error)

// parsers maps a lower-case source extension to its parser.
var parsers = map[string]parseFunc{
	".ldt": eulumdat.Parse,
	".ies": ies.Parse,
}

type codec struct {
	dstExt string
	export func(*photometry.Luminaire) string
}

func codecFor(target string) (codec, error) {
	switch strings.ToUpper(target) {
	case ies.Format:
		return codec{dstExt: ".ies", export: ies.Export}, nil
	case eulumdat.Format:
		return codec{dstExt: ".ldt", export: eulumdat.Export}, nil
	}
	return codec{}, fmt.Errorf("unsupported target format %q (want %s or %s)", target, eulumdat.Format, ies.Format)
}

// Run converts every LDT and IES file under srcDir into the target format in
// dstDir, which may be srcDir itself. When two sources map to the same
// destination, such as lamp.ldt and lamp.ies, the first in walk order wins
// and the other is skipped. A failure to convert one file is recorded in the
// summary and does not stop the run; cancelling ctx stops it between files
// and returns ctx.Err().
func (c *Converter) Run(ctx context.Context, srcDir, dstDir string, opts Options) (Summary, error) {
	var sum Summary
	cd, err := codecFor(opts.Target)
	if err != nil {
		return sum, err
	}
	info, err := c.fs.Stat(srcDir)
	if err != nil {
		return sum, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return sum, fmt.Errorf("source %s is not a directory", srcDir)
	}

	sources, err := c.collect(srcDir, opts.Recursive)
	if err != nil {
		return sum, err
	}
	logf("converting %d file(s) from %s to %s", len(sources), srcDir, dstDir)
	start := c.clock.Now()

	written := make(map[string]string)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = c.clock.Since(start)
			logf("cancelled after %d of %d file(s)", len(sum.Results), len(sources))
			return sum, err
		}
		r := c.convertOne(src, srcDir, dstDir, cd, opts.Overwrite, written)
		if r.Err != nil {
			logf("%s: %v", src, r.Err)
		}
		sum.add(r)
	}
	sum.Elapsed = c.clock.Since(start)
	logf("done in %s: %d converted, %d skipped, %d failed", sum.Elapsed, sum.Converted, sum.Skipped, sum.Failed)
	return sum, nil
}

// collect lists the LDT and IES files below dir, sorted by path.
func (c *Converter) collect(dir string, recursive bool) ([]string, error) {
	entries, err := c.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var out []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		if e.IsDir() {
			if !recursive {
				continue
			}
			sub, err := c.collect(p, true)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
			continue
		}
		if _, ok := parsers[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// convertOne writes one source to its destination and records the
// destination in written.
func (c *Converter) convertOne(src, srcDir, dstDir string, cd codec, overwrite bool, written map[string]string) Result {
	r := Result{Source: src, Outcome: Failed}

	rel, err := filepath.Rel(srcDir, src)
	if err != nil {
		r.Err = err
		return r
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + cd.dstExt
	dst, err := security.JoinWithin(dstDir, rel)
	if err != nil {
		r.Err = err
		return r
	}
	r.Dest = dst

	if first, ok := written[dst]; ok {
		logf("%s: %s already written from %s", src, dst, first)
		r.Outcome = Skipped
		return r
	}
	if !overwrite && c.fs.Exists(dst) {
		r.Outcome = Skipped
		return r
	}

	data, err := c.fs.ReadFile(src)
	if err != nil {
		r.Err = err
		return r
	}
	parse := parsers[strings.ToLower(filepath.Ext(src))]
	l, err := parse(string(data))
	if err != nil {
		r.Err = err
		return r
	}
	if err := c.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		r.Err = fmt.Errorf("create output directory: %w", err)
		return r
	}
	if err := c.fs.WriteFile(dst, []byte(cd.export(l)), 0644); err != nil {
		r.Err = fmt.Errorf("write %s: %w", dst, err)
		return r
	}
	written[dst] = src
	r.Outcome = Converted
	return r
}

// Err joins the per-file errors of a summary, or returns nil when every file
// converted or was skipped.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Source, r.Err))
		}
	}
	return errors.Join(errs...)
}
