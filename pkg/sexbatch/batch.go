package sexbatch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Outcome is the result of processing one science image.
type Outcome struct {
	Job    Job
	Result Result
	Err    error
}

// OK reports whether the extractor ran and exited zero.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Result.ExitCode == 0
}

// Summary collects the outcomes of a batch.
type Summary struct {
	Outcomes  []Outcome
	Succeeded int
	Total     int
}

func (s *Summary) Failed() []Outcome {
	var failed []Outcome
	for _, o := range s.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

func (s *Summary) String() string {
	return fmt.Sprintf("SUMMARY: %d/%d images processed successfully", s.Succeeded, s.Total)
}

// Batch runs the extractor over every FITS image of a directory.
type Batch struct {
	Settings Settings
	Log      zerolog.Logger

	// Runner replaces the SourceExtractor binary. When set, the tool
	// lookup and version check are skipped.
	Runner Runner
}

// Run checks the preconditions and processes the images one at a time.
// A PreconditionError is returned when the batch could not start; per-image
// failures are reported in the Summary only.
func (b *Batch) Run(ctx context.Context) (*Summary, error) {
	s := b.Settings.WithDefaults()

	runner, err := b.runner(ctx, s)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct{ label, path string }{
		{"configuration file", s.ConfigFile},
		{"parameter file", s.ParamFile},
	} {
		if err := requireFile(f.path); err != nil {
			return nil, newPrecondition(KindConfig, fmt.Sprintf("%s %q not found", f.label, f.path), err)
		}
	}

	b.Log.Info().Str("dir", s.Dir).Msg("Searching for images")
	images, listing, err := Discover(s.Dir)
	if err != nil {
		return nil, newPrecondition(KindIO, "listing images", err)
	}
	if s.SkipWeights {
		all := len(images)
		images = WithoutWeights(images, listing)
		if skipped := all - len(images); skipped > 0 {
			b.Log.Info().Int("skipped", skipped).Msg("Skipping weight images")
		}
	}
	if len(images) == 0 {
		return nil, newPrecondition(KindImages, fmt.Sprintf("no FITS images found in %s", s.Dir), nil)
	}
	b.Log.Info().Int("count", len(images)).Msg("Found images")
	for _, img := range images {
		b.Log.Debug().Str("image", img.Path()).Msg("Found image")
	}

	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return nil, newPrecondition(KindIO, "creating output directory", err)
	}

	summary := &Summary{Total: len(images)}
	for _, img := range images {
		o := b.process(ctx, runner, s, img, listing)
		if o.OK() {
			summary.Succeeded++
		}
		summary.Outcomes = append(summary.Outcomes, o)
	}
	return summary, nil
}

func (b *Batch) runner(ctx context.Context, s Settings) (Runner, error) {
	if b.Runner != nil {
		return b.Runner, nil
	}
	var names []string
	if s.Tool != "" {
		names = []string{s.Tool}
	}
	tool, err := LookupTool(names...)
	if err != nil {
		return nil, err
	}
	ext := &Extractor{Tool: tool, ConfigFile: s.ConfigFile, ParamFile: s.ParamFile}
	version, err := ext.Version(ctx)
	if err != nil {
		return nil, err
	}
	b.Log.Info().Str("tool", tool).Str("version", version).Msg("Using SourceExtractor")
	return ext, nil
}

func (b *Batch) process(ctx context.Context, runner Runner, s Settings, img ImageRef, listing Listing) Outcome {
	log := b.Log.With().Str("image", img.Path()).Logger()

	weight, err := Resolve(img.Base, listing)
	job := NewJob(img, weight, s.OutputDir)
	if err != nil {
		log.Error().Err(err).Msg("Resolving weight image")
		return Outcome{Job: job, Err: err}
	}

	ev := log.Info().Str("catalog", job.CatalogOut)
	if weight != nil {
		ev = ev.Str("weight", job.WeightPath()).Str("weight_type", weight.Kind.String())
	}
	ev.Msg("Processing")
	b.inspect(log, job)

	res, err := runner.Run(ctx, job)
	o := Outcome{Job: job, Result: res, Err: err}
	switch {
	case err != nil:
		log.Error().Err(err).Msg("Failed to run SourceExtractor")
		return o
	case res.ExitCode != 0:
		log.Error().
			Int("exit_code", res.ExitCode).
			Str("stderr", strings.TrimSpace(res.Stderr)).
			Msg("SourceExtractor failed")
		return o
	}
	log.Info().Dur("elapsed", res.Duration).Msg("Success")

	if s.Preview {
		out := strings.TrimSuffix(job.CheckOut, filepath.Ext(job.CheckOut)) + ".png"
		if err := renderPreview(job.CheckOut, out, img.Name()); err != nil {
			log.Warn().Err(err).Msg("Rendering check image preview")
		} else {
			log.Debug().Str("preview", out).Msg("Wrote preview")
		}
	}
	return o
}

// renderPreview runs RenderPreview, turning a panic from a malformed check
// image into an error so the batch continues.
func renderPreview(fitsPath, outPath, label string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rendering %s: %v", fitsPath, r)
		}
	}()
	return RenderPreview(fitsPath, outPath, label)
}

// inspect logs header details of the science image and warns when its
// weight image has different dimensions. Unreadable headers are skipped.
func (b *Batch) inspect(log zerolog.Logger, job Job) {
	sci, err := ProbeHeader(job.Image.Path())
	if err != nil {
		log.Debug().Err(err).Msg("Reading image header")
		return
	}
	ev := log.Debug().Ints("axes", sci.Axes)
	if obj := sci.Object(); obj != "" {
		ev = ev.Str("object", obj)
	}
	if filter := sci.Filter(); filter != "" {
		ev = ev.Str("filter", filter)
	}
	if exp, ok := sci.ExposureTime(); ok {
		ev = ev.Float64("exptime", exp)
	}
	ev.Msg("Image header")

	if job.Weight == nil {
		return
	}
	wht, err := ProbeHeader(job.WeightPath())
	if err != nil {
		log.Debug().Err(err).Msg("Reading weight header")
		return
	}
	if !sci.SameShape(wht) {
		log.Warn().
			Ints("image_axes", sci.Axes).
			Ints("weight_axes", wht.Axes).
			Msg("Weight image dimensions differ from science image")
	}
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, fs.ErrInvalid)
	}
	return nil
}
