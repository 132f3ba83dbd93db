package sexbatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultToolNames are tried in order when no tool path is configured.
// Debian and Ubuntu install SourceExtractor as source-extractor.
var DefaultToolNames = []string{"sex", "source-extractor"}

// Job is one invocation of the extractor.
type Job struct {
	Image      ImageRef
	Weight     *WeightMatch
	CatalogOut string
	CheckOut   string
}

// NewJob derives the output paths for img inside outDir.
func NewJob(img ImageRef, weight *WeightMatch, outDir string) Job {
	return Job{
		Image:      img,
		Weight:     weight,
		CatalogOut: filepath.Join(outDir, img.Base+".cat"),
		CheckOut:   filepath.Join(outDir, img.Base+"_check.fits"),
	}
}

// WeightPath is the weight image path relative to the working directory,
// or "" when the job has no weight image.
func (j Job) WeightPath() string {
	if j.Weight == nil {
		return ""
	}
	return filepath.Join(j.Image.Dir, j.Weight.Name)
}

// Result is the outcome of one extractor process.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner runs the extractor for a job. Extractor is the production Runner.
type Runner interface {
	Run(ctx context.Context, job Job) (Result, error)
}

// Extractor invokes the SourceExtractor binary.
type Extractor struct {
	Tool       string
	ConfigFile string
	ParamFile  string
}

// LookupTool returns the path of the first name found on PATH. A name
// containing a path separator is checked directly.
func LookupTool(names ...string) (string, error) {
	if len(names) == 0 {
		names = DefaultToolNames
	}
	var tried []string
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		p, err := exec.LookPath(name)
		if err == nil {
			return p, nil
		}
		tried = append(tried, name)
	}
	return "", newPrecondition(KindTool, fmt.Sprintf("SourceExtractor not found (tried %s)", strings.Join(tried, ", ")), nil)
}

// Version runs the tool with --version and returns its first output line.
func (e *Extractor) Version(ctx context.Context) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Tool, "--version")
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return "", newPrecondition(KindTool, fmt.Sprintf("running %s --version", e.Tool), err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(out.String()), "\n")
	return line, nil
}

// Args builds the extractor command line for job, without the tool itself.
func (e *Extractor) Args(job Job) []string {
	args := []string{
		job.Image.Path(),
		"-c", e.ConfigFile,
		"-PARAMETERS_NAME", e.ParamFile,
		"-CATALOG_NAME", job.CatalogOut,
		"-CHECKIMAGE_NAME", job.CheckOut,
	}
	if job.Weight != nil {
		args = append(args,
			"-WEIGHT_TYPE", job.Weight.Kind.String(),
			"-WEIGHT_IMAGE", job.WeightPath(),
		)
	}
	return args
}

// Run executes the extractor and waits for it. A non-zero exit is reported
// through Result.ExitCode; err is set only when the process could not run.
func (e *Extractor) Run(ctx context.Context, job Job) (Result, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Tool, e.Args(job)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			res.ExitCode = ee.ExitCode()
			return res, nil
		}
		res.ExitCode = -1
		return res, fmt.Errorf("starting %s: %w", e.Tool, err)
	}
	return res, nil
}
