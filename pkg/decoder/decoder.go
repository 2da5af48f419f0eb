// Package decoder runs the external raster document decoder and loads the
// layer model it produces.
//
// The decoder is a separate program invoked as
//
//	<command> <args...> --file-paths <input>
//
// It reports progress on stdout ("processed: 3/12"), prints "Elapsed time"
// when it has finished and leaves a zip archive holding psd_data.json plus
// the extracted layer images. [Runner.Run] supervises the process and hands
// the archive to [Load], which inlines the layer images as data URIs so the
// returned document is self-contained.
package decoder

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/observability"
)

// Markers recognised in the decoder output.
const (
	markerProgress = "processed:"
	markerDone     = "Elapsed time"
	markerCrash    = "Traceback"
	markerDivider  = "Divider"
)

// Default decoder invocation.
const (
	DefaultCommand = "python"
	DefaultScript  = "src/tebpixels/main2.py"
	DefaultArchive = "data/data.zip"
)

// Options configures a Runner.
type Options struct {
	// Command is the decoder executable. Default: "python".
	Command string

	// Args precede "--file-paths <input>". Default: the decoder script.
	Args []string

	// Dir is the working directory of the decoder. Empty means the current
	// directory.
	Dir string

	// Archive is where the decoder leaves its output, relative to Dir unless
	// absolute. Default: "data/data.zip".
	Archive string

	// JSONFile is the model entry inside the archive. Default: psd_data.json.
	JSONFile string

	// Logger receives decoder output at debug level. Nil discards it.
	Logger *log.Logger
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Command == "" {
		o.Command = DefaultCommand
		if len(o.Args) == 0 {
			o.Args = []string{DefaultScript}
		}
	}
	if o.Archive == "" {
		o.Archive = DefaultArchive
	}
	if o.JSONFile == "" {
		o.JSONFile = layer.FileName
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Runner supervises decoder processes. A Runner may be used from several
// goroutines, but concurrent runs sharing one archive path overwrite each
// other's output.
type Runner struct {
	opts Options
}

// New returns a Runner for opts.
func New(opts Options) *Runner {
	opts.SetDefaults()
	return &Runner{opts: opts}
}

// Options returns the effective options.
func (r *Runner) Options() Options { return r.opts }

// Run decodes the document at input and returns its layer model.
func (r *Runner) Run(ctx context.Context, input string) (*layer.Document, error) {
	if strings.TrimSpace(input) == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no input file")
	}

	start := time.Now()
	observability.Pipeline().OnDecodeStart(ctx, input)
	doc, err := r.run(ctx, input)
	count := 0
	if doc != nil {
		count = layer.Count(doc.Layers)
	}
	observability.Pipeline().OnDecodeComplete(ctx, input, count, time.Since(start), err)
	return doc, err
}

func (r *Runner) run(ctx context.Context, input string) (*layer.Document, error) {
	args := append(append([]string{}, r.opts.Args...), "--file-paths", input)
	cmd := exec.CommandContext(ctx, r.opts.Command, args...)
	cmd.Dir = r.opts.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decoder stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decoder stderr")
	}
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecoderFailed, err, "start decoder %s", r.opts.Command)
	}
	r.opts.Logger.Debug("decoder started", "command", r.opts.Command, "input", input, "pid", cmd.Process.Pid)

	var st status
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		st.scan(ctx, stdout, r.stdoutLine)
	}()
	go func() {
		defer wg.Done()
		st.scan(ctx, stderr, r.stderrLine)
	}()
	wg.Wait()
	waitErr := cmd.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if msg := st.failure(); msg != "" {
		return nil, errors.New(errors.ErrCodeDecoderFailed, "processing file failed: %s", msg)
	}
	if waitErr != nil {
		return nil, errors.Wrap(errors.ErrCodeDecoderFailed, waitErr, "processing file failed")
	}
	if !st.completed() {
		return nil, errors.New(errors.ErrCodeDecoderFailed, "decoder exited without finishing")
	}
	return Load(r.archivePath(), r.opts.JSONFile)
}

func (r *Runner) archivePath() string {
	if r.opts.Dir == "" || filepath.IsAbs(r.opts.Archive) {
		return r.opts.Archive
	}
	return filepath.Join(r.opts.Dir, r.opts.Archive)
}

// lineFunc classifies one output line. It returns a failure message when
// the line means the decode failed, and reports whether it marks completion.
type lineFunc func(ctx context.Context, line string) (failure string, done bool)

func (r *Runner) stdoutLine(ctx context.Context, line string) (string, bool) {
	r.opts.Logger.Debug("decoder", "stdout", line)
	if i := strings.Index(line, markerProgress); i >= 0 {
		msg := strings.TrimSpace(line[i+len(markerProgress):])
		if done, total, ok := ParseProgress(msg); ok {
			observability.Progress().OnProgress(ctx, observability.StageDecode, done, total)
		}
		r.opts.Logger.Info("decoding", "processed", msg)
	}
	if strings.Contains(line, markerCrash) {
		return line, false
	}
	return "", strings.Contains(line, markerDone)
}

func (r *Runner) stderrLine(_ context.Context, line string) (string, bool) {
	r.opts.Logger.Debug("decoder", "stderr", line)
	if strings.TrimSpace(line) == "" || strings.Contains(line, markerDivider) {
		return "", false
	}
	return line, false
}

type status struct {
	mu   sync.Mutex
	fail string
	done bool
}

func (s *status) scan(ctx context.Context, rd io.Reader, fn lineFunc) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		failure, done := fn(ctx, sc.Text())
		s.mu.Lock()
		if failure != "" && s.fail == "" {
			s.fail = failure
		}
		s.done = s.done || done
		s.mu.Unlock()
	}
	// Drain so the child never blocks on a full pipe.
	_, _ = io.Copy(io.Discard, rd)
}

func (s *status) failure() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail
}

func (s *status) completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// ParseProgress reads a "done/total" progress message.
func ParseProgress(msg string) (done, total int, ok bool) {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return 0, 0, false
	}
	a, b, found := strings.Cut(fields[0], "/")
	if !found {
		return 0, 0, false
	}
	d, err1 := strconv.Atoi(a)
	t, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil || t <= 0 {
		return 0, 0, false
	}
	return d, t, true
}
