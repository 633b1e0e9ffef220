// Package restart prepares and submits the continuation of a MUSIC run from
// its batch file.
//
// The last tokens of a batch file are expected to read
// `... <params.nml> <x> <run_NN.out> <x>`: the parameter file is the fourth
// token from the end and the log file the second. Restarting increments NN
// in the log file name and in io.dataoutput, points io.input at the latest
// dump written so far and submits the batch file again.
package restart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/musicscripts/internal/ctxlog"
	"github.com/vk/musicscripts/internal/fsutil"
	"github.com/vk/musicscripts/internal/namelist"
)

// ErrAborted is returned when the restart is not confirmed.
var ErrAborted = errors.New("restart aborted")

// Plan is the set of edits restarting one batch file performs.
type Plan struct {
	Batch  string
	Params string

	OldLog, NewLog       string
	OldInput, NewInput   string
	OldOutput, NewOutput string
}

// Prepare reads batch and the parameter file it references. Relative paths
// found in the batch file, as well as the dump prefix, are resolved against
// dir.
func Prepare(dir, batch string) (*Plan, error) {
	content, err := os.ReadFile(batch)
	if err != nil {
		return nil, err
	}
	tokens := strings.Fields(string(content))
	if len(tokens) < 4 {
		return nil, fmt.Errorf("batch file %s: expected at least 4 tokens, got %d", batch, len(tokens))
	}
	oldLog := tokens[len(tokens)-2]
	num, err := logNumber(oldLog)
	if err != nil {
		return nil, fmt.Errorf("batch file %s: %w", batch, err)
	}
	p := &Plan{
		Batch:  batch,
		Params: resolvePath(dir, tokens[len(tokens)-4]),
		OldLog: oldLog,
		NewLog: oldLog[:len(oldLog)-6] + fmt.Sprintf("%02d.out", num+1),
	}

	nml, err := namelist.ReadFile(p.Params)
	if err != nil {
		return nil, err
	}
	if p.OldInput, err = nml.String("io", "input"); err != nil {
		return nil, err
	}
	if p.OldOutput, err = nml.String("io", "dataoutput"); err != nil {
		return nil, err
	}
	if len(p.OldOutput) < 3 {
		return nil, fmt.Errorf("io.dataoutput %q is too short to carry a run number", p.OldOutput)
	}
	p.NewOutput = p.OldOutput[:len(p.OldOutput)-3] + fmt.Sprintf("%02d_", num+1)

	latest, err := latestDump(dir, p.OldOutput)
	if err != nil {
		return nil, err
	}
	p.NewInput = latest
	return p, nil
}

// logNumber extracts NN from a name ending in NN.out.
func logNumber(name string) (int, error) {
	if len(name) < 6 || !strings.HasSuffix(name, ".out") {
		return 0, fmt.Errorf("log file %q does not end in NN.out", name)
	}
	n, err := strconv.Atoi(name[len(name)-6 : len(name)-4])
	if err != nil {
		return 0, fmt.Errorf("log file %q does not end in NN.out", name)
	}
	return n, nil
}

// latestDump returns the lexically greatest dump written with prefix, as a
// path relative to dir.
func latestDump(dir, prefix string) (string, error) {
	matches, err := filepath.Glob(resolvePath(dir, prefix) + "*" + fsutil.DumpExt)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no dump matches %s*%s", prefix, fsutil.DumpExt)
	}
	sort.Strings(matches)
	latest := matches[len(matches)-1]
	if filepath.IsAbs(prefix) {
		return latest, nil
	}
	return filepath.Rel(dir, latest)
}

func resolvePath(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Describe writes the edits of p, one per line.
func (p *Plan) Describe(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %s > %s\n%s: %s > %s\n%s: %s > %s\n",
		p.Batch, p.OldLog, p.NewLog,
		p.Params, p.OldInput, p.NewInput,
		p.Params, p.OldOutput, p.NewOutput)
	return err
}

// Apply rewrites the batch and parameter files. Only the first occurrence of
// every old value is replaced.
func (p *Plan) Apply() error {
	if err := replaceInFile(p.Batch, [2]string{p.OldLog, p.NewLog}); err != nil {
		return err
	}
	return replaceInFile(p.Params,
		[2]string{p.OldOutput, p.NewOutput},
		[2]string{p.OldInput, p.NewInput})
}

func replaceInFile(path string, edits ...[2]string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s := string(content)
	for _, e := range edits {
		s = strings.Replace(s, e[0], e[1], 1)
	}
	return os.WriteFile(path, []byte(s), info.Mode().Perm())
}

// Confirmer asks whether a plan should be applied.
type Confirmer func(p *Plan) (bool, error)

// Prompt returns a Confirmer that describes the plan on w and reads the
// answer from r. Anything but y or Y declines.
func Prompt(r io.Reader, w io.Writer) Confirmer {
	return func(p *Plan) (bool, error) {
		if err := p.Describe(w); err != nil {
			return false, err
		}
		if _, err := io.WriteString(w, "Confirm (y/N)? "); err != nil {
			return false, err
		}
		line, err := readLine(r)
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		return strings.EqualFold(strings.TrimSpace(line), "y"), nil
	}
}

// readLine reads up to a newline one byte at a time so that successive
// prompts share r without buffering ahead.
func readLine(r io.Reader) (string, error) {
	var buf []byte
	b := make([]byte, 1)
	for {
		n, err := r.Read(b)
		if n == 1 {
			if b[0] == '\n' {
				return string(buf), nil
			}
			buf = append(buf, b[0])
		}
		if err != nil {
			return string(buf), err
		}
	}
}

// Submitter queues a batch file.
type Submitter interface {
	Submit(ctx context.Context, batch string) error
}

// Sbatch submits batch files to Slurm.
type Sbatch struct {
	// Command defaults to "sbatch".
	Command string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Submit implements Submitter.
func (s Sbatch) Submit(ctx context.Context, batch string) error {
	name := s.Command
	if name == "" {
		name = "sbatch"
	}
	cmd := exec.CommandContext(ctx, name, batch)
	cmd.Stdout, cmd.Stderr = s.Stdout, s.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to submit %s: %w", batch, err)
	}
	return nil
}

// Restarter restarts batch files.
type Restarter struct {
	Dir     string
	Confirm Confirmer
	Submit  Submitter
}

// Restart prepares, confirms, applies and submits batch. It returns
// ErrAborted when the plan is declined, leaving every file untouched.
func (r *Restarter) Restart(ctx context.Context, batch string) error {
	logger := ctxlog.FromContext(ctx).With("batch", batch)
	dir := r.Dir
	if dir == "" {
		dir = "."
	}
	plan, err := Prepare(dir, batch)
	if err != nil {
		return err
	}
	ok, err := r.Confirm(plan)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("Restart declined.")
		return ErrAborted
	}
	if err := plan.Apply(); err != nil {
		return err
	}
	logger.Info("Submitting restarted run.", "log", plan.NewLog, "input", plan.NewInput)
	return r.Submit.Submit(ctx, batch)
}

// BatchFiles returns the files of dir whose name starts with "batch".
func BatchFiles(dir string) ([]string, error) {
	return fsutil.FindFilesByPrefix(dir, "batch")
}
