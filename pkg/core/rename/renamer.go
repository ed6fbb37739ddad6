// Package rename materializes records under their templated library
// paths. The target path is rendered from a per-kind pattern, sanitized
// and handed to a placement strategy (symlink by default).
package rename

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	log "github.com/sirupsen/logrus"

	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

var (
	// ErrNotIdentified means the record has no kind yet, so no path
	// pattern applies to it.
	ErrNotIdentified = errors.New("rename: record is not identified")

	// ErrUnknownStrategy is a configuration error: the strategy string
	// matches no built-in and is not an exec: template.
	ErrUnknownStrategy = errors.New("rename: unknown rename strategy")
)

var (
	placeholderExp = regexp.MustCompile(`%\{([A-Za-z0-9_]+)\}`)
	execExp        = regexp.MustCompile(`^exec: (.+)$`)
)

// Renamer renders target paths and relocates files.
type Renamer struct {
	settings *settings.Settings
	logger   *log.Logger
}

// New creates a renamer over the given settings.
func New(s *settings.Settings, logger *log.Logger) *Renamer {
	if logger == nil {
		logger = log.New()
	}
	return &Renamer{settings: s, logger: logger}
}

// renderTemplate substitutes %{name} placeholders from the value map.
// Unknown names render empty.
func renderTemplate(template string, values map[string]string) string {
	return placeholderExp.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderExp.FindStringSubmatch(match)[1]
		return values[name]
	})
}

// sanitizedValues merges settings and record attributes into one
// substitution map, replacing every forbidden character in each value.
// The template text itself is never sanitized, only what gets
// substituted into it.
func (r *Renamer) sanitizedValues(rec record.Record) (map[string]string, error) {
	forbidden, err := regexp.Compile(r.settings.Get("fs_forbidden_char_exp"))
	if err != nil {
		return nil, fmt.Errorf("rename: bad fs_forbidden_char_exp: %w", err)
	}
	replace := r.settings.Get("fs_forbidden_char_replace")

	values := r.settings.Values()
	for k, v := range rec.TemplateValues() {
		values[k] = v
	}
	for k, v := range values {
		values[k] = forbidden.ReplaceAllString(v, replace)
	}

	// The library root is a path; sanitizing its separators away would
	// break every pattern that starts with it.
	values["library_folder"] = r.settings.Get("library_folder")
	return values, nil
}

// TargetPath renders (without touching the filesystem) the path the
// record would be materialized under.
func (r *Renamer) TargetPath(rec record.Record) (string, error) {
	var pattern string
	switch rec.Kind {
	case record.KindMovie:
		pattern = r.settings.Get("movie_pattern")
	case record.KindEpisode:
		pattern = r.settings.Get("episode_pattern")
	default:
		return "", fmt.Errorf("%w: %s", ErrNotIdentified, rec.Filename)
	}

	values, err := r.sanitizedValues(rec)
	if err != nil {
		return "", err
	}
	return renderTemplate(pattern, values), nil
}

// Rename materializes one record: renders the target path, ensures its
// directory tree exists and applies the configured placement strategy.
// The returned record points at the new path.
func (r *Renamer) Rename(rec record.Record) (record.Record, error) {
	newPath, err := r.TargetPath(rec)
	if err != nil {
		return rec.Clone(), err
	}

	if err := r.placeFile(rec.Filename, newPath); err != nil {
		return rec.Clone(), err
	}

	out := rec.Clone()
	out.Filename = newPath
	return out, nil
}

// RenameAll materializes every record in order, isolating per-item
// failures (the batch error lists them). An unknown placement strategy
// is a configuration error and fails the whole batch up front instead.
// onProgress, when non-nil, receives consecutive [k, n] reports from 0
// through n.
func (r *Renamer) RenameAll(records []record.Record, onProgress func(done, total int)) ([]record.Record, error) {
	if err := r.checkStrategy(); err != nil {
		return records, err
	}

	reported := -1
	progress := func(snap pipeline.Snapshot) {
		if onProgress == nil {
			return
		}
		if done := snap.Finished(); done != reported {
			reported = done
			onProgress(done, len(records))
		}
	}

	out, batchErr := pipeline.Run(records, 1, func(rec record.Record) (record.Record, error) {
		renamed, err := r.Rename(rec)
		if err != nil {
			r.logger.Warnf("rename: %s: %v", rec.Filename, err)
		}
		return renamed, err
	}, progress)
	if batchErr != nil {
		return out, batchErr
	}
	return out, nil
}

// checkStrategy validates the configured strategy before any file is
// touched.
func (r *Renamer) checkStrategy() error {
	strategy := renderTemplate(r.settings.Get("rename_strategy"),
		map[string]string{"old": "old", "new": "new"})
	switch strategy {
	case "dummy", "copy", "move", "symlink", "keeplink":
		return nil
	}
	if execExp.MatchString(strategy) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

// placeFile applies the configured strategy to the (old, new) pair.
// The strategy string itself is a template: exec strategies substitute
// %{old} and %{new} into the command.
func (r *Renamer) placeFile(oldPath, newPath string) error {
	strategy := renderTemplate(r.settings.Get("rename_strategy"),
		map[string]string{"old": oldPath, "new": newPath})

	if strategy != "dummy" {
		if dir := filepath.Dir(newPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("rename: mkdir %s: %w", dir, err)
			}
		}
	}

	switch strategy {
	case "dummy":
		return nil
	case "copy":
		return copyFile(oldPath, newPath)
	case "move":
		return os.Rename(oldPath, newPath)
	case "symlink":
		// The new path becomes a link to the original file.
		os.Remove(newPath)
		return os.Symlink(oldPath, newPath)
	case "keeplink":
		// Move the file, then leave a link behind at the old location.
		if err := os.Rename(oldPath, newPath); err != nil {
			return err
		}
		return os.Symlink(newPath, oldPath)
	}

	if m := execExp.FindStringSubmatch(strategy); m != nil {
		cmd := exec.Command("sh", "-c", m[1])
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("rename: exec strategy failed: %w (output: %s)", err, out)
		}
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
}

func copyFile(oldPath, newPath string) error {
	src, err := os.Open(oldPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(newPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return dst.Close()
}
