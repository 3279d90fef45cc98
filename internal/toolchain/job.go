package toolchain

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Job is a single compile: one source file, one artifact. It is built,
// run once and discarded.
type Job struct {
	ID     string   `json:"id"`
	Source string   `json:"source"`
	Output string   `json:"output"`
	Flags  []string `json:"flags"`
}

// ArtifactName derives the artifact file name from a source path by
// replacing the trailing source extension. Only the final extension token
// changes, so "a.b.cairo" becomes "a.b.json". A name without the source
// extension gets the artifact extension appended.
func ArtifactName(sourcePath, sourceExt, artifactExt string) string {
	name := filepath.Base(sourcePath)
	return strings.TrimSuffix(name, sourceExt) + artifactExt
}

// NewJob builds the job for source using the invoker's output directory,
// extensions and flags.
func (i *Invoker) NewJob(source string) *Job {
	name := ArtifactName(source, i.cfg.SourceExt, i.cfg.ArtifactExt)
	return &Job{
		ID:     uuid.NewString(),
		Source: source,
		Output: filepath.Join(i.cfg.OutputDir, name),
		Flags:  append([]string(nil), i.cfg.Flags...),
	}
}
