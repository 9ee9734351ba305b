// Package tsemitter renders an ir.Program as a TypeScript client: one shared
// type module, one module per service group and an axios transport module.
package tsemitter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/mark3labs/swagger2ts/internal/ir"
)

const (
	// ManifestName records the files of the previous run inside the output
	// directory.
	ManifestName = ".swagger2ts-manifest.json"
	// IRName is the optional program dump.
	IRName = "ir.json"

	DefaultBaseURL   = "/api"
	DefaultTimeoutMS = 30000
)

// ErrNotEmpty is returned when the output directory holds files that were
// not produced by a previous run and Force is not set.
var ErrNotEmpty = errors.New("output directory is not empty")

// Options controls how the TypeScript emitter writes a client.
type Options struct {
	OutDir    string // required
	BaseURL   string // transport base URL, DefaultBaseURL when empty
	TimeoutMS int    // transport timeout, DefaultTimeoutMS when zero
	EmitIR    bool   // also write IRName
	Force     bool   // write into a non-empty directory without a manifest
	DryRun    bool   // plan only
	Logger    *slog.Logger
}

// FileStatus tells what a run does to one planned file.
type FileStatus string

const (
	StatusCreate    FileStatus = "create"
	StatusUpdate    FileStatus = "update"
	StatusUnchanged FileStatus = "unchanged"
)

// PlannedFile describes a file the emitter intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
	Status  FileStatus
}

// Result lists the planned files and the stale files removed (or, on a dry
// run, that would be removed).
type Result struct {
	Planned []PlannedFile
	Removed []string
}

// Changed reports how many planned files differ from what is on disk.
func (r *Result) Changed() int {
	n := 0
	for _, p := range r.Planned {
		if p.Status != StatusUnchanged {
			n++
		}
	}
	return n
}

type manifest struct {
	Generator string   `json:"generator"`
	Files     []string `json:"files"`
}

// Emit renders prog into opts.OutDir.
func Emit(ctx context.Context, prog *ir.Program, opts Options) (*Result, error) {
	if prog == nil {
		return nil, fmt.Errorf("tsemitter: nil Program")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("tsemitter: OutDir is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TimeoutMS <= 0 {
		opts.TimeoutMS = DefaultTimeoutMS
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	files, err := render(prog, opts)
	if err != nil {
		return nil, err
	}

	out, err := openOutDir(opts.OutDir)
	if err != nil {
		return nil, err
	}
	prev, hasManifest, err := out.readManifest()
	if err != nil {
		return nil, err
	}
	if !hasManifest && !opts.Force {
		empty, err := out.empty()
		if err != nil {
			return nil, err
		}
		if !empty {
			return nil, fmt.Errorf("tsemitter: %w: %s (use --force to overwrite)", ErrNotEmpty, out.root)
		}
	}

	rels := make([]string, 0, len(files))
	for rel := range files {
		rels = append(rels, rel)
	}
	sort.Strings(rels)

	res := &Result{Planned: make([]PlannedFile, 0, len(rels))}
	for _, rel := range rels {
		res.Planned = append(res.Planned, PlannedFile{
			RelPath: rel,
			Size:    len(files[rel]),
			Mode:    0o644,
			Status:  out.status(rel, files[rel]),
		})
	}
	for _, rel := range prev.Files {
		if _, ok := files[rel]; !ok && localPath(rel) {
			res.Removed = append(res.Removed, rel)
		}
	}
	sort.Strings(res.Removed)

	if opts.DryRun {
		return res, nil
	}
	for _, p := range res.Planned {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Status == StatusUnchanged {
			log.Debug("file unchanged", slog.String("path", p.RelPath))
			continue
		}
		if err := out.write(p.RelPath, files[p.RelPath]); err != nil {
			return nil, err
		}
		log.Debug("file written", slog.String("path", p.RelPath), slog.String("status", string(p.Status)))
	}
	for _, rel := range res.Removed {
		if err := out.remove(rel); err != nil {
			return nil, err
		}
		log.Debug("stale file removed", slog.String("path", rel))
	}
	return res, nil
}

// render builds the full file set keyed by slash separated relative path.
func render(prog *ir.Program, opts Options) (map[string][]byte, error) {
	files := map[string][]byte{}
	files[prog.Types.Module+".ts"] = []byte(RenderTypes(prog.Types))

	transport, err := RenderTransport(opts.BaseURL, opts.TimeoutMS)
	if err != nil {
		return nil, fmt.Errorf("render transport: %w", err)
	}
	files[prog.Transport+".ts"] = []byte(transport)

	for _, unit := range prog.Services {
		rel := unit.Module + ".ts"
		if _, dup := files[rel]; dup {
			return nil, fmt.Errorf("tsemitter: module %s rendered twice", unit.Module)
		}
		files[rel] = []byte(RenderService(unit))
	}

	if opts.EmitIR {
		b, err := marshal(prog)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", IRName, err)
		}
		files[IRName] = b
	}

	m := manifest{Generator: "swagger2ts", Files: make([]string, 0, len(files))}
	for rel := range files {
		m.Files = append(m.Files, rel)
	}
	sort.Strings(m.Files)
	b, err := marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	files[ManifestName] = b
	return files, nil
}

func marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v, json.Deterministic(true), jsontext.WithIndent("  "))
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// localPath reports whether a manifest entry stays inside the output
// directory.
func localPath(rel string) bool {
	if rel == "" || strings.ContainsRune(rel, '\\') {
		return false
	}
	clean := path.Clean(rel)
	return clean == rel && !path.IsAbs(clean) && clean != "." && clean != ".." && !strings.HasPrefix(clean, "../")
}
