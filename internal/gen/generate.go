// Package gen turns a Document into the client IR: interfaces for named
// schemas and one service unit of typed functions per tag group.
package gen

import (
	"errors"
	"path"
	"strings"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/internal/spec"
)

// TransportBinding is the local name of the transport's default export in
// every service unit.
const TransportBinding = "request"

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Program     *ir.Program
	Diagnostics Diagnostics
}

// Generate runs the generation pass over doc. Problems local to a schema or
// an operation are returned as diagnostics; only a nil document is an error.
func Generate(doc *spec.Document, opts ...Option) (*Result, error) {
	if doc == nil {
		return nil, errors.New("gen: nil document")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	r := newRun(cfg)
	r.log.Debug("generation started", "title", doc.Title, "schemas", len(doc.Schemas), "paths", len(doc.Paths))

	prog := &ir.Program{
		Title:     doc.Title,
		Version:   doc.Version,
		Transport: cfg.transportModule,
		Types: ir.TypeUnit{
			Module:     cfg.typesModule,
			Interfaces: r.convertSchemas(doc.Schemas),
		},
	}

	var reserved []string
	for _, m := range []string{cfg.transportModule, cfg.typesModule} {
		if path.Dir(m) == cfg.servicesDir {
			reserved = append(reserved, moduleBase(m))
		}
	}
	groups := newGrouper(r.names, reserved...)

	for i := range doc.Paths {
		pi := &doc.Paths[i]
		if !strings.HasPrefix(pi.Path, "/") {
			r.report(Diagnostic{Severity: SeverityInfo, Code: CodeSkippedPath, Path: pi.Path, Message: "path does not start with '/'; skipped"})
			continue
		}
		for j := range pi.Operations {
			op := &pi.Operations[j]
			x, ok := r.extractOperation(pi.Path, op)
			if !ok {
				continue
			}
			fn := r.synthesizeFunction(x)
			grp, renamed := groups.lookup(op.Tags)
			at := site{path: pi.Path, method: string(op.Method)}
			if renamed {
				r.report(at.diag(SeverityWarning, CodeRenamedGroup, "group renamed to "+grp.id+" to avoid a generated module"))
			}
			if !grp.add(fn) {
				r.report(at.diag(SeverityError, CodeDuplicateFunction, "function "+fn.Name+" already exists in group "+grp.id+"; skipped"))
				continue
			}
			r.log.Debug("function synthesized", "function", fn.Name, "group", grp.id)
		}
	}

	for _, grp := range groups.sorted() {
		prog.Services = append(prog.Services, r.serviceUnit(grp))
	}

	r.log.Info("generation finished",
		"interfaces", len(prog.Types.Interfaces),
		"services", len(prog.Services),
		"errors", r.diags.Count(SeverityError),
		"warnings", r.diags.Count(SeverityWarning))
	return &Result{RunID: r.id, Program: prog, Diagnostics: r.diags}, nil
}

// serviceUnit plans the imports of a group and freezes it into a unit.
func (r *run) serviceUnit(grp *group) ir.ServiceUnit {
	module := r.cfg.servicesDir + "/" + grp.id
	plan := newImportPlan(module)
	plan.addDefault(r.cfg.transportModule, TransportBinding)
	for i := range grp.functions {
		fn := &grp.functions[i]
		for j := range fn.Params {
			plan.addType(r.cfg.typesModule, &fn.Params[j].Type)
		}
		plan.addType(r.cfg.typesModule, fn.Returns)
	}
	return ir.ServiceUnit{
		Group:     grp.id,
		Module:    module,
		Imports:   plan.build(),
		Functions: grp.functions,
	}
}
