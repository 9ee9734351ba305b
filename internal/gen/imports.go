package gen

import (
	"sort"

	"github.com/mark3labs/swagger2ts/internal/ir"
)

// importPlan accumulates the imports of one output unit.
type importPlan struct {
	unit     string
	byModule map[string]*ir.Import
}

func newImportPlan(unit string) *importPlan {
	return &importPlan{unit: unit, byModule: map[string]*ir.Import{}}
}

func (p *importPlan) decl(module string) *ir.Import {
	imp, ok := p.byModule[module]
	if !ok {
		imp = &ir.Import{Module: module}
		p.byModule[module] = imp
	}
	return imp
}

// addName imports name from module, extending an existing declaration.
// Names are never imported into the module declaring them.
func (p *importPlan) addName(module, name string) {
	if module == p.unit || name == "" {
		return
	}
	imp := p.decl(module)
	for _, n := range imp.Names {
		if n == name {
			return
		}
	}
	imp.Names = append(imp.Names, name)
}

// addDefault binds the default export of module to local.
func (p *importPlan) addDefault(module, local string) {
	if module == p.unit {
		return
	}
	p.decl(module).Default = local
}

// addType imports every named type referenced by t.
func (p *importPlan) addType(module string, t *ir.TypeExpr) {
	if t == nil {
		return
	}
	for _, n := range t.Names() {
		p.addName(module, n)
	}
}

// build returns one declaration per module, sorted by module with sorted names.
func (p *importPlan) build() []ir.Import {
	out := make([]ir.Import, 0, len(p.byModule))
	for _, imp := range p.byModule {
		c := *imp
		c.Names = append([]string(nil), imp.Names...)
		sort.Strings(c.Names)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Module < out[j].Module })
	return out
}
