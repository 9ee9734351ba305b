package gen

import (
	"path"
	"sort"

	"github.com/mark3labs/swagger2ts/internal/ir"
)

// CommonGroup collects operations without tags.
const CommonGroup = "common"

type group struct {
	id        string
	functions []ir.Function
	names     map[string]struct{}
}

// grouper buckets functions by the kebab-cased first tag. It lives for a
// single run.
type grouper struct {
	names    *namer
	reserved map[string]struct{}
	groups   map[string]*group
}

func newGrouper(names *namer, reserved ...string) *grouper {
	g := &grouper{names: names, reserved: map[string]struct{}{}, groups: map[string]*group{}}
	for _, id := range reserved {
		g.reserved[id] = struct{}{}
	}
	return g
}

// groupID returns the unit identity for an operation's tag list.
func (g *grouper) groupID(tags []string) string {
	if len(tags) == 0 {
		return CommonGroup
	}
	if id := g.names.kebab(tags[0]); id != "" {
		return id
	}
	return CommonGroup
}

// lookup returns the group for tags, creating it on first use. renamed is
// set when the natural id clashed with a reserved unit name.
func (g *grouper) lookup(tags []string) (grp *group, renamed bool) {
	id := g.groupID(tags)
	if _, clash := g.reserved[id]; clash {
		id += "-service"
		renamed = true
	}
	if grp, ok := g.groups[id]; ok {
		return grp, renamed
	}
	grp = &group{id: id, names: map[string]struct{}{}}
	g.groups[id] = grp
	return grp, renamed
}

// add appends fn unless the group already holds a function with its name.
func (grp *group) add(fn ir.Function) bool {
	if _, dup := grp.names[fn.Name]; dup {
		return false
	}
	grp.names[fn.Name] = struct{}{}
	grp.functions = append(grp.functions, fn)
	return true
}

// sorted returns the non-empty groups ordered by id.
func (g *grouper) sorted() []*group {
	out := make([]*group, 0, len(g.groups))
	for _, grp := range g.groups {
		if len(grp.functions) > 0 {
			out = append(out, grp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// moduleBase is the last element of a module path.
func moduleBase(m string) string { return path.Base(m) }
