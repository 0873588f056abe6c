package plan

import "sort"

// Plan is the ordered set of actions for one sync cycle. Slices are sorted
// lexicographically by logical path, which places parent directories before
// their children; directory removals are consumed in reverse.
type Plan struct {
	CreateDirs  []Action
	CreateFiles []Action
	UpdateFiles []Action
	DeleteFiles []Action
	DeleteDirs  []Action
}

// Empty reports whether the plan contains no actions.
func (p *Plan) Empty() bool { return p.Total() == 0 }

// Total returns the number of planned actions.
func (p *Plan) Total() int {
	return len(p.CreateDirs) + len(p.CreateFiles) + len(p.UpdateFiles) +
		len(p.DeleteFiles) + len(p.DeleteDirs)
}

// Actions returns every action in execution order: directory creations,
// file creations, file updates, file deletions, then directory deletions
// deepest first.
func (p *Plan) Actions() []Action {
	out := make([]Action, 0, p.Total())
	out = append(out, p.CreateDirs...)
	out = append(out, p.CreateFiles...)
	out = append(out, p.UpdateFiles...)
	out = append(out, p.DeleteFiles...)
	for i := len(p.DeleteDirs) - 1; i >= 0; i-- {
		out = append(out, p.DeleteDirs[i])
	}
	return out
}

func (p *Plan) sort() {
	for _, actions := range [][]Action{
		p.CreateDirs, p.CreateFiles, p.UpdateFiles, p.DeleteFiles, p.DeleteDirs,
	} {
		sort.Slice(actions, func(i, j int) bool {
			return actions[i].LogicalPath < actions[j].LogicalPath
		})
	}
}

// DepthWaves groups actions into consecutive waves by path depth, shallowest
// first. Actions within a wave have no parent-child relationship and may run
// concurrently; waves must run in order.
func DepthWaves(actions []Action) [][]Action {
	byDepth := map[int][]Action{}
	var depths []int
	for _, action := range actions {
		depth := action.Depth()
		if _, seen := byDepth[depth]; !seen {
			depths = append(depths, depth)
		}
		byDepth[depth] = append(byDepth[depth], action)
	}
	sort.Ints(depths)

	waves := make([][]Action, 0, len(depths))
	for _, depth := range depths {
		waves = append(waves, byDepth[depth])
	}
	return waves
}

// ReverseDepthWaves groups actions by path depth, deepest first, for
// child-before-parent removal.
func ReverseDepthWaves(actions []Action) [][]Action {
	waves := DepthWaves(actions)
	for i, j := 0, len(waves)-1; i < j; i, j = i+1, j-1 {
		waves[i], waves[j] = waves[j], waves[i]
	}
	return waves
}
