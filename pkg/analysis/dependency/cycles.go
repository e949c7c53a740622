package dependency

import (
	"sort"
	"strings"

	"github.com/smith-xyz/pyhealth/pkg/models"
)

// FindCycles enumerates the closed loops of g. Every layer is used as a start
// node, in sorted order, with its own visited set; neighbours are walked in
// sorted order. A loop reached from several starts, or in the opposite
// direction, is reported once, in the orientation it was first found.
func FindCycles(g models.LayerGraph) []models.Cycle {
	starts := make([]string, 0, len(g))
	for layer := range g {
		starts = append(starts, layer)
	}
	sort.Strings(starts)

	f := &cycleFinder{graph: g, seen: make(map[string]bool)}
	for _, start := range starts {
		f.visited = make(map[string]bool)
		f.walk(start, nil)
	}
	return f.cycles
}

type cycleFinder struct {
	graph   models.LayerGraph
	visited map[string]bool
	seen    map[string]bool // canonical keys of emitted cycles
	cycles  []models.Cycle
}

func (f *cycleFinder) walk(node string, path []string) {
	for i, p := range path {
		if p == node {
			cycle := make(models.Cycle, 0, len(path)-i+1)
			cycle = append(cycle, path[i:]...)
			cycle = append(cycle, node)
			f.emit(cycle)
			return
		}
	}
	if f.visited[node] {
		return
	}
	f.visited[node] = true

	next := append(path[:len(path):len(path)], node)
	for _, neighbour := range f.graph[node] {
		f.walk(neighbour, next)
	}
}

func (f *cycleFinder) emit(c models.Cycle) {
	key := canonicalKey(c)
	if f.seen[key] {
		return
	}
	f.seen[key] = true
	f.cycles = append(f.cycles, c)
}

// canonicalKey identifies a cycle up to rotation and reversal: the smallest
// rotation of either direction, closing element dropped.
func canonicalKey(c models.Cycle) string {
	open := []string(c[:len(c)-1])
	var best string
	first := true
	for _, seq := range [][]string{open, reversed(open)} {
		for i := range seq {
			rotated := strings.Join(append(append([]string{}, seq[i:]...), seq[:i]...), "\x00")
			if first || rotated < best {
				best, first = rotated, false
			}
		}
	}
	return best
}

func reversed(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
