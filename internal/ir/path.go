package ir

import (
	"slices"
	"strconv"
	"strings"
)

// Path addresses a (possibly nested) action position as a dot-joined
// action stack, e.g. "2.0.3". Paths order by numeric segment; a prefix
// orders before its extensions.
type Path string

// PathOf joins an action stack into a Path.
func PathOf(stack []int) Path {
	parts := make([]string, len(stack))
	for i, n := range stack {
		parts[i] = strconv.Itoa(n)
	}
	return Path(strings.Join(parts, "."))
}

// Stack splits the path into its action stack. Malformed segments read as 0.
func (p Path) Stack() []int {
	if p == "" {
		return nil
	}
	parts := strings.Split(string(p), ".")
	out := make([]int, len(parts))
	for i, s := range parts {
		out[i], _ = strconv.Atoi(s)
	}
	return out
}

// ComparePaths orders paths by numeric segments.
func ComparePaths(a, b Path) int {
	return slices.Compare(a.Stack(), b.Stack())
}

// SortPaths sorts paths in place by numeric segment order.
func SortPaths(paths []Path) {
	slices.SortFunc(paths, ComparePaths)
}

// ActionIDPath joins an ActionId stack, the edit-stable counterpart of Path.
func ActionIDPath(ids []ActionID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ".")
}
