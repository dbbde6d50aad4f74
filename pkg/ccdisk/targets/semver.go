package targets

import (
	"sort"
	"strconv"
	"strings"
)

// Version is a best-effort major.minor.patch key for a plugin version
// directory name.
type Version [3]int

// ParseVersion strips a leading "v", reads up to three dot-separated
// components and drops any "-suffix" on the patch. If any present component
// is not an integer the whole key is 0.0.0. Pre-release tags therefore sort
// equal to their release.
func ParseVersion(name string) Version {
	parts := strings.Split(strings.TrimLeft(name, "v"), ".")

	var v Version
	for i := 0; i < 3 && i < len(parts); i++ {
		p := parts[i]
		if i == 2 {
			p, _, _ = strings.Cut(p, "-")
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}
		}
		v[i] = n
	}
	return v
}

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool {
	for i := range v {
		if v[i] != o[i] {
			return v[i] < o[i]
		}
	}
	return false
}

// SortVersionsDesc orders version directory names newest first. Names with
// equal keys keep a deterministic order by name, descending.
func SortVersionsDesc(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		vi, vj := ParseVersion(names[i]), ParseVersion(names[j])
		if vi != vj {
			return vj.Less(vi)
		}
		return names[i] > names[j]
	})
}
