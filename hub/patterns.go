package hub

import "path"

// FilterByGlobs keeps entries of files whose path matches any of globs. An
// empty glob list matches every path. Matching uses path.Match (POSIX
// fnmatch semantics: "*", "?", character classes; "**" is not special) and
// is always applied to the whole path string, never per path segment, per
// spec §4.6 and the boundary behaviors in §8.
func FilterByGlobs(files []string, globs []string) []string {
	if len(globs) == 0 {
		return files
	}
	out := make([]string, 0, len(files))
	for _, f := range files {
		if matchesAnyGlob(f, globs) {
			out = append(out, f)
		}
	}
	return out
}

func matchesAnyGlob(file string, globs []string) bool {
	for _, g := range globs {
		if ok, err := path.Match(g, file); err == nil && ok {
			return true
		}
	}
	return false
}
