package catalog

import "strings"

// normalizePath canonicalizes a source-file path: duplicate separators
// and "." components drop out, ".." pops the previous component (or
// drops when there is none), and a leading "/" survives. An empty input
// stays empty; an input that collapses completely becomes "/".
func normalizePath(p string) string {
	if p == "" {
		return p
	}

	var stack []string
	for _, comp := range strings.Split(p, "/") {
		switch comp {
		case "", ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, comp)
		}
	}

	if len(stack) == 0 {
		return "/"
	}
	out := strings.Join(stack, "/")
	if p[0] == '/' {
		out = "/" + out
	}
	return out
}
