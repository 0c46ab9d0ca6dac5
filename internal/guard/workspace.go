package guard

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Absolute POSIX paths only when preceded by start-of-string, whitespace,
	// pipe or redirect, so relative paths like "venv/bin/python" are not
	// misread as "/bin/python".
	posixPathPattern = regexp.MustCompile(`(?:^|[\s|>])(/[^\s"'>]+)`)
	drivePathPattern = regexp.MustCompile(`[A-Za-z]:\\[^\\"']+`)
)

// checkWorkspace rejects commands that reference the filesystem outside the
// working directory. Path extraction from free-form command text is a
// heuristic and can both over- and under-match; ambiguity resolves to
// rejection rather than guessing intent.
func checkWorkspace(cmd, workdir string) (Decision, bool) {
	if containsTraversal(cmd) {
		return reject(ReasonPathTraversal, ""), false
	}

	root, err := filepath.Abs(workdir)
	if err != nil {
		return reject(ReasonOutsideWorkspace, "unresolvable working directory"), false
	}
	root = resolvePath(root)

	for _, raw := range extractPaths(cmd) {
		if !filepath.IsAbs(raw) {
			continue
		}
		p := resolvePath(raw)
		if p != root && !strings.HasPrefix(p, root+string(filepath.Separator)) {
			return reject(ReasonOutsideWorkspace, p), false
		}
	}

	return Decision{}, true
}

// containsTraversal checks both the literal text and its percent-decoded
// form, so "..%2f" is caught alongside "../".
func containsTraversal(cmd string) bool {
	decoded := cmd
	if u, err := url.PathUnescape(cmd); err == nil {
		decoded = u
	}
	for _, s := range []string{cmd, decoded} {
		if strings.Contains(s, "../") || strings.Contains(s, `..\`) {
			return true
		}
	}
	return false
}

func extractPaths(cmd string) []string {
	var paths []string
	for _, m := range drivePathPattern.FindAllString(cmd, -1) {
		paths = append(paths, strings.TrimSpace(m))
	}
	for _, m := range posixPathPattern.FindAllStringSubmatch(cmd, -1) {
		paths = append(paths, strings.TrimSpace(m[1]))
	}
	return paths
}

// resolvePath canonicalizes a path, following symlinks when the target
// exists and falling back to a lexical clean when it does not.
func resolvePath(path string) string {
	cleaned := filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(cleaned); err == nil {
		return resolved
	}
	return cleaned
}
