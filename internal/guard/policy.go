package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// defaultDenyPatterns block known-dangerous command classes. Each entry is
// one class; all are matched case-insensitively against the lower-cased
// normalized command. Word boundaries keep substrings like a path containing
// "/bin/python" from tripping the inline-code patterns.
var defaultDenyPatterns = []string{
	// Destructive file/disk operations
	`\brm\s+-[rf]{1,2}\b`,
	`\bdel\s+/[fq]\b`,
	`\brmdir\s+/s\b`,
	`(?:^|[;&|]\s*)format\b`,
	`\b(mkfs|diskpart)\b`,
	`\bdd\s+if=`,
	`>\s*/dev/sd`,
	`\b(shutdown|reboot|poweroff)\b`,
	`:\(\)\s*\{.*\};\s*:`,
	// Meta-execution vectors
	`\beval\b`,
	`\bexec\b`,
	`\bbash\s+-c\b`,
	`\bsh\s+-c\b`,
	`\bzsh\s+-c\b`,
	`\bpython[23]?\s+-c\b`,
	`\bperl\s+-e\b`,
	`\bruby\s+-e\b`,
	`\bnode\s+-e\b`,
	// Pipe to shell
	`\|\s*(bash|sh|zsh)\b`,
	// Base64 decode (common evasion)
	`\bbase64\s+--?d(ecode)?\b`,
	// Command substitution
	`\$\(`,
	"`",
	// Variable-based evasion
	`\bexport\s+\w+=`,
}

// DefaultDenyPatterns returns a copy of the built-in deny pattern set.
func DefaultDenyPatterns() []string {
	out := make([]string, len(defaultDenyPatterns))
	copy(out, defaultDenyPatterns)
	return out
}

// Policy is an immutable, compiled command policy. Construct it once and
// share it; Evaluate is pure and safe for concurrent use.
type Policy struct {
	deny                []*regexp.Regexp
	allow               []*regexp.Regexp
	restrictToWorkspace bool
}

// NewPolicy compiles the configured patterns into a Policy. An empty deny
// list falls back to the built-in default set; an empty allow list means no
// allowlist restriction. Invalid patterns fail construction.
func NewPolicy(cfg Config) (*Policy, error) {
	denyPatterns := cfg.DenyPatterns
	if len(denyPatterns) == 0 {
		denyPatterns = defaultDenyPatterns
	}

	deny, err := compilePatterns(denyPatterns)
	if err != nil {
		return nil, fmt.Errorf("deny pattern: %w", err)
	}
	allow, err := compilePatterns(cfg.AllowPatterns)
	if err != nil {
		return nil, fmt.Errorf("allow pattern: %w", err)
	}

	return &Policy{
		deny:                deny,
		allow:               allow,
		restrictToWorkspace: cfg.RestrictToWorkspace,
	}, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Evaluate classifies a command as permitted or rejected. This is a
// best-effort textual guard, not a shell parser: matching runs over the
// lower-cased normalized form, short-circuiting on the first rejection.
// The workdir argument is only consulted for workspace confinement.
func (p *Policy) Evaluate(command, workdir string) Decision {
	cmd := Normalize(strings.TrimSpace(command))
	lower := strings.ToLower(cmd)

	for _, re := range p.deny {
		if re.MatchString(lower) {
			return reject(ReasonDeniedPattern, re.String())
		}
	}

	if len(p.allow) > 0 {
		matched := false
		for _, re := range p.allow {
			if re.MatchString(lower) {
				matched = true
				break
			}
		}
		if !matched {
			return reject(ReasonNotAllowlisted, "")
		}
	}

	if p.restrictToWorkspace {
		if d, ok := checkWorkspace(cmd, workdir); !ok {
			return d
		}
	}

	return permit()
}
