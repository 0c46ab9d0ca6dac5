package guard

import (
	"regexp"
	"strconv"
)

var (
	ansiCQuoted = regexp.MustCompile(`\$'([^']*)'`)
	hexEscape   = regexp.MustCompile(`\\x([0-9a-fA-F]{2})`)
	octalEscape = regexp.MustCompile(`\\([0-7]{1,3})`)
)

// Normalize expands ANSI-C $'...' quoting so deny patterns can match
// hex/octal-obfuscated tokens like $'\x72\x6d'. The result is used for
// matching only; the raw command string is what gets executed. Malformed
// escapes are left as literal text, and text outside $'...' spans passes
// through unchanged.
func Normalize(cmd string) string {
	return ansiCQuoted.ReplaceAllStringFunc(cmd, func(span string) string {
		inner := span[2 : len(span)-1]
		inner = hexEscape.ReplaceAllStringFunc(inner, func(esc string) string {
			n, err := strconv.ParseUint(esc[2:], 16, 8)
			if err != nil {
				return esc
			}
			return string(rune(n))
		})
		inner = octalEscape.ReplaceAllStringFunc(inner, func(esc string) string {
			n, err := strconv.ParseUint(esc[1:], 8, 16)
			if err != nil {
				return esc
			}
			return string(rune(n))
		})
		return inner
	})
}
