package validation

import (
	"regexp"
	"strings"
)

// Pattern names a predefined format for the regex rule.
type Pattern string

const (
	PatternName     Pattern = "name"
	PatternEmail    Pattern = "email"
	PatternPassword Pattern = "password"
	PatternUUIDV4   Pattern = "uuidV4"
	PatternURL      Pattern = "url"
)

var namedPatterns = map[Pattern]*regexp.Regexp{
	PatternName:   regexp.MustCompile(`^([a-zA-ZÀ-ÿ]+ )*[a-zA-ZÀ-ÿ]+$`),
	PatternEmail:  regexp.MustCompile(`^[\w+.]+@\w+\.\w{2,}(\.\w{2})?$`),
	PatternUUIDV4: regexp.MustCompile(`(?i)^[0-9A-F]{8}-[0-9A-F]{4}-4[0-9A-F]{3}-[89AB][0-9A-F]{3}-[0-9A-F]{12}$`),
	PatternURL:    regexp.MustCompile(`^https?://[\w.-]+\.[a-z]{2,6}\b[-\w@:%+.~#?&/=]*$`),
}

// matchPattern reports whether s satisfies the named pattern. The password
// pattern needs character-class counting that RE2 cannot express.
func matchPattern(pattern Pattern, s string) bool {
	if pattern == PatternPassword {
		return matchPassword(s)
	}
	re, ok := namedPatterns[pattern]
	if !ok {
		return false
	}
	return re.MatchString(s)
}

const passwordSpecials = "@$!%*?&"

// matchPassword requires at least one lower case letter, one upper case
// letter, one digit and one special character.
func matchPassword(s string) bool {
	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		default:
			return false
		}
	}
	return lower && upper && digit && special
}
