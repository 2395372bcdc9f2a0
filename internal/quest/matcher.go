package quest

import (
	"fmt"
	"regexp"
)

// Matches reports whether the task pattern occurs anywhere in the drop
// message. Patterns are authored expecting partial matches, so this is a
// search, never a full-string match. A pattern that fails to compile is
// an error for that task only; callers keep evaluating the rest.
func Matches(pattern, message string) (bool, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid task pattern %q: %w", pattern, err)
	}
	return re.MatchString(message), nil
}
