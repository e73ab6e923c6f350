package ranking

import (
	"strings"

	"github.com/okian/gitstart/internal/domain/model"
)

// knownLanguages maps label and fence spellings to a canonical language tag.
var knownLanguages = map[string]string{
	"go":         "go",
	"golang":     "go",
	"python":     "python",
	"py":         "python",
	"javascript": "javascript",
	"js":         "javascript",
	"node":       "javascript",
	"typescript": "typescript",
	"ts":         "typescript",
	"java":       "java",
	"rust":       "rust",
	"rs":         "rust",
	"ruby":       "ruby",
	"rb":         "ruby",
	"c":          "c",
	"cpp":        "cpp",
	"c++":        "cpp",
	"csharp":     "csharp",
	"c#":         "csharp",
	"kotlin":     "kotlin",
	"swift":      "swift",
	"php":        "php",
}

// CanonicalLanguage returns the canonical tag for a language spelling, or
// the lower-cased input when it is not a known alias.
func CanonicalLanguage(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := knownLanguages[s]; ok {
		return c
	}
	return s
}

// DetectLanguage picks the primary language of an issue: the explicit
// language, then a "lang:x" or known-language label, then the tag of the
// first fenced code block in the body.
func DetectLanguage(issue model.IssueText) string {
	if l := strings.TrimSpace(issue.Language); l != "" {
		return CanonicalLanguage(l)
	}

	for _, label := range issue.Labels {
		l := strings.ToLower(strings.TrimSpace(label))
		for _, prefix := range []string{"lang:", "language:", "lang/"} {
			if rest, ok := strings.CutPrefix(l, prefix); ok && rest != "" {
				return CanonicalLanguage(rest)
			}
		}
	}
	for _, label := range issue.Labels {
		if c, ok := knownLanguages[strings.ToLower(strings.TrimSpace(label))]; ok {
			return c
		}
	}

	return fenceLanguage(issue.Body)
}

func fenceLanguage(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		tag, ok := strings.CutPrefix(line, "```")
		if !ok {
			continue
		}
		tag = strings.TrimSpace(tag)
		if tag == "" {
			// unlabelled fence; only the first fence counts
			return ""
		}
		if i := strings.IndexAny(tag, " {"); i >= 0 {
			tag = tag[:i]
		}
		return CanonicalLanguage(tag)
	}
	return ""
}
