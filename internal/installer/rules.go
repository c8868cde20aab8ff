package installer

import (
	"regexp"
)

// DefaultPath is the installer script rewritten when no path is configured.
const DefaultPath = "installer.iss"

// Rule rewrites every span of an installer script matched by Pattern.
type Rule struct {
	// Name is a short identifier used in reports ("A", "B", "C").
	Name string

	// Section is the installer script section the rule targets, e.g. "[Setup]".
	Section string

	// Pattern matches the span to replace. It must not match across lines.
	Pattern *regexp.Regexp

	// Render builds the replacement text for a version.
	Render func(version string) string
}

// Result reports what a rule did to the text.
type Result struct {
	Rule    string `json:"rule"`
	Section string `json:"section"`
	Matches int    `json:"matches"`
	Changed bool   `json:"changed"`
}

// Line-bounded patterns: [^\r\n]* instead of .* so CRLF scripts keep their
// line endings.
var (
	appVersionPattern = regexp.MustCompile(`AppVersion=[^\r\n]*`)
	valueDataPattern  = regexp.MustCompile(`ValueData: "[^\r\n]*"`)
	constPattern      = regexp.MustCompile(`const\s+MyAppVersion\s+=\s+'[^\r\n]*';`)
)

// DefaultRules returns the Inno Setup rules in application order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:    "A",
			Section: "[Setup]",
			Pattern: appVersionPattern,
			Render:  func(v string) string { return "AppVersion=" + v },
		},
		{
			Name:    "B",
			Section: "[Registry]",
			Pattern: valueDataPattern,
			Render:  func(v string) string { return `ValueData: "` + v + `"` },
		},
		{
			Name:    "C",
			Section: "[Code]",
			Pattern: constPattern,
			Render:  func(v string) string { return "const MyAppVersion = '" + v + "';" },
		},
	}
}

// Apply runs the rules in order, each against the output of the previous one.
// A rule with no match leaves the text as it is. The version is inserted
// literally; "$1" in a version is not a group reference.
func Apply(text, version string, rules []Rule) (string, []Result) {
	results := make([]Result, 0, len(rules))
	for _, r := range rules {
		replacement := r.Render(version)
		res := Result{Rule: r.Name, Section: r.Section}

		text = r.Pattern.ReplaceAllStringFunc(text, func(match string) string {
			res.Matches++
			if match != replacement {
				res.Changed = true
			}
			return replacement
		})
		results = append(results, res)
	}
	return text, results
}
