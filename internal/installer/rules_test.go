package installer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = `[Setup]
AppName=My App
AppVersion=1.0.0
DefaultDirName={autopf}\My App

[Registry]
Root: HKCU; Subkey: "Software\My App"; ValueType: string; ValueName: "Version"; ValueData: "1.0.0"

[Code]
const MyAppVersion = '1.0.0';

function InitializeSetup(): Boolean;
begin
  Result := True;
end;
`

func TestApplyRewritesAllRules(t *testing.T) {
	t.Parallel()

	got, results := Apply(sampleScript, "2.3.1", DefaultRules())

	assert.Contains(t, got, "AppVersion=2.3.1\n")
	assert.Contains(t, got, `ValueData: "2.3.1"`)
	assert.Contains(t, got, "const MyAppVersion = '2.3.1';")
	assert.NotContains(t, got, "1.0.0")

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, 1, r.Matches, "rule %s", r.Rule)
		assert.True(t, r.Changed, "rule %s", r.Rule)
	}
	assert.Equal(t, []string{"[Setup]", "[Registry]", "[Code]"},
		[]string{results[0].Section, results[1].Section, results[2].Section})
}

func TestApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	once, _ := Apply(sampleScript, "2.3.1", DefaultRules())
	twice, results := Apply(once, "2.3.1", DefaultRules())

	assert.Equal(t, once, twice)
	for _, r := range results {
		assert.Equal(t, 1, r.Matches)
		assert.False(t, r.Changed, "rule %s", r.Rule)
	}
}

func TestApplyNoMatchIsNoop(t *testing.T) {
	t.Parallel()

	text := "[Setup]\nAppName=My App\n\n[Files]\nSource: \"app.exe\"; DestDir: \"{app}\"\n"
	got, results := Apply(text, "2.3.1", DefaultRules())

	assert.Equal(t, text, got)
	for _, r := range results {
		assert.Zero(t, r.Matches)
		assert.False(t, r.Changed)
	}
}

func TestApplyMissingOneRule(t *testing.T) {
	t.Parallel()

	text := strings.Replace(sampleScript, "AppVersion=1.0.0\n", "", 1)
	got, results := Apply(text, "2.3.1", DefaultRules())

	assert.NotContains(t, got, "AppVersion=")
	assert.Contains(t, got, `ValueData: "2.3.1"`)
	assert.Zero(t, results[0].Matches)
	assert.Equal(t, 1, results[1].Matches)
	assert.Equal(t, 1, results[2].Matches)
}

func TestApplyRulesAreIsolated(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	for i, rule := range rules {
		i, rule := i, rule
		t.Run(rule.Name, func(t *testing.T) {
			t.Parallel()
			got, _ := Apply(sampleScript, "9.9.9", rules[i:i+1])

			lines := strings.Split(got, "\n")
			changed := 0
			for j, line := range strings.Split(sampleScript, "\n") {
				if lines[j] != line {
					changed++
				}
			}
			assert.Equal(t, 1, changed, "rule %s must touch exactly its own line", rule.Name)
		})
	}
}

func TestApplyKeepsCRLF(t *testing.T) {
	t.Parallel()

	text := "[Setup]\r\nAppVersion=1.0.0\r\nAppName=x\r\n"
	got, _ := Apply(text, "2.0.0", DefaultRules())
	assert.Equal(t, "[Setup]\r\nAppVersion=2.0.0\r\nAppName=x\r\n", got)
}

func TestApplyInsertsVersionLiterally(t *testing.T) {
	t.Parallel()

	got, _ := Apply(sampleScript, `1.0.0-$1\n`, DefaultRules())
	assert.Contains(t, got, `AppVersion=1.0.0-$1\n`)
	assert.Contains(t, got, `ValueData: "1.0.0-$1\n"`)
	assert.Contains(t, got, `const MyAppVersion = '1.0.0-$1\n';`)
}

func TestApplyConstWhitespace(t *testing.T) {
	t.Parallel()

	text := "const\tMyAppVersion  =   '0.1';\n"
	got, results := Apply(text, "0.2", DefaultRules())
	assert.Equal(t, "const MyAppVersion = '0.2';\n", got)
	assert.Equal(t, 1, results[2].Matches)
}

func TestApplyEveryOccurrence(t *testing.T) {
	t.Parallel()

	text := "AppVersion=1\nAppVersion=2\n"
	got, results := Apply(text, "3", DefaultRules())
	assert.Equal(t, "AppVersion=3\nAppVersion=3\n", got)
	assert.Equal(t, 2, results[0].Matches)
}
