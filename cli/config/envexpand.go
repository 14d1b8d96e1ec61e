// Package config loads draftstream.yaml, the optional defaults file for the
// stream commands.
package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv replaces ${VAR} and ${VAR:-default} in input.
//
// ${VAR} expands to the variable's value or the empty string. ${VAR:-default}
// expands to default when VAR is unset or empty.
func ExpandEnv(input string) string {
	out, _ := expand(input)
	return out
}

// UnsetVars returns the names referenced by input that are unset or empty
// and have no default, in order of first use.
func UnsetVars(input string) []string {
	_, missing := expand(input)
	return missing
}

func expand(input string) (string, []string) {
	var missing []string
	seen := map[string]bool{}
	out := envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name := groups[1]
		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value
		}
		if groups[2] != "" {
			return groups[2]
		}
		if !seen[name] {
			seen[name] = true
			missing = append(missing, name)
		}
		return ""
	})
	return out, missing
}
