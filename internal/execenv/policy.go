// Package execenv builds the environment handed to model-authored scripts.
//
// Scripts inherit the agent's environment minus anything that looks like a
// credential, so provider API keys loaded for the model client never reach
// code the model wrote.
package execenv

import (
	"os"
	"path"
	"sort"
	"strings"
)

// Inherit controls which environment variables are included as the starting set.
type Inherit string

const (
	// InheritAll starts from the full parent environment (default).
	InheritAll Inherit = "all"
	// InheritNone starts with an empty environment.
	InheritNone Inherit = "none"
	// InheritCore keeps only platform variables (HOME, PATH, locale, temp dirs).
	InheritCore Inherit = "core"
)

var coreVars = map[string]bool{
	"HOME":        true,
	"LANG":        true,
	"LC_ALL":      true,
	"LOGNAME":     true,
	"PATH":        true,
	"SHELL":       true,
	"TEMP":        true,
	"TMP":         true,
	"TMPDIR":      true,
	"USER":        true,
	"VIRTUAL_ENV": true,
}

// SecretPatterns match variable names removed unless KeepSecrets is set.
var SecretPatterns = []string{"*KEY*", "*SECRET*", "*TOKEN*", "*PASSWORD*"}

// Policy configures the environment of a spawned script. Steps run in order:
// inherit, drop secrets, drop Exclude matches, apply Set, keep IncludeOnly.
// Patterns are case-insensitive shell globs (* and ?).
type Policy struct {
	Inherit     Inherit           `yaml:"inherit" json:"inherit,omitempty"`
	KeepSecrets bool              `yaml:"keep_secrets" json:"keep_secrets,omitempty"`
	Exclude     []string          `yaml:"exclude" json:"exclude,omitempty"`
	Set         map[string]string `yaml:"set" json:"set,omitempty"`
	IncludeOnly []string          `yaml:"include_only" json:"include_only,omitempty"`
}

// DefaultPolicy inherits everything except credentials.
func DefaultPolicy() Policy {
	return Policy{Inherit: InheritAll}
}

// Environ applies the policy to the current process environment and
// returns a sorted KEY=VALUE slice ready for exec.Cmd.Env.
func (p Policy) Environ() []string {
	return ToSlice(p.Apply(FromEnviron(os.Environ())))
}

// Apply filters vars according to the policy. vars is not modified.
func (p Policy) Apply(vars map[string]string) map[string]string {
	env := make(map[string]string, len(vars))

	switch p.Inherit {
	case InheritNone:
	case InheritCore:
		for k, v := range vars {
			if coreVars[k] {
				env[k] = v
			}
		}
	default:
		for k, v := range vars {
			env[k] = v
		}
	}

	if !p.KeepSecrets {
		dropMatching(env, SecretPatterns)
	}
	dropMatching(env, p.Exclude)

	for k, v := range p.Set {
		env[k] = v
	}

	if len(p.IncludeOnly) > 0 {
		for k := range env {
			if !matchesAny(k, p.IncludeOnly) {
				delete(env, k)
			}
		}
	}
	return env
}

// FromEnviron parses KEY=VALUE entries as returned by os.Environ.
func FromEnviron(entries []string) map[string]string {
	vars := make(map[string]string, len(entries))
	for _, entry := range entries {
		if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
			vars[k] = v
		}
	}
	return vars
}

// ToSlice renders env as sorted KEY=VALUE strings.
func ToSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func dropMatching(env map[string]string, patterns []string) {
	if len(patterns) == 0 {
		return
	}
	for k := range env {
		if matchesAny(k, patterns) {
			delete(env, k)
		}
	}
}

func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, pattern := range patterns {
		if ok, err := path.Match(strings.ToLower(pattern), lower); err == nil && ok {
			return true
		}
	}
	return false
}
