// Package config holds the read-only global options the elaboration stage
// consumes: name-pattern lists that force variables to be treated as
// clocks (or never as clocks). Patterns match fully-qualified dotted
// names, e.g. "TOP.sub.clk" or "*.clk".
package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Options is the compiled form of the global option lists. The zero value
// (and a nil *Options) matches nothing.
type Options struct {
	clockers   []glob.Glob
	noClockers []glob.Glob
}

// New compiles the clocker and no-clocker pattern lists. Patterns use glob
// syntax with '.' as the hierarchy separator.
func New(clockers, noClockers []string) (*Options, error) {
	o := &Options{}
	var err error
	if o.clockers, err = compile(clockers); err != nil {
		return nil, fmt.Errorf("clockers: %w", err)
	}
	if o.noClockers, err = compile(noClockers); err != nil {
		return nil, fmt.Errorf("no_clockers: %w", err)
	}
	return o, nil
}

func compile(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// IsClocker reports whether the fully-qualified name matches a forced-clock
// pattern.
func (o *Options) IsClocker(name string) bool {
	if o == nil {
		return false
	}
	return matchAny(o.clockers, name)
}

// IsNoClocker reports whether the fully-qualified name matches a
// forced-not-clock pattern.
func (o *Options) IsNoClocker(name string) bool {
	if o == nil {
		return false
	}
	return matchAny(o.noClockers, name)
}

func matchAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
