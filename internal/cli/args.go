package cli

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
)

// splitArgs separates flags (with their values) from positionals so the input
// path may appear anywhere on the command line. Everything after "--" is
// positional, and a bare "-" is the stdin input.
func splitArgs(fs *flag.FlagSet, argv []string) (flags, positionals []string) {
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--":
			return flags, append(positionals, argv[i+1:]...)
		case arg == "-" || !strings.HasPrefix(arg, "-"):
			positionals = append(positionals, arg)
			continue
		}
		flags = append(flags, arg)
		if strings.Contains(arg, "=") || isBoolFlag(fs, strings.TrimLeft(arg, "-")) {
			continue
		}
		if i+1 < len(argv) {
			i++
			flags = append(flags, argv[i])
		}
	}
	return flags, positionals
}

func isBoolFlag(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

// resolveInput turns the positionals into the single FASTA path. A glob must
// match exactly one file; "-" is taken literally.
func resolveInput(positionals []string) (string, error) {
	switch len(positionals) {
	case 0:
		return "", errors.New("an input FASTA file (or '-') is required")
	case 1:
	default:
		return "", fmt.Errorf("exactly one input FASTA is accepted, got %d: %s",
			len(positionals), strings.Join(positionals, " "))
	}
	in := positionals[0]
	if in == "-" || !strings.ContainsAny(in, "*?[") {
		return in, nil
	}
	m, err := filepath.Glob(in)
	if err != nil {
		return "", fmt.Errorf("bad glob %q: %w", in, err)
	}
	switch len(m) {
	case 0:
		return "", fmt.Errorf("no input matched %q", in)
	case 1:
		return m[0], nil
	}
	return "", fmt.Errorf("input glob %q is ambiguous: matched %d files (%s)", in, len(m), strings.Join(m, ", "))
}
