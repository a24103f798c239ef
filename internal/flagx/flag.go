// Package flagx lets independent flag sets share one command line: each set
// parses only the flags it defines and ignores everything else.
package flagx

import (
	"flag"
	"strings"
)

// boolFlag matches flag.Value implementations that take no argument.
type boolFlag interface {
	IsBoolFlag() bool
}

// Names lists the spellings ("-n" and "--n") of every flag defined on fs,
// split into value-taking and boolean flags.
func Names(fs *flag.FlagSet) (valued, boolean []string) {
	fs.VisitAll(func(f *flag.Flag) {
		names := []string{"-" + f.Name, "--" + f.Name}
		if bf, ok := f.Value.(boolFlag); ok && bf.IsBoolFlag() {
			boolean = append(boolean, names...)
			return
		}
		valued = append(valued, names...)
	})
	return valued, boolean
}

// FilterArgs returns the arguments that are allowed flags, with their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      --config=conf.json
//
// A separate value is taken only when the next argument does not start
// with '-'.
func FilterArgs(args []string, allowedFlags []string) []string {
	return filter(args, toSet(allowedFlags), nil)
}

// FilterFlagSetArgs filters args down to the flags defined on fs. Boolean
// flags never consume the following argument, so "-continue 42" keeps
// only "-continue".
func FilterFlagSetArgs(args []string, fs *flag.FlagSet) []string {
	valued, boolean := Names(fs)
	return filter(args, toSet(valued), toSet(boolean))
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func filter(args []string, valued, boolean map[string]struct{}) []string {
	// never nil, safe to pass to FlagSet.Parse
	filtered := make([]string, 0, len(args))

	known := func(name string) bool {
		_, v := valued[name]
		_, b := boolean[name]
		return v || b
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			if name := strings.SplitN(arg, "=", 2)[0]; known(name) {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := boolean[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := valued[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// ConfigFileFlag returns the JSON config path given with -c or -config in
// args, or "" when neither is present. Other arguments are ignored. When
// both appear the last one wins.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "Path to config file")
	fs.StringVar(&path, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterFlagSetArgs(args, fs))

	return path
}
