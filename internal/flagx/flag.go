// Package flagx extracts individual flags from the command line without
// taking ownership of the whole argument list, so that several loaders can
// each read only the flags they know about.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps from args only the flags named in allowedFlags together
// with their values. Both "-c conf.json" and "-c=conf.json" forms are kept.
// A token starting with "-" is never consumed as a value. The result is
// never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// LookupString returns the value of the last occurrence of any of the given
// flag names (without dashes) in args, or "" if none is present.
func LookupString(args []string, names ...string) string {
	dashed := make([]string, 0, len(names)*2)
	for _, n := range names {
		dashed = append(dashed, "-"+n, "--"+n)
	}

	var value string
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, dashed))

	return value
}

// ConfigFileFlag returns the JSON config path given with -c or -config.
func ConfigFileFlag(args []string) string {
	return LookupString(args, "c", "config")
}

// EnvFileFlag returns the dotenv file path given with -env-file.
func EnvFileFlag(args []string) string {
	return LookupString(args, "env-file")
}
