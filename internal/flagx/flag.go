// Package flagx lets several packages parse their own subset of os.Args
// without tripping over each other's flags.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// ConfigEnvName is consulted when neither -c nor -config is given.
const ConfigEnvName = "ATLAS_CONFIG"

// FilterArgs returns the subset of args made of allowed flags and their
// values, preserving order.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -c conf.json
//  2. Flag and value combined with '=':      -config=conf.json
//
// A flag followed by a token starting with '-' is kept without a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	filtered, _ := Split(args, allowedFlags, nil)
	return filtered
}

// Split partitions args into known flags (with their values) and positional
// arguments. Flags listed in boolFlags never consume the following token, so
// "-e report.pdf" keeps report.pdf as a positional argument. An unknown flag
// is dropped along with the non-flag token after it, which is assumed to be
// its value.
func Split(args []string, valueFlags []string, boolFlags []string) (flags []string, positional []string) {
	valued := make(map[string]struct{}, len(valueFlags))
	for _, f := range valueFlags {
		valued[f] = struct{}{}
	}
	bools := make(map[string]struct{}, len(boolFlags))
	for _, f := range boolFlags {
		bools[f] = struct{}{}
	}

	flags = make([]string, 0, len(args))
	positional = make([]string, 0)

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
			continue
		}

		if strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := valued[name]; ok {
				flags = append(flags, arg)
			} else if _, ok := bools[name]; ok {
				flags = append(flags, arg)
			}
			continue
		}

		if _, ok := bools[arg]; ok {
			flags = append(flags, arg)
			continue
		}

		if _, ok := valued[arg]; ok {
			flags = append(flags, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				flags = append(flags, args[i+1])
				i++
			}
			continue
		}

		// unknown flag: skip its value too so it is not mistaken for a path
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
		}
	}

	return flags, positional
}

// JsonConfigFlags returns the config file path given via -c or -config,
// falling back to the ATLAS_CONFIG environment variable. An empty string
// means no JSON config should be loaded.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	if config == "" {
		config = os.Getenv(ConfigEnvName)
	}

	return config
}
