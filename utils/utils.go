package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"datasetprep/config"
)

// Commands lists the subcommands understood by the CLI
var Commands = []string{"hash", "dedup", "split-ratio", "split-random", "count"}

// booleanFlags never take a value, so the token after them stays positional
var booleanFlags = map[string]bool{
	"each":        true,
	"debug":       true,
	"no-progress": true,
}

// Arguments is the parsed command line
type Arguments struct {
	Command    string
	Flags      map[string]string
	Positional []string
}

// Flag returns the value of a flag and whether it was given
func (a Arguments) Flag(name string) (string, bool) {
	v, ok := a.Flags[name]
	return v, ok
}

// Bool reports whether a boolean flag was set
func (a Arguments) Bool(name string) bool {
	v, ok := a.Flags[name]
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err != nil || b
}

// ParseArguments converts command-line arguments (without the program name)
// into the command, a map of flags and the remaining positional arguments
func ParseArguments(argv []string) Arguments {
	args := Arguments{Flags: make(map[string]string)}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			args.Flags[strings.TrimPrefix(parts[0], "--")] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			if booleanFlags[flagName] || i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "--") {
				args.Flags[flagName] = "true"
			} else {
				args.Flags[flagName] = argv[i+1]
				i++
			}
			continue
		}

		if args.Command == "" && isCommand(arg) {
			args.Command = arg
			continue
		}

		args.Positional = append(args.Positional, arg)
	}

	return args
}

func isCommand(s string) bool {
	for _, c := range Commands {
		if s == c {
			return true
		}
	}
	return false
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	name := "datasetprep"
	if len(os.Args) > 0 {
		name = os.Args[0]
	}
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s hash [--each] <class-dir> <out-table>\n", name)
	fmt.Printf("  %s dedup [--each] <class-dir> <table> <quarantine-dir>\n", name)
	fmt.Printf("  %s split-ratio [--each] [--positive=NAME] [--other=LABEL] <class-dir> <dest-root> [ratio]\n", name)
	fmt.Printf("  %s split-random [--each] [--seed=N] <class-dir> <dest-root> [ratio]\n", name)
	fmt.Printf("  %s count <root>\n", name)
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --each        : Treat the directory argument as a root and process every class in it\n")
	fmt.Printf("  --positive    : Class kept under its own label in split-ratio; others collapse to --other\n")
	fmt.Printf("  --other       : Label for non-positive classes (default: etc)\n")
	fmt.Printf("  --seed        : Seed for split-random (default: time based, logged)\n")
	fmt.Printf("  --config      : YAML config file with defaults for the flags above\n")
	fmt.Printf("  --database    : SQLite file that records fingerprints and file moves\n")
	fmt.Printf("  --no-progress : Disable progress bars\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: datasetprep.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s hash --each data/Train data/Train\n", name)
	fmt.Printf("  %s dedup --each data/Train data/Train data/tmp\n", name)
	fmt.Printf("  %s split-ratio --each --positive=chalcopyrite data/Stone data 0.2\n", name)
	fmt.Printf("  %s split-random --seed=42 data/Train/etc data/Test 20%%\n", name)
}

// ParseRatio parses a ratio given as a fraction ("0.2") or a percentage ("20%")
func ParseRatio(ratioStr string) (float64, error) {
	s := strings.TrimSpace(ratioStr)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	ratio, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ratio %q: %w", ratioStr, err)
	}
	if percent {
		ratio = ratio / 100.0
	}

	if err := config.ValidateRatio(ratio); err != nil {
		return 0, err
	}
	return ratio, nil
}

// ParseSeed parses a random seed
func ParseSeed(seedStr string) (int64, error) {
	seed, err := strconv.ParseInt(strings.TrimSpace(seedStr), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: %w", seedStr, err)
	}
	return seed, nil
}
