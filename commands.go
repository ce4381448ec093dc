package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"datasetprep/config"
	"datasetprep/counter"
	"datasetprep/database"
	"datasetprep/dedup"
	"datasetprep/fingerprint"
	"datasetprep/logging"
	"datasetprep/partition"
	"datasetprep/scanner"
	"datasetprep/utils"
)

var errUsage = errors.New("usage")

// environment holds what every command shares: merged settings, the
// optional index database and where progress bars are drawn
type environment struct {
	cfg      *config.Config
	db       *sql.DB
	progress io.Writer
	out      io.Writer
}

func newEnvironment(args utils.Arguments) (*environment, error) {
	configPath, _ := args.Flag("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	if err := applyFlags(cfg, args); err != nil {
		return nil, err
	}

	env := &environment{cfg: cfg, out: os.Stdout}

	if args.Bool("debug") {
		logPath := cfg.LogFile
		if custom, ok := args.Flag("logfile"); ok && custom != "" {
			logPath = custom
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
	}

	if cfg.Progress && !args.Bool("no-progress") {
		env.progress = os.Stderr
	}

	if cfg.Database != "" {
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("cannot open database %s: %w", cfg.Database, err)
		}
		env.db = db
	}

	return env, nil
}

// applyFlags overrides config values with command-line flags
func applyFlags(cfg *config.Config, args utils.Arguments) error {
	if v, ok := args.Flag("ratio"); ok {
		ratio, err := utils.ParseRatio(v)
		if err != nil {
			return err
		}
		cfg.Ratio = ratio
	}
	if v, ok := args.Flag("seed"); ok {
		seed, err := utils.ParseSeed(v)
		if err != nil {
			return err
		}
		cfg.Seed = seed
		cfg.HasSeed = true
	}
	if v, ok := args.Flag("positive"); ok {
		cfg.PositiveClass = v
	}
	if v, ok := args.Flag("other"); ok {
		cfg.OtherLabel = v
	}
	if v, ok := args.Flag("database"); ok && v != "" {
		cfg.Database = v
	} else if v, ok := args.Flag("db"); ok && v != "" {
		cfg.Database = v
	}
	return cfg.Validate()
}

// Close releases the database and the debug log
func (e *environment) Close() {
	if e.db != nil {
		e.db.Close()
	}
	logging.CloseLogger()
}

// unknownCommandNote explains why usage is printed when no command was
// recognized. Flags such as --help get no note.
func unknownCommandNote(argv []string) string {
	if len(argv) == 0 || strings.HasPrefix(argv[0], "-") {
		return ""
	}
	return fmt.Sprintf("Unknown command: %s", argv[0])
}

func runCommand(ctx context.Context, env *environment, args utils.Arguments) error {
	switch args.Command {
	case "hash":
		return handleHashCommand(ctx, env, args)
	case "dedup":
		return handleDedupCommand(ctx, env, args)
	case "split-ratio":
		return handleSplitRatioCommand(ctx, env, args)
	case "split-random":
		return handleSplitRandomCommand(ctx, env, args)
	case "count":
		return handleCountCommand(env, args)
	default:
		return errUsage
	}
}

// classTargets expands the directory argument into (class, dir) pairs:
// the directory itself, or each class under it when --each is set
func classTargets(args utils.Arguments, dir string) ([][2]string, error) {
	if !args.Bool("each") {
		return [][2]string{{filepath.Base(filepath.Clean(dir)), dir}}, nil
	}

	if err := utils.RequireDir(dir); err != nil {
		return nil, err
	}
	classes, err := utils.ListClassDirectories(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list classes in %s: %w", dir, err)
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("no class directories found in %s", dir)
	}

	targets := make([][2]string, 0, len(classes))
	for _, class := range classes {
		targets = append(targets, [2]string{class, filepath.Join(dir, class)})
	}
	return targets, nil
}

// splitTarget is a class to split together with its file listing
type splitTarget struct {
	class string
	dir   string
	files []string
}

// splitTargets lists every class before any of them is split. Under --each a
// class's kept side may be another class's directory (Train/etc when splitting
// Train in place), and files moved in there must not be split a second time.
func splitTargets(args utils.Arguments, dir string) ([]splitTarget, error) {
	targets, err := classTargets(args, dir)
	if err != nil {
		return nil, err
	}

	out := make([]splitTarget, 0, len(targets))
	for _, t := range targets {
		files, err := partition.ListClassFiles(t[1])
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", t[0], err)
		}
		out = append(out, splitTarget{class: t[0], dir: t[1], files: files})
	}
	return out, nil
}

func handleHashCommand(ctx context.Context, env *environment, args utils.Arguments) error {
	if len(args.Positional) != 2 {
		return errUsage
	}
	dir, out := args.Positional[0], args.Positional[1]

	targets, err := classTargets(args, dir)
	if err != nil {
		return err
	}

	for _, t := range targets {
		class, classDir := t[0], t[1]
		tablePath := out
		if args.Bool("each") {
			tablePath = filepath.Join(out, fingerprint.TableName(class))
		}

		result, err := scanner.ScanAndStoreClass(ctx, scanner.ScanOptions{
			ClassDir:       classDir,
			Class:          class,
			DB:             env.db,
			ProgressOutput: env.progress,
		}, tablePath)
		if err != nil {
			return err
		}

		fmt.Fprintf(env.out, "%s: %d fingerprints written to %s (%d of %d entries skipped, %d unique hashes)\n",
			class, len(result.Records), tablePath, result.Skipped, result.Entries, fingerprint.UniqueHashes(result.Records))
	}

	if env.db != nil {
		stats, err := database.GetScanStats(env.db, "")
		if err == nil && stats != nil {
			fmt.Fprintf(env.out, "\nIndex summary (%s):\n", env.cfg.Database)
			fmt.Fprintf(env.out, "- Total fingerprints: %d\n", stats.TotalImages)
			fmt.Fprintf(env.out, "- Unique image hashes: %d\n", stats.UniqueHashes)
		}
	}
	return nil
}

func handleDedupCommand(ctx context.Context, env *environment, args utils.Arguments) error {
	if len(args.Positional) != 3 {
		return errUsage
	}
	dir, table, quarantine := args.Positional[0], args.Positional[1], args.Positional[2]

	targets, err := classTargets(args, dir)
	if err != nil {
		return err
	}

	for _, t := range targets {
		class, classDir := t[0], t[1]
		opts := dedup.Options{
			ClassDir:       classDir,
			Class:          class,
			TablePath:      table,
			QuarantineDir:  quarantine,
			DB:             env.db,
			ProgressOutput: env.progress,
		}
		if args.Bool("each") {
			opts.TablePath = filepath.Join(table, fingerprint.TableName(class))
			opts.QuarantineDir = filepath.Join(quarantine, class)
		}

		result, err := dedup.RemoveDuplicates(ctx, opts)
		if err != nil {
			return err
		}

		fmt.Fprintf(env.out, "%s: %d records, %d unique, %d quarantined to %s, %d already removed\n",
			class, result.Records, result.Unique, result.Moved(), opts.QuarantineDir, result.Missing())
	}
	return nil
}

// splitArgs returns the directory, destination root and ratio of a split command
func splitArgs(env *environment, args utils.Arguments) (string, string, float64, error) {
	switch len(args.Positional) {
	case 2:
		return args.Positional[0], args.Positional[1], env.cfg.Ratio, nil
	case 3:
		ratio, err := utils.ParseRatio(args.Positional[2])
		if err != nil {
			return "", "", 0, err
		}
		return args.Positional[0], args.Positional[1], ratio, nil
	default:
		return "", "", 0, errUsage
	}
}

func handleSplitRatioCommand(ctx context.Context, env *environment, args utils.Arguments) error {
	dir, dest, ratio, err := splitArgs(env, args)
	if err != nil {
		return err
	}

	targets, err := splitTargets(args, dir)
	if err != nil {
		return err
	}

	labels := partition.LabelMapper{Positive: env.cfg.PositiveClass, Other: env.cfg.OtherLabel}
	for _, t := range targets {
		result, err := partition.SplitOrdered(ctx, partition.OrderedOptions{
			ClassDir:       t.dir,
			Class:          t.class,
			Files:          t.files,
			DestRoot:       dest,
			Ratio:          ratio,
			Labels:         labels,
			TrainDir:       env.cfg.TrainDir,
			TestDir:        env.cfg.TestDir,
			DB:             env.db,
			ProgressOutput: env.progress,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(env.out, "%s -> %s: %d files, %d to %s, %d to %s\n",
			result.Class, result.Label, result.Total, len(result.HeldOut), env.cfg.TestDir, len(result.Kept), env.cfg.TrainDir)
	}
	return nil
}

func handleSplitRandomCommand(ctx context.Context, env *environment, args utils.Arguments) error {
	dir, dest, ratio, err := splitArgs(env, args)
	if err != nil {
		return err
	}

	targets, err := splitTargets(args, dir)
	if err != nil {
		return err
	}

	seed := env.cfg.Seed
	if !env.cfg.HasSeed {
		seed = time.Now().UnixNano()
	}
	fmt.Fprintf(env.out, "Random seed: %d\n", seed)
	logging.LogInfo("split-random using seed %d", seed)
	rng := rand.New(rand.NewSource(seed))

	for _, t := range targets {
		result, err := partition.SplitRandom(ctx, partition.RandomOptions{
			ClassDir:       t.dir,
			Class:          t.class,
			Files:          t.files,
			DestRoot:       dest,
			Ratio:          ratio,
			Rand:           rng,
			DB:             env.db,
			ProgressOutput: env.progress,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(env.out, "%s: %d files, %d moved to %s, %d left in place\n",
			result.Class, result.Total, len(result.HeldOut), filepath.Join(dest, result.Class), len(result.Kept))
	}
	return nil
}

func handleCountCommand(env *environment, args utils.Arguments) error {
	if len(args.Positional) != 1 {
		return errUsage
	}

	counts, err := counter.CountClasses(args.Positional[0])
	if err != nil {
		return err
	}
	counter.PrintCounts(env.out, counts)
	return nil
}
