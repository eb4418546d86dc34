package main

// savefile reader/editor for .d2s character saves
//
// example usage:
//
// d2sedit load Hero.d2s
// d2sedit dump
// d2sedit set strength 99
// d2sedit set "stash gold" 2500000
// d2sedit set class sorc
// d2sedit set name Heroine
// d2sedit save
//
// or in one go, with the values to change in a file:
//
// d2sedit edit Hero.d2s --overrides edits.ini
//
// Relative filenames are looked up in the save dir, which comes from --dir, d2sedit.ini or D2SEDIT_DIR
// (in that order), or is just the current dir.

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"d2sedit/config"
	"d2sedit/readers"
)

// app is everything the subcommands share.  It's filled in once flags have been parsed.
type app struct {
	config_file string
	dir         string
	verbose     bool

	cfg *config.Config
	log *zap.Logger
	out io.Writer
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.config_file)
	if err != nil {
		return err
	}
	if a.dir != "" {
		cfg.Dir = a.dir
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	a.cfg = cfg

	a.log, err = new_logger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.out = cmd.OutOrStdout()
	return nil
}

func (a *app) stash() stash_file {
	return stash_file(a.cfg.Stash)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func new_logger(cfg config.Logging) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zap_cfg zap.Config
	if cfg.Format == "json" {
		zap_cfg = zap.NewProductionConfig()
	} else {
		zap_cfg = zap.NewDevelopmentConfig()
		zap_cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zap_cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zap_cfg.EncoderConfig.ConsoleSeparator = "  "
		zap_cfg.DisableCaller = true
		zap_cfg.DisableStacktrace = true
	}
	zap_cfg.Level = zap.NewAtomicLevelAt(level)

	return zap_cfg.Build()
}

func new_root_cmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "d2sedit",
		Short: "Savefile reader/editor for .d2s character saves",
		Long: `d2sedit reads and edits the character attributes (strength, life, gold...) in a .d2s savefile.

Load a file, change things, save it.  The old file is kept as .old, just in case.
Everything outside the attribute list is left exactly as it was; file size and checksum are fixed up.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.config_file, "config", config.DEFAULT_FILE, "config file")
	root.PersistentFlags().StringVar(&a.dir, "dir", "", "savefile directory (default from config, then current dir)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		new_load_cmd(a),
		new_get_cmd(a),
		new_set_cmd(a),
		new_dump_cmd(a),
		new_save_cmd(a),
		new_edit_cmd(a),
		new_fix_cmd(a),
		new_watch_cmd(a),
	)

	return root
}

func main() {
	err := new_root_cmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		if readers.Is_format_error(err) {
			// The file is bad, not the command.  Different exit code so scripts can tell.
			os.Exit(2)
		}
		os.Exit(1)
	}
}
