package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"d2sedit/config"
	"d2sedit/readers"
	"d2sedit/types"
	"d2sedit/watcher"
	"d2sedit/writers"
)

// How long to let the game finish writing a save before reading it
const WATCH_SETTLE = 5 * time.Second

func new_load_cmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load a savefile from the save dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := a.cfg.Resolve(args[0])
			savedata, err := readers.Read_file(filename)
			if err != nil {
				return err
			}
			a.log.Debug("loaded", zap.String("file", filename),
				zap.Int("attribute_bytes", savedata.Attribute_length),
				zap.Int("size", savedata.Original_size()))

			err = a.stash().put(filename, savedata)
			if err != nil {
				return err
			}
			a.printf("Loaded %v (%v, %v)\n", filename, savedata.Character.Name, savedata.Character.Class_name())
			return nil
		},
	}
}

func new_get_cmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <what>",
		Short: "Display name, class or an attribute of the loaded save",
		Long:  "Display name, class or an attribute of the loaded save.  Gettables are:\n" + list_ettables(),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, savedata, err := a.stash().get()
			if err != nil {
				return err
			}
			str, err := get(args[0], savedata.Character)
			if err != nil {
				return err
			}
			a.printf("%v\n", str)
			return nil
		},
	}
}

func new_set_cmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <what> <to>",
		Short: "Change name, class or an attribute of the loaded save",
		Long: "Change name, class or an attribute of the loaded save.  Nothing is written until \"save\".\n" +
			"It is usually not necessary to type the full name of something, e.g. \"stash\" will be recognized as \"Stash Gold\".\n" +
			"Settables are:\n" + list_ettables(),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, savedata, err := a.stash().get()
			if err != nil {
				return err
			}
			what, to, err := set(args[0], args[1], savedata.Character)
			if err != nil {
				return err
			}
			a.printf("%v set to %v\n", what, to)
			return a.stash().put(filename, savedata)
		},
	}
}

func new_dump_cmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "List everything known about the loaded save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, savedata, err := a.stash().get()
			if err != nil {
				return err
			}
			a.printf("%v\n%v\n", filename, describe(savedata.Character))
			return nil
		},
	}
}

func new_save_cmd(a *app) *cobra.Command {
	var no_backup bool
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the loaded save back to its file",
		Long: `Write the loaded save back to its file.

Since this is a "powerful" (i.e. capable of completely trashing savefiles) tool,
the old file is renamed to .old first, unless told otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename, savedata, err := a.stash().get()
			if err != nil {
				return err
			}

			image, err := writers.Splice(savedata, nil)
			if err != nil {
				return err
			}

			backup := a.cfg.Backup && !no_backup
			err = writers.Write_file(filename, image, backup)
			if err != nil {
				return err
			}
			if backup {
				a.printf("%v renamed to %v\n", filename, writers.Backup_name(filename))
			}
			a.printf("New file written to %v\n", filename)
			a.log.Debug("saved", zap.String("file", filename),
				zap.Int("old_size", savedata.Original_size()), zap.Int("new_size", len(image)))

			err = a.stash().clear()
			if err != nil {
				return err
			}
			a.printf("Temporary data cleaned up\n")
			return nil
		},
	}
	cmd.Flags().BoolVar(&no_backup, "no-backup", false, "don't keep the old file as .old")
	return cmd
}

func new_edit_cmd(a *app) *cobra.Command {
	var overrides_file string
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Apply attribute overrides to a savefile in one go",
		Long: `Read a savefile, apply attribute overrides, write it back.

Overrides come from --overrides (an ini, toml or yaml file of attribute = value),
or failing that the [overrides] section of the config file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides writers.Overrides
			var err error
			if overrides_file != "" {
				overrides, err = config.Load_overrides(overrides_file)
			} else {
				overrides, err = a.cfg.Parsed_overrides()
			}
			if err != nil {
				return err
			}
			if len(overrides) == 0 {
				a.log.Warn("no overrides given; the file will only be re-encoded")
			}

			filename := a.cfg.Resolve(args[0])
			savedata, err := readers.Read_file(filename)
			if err != nil {
				return err
			}
			a.printf("Before:\n%v\n", describe(savedata.Character))

			image, err := writers.Splice(savedata, overrides)
			if err != nil {
				return err
			}
			err = writers.Write_file(filename, image, a.cfg.Backup)
			if err != nil {
				return err
			}
			a.log.Info("written", zap.String("file", filename), zap.Int("overrides", len(overrides)),
				zap.Int("old_size", savedata.Original_size()), zap.Int("new_size", len(image)))

			after, err := readers.Read_file(filename)
			if err != nil {
				return fmt.Errorf("re-reading %v: %w", filename, err)
			}
			a.printf("After:\n%v\n", describe(after.Character))
			return nil
		},
	}
	cmd.Flags().StringVar(&overrides_file, "overrides", "", "file of attribute = value overrides (.ini, .toml, .yaml)")
	return cmd
}

func new_fix_cmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fix <file>",
		Short: "Recompute file size and checksum of a savefile",
		Long:  "Recompute file size and checksum of a savefile (e.g. after editing it with a hex editor).  Nothing else is touched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := a.cfg.Resolve(args[0])
			image, err := os.ReadFile(filename)
			if err != nil {
				return fmt.Errorf("read: %s: %w: %w", filename, types.ErrFileIO, err)
			}
			cksum, err := writers.Fix(image)
			if err != nil {
				return fmt.Errorf("%s: %w", filename, err)
			}
			err = writers.Write_file(filename, image, a.cfg.Backup)
			if err != nil {
				return err
			}
			a.printf("%v: size %v, checksum %08x\n", filename, len(image), uint32(cksum))
			return nil
		},
	}
}

func new_watch_cmd(a *app) *cobra.Command {
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch the save dir and report attribute changes as the game saves",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.cfg.Dir
			if len(args) > 0 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := watcher.New_watcher(dir, settle, a.log)
			changes := make(chan *watcher.Change, 16)
			err := w.Start_watching(changes)
			if err != nil {
				return fmt.Errorf("watch %s: %w", dir, err)
			}
			defer w.Stop_watching()

			a.log.Info("watching", zap.String("dir", dir))
			return a.report_changes(ctx, changes)
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", WATCH_SETTLE, "wait this long after a save is written before reading it")
	return cmd
}

func (a *app) report_changes(ctx context.Context, changes <-chan *watcher.Change) error {
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case c := <-changes:
			if c.New {
				a.printf("%v: new save, %v the %v\n", c.Filename, c.Character.Name, c.Character.Class_name())
				continue
			}
			a.printf("%v: %v the %v\n", c.Filename, c.Character.Name, c.Character.Class_name())
			for _, d := range c.Deltas {
				switch {
				case !d.Had:
					a.printf("   %v: %v (new)\n", d.Name, d.New)
				case !d.Has:
					a.printf("   %v: %v -> gone\n", d.Name, d.Old)
				default:
					a.printf("   %v: %v -> %v (%+d)\n", d.Name, d.Old, d.New, int64(d.New)-int64(d.Old))
				}
			}
		}
	}
}
