package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"tagbrowser/internal/config"
	"tagbrowser/internal/errors"
	"tagbrowser/internal/opener"
	"tagbrowser/internal/output"
	"tagbrowser/internal/search"
	"tagbrowser/internal/snapshot"
	"tagbrowser/internal/stats"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/transfer"
	"tagbrowser/internal/tree"
	"tagbrowser/internal/tui"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "tagbrowser",
		Short: "Browse and tag a publisher/topic/chapter folder tree",
		Long: `tagbrowser shows the folders under a root as publishers, topics and
chapters, and keeps a comma separated tag list in a tag.txt file in
each folder.

The root is read from the first existing folder listed in the address
file (default resources/address.csv), or given with --root.

Without a subcommand the interactive browser starts.`,
		Version:           fmt.Sprintf("%s (%s)", version, commit),
		PersistentPreRunE: a.setup,
		RunE:              a.runBrowse,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.tagbrowser.yaml)")
	flags.String("root", "", "root folder, overriding the address file")
	flags.String("address-file", config.DefaultAddressFile, "CSV file whose first existing folder is the root")
	flags.String("tag-file", tags.DefaultFileName, "name of the per-folder tag file")
	flags.String("log-level", "info", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "auto", "log format: auto, json, console")
	flags.String("log-output", "stderr", "log output: stderr, stdout, discard or a file path")

	for key, flag := range map[string]string{
		config.KeyRoot:        "root",
		config.KeyAddressFile: "address-file",
		config.KeyTagFile:     "tag-file",
		config.KeyLogLevel:    "log-level",
		config.KeyLogFormat:   "log-format",
		config.KeyLogOutput:   "log-output",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "browse",
			Short: "Start the interactive browser",
			Args:  cobra.NoArgs,
			RunE:  a.runBrowse,
		},
		newExportCommand(a),
		newImportCommand(a),
		newClearCommand(a),
		newTagsCommand(a),
		newSearchCommand(a),
		newStatsCommand(a),
		newSnapshotCommand(a),
		newOpenCommand(a),
	)
	return root
}

func (a *app) runBrowse(_ *cobra.Command, _ []string) error {
	return tui.Run(tui.Options{
		Scanner:   a.scanner,
		Fs:        a.fs,
		StatePath: a.cfg.StateFile,
		TopN:      a.cfg.TopN,
		Opener:    opener.New(),
		Log:       a.log,
	})
}

func newExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write every tagged folder to CSV (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.scan()
			if err != nil {
				return err
			}
			w := a.stdout
			if len(args) == 1 {
				f, err := a.fs.Create(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			n, err := transfer.Export(w, cache)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				fmt.Fprintf(a.stderr, "Exported %s folders to %s\n", humanize.Comma(int64(n)), args[0])
			}
			return nil
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Apply tags from a Path,Tags CSV file",
		Long: `Import reads a CSV file with Path and Tags columns. Each row whose path
is an existing folder under the root gets its tags replaced, or with
--merge, added to the tags it already has. Rows that cannot be applied
are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.scan()
			if err != nil {
				return err
			}
			f, err := a.fs.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			mode := transfer.ModeOverwrite
			if merge {
				mode = transfer.ModeMerge
			}
			im := &transfer.Importer{Scanner: a.scanner, Cache: cache, Log: a.log}
			rep, err := im.Import(f, mode)
			if rep != nil {
				for _, skipped := range rep.Skipped {
					fmt.Fprintf(a.stderr, "skipped %v\n", skipped)
				}
				fmt.Fprintf(a.stdout, "Imported %d folders (%s), skipped %d rows\n", len(rep.Applied), mode, len(rep.Skipped))
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "add imported tags to existing ones instead of replacing them")
	return cmd
}

func newClearCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the tag file of every tagged folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear all tags without --yes: %w", errors.ErrInvalidInput)
			}
			cache, err := a.scan()
			if err != nil {
				return err
			}
			n, err := transfer.ClearAll(a.scanner, cache)
			fmt.Fprintf(a.stdout, "Cleared tags of %d folders\n", n)
			return err
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing every tag file")
	return cmd
}

func newTagsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Read or change the tags of one folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <path>",
			Short: "Print the tags of a folder",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rel, err := a.folder(args[0])
				if err != nil {
					return err
				}
				set, err := a.scanner.Store.Load(a.scanner.Abs(rel))
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, tags.Format(set))
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <path> [tag...]",
			Short: "Replace the tags of a folder; no tags clears it",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.writeTags(args[0], args[1:], false)
			},
		},
		&cobra.Command{
			Use:   "add <path> <tag...>",
			Short: "Add tags to a folder",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.writeTags(args[0], args[1:], true)
			},
		},
	)
	return cmd
}

// folder checks that p names a folder under the root and returns its
// relative key.
func (a *app) folder(p string) (string, error) {
	rel, err := tree.Clean(p)
	if err != nil {
		return "", err
	}
	if !a.scanner.IsDir(rel) {
		return "", errors.NewPathError(rel, errors.ErrNotFound)
	}
	return rel, nil
}

func (a *app) writeTags(p string, args []string, add bool) error {
	rel, err := a.folder(p)
	if err != nil {
		return err
	}
	dir := a.scanner.Abs(rel)
	set := tags.Parse(strings.Join(args, ","))
	if add {
		existing, err := a.scanner.Store.Load(dir)
		if err != nil {
			return err
		}
		set = tags.Union(existing, set)
	}
	if err := a.scanner.Store.Save(dir, set); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, tags.Format(set))
	return nil
}

func newSearchCommand(a *app) *cobra.Command {
	var tag, format string
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search folders and tags by name, or list folders with --tag",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			cache, err := a.scan()
			if err != nil {
				return err
			}
			sess, err := search.NewSession(a.scanner, cache)
			if err != nil {
				return err
			}

			var res search.Result
			switch {
			case tag != "":
				res = sess.ByTag(tag)
			case len(args) == 1:
				res = sess.Global(args[0])
			default:
				return fmt.Errorf("a query or --tag is required: %w", errors.ErrInvalidInput)
			}
			return writeResult(a.stdout, f, res)
		},
	}
	cmd.Flags().StringVar(&tag, "tag", "", "list topics and chapters carrying this tag")
	cmd.Flags().StringVarP(&format, "format", "o", "", "output format: table, json, yaml, markdown")
	return cmd
}

func writeResult(w io.Writer, f output.Format, res search.Result) error {
	data := output.Data{Headers: []string{"Kind", "Name", "Path"}}
	for _, p := range res.Publishers {
		data.Rows = append(data.Rows, []string{"publisher", p, p})
	}
	for _, e := range res.Topics {
		data.Rows = append(data.Rows, []string{"topic", e.Label, e.Path})
	}
	for _, e := range res.Chapters {
		data.Rows = append(data.Rows, []string{"chapter", e.Label, e.Path})
	}
	for _, t := range res.Tags {
		data.Rows = append(data.Rows, []string{"tag", t, ""})
	}
	if f == output.FormatJSON || f == output.FormatYAML {
		return output.NewFormatter(f).Format(w, res)
	}
	return output.NewFormatter(f).Format(w, data)
}

func newStatsCommand(a *app) *cobra.Command {
	var format string
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print folder and tag statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			cache, err := a.scan()
			if err != nil {
				return err
			}
			h, err := a.scanner.Hierarchy()
			if err != nil {
				return err
			}
			snap := stats.Compute(h, cache)

			if !cmd.Flags().Changed("top") {
				top = a.cfg.TopN
			}
			if f == output.FormatJSON || f == output.FormatYAML {
				return output.NewFormatter(f).Format(a.stdout, snap)
			}
			return output.NewFormatter(f).Format(a.stdout, stats.Report{Snapshot: snap, TopN: top})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", "", "output format: table, json, yaml, markdown")
	cmd.Flags().IntVar(&top, "top", stats.DefaultTopN, "rows per breakdown table (0 for all)")
	return cmd
}

func newSnapshotCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <db>",
		Short: "Write folders and tags to a SQLite database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := a.scan()
			if err != nil {
				return err
			}
			res, err := snapshot.Write(args[0], cache)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Wrote %s folders and %s tags to %s\n",
				humanize.Comma(int64(res.Folders)), humanize.Comma(int64(res.Tags)), args[0])
			return nil
		},
	}
}

func newOpenCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Reveal a folder in the file manager",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, err := a.folder(args[0])
			if err != nil {
				return err
			}
			return opener.New().Open(a.scanner.Abs(rel))
		},
	}
}
