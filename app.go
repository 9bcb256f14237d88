package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tagbrowser/internal/config"
	"tagbrowser/internal/logging"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/tree"
)

// app carries what every command needs once flags and config are parsed.
type app struct {
	v       *viper.Viper
	fs      afero.Fs
	stdout  io.Writer
	stderr  io.Writer
	cfgFile string

	cfg     *config.Config
	log     zerolog.Logger
	closer  io.Closer
	scanner *tree.Scanner
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		fs:     afero.NewOsFs(),
		stdout: os.Stdout,
		stderr: os.Stderr,
		log:    zerolog.Nop(),
	}
}

// setup runs before every command: it reads .env files and the config file,
// builds the logger and resolves the root folder.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	config.LoadEnvFiles()
	config.SetDefaults(a.v)
	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}
	a.cfg = config.Load(a.v)

	logCfg := a.cfg.Log
	if cmd.Name() == "browse" || cmd.Parent() == nil {
		// The TUI owns the terminal.
		switch logCfg.Output {
		case "", "stderr", "stdout":
			logCfg.Output = "discard"
		}
		logCfg.Fallback = io.Discard
	}
	a.log, a.closer = logging.New(&logCfg)

	root, err := a.cfg.ResolveRoot(a.fs)
	if err != nil {
		return err
	}
	store := tags.NewStore(a.fs, a.cfg.TagFile)
	a.scanner = tree.NewScanner(a.fs, root, store,
		tree.WithPrefixes(a.cfg.PublisherPrefixes),
		tree.WithLogger(a.log),
	)
	a.log.Debug().Str("root", root).Str("tag_file", a.cfg.TagFile).Msg("configured")
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// scan walks the root and loads every tag file.
func (a *app) scan() (*tree.Cache, error) {
	cache, err := a.scanner.ScanAllTags()
	if err != nil {
		return nil, err
	}
	a.log.Info().Int("tagged", cache.Len()).Str("root", a.scanner.Root).Msg("tags scanned")
	return cache, nil
}
