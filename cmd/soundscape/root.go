package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jscyril/soundscape/internal/audio"
	"github.com/jscyril/soundscape/internal/config"
	"github.com/jscyril/soundscape/internal/logging"
	"github.com/jscyril/soundscape/internal/scene"
	"github.com/jscyril/soundscape/internal/session"
	"github.com/jscyril/soundscape/internal/ui"
	playerrors "github.com/jscyril/soundscape/pkg/errors"
)

const watchDebounce = 200 * time.Millisecond

// app carries state shared by the commands of one invocation
type app struct {
	v            *viper.Viper
	cfg          *config.Config
	settingsPath string
	envFile      string

	list     bool
	activate string
	plain    bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:   "soundscape",
		Short: "Play layered ambience scenes",
		Long: `soundscape loads named scenes from a YAML file and plays their tracks
together through a fixed pool of channels. Type a number to set the main
volume, "list" to inspect the active scene, "change <scene>" to switch and
"q" to quit.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.run,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.settingsPath, "settings", "", "settings file (default "+config.GetConfigPath()+")")
	flags.StringVar(&a.envFile, "env-file", ".env", "dotenv file with SOUNDSCAPE_ overrides")
	flags.StringP("config", "c", "", "scene file (default config/scenes.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag(config.KeyScenesPath, flags.Lookup("config"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	local := cmd.Flags()
	local.BoolVarP(&a.list, "list", "l", false, "list scenes and exit")
	local.StringVarP(&a.activate, "activate", "a", "", "scene to start playing")
	local.IntP("volume", "v", 100, "initial main volume 0-100")
	local.Int("channels", audio.DefaultChannels, "number of playback channels")
	local.BoolVar(&a.plain, "plain", false, "line-oriented prompt instead of the full screen interface")
	_ = a.v.BindPFlag(config.KeyMainVolume, local.Lookup("volume"))
	_ = a.v.BindPFlag(config.KeyChannels, local.Lookup("channels"))

	cmd.AddCommand(newCheckCmd(a), newConfigCmd(a))
	return cmd
}

// loadConfig resolves settings from the env file, settings file, environment and flags
func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadEnv(a.envFile); err != nil {
		return err
	}
	if a.settingsPath == "" {
		a.settingsPath = config.GetConfigPath()
	}

	cfg, err := config.Load(a.v, a.settingsPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// newLogger builds the logger. The full screen interface owns the terminal, so logs go to a file.
func (a *app) newLogger(toFile bool) (*log.Logger, io.Closer, error) {
	var w io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)

	if toFile {
		path := a.cfg.LogFile
		if path == "" {
			path = defaultLogFile()
		}
		f, err := logging.OpenFile(path)
		if err != nil {
			return nil, nil, err
		}
		w, closer = f, f
	}

	logger, err := logging.New(w, a.cfg.LogLevel)
	if err != nil {
		closer.Close()
		return nil, nil, fmt.Errorf("%w: %v", playerrors.ErrConfigStructure, err)
	}
	return logger, closer, nil
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "soundscape.log"
	}
	return filepath.Join(dir, "soundscape", "soundscape.log")
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	plain := a.plain || a.list || !isTerminal(os.Stdin)

	logger, closer, err := a.newLogger(!plain)
	if err != nil {
		return err
	}
	defer closer.Close()

	store := scene.NewStore(a.cfg.ScenesPath, logger)
	cat, err := store.Load()
	if err != nil {
		return err
	}
	manager := scene.NewManager(cat)

	out := cmd.OutOrStdout()
	if a.list {
		printScenes(out, manager)
		return nil
	}
	if a.activate != "" && !manager.Has(a.activate) {
		return &playerrors.SceneError{Name: a.activate}
	}

	engine, err := audio.Open(a.cfg.BeepConfig(), a.cfg.Channels, audio.WithLogger(logger))
	if err != nil {
		return err
	}
	defer engine.Close()
	engine.SetMainVolume(a.cfg.MainVolume)

	sess := session.New(manager, engine, store, logger)
	defer sess.Close()

	if a.activate != "" {
		active, err := sess.ChangeScene(a.activate)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "playing scene %s (%d of %d tracks)\n",
			active.Scene.Name, len(active.Handles), len(active.Scene.Tracks))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reloads <-chan struct{}
	if a.cfg.Watch {
		w, err := scene.Watch(ctx, store.Path(), watchDebounce, logger)
		if err != nil {
			logger.Warn("scene file watch disabled", "err", err)
		} else {
			defer w.Close()
			reloads = w.Changes()
		}
	}

	if plain {
		return sess.RunLines(ctx, cmd.InOrStdin(), out, reloads)
	}

	events := engine.Events().SubscribeAll()
	defer engine.Events().Unsubscribe(events)
	return ui.Run(ctx, sess, events, reloads)
}

func printScenes(w io.Writer, m *scene.Manager) {
	names := m.ListScenes()
	if len(names) == 0 {
		fmt.Fprintln(w, "no scenes loaded")
		return
	}
	for _, name := range names {
		if desc, ok := m.GetDescription(name); ok {
			fmt.Fprintf(w, "%s - %s\n", name, desc)
			continue
		}
		fmt.Fprintln(w, name)
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
