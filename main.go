// Package main provides the avatarkit command line player: it reads a
// segment script and drives the avatar engine against the system audio
// device, printing subtitles as segments play.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/echotree/avatarkit/pkg/avatar"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	mockAudio  bool
	debug      bool

	rootCmd = &cobra.Command{
		Use:   "avatarkit [SCRIPT]",
		Short: "Play an avatar segment script with speech, subtitles and animation triggers",
		Long: "\nPlay a segment script through the avatar engine: gapless audio, " +
			"subtitle emission and inline [State:x] / [Action:x] markup scheduling.\n" +
			"Reads the script from SCRIPT, or from stdin when SCRIPT is - or omitted on a pipe.",
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          execute,
	}
)

// scriptSegment is one entry of the JSON playback script.
type scriptSegment struct {
	Index    int     `json:"index"`
	Text     string  `json:"text"`
	Audio    string  `json:"audio,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}

// readScript loads and decodes a segment script from a file or stdin.
func readScript(arg string) ([]scriptSegment, error) {
	var r io.Reader
	if arg == "" || arg == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(arg)
		if err != nil {
			return nil, fmt.Errorf("unable to open script: %w", err)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to read script: %w", err)
	}

	var segs []scriptSegment
	if err := sonic.Unmarshal(data, &segs); err != nil {
		return nil, fmt.Errorf("unable to parse script: %w", err)
	}
	return segs, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	return stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0, nil
}

func execute(_ *cobra.Command, args []string) error {
	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}
	if arg == "" {
		piped, err := stdinIsPipe()
		if err != nil {
			return err
		}
		if !piped {
			return fmt.Errorf("missing segment script (pass a file or pipe JSON on stdin)")
		}
	}

	cfg, err := avatar.LoadConfig()
	if err != nil {
		return err
	}
	applyViperOverrides(&cfg)
	if debug {
		cfg.Debug = true
	}
	avatar.InitializeLogging(cfg.Debug)

	segs, err := readScript(arg)
	if err != nil {
		return err
	}
	if len(segs) == 0 {
		return fmt.Errorf("script has no segments")
	}

	return play(cfg, segs)
}

// applyViperOverrides layers config-file values over the environment,
// keeping the precedence the engine documents: file < env < flags.
func applyViperOverrides(cfg *avatar.Config) {
	if viper.IsSet("sample_rate") {
		cfg.SampleRate = viper.GetInt("sample_rate")
	}
	if viper.IsSet("channels") {
		cfg.Channels = viper.GetInt("channels")
	}
	if viper.IsSet("mulaw_input") {
		cfg.MuLawInput = viper.GetBool("mulaw_input")
	}
	if viper.IsSet("cache.dir") {
		cfg.CacheDir = viper.GetString("cache.dir")
	}
	if viper.IsSet("cache.max_entries") {
		cfg.CacheMaxEntries = viper.GetInt("cache.max_entries")
	}
	if viper.IsSet("debug") {
		cfg.Debug = viper.GetBool("debug")
	}
}

func play(cfg avatar.Config, segs []scriptSegment) error {
	var actx avatar.AudioContext
	if mockAudio {
		actx = avatar.NewMockAudioContext(cfg.Format())
	} else {
		oto, err := avatar.NewOtoAudioContext(cfg.Format())
		if err != nil {
			return fmt.Errorf("unable to open audio device: %w", err)
		}
		actx = oto
	}
	defer actx.Close() //nolint:errcheck

	var cache *avatar.AudioCache
	if cfg.CacheDir != "" {
		c, err := avatar.NewAudioCacheWithDisk(cfg.CacheMaxEntries, cfg.CacheMaxAge, cfg.CacheDir)
		if err != nil {
			return fmt.Errorf("unable to open audio cache: %w", err)
		}
		cache = c
	} else {
		cache = avatar.NewAudioCache(cfg.CacheMaxEntries, cfg.CacheMaxAge)
	}

	fetcher := avatar.NewCachingFetcher(
		avatar.NewHTTPFetcher(cfg.FetchTimeout),
		cache,
		cfg.Format(),
	)

	orch, err := avatar.NewOrchestrator(cfg, avatar.Deps{
		AudioContext: actx,
		Scene:        avatar.NopSceneGraph{},
		Fetcher:      fetcher,
		Subtitle: func(text string) {
			if text != "" {
				fmt.Println(text)
			}
		},
	})
	if err != nil {
		return err
	}

	batch := make([]avatar.Segment, len(segs))
	for i, s := range segs {
		batch[i] = avatar.Segment{
			Index:    s.Index,
			Marked:   s.Text,
			AudioRef: s.Audio,
			Duration: s.Duration,
		}
	}
	orch.SetSegments(batch)

	if err := orch.Play(context.Background()); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-orch.Done():
	case s := <-sig:
		log.Info("interrupted, stopping playback", "signal", s)
		orch.Stop()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().BoolVar(&mockAudio, "mock-audio", false, "use a silent mock audio device")
	rootCmd.Flags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	_ = viper.BindPFlag("debug", rootCmd.Flags().Lookup("debug"))

	viper.SetDefault("sample_rate", avatar.DefaultSampleRate)
	viper.SetDefault("channels", avatar.DefaultChannels)
	viper.SetDefault("cache.max_entries", avatar.DefaultCacheMaxEntries)

	rootCmd.AddCommand(configCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "avatarkit")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find a configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "avatarkit")}, dirs...)
	}
	if c := os.Getenv("AVATARKIT_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("avatarkit")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("avatarkit")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}
	configFile = filepath.Join(dirs[0], "avatarkit.yml")
}
