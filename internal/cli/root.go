package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every server setting, filled from flags and WORDRUSH_*
// environment variables
type Config struct {
	bind           string
	port           int
	baseURL        string
	allowedOrigins []string
	dictionary     string
	blocklist      string
	datamuseURL    string
	cacheSize      int
	cacheTTL       time.Duration
	redisURL       string
	verbose        bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.dictionary == "" {
		return fmt.Errorf("a dictionary file is required")
	}
	return nil
}

// NewCmd builds the root command
func NewCmd() *cobra.Command {
	cfg := &Config{}

	v := viper.New()
	v.SetEnvPrefix("WORDRUSH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wordrush",
		Short:         "Real-time multiplayer word game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDRUSH_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WORDRUSH_PORT)")
	fs.StringVar(&cfg.baseURL, "base-url", "http://localhost:8080", "public address encoded into join QR codes (env: WORDRUSH_BASE_URL)")
	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", []string{"*"}, "CORS origins allowed on the REST API (env: WORDRUSH_ALLOWED_ORIGINS)")
	fs.StringVar(&cfg.dictionary, "dictionary", "data/words.txt", "path to the word list, one word per line (env: WORDRUSH_DICTIONARY)")
	fs.StringVar(&cfg.blocklist, "blocklist", "", "path to a blocklist file (env: WORDRUSH_BLOCKLIST)")
	fs.StringVar(&cfg.datamuseURL, "datamuse-url", "", "override the definition lookup endpoint (env: WORDRUSH_DATAMUSE_URL)")
	fs.IntVar(&cfg.cacheSize, "definition-cache-size", 500, "max cached word definitions (env: WORDRUSH_DEFINITION_CACHE_SIZE)")
	fs.DurationVar(&cfg.cacheTTL, "definition-cache-ttl", 24*time.Hour, "how long cached definitions stay fresh (env: WORDRUSH_DEFINITION_CACHE_TTL)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis URL for a shared definition store (env: WORDRUSH_REDIS_URL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "enable debug logging (env: WORDRUSH_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
