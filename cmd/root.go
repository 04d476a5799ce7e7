package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/bimmerbailey/logfreq/internal/config"
	"github.com/bimmerbailey/logfreq/internal/mask"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "logfreq",
	Short: "Cluster log messages and count them per time slice",
	Long: `logfreq groups similar log messages into clusters and counts how often
each cluster occurs in fixed-width time slices.

Each line must start with a timestamp. The rest of the line is split into
whitespace-separated tokens and compared with every known cluster by token
edit distance; lines at least --similarity alike join the nearest cluster,
everything else starts a new one.

Examples:
  logfreq analyze /var/log/app.log > freq.csv
  logfreq analyze -f report -s 5m --min 10 /var/log/app.log
  journalctl | logfreq analyze --time-format "%b %e %T" -d 2 -f report
  logfreq stats -f table --mask /var/log/app.log
  logfreq search --cluster 3 /var/log/app.log`,
	SilenceUsage: true,
}

// Execute is called by main.main(). It runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// engineFlags maps configuration keys to the persistent flags that set them.
var engineFlags = map[string]string{
	"format":         "format",
	"verbose":        "verbose",
	"quiet":          "quiet",
	"slice_width":    "slice",
	"similarity":     "similarity",
	"time_format":    "time-format",
	"timezone":       "timezone",
	"match":          "match",
	"replace":        "replace",
	"dummy_tokens":   "dummy",
	"cutoff":         "cutoff",
	"mask.enabled":   "mask",
	"mask.patterns":  "mask-patterns",
	"mask.correlate": "mask-correlate",
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.logfreq.yaml)")
	pf.StringP("format", "f", config.DefaultFormat, "output format (csv, report, json, yaml; stats also takes text, table)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.BoolP("quiet", "q", false, "only log errors")
	pf.StringP("slice", "s", config.DefaultSliceWidth, "time slice width; bare numbers are minutes (e.g. 30, 90s, 1h)")
	pf.Float64P("similarity", "p", config.DefaultSimilarity, "similarity threshold in (0, 1]; 0.99 and above matches exactly")
	pf.String("time-format", config.DefaultTimeFormat, "timestamp layout at the start of each line (Go layout or strftime, e.g. \"%F %T\")")
	pf.String("timezone", config.DefaultTimezone, "time zone of timestamps without an offset (Local, UTC or an IANA name)")
	pf.StringP("match", "r", config.DefaultMatch, "regex applied to each line before parsing")
	pf.StringP("replace", "R", config.DefaultReplace, "replacement for lines matching --match (${n} inserts group n, $$ is a dollar)")
	pf.IntP("dummy", "d", 0, "number of tokens after the timestamp to ignore")
	pf.String("cutoff", "", "ignore everything after the first occurrence of this character")
	pf.Bool("mask", false, "replace variable values (addresses, ids, numbers) with placeholders before clustering")
	pf.StringSlice("mask-patterns", nil, "patterns used by --mask ("+strings.Join(mask.Names(), ", ")+")")
	pf.Bool("mask-correlate", false, "keep a short hash of each masked value so equal values stay distinguishable")

	for key, flag := range engineFlags {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error finding home directory:", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logfreq")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LOGFREQ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}
