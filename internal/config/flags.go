package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gofileup/internal/common"
	"github.com/dmitrijs2005/gofileup/internal/flagx"
)

// newFlagSet declares the global flags bound to config.
//
//	-c, -config string   JSON config file (read by parseJson)
//	-n int               concurrent uploads
//	-x string            comma separated extensions to skip
//	-b string            storage backend: gofile, s3 or gcs
//	-l string            log level
//	-q                   no progress display
//	-H string            history database path, empty disables it
func newFlagSet(config *Config, exclude *string) *flag.FlagSet {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var ignored string
	fs.StringVar(&ignored, "c", "", "path to JSON config file")
	fs.StringVar(&ignored, "config", "", "path to JSON config file")

	fs.IntVar(&config.Concurrency, "n", config.Concurrency, "number of concurrent uploads")
	fs.StringVar(exclude, "x", *exclude, "comma separated file extensions to skip")
	fs.StringVar(&config.Backend, "b", config.Backend, "storage backend (gofile, s3, gcs)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&config.Quiet, "q", config.Quiet, "do not display progress")
	fs.StringVar(&config.HistoryDB, "H", config.HistoryDB, "upload history database, empty to disable")
	return fs
}

// parseFlags applies global flags from args and returns what follows them.
func parseFlags(config *Config, args []string) ([]string, error) {
	exclude := strings.Join(config.ExcludeExtensions, ",")
	fs := newFlagSet(config, &exclude)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUsage, err)
	}

	config.ExcludeExtensions = flagx.SplitList(exclude)
	return fs.Args(), nil
}

// Usage writes the command synopsis and global flags to w.
func Usage(w io.Writer) {
	fmt.Fprintf(w, "usage: %s [flags] upload <path>\n", AppName)
	fmt.Fprintf(w, "       %s [flags] history [-limit N]\n\nflags:\n", AppName)

	cfg := &Config{}
	cfg.LoadDefaults()
	exclude := strings.Join(cfg.ExcludeExtensions, ",")
	fs := newFlagSet(cfg, &exclude)
	fs.SetOutput(w)
	fs.PrintDefaults()
}
