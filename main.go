package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"

	"github.com/crillab/goqbf/pnf"
	"github.com/crillab/goqbf/qbf"
	"github.com/crillab/goqbf/qcir"
	"github.com/crillab/goqbf/qdimacs"
)

var log = logrus.New()

type options struct {
	Strategy string `mapstructure:"strategy"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Verbose  bool   `mapstructure:"verbose"`
}

func main() {
	var (
		opts       options
		configPath string
	)
	flag.StringVar(&opts.Strategy, "strategy", "", "prenexing strategy, one of: "+strategyNames())
	flag.StringVar(&opts.Format, "format", "", `output format, "qdimacs" (default) or "qcir"`)
	flag.StringVar(&opts.Output, "o", "", "output file (default stdout)")
	flag.BoolVar(&opts.Verbose, "verbose", false, "sets verbose mode on")
	flag.StringVar(&configPath, "config", "", "JSON configuration file, overridden by explicit flags")
	flag.Parse()
	if len(flag.Args()) != 1 {
		fmt.Fprintf(os.Stderr, "Syntax : %s [options] (file.qcir|file.qdimacs|file.cnf)\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if configPath != "" {
		if err := loadConfig(configPath, &opts); err != nil {
			fmt.Fprintf(os.Stderr, "could not load configuration: %v\n", err)
			os.Exit(1)
		}
	}
	if opts.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := convert(ctx, flag.Args()[0], opts); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// loadConfig fills the zero-valued fields of opts from a JSON file,
// so that explicit flags keep precedence.
func loadConfig(path string, opts *options) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	var fromFile options
	if err := mapstructure.Decode(fields, &fromFile); err != nil {
		return err
	}
	if opts.Strategy == "" {
		opts.Strategy = fromFile.Strategy
	}
	if opts.Format == "" {
		opts.Format = fromFile.Format
	}
	if opts.Output == "" {
		opts.Output = fromFile.Output
	}
	opts.Verbose = opts.Verbose || fromFile.Verbose
	return nil
}

func convert(ctx context.Context, path string, opts options) error {
	strategy := pnf.ForAllDownExistsUp
	if opts.Strategy != "" {
		s, ok := pnf.Strategies[opts.Strategy]
		if !ok {
			return fmt.Errorf("unknown strategy %q, expected one of: %s", opts.Strategy, strategyNames())
		}
		strategy = s
	}

	start := time.Now()
	f, err := parse(path)
	if err != nil {
		return err
	}
	log.WithField("t", time.Since(start)).Debugf("parsed %s", path)

	start = time.Now()
	f = qbf.ToNNF(f)
	f, err = pnf.ToPNF(ctx, f, strategy)
	if err != nil {
		return err
	}
	log.WithField("t", time.Since(start)).Debugf("prenexed with %s", strategy)

	out := io.Writer(os.Stdout)
	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("could not create %q: %v", opts.Output, err)
		}
		defer file.Close()
		out = file
	}
	if format(opts) == "qcir" {
		return qcir.Write(f, out)
	}
	return qdimacs.Write(f, out)
}

func parse(path string) (qbf.Formula, error) {
	if strings.HasSuffix(path, ".qdimacs") || strings.HasSuffix(path, ".cnf") {
		return qdimacs.ReadFile(path)
	}
	return qcir.ReadFile(path)
}

func format(opts options) string {
	if opts.Format != "" {
		return opts.Format
	}
	if strings.HasSuffix(opts.Output, ".qcir") {
		return "qcir"
	}
	return "qdimacs"
}

func strategyNames() string {
	names := make([]string, 0, len(pnf.Strategies))
	for name := range pnf.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
