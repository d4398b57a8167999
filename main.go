package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"DeferredWitnessCircuit/modules/circuit"
	"DeferredWitnessCircuit/modules/fields"
	"DeferredWitnessCircuit/modules/logger"
	"DeferredWitnessCircuit/modules/metrics"
	"DeferredWitnessCircuit/modules/vars"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	fieldName   string
	logLevel    string
	logFile     string
	metricsAddr string
	parallelism int
	saveCircuit string

	fieldEnum       fields.ECCFieldEnum
	resolverMetrics *metrics.ResolverMetrics
)

func init() {
	rootCmd.PersistentFlags().StringVar(&fieldName, "field", "bn254", "The field the witness lives in - one of bn254/m31.")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level.")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file, rotated.")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address.")
	rootCmd.PersistentFlags().IntVar(&parallelism, "parallelism", 0, "Generators run at once per level, 0 for one per CPU.")
	rootCmd.PersistentFlags().StringVar(&saveCircuit, "save-circuit", "", "Write the built circuit to this file before resolving.")
}

var rootCmd = &cobra.Command{
	Use:           "witnessgen",
	Short:         "Resolve circuit witnesses that depend on external data",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if fieldEnum, err = parseCLIField(fieldName); err != nil {
			return err
		}
		if err = setupLogger(); err != nil {
			return err
		}
		setupMetrics()
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.HelpFunc()(cmd, args)
	},
}

// parseCLIField accepts the fields every command can run over. The byte and
// limb layouts need 16-bit range checks, which rules out GF2.
func parseCLIField(name string) (fields.ECCFieldEnum, error) {
	f, err := fields.ParseFieldEnum(name)
	if err != nil {
		return 0, err
	}
	if f.FieldBits() <= vars.U64LimbBits {
		return 0, fmt.Errorf("field %s is too small for byte and u64 layouts, use bn254 or m31", f)
	}
	return f, nil
}

func setupLogger() error {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	if logFile != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}
	logger.SetOutput(out)
	logger.Set(logger.Logger().Level(level))
	return nil
}

func setupMetrics() {
	registry := prometheus.NewRegistry()
	resolverMetrics = metrics.NewResolverMetrics(registry)
	if metricsAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	go func() {
		log := logger.Logger()
		if err := http.ListenAndServe(metricsAddr, mux); err != nil {
			log.Error().Err(err).Str("addr", metricsAddr).Msg("metrics server stopped")
		}
	}()
}

func resolveOptions() []circuit.ResolveOption {
	return []circuit.ResolveOption{
		circuit.WithParallelism(parallelism),
		circuit.WithObserver(resolverMetrics),
		circuit.WithLogger(logger.Logger()),
	}
}

// writeCircuit saves c when --save-circuit is set. Circuits holding a live
// data source have no persistent form; that is reported and resolution goes on.
func writeCircuit(c *circuit.Circuit) error {
	if saveCircuit == "" {
		return nil
	}
	f, err := os.Create(saveCircuit)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = c.WriteTo(f)
	if errors.Is(err, circuit.ErrUnimplementedPersistence) {
		log := logger.Logger()
		log.Warn().Err(err).Str("file", saveCircuit).Msg("circuit not saved")
		return os.Remove(saveCircuit)
	}
	return err
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err.Error())
		stop()
		os.Exit(1)
	}
}
