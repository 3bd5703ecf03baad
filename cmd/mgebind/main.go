package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mge-engine/reflection"
	"github.com/mge-engine/reflection/bindings"
	"github.com/mge-engine/reflection/config"
	"github.com/mge-engine/reflection/middleware"
)

type CLI struct {
	Config string   `help:"Configuration file (YAML)." short:"c" type:"existingfile"`
	Set    []string `help:"Override a setting, e.g. --set log.level=debug." short:"s" placeholder:"KEY=VALUE"`

	Version  VersionCmd  `cmd:"" help:"Print version information."`
	Describe DescribeCmd `cmd:"" help:"Describe the registered modules and types."`
	Stubs    StubsCmd    `cmd:"" help:"Generate Lua annotation stubs."`
	Serve    ServeCmd    `cmd:"" help:"Serve the registry over HTTP."`
	Run      RunCmd      `cmd:"" help:"Run a Lua script against the bindings."`
	Repl     ReplCmd     `cmd:"" help:"Start an interactive Lua prompt."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	fmt.Fprintln(e.stdout, Version())
	return nil
}

// env is what every command runs against: the loaded configuration and
// a registry bound with the engine reflectors.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *reflection.Registry
	stdout   io.Writer
}

func newEnv(ctx context.Context, cli *CLI, stdout, stderr io.Writer) (*env, error) {
	cfg, err := config.Load(cli.Config, cli.Set)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger(stderr)

	r := reflection.NewRegistry().
		WithLogger(logger).
		WithInterceptor(middleware.CallLogging(logger))
	bindings.Register(r, bindings.Options{
		Logger:        logger,
		Configuration: cfg.Configuration(),
	})
	if err := r.BindAll(ctx); err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	return &env{cfg: cfg, logger: logger, registry: r, stdout: stdout}, nil
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("mgebind"),
		kong.Description("Inspect, serve and script the mge reflection bindings."),
		kong.UsageOnError(),
	)
	e, err := newEnv(context.Background(), cli, os.Stdout, os.Stderr)
	kctx.FatalIfErrorf(err)
	kctx.FatalIfErrorf(kctx.Run(e))
}
