package main

import (
	"context"
	"fmt"

	"github.com/mge-engine/reflection/luastub"
	"github.com/mge-engine/reflection/sink"
)

type StubsCmd struct {
	Out       string `arg:"" optional:"" help:"Output directory. Defaults to stubs.out of the configuration." type:"path"`
	Overwrite bool   `help:"Replace existing files." default:"true" negatable:""`
}

func (c *StubsCmd) Run(e *env) error {
	out := c.Out
	if out == "" {
		out = e.cfg.Stubs.Out
	}
	fs := sink.NewFilesystemSink(out)
	fs.Overwrite = c.Overwrite

	res, err := luastub.GenerateRegistry(context.Background(), e.registry, fs, luastub.Config{Indent: e.cfg.Stubs.Indent})
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		fmt.Fprintf(e.stdout, "%s (%d bytes)\n", f.Path, f.Size)
	}
	e.logger.Info("stubs generated", "dir", out, "types", res.TypesGenerated)
	return nil
}
