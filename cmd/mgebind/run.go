package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mge-engine/reflection/luabind"
)

type RunCmd struct {
	File string `arg:"" help:"Lua script to run." type:"existingfile"`
}

func (c *RunCmd) Run(e *env) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	in := luabind.NewInterpreterWithLogger(e.registry, e.logger)
	defer in.Close()
	return in.DoFile(ctx, c.File)
}
