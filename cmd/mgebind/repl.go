package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/mge-engine/reflection/luabind"
)

const (
	promptMain  = "mge> "
	promptCont  = "...> "
	historyFile = ".mgebind_history"
)

type ReplCmd struct {
	NoHistory bool `help:"Do not read or write the history file."`
}

func (c *ReplCmd) Run(e *env) error {
	fmt.Fprintf(e.stdout, "mgebind %s Lua prompt\nCtrl+D exits. Type :quit to exit.\n", Version())

	in := luabind.NewInterpreterWithLogger(e.registry, e.logger)
	defer in.Close()

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if !c.NoHistory {
		home, _ := os.UserHomeDir()
		histPath := filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	for {
		src, ok := readChunk(ln, in)
		if !ok {
			fmt.Fprintln(e.stdout)
			return nil
		}
		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit":
			return nil
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		out, err := in.Eval(context.Background(), src)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		if len(out) > 0 {
			fmt.Fprintln(e.stdout, strings.Join(out, "\t"))
		}
	}
}

// readChunk reads lines until they form a complete chunk. It returns false
// at end of input.
func readChunk(ln *liner.State, in *luabind.Interpreter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if in.Complete(b.String()) {
			return b.String(), true
		}
	}
}
