package main

import (
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/xaionaro-go/sdp"
)

// ShellCmd runs a server in-process and queries it through a loopback
// channel, which is handy for checking records before deploying them.
type ShellCmd struct {
	RecordsFlags `embed:""`

	MTU int `default:"48" help:"MTU of the loopback channel"`
}

func (c *ShellCmd) Run(env *runEnv) error {
	ctx := env.ctx
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defs, err := c.load()
	if err != nil {
		return err
	}
	// Browsing by the public browse group looks past the ServiceClassIDList.
	cfg.DeepUUIDSearch = true
	s, err := newServer(ctx, cfg, defs)
	if err != nil {
		return err
	}
	ch, err := sdp.NewLoopback(ctx, s, 1, c.MTU)
	if err != nil {
		return err
	}
	defer ch.Close(ctx)
	in := newInterpreter(s, ch)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sdp> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	in.exec(ctx, "help", rl.Stdout())
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if in.exec(ctx, strings.TrimSpace(line), rl.Stdout()) {
			return nil
		}
	}
}
