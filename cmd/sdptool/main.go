// sdptool serves, inspects and publishes Bluetooth SDP service records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/facebookincubator/go-belt/tool/logger"
	xlogrus "github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
)

// CLI is the root command structure for sdptool.
type CLI struct {
	LogLevel string `name:"log-level" enum:"trace,debug,info,warning,error" default:"warning" help:"Logging level (${enum})"`

	Serve   ServeCmd   `cmd:"" help:"Serve records on the SDP PSM"`
	Compile CompileCmd `cmd:"" help:"Compile YAML record files into a record image"`
	Dump    DumpCmd    `cmd:"" help:"Browse the records of a remote device"`
	Publish PublishCmd `cmd:"" help:"Publish records through bluetoothd"`
	Shell   ShellCmd   `cmd:"" help:"Query an in-process server interactively"`
}

// runEnv is bound into every command's Run.
type runEnv struct {
	ctx context.Context
}

var logLevels = map[string]logger.Level{
	"trace":   logger.LevelTrace,
	"debug":   logger.LevelDebug,
	"info":    logger.LevelInfo,
	"warning": logger.LevelWarning,
	"error":   logger.LevelError,
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("sdptool"),
		kong.Description("Bluetooth Service Discovery Protocol tool."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	l := xlogrus.Default().WithLevel(logLevels[cli.LogLevel])
	ctx = logger.CtxWithLogger(ctx, l)

	if err := kctx.Run(&runEnv{ctx: ctx}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
