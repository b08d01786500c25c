package main

import (
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/xaionaro-go/sdp"
	"github.com/xaionaro-go/sdp/recordfile"
)

// CompileCmd checks record files and writes them out as one CBOR image.
type CompileCmd struct {
	RecordsFlags `embed:""`

	Output string `short:"o" required:"" help:"Image file to write"`
}

func (c *CompileCmd) Run(env *runEnv) error {
	defs, err := c.load()
	if err != nil {
		return err
	}
	// Registering into a scratch store runs the same checks a server does.
	st := sdp.NewStore()
	for _, d := range defs {
		if _, err := st.Register(env.ctx, d.Record()); err != nil {
			return fmt.Errorf("record %q: %w", d.Name, err)
		}
	}
	img, err := recordfile.EncodeImage(defs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Output, img, 0o644); err != nil {
		return fmt.Errorf("unable to write %s: %w", c.Output, err)
	}
	logger.Infof(env.ctx, "wrote %d records to %s (%d bytes)", len(defs), c.Output, len(img))
	return nil
}
