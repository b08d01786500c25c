package main

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/xaionaro-go/sdp/bluez"
)

// PublishCmd registers records with bluetoothd until interrupted.
type PublishCmd struct {
	RecordsFlags `embed:""`
}

func (c *PublishCmd) Run(env *runEnv) error {
	ctx := env.ctx
	defs, err := c.load()
	if err != nil {
		return err
	}
	p, err := bluez.NewPublisher(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Errorf(ctx, "unable to unpublish: %v", err)
		}
	}()
	for _, d := range defs {
		path, err := p.Publish(ctx, d.Name, d.Record())
		if err != nil {
			return err
		}
		logger.Infof(ctx, "published %q at %s", d.Name, path)
	}
	<-ctx.Done()
	return nil
}
