package main

import (
	"context"
	"fmt"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/xaionaro-go/sdp"
	"github.com/xaionaro-go/sdp/examples/service"
	"github.com/xaionaro-go/sdp/recordfile"
)

// RecordsFlags selects the records a command works with.
type RecordsFlags struct {
	Records []string `arg:"" optional:"" type:"existingfile" help:"Record files (.yaml, .yml, .cbor, .sdpdb)"`
	Demo    bool     `help:"Add the built-in demo records"`
}

// load returns the selected records as definitions.
func (f RecordsFlags) load() ([]recordfile.Definition, error) {
	var defs []recordfile.Definition
	for _, path := range f.Records {
		d, err := recordfile.LoadFile(path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d...)
	}
	if f.Demo {
		for _, r := range service.Demo() {
			defs = append(defs, recordfile.FromRecord(recordName(r), r))
		}
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("no records given, pass record files or --demo")
	}
	return defs, nil
}

// recordName is the ServiceName of r, or its first service class.
func recordName(r sdp.ServiceRecord) string {
	if v, ok := r.Attribute(sdp.AttrServiceName); ok {
		if b, ok := v.Text(); ok {
			return string(b)
		}
	}
	if classes := r.ServiceClassIDs(); len(classes) > 0 {
		return classes[0].String()
	}
	return ""
}

// newServer builds a server holding defs.
func newServer(ctx context.Context, cfg sdp.Config, defs []recordfile.Definition, opts ...sdp.Option) (*sdp.Server, error) {
	s, err := sdp.NewServer(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		h, err := s.RegisterService(ctx, d.Record())
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", d.Name, err)
		}
		logger.Debugf(ctx, "registered %q as %s", d.Name, h)
	}
	return s, nil
}
