package main

import (
	"fmt"
	"io"
	"os"

	"github.com/xaionaro-go/sdp"
	"github.com/xaionaro-go/sdp/recordfile"
)

// DumpCmd prints every record of a remote device matching a pattern.
type DumpCmd struct {
	Addr    string   `arg:"" help:"Remote device address (XX:XX:XX:XX:XX:XX)"`
	Pattern []string `default:"0x1002" help:"UUIDs to search for"`
	Format  string   `enum:"text,yaml" default:"text" help:"Output format (${enum})"`
}

func (c *DumpCmd) Run(env *runEnv) error {
	pattern, err := parsePattern(c.Pattern)
	if err != nil {
		return err
	}
	t, err := sdp.DialL2CAP(env.ctx, c.Addr)
	if err != nil {
		return err
	}
	defer t.Close()

	records, err := sdp.NewClient(t).Records(env.ctx, pattern)
	if err != nil {
		return err
	}
	return printRecords(os.Stdout, records, c.Format)
}

func printRecords(w io.Writer, records []sdp.ServiceRecord, format string) error {
	if format == "yaml" {
		defs := make([]recordfile.Definition, 0, len(records))
		for _, r := range records {
			defs = append(defs, recordfile.FromRecord(recordName(r), r))
		}
		b, err := recordfile.MarshalYAML(defs)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	for _, r := range records {
		h, _ := r.Handle()
		fmt.Fprintf(w, "Record %s\n", h)
		for _, a := range r.Attributes() {
			fmt.Fprintf(w, "  0x%04X %s\n", uint16(a.ID), a.Value)
		}
	}
	return nil
}

func parsePattern(args []string) (sdp.SearchPattern, error) {
	var p sdp.SearchPattern
	for _, s := range args {
		u, err := sdp.ParseUUID(s)
		if err != nil {
			return nil, err
		}
		p = append(p, u)
	}
	if _, err := sdp.ParseSearchPattern(p.Element()); err != nil {
		return nil, err
	}
	return p, nil
}
