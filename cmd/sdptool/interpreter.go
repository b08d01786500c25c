package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xaionaro-go/sdp"
	"github.com/xaionaro-go/sdp/bluez"
)

type frameCounter interface {
	sdp.Transport
	Frames() int
}

// interpreter executes shell commands against a server through a client.
type interpreter struct {
	server *sdp.Server
	ch     frameCounter
	client *sdp.Client
}

func newInterpreter(s *sdp.Server, ch frameCounter) *interpreter {
	return &interpreter{server: s, ch: ch, client: sdp.NewClient(ch)}
}

// exec runs one command line, writing its output to w. It returns true
// when the shell should exit.
func (in *interpreter) exec(ctx context.Context, line string, w io.Writer) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		in.printHelp(w)
	case "search", "s":
		err = in.cmdSearch(ctx, args, w)
	case "attr", "a":
		err = in.cmdAttr(ctx, args, w)
	case "records", "r":
		err = in.cmdRecords(ctx, args, w)
	case "xml":
		err = in.cmdXML(ctx, args, w)
	case "stats":
		fmt.Fprintf(w, "open channels: %d, frames received: %d\n", in.server.OpenChannels(), in.ch.Frames())
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return false
}

func (in *interpreter) printHelp(w io.Writer) {
	fmt.Fprintln(w, `Commands:
  search <uuid>...              handles of records matching all UUIDs
  attr <handle> [id|lo-hi]...   attributes of one record (all by default)
  records [uuid]...             full records (public browse group by default)
  xml <handle>                  record in BlueZ XML form
  stats                         channel statistics
  quit                          leave the shell`)
}

func (in *interpreter) cmdSearch(ctx context.Context, args []string, w io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: search <uuid>...")
		return nil
	}
	p, err := parsePattern(args)
	if err != nil {
		return err
	}
	handles, err := in.client.ServiceSearch(ctx, p, 0xFFFF)
	if err != nil {
		return err
	}
	if len(handles) == 0 {
		fmt.Fprintln(w, "No matching records")
	}
	for _, h := range handles {
		fmt.Fprintln(w, h)
	}
	return nil
}

func (in *interpreter) cmdAttr(ctx context.Context, args []string, w io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(w, "Usage: attr <handle> [id|lo-hi]...")
		return nil
	}
	h, err := parseHandle(args[0])
	if err != nil {
		return err
	}
	ids, err := parseAttributeIDs(args[1:])
	if err != nil {
		return err
	}
	attrs, err := in.client.ServiceAttribute(ctx, h, ids)
	if err != nil {
		return err
	}
	for _, a := range attrs {
		fmt.Fprintf(w, "0x%04X %s\n", uint16(a.ID), a.Value)
	}
	return nil
}

func (in *interpreter) cmdRecords(ctx context.Context, args []string, w io.Writer) error {
	if len(args) == 0 {
		args = []string{sdp.PublicBrowseRootUUID.String()}
	}
	p, err := parsePattern(args)
	if err != nil {
		return err
	}
	records, err := in.client.Records(ctx, p)
	if err != nil {
		return err
	}
	return printRecords(w, records, "text")
}

func (in *interpreter) cmdXML(ctx context.Context, args []string, w io.Writer) error {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: xml <handle>")
		return nil
	}
	h, err := parseHandle(args[0])
	if err != nil {
		return err
	}
	attrs, err := in.client.ServiceAttribute(ctx, h, sdp.AllAttributes())
	if err != nil {
		return err
	}
	s, err := bluez.RecordXML(sdp.NewServiceRecord(attrs...))
	if err != nil {
		return err
	}
	fmt.Fprint(w, s)
	return nil
}

func parseHandle(s string) (sdp.RecordHandle, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid record handle %q", s)
	}
	return sdp.RecordHandle(v), nil
}

// parseAttributeIDs reads IDs ("0x0100") and ranges ("0x0100-0x01FF");
// no arguments selects every attribute.
func parseAttributeIDs(args []string) (sdp.AttributeIDList, error) {
	if len(args) == 0 {
		return sdp.AllAttributes(), nil
	}
	var l sdp.AttributeIDList
	for _, s := range args {
		lo, hi, isRange := strings.Cut(s, "-")
		low, err := strconv.ParseUint(lo, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid attribute ID %q", s)
		}
		high := low
		if isRange {
			if high, err = strconv.ParseUint(hi, 0, 16); err != nil {
				return nil, fmt.Errorf("invalid attribute ID %q", s)
			}
		}
		l = append(l, sdp.AttributeRange{Low: sdp.AttributeID(low), High: sdp.AttributeID(high)})
	}
	if _, err := sdp.ParseAttributeIDList(l.Element()); err != nil {
		return nil, err
	}
	return l, nil
}
