package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/sdp"
	"github.com/xaionaro-go/sdp/recordfile"
)

func newTestInterpreter(t *testing.T) *interpreter {
	t.Helper()
	ctx := context.Background()
	defs, err := RecordsFlags{Demo: true}.load()
	require.NoError(t, err)
	cfg := sdp.DefaultConfig()
	cfg.DeepUUIDSearch = true
	s, err := newServer(ctx, cfg, defs)
	require.NoError(t, err)
	l, err := sdp.NewLoopback(ctx, s, 1, sdp.MinMTU)
	require.NoError(t, err)
	return newInterpreter(s, l)
}

func run(t *testing.T, in *interpreter, line string) (string, bool) {
	t.Helper()
	var out bytes.Buffer
	quit := in.exec(context.Background(), line, &out)
	return out.String(), quit
}

func TestInterpreter(t *testing.T) {
	in := newTestInterpreter(t)

	out, quit := run(t, in, "search 0x1101")
	assert.False(t, quit)
	assert.Equal(t, "0x00010000\n", out)

	out, _ = run(t, in, "s 0x1101 0x1105")
	assert.Equal(t, "No matching records\n", out)

	out, _ = run(t, in, "attr 0x00010000 0x0100")
	assert.Equal(t, "0x0100 Text(\"Serial Port\")\n", out)

	out, _ = run(t, in, "a 0x00010000 0x0000-0x0001")
	assert.Equal(t, "0x0000 Uint32(0x00010000)\n0x0001 Seq{UUID16(0x1101)}\n", out)

	out, _ = run(t, in, "records")
	assert.Contains(t, out, "Record 0x00000000\n")
	assert.Contains(t, out, "Record 0x00010003\n")

	out, _ = run(t, in, "xml 0x00010000")
	assert.Contains(t, out, `<text value="Serial Port"></text>`)
	assert.NotContains(t, out, `id="0x0000"`)

	out, _ = run(t, in, "stats")
	assert.Contains(t, out, "open channels: 1")

	out, _ = run(t, in, "help")
	assert.Contains(t, out, "Commands:")

	out, _ = run(t, in, "")
	assert.Empty(t, out)

	_, quit = run(t, in, "quit")
	assert.True(t, quit)
}

func TestInterpreterErrors(t *testing.T) {
	in := newTestInterpreter(t)

	for line, want := range map[string]string{
		"bogus":           "Unknown command: bogus (type 'help' for commands)\n",
		"search":          "Usage: search <uuid>...\n",
		"attr":            "Usage: attr <handle> [id|lo-hi]...\n",
		"xml":             "Usage: xml <handle>\n",
		"attr 0x00020000": "Error: invalid service record handle\n",
		"attr nope":       "Error: invalid record handle \"nope\"\n",
	} {
		out, quit := run(t, in, line)
		assert.False(t, quit, line)
		assert.Equal(t, want, out, line)
	}

	out, _ := run(t, in, "attr 0x00010000 0x0200-0x0100")
	assert.Contains(t, out, "Error: ")
	out, _ = run(t, in, "search nope")
	assert.Contains(t, out, "Error: ")
}

func TestParseAttributeIDs(t *testing.T) {
	l, err := parseAttributeIDs(nil)
	require.NoError(t, err)
	assert.Equal(t, sdp.AllAttributes(), l)

	l, err = parseAttributeIDs([]string{"0x0001", "256-0x01FF"})
	require.NoError(t, err)
	assert.Equal(t, sdp.AttributeIDList{{Low: 1, High: 1}, {Low: 0x0100, High: 0x01FF}}, l)

	for _, bad := range [][]string{{"x"}, {"1-y"}, {"0x10000"}, {"0x0010-0x0001"}} {
		_, err := parseAttributeIDs(bad)
		assert.Error(t, err, bad)
	}
}

func TestParsePattern(t *testing.T) {
	p, err := parsePattern([]string{"0x1101", "00000003-0000-1000-8000-00805f9b34fb"})
	require.NoError(t, err)
	assert.Equal(t, sdp.SearchPattern{sdp.SerialPortUUID, sdp.MustParseUUID("00000003-0000-1000-8000-00805f9b34fb")}, p)

	_, err = parsePattern(nil)
	assert.Error(t, err)
	_, err = parsePattern([]string{"nope"})
	assert.Error(t, err)
}

func TestRecordsFlags(t *testing.T) {
	_, err := RecordsFlags{}.load()
	assert.Error(t, err)

	dir := t.TempDir()
	data, err := recordfile.MarshalYAML([]recordfile.Definition{
		recordfile.FromRecord("Custom", sdp.NewServiceRecord(
			sdp.Attr(sdp.AttrServiceClassIDList, sdp.UUIDSequence(sdp.AudioSinkUUID)),
		)),
	})
	require.NoError(t, err)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	defs, err := RecordsFlags{Records: []string{path}, Demo: true}.load()
	require.NoError(t, err)
	require.Len(t, defs, 5)
	assert.Equal(t, "Custom", defs[0].Name)
	assert.Equal(t, "Serial Port", defs[1].Name)
}

func TestRecordName(t *testing.T) {
	assert.Equal(t, "x", recordName(sdp.NewServiceRecord(sdp.Attr(sdp.AttrServiceName, sdp.Text("x")))))
	assert.Equal(t, "0x1101", recordName(sdp.NewServiceRecord(sdp.Attr(sdp.AttrServiceClassIDList, sdp.UUIDSequence(sdp.SerialPortUUID)))))
	assert.Empty(t, recordName(sdp.NewServiceRecord()))
}

func TestPrintRecordsYAML(t *testing.T) {
	var out bytes.Buffer
	r := sdp.NewServiceRecord(
		sdp.Attr(sdp.AttrServiceClassIDList, sdp.UUIDSequence(sdp.SerialPortUUID)),
		sdp.Attr(sdp.AttrServiceName, sdp.Text("Serial Port")),
	)
	require.NoError(t, printRecords(&out, []sdp.ServiceRecord{r}, "yaml"))

	defs, err := recordfile.ParseYAML(out.Bytes())
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Serial Port", defs[0].Name)
	assert.True(t, r.Equal(defs[0].Record()))
}
