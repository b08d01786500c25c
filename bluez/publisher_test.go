package bluez

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xaionaro-go/sdp"
)

type call struct {
	method string
	args   []any
}

// fakeBus records what a Publisher does on the bus.
type fakeBus struct {
	exported map[dbus.ObjectPath]any
	calls    []call
	fail     error
}

func newFakeBus() *fakeBus {
	return &fakeBus{exported: map[dbus.ObjectPath]any{}}
}

func (b *fakeBus) publisher() *Publisher {
	return newPublisher(
		func(v any, path dbus.ObjectPath, iface string) error {
			if iface != ProfileInterface {
				return errors.New("unexpected interface " + iface)
			}
			if v == nil {
				delete(b.exported, path)
			} else {
				b.exported[path] = v
			}
			return nil
		},
		func(_ context.Context, method string, args ...any) error {
			b.calls = append(b.calls, call{method: method, args: args})
			return b.fail
		},
	)
}

func serialPort() sdp.ServiceRecord {
	return sdp.NewServiceRecord(
		sdp.Attr(sdp.AttrServiceClassIDList, sdp.UUIDSequence(sdp.SerialPortUUID)),
		sdp.Attr(sdp.AttrServiceName, sdp.Text("Serial Port")),
	)
}

func TestPublisher(t *testing.T) {
	ctx := context.Background()
	bus := newFakeBus()
	p := bus.publisher()

	path, err := p.Publish(ctx, "Serial Port", serialPort())
	require.NoError(t, err)
	assert.Equal(t, dbus.ObjectPath(profileBasePath+"0"), path)
	assert.Contains(t, bus.exported, path)
	assert.Equal(t, []dbus.ObjectPath{path}, p.Published())

	require.Len(t, bus.calls, 1)
	c := bus.calls[0]
	assert.Equal(t, "RegisterProfile", c.method)
	require.Len(t, c.args, 3)
	assert.Equal(t, path, c.args[0])
	assert.Equal(t, "00001101-0000-1000-8000-00805f9b34fb", c.args[1])
	opts := c.args[2].(map[string]dbus.Variant)
	assert.Equal(t, "Serial Port", opts["Name"].Value())
	assert.Equal(t, false, opts["AutoConnect"].Value())
	record, err := ParseRecordXML(opts["ServiceRecord"].Value().(string))
	require.NoError(t, err)
	assert.True(t, serialPort().Equal(record))

	second, err := p.Publish(ctx, "Another", serialPort())
	require.NoError(t, err)
	assert.NotEqual(t, path, second)

	require.NoError(t, p.Unpublish(ctx, path))
	assert.NotContains(t, bus.exported, path)
	assert.Equal(t, "UnregisterProfile", bus.calls[len(bus.calls)-1].method)
	assert.Error(t, p.Unpublish(ctx, path))

	require.NoError(t, p.Close(ctx))
	assert.Empty(t, p.Published())
	assert.Empty(t, bus.exported)
}

func TestPublisherErrors(t *testing.T) {
	ctx := context.Background()
	bus := newFakeBus()
	p := bus.publisher()

	_, err := p.Publish(ctx, "nameless", sdp.NewServiceRecord(sdp.Attr(sdp.AttrServiceName, sdp.Text("x"))))
	assert.ErrorIs(t, err, ErrNoServiceClass)
	assert.Empty(t, bus.calls)

	bus.fail = errors.New("org.bluez.Error.AlreadyExists")
	_, err = p.Publish(ctx, "Serial Port", serialPort())
	assert.ErrorIs(t, err, bus.fail)
	assert.Empty(t, bus.exported)
	assert.Empty(t, p.Published())
}

func TestProfileCallbacks(t *testing.T) {
	pr := &profile{ctx: context.Background(), name: "Serial Port"}
	assert.Nil(t, pr.Release())
	assert.Nil(t, pr.RequestDisconnection("/org/bluez/hci0/dev_00_11_22_33_44_55"))
}
