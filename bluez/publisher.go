package bluez

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/godbus/dbus/v5"

	"github.com/xaionaro-go/sdp"
)

const (
	ServiceName        = "org.bluez"
	ProfileManagerPath = dbus.ObjectPath("/org/bluez")
	ProfileManager     = "org.bluez.ProfileManager1"
	ProfileInterface   = "org.bluez.Profile1"

	profileBasePath = "/org/xaionaro/sdp/profile"
)

// ErrNoServiceClass is returned when publishing a record that does not
// name a service class; BlueZ keys profiles by their UUID.
var ErrNoServiceClass = errors.New("the record has no service class")

// Publisher registers service records with bluetoothd as external
// profiles, for systems where bluetoothd owns the SDP PSM.
type Publisher struct {
	locker sync.Mutex

	export func(v any, path dbus.ObjectPath, iface string) error
	call   func(ctx context.Context, method string, args ...any) error

	profiles map[dbus.ObjectPath]*profile
	next     int
}

// NewPublisher connects to the system bus.
func NewPublisher(ctx context.Context) (*Publisher, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the system bus: %w", err)
	}
	return NewPublisherWithConn(conn), nil
}

// NewPublisherWithConn uses an existing bus connection.
func NewPublisherWithConn(conn *dbus.Conn) *Publisher {
	manager := conn.Object(ServiceName, ProfileManagerPath)
	return newPublisher(
		func(v any, path dbus.ObjectPath, iface string) error {
			return conn.Export(v, path, iface)
		},
		func(ctx context.Context, method string, args ...any) error {
			return manager.CallWithContext(ctx, ProfileManager+"."+method, 0, args...).Err
		},
	)
}

func newPublisher(
	export func(v any, path dbus.ObjectPath, iface string) error,
	call func(ctx context.Context, method string, args ...any) error,
) *Publisher {
	return &Publisher{
		export:   export,
		call:     call,
		profiles: map[dbus.ObjectPath]*profile{},
	}
}

// Publish registers r under the given name and returns the object path of
// the exported profile.
func (p *Publisher) Publish(ctx context.Context, name string, r sdp.ServiceRecord) (_ dbus.ObjectPath, _err error) {
	logger.Tracef(ctx, "Publish(%q)", name)
	defer func() { logger.Tracef(ctx, "/Publish(%q): %v", name, _err) }()

	classes := r.ServiceClassIDs()
	if len(classes) == 0 {
		return "", ErrNoServiceClass
	}
	record, err := RecordXML(r)
	if err != nil {
		return "", fmt.Errorf("unable to render the record: %w", err)
	}

	p.locker.Lock()
	defer p.locker.Unlock()

	path := dbus.ObjectPath(fmt.Sprintf("%s%d", profileBasePath, p.next))
	prof := &profile{ctx: ctx, name: name}
	if err := p.export(prof, path, ProfileInterface); err != nil {
		return "", fmt.Errorf("failed to export profile %s: %w", path, err)
	}
	opts := map[string]dbus.Variant{
		"Name":          dbus.MakeVariant(name),
		"ServiceRecord": dbus.MakeVariant(record),
		"AutoConnect":   dbus.MakeVariant(false),
	}
	if err := p.call(ctx, "RegisterProfile", path, classes[0].FullString(), opts); err != nil {
		_ = p.export(nil, path, ProfileInterface)
		return "", fmt.Errorf("failed to register profile %q: %w", name, err)
	}
	p.next++
	p.profiles[path] = prof
	logger.Debugf(ctx, "published %q (%s) at %s", name, classes[0], path)
	return path, nil
}

// Unpublish removes a profile registered by Publish.
func (p *Publisher) Unpublish(ctx context.Context, path dbus.ObjectPath) error {
	p.locker.Lock()
	defer p.locker.Unlock()
	return p.unpublish(ctx, path)
}

func (p *Publisher) unpublish(ctx context.Context, path dbus.ObjectPath) error {
	if _, ok := p.profiles[path]; !ok {
		return fmt.Errorf("profile %s is not published", path)
	}
	delete(p.profiles, path)
	err := p.call(ctx, "UnregisterProfile", path)
	if exportErr := p.export(nil, path, ProfileInterface); exportErr != nil {
		err = errors.Join(err, exportErr)
	}
	if err != nil {
		return fmt.Errorf("failed to unregister profile %s: %w", path, err)
	}
	logger.Debugf(ctx, "unpublished %s", path)
	return nil
}

// Published returns the paths of the registered profiles.
func (p *Publisher) Published() []dbus.ObjectPath {
	p.locker.Lock()
	defer p.locker.Unlock()
	out := make([]dbus.ObjectPath, 0, len(p.profiles))
	for path := range p.profiles {
		out = append(out, path)
	}
	return out
}

// Close unregisters every published profile.
func (p *Publisher) Close(ctx context.Context) error {
	p.locker.Lock()
	defer p.locker.Unlock()
	var errs []error
	for path := range p.profiles {
		errs = append(errs, p.unpublish(ctx, path))
	}
	return errors.Join(errs...)
}

// profile is the org.bluez.Profile1 object bluetoothd calls back into.
// Connections are not used: the record is only advertised.
type profile struct {
	ctx  context.Context
	name string
}

func (pr *profile) Release() *dbus.Error {
	logger.Debugf(pr.ctx, "profile %q released by bluetoothd", pr.name)
	return nil
}

func (pr *profile) NewConnection(device dbus.ObjectPath, fd dbus.UnixFD, props map[string]dbus.Variant) *dbus.Error {
	logger.Debugf(pr.ctx, "profile %q: connection from %s, closing it", pr.name, device)
	if f := os.NewFile(uintptr(fd), string(device)); f != nil {
		if err := f.Close(); err != nil {
			logger.Errorf(pr.ctx, "unable to close the connection from %s: %v", device, err)
		}
	}
	return nil
}

func (pr *profile) RequestDisconnection(device dbus.ObjectPath) *dbus.Error {
	logger.Debugf(pr.ctx, "profile %q: disconnection requested by %s", pr.name, device)
	return nil
}
