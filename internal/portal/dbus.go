// Package portal talks to the freedesktop xdg-desktop-portal ScreenCast
// interface over the session D-Bus, negotiating a PipeWire stream handle
// for the Wayland capture backend.
package portal

import (
	"github.com/godbus/dbus/v5"
)

const (
	objectName        = "org.freedesktop.portal.Desktop"
	objectPath        = "/org/freedesktop/portal/desktop"
	callBaseName      = "org.freedesktop.portal"
	propertiesGetName = "org.freedesktop.DBus.Properties.Get"
)

func call(callName string, args ...any) (any, error) {
	c, err := callOnObject(objectPath, callName, args...)
	if err != nil {
		return nil, err
	}
	var result any
	err = c.Store(&result)
	return result, err
}

func callOnObject(path dbus.ObjectPath, callName string, args ...any) (*dbus.Call, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	obj := conn.Object(objectName, path)
	c := obj.Call(callName, 0, args...)
	return c, c.Err
}

func getProperty(interfaceName, property string) (any, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	obj := conn.Object(objectName, objectPath)
	c := obj.Call(propertiesGetName, 0, interfaceName, property)
	if c.Err != nil {
		return nil, c.Err
	}
	var value any
	err = c.Store(&value)
	return value, err
}

func listenOnSignal(path dbus.ObjectPath, iface, signalName string) (chan *dbus.Signal, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = objectPath
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(iface),
		dbus.WithMatchMember(signalName),
	); err != nil {
		return nil, err
	}
	signal := make(chan *dbus.Signal)
	conn.Signal(signal)
	return signal, nil
}
