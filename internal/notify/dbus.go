//go:build linux

package notify

import (
	"github.com/godbus/dbus/v5"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	methodNotify      = notificationsName + ".Notify"
	methodClose       = notificationsName + ".CloseNotification"
)

const (
	appName      = "K12 Listen"
	desktopEntry = "k12listen"
)

// busNotifier talks to the notification server on the session bus.
type busNotifier struct {
	server dbus.BusObject
}

// New returns a Notifier backed by the session bus, or one that drops
// everything when there is no session bus.
func New() Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		return stubNotifier{}
	}
	return &busNotifier{server: conn.Object(notificationsName, notificationsPath)}
}

func (b *busNotifier) Notify(n Notification) (uint32, error) {
	var id uint32
	err := b.server.Call(methodNotify, 0,
		appName,
		n.ReplacesID,
		n.Icon,
		n.Title,
		n.Body,
		[]string{}, // no actions
		hints(n),
		n.Timeout,
	).Store(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (b *busNotifier) Close(id uint32) error {
	return b.server.Call(methodClose, 0, id).Err
}

// hints maps a Notification onto the standard hint keys. Low urgency bubbles
// are transient so they do not pile up in the server's history.
func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
	}
	if n.Urgency == UrgencyLow {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}
