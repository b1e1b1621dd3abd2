package portal

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	sessionInterfaceName = "org.freedesktop.portal.Session"
	sessionCloseCallName = sessionInterfaceName + ".Close"
)

func closeSession(path dbus.ObjectPath) error {
	_, err := callOnObject(path, sessionCloseCallName)
	return err
}

func generateToken() dbus.Variant {
	var b strings.Builder
	b.WriteString("remotedesk")
	n, _ := rand.Int(rand.Reader, big.NewInt(1<<16))
	b.WriteString(strconv.FormatUint(n.Uint64(), 16))
	return fromString(b.String())
}
