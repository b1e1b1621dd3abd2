package portal

import (
	"reflect"

	"github.com/godbus/dbus/v5"
)

var (
	boolSignature   = dbus.SignatureOfType(reflect.TypeOf(false))
	stringSignature = dbus.SignatureOfType(reflect.TypeOf(""))
	uint32Signature = dbus.SignatureOfType(reflect.TypeOf(uint32(0)))
)

func fromBool(v bool) dbus.Variant     { return dbus.MakeVariantWithSignature(v, boolSignature) }
func fromString(v string) dbus.Variant { return dbus.MakeVariantWithSignature(v, stringSignature) }
func fromUint32(v uint32) dbus.Variant { return dbus.MakeVariantWithSignature(v, uint32Signature) }
