package portal

import (
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
)

var errUnexpectedResponse = errors.New("portal: unexpected response from dbus")

const (
	requestInterfaceName = "org.freedesktop.portal.Request"
	responseMember        = "Response"
	requestCloseCallName  = requestInterfaceName + ".Close"
)

type responseStatus = uint32

const (
	responseSuccess   responseStatus = 0
	responseCancelled responseStatus = 1
	responseEnded     responseStatus = 2
)

func closeRequest(path dbus.ObjectPath) error {
	_, err := callOnObject(path, requestCloseCallName)
	return err
}

func onSignalResponse(path dbus.ObjectPath) (responseStatus, map[string]dbus.Variant, error) {
	signal, err := listenOnSignal(path, requestInterfaceName, responseMember)
	if err != nil {
		return responseEnded, nil, err
	}

	response := <-signal
	if len(response.Body) != 2 {
		return responseEnded, nil, errUnexpectedResponse
	}

	status, ok := response.Body[0].(responseStatus)
	if !ok {
		return responseEnded, nil, fmt.Errorf("portal: response status has unexpected type %T", response.Body[0])
	}
	results, ok := response.Body[1].(map[string]dbus.Variant)
	if !ok {
		return responseEnded, nil, fmt.Errorf("portal: response results has unexpected type %T", response.Body[1])
	}
	return status, results, nil
}
