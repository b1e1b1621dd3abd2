package portal

import (
	"fmt"
	"io"
	"os"

	"github.com/godbus/dbus/v5"
)

const (
	screenCastInterfaceName = callBaseName + ".ScreenCast"
	createSessionName       = screenCastInterfaceName + ".CreateSession"
	selectSourcesName       = screenCastInterfaceName + ".SelectSources"
	startName               = screenCastInterfaceName + ".Start"
	openPipeWireRemoteName  = screenCastInterfaceName + ".OpenPipeWireRemote"
)

// Source types and cursor modes from the ScreenCast portal spec.
const (
	SourceTypeMonitor uint32 = 1
	SourceTypeWindow  uint32 = 2
)

const (
	CursorModeHidden   uint32 = 1
	CursorModeEmbedded uint32 = 2
	CursorModeMetadata uint32 = 4
)

// Stream describes one negotiated PipeWire video source.
type Stream struct {
	NodeID   uint32
	Position [2]int32
	Size     [2]int32
}

// Session is a live xdg-desktop-portal ScreenCast session.
type Session struct {
	Path         dbus.ObjectPath
	sessionToken string
}

func availableSourceTypes() (uint32, error) {
	v, err := getProperty(screenCastInterfaceName, "AvailableSourceTypes")
	if err != nil {
		return 0, err
	}
	t, ok := v.(uint32)
	if !ok {
		return 0, fmt.Errorf("portal: AvailableSourceTypes has unexpected type %T", v)
	}
	return t, nil
}

// CreateSession opens a new ScreenCast session, the first step of the
// three-call negotiation (CreateSession, SelectSources, Start).
func CreateSession() (*Session, error) {
	token := generateToken()
	data := map[string]dbus.Variant{"session_handle_token": token}

	result, err := call(createSessionName, data)
	if err != nil {
		return nil, err
	}
	requestPath, ok := result.(dbus.ObjectPath)
	if !ok {
		return nil, fmt.Errorf("portal: CreateSession returned unexpected type %T", result)
	}

	status, results, err := onSignalResponse(requestPath)
	if err != nil {
		return nil, err
	}
	if status != responseSuccess {
		return nil, fmt.Errorf("portal: CreateSession was not accepted (status=%d)", status)
	}

	handle, ok := results["session_handle"]
	if !ok {
		return nil, fmt.Errorf("portal: CreateSession response missing session_handle")
	}
	sessionPath, ok := handle.Value().(string)
	if !ok {
		return nil, fmt.Errorf("portal: session_handle has unexpected type %T", handle.Value())
	}
	return &Session{Path: dbus.ObjectPath(sessionPath)}, nil
}

// SelectSources requests permission to capture the full monitor, embedding
// the cursor per captureCursor.
func (s *Session) SelectSources(captureCursor bool) error {
	cursorMode := CursorModeHidden
	if captureCursor {
		cursorMode = CursorModeEmbedded
	}

	data := map[string]dbus.Variant{
		"types":       fromUint32(SourceTypeMonitor),
		"multiple":    fromBool(false),
		"cursor_mode": fromUint32(cursorMode),
	}

	result, err := call(selectSourcesName, s.Path, data)
	if err != nil {
		return err
	}
	requestPath, ok := result.(dbus.ObjectPath)
	if !ok {
		return fmt.Errorf("portal: SelectSources returned unexpected type %T", result)
	}

	status, _, err := onSignalResponse(requestPath)
	if err != nil {
		return err
	}
	if status != responseSuccess {
		return fmt.Errorf("portal: SelectSources was not accepted (status=%d)", status)
	}
	return nil
}

// Start triggers the portal's source picker (or replays a prior selection)
// and returns the negotiated PipeWire streams.
func (s *Session) Start() ([]Stream, error) {
	data := map[string]dbus.Variant{}

	result, err := call(startName, s.Path, "", data)
	if err != nil {
		return nil, err
	}
	requestPath, ok := result.(dbus.ObjectPath)
	if !ok {
		return nil, fmt.Errorf("portal: Start returned unexpected type %T", result)
	}

	status, results, err := onSignalResponse(requestPath)
	if err != nil {
		return nil, err
	}
	if status != responseSuccess {
		return nil, fmt.Errorf("portal: Start was not accepted (status=%d)", status)
	}

	streamsVariant, ok := results["streams"]
	if !ok {
		return nil, fmt.Errorf("portal: Start response missing streams")
	}

	var raw []any
	if rs, ok := streamsVariant.Value().([]any); ok {
		raw = rs
	} else {
		return nil, fmt.Errorf("portal: streams has unexpected type %T", streamsVariant.Value())
	}

	var streams []Stream
	for _, item := range raw {
		pair, ok := item.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		st := Stream{}
		if nodeID, ok := pair[0].(uint32); ok {
			st.NodeID = nodeID
		}
		if props, ok := pair[1].(map[string]dbus.Variant); ok {
			if pos, ok := props["position"]; ok {
				if p, ok := parseInt32Pair(pos.Value()); ok {
					st.Position = p
				}
			}
			if size, ok := props["size"]; ok {
				if sz, ok := parseInt32Pair(size.Value()); ok {
					st.Size = sz
				}
			}
		}
		streams = append(streams, st)
	}
	return streams, nil
}

func parseInt32Pair(v any) ([2]int32, bool) {
	values, ok := v.([]any)
	if !ok || len(values) < 2 {
		return [2]int32{}, false
	}
	left, ok := values[0].(int32)
	if !ok {
		return [2]int32{}, false
	}
	right, ok := values[1].(int32)
	if !ok {
		return [2]int32{}, false
	}
	return [2]int32{left, right}, true
}

// OpenPipeWireRemote asks the portal to hand back a PipeWire connection fd
// bound to this session's negotiated streams.
func (s *Session) OpenPipeWireRemote() (int, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return -1, err
	}
	obj := conn.Object(objectName, objectPath)
	c := obj.Call(openPipeWireRemoteName, 0, s.Path, map[string]dbus.Variant{})
	if c.Err != nil {
		return -1, c.Err
	}
	var fd int
	err = c.Store(&fd)
	return fd, err
}

// OpenPipeWireRemoteReader is OpenPipeWireRemote wrapped as an io.Reader
// owning the returned file descriptor.
func (s *Session) OpenPipeWireRemoteReader() (io.Reader, error) {
	fd, err := s.OpenPipeWireRemote()
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(fd), "pipewire"), nil
}

func (s *Session) Close() error {
	return closeSession(s.Path)
}
