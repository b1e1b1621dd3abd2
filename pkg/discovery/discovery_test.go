package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageValid(t *testing.T) {
	info, ok := parseMessage("remote-desk|42|9002|1.0.0")
	require.True(t, ok)
	assert.Equal(t, "remote-desk", info.Type)
	assert.EqualValues(t, 42, info.ID)
	assert.Equal(t, 9002, info.Port)
	assert.Equal(t, "1.0.0", info.Version)
}

func TestParseMessageRejectsShortFragments(t *testing.T) {
	_, ok := parseMessage("remote-desk|42|9002")
	require.False(t, ok)
	_, ok = parseMessage("")
	require.False(t, ok)
}

func TestHandleDatagramIgnoresOwnBroadcast(t *testing.T) {
	s := New(Config{Type: "remote-desk", AdvertisedPort: 9001, Version: "1.0.0"})

	var fired bool
	s.SetListener(func(Info) { fired = true })

	s.handleDatagram([]byte(s.message()), &fakeAddr{"127.0.0.1:9001"})
	assert.False(t, fired, "a node must never be notified of its own broadcast")
}

func TestHandleDatagramIgnoresCrossApplicationNoise(t *testing.T) {
	s := New(Config{Type: "remote-desk", AdvertisedPort: 9001, Version: "1.0.0"})

	var fired bool
	s.SetListener(func(Info) { fired = true })

	s.handleDatagram([]byte("other-app|999|1|0.0.1"), &fakeAddr{"127.0.0.1:9001"})
	assert.False(t, fired)
}

func TestHandleDatagramDeliversPeerInfo(t *testing.T) {
	s := New(Config{Type: "remote-desk", AdvertisedPort: 9001, Version: "1.0.0"})

	var got Info
	s.SetListener(func(i Info) { got = i })

	s.handleDatagram([]byte("remote-desk|7|9002|1.0.0"), &fakeAddr{"127.0.0.1:55555"})
	assert.Equal(t, "remote-desk", got.Type)
	assert.EqualValues(t, 7, got.ID)
	assert.Equal(t, 9002, got.Port)
	assert.Equal(t, "127.0.0.1", got.IP)
}

type fakeAddr struct{ addr string }

func (f *fakeAddr) Network() string { return "udp" }
func (f *fakeAddr) String() string  { return f.addr }
