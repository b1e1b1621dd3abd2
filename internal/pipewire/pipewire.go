//go:build linux

// Package pipewire is a minimal, dynamically-loaded binding to
// libpipewire-0.3, used by the Wayland capture backend to consume the
// video stream negotiated through the xdg-desktop-portal ScreenCast
// interface. The library is dlopen'd at runtime rather than linked, so a
// host without PipeWire installed still gets a clean ErrUnavailable
// instead of a load-time failure.
package pipewire

/*
#cgo pkg-config: libpipewire-0.3
#cgo LDFLAGS: -ldl
#include <pipewire/pipewire.h>
#include <spa/param/video/format-utils.h>
#include <stdlib.h>
#include <string.h>
#include <dlfcn.h>

static void (*d_pw_init)(int *argc, char **argv[]);
static struct pw_main_loop * (*d_pw_main_loop_new)(const struct spa_dict *props);
static struct pw_loop * (*d_pw_main_loop_get_loop)(struct pw_main_loop *loop);
static void (*d_pw_main_loop_quit)(struct pw_main_loop *loop);
static void (*d_pw_main_loop_run)(struct pw_main_loop *loop);
static void (*d_pw_main_loop_destroy)(struct pw_main_loop *loop);
static struct pw_context * (*d_pw_context_new)(struct pw_loop *main_loop, struct pw_properties *props, size_t user_data_size);
static void (*d_pw_context_destroy)(struct pw_context *context);
static struct pw_core * (*d_pw_context_connect_fd)(struct pw_context *context, int fd, struct pw_properties *properties, size_t user_data_size);
static int (*d_pw_core_disconnect)(struct pw_core *core);
static struct pw_properties * (*d_pw_properties_new)(const char *key, ...);
static struct pw_stream * (*d_pw_stream_new)(struct pw_core *core, const char *name, struct pw_properties *props);
static void (*d_pw_stream_add_listener)(struct pw_stream *stream, struct spa_hook *listener, const struct pw_stream_events *events, void *data);
static int (*d_pw_stream_connect)(struct pw_stream *stream, enum pw_direction direction, uint32_t target_id, enum pw_stream_flags flags, const struct spa_pod **params, uint32_t n_params);
static struct pw_buffer * (*d_pw_stream_dequeue_buffer)(struct pw_stream *stream);
static int (*d_pw_stream_queue_buffer)(struct pw_stream *stream, struct pw_buffer *buffer);
static void (*d_pw_stream_destroy)(struct pw_stream *stream);

static void *handle = NULL;

static int load_pipewire(void) {
    if (handle != NULL) return 1;

    const char *names[] = {"libpipewire-0.3.so.0", "libpipewire-0.3.so", NULL};
    for (int i = 0; names[i] != NULL; i++) {
        handle = dlopen(names[i], RTLD_NOW);
        if (handle) break;
    }
    if (!handle) return 0;

    d_pw_init = dlsym(handle, "pw_init");
    d_pw_main_loop_new = dlsym(handle, "pw_main_loop_new");
    d_pw_main_loop_get_loop = dlsym(handle, "pw_main_loop_get_loop");
    d_pw_main_loop_quit = dlsym(handle, "pw_main_loop_quit");
    d_pw_main_loop_run = dlsym(handle, "pw_main_loop_run");
    d_pw_main_loop_destroy = dlsym(handle, "pw_main_loop_destroy");
    d_pw_context_new = dlsym(handle, "pw_context_new");
    d_pw_context_destroy = dlsym(handle, "pw_context_destroy");
    d_pw_context_connect_fd = dlsym(handle, "pw_context_connect_fd");
    d_pw_core_disconnect = dlsym(handle, "pw_core_disconnect");
    d_pw_properties_new = dlsym(handle, "pw_properties_new");
    d_pw_stream_new = dlsym(handle, "pw_stream_new");
    d_pw_stream_add_listener = dlsym(handle, "pw_stream_add_listener");
    d_pw_stream_connect = dlsym(handle, "pw_stream_connect");
    d_pw_stream_dequeue_buffer = dlsym(handle, "pw_stream_dequeue_buffer");
    d_pw_stream_queue_buffer = dlsym(handle, "pw_stream_queue_buffer");
    d_pw_stream_destroy = dlsym(handle, "pw_stream_destroy");

    if (!d_pw_init || !d_pw_main_loop_new || !d_pw_stream_new) {
        dlclose(handle);
        handle = NULL;
        return 0;
    }
    return 1;
}

extern void go_on_state_changed(int id, enum pw_stream_state old, enum pw_stream_state state, char *error);
extern void go_on_process(int id, void *data, uint32_t size);

struct stream_userdata {
    int id;
    struct pw_stream *stream;
    struct spa_hook listener;
};

static void on_state_changed(void *userdata, enum pw_stream_state old, enum pw_stream_state state, const char *error) {
    struct stream_userdata *d = userdata;
    go_on_state_changed(d->id, old, state, (char *)error);
}

static void on_process(void *userdata) {
    struct stream_userdata *d = userdata;
    if (!d->stream) return;

    struct pw_buffer *b = d_pw_stream_dequeue_buffer(d->stream);
    if (b == NULL) return;

    struct spa_buffer *buf = b->buffer;
    if (buf->datas[0].data != NULL && buf->datas[0].chunk != NULL) {
        uint32_t size = buf->datas[0].chunk->size;
        if (size > 0) go_on_process(d->id, buf->datas[0].data, size);
    }

    d_pw_stream_queue_buffer(d->stream, b);
}

static const struct pw_stream_events video_events = {
    PW_VERSION_STREAM_EVENTS,
    .state_changed = on_state_changed,
    .process = on_process,
};

static inline struct pw_stream *new_video_stream(struct pw_core *core, const char *name, struct stream_userdata *d) {
    struct pw_properties *props = d_pw_properties_new(
        PW_KEY_MEDIA_TYPE, "Video",
        PW_KEY_MEDIA_CATEGORY, "Capture",
        PW_KEY_MEDIA_ROLE, "Screen",
        NULL);

    struct pw_stream *stream = d_pw_stream_new(core, name, props);
    if (stream != NULL) {
        d->stream = stream;
        d_pw_stream_add_listener(stream, &d->listener, &video_events, d);
    }
    return stream;
}

static inline int connect_video_stream(struct pw_stream *stream, uint32_t target_id, uint32_t width, uint32_t height, uint32_t fps_num, uint32_t fps_den) {
    uint8_t buffer[1024];
    struct spa_pod_builder b = SPA_POD_BUILDER_INIT(buffer, sizeof(buffer));

    const struct spa_pod *params[1];
    params[0] = spa_pod_builder_add_object(&b,
        SPA_TYPE_OBJECT_Format, SPA_PARAM_EnumFormat,
        SPA_FORMAT_mediaType, SPA_POD_Id(SPA_MEDIA_TYPE_video),
        SPA_FORMAT_mediaSubtype, SPA_POD_Id(SPA_MEDIA_SUBTYPE_raw),
        SPA_FORMAT_VIDEO_format, SPA_POD_CHOICE_ENUM_Id(4,
            SPA_VIDEO_FORMAT_BGRx,
            SPA_VIDEO_FORMAT_BGRx,
            SPA_VIDEO_FORMAT_RGBx,
            SPA_VIDEO_FORMAT_BGRA),
        SPA_FORMAT_VIDEO_size, SPA_POD_CHOICE_RANGE_Rectangle(
            &SPA_RECTANGLE(width, height),
            &SPA_RECTANGLE(1, 1),
            &SPA_RECTANGLE(8192, 8192)),
        SPA_FORMAT_VIDEO_framerate, SPA_POD_CHOICE_RANGE_Fraction(
            &SPA_FRACTION(fps_num, fps_den),
            &SPA_FRACTION(0, 1),
            &SPA_FRACTION(1000, 1)));

    return d_pw_stream_connect(stream, PW_DIRECTION_INPUT, target_id,
        PW_STREAM_FLAG_AUTOCONNECT | PW_STREAM_FLAG_MAP_BUFFERS, params, 1);
}

static inline void wrap_pw_init(void) { d_pw_init(NULL, NULL); }
static inline struct pw_main_loop *wrap_loop_new(void) { return d_pw_main_loop_new(NULL); }
static inline struct pw_context *wrap_context_new(struct pw_main_loop *loop) { return d_pw_context_new(d_pw_main_loop_get_loop(loop), NULL, 0); }
static inline struct pw_core *wrap_connect_fd(struct pw_context *ctx, int fd) { return d_pw_context_connect_fd(ctx, fd, NULL, 0); }
static inline void wrap_loop_run(struct pw_main_loop *loop) { d_pw_main_loop_run(loop); }
static inline void wrap_loop_quit(struct pw_main_loop *loop) { d_pw_main_loop_quit(loop); }
static inline void wrap_stream_destroy(struct pw_stream *s) { d_pw_stream_destroy(s); }
static inline void wrap_core_disconnect(struct pw_core *c) { d_pw_core_disconnect(c); }
static inline void wrap_context_destroy(struct pw_context *c) { d_pw_context_destroy(c); }
static inline void wrap_loop_destroy(struct pw_main_loop *l) { d_pw_main_loop_destroy(l); }
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"syscall"
	"unsafe"
)

// ErrUnavailable is returned when libpipewire-0.3 cannot be dlopen'd.
var ErrUnavailable = errors.New("pipewire: libpipewire-0.3 is not installed")

// VideoStream is one negotiated PipeWire video source. Frames arrive as
// raw packed-pixel buffers via Read, in whatever format PipeWire
// negotiated from the candidate list (BGRx/RGBx/BGRA); the caller is
// expected to know the negotiated format out of band (SelectSources on
// the portal side is the source of truth in this backend).
type VideoStream struct {
	loop    *C.struct_pw_main_loop
	context *C.struct_pw_context
	core    *C.struct_pw_core
	data    *C.struct_stream_userdata

	id int
	pr *io.PipeReader
	pw *io.PipeWriter

	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

var (
	registryMu sync.Mutex
	registry   = make(map[int]*VideoStream)
	nextID     = 1
	loaded     bool
	loadedMu   sync.Mutex
)

// Available reports whether libpipewire-0.3 could be loaded.
func Available() bool {
	loadedMu.Lock()
	defer loadedMu.Unlock()
	if loaded {
		return true
	}
	if C.load_pipewire() == 1 {
		loaded = true
		C.wrap_pw_init()
		return true
	}
	return false
}

// NewVideoStream connects to the PipeWire node identified by nodeID, over
// the connection fd handed back by the portal's OpenPipeWireRemote call.
// fd is dup'd because pw_context_connect_fd takes ownership of what it's
// given.
func NewVideoStream(fd int, nodeID uint32, width, height, frameRate uint32) (*VideoStream, error) {
	if !Available() {
		return nil, ErrUnavailable
	}

	pr, pw := io.Pipe()
	s := &VideoStream{pr: pr, pw: pw}

	registryMu.Lock()
	s.id = nextID
	nextID++
	registryMu.Unlock()

	dupFd, err := syscall.Dup(fd)
	if err != nil {
		return nil, fmt.Errorf("pipewire: dup fd: %w", err)
	}
	ownedByPipewire := false
	defer func() {
		if !ownedByPipewire {
			_ = syscall.Close(dupFd)
		}
	}()

	fail := func(err error) (*VideoStream, error) {
		_ = s.Close()
		return nil, err
	}

	s.loop = C.wrap_loop_new()
	if s.loop == nil {
		return fail(errors.New("pipewire: failed to create main loop"))
	}
	s.context = C.wrap_context_new(s.loop)
	if s.context == nil {
		return fail(errors.New("pipewire: failed to create context"))
	}
	s.core = C.wrap_connect_fd(s.context, C.int(dupFd))
	if s.core == nil {
		return fail(errors.New("pipewire: failed to connect fd"))
	}
	ownedByPipewire = true

	name := C.CString("remote-desk-capture")
	defer C.free(unsafe.Pointer(name))

	s.data = (*C.struct_stream_userdata)(C.malloc(C.sizeof_struct_stream_userdata))
	s.data.id = C.int(s.id)
	s.data.stream = nil

	stream := C.new_video_stream(s.core, name, s.data)
	if stream == nil {
		return fail(errors.New("pipewire: failed to create stream"))
	}
	s.data.stream = stream

	res := C.connect_video_stream(stream, C.uint32_t(nodeID), C.uint32_t(width), C.uint32_t(height), C.uint32_t(frameRate), 1)
	if res < 0 {
		return fail(fmt.Errorf("pipewire: stream connect failed: %d", int(res)))
	}

	registryMu.Lock()
	registry[s.id] = s
	registryMu.Unlock()
	return s, nil
}

// Start runs the PipeWire main loop on its own goroutine, delivering
// buffers to Read as they arrive.
func (s *VideoStream) Start() {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			C.wrap_loop_run(s.loop)
		}()
	})
}

func (s *VideoStream) Stop() {
	if s.loop != nil {
		C.wrap_loop_quit(s.loop)
	}
}

func (s *VideoStream) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

func (s *VideoStream) Close() error {
	s.closeOnce.Do(func() {
		s.Stop()
		s.wg.Wait()

		err := errors.Join(s.pw.Close(), s.pr.Close())

		if s.data != nil {
			if s.data.stream != nil {
				C.wrap_stream_destroy(s.data.stream)
			}
			C.free(unsafe.Pointer(s.data))
			s.data = nil
		}
		if s.core != nil {
			C.wrap_core_disconnect(s.core)
			s.core = nil
		}
		if s.context != nil {
			C.wrap_context_destroy(s.context)
			s.context = nil
		}
		if s.loop != nil {
			C.wrap_loop_destroy(s.loop)
			s.loop = nil
		}

		registryMu.Lock()
		delete(registry, s.id)
		registryMu.Unlock()

		s.closeErr = err
	})
	return s.closeErr
}

//export go_on_state_changed
func go_on_state_changed(id C.int, old C.enum_pw_stream_state, state C.enum_pw_stream_state, errMsg *C.char) {
	// State transitions are diagnostic only; errors surface through
	// Read returning io.ErrClosedPipe once the stream tears down.
}

//export go_on_process
func go_on_process(id C.int, data unsafe.Pointer, size C.uint32_t) {
	registryMu.Lock()
	s, ok := registry[int(id)]
	registryMu.Unlock()
	if !ok {
		return
	}
	chunk := unsafe.Slice((*byte)(data), int(size))
	_, _ = s.pw.Write(chunk)
}
