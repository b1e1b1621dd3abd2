// Package frame defines the typed, reference-counted buffer that flows
// through the media pipeline.
package frame

// Format identifies the pixel or sample layout carried by a Frame. Video
// codes occupy 100-199, audio codes occupy 200-299; IsVideo/IsAudio derive
// from the hundreds digit rather than an explicit table.
type Format int

const (
	Unknown Format = 0

	I420  Format = 100
	NV12  Format = 101
	RGB24 Format = 102
	BGR24 Format = 103
	RGBA32 Format = 104
	BGRA32 Format = 105
	H264  Format = 106
	H265  Format = 107
	VP8   Format = 108
	VP9   Format = 109

	PCMS16LE Format = 200
	PCMF32LE Format = 201
	AAC      Format = 202
	MP3      Format = 203
	Opus     Format = 204
	G711PCMU Format = 205
	G711PCMA Format = 206
)

// IsVideo reports whether f falls in the 100-199 video band.
func (f Format) IsVideo() bool { return f >= 100 && f < 200 }

// IsAudio reports whether f falls in the 200-299 audio band.
func (f Format) IsAudio() bool { return f >= 200 && f < 300 }

func (f Format) String() string {
	switch f {
	case Unknown:
		return "UNKNOWN"
	case I420:
		return "I420"
	case NV12:
		return "NV12"
	case RGB24:
		return "RGB24"
	case BGR24:
		return "BGR24"
	case RGBA32:
		return "RGBA32"
	case BGRA32:
		return "BGRA32"
	case H264:
		return "H264"
	case H265:
		return "H265"
	case VP8:
		return "VP8"
	case VP9:
		return "VP9"
	case PCMS16LE:
		return "PCM_S16LE"
	case PCMF32LE:
		return "PCM_F32LE"
	case AAC:
		return "AAC"
	case MP3:
		return "MP3"
	case Opus:
		return "OPUS"
	case G711PCMU:
		return "G711_PCMU"
	case G711PCMA:
		return "G711_PCMA"
	default:
		return "UNKNOWN"
	}
}

// BytesPerPixel returns the packed pixel size for formats where that is a
// fixed constant. I420/NV12 are planar and have no single answer; callers
// compute their size separately (see Frame.ExpectedSize).
func BytesPerPixel(f Format) int {
	switch f {
	case RGB24, BGR24:
		return 3
	case RGBA32, BGRA32:
		return 4
	default:
		return 0
	}
}
