package media

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// OpenFunc opens a container for a file path.
type OpenFunc func(path string) (Container, error)

var (
	initOnce sync.Once

	mu         sync.Mutex
	byExt      map[string]OpenFunc
	fallback   OpenFunc
	deviceOpen func(name string) (Container, error)
)

// Init registers the built-in backends. It must be called once before any
// container is opened and is safe to call repeatedly.
func Init() {
	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		byExt = map[string]OpenFunc{
			".wav":  openWAV,
			".mp3":  openMP3,
			".flac": openFLAC,
			".ogg":  openVorbis,
			".oga":  openVorbis,
		}
		fallback = openFFmpeg
		deviceOpen = openFFmpegDevice
	})
}

// Shutdown tears the registry down. It must only be called after every
// session has been closed; containers opened before Shutdown stay valid
// until their own Close.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	byExt = nil
	fallback = nil
	deviceOpen = nil
	initOnce = sync.Once{}
}

// Register installs or overrides the backend for a file extension
// (including the leading dot). Intended for tests and embedders.
func Register(ext string, fn OpenFunc) {
	mu.Lock()
	defer mu.Unlock()
	if byExt == nil {
		byExt = map[string]OpenFunc{}
	}
	byExt[strings.ToLower(ext)] = fn
}

// Open opens a file path, or a named capture device when device is true.
// File dispatch is by extension with the FFmpeg backend as fallback for
// anything unrecognised.
func Open(locator string, device bool) (Container, error) {
	mu.Lock()
	open := fallback
	dev := deviceOpen
	if !device {
		if fn, ok := byExt[strings.ToLower(filepath.Ext(locator))]; ok {
			open = fn
		}
	}
	mu.Unlock()

	if device {
		if dev == nil {
			return nil, fmt.Errorf("media: not initialised")
		}
		return dev(locator)
	}
	if open == nil {
		return nil, fmt.Errorf("media: not initialised")
	}
	return open(locator)
}
