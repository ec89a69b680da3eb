// Package inference - Utility functions.
package inference

import (
	"os"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// LibraryPathEnv overrides the platform default shared library location.
const LibraryPathEnv = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

// SharedLibPath returns the path to the ONNX Runtime shared library.
//
// An explicit path wins, then LibraryPathEnv, then the platform default under
// ./third_party.
//
// Arguments:
//   - explicit: A configured path, or empty.
//
// Returns:
//   - string: The path to the shared library.
//   - error: An error if no library is known for this platform.
func SharedLibPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if env := os.Getenv(LibraryPathEnv); env != "" {
		return env, nil
	}

	switch runtime.GOOS {
	case "windows":
		if runtime.GOARCH == "amd64" {
			return "./third_party/onnxruntime.dll", nil
		}
	case "darwin":
		return "./third_party/onnxruntime.dylib", nil
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so", nil
		}
		return "./third_party/onnxruntime.so", nil
	}
	return "", errors.Errorf("no onnxruntime library known for %s/%s", runtime.GOOS, runtime.GOARCH)
}

var environmentMu sync.Mutex

// InitEnvironment loads the shared library and initializes the runtime. It is safe to
// call more than once; only the first call with an uninitialized runtime loads libPath.
func InitEnvironment(libPath string) error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// DestroyEnvironment releases the runtime. Engines must be closed first.
func DestroyEnvironment() error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if !ort.IsInitialized() {
		return nil
	}
	return errors.Wrap(ort.DestroyEnvironment(), "error destroying ORT environment")
}
