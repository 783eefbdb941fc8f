package video

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"
)

const bytesPerGB = 1024 * 1024 * 1024

// ValidateResources checks every declared path plus disk capacity before an
// expensive encode starts. Checks run in order — output directory exists or
// is created, output directory is writable, every declared input exists,
// free space meets the threshold — and the first failure short-circuits
// with an error naming the offending path or constraint.
//
// The free-space check is advisory: it races with concurrent writers on the
// same volume, so a passing preflight does not guarantee the encode cannot
// still run out of space. ErrEncodeFailed remains the authoritative
// backstop.
func ValidateResources(paths map[string]string, minFreeSpaceGB float64) error {
	output, ok := paths["output"]
	if !ok || output == "" {
		return fmt.Errorf("%w: no output path declared", ErrResourceUnavailable)
	}

	outputDir := filepath.Dir(output)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("%w: cannot create output directory %s: %v", ErrResourceUnavailable, outputDir, err)
	}
	if err := unix.Access(outputDir, unix.W_OK); err != nil {
		return fmt.Errorf("%w: no write permission for directory %s", ErrResourceUnavailable, outputDir)
	}

	for _, name := range sortedKeys(paths) {
		if name == "output" {
			continue
		}
		path := paths[name]
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s file not found: %s", ErrResourceUnavailable, name, path)
		}
	}

	free, err := freeSpace(outputDir)
	if err != nil {
		return fmt.Errorf("%w: cannot determine free space at %s: %v", ErrResourceUnavailable, outputDir, err)
	}
	if required := uint64(minFreeSpaceGB * bytesPerGB); free < required {
		return fmt.Errorf("%w: insufficient disk space at %s: %.2fGB available, %.2fGB required",
			ErrResourceUnavailable, outputDir, float64(free)/bytesPerGB, minFreeSpaceGB)
	}
	return nil
}

func freeSpace(dir string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
