// SPDX-License-Identifier: MIT

package bouncer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotABlendfile marks a scene file without the blender magic header.
var ErrNotABlendfile = errors.New("not a blend file")

// blendMagic is the header every uncompressed blend file starts with:
// "BLENDER" followed by pointer-size and endianness markers and a three-digit
// version, e.g. "BLENDER-v279".
var blendMagic = []byte("BLENDER")

// DefaultCheck is the built-in validity check: it reads the file header,
// verifies the blender magic and extracts the version string ("2.79" for a
// header ending in "v279").
func DefaultCheck(scenePath string) (string, error) {
	f, err := os.Open(scenePath)
	if err != nil {
		return "", fmt.Errorf("open scene file: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only handle

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return "", fmt.Errorf("%w: header too short", ErrNotABlendfile)
	}
	if !bytes.HasPrefix(header, blendMagic) {
		return "", fmt.Errorf("%w: bad magic", ErrNotABlendfile)
	}

	version := header[9:12]
	for _, c := range version {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: bad version field", ErrNotABlendfile)
		}
	}
	return fmt.Sprintf("%c.%c%c", version[0], version[1], version[2]), nil
}
