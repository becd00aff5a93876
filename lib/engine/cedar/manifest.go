package cedar

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// --------------------------------------------------------------------------
// Column Family Manifest
// --------------------------------------------------------------------------

// Constants for the on-disk manifest format
const (
	manifestName    = "CFMANIFEST"  // Manifest file name
	manifestMagic   = "CEDARDB\x00" // File format identifier
	manifestVersion = 1             // Manifest format version
)

// manifestPath returns the manifest location for an engine directory.
func manifestPath(dir string) string {
	return filepath.Join(dir, manifestName)
}

// writeManifest atomically replaces the manifest with the given column
// family names. Names are written sorted so the manifest is deterministic.
func writeManifest(dir string, names []string) error {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	buf := make([]byte, 0, 64)
	buf = append(buf, manifestMagic...)
	buf = append(buf, manifestVersion)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(sorted)))
	for _, name := range sorted {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(name)))
		buf = append(buf, name...)
	}

	tmp := manifestPath(dir) + ".tmp"
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, manifestPath(dir))
}

// readManifest returns the column family names recorded in the manifest.
func readManifest(dir string) ([]string, error) {
	buf, err := os.ReadFile(manifestPath(dir))
	if err != nil {
		return nil, fmt.Errorf("cedar: read manifest: %w", err)
	}

	if len(buf) < len(manifestMagic)+1+4 || string(buf[:len(manifestMagic)]) != manifestMagic {
		return nil, fmt.Errorf("cedar: invalid manifest: magic number mismatch")
	}
	buf = buf[len(manifestMagic):]

	if version := buf[0]; version != manifestVersion {
		return nil, fmt.Errorf("cedar: unsupported manifest version: %d (expected %d)", version, manifestVersion)
	}
	buf = buf[1:]

	count := binary.LittleEndian.Uint32(buf)
	buf = buf[4:]

	names := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(buf) < 2 {
			return nil, fmt.Errorf("cedar: invalid manifest: truncated name length")
		}
		n := int(binary.LittleEndian.Uint16(buf))
		buf = buf[2:]
		if len(buf) < n {
			return nil, fmt.Errorf("cedar: invalid manifest: truncated name")
		}
		names = append(names, string(buf[:n]))
		buf = buf[n:]
	}
	return names, nil
}
