package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"rwb-go/internal/rwb"
)

// FileSystemVault stores backups as files under a root directory:
//
//	<root>/
//	  <name>          (backup file)
//	  <name>.version  (version marker)
type FileSystemVault struct {
	name string
	root string
}

// NewFileSystemVault creates a new filesystem vault rooted at the given path.
func NewFileSystemVault(name, root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &FileSystemVault{name: name, root: root}, nil
}

// PutBackup stores a backup under name along with its version marker.
func (v *FileSystemVault) PutBackup(name string, r io.Reader, size int64, version int64) error {
	destPath := filepath.Join(v.root, name)
	if err := v.writeFile(destPath, r, size); err != nil {
		return err
	}

	versionPath := filepath.Join(v.root, name+".version")
	return os.WriteFile(versionPath, []byte(strconv.FormatInt(version, 10)), 0644)
}

// GetBackup writes the stored backup for name to w.
func (v *FileSystemVault) GetBackup(name string, w io.Writer) error {
	f, err := os.Open(filepath.Join(v.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("backup not found: %s", name)
		}
		return fmt.Errorf("opening backup: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading backup: %w", err)
	}
	return nil
}

// GetBackupVersion returns the version marker for name, or 0 when none exists.
func (v *FileSystemVault) GetBackupVersion(name string) (int64, error) {
	data, err := os.ReadFile(filepath.Join(v.root, name+".version"))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading version file: %w", err)
	}

	version, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing version: %w", err)
	}
	return version, nil
}

// ValidateSetup verifies the vault root exists and is writable.
func (v *FileSystemVault) ValidateSetup() error {
	probe := filepath.Join(v.root, ".rwb-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("vault root not writable: %w", err)
	}
	os.Remove(probe)
	return nil
}

// writeFile writes size bytes from r to path via a temp file and rename,
// so a partially written backup is never visible under its final name.
func (v *FileSystemVault) writeFile(path string, r io.Reader, size int64) error {
	tmp, err := os.CreateTemp(v.root, ".rwb-upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("writing backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if written != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("moving backup into place: %w", err)
	}
	return nil
}

// Compile-time check that FileSystemVault implements rwb.Vault interface
var _ rwb.Vault = (*FileSystemVault)(nil)
