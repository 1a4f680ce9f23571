package rwb

import "io"

// Vault stores database backups off-host. Implementations keep one object
// per name plus a version marker so callers can tell whether the remote
// copy is newer than the local database.
type Vault interface {
	// PutBackup stores a backup under name, recording its version.
	PutBackup(name string, r io.Reader, size int64, version int64) error

	// GetBackup writes the stored backup for name to w.
	GetBackup(name string, w io.Writer) error

	// GetBackupVersion returns the stored version for name, or 0 when no
	// backup exists.
	GetBackupVersion(name string) (int64, error)

	// ValidateSetup verifies the vault is reachable and writable.
	ValidateSetup() error
}
