// internal/scaffold/write.go
//
// Exclusive file writes shared by every generator.

package scaffold

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// writeSource is swapped in tests to simulate a failing disk.
var writeSource = func(f *os.File, src []byte) error {
	_, err := f.Write(src)
	return err
}

// writeNew creates path (and its directory) and writes src into it.  An
// existing file yields ErrExists and is left untouched.  A failed write
// removes the partial file so a retry starts clean.
func writeNew(path string, src []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	if err != nil {
		return err
	}

	if err := writeSource(f, src); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("scaffold: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("scaffold: close %s: %w", path, err)
	}
	return nil
}
