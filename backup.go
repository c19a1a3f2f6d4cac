package litweave

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// BackupManager guards generated output files against accidental
// overwrites by copying the existing file aside before a write.
type BackupManager struct{}

func NewBackupManager() *BackupManager {
	return &BackupManager{}
}

// CreateBackupOf copies path to a timestamped .bak sibling if it exists.
//
// Returns the path to the backup file, or an empty string if no backup was
// created.
func (bm *BackupManager) CreateBackupOf(path string) (backupPath string, err error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	} else if err != nil {
		return "", fmt.Errorf("checking file existence: %w", err)
	}

	backupPath = fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102_150405"))

	if err := bm.copyFile(path, backupPath); err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}

	slog.Info("output file already existed. Created a backup.", "backup", backupPath, "output", path)
	return backupPath, nil
}

func (bm *BackupManager) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying file: %w", err)
	}

	return nil
}
