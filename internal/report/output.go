package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BackupTimeFormat names backup files.
const BackupTimeFormat = "20060102_150405"

// WriteJSON encodes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}

// Backup moves an existing file at path into dir as <name>_<timestamp><ext>
// and returns the new location. A missing file is not an error and returns "".
func Backup(path, dir string, now time.Time) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", eris.Wrapf(err, "report: stat %s", path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create backup dir %s", dir)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s%s", strings.TrimSuffix(base, ext), now.Format(BackupTimeFormat), ext))
	if err := os.Rename(path, dst); err != nil {
		return "", eris.Wrapf(err, "report: move %s to %s", path, dst)
	}
	zap.L().Info("report: previous output backed up", zap.String("from", path), zap.String("to", dst))
	return dst, nil
}
