// Package system holds the file system and process helpers of the CLI.
package system

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"
)

// ExportExt is the extension of composition exports.
const ExportExt = ".json"

// TimestampLayout names generated output files.
const TimestampLayout = "2006-01-02_15-04-05"

// RaiseFileLimit lifts the soft limit of open files to want (capped at the
// hard limit). Batch conversions and the watcher keep many descriptors open.
func RaiseFileLimit(want uint64, logger *slog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("getrlimit failed", "err", err)
		return
	}
	if rLimit.Cur >= want {
		return
	}

	rLimit.Cur = want
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logger.Warn("setrlimit failed", "err", err)
		return
	}
	logger.Debug("open file limit raised", "limit", rLimit.Cur)
}

func isExport(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ExportExt)
}

// FindLatestExport returns the most recently modified export in dir.
func FindLatestExport(dir string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !isExport(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("в папке %s не найдено файлов %s", dir, ExportExt)
	}
	return latestFile, nil
}

// ExpandInputs replaces every directory in paths with the exports it
// contains, sorted by name. Plain files are kept as given.
func ExpandInputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && isExport(e.Name()) {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("в папке %s не найдено файлов %s", p, ExportExt)
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}

// OutputPath builds "<outDir>/<input base>_<timestamp><ext>".
func OutputPath(input, outDir, ext string, now time.Time) string {
	base := filepath.Base(input)
	cleanName := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, fmt.Sprintf("%s_%s%s", cleanName, now.Format(TimestampLayout), ext))
}
