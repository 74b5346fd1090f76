package stats

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mcpanel/internal/utils"
)

const defaultLevelName = "world"

// LevelName reads the level-name key from the server.properties file under
// serverRoot. Missing files or keys fall back to the stock "world".
func LevelName(serverRoot string) string {
	file, err := os.Open(filepath.Join(serverRoot, "server.properties"))
	if err != nil {
		return defaultLevelName
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.TrimSpace(parts[0]) == "level-name" {
			if value := strings.TrimSpace(parts[1]); value != "" {
				return value
			}
			return defaultLevelName
		}
	}
	return defaultLevelName
}

// WorldSize sums the file sizes under the world directory resolved from
// server.properties. Unreadable entries are skipped; the result is always a
// best-effort number and never an error.
func WorldSize(serverRoot string) int64 {
	worldPath, err := utils.SecureJoin(serverRoot, LevelName(serverRoot))
	if err != nil {
		return 0
	}
	var total int64
	filepath.WalkDir(worldPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	return total
}
