package stats

import (
	"regexp"
	"strconv"
	"strings"

	"mcpanel/internal/models"
)

var (
	playerListRegex = regexp.MustCompile(`There are (\d+) of a max of (\d+) players online:?\s*(.*)`)
	trailingNumber  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*$`)
)

// ParsePlayerList extracts player counts and names from the "list" query
// output. Malformed or unexpected text yields the zero snapshot, never an
// error; player data is a soft signal.
func ParsePlayerList(out string) models.PlayerStats {
	stats := models.PlayerStats{Names: []string{}}
	matches := playerListRegex.FindStringSubmatch(out)
	if matches == nil {
		return stats
	}
	stats.Online, _ = strconv.Atoi(matches[1])
	stats.Max, _ = strconv.Atoi(matches[2])
	for _, name := range strings.Split(matches[3], ",") {
		trimmed := strings.TrimSpace(name)
		if trimmed != "" {
			stats.Names = append(stats.Names, trimmed)
		}
	}
	return stats
}

// ParseTPS extracts the trailing ticks-per-second figure from the "tps"
// query output. Unparsable text yields nil.
func ParseTPS(out string) *float64 {
	matches := trailingNumber.FindStringSubmatch(strings.TrimSpace(out))
	if matches == nil {
		return nil
	}
	tps, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil
	}
	return &tps
}
