// Package zonefeed parses the CSV-shaped zone feed: lines of
// "ip, length, templateName" mapping an IPv4 prefix to the name of
// the PAC template that should be served for it.
package zonefeed

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/TimeForANinja/pacserver/ipnet"
	"go.uber.org/zap"
)

// Zone associates one IPv4 prefix with one template name.
type Zone struct {
	Prefix       ipnet.Prefix
	TemplateName string
}

// Load parses a byte stream of zone records. Malformed lines are
// logged and skipped; only an I/O error reading the stream itself is
// returned to the caller.
func Load(r io.Reader, logger *zap.Logger) ([]Zone, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	scanner := bufio.NewScanner(r)
	// Zone files may contain long template names or long comment
	// lines; use a generous max line length.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var zones []Zone
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "/") {
			continue
		}

		fields, err := parseCSVLine(line)
		if err != nil {
			logger.Warn("zonefeed: unable to parse CSV line",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		if len(fields) != 3 {
			logger.Warn("zonefeed: wrong field count",
				zap.Int("line", lineNo), zap.Int("fields", len(fields)), zap.Int("want", 3))
			continue
		}
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		prefix, err := ipnet.FromStrings(fields[0], fields[1])
		if err != nil {
			logger.Warn("zonefeed: unable to parse prefix",
				zap.Int("line", lineNo), zap.Error(err))
			continue
		}

		zones = append(zones, Zone{Prefix: prefix, TemplateName: fields[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("zonefeed: read failed: %w", err)
	}

	return zones, nil
}

// parseCSVLine splits a single line using encoding/csv so quoted
// fields (e.g. template names containing commas) are handled
// correctly.
func parseCSVLine(line string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(line))
	cr.FieldsPerRecord = -1
	return cr.Read()
}
