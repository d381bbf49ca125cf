package report

import (
	"strings"

	"github.com/TrialAndErrorAI/appstore-connect-mcp/pkg/models/domain"
)

const (
	fieldSeparator = "\t"
	// financial reports end with Total_Rows / Total_Amount / Total_Units lines
	footerPrefix = "Total_"
)

// Parse frames tab separated report text into rows keyed by header name. Rows shorter
// than the header get empty trailing fields. An empty or header-only text yields zero rows.
func Parse(text string, reportType domain.ReportType) domain.ParsedReport {
	report := domain.ParsedReport{ReportType: reportType}

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	headerFound := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !headerFound {
			headerFound = true
			report.Headers = parseHeader(line)
			if len(report.Headers) < 2 {
				// JSON error bodies or HTML pages are not reports
				report.Malformed = true
				report.Headers = nil
				return report
			}
			continue
		}

		if strings.HasPrefix(line, footerPrefix) {
			continue
		}

		report.Rows = append(report.Rows, parseRow(report.Headers, line))
	}

	report.RowCount = len(report.Rows)
	return report
}

func parseHeader(line string) []string {
	line = strings.TrimPrefix(line, "\ufeff")
	parts := strings.Split(line, fieldSeparator)
	headers := make([]string, 0, len(parts))
	for _, p := range parts {
		headers = append(headers, strings.TrimSpace(p))
	}
	// trailing tabs produce empty header names
	for len(headers) > 0 && headers[len(headers)-1] == "" {
		headers = headers[:len(headers)-1]
	}
	return headers
}

func parseRow(headers []string, line string) domain.ParsedReportRow {
	values := strings.Split(line, fieldSeparator)
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		if i < len(values) {
			fields[h] = strings.TrimSpace(values[i])
		} else {
			fields[h] = ""
		}
	}
	return domain.ParsedReportRow{Fields: fields}
}
