package core

// LogLine represents a single line fetched from a container or host unit.
type LogLine struct {
	Source   string `json:"source"`
	TsUnixMs int64  `json:"ts_unix_ms"`
	Stream   string `json:"stream"` // "docker", "journal"
	Line     string `json:"line"`
}

// NewLogLines wraps raw text lines fetched at tsUnixMs.
func NewLogLines(source, stream string, tsUnixMs int64, lines []string) []LogLine {
	out := make([]LogLine, len(lines))
	for i, l := range lines {
		out[i] = LogLine{Source: source, TsUnixMs: tsUnixMs, Stream: stream, Line: l}
	}
	return out
}
