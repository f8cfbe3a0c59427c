package parse

import (
	"io"

	"docsift/src/contracts"
)

// RunToCompletion drains the source through a StreamingProcessor, discarding
// intermediate flush boundaries. It returns all issues across all flushes in
// detection order and the final BuildInfo snapshot. Semantically equivalent
// to streaming with all flushes merged; used when no incremental display is
// needed.
func RunToCompletion(r io.Reader) ([]contracts.Issue, contracts.BuildInfo) {
	p := NewStreamingProcessor(r)
	var issues []contracts.Issue
	for {
		ev := p.Next()
		if ev == nil {
			break
		}
		issues = append(issues, ev.Issues...)
	}
	return issues, p.BuildInfo()
}
