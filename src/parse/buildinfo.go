package parse

import (
	"strconv"
	"strings"

	"docsift/src/contracts"
)

// observeBuildInfo folds a recognized metadata line into the snapshot.
// Idempotent: observing the same line twice produces the same result.
//
// Success reflects only "build finished"; issue counts are reported
// separately by the consumer.
func observeBuildInfo(tok Token, line string, info *contracts.BuildInfo) {
	stripped := stripLinePrefixes(line)

	switch tok {
	case TokenOutputDir:
		if m := outputDirPattern.FindStringSubmatch(stripped); m != nil {
			info.BuildDir = strings.TrimSpace(m[1])
		}
	case TokenServerStarted:
		if m := serverStartedPattern.FindStringSubmatch(stripped); m != nil {
			info.ServerURL = m[1]
		}
	case TokenBuildComplete:
		if m := buildCompletePattern.FindStringSubmatch(stripped); m != nil {
			if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
				info.BuildTimeSeconds = secs
			}
			info.Success = true
		}
	}
}
