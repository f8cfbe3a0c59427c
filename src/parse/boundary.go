package parse

import "docsift/src/contracts"

// buildState is the position of the build tool in its serve lifecycle.
type buildState int

const (
	stateAwaitingBuild buildState = iota
	stateBuildInProgress
	stateBuildDone
	stateServing
	stateRebuilding
)

// boundaryDetector is a small state machine over recognized boundary lines.
// It emits at most one ChunkBoundary per observed line; all other tokens
// cause neither transition nor emission (except the first build-activity
// line, which moves AwaitingBuild to BuildInProgress silently).
type boundaryDetector struct {
	state buildState
}

// observe advances the machine on one token. The boolean reports whether a
// boundary fired.
func (d *boundaryDetector) observe(tok Token) (contracts.ChunkBoundary, bool) {
	switch tok {
	case TokenBuildComplete:
		switch d.state {
		case stateAwaitingBuild, stateBuildInProgress:
			d.state = stateBuildDone
			return contracts.BoundaryBuildComplete, true
		case stateRebuilding:
			d.state = stateServing
			return contracts.BoundaryBuildComplete, true
		}
	case TokenServerStarted:
		if d.state == stateBuildDone {
			d.state = stateServing
			return contracts.BoundaryServerStarted, true
		}
	case TokenRebuild:
		if d.state == stateServing {
			d.state = stateRebuilding
			return contracts.BoundaryRebuildStarted, true
		}
	case TokenOutputDir:
		if d.state == stateAwaitingBuild {
			d.state = stateBuildInProgress
		}
	}
	return "", false
}
