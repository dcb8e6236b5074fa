package remote

import "strings"

// Outcome classifies a finished remote command.
type Outcome int

const (
	// Success means the command exited zero.
	Success Outcome = iota
	// BenignFailure means the command exited non-zero but the output shows
	// the desired state already holds (package present, rule exists).
	BenignFailure
	// FatalFailure means the command failed and the node cannot be
	// considered configured.
	FatalFailure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case BenignFailure:
		return "benign-failure"
	default:
		return "fatal-failure"
	}
}

// benignMarkers are output fragments that indicate an idempotent re-run
// rather than a real failure. Package managers and firewalld report
// "nothing to do" states this way instead of exiting zero.
var benignMarkers = []string{
	"already installed",
	"already exists",
	"already enabled",
	"already active",
	"is already the newest version",
	"nothing to do",
	"no packages marked for",
	"already_enabled",
}

// Classify maps a finished command to an outcome. It inspects output rather
// than trusting the exit code alone, because several package managers exit
// non-zero for states that are fine on a re-run.
func Classify(result CommandResult) Outcome {
	if result.ExitCode == 0 {
		return Success
	}
	out := strings.ToLower(result.Output())
	for _, marker := range benignMarkers {
		if strings.Contains(out, marker) {
			return BenignFailure
		}
	}
	return FatalFailure
}
