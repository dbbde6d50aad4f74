package detect

import (
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/jamesainslie/ccdisk/pkg/ccdisk/types"
)

// logScanLimit is how much of the latest debug log is read.
const logScanLimit = 100 * types.KiB

// readLogPrefix returns at most logScanLimit bytes of path. ok is false when
// the file is missing or unreadable.
func readLogPrefix(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, logScanLimit))
	if err != nil {
		return "", false
	}
	return string(data), true
}

type logPattern struct {
	name string
	re   *regexp.Regexp
}

var grovePatterns = []logPattern{
	{"Grove notice config", regexp.MustCompile(`(?i)Grove notice config`)},
	{"timeout.*grove", regexp.MustCompile(`(?i)timeout.*grove`)},
	{"SLOW OPERATION DETECTED", regexp.MustCompile(`(?i)SLOW OPERATION DETECTED`)},
}

// GroveTimeout looks for startup stalls on the notice config fetch in the
// latest debug log.
type GroveTimeout struct{}

func (GroveTimeout) ID() string { return "GROVE_TIMEOUT" }

func (d GroveTimeout) Evaluate(in *Input) *types.Finding {
	content, ok := readLogPrefix(in.Layout.DebugLatest)
	if !ok {
		return nil
	}

	var matched []string
	for _, p := range grovePatterns {
		if p.re.MatchString(content) {
			matched = append(matched, p.name)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	return finding(d.ID(),
		"Debug log shows Grove notice config timeout",
		types.RiskHigh,
		"Startup blocks on failing/slow network fetch, adding 10-12s delay",
		[]types.ActionID{types.ActionDisableNonessentialTraffic},
		[]string{"#11442"},
		types.ListEvidence("patterns_matched", matched),
		types.StringEvidence("log_file", in.Layout.DebugLatest),
	)
}

var powershellPattern = regexp.MustCompile(`(?i)powershell\.exe.*USERPROFILE`)

// wslMinCalls is the occurrence count below which matches are noise.
const wslMinCalls = 3

// WSLPowerShell flags repeated PowerShell profile lookups on WSL.
type WSLPowerShell struct{}

func (WSLPowerShell) ID() string { return "WSL_POWERSHELL" }

func (d WSLPowerShell) Evaluate(in *Input) *types.Finding {
	if !in.Env.IsWSL {
		return nil
	}
	content, ok := readLogPrefix(in.Layout.DebugLatest)
	if !ok {
		return nil
	}

	calls := len(powershellPattern.FindAllStringIndex(content, -1))
	if calls < wslMinCalls {
		return nil
	}

	return finding(d.ID(),
		fmt.Sprintf("WSL: %d repeated PowerShell USERPROFILE calls", calls),
		types.RiskHigh,
		"Repeated PowerShell invocations can add ~60s to startup on WSL2",
		[]types.ActionID{types.ActionShowWSLWorkarounds},
		[]string{"#14352"},
		types.IntEvidence("call_count", int64(calls)),
		types.BoolEvidence("is_wsl", true),
	)
}
