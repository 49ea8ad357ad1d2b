package agent

import (
	"regexp"
	"strconv"
	"strings"
)

// IntentName discriminates the small closed set of structured commands the
// parser recognizes, expressed as a string enum switched over
// exhaustively rather than a type hierarchy.
type IntentName string

const (
	IntentLembrete   IntentName = "lembrete"
	IntentListShow   IntentName = "list_show"
	IntentListAdd    IntentName = "list_add"
	IntentFeito      IntentName = "feito"
	IntentUnhandled  IntentName = "unhandled_command" // recognized slash command with no in-scope handler (e.g. /filme)
)

// Intent is the parsed, structured form of a slash-command or direct
// natural-language instruction.
type Intent struct {
	Name IntentName
	Args map[string]string
}

var (
	reLembreteIn    = regexp.MustCompile(`(?i)^/lembrete\s+(.+?)\s+em\s+(\d+)\s*(min(?:uto)?s?|h(?:ora)?s?|s(?:egundo)?s?)\.?$`)
	reLembreteAt    = regexp.MustCompile(`(?i)^/lembrete\s+(.+?)\s+(?:as|às)\s+(\d{1,2}):(\d{2})\.?$`)
	reListAdd       = regexp.MustCompile(`(?i)^/list\s+(\S+)\s+add\s+(.+)$`)
	reListShow      = regexp.MustCompile(`(?i)^/list\s+(\S+)\s*$`)
	reFeito         = regexp.MustCompile(`(?i)^/feito\s*(\S*)$`)
	reOtherSlashCmd = regexp.MustCompile(`(?i)^/(filme|receita|cripto|sagrado)\b`)
)

// ParseSlashCommand attempts each recognized form in order; returns false if
// text is not a structured command this system handles.
func ParseSlashCommand(text string) (Intent, bool) {
	text = strings.TrimSpace(text)

	if m := reLembreteIn.FindStringSubmatch(text); m != nil {
		seconds := unitToSeconds(m[2], m[3])
		return Intent{Name: IntentLembrete, Args: map[string]string{
			"text":       strings.TrimSpace(m[1]),
			"in_seconds": strconv.Itoa(seconds),
		}}, true
	}
	if m := reLembreteAt.FindStringSubmatch(text); m != nil {
		return Intent{Name: IntentLembrete, Args: map[string]string{
			"text": strings.TrimSpace(m[1]),
			"hour": m[2],
			"min":  m[3],
		}}, true
	}
	if m := reListAdd.FindStringSubmatch(text); m != nil {
		return Intent{Name: IntentListAdd, Args: map[string]string{
			"list_name": m[1],
			"item":      strings.TrimSpace(m[2]),
		}}, true
	}
	if m := reListShow.FindStringSubmatch(text); m != nil {
		return Intent{Name: IntentListShow, Args: map[string]string{"list_name": m[1]}}, true
	}
	if m := reFeito.FindStringSubmatch(text); m != nil {
		return Intent{Name: IntentFeito, Args: map[string]string{"target": m[1]}}, true
	}
	if reOtherSlashCmd.MatchString(text) {
		return Intent{Name: IntentUnhandled}, true
	}
	return Intent{}, false
}

func unitToSeconds(n, unit string) int {
	v, _ := strconv.Atoi(n)
	u := strings.ToLower(unit)
	switch {
	case strings.HasPrefix(u, "h"):
		return v * 3600
	case strings.HasPrefix(u, "s"):
		return v
	default: // minutes
		return v * 60
	}
}
