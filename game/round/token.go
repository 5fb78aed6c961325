package round

import "fmt"

// Token identifies the exact session state a deferred action was created
// for. Two tokens are equal only if they refer to the same session, the
// same round and the same prompt.
type Token struct {
	Session string `json:"session"`
	Round   int    `json:"round"`
	Prompt  string `json:"prompt"`
}

func (t Token) String() string {
	return fmt.Sprintf("%s#%d(%s)", t.Session, t.Round, t.Prompt)
}

// CheckToken returns a stale error unless current equals captured.
func CheckToken(captured, current Token) error {
	if captured != current {
		return Stale("state moved from %s to %s", captured, current)
	}
	return nil
}
