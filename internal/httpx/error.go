package httpx

import "strings"

const maxErrMsg = 300

// SafeErrMsg flattens err to one line of bounded length, for error bodies
// that may quote a policy engine response.
func SafeErrMsg(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if len(msg) > maxErrMsg {
		msg = msg[:maxErrMsg] + "..."
	}
	return msg
}
