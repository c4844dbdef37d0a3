package domain

// AskResult is the normalized outcome of a question forwarded to the
// assistant. Exactly one shape is populated:
//
//   - Answer is set when the upstream replied (or the reply was malformed and
//     the fallback text was substituted).
//   - Error, Status and Body are set when the upstream call failed. Status is
//     nil when no HTTP response was received at all.
//
// Upstream trouble is reported here, never as a Go error, so callers can
// render it without failing the whole request.
type AskResult struct {
	Answer string

	Error  string
	Status *int
	Body   string
}

// Failed reports whether the result carries an upstream failure.
func (r AskResult) Failed() bool {
	return r.Error != ""
}
