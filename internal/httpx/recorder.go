package httpx

import "net/http"

// maxErrBody bounds how much of an error response a Recorder keeps.
const maxErrBody = 512

// Recorder captures the status and size of a response, plus the start of the
// body when the status is 400 or above so request logs can show why a check
// was refused.
type Recorder struct {
	http.ResponseWriter
	Status  int
	Bytes   int
	ErrBody []byte
}

func NewRecorder(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w}
}

func (r *Recorder) WriteHeader(code int) {
	if r.Status == 0 {
		r.Status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *Recorder) Write(b []byte) (int, error) {
	if r.Status == 0 {
		r.Status = http.StatusOK
	}
	if r.Status >= 400 && len(r.ErrBody) < maxErrBody {
		r.ErrBody = append(r.ErrBody, b[:min(len(b), maxErrBody-len(r.ErrBody))]...)
	}
	n, err := r.ResponseWriter.Write(b)
	r.Bytes += n
	return n, err
}

// Code is the status sent to the client. A handler that wrote nothing sent 200.
func (r *Recorder) Code() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}
