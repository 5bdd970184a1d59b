package model

import (
	"encoding/json"
	"net/http"

	"github.com/tidwall/gjson"
)

// Envelope is the uniform result of every network operation.
// Success implies Error == ""; failure implies Data == nil.
type Envelope struct {
	Success bool
	Status  int
	Data    json.RawMessage
	Error   string
	Header  http.Header
}

// Ok builds a success envelope.
func Ok(status int, data json.RawMessage, header http.Header) Envelope {
	return Envelope{Success: true, Status: status, Data: data, Header: header}
}

// Fail builds a failure envelope.
func Fail(status int, msg string) Envelope {
	return Envelope{Success: false, Status: status, Error: msg}
}

// Get reads a field from the payload using gjson path syntax.
func (e Envelope) Get(path string) gjson.Result {
	if len(e.Data) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(e.Data, path)
}
