package pipeline

import (
	"github.com/matzehuels/mockup/pkg/composite"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/merge"
)

// Reply messages.
const (
	MsgDecoded  = "Process finished successfully"
	MsgMerged   = "Merge finished successfully"
	MsgExported = "Export finished successfully"
	MsgFound    = "Success"
	MsgDownload = "Download finished successfully"
	MsgFailed   = "Processing file failed"
)

// Reply is the envelope every front end returns.
type Reply struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OK returns a successful reply.
func OK(message string, data any) Reply {
	return Reply{Success: true, Message: message, Data: data}
}

// Fail returns a failed reply for err. The message is user-facing; the
// error code is kept for clients that branch on it.
func Fail(err error) Reply {
	msg := errors.UserMessage(err)
	if msg == "" {
		msg = MsgFailed
	}
	return Reply{Success: false, Message: msg, Code: string(errors.GetCode(err))}
}

// partial is a reply carrying data from a run where some groups failed.
func partial(data any, err error) Reply {
	r := Fail(err)
	r.Data = data
	return r
}

// DecodeReply wraps the outcome of Runner.Decode. Data is the layer model.
func DecodeReply(res *DecodeResult, err error) Reply {
	if err != nil {
		return Fail(err)
	}
	return OK(MsgDecoded, res.Document)
}

// MergeData is the data of a merge reply.
type MergeData struct {
	Files   []string `json:"files"`
	Failed  []string `json:"failed,omitempty"`
	Skipped []string `json:"skipped,omitempty"`
}

// MergeReply wraps the outcome of Runner.Merge. A merge where some groups
// failed is unsuccessful but still lists the sheets that were written.
func MergeReply(res *merge.Result, err error) Reply {
	if err != nil {
		return Fail(err)
	}
	data := MergeData{Files: []string{}, Failed: res.Errors.Groups(), Skipped: res.Skipped}
	for _, o := range res.Outputs {
		data.Files = append(data.Files, o.Paths...)
	}
	if gerr := res.Err(); gerr != nil {
		return partial(data, gerr)
	}
	return OK(MsgMerged, data)
}

// ExportData is the data of an export reply.
type ExportData struct {
	Files  []string `json:"files"`
	Failed []string `json:"failed,omitempty"`
}

// ExportReply wraps the outcome of Runner.Export.
func ExportReply(res *composite.Result, err error) Reply {
	if err != nil {
		return Fail(err)
	}
	data := ExportData{Files: res.Paths(), Failed: res.Errors.Groups()}
	if gerr := res.Err(); gerr != nil {
		return partial(data, gerr)
	}
	return OK(MsgExported, data)
}
