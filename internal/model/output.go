package model

import (
	"bytes"
	"encoding/json"
	"errors"
)

// OutputKind is the stable discriminator for Output (spec.md §3's tagged
// sum). The string values are part of the sidecar's and cache's on-disk
// bytes; do not rename.
type OutputKind string

const (
	OutputStream        OutputKind = "stream"
	OutputDisplayData   OutputKind = "display_data"
	OutputExecuteResult OutputKind = "execute_result"
	OutputError         OutputKind = "error"
)

// Output is a single piece of a cell's execution result. It is a tagged
// sum, not a stringly-typed dictionary: Kind selects which of the
// kind-specific fields below are meaningful, and MarshalJSON below emits
// only those fields.
type Output struct {
	Kind OutputKind

	// stream
	StreamName string // "stdout" or "stderr"
	Text       string

	// display_data
	Data map[string]string // mime type -> payload (text or base64)

	// execute_result
	Repr string

	// error
	EName     string
	EValue    string
	Traceback []string
}

// NewStreamOutput builds a stream Output for the given stream name.
func NewStreamOutput(streamName, text string) Output {
	return Output{Kind: OutputStream, StreamName: streamName, Text: text}
}

// NewDisplayDataOutput builds a display_data Output.
func NewDisplayDataOutput(data map[string]string) Output {
	return Output{Kind: OutputDisplayData, Data: data}
}

// NewExecuteResultOutput builds an execute_result Output.
func NewExecuteResultOutput(repr string) Output {
	return Output{Kind: OutputExecuteResult, Repr: repr}
}

// NewErrorOutput builds an error Output carrying one of the spec.md §7
// stable identifiers as ename.
func NewErrorOutput(ename, evalue string, traceback []string) Output {
	return Output{Kind: OutputError, EName: ename, EValue: evalue, Traceback: traceback}
}

// MarshalJSON emits a fixed field order and omits fields not meaningful
// for the output's Kind, so sidecar lines and cache entries are stable
// across repeated writes of logically identical content.
func (o Output) MarshalJSON() ([]byte, error) {
	if o.Kind == "" {
		return nil, errors.New("output kind is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"kind\":")
	kb, _ := json.Marshal(string(o.Kind))
	buf.Write(kb)

	switch o.Kind {
	case OutputStream:
		buf.WriteString(",\"name\":")
		nb, _ := json.Marshal(o.StreamName)
		buf.Write(nb)
		buf.WriteString(",\"text\":")
		tb, _ := json.Marshal(o.Text)
		buf.Write(tb)
	case OutputDisplayData:
		buf.WriteString(",\"data\":")
		db, err := json.Marshal(o.Data)
		if err != nil {
			return nil, err
		}
		buf.Write(db)
	case OutputExecuteResult:
		buf.WriteString(",\"repr\":")
		rb, _ := json.Marshal(o.Repr)
		buf.Write(rb)
	case OutputError:
		buf.WriteString(",\"ename\":")
		enb, _ := json.Marshal(o.EName)
		buf.Write(enb)
		buf.WriteString(",\"evalue\":")
		evb, _ := json.Marshal(o.EValue)
		buf.Write(evb)
		if len(o.Traceback) > 0 {
			buf.WriteString(",\"traceback\":")
			tbb, err := json.Marshal(o.Traceback)
			if err != nil {
				return nil, err
			}
			buf.Write(tbb)
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON inverts MarshalJSON, dispatching on the kind field.
func (o *Output) UnmarshalJSON(b []byte) error {
	var peek struct {
		Kind      OutputKind        `json:"kind"`
		Name      string            `json:"name"`
		Text      string            `json:"text"`
		Data      map[string]string `json:"data"`
		Repr      string            `json:"repr"`
		EName     string            `json:"ename"`
		EValue    string            `json:"evalue"`
		Traceback []string          `json:"traceback"`
	}
	if err := json.Unmarshal(b, &peek); err != nil {
		return err
	}
	*o = Output{
		Kind:       peek.Kind,
		StreamName: peek.Name,
		Text:       peek.Text,
		Data:       peek.Data,
		Repr:       peek.Repr,
		EName:      peek.EName,
		EValue:     peek.EValue,
		Traceback:  peek.Traceback,
	}
	return nil
}
