package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DocumentType is the wire value of a document's type.
type DocumentType string

const (
	TypePolicy    DocumentType = "Politica"
	TypeProcedure DocumentType = "Procedimiento"
	TypeManual    DocumentType = "Manual"
	TypeFormat    DocumentType = "Formato"
	TypeRecord    DocumentType = "Registro"
	TypeReport    DocumentType = "Informe"
)

// DocumentTypes lists every type in display order.
var DocumentTypes = []DocumentType{
	TypePolicy, TypeProcedure, TypeManual, TypeFormat, TypeRecord, TypeReport,
}

// Controls lists the Annex A control codes offered for tagging.
var Controls = []string{
	"5.1.1", "6.1.2", "8.2.1", "9.1.1", "9.2.1", "11.2.9", "12.3.1", "17.1.1",
}

// Label returns the display label of t.
func (t DocumentType) Label() string {
	switch t {
	case TypePolicy:
		return "Política"
	case TypeProcedure:
		return "Procedimiento"
	case TypeFormat:
		return "Formato"
	case TypeRecord:
		return "Registro"
	case TypeReport:
		return "Informe"
	}
	return string(t)
}

// Valid reports whether t is one of DocumentTypes.
func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Summary is a catalog entry as listed by the document service.
type Summary struct {
	ID       string       `json:"id"`
	Title    string       `json:"titulo"`
	Type     DocumentType `json:"tipo"`
	Controls []string     `json:"controles"`
	Date     string       `json:"fecha"`
}

// Detail is a single document with its version and file location.
type Detail struct {
	Summary
	Version string `json:"version"`
	FileURL string `json:"url"`
}

// flexString accepts a JSON string, number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return fmt.Errorf("%w: expected string or number, got %s", ErrMalformed, data)
	}
	*f = flexString(data)
	return nil
}

type summaryWire struct {
	DocumentID flexString   `json:"id_documento"`
	ID         flexString   `json:"id"`
	Title      string       `json:"titulo"`
	Type       DocumentType `json:"tipo"`
	Controls   []string     `json:"controles"`
	Date       string       `json:"fecha"`
}

func (w summaryWire) summary() Summary {
	id := string(w.DocumentID)
	if id == "" {
		id = string(w.ID)
	}
	controls := w.Controls
	if controls == nil {
		controls = []string{}
	}
	return Summary{
		ID:       id,
		Title:    w.Title,
		Type:     w.Type,
		Controls: controls,
		Date:     w.Date,
	}
}

// UnmarshalJSON reads the identifier from id_documento, falling back to id.
func (s *Summary) UnmarshalJSON(data []byte) error {
	var w summaryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = w.summary()
	return nil
}

// UnmarshalJSON decodes the summary fields plus version and url.
func (d *Detail) UnmarshalJSON(data []byte) error {
	var w struct {
		summaryWire
		Version flexString `json:"version"`
		URL     string     `json:"url"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	d.Summary = w.summary()
	d.Version = string(w.Version)
	d.FileURL = w.URL
	return nil
}

// PrimaryControl returns the first control tag, or "" when untagged.
func (s Summary) PrimaryControl() string {
	if len(s.Controls) == 0 {
		return ""
	}
	return s.Controls[0]
}

// CreateCommand carries a document upload.
type CreateCommand struct {
	Filename string
	Data     []byte
	Title    string
	Type     DocumentType
	Process  string
	Version  string
	Control  string
}

// ChatRequest is the body of a chat turn.
type ChatRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
	TopK      int    `json:"top_k"`
	UseRAG    bool   `json:"use_rag"`
}

// Source is a retrieved chunk backing a chat reply.
type Source struct {
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Content    string  `json:"content"`
}

// ChatReply is the chat service's answer to a turn.
type ChatReply struct {
	Response   string   `json:"response"`
	Timestamp  string   `json:"timestamp,omitempty"`
	ChunksUsed []Source `json:"chunks_used,omitempty"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}
