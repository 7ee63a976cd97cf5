// Package upload stages a PDF with its metadata and submits it to the document service.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/isoone/internal/backend"
)

// Messages shown on the upload view.
const (
	MessageNotPDF     = "Por favor, sube solo archivos PDF."
	MessageIncomplete = "Completa el título y el proceso antes de guardar."
	MessageInvalidPDF = "El archivo no es un PDF válido."
	MessageTooLarge   = "El archivo supera el tamaño máximo permitido."
	MessageSaveFailed = "Error al guardar el documento"
	MessageReselect   = "Vuelve a seleccionar el archivo PDF antes de guardar."
)

// Upload errors.
var (
	ErrNoFile        = errors.New("no file staged")
	ErrMultipleFiles = errors.New("only one file may be staged")
	ErrNotPDF        = errors.New("file is not a PDF")
	ErrInvalidPDF    = errors.New("file could not be parsed as a PDF")
	ErrIncomplete    = errors.New("file, title and process are required")
	ErrFileTooLarge  = errors.New("file exceeds maximum upload size")
)

// Draft is the in-progress upload.
type Draft struct {
	Filename string
	Data     []byte
	Title    string
	Type     backend.DocumentType
	Process  string
	Version  string
	Control  string
}

// NewDraft returns a Draft with the default type, version and control.
func NewDraft() Draft {
	return Draft{
		Type:    backend.TypePolicy,
		Version: "1.0",
		Control: backend.Controls[0],
	}
}

// HasFile reports whether a file is staged.
func (d Draft) HasFile() bool {
	return d.Filename != "" && len(d.Data) > 0
}

// CanSubmit reports whether file, title and process are all present.
func (d Draft) CanSubmit() bool {
	return d.HasFile() && strings.TrimSpace(d.Title) != "" && strings.TrimSpace(d.Process) != ""
}

// Stage selects the single PDF among files. The declared content type decides;
// the bytes are not sniffed.
func Stage(files []*multipart.FileHeader) (*multipart.FileHeader, error) {
	switch {
	case len(files) == 0:
		return nil, ErrNoFile
	case len(files) > 1:
		return nil, ErrMultipleFiles
	}

	fh := files[0]
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/pdf" {
		return nil, ErrNotPDF
	}
	return fh, nil
}

// Attach reads fh into d and fills an empty title from the filename.
func (d *Draft) Attach(fh *multipart.FileHeader) error {
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read staged file: %w", err)
	}

	d.Filename = fh.Filename
	d.Data = data
	if strings.TrimSpace(d.Title) == "" {
		d.Title = SuggestTitle(fh.Filename)
	}
	return nil
}

// SuggestTitle strips a trailing .pdf and turns hyphens into spaces.
func SuggestTitle(filename string) string {
	if n := len(filename); n >= 4 && strings.EqualFold(filename[n-4:], ".pdf") {
		filename = filename[:n-4]
	}
	return strings.ReplaceAll(filename, "-", " ")
}

// Flow submits drafts to the document service.
type Flow struct {
	client    backend.Client
	verifyPDF bool
	logger    *slog.Logger
}

// NewFlow creates a Flow. With verifyPDF set, drafts whose bytes pdfcpu cannot
// read are rejected before submission.
func NewFlow(client backend.Client, verifyPDF bool, logger *slog.Logger) *Flow {
	return &Flow{
		client:    client,
		verifyPDF: verifyPDF,
		logger:    logger.With("module", "upload"),
	}
}

// Submit posts the draft once. Collaborator failures are logged and returned.
func (f *Flow) Submit(ctx context.Context, token string, d Draft) error {
	if !d.CanSubmit() {
		return ErrIncomplete
	}

	pages, err := api.PageCount(bytes.NewReader(d.Data), nil)
	if err != nil {
		f.logger.Warn("failed to extract PDF page count", "filename", d.Filename, "error", err)
		if f.verifyPDF {
			return ErrInvalidPDF
		}
	}

	cmd := backend.CreateCommand{
		Filename: d.Filename,
		Data:     d.Data,
		Title:    strings.TrimSpace(d.Title),
		Type:     d.Type,
		Process:  strings.TrimSpace(d.Process),
		Version:  d.Version,
		Control:  d.Control,
	}

	if err := f.client.CreateDocument(ctx, token, cmd); err != nil {
		f.logger.Error("document upload failed", "filename", d.Filename, "error", err)
		return err
	}

	f.logger.Info("document uploaded", "filename", d.Filename, "pages", pages, "size", len(d.Data))
	return nil
}
