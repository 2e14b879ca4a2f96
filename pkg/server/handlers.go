package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Sumatoshi-tech/textpatch/pkg/document"
	"github.com/Sumatoshi-tech/textpatch/pkg/patch"
	"github.com/Sumatoshi-tech/textpatch/pkg/point"
	"github.com/Sumatoshi-tech/textpatch/pkg/render"
)

// Request errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnknownSpace = errors.New("space must be input or output")
)

const (
	spaceInput  = "input"
	spaceOutput = "output"
)

// CreateRequest is the body of PUT /documents/{id} and POST /documents/{id}/rebase.
type CreateRequest struct {
	Base string `json:"base"`
}

// SpliceRequest is the body of POST /documents/{id}/splice.
type SpliceRequest struct {
	Start    point.Point `json:"start"`
	Replaced point.Point `json:"replaced"`
	Text     string      `json:"text"`
}

// DocumentResponse describes a document after a mutation.
type DocumentResponse struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Changes int    `json:"changes"`
}

// ChangesResponse lists a document's changes.
type ChangesResponse struct {
	ID      string         `json:"id"`
	Changes []patch.Change `json:"changes"`
	Summary string         `json:"summary"`
}

// TranslateResponse answers a translate query.
type TranslateResponse struct {
	Space      string      `json:"space"`
	Position   point.Point `json:"position"`
	Translated point.Point `json:"translated"`
}

// ChangedResponse answers a changed query.
type ChangedResponse struct {
	Space    string      `json:"space"`
	Position point.Point `json:"position"`
	Changed  bool        `json:"changed"`
}

// ListResponse lists document ids.
type ListResponse struct {
	Documents []string `json:"documents"`
}

// ErrorResponse carries an error message.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) listDocuments(rw http.ResponseWriter, hr *http.Request) {
	h.writeJSON(rw, hr, http.StatusOK, ListResponse{Documents: h.registry.IDs()})
}

func (h *handlers) createDocument(rw http.ResponseWriter, hr *http.Request) {
	var req CreateRequest

	if !h.decode(rw, hr, &req) {
		return
	}

	doc, err := h.registry.Create(hr.Context(), hr.PathValue("id"), req.Base)
	if err != nil {
		h.writeError(rw, hr, err)

		return
	}

	h.writeJSON(rw, hr, http.StatusCreated, describe(doc))
}

func (h *handlers) deleteDocument(rw http.ResponseWriter, hr *http.Request) {
	err := h.registry.Delete(hr.Context(), hr.PathValue("id"))
	if err != nil {
		h.writeError(rw, hr, err)

		return
	}

	rw.WriteHeader(http.StatusNoContent)
}

func (h *handlers) splice(rw http.ResponseWriter, hr *http.Request) {
	doc, ok := h.document(rw, hr)
	if !ok {
		return
	}

	var req SpliceRequest

	if !h.decode(rw, hr, &req) {
		return
	}

	err := doc.Replace(hr.Context(), req.Start, req.Replaced, req.Text)
	if err != nil {
		h.writeError(rw, hr, err)

		return
	}

	h.writeJSON(rw, hr, http.StatusOK, describe(doc))
}

func (h *handlers) rebase(rw http.ResponseWriter, hr *http.Request) {
	doc, ok := h.document(rw, hr)
	if !ok {
		return
	}

	var req CreateRequest

	if !h.decode(rw, hr, &req) {
		return
	}

	err := doc.Rebase(hr.Context(), req.Base)
	if err != nil {
		h.writeError(rw, hr, err)

		return
	}

	h.writeJSON(rw, hr, http.StatusOK, describe(doc))
}

// changes answers in JSON unless ?format= names another render format.
func (h *handlers) changes(rw http.ResponseWriter, hr *http.Request) {
	doc, ok := h.document(rw, hr)
	if !ok {
		return
	}

	changes := doc.Changes()

	format := render.Format(hr.URL.Query().Get("format"))
	switch format {
	case "", render.FormatJSON:
		h.writeJSON(rw, hr, http.StatusOK, ChangesResponse{
			ID:      doc.ID(),
			Changes: changes,
			Summary: render.Summary(changes),
		})
	case render.FormatYAML:
		rw.Header().Set("Content-Type", "application/yaml")

		h.logWrite(hr, render.Render(rw, changes, format, render.Options{}))
	case render.FormatText, render.FormatTable:
		rw.Header().Set("Content-Type", "text/plain; charset=utf-8")

		h.logWrite(hr, render.Render(rw, changes, format, render.Options{}))
	default:
		h.writeError(rw, hr, fmt.Errorf("%w: %w: %q", ErrBadRequest, render.ErrUnsupportedFormat, format))
	}
}

func (h *handlers) translate(rw http.ResponseWriter, hr *http.Request) {
	doc, ok := h.document(rw, hr)
	if !ok {
		return
	}

	space, pos, err := query(hr)
	if err != nil {
		h.writeError(rw, hr, err)

		return
	}

	var out point.Point
	if space == spaceInput {
		out = doc.TranslateInputPosition(pos)
	} else {
		out = doc.TranslateOutputPosition(pos)
	}

	h.writeJSON(rw, hr, http.StatusOK, TranslateResponse{Space: space, Position: pos, Translated: out})
}

func (h *handlers) changed(rw http.ResponseWriter, hr *http.Request) {
	doc, ok := h.document(rw, hr)
	if !ok {
		return
	}

	space, pos, err := query(hr)
	if err != nil {
		h.writeError(rw, hr, err)

		return
	}

	var changed bool
	if space == spaceInput {
		changed = doc.IsChangedAtInputPosition(pos)
	} else {
		changed = doc.IsChangedAtOutputPosition(pos)
	}

	h.writeJSON(rw, hr, http.StatusOK, ChangedResponse{Space: space, Position: pos, Changed: changed})
}

func (h *handlers) text(rw http.ResponseWriter, hr *http.Request) {
	doc, ok := h.document(rw, hr)
	if !ok {
		return
	}

	rw.Header().Set("Content-Type", "text/plain; charset=utf-8")

	_, err := rw.Write([]byte(doc.Text()))
	h.logWrite(hr, err)
}

// query reads the space and position parameters of a query endpoint.
func query(hr *http.Request) (string, point.Point, error) {
	values := hr.URL.Query()

	space := values.Get("space")
	if space == "" {
		space = spaceOutput
	}

	if space != spaceInput && space != spaceOutput {
		return "", point.Zero, fmt.Errorf("%w: %w: %q", ErrBadRequest, ErrUnknownSpace, space)
	}

	pos, err := point.Parse(values.Get("position"))
	if err != nil {
		return "", point.Zero, fmt.Errorf("%w: position: %w", ErrBadRequest, err)
	}

	return space, pos, nil
}

func describe(doc *document.Document) DocumentResponse {
	return DocumentResponse{ID: doc.ID(), Text: doc.Text(), Changes: len(doc.Changes())}
}

func (h *handlers) document(rw http.ResponseWriter, hr *http.Request) (*document.Document, bool) {
	doc, err := h.registry.Get(hr.PathValue("id"))
	if err != nil {
		h.writeError(rw, hr, err)

		return nil, false
	}

	return doc, true
}

func (h *handlers) decode(rw http.ResponseWriter, hr *http.Request, dst any) bool {
	body := http.MaxBytesReader(rw, hr.Body, h.maxBodyBytes)

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(rw, hr, err)

			return false
		}

		h.writeError(rw, hr, fmt.Errorf("%w: %w", ErrBadRequest, err))

		return false
	}

	return true
}

func statusOf(err error) int {
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, document.ErrEmptyID),
		errors.Is(err, document.ErrOutOfRange),
		errors.Is(err, point.ErrInvalidPoint):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) writeError(rw http.ResponseWriter, hr *http.Request, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		h.logger.ErrorContext(hr.Context(), "request failed", "path", hr.URL.Path, "error", err)
	}

	h.writeJSON(rw, hr, code, ErrorResponse{Error: err.Error()})
}

func (h *handlers) writeJSON(rw http.ResponseWriter, hr *http.Request, code int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)

	h.logWrite(hr, json.NewEncoder(rw).Encode(value))
}

func (h *handlers) logWrite(hr *http.Request, err error) {
	if err != nil {
		h.logger.WarnContext(hr.Context(), "write response", "path", hr.URL.Path, "error", err)
	}
}
