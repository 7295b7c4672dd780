// Package web serves the bill entry form and the documents produced from it.
//
// The server keeps no session: every request carries the complete form
// snapshot, and the print and download actions re-post the hidden fields
// of the preview.
package web

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mmynk/feebill/internal/bill"
	"github.com/mmynk/feebill/internal/export"
	"github.com/mmynk/feebill/internal/form"
	"github.com/mmynk/feebill/internal/metrics"
	"github.com/mmynk/feebill/internal/models"
	"github.com/mmynk/feebill/internal/render"
	"github.com/mmynk/feebill/internal/schedule"
)

// maxFormBytes bounds a posted form.
const maxFormBytes = 64 << 10

// Options wires a Handler.
type Options struct {
	Schedule        *schedule.Schedule
	Composer        *bill.Composer
	Validator       *form.Validator
	Renderer        *render.Renderer
	Metrics         *metrics.Metrics
	Institution     string
	DefaultBillType models.BillType
}

// Handler serves the web routes.
type Handler struct {
	opts Options
}

// New creates a Handler.
func New(opts Options) *Handler {
	if !opts.DefaultBillType.Valid() {
		opts.DefaultBillType = models.DefaultBillType
	}
	return &Handler{opts: opts}
}

// Register mounts the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /preview", h.handleDocument(h.writePreview))
	mux.HandleFunc("POST /print", h.handleDocument(h.writePrint))
	mux.HandleFunc("POST /download", h.handleDocument(h.writeXLSX))
	mux.HandleFunc("GET /healthz", handleHealth)
}

// handleForm renders the entry form. Changing the class re-submits the form
// here, so fees always start from the selected class baseline.
func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	ws := h.worksheet(values, false)

	f := form.FromValues(values)
	if values.Get(form.FieldBillType) == "" {
		f.BillType = string(h.opts.DefaultBillType)
	}
	f.Class = ws.Class()

	h.writeForm(w, http.StatusOK, f, ws, nil)
}

type documentWriter func(w http.ResponseWriter, doc *bill.Document) error

// handleDocument validates the posted snapshot, composes the bill and hands
// it to write. Invalid input re-renders the form with 422.
func (h *Handler) handleDocument(write documentWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		if err := r.ParseForm(); err != nil {
			slog.Warn("Failed to parse form", "path", r.URL.Path, "error", err)
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		ws := h.worksheet(r.PostForm, true)
		f := form.FromValues(r.PostForm)

		student, err := h.opts.Validator.Submit(f)
		if err != nil {
			var verr *form.ValidationError
			if !errors.As(err, &verr) {
				slog.Error("Form validation failed", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			slog.Info("Form rejected", "path", r.URL.Path, "fields", len(verr.Fields))
			h.writeForm(w, http.StatusUnprocessableEntity, f, ws, verr)
			return
		}

		doc, err := ws.Submit(student).Document(h.opts.Composer)
		if err != nil {
			slog.Error("Failed to compose bill", "error", err)
			http.Error(w, "failed to compose bill", http.StatusInternalServerError)
			return
		}

		if err := write(w, doc); err != nil {
			slog.Error("Failed to write bill", "path", r.URL.Path, "bill_number", doc.Number, "error", err)
			http.Error(w, "failed to render bill", http.StatusInternalServerError)
		}
	}
}

// worksheet rebuilds the session from a form snapshot: the class (in its
// canonical spelling), fee edits and copy count.
func (h *Handler) worksheet(values url.Values, applyFees bool) bill.Worksheet {
	class := values.Get(form.FieldClass)
	if class == "" {
		class = h.opts.Schedule.DefaultClass()
	}
	ws := bill.NewWorksheet(h.opts.Schedule, h.opts.Composer.Layout()).
		SelectClass(h.opts.Schedule.Canonical(class)).
		SetCopies(form.Copies(values))

	if !applyFees {
		return ws
	}
	for _, edit := range form.FeeEdits(values) {
		next, adj, err := ws.EditFee(edit.Name, edit.Raw)
		if err != nil {
			slog.Debug("Ignoring fee field", "field", form.FeePrefix+edit.Name, "error", err)
			continue
		}
		h.opts.Metrics.FeeAdjusted(string(adj.Component), string(adj.Clamp))
		ws = next
	}
	return ws
}

func (h *Handler) writeForm(w http.ResponseWriter, status int, f form.StudentForm, ws bill.Worksheet, verr *form.ValidationError) {
	view := render.NewFormView(
		h.opts.Institution,
		f,
		h.opts.Schedule.Classes(),
		h.opts.Composer.Layout().Supported(),
		ws.Copies(),
		ws.Fees(),
		ws.Baseline(),
	)
	if verr != nil {
		view.Errors = verr
		view.Notice = "Please correct the highlighted fields."
	}

	var buf bytes.Buffer
	if err := h.opts.Renderer.RenderForm(&buf, view); err != nil {
		slog.Error("Failed to render form", "error", err)
		http.Error(w, "failed to render form", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func (h *Handler) writePreview(w http.ResponseWriter, doc *bill.Document) error {
	defer h.opts.Metrics.ObserveRender("html", time.Now())
	var buf bytes.Buffer
	if err := h.opts.Renderer.RenderPreview(&buf, doc); err != nil {
		return err
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
	return nil
}

func (h *Handler) writePrint(w http.ResponseWriter, doc *bill.Document) error {
	defer h.opts.Metrics.ObserveRender("print", time.Now())
	var buf bytes.Buffer
	if err := h.opts.Renderer.RenderPrint(&buf, doc); err != nil {
		return err
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
	return nil
}

func (h *Handler) writeXLSX(w http.ResponseWriter, doc *bill.Document) error {
	defer h.opts.Metrics.ObserveRender("xlsx", time.Now())
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, doc); err != nil {
		return err
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(doc)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("Failed to send spreadsheet", "bill_number", doc.Number, "error", err)
	}
	return nil
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Warn("Failed to send response", "error", err)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}
