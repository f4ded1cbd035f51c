package http

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/onnxify/pkg/domain/interfaces"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/domain/types"
)

//go:embed templates/*.html
var templateFS embed.FS

const genericErrorMessage = "An unexpected error occurred. Please try again later."

// pageData is the view model shared by all pages
type pageData struct {
	Stage      model.Stage
	ModelID    string
	ModelURL   string
	JobID      string
	Conversion *model.ConversionResult
	Error      string
}

// FormHandler serves the conversion form
type FormHandler struct {
	pipeline   interfaces.PipelineUseCase
	hubBaseURL string
	tmpl       *template.Template
}

// NewFormHandler creates a new FormHandler
func NewFormHandler(pipeline interfaces.PipelineUseCase, hubBaseURL string) (*FormHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse templates")
	}

	return &FormHandler{
		pipeline:   pipeline,
		hubBaseURL: strings.TrimRight(hubBaseURL, "/"),
		tmpl:       tmpl,
	}, nil
}

// Index renders the model ID input
func (h *FormHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "index", &pageData{Stage: model.StageAwaitingInput})
}

// Confirm renders the token input and the Proceed button for the entered model ID
func (h *FormHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	modelID := strings.TrimSpace(r.PostFormValue("model_id"))
	if modelID == "" {
		h.render(w, r, http.StatusOK, "index", &pageData{Stage: model.StageAwaitingInput})
		return
	}

	h.render(w, r, http.StatusOK, "confirm", &pageData{
		Stage:    model.StageAwaitingConfirmation,
		ModelID:  modelID,
		ModelURL: h.hubBaseURL + "/" + modelID,
	})
}

// Convert runs the conversion job synchronously and renders its outcome
func (h *FormHandler) Convert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	modelID := strings.TrimSpace(r.PostFormValue("model_id"))
	if modelID == "" {
		h.render(w, r, http.StatusOK, "index", &pageData{Stage: model.StageAwaitingInput})
		return
	}

	req := &model.ConversionRequest{
		ModelID:   types.ModelID(modelID),
		UserToken: types.Token(strings.TrimSpace(r.PostFormValue("hf_token"))),
	}

	job, err := h.pipeline.Run(ctx, req)

	data := &pageData{
		ModelID:  modelID,
		ModelURL: h.hubBaseURL + "/" + modelID,
	}
	if job != nil {
		data.Stage = job.Stage
		data.JobID = job.ID
		data.Conversion = job.Conversion
		if job.ModelURL != "" {
			data.ModelURL = job.ModelURL
		}
	}

	status := http.StatusOK
	if err != nil {
		msg, known := userMessage(err)
		if !known {
			logger.Error("Application error", "error", err, "model_id", modelID)
			sentry.CaptureException(err)
			status = http.StatusInternalServerError
		}
		data.Error = msg
		data.Stage = model.StageFailed
	}

	h.render(w, r, status, "result", data)
}

// userMessage maps an error to the text shown to the user. It reports false for
// errors outside of the known categories, which get a generic message.
func userMessage(err error) (string, bool) {
	switch {
	case goerr.HasTag(err, types.ErrTagConversion):
		return "Conversion failed: " + err.Error(), true
	case goerr.HasTag(err, types.ErrTagUpload):
		return "Upload failed: " + err.Error(), true
	case goerr.HasTag(err, types.ErrTagConfig):
		return "Configuration error: " + err.Error(), true
	case goerr.HasTag(err, types.ErrTagSetup):
		return "Setup failed: " + err.Error(), true
	default:
		return genericErrorMessage, false
	}
}

func (h *FormHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, name, data); err != nil {
		ctxlog.From(r.Context()).Error("Failed to render template", "template", name, "error", err)
	}
}
