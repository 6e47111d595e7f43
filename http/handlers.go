package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"houseprice/form"
	"houseprice/ml"
	"houseprice/predict"
)

const modelLoadFailedMessage = "❌ Model could not be loaded. Please check the model file and restart."

// Handlers serves the prediction page and JSON API. The trigger carries the
// model handle; loadErr is the loader outcome shown on every page render.
type Handlers struct {
	page    PageConfig
	trigger *predict.Trigger
	loadErr error
	logger  *zap.Logger
}

// NewHandlers 创建处理器
func NewHandlers(page PageConfig, trigger *predict.Trigger, loadErr error, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{page: page, trigger: trigger, loadErr: loadErr, logger: logger}
}

// Register 注册路由
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /predict", h.handlePredictForm)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /api/fields", h.handleFields)
	mux.HandleFunc("POST /api/predict", h.handlePredictJSON)
}

func (h *Handlers) notice() string {
	switch {
	case h.loadErr == nil:
		return ""
	case errors.Is(h.loadErr, ml.ErrMissingArtifact):
		return predict.MissingArtifactMessage
	default:
		return modelLoadFailedMessage
	}
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	vm := form.NewViewModel()
	h.render(w, r, pageData{Page: h.page, Inputs: vm.Inputs(), Notice: h.notice()})
}

func (h *Handlers) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	vm := form.NewViewModel()
	var inputErrors []string
	for _, f := range form.Fields() {
		raw := r.PostForm.Get(f.Name)
		if raw == "" {
			continue
		}
		if _, err := vm.SetRaw(f.Name, raw); err != nil {
			inputErrors = append(inputErrors, f.Label+": not a number, using "+f.Format(currentValue(vm, f.Name)))
		}
	}

	result := h.trigger.Fire(r.Context(), vm)
	h.render(w, r, pageData{
		Page:        h.page,
		Inputs:      vm.Inputs(),
		Notice:      h.notice(),
		InputErrors: inputErrors,
		Result:      &result,
	})
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, data pageData) {
	var buf bytes.Buffer
	if err := renderPage(&buf, data); err != nil {
		h.logger.Error("render page", zap.String("request_id", GetRequestID(r.Context())), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": h.trigger.Ready(),
	})
}

type fieldResponse struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    string   `json:"kind"`
	Min     float64  `json:"min"`
	Max     *float64 `json:"max"`
	Step    float64  `json:"step"`
	Default float64  `json:"default"`
}

func (h *Handlers) handleFields(w http.ResponseWriter, r *http.Request) {
	fields := form.Fields()
	out := make([]fieldResponse, 0, len(fields))
	for _, f := range fields {
		resp := fieldResponse{
			Name:    f.Name,
			Label:   f.Label,
			Kind:    string(f.Kind),
			Min:     f.Min,
			Step:    f.Step,
			Default: f.Default,
		}
		if f.Bounded() {
			upper := f.Max
			resp.Max = &upper
		}
		out = append(out, resp)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"fields": out})
}

type predictResponse struct {
	Price    float64            `json:"price"`
	Display  string             `json:"display"`
	Features map[string]float64 `json:"features"`
}

func (h *Handlers) handlePredictJSON(w http.ResponseWriter, r *http.Request) {
	var body map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "request body must be a JSON object of numbers")
		return
	}

	vm := form.NewViewModel()
	for name, v := range body {
		if _, err := vm.Set(name, v); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_field", err.Error())
			return
		}
	}

	result := h.trigger.Fire(r.Context(), vm)
	switch {
	case result.OK():
		respondJSON(w, http.StatusOK, predictResponse{
			Price:    result.Price,
			Display:  result.Display,
			Features: vm.Values(),
		})
	case errors.Is(result.Err, predict.ErrModelUnavailable):
		respondError(w, http.StatusServiceUnavailable, "model_unavailable", result.Message())
	default:
		respondError(w, http.StatusInternalServerError, "inference_failed", result.Message())
	}
}

func currentValue(vm *form.ViewModel, name string) float64 {
	v, _ := vm.Get(name)
	return v
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}
