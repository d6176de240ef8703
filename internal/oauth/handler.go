package oauth

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/nawneet77/ghl/pkg/logging"
)

//go:embed templates/index.html
var indexHTML string

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	indexTmpl   = template.Must(template.New("index").Parse(indexHTML))
	successTmpl = template.Must(template.New("success").Parse(callbackSuccessHTML))
	errorTmpl   = template.Must(template.New("error").Parse(callbackErrorHTML))
)

// Handler serves the interactive authorization flow: a landing page with
// the provider's authorization link and the callback endpoint that
// receives the authorization code.
//
// It is a boundary component: all token logic lives in the Service.
type Handler struct {
	service *Service
	states  *StateStore
}

// NewHandler creates the authorization flow handler.
func NewHandler(service *Service, states *StateStore) *Handler {
	return &Handler{service: service, states: states}
}

// Routes registers the handler's endpoints on the given mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.handleIndex)
	mux.HandleFunc("/oauth/callback", h.handleCallback)
}

// handleIndex renders a page linking to the hosted authorization page.
// Each render issues a fresh single-use state value.
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	state, err := h.states.Generate()
	if err != nil {
		logging.Error("OAuth", err, "Failed to generate authorization state")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	setSecurityHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := map[string]string{"AuthURL": h.service.AuthCodeURL(state)}
	if err := indexTmpl.Execute(w, data); err != nil {
		logging.Error("OAuth", err, "Failed to render authorization page")
	}
}

// handleCallback receives the authorization code, validates the CSRF
// state, performs the exchange and reports the outcome to the user.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	setSecurityHeaders(w)

	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		logging.Warn("OAuth", "Authorization denied by provider: %s", errCode)
		h.renderError(w, http.StatusBadRequest, "The provider denied the authorization request.",
			errCode+": "+query.Get("error_description"))
		return
	}

	if !h.states.Validate(query.Get("state")) {
		h.renderError(w, http.StatusForbidden, "Invalid or expired state parameter.",
			"Start the flow again from the authorization page.")
		return
	}

	code := query.Get("code")
	if code == "" {
		h.renderError(w, http.StatusBadRequest, "Missing authorization code in callback.", "")
		return
	}

	if _, err := h.service.ExchangeAuthorizationCode(r.Context(), code); err != nil {
		logging.Error("OAuth", err, "Authorization code exchange failed")
		h.renderError(w, http.StatusBadGateway, "Token exchange failed.", err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := successTmpl.Execute(w, nil); err != nil {
		logging.Error("OAuth", err, "Failed to render success page")
	}
}

func (h *Handler) renderError(w http.ResponseWriter, status int, msg, detail string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := map[string]string{"Error": msg, "Description": detail}
	if err := errorTmpl.Execute(w, data); err != nil {
		logging.Error("OAuth", err, "Failed to render error page")
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")
}
