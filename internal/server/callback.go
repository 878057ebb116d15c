package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/arcana/internal/auth"
	"github.com/desertthunder/arcana/internal/shared"
)

// Callbacks completes a login from the callback address. [auth.Orchestrator] implements it.
type Callbacks interface {
	Callback(ctx context.Context, loc auth.Location) (string, error)
}

// LoginStarter prepares an authorize URL. [auth.Orchestrator] implements it.
type LoginStarter interface {
	PrepareLogin() (string, error)
}

// CallbackResult is the outcome of one callback request.
type CallbackResult struct {
	Token string
	Err   error
}

// CallbackHandler owns /callback and hands each callback address to the orchestrator.
//
// Fragments never reach the server, so a bare /callback serves a page that re-requests itself with
// ?fragment=<fragment>. The handler rebuilds the address from that parameter.
type CallbackHandler struct {
	callbacks Callbacks
	logger    *log.Logger

	mu      sync.Mutex
	results chan CallbackResult
}

// NewCallbackHandler creates a handler that reports outcomes on [CallbackHandler.Result].
func NewCallbackHandler(callbacks Callbacks, logger *log.Logger) *CallbackHandler {
	return &CallbackHandler{
		callbacks: callbacks,
		logger:    shared.WithPrefix(logger, "callback"),
		results:   make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET /callback"}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u := *r.URL
	query := u.Query()

	if len(query) == 0 {
		render(w, http.StatusOK, shimPage, nil)
		return
	}

	if fragment := query.Get("fragment"); fragment != "" {
		query.Del("fragment")
		u.RawQuery = query.Encode()
		u.Fragment = fragment
	}

	loc := auth.LocationFromURL(&u)
	token, err := h.callbacks.Callback(r.Context(), loc)
	if err == nil && token == "" {
		err = fmt.Errorf("%w: no authorization response in callback", shared.ErrInvalidInput)
	}
	h.Send(CallbackResult{Token: token, Err: err})

	page := resultView{}
	if loc.Replaced() {
		page.Cleaned = loc.URL().String()
	}
	status := http.StatusOK
	if err != nil {
		h.logger.Warn("callback did not log in", "req_id", RequestID(r.Context()), "error", err)
		page.Failed = true
		page.Message = shared.UserMessage(err)
		status = http.StatusBadRequest
	}
	render(w, status, resultPage, page)
}

// Send reports a result without blocking. Results nobody has received yet are replaced.
func (h *CallbackHandler) Send(result CallbackResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.results:
	default:
	}
	h.results <- result
}

// Result returns the channel that receives each callback outcome.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

// LoginHandler redirects GET /login to a fresh authorize URL.
type LoginHandler struct {
	login  LoginStarter
	logger *log.Logger
}

// NewLoginHandler creates the /login redirect.
func NewLoginHandler(login LoginStarter, logger *log.Logger) *LoginHandler {
	return &LoginHandler{login: login, logger: shared.WithPrefix(logger, "login")}
}

func (h *LoginHandler) Routes() []string {
	return []string{"GET /login"}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, err := h.login.PrepareLogin()
	if err != nil {
		h.logger.Error("cannot start login", "error", err)
		render(w, http.StatusInternalServerError, resultPage, resultView{Failed: true, Message: shared.UserMessage(err)})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

type resultView struct {
	Failed  bool
	Message string
	Cleaned string
}

func render(w http.ResponseWriter, status int, t *template.Template, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = t.Execute(w, data)
}

// cleanedPath keeps only the path of a stripped callback address for history.replaceState.
func cleanedPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

const pageStyle = `
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #14101f; }
        .container { text-align: center; background: #231b36; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        h1.failed { color: #e0607e; }
        p { color: #c9c2d9; margin: 0; }
    </style>`

var shimPage = template.Must(template.New("shim").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Arcana</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        <h1>Reading the cards…</h1>
        <p id="status">Finishing login.</p>
    </div>
    <script>
        if (window.location.hash.length > 1) {
            window.location.replace("/callback?fragment=" + encodeURIComponent(window.location.hash.slice(1)));
        } else {
            document.getElementById("status").textContent = "Nothing to do here. Return to the terminal.";
        }
    </script>
</body>
</html>
`))

var resultPage = template.Must(template.New("result").Funcs(template.FuncMap{"path": cleanedPath}).Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Arcana</title>` + pageStyle + `
</head>
<body>
    <div class="container">
        {{if .Failed}}
        <h1 class="failed">✗ Login failed</h1>
        <p>{{.Message}}</p>
        {{else}}
        <h1>✓ Authorization Successful</h1>
        <p>You can close this window and return to the terminal.</p>
        {{end}}
    </div>
    {{if .Cleaned}}<script>window.history.replaceState(null, "", {{path .Cleaned}});</script>{{end}}
</body>
</html>
`))
