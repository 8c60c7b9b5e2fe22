package routes

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/kabili207/device-dashboard/internal/web"
	"github.com/kabili207/device-dashboard/internal/web/components"
	"github.com/kabili207/device-dashboard/pkg/auth"
	"github.com/kabili207/device-dashboard/pkg/dashboard"
)

const (
	sessionName = "device_dashboard"
	pageTitle   = "Device Dashboard"

	sseEndpoint  = "/api/dashboard-sse"
	hostEndpoint = "/api/host"
)

type WebRouter struct {
	dashboard      *dashboard.Dashboard
	location       *time.Location
	sessionStore   *sessions.CookieStore
	ClientNotifier *ClientNotifier
}

// NewWebRouter creates the router for d. Motion times are rendered in loc.
// An empty sessionSecret gets a random one, so flashes do not survive a
// restart.
func NewWebRouter(d *dashboard.Dashboard, loc *time.Location, sessionSecret string) (*WebRouter, error) {
	if sessionSecret == "" {
		secret, err := auth.RandomHex(32)
		if err != nil {
			return nil, err
		}
		sessionSecret = secret
	}
	if loc == nil {
		loc = time.UTC
	}
	wr := &WebRouter{
		dashboard:      d,
		location:       loc,
		sessionStore:   sessions.NewCookieStore([]byte(sessionSecret)),
		ClientNotifier: NewClientNotifier(),
	}
	wr.sessionStore.Options.HttpOnly = true
	wr.sessionStore.Options.SameSite = http.SameSiteLaxMode
	d.State().OnChange(func(dashboard.Change) {
		wr.ClientNotifier.Notify()
	})
	return wr, nil
}

func (wr *WebRouter) getSession(r *http.Request) (*sessions.Session, error) {
	return wr.sessionStore.Get(r, sessionName)
}

// Handler builds the routing tree with its middleware.
func (wr *WebRouter) Handler() http.Handler {
	myRouter := mux.NewRouter().StrictSlash(true).UseEncodedPath()

	myRouter.HandleFunc("/", wr.homePage).Methods("GET")
	myRouter.HandleFunc("/api/state", wr.getState).Methods("GET")
	myRouter.HandleFunc("/api/dashboard-html", wr.dashboardHTML).Methods("GET")
	myRouter.HandleFunc(sseEndpoint, wr.dashboardSSE).Methods("GET")
	myRouter.HandleFunc(hostEndpoint, wr.setHost).Methods("POST")
	myRouter.HandleFunc("/api/devices/{board}/led", wr.toggleLED).Methods("POST")
	myRouter.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServerFS(web.StaticFS())))

	myRouter.Use(handlers.ProxyHeaders)
	myRouter.Use(RequestLogger)
	h := handlers.RecoveryHandler()

	return h(myRouter)
}

// ListenAndServe serves on listenAddr until ctx is cancelled.
func (wr *WebRouter) ListenAndServe(ctx context.Context, listenAddr string) error {
	server := &http.Server{
		Addr:              listenAddr,
		Handler:           wr.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}()

	slog.Info("starting web server", "addr", listenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func RequestLogger(h http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("endpoint hit", "method", r.Method, "path", r.URL.Path, "remote_host", r.RemoteAddr, "user_agent", r.UserAgent())
		// Call the next handler in the chain.
		h.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func (wr *WebRouter) dashboardData() components.DashboardData {
	return components.BuildDashboard(wr.dashboard.State().Snapshot(), wr.location)
}

func (wr *WebRouter) homePage(w http.ResponseWriter, r *http.Request) {
	pageData := components.DashboardPageData{
		PageTitle:    pageTitle,
		Dashboard:    wr.dashboardData(),
		Alerts:       wr.popAlerts(w, r),
		SSEEndpoint:  sseEndpoint,
		HostEndpoint: hostEndpoint,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.DashboardPage(pageData).Render(r.Context(), w); err != nil {
		slog.Error("error rendering dashboard page", "error", err)
		http.Error(w, "Error rendering page", 500)
	}
}

func (wr *WebRouter) dashboardHTML(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := components.DashboardContent(wr.dashboardData()).Render(r.Context(), w); err != nil {
		slog.Error("error rendering dashboard content", "error", err)
		http.Error(w, "Error rendering content", 500)
	}
}

func (wr *WebRouter) getState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, wr.dashboard.State().Snapshot())
}

type hostRequest struct {
	Host string `json:"host"`
}

func (wr *WebRouter) setHost(w http.ResponseWriter, r *http.Request) {
	var req hostRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		req.Host = r.FormValue("host")
	}

	err := wr.dashboard.SetHost(req.Host)
	if wantsJSON(r) {
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		host, _ := wr.dashboard.State().Host()
		writeJSON(w, http.StatusOK, hostRequest{Host: host})
		return
	}

	if err != nil {
		wr.addAlert(w, r, components.Alert{Type: "danger", Message: err.Error()})
	} else {
		wr.addAlert(w, r, components.Alert{Type: "success", Message: "Server host updated"})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (wr *WebRouter) toggleLED(w http.ResponseWriter, r *http.Request) {
	board, err := url.PathUnescape(mux.Vars(r)["board"])
	if err != nil {
		http.Error(w, "Invalid board", http.StatusBadRequest)
		return
	}

	// the board gets its answer recorded even if the browser goes away
	resp, err := wr.dashboard.Toggle(context.WithoutCancel(r.Context()), board)
	if errors.Is(err, dashboard.ErrUnknownDevice) {
		http.Error(w, "Device not found", http.StatusNotFound)
		return
	} else if err != nil {
		slog.Error("led toggle failed", "board", board, "error", err)
		http.Error(w, "Toggle failed", http.StatusInternalServerError)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (wr *WebRouter) addAlert(w http.ResponseWriter, r *http.Request, alert components.Alert) {
	session, _ := wr.getSession(r)
	session.AddFlash(alert.Type + ":" + alert.Message)
	if err := session.Save(r, w); err != nil {
		slog.Warn("failed to save session", "error", err)
	}
}

func (wr *WebRouter) popAlerts(w http.ResponseWriter, r *http.Request) []components.Alert {
	session, _ := wr.getSession(r)
	flashes := session.Flashes()
	if len(flashes) == 0 {
		return nil
	}
	if err := session.Save(r, w); err != nil {
		slog.Warn("failed to save session", "error", err)
	}

	alerts := make([]components.Alert, 0, len(flashes))
	for _, f := range flashes {
		s, ok := f.(string)
		if !ok {
			continue
		}
		kind, msg, found := strings.Cut(s, ":")
		if !found {
			kind, msg = "info", s
		}
		alerts = append(alerts, components.Alert{Type: kind, Message: msg})
	}
	return alerts
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func wantsJSON(r *http.Request) bool {
	return isJSON(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("error encoding response", "error", err)
	}
}
