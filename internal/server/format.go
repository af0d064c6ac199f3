package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
)

// ChangedHeader reports whether formatting changed the posted document.
const ChangedHeader = "X-Htmlfmt-Changed"

// formatHandler formats the HTML document in a POST body. Options come from
// the query string; without any the handler resolves them for the "path"
// parameter, which only counts when it lies under a watched path.
type formatHandler struct {
	handler  ipc.Handler
	roots    []string
	maxBody  int64
	debugLog func(format string, args ...any)
}

// ServeHTTP implements http.Handler for POST /format.
func (h *formatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.debugLog("%s %s", r.Method, r.URL.Path)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, fmt.Sprintf("document larger than %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	opts, err := optionsFromQuery(query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := format(h.handler, ipc.FormatParams{
		HTML:    string(body),
		Path:    clientPath(h.roots, query.Get("path")),
		Options: opts,
	})
	if err != nil {
		h.debugLog("422 %v", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(ChangedHeader, strconv.FormatBool(data.Changed))
	io.WriteString(w, data.HTML)

	h.debugLog("200 OK: %d -> %d bytes (%v)", len(body), len(data.HTML), time.Since(start))
}

// format sends one format request through handler.
func format(handler ipc.Handler, params ipc.FormatParams) (ipc.FormatData, error) {
	return ipc.Call[ipc.FormatData](handler.Send, ipc.CmdFormat, params)
}

// watchRoots returns the absolute form of each watch path.
func watchRoots(paths []string) []string {
	var roots []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		roots = append(roots, abs)
	}
	return roots
}

// clientPath returns the client-supplied path p when it is absolute and
// lies under one of roots, and "" otherwise. Config discovery never leaves
// the trees the server was asked to watch.
func clientPath(roots []string, p string) string {
	if p == "" || !filepath.IsAbs(p) {
		return ""
	}
	p = filepath.Clean(p)
	for _, root := range roots {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return p
		}
	}
	return ""
}

// optionsFromQuery reads formatting options from query parameters. It
// returns nil when none are present; otherwise the named options are set
// on top of the defaults.
func optionsFromQuery(q url.Values) (*htmlformat.Options, error) {
	opts := htmlformat.DefaultOptions()
	found := false

	ints := []struct {
		key string
		dst *int
	}{
		{"indent", &opts.Indent},
		{"spacesPerTab", &opts.SpacesPerTab},
	}
	for _, p := range ints {
		if !q.Has(p.key) {
			continue
		}
		n, err := strconv.Atoi(q.Get(p.key))
		if err != nil {
			return nil, fmt.Errorf("%s: expected an integer, got %q", p.key, q.Get(p.key))
		}
		*p.dst = n
		found = true
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"tabs", &opts.Tabs},
		{"formatting", &opts.Formatting},
		{"comments", &opts.Comments},
		{"styles", &opts.Styles},
	}
	for _, p := range bools {
		if !q.Has(p.key) {
			continue
		}
		v := q.Get(p.key)
		b := true // Bare "?tabs" turns the option on
		if v != "" {
			var err error
			if b, err = strconv.ParseBool(v); err != nil {
				return nil, fmt.Errorf("%s: expected true or false, got %q", p.key, v)
			}
		}
		*p.dst = b
		found = true
	}

	if !found {
		return nil, nil
	}
	return &opts, nil
}

// handleStatus reports the formatter's status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := s.config.Handler(ipc.Request{Cmd: ipc.CmdStatus})
	w.Header().Set("Content-Type", "application/json")
	if !resp.OK {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(resp)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok\n")
}
