package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
	"github.com/grantcarthew/htmlfmt/internal/remote"
)

// handleWS upgrades the connection and answers format requests until the
// client goes away or the server stops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsWG.Add(1)
	defer s.wsWG.Done()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.debugLog("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(remote.MaxMessageBytes)

	ctx := s.sessionContext(r)
	s.debugLog("WebSocket session opened: %s", r.RemoteAddr)
	err = serveSession(ctx, conn, s.config.Handler, s.roots)
	s.debugLog("WebSocket session closed: %s (%v)", r.RemoteAddr, err)

	if ctx.Err() != nil {
		conn.Close(websocket.StatusGoingAway, "server stopping")
	}
}

// sessionContext returns the context WebSocket sessions run under. It is
// cancelled by Stop; when the routes are served without Start, sessions
// follow the request instead.
func (s *Server) sessionContext(r *http.Request) context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.wsCtx == nil {
		return r.Context()
	}
	return s.wsCtx
}

// serveSession reads requests from conn and writes one response for each,
// in order. Request paths outside roots are ignored. It returns nil when the
// client closes normally.
func serveSession(ctx context.Context, conn remote.Conn, handler ipc.Handler, roots []string) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			return err
		}

		var resp remote.Response
		if typ != websocket.MessageText {
			resp.Error = &remote.Error{Code: remote.CodeInvalidRequest, Message: "expected a text message"}
		} else {
			resp = answer(handler, roots, data)
		}

		out, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		if err := conn.Write(ctx, websocket.MessageText, out); err != nil {
			return err
		}
	}
}

// answer formats the document in one request message.
func answer(handler ipc.Handler, roots []string, data []byte) remote.Response {
	req, err := remote.ParseRequest(data)
	if err != nil {
		return remote.Response{Error: &remote.Error{Code: remote.CodeInvalidRequest, Message: err.Error()}}
	}

	out, err := format(handler, ipc.FormatParams{
		HTML:    req.HTML,
		Path:    clientPath(roots, req.Path),
		Options: req.Options,
	})
	if err != nil {
		return remote.Response{ID: req.ID, Error: &remote.Error{Code: remote.CodeFormatFailed, Message: err.Error()}}
	}
	return remote.Response{ID: req.ID, HTML: out.HTML, Changed: out.Changed}
}
