package signal

import "github.com/dkeye/Assist/internal/domain"

// handlePing answers an application-level keepalive; websocket pings are
// handled in the pumps.
func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendJSON(conn, domain.Envelope{Type: domain.EventPong})
}
