package api

import (
	"log"

	"golang.org/x/net/websocket"
)

// handleStream pushes every status change to the socket until the run ends.
// A client connecting while no run is active gets the current status only.
func (s *Server) handleStream(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	updates, release := s.runner.Subscribe()
	defer release()

	for st := range updates {
		if err := websocket.JSON.Send(conn, st); err != nil {
			log.Printf("stream send failed err=%v", err)
			return
		}
		if st.Status != StateRunning {
			return
		}
	}
}
