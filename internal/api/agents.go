package api

import "net/http"

func (s *Server) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	agents := s.registry.List()
	s.writeJSON(w, http.StatusOK, agents)
}
