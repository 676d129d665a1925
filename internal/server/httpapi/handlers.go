package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/common"
	"github.com/plume-im/plume/internal/server/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	if err := s.users.Register(r.Context(), &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleLoginInfo(w http.ResponseWriter, r *http.Request) {
	var req api.LoginInfoRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	resp, err := s.users.GetLoginInfo(r.Context(), &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	resp, err := s.users.Login(r.Context(), &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, session *models.Session) {
	if err := s.users.Logout(r.Context(), session); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleGenerateCode(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var req api.GenerateCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	resp, err := s.handshakes.GenerateCode(r.Context(), session, &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetPublicKey(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	resp, err := s.handshakes.GetPublicKey(r.Context(), code)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateAnswered(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var req api.CreateAnsweredRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	if err := s.handshakes.CreateAnswered(r.Context(), session, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handlePendingFilled(w http.ResponseWriter, r *http.Request, session *models.Session) {
	resp, err := s.handshakes.PendingFilledRequests(r.Context(), session)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnswerFilled(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var req api.AnswerFilledRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	if err := s.handshakes.AnswerFilledRequest(r.Context(), session, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handlePendingFullyFilled(w http.ResponseWriter, r *http.Request, session *models.Session) {
	resp, err := s.handshakes.PendingFullyFilledRequests(r.Context(), session)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkAccepted(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var req api.MarkAcceptedRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	if err := s.handshakes.MarkAcceptedRequest(r.Context(), session, &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleFillInfos(w http.ResponseWriter, r *http.Request) {
	var req api.FillInfosRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	if err := s.handshakes.FillInfos(r.Context(), &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleFilledRequestAnswer(w http.ResponseWriter, r *http.Request) {
	var req api.FilledRequestAnswer
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	if err := s.handshakes.ReceiveFilledRequestAnswer(r.Context(), &req); err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, nil)
}

func (s *Server) handleFullyAccept(w http.ResponseWriter, r *http.Request) {
	var req api.FullyAcceptRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	resp, err := s.handshakes.FullyAcceptRequest(r.Context(), &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReceiveMessage(w http.ResponseWriter, r *http.Request) {
	var req api.ReceiveMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	resp, err := s.exchanges.ReceiveMessage(r.Context(), &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCorrespondents(w http.ResponseWriter, r *http.Request, session *models.Session) {
	resp, err := s.exchanges.ListCorrespondents(r.Context(), session)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request, session *models.Session) {
	var req api.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(r.Context(), w, common.ErrorInvalidInput)
		return
	}

	resp, err := s.exchanges.SendMessage(r.Context(), session, &req)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request, session *models.Session) {
	resp, err := s.exchanges.ListMessages(r.Context(), session)
	if err != nil {
		s.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
