package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/plume-im/plume/internal/api"
	"github.com/plume-im/plume/internal/logging"
	"github.com/plume-im/plume/internal/server/services"
)

type Server struct {
	users      *services.UserService
	handshakes *services.HandshakeService
	exchanges  *services.ExchangeService
	logger     logging.Logger
}

func NewServer(users *services.UserService, handshakes *services.HandshakeService,
	exchanges *services.ExchangeService, logger logging.Logger) *Server {
	return &Server{users: users, handshakes: handshakes, exchanges: exchanges, logger: logger}
}

// Router builds the HTTP routing table. Federation routes and the public-key
// lookup are unauthenticated; everything else requires a session.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	// users
	r.HandleFunc(api.RouteRegister, s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc(api.RouteLoginInfo, s.handleLoginInfo).Methods(http.MethodPost)
	r.HandleFunc(api.RouteLogin, s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc(api.RouteLogout, s.requireAuth(s.handleLogout)).Methods(http.MethodPost)

	// handshake, client side
	r.HandleFunc(api.RouteGenerateCode, s.requireAuth(s.handleGenerateCode)).Methods(http.MethodPost)
	r.HandleFunc(api.RoutePublicKeyPrefix+"{code}", s.handleGetPublicKey).Methods(http.MethodGet)
	r.HandleFunc(api.RouteCreateAnswered, s.requireAuth(s.handleCreateAnswered)).Methods(http.MethodPost)
	r.HandleFunc(api.RoutePendingFilled, s.requireAuth(s.handlePendingFilled)).Methods(http.MethodGet)
	r.HandleFunc(api.RouteAnswerFilled, s.requireAuth(s.handleAnswerFilled)).Methods(http.MethodPost)
	r.HandleFunc(api.RoutePendingFullyFilled, s.requireAuth(s.handlePendingFullyFilled)).Methods(http.MethodGet)
	r.HandleFunc(api.RouteMarkAccepted, s.requireAuth(s.handleMarkAccepted)).Methods(http.MethodPost)

	// handshake, server-to-server side
	r.HandleFunc(api.RouteFillInfos, s.handleFillInfos).Methods(http.MethodPost)
	r.HandleFunc(api.RouteFilledRequestAnswer, s.handleFilledRequestAnswer).Methods(http.MethodPost)
	r.HandleFunc(api.RouteFullyAccept, s.handleFullyAccept).Methods(http.MethodPost)
	r.HandleFunc(api.RouteReceiveMessage, s.handleReceiveMessage).Methods(http.MethodPost)

	// correspondents & exchanges
	r.HandleFunc(api.RouteCorrespondents, s.requireAuth(s.handleCorrespondents)).Methods(http.MethodGet)
	r.HandleFunc(api.RouteSendMessage, s.requireAuth(s.handleSendMessage)).Methods(http.MethodPost)
	r.HandleFunc(api.RouteMessages, s.requireAuth(s.handleMessages)).Methods(http.MethodGet)

	return s.withAuth(r)
}
