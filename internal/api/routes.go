package api

// Route paths, shared by the server router, the federation client and the
// client SDK. Federation routes are the public server-to-server surface;
// everything else is client-to-home-server.
const (
	RouteRegister  = "/api/users/register"
	RouteLoginInfo = "/api/users/login-info"
	RouteLogin     = "/api/users/login"
	RouteLogout    = "/api/users/logout"

	RouteGenerateCode       = "/api/correspondence/generate-code"
	RoutePublicKeyPrefix    = "/api/correspondence/public-key/"
	RouteCreateAnswered     = "/api/correspondence/answered"
	RoutePendingFilled      = "/api/correspondence/pending-filled"
	RouteAnswerFilled       = "/api/correspondence/answer-filled"
	RoutePendingFullyFilled = "/api/correspondence/pending-fully-filled"
	RouteMarkAccepted       = "/api/correspondence/mark-accepted"

	RouteFillInfos           = "/api/federation/fill-infos"
	RouteFilledRequestAnswer = "/api/federation/filled-request-answer"
	RouteFullyAccept         = "/api/federation/fully-accept"
	RouteReceiveMessage      = "/api/federation/receive-message"

	RouteCorrespondents = "/api/correspondents"
	RouteSendMessage    = "/api/messages/send"
	RouteMessages       = "/api/messages"
)
