package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/geoparty/internal/profile"
	"github.com/playperu/geoparty/internal/session"
)

type sessionPath struct {
	ID string `path:"id"`
}

type eloQuery struct {
	Username string `query:"username" required:"true"`
}

type operation struct {
	method, path string
	summary      string
	description  string
	req          any
	resp         any
	respStatus   int
	contentType  string
	errors       []int
}

var operations = []operation{
	{
		method: http.MethodPost, path: "/api/sessions",
		summary:     "Create session",
		description: "Creates a waiting session from a list of rounds. The modify secret is returned once and is required to start the session.",
		req:         session.CreateRequest{}, resp: session.Created{}, respStatus: http.StatusCreated,
		errors: []int{http.StatusBadRequest},
	},
	{
		method: http.MethodPost, path: "/api/sessions/join",
		summary:     "Join session",
		description: "Adds a player to a waiting session. Names are unique within a session.",
		req:         JoinRequest{}, resp: session.Joined{}, respStatus: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/leave",
		summary:     "Leave session",
		description: "Removes a player. Requires the player's own secret.",
		req:         LeaveRequest{}, resp: OKResponse{}, respStatus: http.StatusOK,
		errors: []int{http.StatusForbidden, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/sessions/start",
		summary:     "Start session",
		description: "Stamps the round schedule. Requires the modify secret and at least two players.",
		req:         StartRequest{}, resp: StartResponse{}, respStatus: http.StatusOK,
		errors: []int{http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/guess",
		summary:     "Submit guess",
		description: "Scores and records a guess for one round. Each round accepts one guess per player.",
		req:         session.GuessRequest{}, resp: GuessResponse{}, respStatus: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/sessions/state",
		summary:     "Session state",
		description: "Returns the session with secrets removed.",
		req:         SessionRequest{}, resp: session.View{}, respStatus: http.StatusOK,
		errors: []int{http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/sessions/finish",
		summary:     "Finish session",
		description: "Closes a session whose schedule has ended or whose players have all guessed every round.",
		req:         SessionRequest{}, resp: FinishResponse{}, respStatus: http.StatusOK,
		errors: []int{http.StatusNotFound, http.StatusConflict},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{id}", req: sessionPath{},
		summary: "Session state", resp: session.View{}, respStatus: http.StatusOK,
		errors: []int{http.StatusNotFound},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{id}/events", req: sessionPath{},
		summary:     "Session event stream",
		description: "Server-Sent Events announcing joins, starts, guesses and finishes.",
		respStatus:  http.StatusOK, contentType: "text/event-stream",
		errors: []int{http.StatusNotFound},
	},
	{
		method: http.MethodGet, path: "/api/sessions/{id}/qr.png", req: sessionPath{},
		summary:    "Join QR code",
		respStatus: http.StatusOK, contentType: "image/png",
		errors: []int{http.StatusNotFound},
	},
	{
		method: http.MethodGet, path: "/ws/sessions/{id}", req: sessionPath{},
		summary:     "Session event websocket",
		description: "Upgrades to a WebSocket carrying the same events as the SSE stream.",
		respStatus:  http.StatusSwitchingProtocols, contentType: "application/json",
	},
	{
		method: http.MethodGet, path: "/api/countries",
		summary: "Country extents", resp: CountriesResponse{}, respStatus: http.StatusOK,
	},
	{
		method: http.MethodPost, path: "/api/users",
		summary: "Create account", req: CreateUserRequest{}, resp: profile.User{}, respStatus: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusConflict},
	},
	{
		method: http.MethodGet, path: "/api/elo", req: eloQuery{},
		summary: "Account rating", resp: profile.Rank{}, respStatus: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusNotFound},
	},
	{
		method: http.MethodPost, path: "/api/rounds",
		summary:     "Standalone round",
		description: "Scores a single-player round and credits experience to the account. Rate limited per IP.",
		req:         profile.StandaloneRound{}, resp: RoundResponse{}, respStatus: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusTooManyRequests},
	},
	{
		method: http.MethodGet, path: "/healthz",
		summary: "Health check", respStatus: http.StatusOK, contentType: "application/json",
		errors: []int{http.StatusServiceUnavailable},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoParty API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Multiplayer geography guessing sessions.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		if op.description != "" {
			oc.SetDescription(op.description)
		}
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}

		var opts []openapi.ContentOption
		opts = append(opts, openapi.WithHTTPStatus(op.respStatus))
		if op.contentType != "" {
			opts = append(opts, openapi.WithContentType(op.contentType))
		}
		oc.AddRespStructure(op.resp, opts...)

		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}
	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	data, _ := json.MarshalIndent(newOpenAPISpec(), "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
