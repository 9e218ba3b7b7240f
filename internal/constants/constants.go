package constants

// Centralized constants for env keys, routes and logging field names.
const (
	// Environment variable keys. The config override keys (ARENA_DB,
	// ARENA_ADDR, ARENA_ROSTER) live in the env struct tags in
	// internal/config, which is their single source of truth.
	EnvConfigPath = "ARENA_CONFIG"

	// HTTP headers and content types
	HeaderContentType = "Content-Type"
	ContentTypeJSON   = "application/json"
)

// Routes used by the operational HTTP surface.
const (
	RouteAPIPrefix      = "/api"
	RouteHealth         = "/healthz"
	RouteStats          = "/stats"
	RouteSessions       = "/sessions"
	RouteSessionCounts  = "/sessions/counts"
	RouteSessionCancel  = "/sessions/:sessionID/cancel"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyMessage = "message"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest      = "Invalid request"
	ErrInvalidSessionID    = "Invalid session ID"
	ErrSessionNotFound     = "Session not found"
	ErrFailedFetchSessions = "Failed to fetch sessions"
	ErrFailedFetchCounts   = "Failed to fetch session counts"
	ErrFailedCancelSession = "Failed to cancel session"
)

// Logging field names
const (
	LogFieldSessionID   = "session_id"
	LogFieldGuildID     = "guild_id"
	LogFieldChallenger  = "challenger_id"
	LogFieldOpponent    = "opponent_id"
	LogFieldParticipant = "participant_id"
	LogFieldTurn        = "turn"
	LogFieldStatus      = "status"
	LogFieldEndReason   = "end_reason"
	LogFieldAddr        = "addr"
)
