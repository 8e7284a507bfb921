package api

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/confidant-ai/confidant/internal/api/recovery"
	"github.com/confidant-ai/confidant/internal/llm"
	"github.com/confidant-ai/confidant/internal/services"
	"github.com/confidant-ai/confidant/internal/store"
	"github.com/confidant-ai/confidant/internal/timex"
	"github.com/confidant-ai/confidant/internal/vision"
)

// Deps carries the injected collaborators the router wires into services:
// the store, the timestamp normalizer, and the two model clients. Nothing
// here is a package-level global.
type Deps struct {
	Store      store.Store
	Normalizer *timex.Normalizer
	VisionLLM  llm.Model
	ChatLLM    llm.Model

	AssistMaxRounds     int
	ContextInsightCount int

	Log zerolog.Logger
}

// NewRouter builds the full HTTP surface.
func NewRouter(d Deps) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	locks := services.NewProfileLocks()
	profileSvc := services.NewProfileService(d.Store, locks, d.Log)
	timelineSvc := services.NewTimelineService(d.Store, d.Normalizer, locks, d.Log)
	eventSvc := services.NewEventService(d.ChatLLM, d.VisionLLM, d.Log)
	personaSvc := services.NewPersonaService(d.Store, d.ChatLLM, d.Normalizer, locks, d.Log)
	assistSvc := services.NewAssistService(d.Store, d.ChatLLM, d.Normalizer, d.AssistMaxRounds, d.ContextInsightCount, d.Log)
	parser := vision.NewParser(d.VisionLLM, d.Normalizer, d.Log)

	healthHandler := NewHealthHandler(d.Store)
	profileHandler := NewProfileHandler(profileSvc)
	importHandler := NewImportHandler(parser, timelineSvc)
	eventHandler := NewEventHandler(eventSvc, timelineSvc, profileSvc)
	personaHandler := NewPersonaHandler(personaSvc, timelineSvc)
	assistHandler := NewAssistHandler(assistSvc)

	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	router.HandleFunc("/api/profiles", profileHandler.CreateProfile).Methods("POST")
	router.HandleFunc("/api/profiles", profileHandler.ListProfiles).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}", profileHandler.GetProfile).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}", profileHandler.UpdateProfile).Methods("PATCH")

	router.HandleFunc("/api/profiles/{profileId}/screenshots", importHandler.UploadScreenshots).Methods("POST")
	router.HandleFunc("/api/profiles/{profileId}/messages", importHandler.AppendMessages).Methods("POST")
	router.HandleFunc("/api/profiles/{profileId}/events", eventHandler.AppendEvent).Methods("POST")

	router.HandleFunc("/api/profiles/{profileId}/daterange", personaHandler.GetDateRange).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}/timeline", personaHandler.GetTimeline).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}/insights", personaHandler.GetInsights).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}/analysis", personaHandler.RunAnalysis).Methods("POST")

	router.HandleFunc("/api/profiles/{profileId}/personas/user", personaHandler.GetUserPersona).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}/personas/user", personaHandler.PutUserPersona).Methods("PUT")
	router.HandleFunc("/api/profiles/{profileId}/personas/opponent", personaHandler.GetOpponentPersona).Methods("GET")
	router.HandleFunc("/api/profiles/{profileId}/personas/opponent", personaHandler.PutOpponentPersona).Methods("PUT")

	router.HandleFunc("/api/profiles/{profileId}/assist", assistHandler.Assist).Methods("POST")

	return router
}
