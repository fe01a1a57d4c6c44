package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Cheertaboi/chat-storefront-service/internal/chat"
)

// EventHandler is what inbound chat events are delivered to.
type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event) error
}

// EventRequest is the wire form of one chat event posted by the gateway.
type EventRequest struct {
	ID    string `json:"id,omitempty"`
	Type  string `json:"type"`
	Actor struct {
		ID        int64  `json:"id"`
		Username  string `json:"username,omitempty"`
		FirstName string `json:"first_name,omitempty"`
	} `json:"actor"`
	Action   string `json:"action,omitempty"`
	Text     string `json:"text,omitempty"`
	AssetRef string `json:"asset_ref,omitempty"`
	Command  string `json:"command,omitempty"`
}

// toEvent validates the request and decodes its action once, here.
func (req EventRequest) toEvent() (chat.Event, string) {
	if req.Actor.ID == 0 {
		return chat.Event{}, "actor.id required"
	}
	ev := chat.Event{
		ID: req.ID,
		Actor: chat.Actor{
			ID:        req.Actor.ID,
			Username:  strings.TrimPrefix(req.Actor.Username, "@"),
			FirstName: req.Actor.FirstName,
		},
	}

	switch req.Type {
	case "action":
		a, err := chat.ParseAction(req.Action)
		if err != nil {
			return chat.Event{}, err.Error()
		}
		ev.Kind, ev.Action = chat.EventAction, a
	case "text":
		ev.Kind, ev.Text = chat.EventText, req.Text
	case "media":
		if req.AssetRef == "" {
			return chat.Event{}, "asset_ref required"
		}
		ev.Kind, ev.AssetRef = chat.EventMedia, req.AssetRef
	case "command":
		ev.Kind, ev.Command = chat.EventCommand, strings.TrimPrefix(strings.ToLower(req.Command), "/")
	default:
		return chat.Event{}, "unknown event type " + req.Type
	}
	return ev, ""
}

type EventsHandler struct {
	events EventHandler
	logger *zap.Logger
}

func NewEventsHandler(events EventHandler, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{events: events, logger: logger}
}

// Post handles POST /events. It returns once the event has been processed.
func (h *EventsHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !decode(w, r, &req) {
		return
	}
	ev, problem := req.toEvent()
	if problem != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_event", "message": problem})
		return
	}

	if err := h.events.Handle(r.Context(), ev); err != nil {
		h.logger.Error("event failed", zap.Int64("user_id", ev.Actor.ID), zap.String("type", req.Type), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
