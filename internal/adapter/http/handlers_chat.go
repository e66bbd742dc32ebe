package http

import (
	"net/http"
)

// SendChatMessage handles POST /api/v1/organizations/{id}/channels/{channelID}/chat
func (h *Handlers) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	channelID := urlParam(r, "channelID")
	req, ok := readJSON[struct {
		SenderID   string `json:"senderId"`
		SenderName string `json:"senderName"`
		Content    string `json:"content"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Content, "content") {
		return
	}
	if req.SenderName == "" {
		req.SenderName = "You"
	}

	result, err := h.Chat.SendMessage(r.Context(), id, channelID, req.SenderID, req.SenderName, req.Content)
	if err != nil {
		writeDomainError(w, err, "channel not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SuggestChannels handles POST /api/v1/organizations/{id}/channel-suggestions
func (h *Handlers) SuggestChannels(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	req, ok := readJSON[struct {
		Need string `json:"need"`
	}](w, r)
	if !ok {
		return
	}
	if !requireField(w, req.Need, "need") {
		return
	}

	suggestions, err := h.Chat.SuggestChannels(r.Context(), id, req.Need)
	if err != nil {
		writeDomainError(w, err, "organization not found")
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}
