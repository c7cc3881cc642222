package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"estateflow/internal/model"
	"estateflow/internal/service"
)

const defaultHeartbeat = 15 * time.Second

// ChatHandler exposes the assistant over HTTP
type ChatHandler struct {
	assistant *service.Assistant
	heartbeat time.Duration
}

// NewChatHandler creates a new chat handler. A zero heartbeat uses the
// default keep-alive interval for the event stream.
func NewChatHandler(assistant *service.Assistant, heartbeat time.Duration) *ChatHandler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &ChatHandler{assistant: assistant, heartbeat: heartbeat}
}

// Get handles GET /api/v1/chat
func (h *ChatHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.assistant.Snapshot())
}

// Send handles POST /api/v1/chat/messages. It blocks until the assistant
// turn is recorded; a second message while one is in flight gets 409.
func (h *ChatHandler) Send(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	turn, err := h.assistant.Submit(detach(c), req.Message)
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must not be empty"})
		return
	case errors.Is(err, service.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Please wait for the current reply"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, turn)
}

// Open handles POST /api/v1/chat/open: the chat window was opened, so greet
// an empty transcript.
func (h *ChatHandler) Open(c *gin.Context) {
	greeted := h.assistant.Greet(detach(c))
	c.JSON(http.StatusOK, gin.H{
		"greeted": greeted,
		"chat":    h.assistant.Snapshot(),
	})
}

// Reset handles DELETE /api/v1/chat
func (h *ChatHandler) Reset(c *gin.Context) {
	if err := h.assistant.Reset(detach(c)); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Please wait for the current reply"})
		return
	}
	c.JSON(http.StatusOK, h.assistant.Snapshot())
}

// Events handles GET /api/v1/chat/events - SSE stream of the chat state.
// The current state is sent first, then every change until the client
// disconnects.
func (h *ChatHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	updates := make(chan model.ChatState, 16)
	unsubscribe := h.assistant.Subscribe(func(s model.ChatState) {
		select {
		case updates <- s:
		default:
		}
	})
	defer unsubscribe()

	c.Status(http.StatusOK)
	sendSSE(c, "state", h.assistant.Snapshot())
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-updates:
			sendSSE(c, "state", s)
			flusher.Flush()
		case <-ticker.C:
			sendSSE(c, "ping", nil)
			flusher.Flush()
		}
	}
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
			return
		}
		fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
	} else {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
	}
}
