package handlers

import (
	"io"
	"log"
	"net/http"
	"net/url"

	"quizboard/middleware"
	"quizboard/services"

	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	dispatcher *services.Dispatcher
}

func NewQuizHandler(dispatcher *services.Dispatcher) *QuizHandler {
	return &QuizHandler{
		dispatcher: dispatcher,
	}
}

// Handle maps a plain HTTP request onto the dispatcher and writes its response as-is.
func (h *QuizHandler) Handle(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			h.fail(c, err)
			return
		}
	}

	req := services.Request{
		HTTPMethod:            c.Request.Method,
		Body:                  string(body),
		QueryStringParameters: flattenQuery(c.Request.URL.Query()),
	}

	resp, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	writeResponse(c, resp)
}

// Invoke accepts a serverless-style event envelope and answers with the response envelope.
func (h *QuizHandler) Invoke(c *gin.Context) {
	var event services.Request
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.dispatcher.Dispatch(c.Request.Context(), event)
	if err != nil {
		log.Printf("Request %s failed: %v", middleware.GetRequestID(c), err)
		resp = services.InternalErrorResponse()
	}

	c.JSON(http.StatusOK, resp)
}

func (h *QuizHandler) fail(c *gin.Context, err error) {
	log.Printf("Request %s failed: %v", middleware.GetRequestID(c), err)
	writeResponse(c, services.InternalErrorResponse())
}

func writeResponse(c *gin.Context, resp services.Response) {
	for key, value := range resp.Headers {
		c.Header(key, value)
	}
	c.Status(resp.StatusCode)
	if resp.Body != "" {
		c.Writer.WriteString(resp.Body)
	}
}

func flattenQuery(values url.Values) map[string]string {
	if len(values) == 0 {
		return nil
	}
	params := make(map[string]string, len(values))
	for key := range values {
		params[key] = values.Get(key)
	}
	return params
}
