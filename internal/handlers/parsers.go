package handlers

import (
	"fmt"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/clients/classifier"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/services"
)

type ParserHandler struct {
	runner           services.ParserRunner
	classifierClient classifier.Client
}

func NewParserHandler(runner services.ParserRunner, classifierClient classifier.Client) *ParserHandler {
	return &ParserHandler{runner: runner, classifierClient: classifierClient}
}

func (ph *ParserHandler) Sources(c *gin.Context) {
	sources := ph.runner.Sources()
	sort.Strings(sources)
	RespondOK(c, gin.H{"sources": sources})
}

type runParserRequest struct {
	Source   string `json:"source" binding:"required"`
	BankSlug string `json:"bank_slug" binding:"required"`
	Pages    int    `json:"pages"`
	Classify bool   `json:"classify"`
}

func (ph *ParserHandler) Run(c *gin.Context) {
	var req runParserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}
	result, err := ph.runner.Run(c.Request.Context(), req.Source, req.BankSlug, req.Pages, req.Classify)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, result)
}

type classifyRequest struct {
	Data []classifier.Item `json:"data" binding:"required"`
}

func (ph *ParserHandler) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondAppError(c, fmt.Errorf("%w: %v", apperr.ErrBadRequest, err))
		return
	}
	predictions, err := ph.classifierClient.Predict(c.Request.Context(), req.Data)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	RespondOK(c, gin.H{"predictions": predictions})
}
