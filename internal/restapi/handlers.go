/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

package restapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cepengine/internal/models"
)

// eventRequest is the POST /v1/events body (spec.md §6): id/timestamp are
// server-assigned when absent.
type eventRequest struct {
	ID        string                 `json:"id"`
	Topic     string                 `json:"topic" binding:"required"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
	Source    string                 `json:"source"`
}

func (s *Server) handlePostEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	event := &models.Event{
		ID:        req.ID,
		Topic:     req.Topic,
		Data:      req.Data,
		Timestamp: req.Timestamp,
		Source:    req.Source,
	}
	if event.ID == "" {
		event.ID = models.GenerateID()
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	matches := s.eng.IngestEvent(event)
	ok(c, http.StatusAccepted, gin.H{"id": event.ID, "matches": matches})
}

func (s *Server) handlePostRule(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	rule, err := models.DecodeRule(body)
	if err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if rule.ID == "" {
		rule.ID = models.GenerateID()
	}

	if err := s.eng.RegisterRule(rule); err != nil {
		fail(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	ok(c, http.StatusCreated, gin.H{"id": rule.ID})
}

func (s *Server) handleDeleteRule(c *gin.Context) {
	id := c.Param("id")
	if !s.eng.UnregisterRule(id) {
		fail(c, http.StatusNotFound, codeNotFound, "rule not found: "+id)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetInstances(c *gin.Context) {
	ok(c, http.StatusOK, s.eng.GetActiveInstances())
}

func (s *Server) handleGetRuleInstances(c *gin.Context) {
	id := c.Param("id")
	ok(c, http.StatusOK, s.eng.GetInstancesForRule(id))
}

func (s *Server) handleGetTimers(c *gin.Context) {
	ok(c, http.StatusOK, s.eng.GetAllTimers())
}

func (s *Server) handleGetTimer(c *gin.Context) {
	name := c.Param("name")
	t, exists := s.eng.GetTimer(name)
	if !exists {
		fail(c, http.StatusNotFound, codeNotFound, "timer not found: "+name)
		return
	}
	ok(c, http.StatusOK, t)
}

func (s *Server) handleRecentMatches(c *gin.Context) {
	ok(c, http.StatusOK, s.eng.RecentMatches())
}
