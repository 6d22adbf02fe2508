/*
This file is part of the AtomBPMN (R) project.
Copyright (c) 2025 Matreska Market LLC (ООО «Matreska Market»).
Authors: Matreska Team.

This project is dual-licensed under AGPL-3.0 and AtomBPMN Commercial License.
*/

// Package restapi is the thin Gin ingestion surface from spec.md §6
// ("external interfaces") / SPEC_FULL.md's restapi contract: submit
// events, register/unregister rules, and introspect matches/timers.
// Grounded on the teacher's restapi envelope conventions
// (src/core/restapi/models/responses.go, errors.go) — same
// {success, data, error, meta} shape — narrowed to the handful of
// routes the core engine actually needs.
package restapi

import (
	"time"

	"github.com/gin-gonic/gin"
)

// envelope is the standard API response shape (teacher's APIResponse).
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
	Meta    meta        `json:"meta"`
}

type meta struct {
	Timestamp time.Time `json:"timestamp"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data, Meta: meta{Timestamp: time.Now()}})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, envelope{Success: false, Error: &apiError{Code: code, Message: message}, Meta: meta{Timestamp: time.Now()}})
}

const (
	codeBadRequest = "BAD_REQUEST"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL_ERROR"
)
