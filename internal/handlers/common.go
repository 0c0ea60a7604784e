// common.go
//
// Block release service: versioned blocks, approval gating and per-environment publication
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of blockrelease.
// blockrelease is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// blockrelease is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with blockrelease.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/blockrelease/internal/middleware"
	"github.com/localnerve/blockrelease/internal/release"
	"github.com/localnerve/blockrelease/internal/store"
	"github.com/localnerve/blockrelease/internal/types"
	"github.com/localnerve/blockrelease/internal/utils"
)

// ErrorHandler renders every error returned from a route as the standard
// error body.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var custom *types.CustomError
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &custom):
		code = custom.Code
		message = custom.Message
		errorType = custom.Type
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
		errorType = "http"
	}

	if code >= fiber.StatusInternalServerError {
		log.Printf("%s %s failed: %v", c.Method(), c.OriginalURL(), err)
	}
	return utils.ErrorResponse(c, message, code, errorType)
}

// failure converts a service error into a CustomError whose status follows
// the error kind. op names the failing operation in the error type.
func failure(err error, op string) error {
	code := fiber.StatusInternalServerError
	kind := release.KindOf(err)
	switch kind {
	case release.KindNotFound:
		code = fiber.StatusNotFound
	case release.KindValidation:
		code = fiber.StatusBadRequest
	case release.KindConflict:
		code = fiber.StatusConflict
	case release.KindInvalidState:
		code = fiber.StatusUnprocessableEntity
	}

	message := err.Error()
	var re *release.Error
	if errors.As(err, &re) {
		message = re.Message
	}
	return &types.CustomError{Code: code, Message: message, Type: op + "." + kind.String(), Err: err}
}

// invalidInput is returned when a body or query cannot be parsed.
func invalidInput(op string, err error) error {
	return &types.CustomError{
		Code:    fiber.StatusBadRequest,
		Message: "Invalid input: " + err.Error(),
		Type:    op + ".validation",
		Err:     err,
	}
}

// parsePage reads page and pageSize; Normalize applies defaults and bounds.
func parsePage(c *fiber.Ctx) store.Page {
	return store.Page{
		Page:     c.QueryInt("page", store.DefaultPage),
		PageSize: c.QueryInt("pageSize", store.DefaultPageSize),
	}.Normalize()
}

func query(c *fiber.Ctx, key string) string {
	return strings.TrimSpace(c.Query(key))
}

func actor(c *fiber.Ctx) string {
	return middleware.ActorID(c)
}
