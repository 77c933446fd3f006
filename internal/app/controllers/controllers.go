// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/labsphere/internal/app/models/dto"
	"github.com/yigit/labsphere/internal/middleware"
)

// parseIDParam reads a positive int64 path parameter, writing a 400 response on failure
func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid "+name).WithField(name)))
		return 0, false
	}
	return id, true
}

// requireUser returns the authenticated user id or writes a 401 response
func requireUser(ctx *gin.Context) (int64, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")))
		return 0, false
	}
	return userID, true
}

func respondOK(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(data, message))
}

func respondCreated(ctx *gin.Context, data interface{}, message string) {
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(data, message))
}
