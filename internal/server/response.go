package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 面向用户的错误提示，细节只进日志
const (
	msgNoQuestion = "No se envió ninguna pregunta"
	msgAskFailed  = "Error al procesar la pregunta"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
