// controllers/dev_controller.go
package controllers

import (
	"net/http"

	"github.com/LenBanana/DreckFoods/utils"

	"github.com/gin-gonic/gin"
)

type tokenReq struct {
	UserID uint `json:"user_id" binding:"required"`
}

// MintDevToken issues a short-lived bearer token for local testing of
// the protected routes. Only registered when dev routes are enabled.
func MintDevToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	token, err := utils.GenerateJWT(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
