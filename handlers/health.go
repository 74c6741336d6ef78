package handlers

import (
	"godrive/utils"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{"status": "ok"})
}

// Logout tears down the caller's session engine and its subscriptions.
func Logout(c *gin.Context) {
	sessions.Drop(c.GetString("user_id"))
	utils.Success(c, nil)
}
