package handlers

import (
	"net/http"

	"godrive/cluster"
	"godrive/database"
	"godrive/models"
	"godrive/utils"

	"github.com/gin-gonic/gin"
)

func ClusterStatus(c *gin.Context) {
	status, refreshed, err := statusPoller.Last()
	if err != nil && refreshed.IsZero() {
		utils.Error(c, http.StatusBadGateway, "cluster status unavailable: "+err.Error())
		return
	}
	utils.Success(c, gin.H{
		"cluster":      status,
		"refreshed_at": refreshed,
	})
}

// ClusterLogs fetches the cluster event log on demand rather than from the
// poller cache, so the admin panel sees fresh lines.
func ClusterLogs(c *gin.Context) {
	logs, err := nodeGateway.Logs(c.Request.Context())
	if err != nil {
		utils.Error(c, http.StatusBadGateway, "cluster logs unavailable: "+err.Error())
		return
	}
	utils.Success(c, gin.H{"logs": logs})
}

type ToggleNodeRequest struct {
	Node   string `json:"node" binding:"required"`
	Action string `json:"action" binding:"required,oneof=start stop"`
}

func ToggleNode(c *gin.Context) {
	var req ToggleNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := nodeGateway.Toggle(c.Request.Context(), req.Node, cluster.ToggleAction(req.Action)); err != nil {
		utils.Error(c, http.StatusBadGateway, err.Error())
		return
	}
	utils.Success(c, nil)
}

// AdminStats reports record counts across all users for the admin dashboard.
func AdminStats(c *gin.Context) {
	var fileCount, folderCount int64
	if err := database.DB.Model(&models.File{}).Count(&fileCount).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "count files: "+err.Error())
		return
	}
	if err := database.DB.Model(&models.Folder{}).Count(&folderCount).Error; err != nil {
		utils.Error(c, http.StatusInternalServerError, "count folders: "+err.Error())
		return
	}
	utils.Success(c, gin.H{"files": fileCount, "folders": folderCount})
}
