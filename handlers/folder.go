package handlers

import (
	"net/http"

	"godrive/store"
	"godrive/utils"

	"github.com/gin-gonic/gin"
)

type CreateFolderRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

func CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, err := session(c).CreateFolder(c.Request.Context(), req.Name)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, folder)
}

func DeleteFolder(c *gin.Context) {
	if err := session(c).SoftDeleteFolder(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

func RestoreFolder(c *gin.Context) {
	if err := session(c).RestoreFolder(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

func PermanentDeleteFolder(c *gin.Context) {
	if err := session(c).PermanentDeleteFolder(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

type ShareRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

func ShareFolder(c *gin.Context) {
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := session(c).ShareEntity(c.Request.Context(), store.KindFolder, c.Param("id"), req.Recipient); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

type HighlightRequest struct {
	Highlighted *bool `json:"highlighted" binding:"required"`
}

func HighlightFolder(c *gin.Context) {
	var req HighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := session(c).ToggleHighlight(c.Request.Context(), store.KindFolder, c.Param("id"), *req.Highlighted); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}
