package handlers

import (
	"io"
	"net/http"

	"godrive/engine"
	"godrive/store"
	"godrive/utils"

	"github.com/gin-gonic/gin"
)

// UploadFile stores the bytes on a storage node first; the metadata record is
// only registered once the node confirms.
func UploadFile(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "file is required")
		return
	}

	src, err := header.Open()
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "open uploaded file: "+err.Error())
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "read uploaded file: "+err.Error())
		return
	}

	result, err := uploadAdapter.Upload(c.Request.Context(), header.Filename, data, c.GetString("token"))
	if err != nil {
		utils.Error(c, http.StatusBadGateway, "storage upload failed: "+err.Error())
		return
	}

	var folderID *string
	if v := c.PostForm("folder_id"); v != "" {
		folderID = &v
	}

	file, err := session(c).UploadComplete(c.Request.Context(), engine.UploadMeta{
		FileName:         header.Filename,
		Size:             header.Size,
		ReplicaLocations: result.NodeAssignment,
	}, folderID)
	if err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, file)
}

func DownloadFile(c *gin.Context) {
	name := c.Param("name")
	data, err := uploadAdapter.Download(c.Request.Context(), name, c.GetString("token"))
	if err != nil {
		utils.Error(c, http.StatusBadGateway, "storage download failed: "+err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/octet-stream", data)
}

type MoveFileRequest struct {
	FolderID *string `json:"folder_id"`
}

func MoveFile(c *gin.Context) {
	var req MoveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := session(c).MoveFile(c.Request.Context(), c.Param("id"), req.FolderID); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

func DeleteFile(c *gin.Context) {
	if err := session(c).SoftDeleteFile(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

func RestoreFile(c *gin.Context) {
	if err := session(c).RestoreFile(c.Request.Context(), c.Param("id")); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

func PermanentDeleteFile(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		utils.Error(c, http.StatusBadRequest, "name query parameter is required")
		return
	}

	if err := session(c).PermanentDeleteFile(c.Request.Context(), c.Param("id"), name); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

func ShareFile(c *gin.Context) {
	var req ShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := session(c).ShareEntity(c.Request.Context(), store.KindFile, c.Param("id"), req.Recipient); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}

func HighlightFile(c *gin.Context) {
	var req HighlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	if err := session(c).ToggleHighlight(c.Request.Context(), store.KindFile, c.Param("id"), *req.Highlighted); err != nil {
		respondErr(c, err)
		return
	}
	utils.Success(c, nil)
}
