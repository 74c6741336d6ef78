package handlers

import (
	"godrive/utils"
	"godrive/views"

	"github.com/gin-gonic/gin"
)

// ListDrive returns the active tree for the current folder and search term.
func ListDrive(c *gin.Context) {
	st := session(c).State()
	folders, files := views.ActiveTree(st, c.Query("folder_id"), c.Query("search"))
	utils.Success(c, gin.H{"folders": folders, "files": files})
}

func ListTrash(c *gin.Context) {
	utils.Success(c, views.Trash(session(c).State(), c.Query("search")))
}

func ListRecents(c *gin.Context) {
	utils.Success(c, views.Recents(session(c).State(), c.Query("search")))
}

func ListStarred(c *gin.Context) {
	utils.Success(c, views.Starred(session(c).State(), c.Query("search")))
}

func ListShared(c *gin.Context) {
	utils.Success(c, views.SharedWithMe(session(c).State(), c.Query("search")))
}
