package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"mcpanel/internal/session"
	"mcpanel/internal/utils"
)

// FileHandlers serves the path-scoped file browser. Every path is confined
// to the server's filesystem root; traversal attempts are rejected before
// any filesystem access, and I/O failures surface as generic messages.
type FileHandlers struct {
	sessions *session.Manager
}

// NewFileHandlers wires the file browser over the session manager.
func NewFileHandlers(sessions *session.Manager) *FileHandlers {
	return &FileHandlers{sessions: sessions}
}

func (h *FileHandlers) resolve(c *gin.Context, rawPath string) (string, bool) {
	if !h.sessions.Loaded() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no servers configured"})
		return "", false
	}
	def := h.sessions.Lookup(c.Param("server_id"))
	if def == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Server not found"})
		return "", false
	}
	target, err := utils.SecureJoin(def.Path, rawPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return "", false
	}
	return target, true
}

type fileEntry struct {
	Name       string `json:"name"`
	IsDir      bool   `json:"isDir"`
	Size       int64  `json:"size"`
	ModifiedAt string `json:"modifiedAt"`
}

// APIListFiles lists a directory under the server root, directories first.
func (h *FileHandlers) APIListFiles(c *gin.Context) {
	target, ok := h.resolve(c, trimmedParam(c, "path"))
	if !ok {
		return
	}
	entries, err := os.ReadDir(target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list directory"})
		return
	}

	files := make([]fileEntry, 0, len(entries))
	for _, entry := range entries {
		item := fileEntry{Name: entry.Name(), IsDir: entry.IsDir()}
		if info, ierr := entry.Info(); ierr == nil {
			item.Size = info.Size()
			item.ModifiedAt = info.ModTime().Format(time.RFC3339)
		}
		files = append(files, item)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].IsDir != files[j].IsDir {
			return files[i].IsDir
		}
		return files[i].Name < files[j].Name
	})
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// APIReadFile returns a file's content.
func (h *FileHandlers) APIReadFile(c *gin.Context) {
	target, ok := h.resolve(c, trimmedParam(c, "path"))
	if !ok {
		return
	}
	data, err := os.ReadFile(target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to read file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": string(data)})
}

type writeFileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

// APIWriteFile writes a file's content, creating parent directories.
func (h *FileHandlers) APIWriteFile(c *gin.Context) {
	var req writeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	target, ok := h.resolve(c, req.Path)
	if !ok {
		return
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to write file"})
		return
	}
	if err := os.WriteFile(target, []byte(req.Content), 0o644); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to write file"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type renameFileRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// APIRenameFile renames or moves an entry within the server root.
func (h *FileHandlers) APIRenameFile(c *gin.Context) {
	var req renameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	from, ok := h.resolve(c, req.From)
	if !ok {
		return
	}
	to, ok := h.resolve(c, req.To)
	if !ok {
		return
	}
	if err := os.Rename(from, to); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to rename entry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// APIDeleteFile removes a file or directory tree under the server root.
// The root itself cannot be deleted.
func (h *FileHandlers) APIDeleteFile(c *gin.Context) {
	raw := trimmedParam(c, "path")
	if raw == "" || raw == "." || raw == "/" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid path"})
		return
	}
	target, ok := h.resolve(c, raw)
	if !ok {
		return
	}
	if err := os.RemoveAll(target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to delete entry"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
