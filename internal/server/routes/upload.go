package routes

import (
	"context"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/OFFIS-RIT/coursegraph/internal/queue"
	"github.com/OFFIS-RIT/coursegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/coursegraph/internal/storage"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// UploadHandler stores the multipart "files" in object storage and queues
// one graph job for them. Documents in the batch rebuild the graph, JSON
// and CSV files are merged into it.
func UploadHandler(c echo.Context) error {
	type uploadResponse struct {
		Message string            `json:"message"`
		JobID   string            `json:"job_id,omitempty"`
		Files   []queue.QueueFile `json:"files,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.Uploads == nil || app.Publisher == nil {
		return c.JSON(http.StatusServiceUnavailable, uploadResponse{
			Message: "Uploads are not configured",
		})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, uploadResponse{
			Message: "Invalid request body",
		})
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		return c.JSON(http.StatusBadRequest, uploadResponse{
			Message: "No files uploaded",
		})
	}
	for _, file := range uploads {
		if _, err := loader.FileTypeForPath(file.Filename); err != nil {
			return c.JSON(http.StatusBadRequest, uploadResponse{
				Message: "Unsupported file type: " + file.Filename,
			})
		}
	}

	job, err := queue.NewGraphJob(nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Internal server error",
		})
	}

	ctx := c.Request().Context()
	prefix := path.Join("uploads", job.JobID)
	for _, file := range uploads {
		key, err := putUpload(ctx, app.Uploads, prefix, file)
		if err != nil {
			logger.Error("[Server] Failed to upload file", "file", file.Filename, "err", err)
			removeUploads(app.Uploads, job.Files)
			return c.JSON(http.StatusInternalServerError, uploadResponse{
				Message: "Internal server error",
			})
		}
		job.Files = append(job.Files, queue.QueueFile{Key: key, Name: file.Filename})
	}

	if err := app.Publisher.PublishGraphJob(ctx, job); err != nil {
		logger.Error("[Server] Failed to queue graph job", "job_id", job.JobID, "err", err)
		removeUploads(app.Uploads, job.Files)
		return c.JSON(http.StatusInternalServerError, uploadResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusAccepted, uploadResponse{
		Message: "Files queued for processing",
		JobID:   job.JobID,
		Files:   job.Files,
	})
}

func putUpload(ctx context.Context, uploads *storage.Uploads, prefix string, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return uploads.Put(ctx, prefix, file.Filename, src)
}

// removeUploads deletes objects of a job that will never be processed.
// It uses a fresh context so a cancelled request still cleans up.
func removeUploads(uploads *storage.Uploads, files []queue.QueueFile) {
	for _, f := range files {
		if err := uploads.Delete(context.Background(), f.Key); err != nil {
			logger.Warn("[Server] Failed to remove upload", "key", f.Key, "err", err)
		}
	}
}
