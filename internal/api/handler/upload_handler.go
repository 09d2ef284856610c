package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/blogapi/blog-service/internal/api/metrics"
	"github.com/blogapi/blog-service/internal/core/ports"
)

// UploadFormField is the multipart field carrying the image.
const UploadFormField = "image"

type UploadHandler struct {
	service ports.UploadService
}

func NewUploadHandler(service ports.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

type uploadResponse struct {
	Filename string `json:"filename"`
}

// Upload handles POST /upload.
//
// @Summary      Upload an image
// @Description  The returned filename is served under /uploads/ and can be set as a post image_path.
// @Tags         uploads
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        image  formData  file  true  "Image file"
// @Success      200    {object}  uploadResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /upload [post]
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile(UploadFormField)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
	}
	defer src.Close()

	name, err := h.service.Upload(c.Request().Context(), caller(c), fh.Filename, src)
	if err != nil {
		return err
	}

	metrics.PostMutationsTotal.WithLabelValues("upload").Inc()
	return c.JSON(http.StatusOK, uploadResponse{Filename: name})
}
