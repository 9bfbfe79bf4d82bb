package v1

import (
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
)

type UploadFileResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}

// UploadFile stores the multipart "file" field for the caller.
func (s *APIV1Service) UploadFile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	}
	if header.Filename == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "empty file name")
	}

	file, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read upload")
	}
	defer file.Close()

	ref, err := s.Files.Save(c.Request().Context(), userID, header.Filename, header.Header.Get(echo.HeaderContentType), file)
	if err != nil {
		return toHTTPError(c, err)
	}

	slog.Info("File uploaded", "user_id", userID, "file", ref, "size", header.Size)
	return c.JSON(http.StatusOK, &UploadFileResponse{
		Message:  "file uploaded successfully",
		FilePath: ref,
	})
}

// GetFile streams a stored file back to its owner.
func (s *APIV1Service) GetFile(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	ref := c.Param("user") + "/" + c.Param("name")
	body, err := s.Files.Open(c.Request().Context(), userID, ref)
	if err != nil {
		return toHTTPError(c, err)
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(ref))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	return c.Stream(http.StatusOK, contentType, body)
}
