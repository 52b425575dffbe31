package handler

import (
	"errors"
	"net/http"

	"studiosite/internal/app/media"
	"studiosite/internal/pkg/errs"
	"studiosite/internal/pkg/logx"
	"studiosite/internal/pkg/req"
	"studiosite/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating upload URL.
type PresignUploadInput struct {
	Folder   string `json:"folder"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	FileSize int64  `json:"fileSize"`
}

// requireMedia responds with ErrMediaDisabled when object storage is not configured.
func requireMedia(deps *AppDeps, w http.ResponseWriter, r *http.Request) bool {
	if deps.Media == nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrMediaDisabled))
		return false
	}
	return true
}

// HandlePresignUpload generates a time-limited, pre-signed URL the admin UI uploads an image to.
func HandlePresignUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMedia(deps, w, r) {
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if customErr := media.ValidateFileSize(input.FileSize); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := media.ValidateFileType(input.FileName, input.MimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileKey, customErr := media.NewObjectKey(input.Folder, input.FileName)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		url, err := deps.Media.PresignUpload(r.Context(), fileKey, input.MimeType, input.FileSize, media.PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign upload", "file_key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"fileName":     input.FileName,
		})
	}
}

// HandlePresignDownload generates a pre-signed URL for ?key=.
func HandlePresignDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMedia(deps, w, r) {
			return
		}

		fileKey := r.URL.Query().Get("key")
		if !media.KeyInFolders(fileKey) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		url, err := deps.Media.PresignDownload(r.Context(), fileKey, media.PresignedURLDuration)
		if err != nil {
			logx.Error(err, "Failed to presign download", "file_key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"presignedUrl": url})
	}
}

// HandleUploadMedia stores the multipart "file" part in the "folder" form field.
func HandleUploadMedia(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMedia(deps, w, r) {
			return
		}

		if !req.IsMultipart(r) {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnsupportedMediaType))
			return
		}
		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		mimeType := header.Header.Get("Content-Type")
		if customErr := media.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}
		if customErr := media.ValidateFileType(header.Filename, mimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		fileKey, customErr := media.NewObjectKey(r.FormValue("folder"), header.Filename)
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		location, err := deps.Media.Upload(r.Context(), fileKey, mimeType, file)
		if err != nil {
			logx.Error(err, "Failed to upload media", "file_key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		logx.Info("Media uploaded", "file_key", fileKey, "size", header.Size)

		resp.RespondCreated(w, r, map[string]any{
			"object": media.Object{
				Key:      fileKey,
				Name:     header.Filename,
				MimeType: mimeType,
				Size:     header.Size,
			},
			"location": location,
		})
	}
}

// HandleDeleteMedia removes ?key= from the bucket.
func HandleDeleteMedia(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMedia(deps, w, r) {
			return
		}

		fileKey := r.URL.Query().Get("key")
		if !media.KeyInFolders(fileKey) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := deps.Media.Delete(r.Context(), fileKey); err != nil {
			logx.Error(err, "Failed to delete media", "file_key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// HandleMediaInfo returns the stored content type and size of ?key=.
func HandleMediaInfo(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireMedia(deps, w, r) {
			return
		}

		fileKey := r.URL.Query().Get("key")
		if !media.KeyInFolders(fileKey) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		metadata, err := deps.Media.GetObjectMetadata(r.Context(), fileKey)
		if err != nil {
			if errors.Is(err, media.ErrObjectNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrNotFound))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, metadata)
	}
}
