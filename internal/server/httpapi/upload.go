package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/atlaskeeper/internal/auth"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/gin-gonic/gin"
)

type uploadReply struct {
	FID  string `json:"fid"`
	Size int64  `json:"size"`
}

type errorReply struct {
	Error string `json:"error"`
}

// upload accepts a multipart form with the file part "file" and the fields
// fileId, fileName, fileSize and fileType.
func (s *HTTPServer) upload(c *gin.Context) {
	ctx := c.Request.Context()

	if s.opts.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadSize+formOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abort(c, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		abort(c, http.StatusBadRequest, "missing file part")
		return
	}

	fid := c.PostForm("fileId")
	if fid == "" {
		abort(c, http.StatusBadRequest, "missing fileId")
		return
	}
	size, err := strconv.ParseInt(c.PostForm("fileSize"), 10, 64)
	if err != nil || size < 0 {
		abort(c, http.StatusBadRequest, "invalid fileSize")
		return
	}

	owner, status, msg := s.authorize(c, fid)
	if status != http.StatusOK {
		abort(c, status, msg)
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.Error(ctx, "open upload part", "fid", fid, "error", err)
		abort(c, http.StatusInternalServerError, "internal error")
		return
	}
	defer f.Close()

	n, err := s.blobs.Receive(ctx, fid, owner, size, f)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrorNotFound):
		abort(c, http.StatusNotFound, "file is not registered")
		return
	case errors.Is(err, common.ErrorUnauthorized):
		abort(c, http.StatusForbidden, "file belongs to another account")
		return
	case errors.Is(err, common.ErrorSizeMismatch):
		abort(c, http.StatusBadRequest, err.Error())
		return
	default:
		s.logger.Error(ctx, "store upload", "fid", fid, "error", err)
		abort(c, http.StatusInternalServerError, "internal error")
		return
	}

	s.metrics.Received(n)
	s.logger.Info(ctx, "upload received", "fid", fid, "name", c.PostForm("fileName"), "type", c.PostForm("fileType"), "size", n)
	c.JSON(http.StatusOK, uploadReply{FID: fid, Size: n})
}

// authorize checks the bearer token when a secret is configured and returns
// the owner it names. Without a secret uploads are anonymous.
func (s *HTTPServer) authorize(c *gin.Context, fid string) (string, int, string) {
	if len(s.opts.Secret) == 0 {
		return "", http.StatusOK, ""
	}

	token, ok := strings.CutPrefix(c.GetHeader(common.AuthorizationHeaderName), auth.BearerPrefix)
	if !ok || token == "" {
		return "", http.StatusUnauthorized, "missing bearer token"
	}

	claims, err := auth.ParseUploadToken(token, s.opts.Secret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return "", http.StatusUnauthorized, "token expired"
		}
		return "", http.StatusUnauthorized, "invalid token"
	}
	if claims.FID != fid {
		return "", http.StatusForbidden, "token does not cover this file"
	}
	return claims.Subject, http.StatusOK, ""
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorReply{Error: msg})
}
