package services

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/filex"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/shared/db"
)

// BlobService stores the bodies of registered files under dir/<fid>.
type BlobService struct {
	repos db.RepositoryManager
	dir   string
	log   logging.Logger
}

func NewBlobService(repos db.RepositoryManager, dir string, log logging.Logger) *BlobService {
	return &BlobService{repos: repos, dir: dir, log: log.With("module", "blob_service")}
}

// Receive checks body against the registration of fid and stores it.
//
// owner is the authenticated uploader; an empty owner skips the ownership
// check. The declared size and the number of bytes actually read must both
// equal the registered size. Errors: common.ErrorNotFound (fid not
// registered), common.ErrorUnauthorized (owner differs from the creator),
// common.ErrorSizeMismatch.
func (s *BlobService) Receive(ctx context.Context, fid, owner string, declaredSize int64, body io.Reader) (int64, error) {
	path, err := filex.SafeJoin(s.dir, fid)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorNotFound, err)
	}

	var size int64
	err = s.repos.View(ctx, func(ctx context.Context, r db.Repos) error {
		f, err := r.Files.GetByFID(ctx, fid)
		if err != nil {
			return err
		}
		if owner != "" && owner != f.Creator {
			return common.ErrorUnauthorized
		}
		size = f.FileSize
		return nil
	})
	if err != nil {
		return 0, err
	}
	if declaredSize != size {
		return 0, fmt.Errorf("%w: declared %d, registered %d", common.ErrorSizeMismatch, declaredSize, size)
	}

	tmp, err := os.CreateTemp(s.dir, fid+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}
	defer filex.RemoveIfExists(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(body, size+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write blob: %w", err)
	}
	if n != size {
		return n, fmt.Errorf("%w: received %d, registered %d", common.ErrorSizeMismatch, n, size)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, fmt.Errorf("store blob: %w", err)
	}

	err = s.repos.Atomic(ctx, func(ctx context.Context, r db.Repos) error {
		return r.Files.MarkUploaded(ctx, fid)
	})
	if err != nil {
		return n, err
	}

	s.log.Info(ctx, "blob stored", "fid", fid, "size", n)
	return n, nil
}

