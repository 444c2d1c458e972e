package storage

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
)

var (
	// ErrNotQueued is returned for names that are not in the queue.
	ErrNotQueued = fmt.Errorf("file not in upload queue: %w", common.ErrorNotFound)
	// ErrNoAddress is returned when no ledger account is connected.
	ErrNoAddress = errors.New("wallet not connected")
	// ErrQueueEmpty is returned by Upload for an empty queue.
	ErrQueueEmpty = errors.New("cannot upload: queue is empty")
	// ErrNothingReady is returned by Upload when no entry finished processing.
	ErrNothingReady = errors.New("cannot upload: no file is ready")
	// ErrNotAFile is returned by Enqueue for directories and other non-regular files.
	ErrNotAFile = errors.New("not a regular file")
)
