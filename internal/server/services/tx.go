// Package services contains the development node's business logic. TxService
// admits, executes and records ledger transactions; BlobService accepts the
// file bodies of registered files.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atlaskeeper/internal/chain"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"github.com/dmitrijs2005/atlaskeeper/internal/logging"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/models"
	"github.com/dmitrijs2005/atlaskeeper/internal/server/shared/db"
	"github.com/dmitrijs2005/atlaskeeper/internal/wallet"
)

// CodeError is a transaction failure with its result code.
type CodeError struct {
	Code uint32
	Log  string
}

func (e *CodeError) Error() string {
	return e.Log
}

func codeErrorf(code uint32, format string, args ...any) error {
	return &CodeError{Code: code, Log: fmt.Sprintf(format, args...)}
}

// TxService executes transactions synchronously: a transaction that passes
// admission is applied and recorded before BroadcastTx returns.
type TxService struct {
	repos   db.RepositoryManager
	chainID string
	prefix  string
	log     logging.Logger
	now     func() time.Time
}

func NewTxService(repos db.RepositoryManager, chainID, addressPrefix string, log logging.Logger) *TxService {
	return &TxService{
		repos:   repos,
		chainID: chainID,
		prefix:  addressPrefix,
		log:     log.With("module", "tx_service"),
		now:     time.Now,
	}
}

// Broadcast handles one encoded transaction. Admission failures come back in
// the response code and are not recorded. Execution failures are recorded
// with their code so GetTx reports them. The error is reserved for storage
// failures.
func (s *TxService) Broadcast(ctx context.Context, txBytes []byte) (*chain.BroadcastTxResponse, error) {
	hash := chain.TxHash(txBytes)
	resp := &chain.BroadcastTxResponse{TxHash: hash}

	msgs, err := s.admit(txBytes)
	if err != nil {
		return s.rejected(ctx, resp, err)
	}

	tx, err := s.execute(ctx, hash, msgs)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return s.rejected(ctx, resp, codeErrorf(chain.CodeTxInCache, "tx %s already recorded", hash))
		}
		return nil, err
	}

	s.log.Info(ctx, "transaction recorded", "hash", hash, "height", tx.Height, "code", tx.Code, "messages", len(msgs))
	return resp, nil
}

func (s *TxService) rejected(ctx context.Context, resp *chain.BroadcastTxResponse, err error) (*chain.BroadcastTxResponse, error) {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return nil, err
	}
	s.log.Warn(ctx, "transaction rejected", "hash", resp.TxHash, "code", ce.Code, "log", ce.Log)
	resp.Code = ce.Code
	resp.RawLog = ce.Log
	return resp, nil
}

// admit decodes the transaction, checks the signature and returns the
// unpacked messages.
func (s *TxService) admit(txBytes []byte) ([]chain.Msg, error) {
	tx, err := chain.DecodeTx(txBytes)
	if err != nil {
		return nil, codeErrorf(chain.CodeTxDecode, "%v", err)
	}
	if len(tx.Body.Messages) == 0 {
		return nil, codeErrorf(chain.CodeInvalidRequest, "transaction has no messages")
	}
	if tx.Body.ChainID != s.chainID {
		return nil, codeErrorf(chain.CodeInvalidRequest, "wrong chain id %q, expected %q", tx.Body.ChainID, s.chainID)
	}

	signBytes, err := tx.Body.SignBytes()
	if err != nil {
		return nil, codeErrorf(chain.CodeTxDecode, "sign bytes: %v", err)
	}
	if err := wallet.VerifySignature(tx.PubKey, signBytes, tx.Signature); err != nil {
		return nil, codeErrorf(chain.CodeUnauthorized, "%v", err)
	}
	signer, err := wallet.AddressFromPubKey(s.prefix, tx.PubKey)
	if err != nil {
		return nil, codeErrorf(chain.CodeUnauthorized, "%v", err)
	}

	msgs := make([]chain.Msg, 0, len(tx.Body.Messages))
	for i, a := range tx.Body.Messages {
		m, err := chain.Unpack(a)
		if err != nil {
			if errors.Is(err, chain.ErrUnknownMessage) {
				return nil, codeErrorf(chain.CodeUnknownMessage, "message %d: %v", i, err)
			}
			return nil, codeErrorf(chain.CodeTxDecode, "message %d: %v", i, err)
		}
		if m.Signer() != signer {
			return nil, codeErrorf(chain.CodeUnauthorized, "message %d: creator %s is not the signer %s", i, m.Signer(), signer)
		}
		if err := validate(m); err != nil {
			return nil, codeErrorf(chain.CodeInvalidRequest, "message %d: %v", i, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func validate(m chain.Msg) error {
	switch m := m.(type) {
	case chain.MsgPostFile:
		switch {
		case m.FID == "":
			return errors.New("empty fid")
		case len(m.Merkle) == 0:
			return errors.New("empty merkle root")
		case m.FileSize < 0:
			return fmt.Errorf("negative file size %d", m.FileSize)
		case m.Replicas < 1:
			return fmt.Errorf("replicas must be positive, got %d", m.Replicas)
		}
	case chain.MsgPostNode:
		if m.Path == "" {
			return errors.New("empty path")
		}
		if !chain.ValidNodeType(m.NodeType) {
			return fmt.Errorf("unknown node type %q", m.NodeType)
		}
		if m.Contents != "" && !json.Valid([]byte(m.Contents)) {
			return errors.New("node contents are not JSON")
		}
	case chain.MsgDeleteNode:
		if m.Path == "" {
			return errors.New("empty path")
		}
	}
	return nil
}

// execute applies msgs in one transaction. When a message fails, its
// changes are discarded and the failure alone is recorded.
func (s *TxService) execute(ctx context.Context, hash string, msgs []chain.Msg) (*models.Tx, error) {
	tx := &models.Tx{Hash: hash, CreatedAt: s.now().UTC()}

	err := s.repos.Atomic(ctx, func(ctx context.Context, r db.Repos) error {
		for i, m := range msgs {
			if err := s.apply(ctx, r, tx, m); err != nil {
				var ce *CodeError
				if errors.As(err, &ce) {
					return codeErrorf(ce.Code, "message %d: %s", i, ce.Log)
				}
				return err
			}
		}
		return r.Txs.Save(ctx, tx)
	})

	var ce *CodeError
	if !errors.As(err, &ce) {
		if err != nil {
			return nil, err
		}
		return tx, nil
	}

	tx.Code = ce.Code
	tx.RawLog = ce.Log
	err = s.repos.Atomic(ctx, func(ctx context.Context, r db.Repos) error {
		return r.Txs.Save(ctx, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *TxService) apply(ctx context.Context, r db.Repos, tx *models.Tx, m chain.Msg) error {
	switch m := m.(type) {
	case chain.MsgPostFile:
		err := r.Files.Create(ctx, &models.File{
			FID:          m.FID,
			Creator:      m.Creator,
			Merkle:       m.Merkle,
			FileSize:     m.FileSize,
			Replicas:     m.Replicas,
			Subscription: m.Subscription,
			TxHash:       tx.Hash,
			CreatedAt:    tx.CreatedAt,
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return codeErrorf(chain.CodeDuplicateFile, "file %s already registered", m.FID)
		}
		return err

	case chain.MsgPostNode:
		return r.Nodes.Upsert(ctx, &models.Node{
			Owner:     m.Creator,
			Path:      m.Path,
			NodeType:  m.NodeType,
			Contents:  m.Contents,
			TxHash:    tx.Hash,
			UpdatedAt: tx.CreatedAt,
		})

	case chain.MsgDeleteNode:
		err := r.Nodes.Delete(ctx, m.Creator, m.Path)
		if errors.Is(err, common.ErrorNotFound) {
			return codeErrorf(chain.CodeNodeNotFound, "node %s not found", m.Path)
		}
		return err
	}
	return codeErrorf(chain.CodeUnknownMessage, "unhandled message %s", m.TypeURL())
}

// GetTx returns common.ErrorNotFound for an unknown hash.
func (s *TxService) GetTx(ctx context.Context, hash string) (*chain.TxResult, error) {
	var tx *models.Tx
	err := s.repos.View(ctx, func(ctx context.Context, r db.Repos) error {
		var err error
		tx, err = r.Txs.GetByHash(ctx, hash)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &chain.TxResult{
		Hash:      tx.Hash,
		Height:    tx.Height,
		Code:      tx.Code,
		RawLog:    tx.RawLog,
		Timestamp: tx.CreatedAt.UnixNano(),
	}, nil
}
