package chain

import (
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/atlaskeeper/internal/codec"
	"github.com/dmitrijs2005/atlaskeeper/internal/common"
)

const (
	TypeURLMsgPostFile   = "/atlas.storage.v1.MsgPostFile"
	TypeURLMsgPostNode   = "/atlas.filetree.v1.MsgPostNode"
	TypeURLMsgDeleteNode = "/atlas.filetree.v1.MsgDeleteNode"
)

// Node types of the file tree.
const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
	NodeTypeDrive     = "drive"
)

// Msg is any message a transaction can carry.
type Msg interface {
	TypeURL() string
	// Signer is the address that must have signed the transaction.
	Signer() string
}

// MsgPostFile registers a file with the storage module.
type MsgPostFile struct {
	Creator      string `cbor:"creator"`
	FID          string `cbor:"fid"`
	Merkle       []byte `cbor:"merkle"`
	FileSize     int64  `cbor:"file_size"`
	Replicas     int64  `cbor:"replicas"`
	Subscription string `cbor:"subscription"`
}

func (MsgPostFile) TypeURL() string  { return TypeURLMsgPostFile }
func (m MsgPostFile) Signer() string { return m.Creator }

// MsgPostNode creates a node in the owner's file tree.
type MsgPostNode struct {
	Creator  string `cbor:"creator"`
	Path     string `cbor:"path"`
	NodeType string `cbor:"node_type"`
	Contents string `cbor:"contents"`
}

func (MsgPostNode) TypeURL() string  { return TypeURLMsgPostNode }
func (m MsgPostNode) Signer() string { return m.Creator }

// MsgDeleteNode removes a node from the owner's file tree.
type MsgDeleteNode struct {
	Creator string `cbor:"creator"`
	Path    string `cbor:"path"`
}

func (MsgDeleteNode) TypeURL() string  { return TypeURLMsgDeleteNode }
func (m MsgDeleteNode) Signer() string { return m.Creator }

// NewMsgPostFile fills the defaults the network expects: three replicas
// unless given and the default subscription.
func NewMsgPostFile(fid, creator string, merkle []byte, fileSize int64, replicas int) MsgPostFile {
	if replicas < 1 {
		replicas = common.DefaultReplicas
	}
	return MsgPostFile{
		Creator:      creator,
		FID:          fid,
		Merkle:       merkle,
		FileSize:     fileSize,
		Replicas:     int64(replicas),
		Subscription: common.DefaultSubscription,
	}
}

// FileNodeContents is the JSON document stored in a file node.
type FileNodeContents struct {
	FID          string            `json:"fid"`
	Owner        string            `json:"owner"`
	Name         string            `json:"name"`
	Size         int64             `json:"size"`
	Type         string            `json:"type"`
	LastModified int64             `json:"lastModified"`
	MerkleRoot   string            `json:"merkleRoot"`
	LastUpdated  int64             `json:"lastUpdated"`
	DateCreated  int64             `json:"dateCreated"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewMsgPostFileNode places a file node at path.
func NewMsgPostFileNode(creator, path string, contents FileNodeContents) (MsgPostNode, error) {
	b, err := json.Marshal(contents)
	if err != nil {
		return MsgPostNode{}, fmt.Errorf("encode node contents: %w", err)
	}
	return MsgPostNode{Creator: creator, Path: path, NodeType: NodeTypeFile, Contents: string(b)}, nil
}

// ValidNodeType reports whether t is a known node type.
func ValidNodeType(t string) bool {
	switch t {
	case NodeTypeFile, NodeTypeDirectory, NodeTypeDrive:
		return true
	}
	return false
}

// Any is a type-tagged encoded message.
type Any struct {
	TypeURL string `cbor:"type_url"`
	Value   []byte `cbor:"value"`
}

// Pack encodes m into an Any.
func Pack(m Msg) (Any, error) {
	b, err := codec.Marshal(m)
	if err != nil {
		return Any{}, fmt.Errorf("pack %s: %w", m.TypeURL(), err)
	}
	return Any{TypeURL: m.TypeURL(), Value: b}, nil
}

// Unpack decodes an Any produced by Pack.
func Unpack(a Any) (Msg, error) {
	var (
		m   Msg
		err error
	)
	switch a.TypeURL {
	case TypeURLMsgPostFile:
		var v MsgPostFile
		err = codec.Unmarshal(a.Value, &v)
		m = v
	case TypeURLMsgPostNode:
		var v MsgPostNode
		err = codec.Unmarshal(a.Value, &v)
		m = v
	case TypeURLMsgDeleteNode:
		var v MsgDeleteNode
		err = codec.Unmarshal(a.Value, &v)
		m = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, a.TypeURL)
	}
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", a.TypeURL, err)
	}
	return m, nil
}
