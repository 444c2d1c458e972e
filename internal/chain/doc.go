// Package chain defines the wire format shared by the ledger client and the
// development node: transaction envelopes, the storage and filetree
// messages, result codes and the gRPC service descriptor.
//
// Everything is encoded with internal/codec (deterministic CBOR). The gRPC
// service is described by hand instead of by generated stubs; calls select
// the CBOR codec through the content subtype.
package chain
