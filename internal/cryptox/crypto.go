// Package cryptox implements the chunked AES-256-GCM framing used for files
// that are encrypted before upload.
//
// The encrypted stream is a sequence of frames. Each frame is an 8-digit,
// zero-padded ASCII decimal length followed by that many bytes of GCM output
// (ciphertext plus the 16-byte tag):
//
//	"00001040" <1040 bytes>  "00000116" <116 bytes>
//
// Every frame of a file is sealed with the same key and 16-byte IV. The
// network's decrypting reader expects exactly this layout, so the framing and
// the IV handling must not change.
package cryptox

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/atlaskeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	// KeySize is the AES-256 key length.
	KeySize = 32
	// IVSize is the GCM nonce length used by the network (not the usual 12).
	IVSize = 16
	// TagSize is the GCM authentication tag appended to every frame.
	TagSize = 16
	// HeaderSize is the width of the decimal length prefix.
	HeaderSize = 8
	// DefaultChunkSize is the plaintext size of every frame but the last.
	DefaultChunkSize = 32 << 20

	maxFrameLen = 99_999_999
)

var (
	// ErrNoBundle is returned when encryption starts without a key and IV.
	ErrNoBundle = errors.New("encryption key bundle is missing")
	// ErrInvalidBundle is returned for keys or IVs of the wrong length.
	ErrInvalidBundle = errors.New("invalid encryption key bundle")
	// ErrMalformedFrame is returned by DecryptStream for broken length headers.
	ErrMalformedFrame = errors.New("malformed encrypted frame")
	// ErrChunkSize is returned for chunk sizes the header cannot describe.
	ErrChunkSize = errors.New("invalid encryption chunk size")
)

// Bundle is the symmetric key material of one file.
type Bundle struct {
	Key []byte
	IV  []byte
}

// GenerateBundle returns a fresh random key and IV.
func GenerateBundle() (*Bundle, error) {
	material := make([]byte, KeySize+IVSize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Bundle{Key: material[:KeySize], IV: material[KeySize:]}, nil
}

// DeriveBundle stretches a passphrase into a key and IV with Argon2id.
// The same passphrase and salt always give the same bundle.
func DeriveBundle(passphrase, salt []byte) *Bundle {
	material := argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize+IVSize)
	return &Bundle{Key: material[:KeySize], IV: material[KeySize:]}
}

// Validate reports whether b can be used for encryption.
func (b *Bundle) Validate() error {
	if b == nil || (len(b.Key) == 0 && len(b.IV) == 0) {
		return ErrNoBundle
	}
	if len(b.Key) != KeySize || len(b.IV) != IVSize {
		return fmt.Errorf("%w: key %d bytes, iv %d bytes", ErrInvalidBundle, len(b.Key), len(b.IV))
	}
	return nil
}

// Wipe zeroes the key material.
func (b *Bundle) Wipe() {
	if b == nil {
		return
	}
	common.WipeByteArray(b.Key)
	common.WipeByteArray(b.IV)
}

func newAEAD(b *Bundle) (cipher.AEAD, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(b.Key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, IVSize)
}

// EncryptedSize returns the length of the framed output for a plaintext of
// size bytes encrypted in chunkSize pieces.
func EncryptedSize(size int64, chunkSize int) int64 {
	if size <= 0 || chunkSize <= 0 {
		return 0
	}
	frames := (size + int64(chunkSize) - 1) / int64(chunkSize)
	return size + frames*(HeaderSize+TagSize)
}

// EncryptStream reads src in chunkSize pieces, seals each one and writes the
// framed result to dst. It returns the number of bytes written.
//
// ctx is checked before every chunk; on cancellation ctx.Err() is returned and
// whatever was already written to dst must be discarded by the caller.
//
// An empty src produces no output.
func EncryptStream(ctx context.Context, dst io.Writer, src io.Reader, b *Bundle, chunkSize int) (int64, error) {
	if chunkSize <= 0 || chunkSize+TagSize > maxFrameLen {
		return 0, fmt.Errorf("%w: %d", ErrChunkSize, chunkSize)
	}

	aead, err := newAEAD(b)
	if err != nil {
		return 0, err
	}

	buf := make([]byte, chunkSize)
	out := make([]byte, 0, chunkSize+TagSize)
	var written int64

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		n, rerr := io.ReadFull(src, buf)
		if n > 0 {
			out = aead.Seal(out[:0], b.IV, buf[:n], nil)

			header := fmt.Sprintf("%0*d", HeaderSize, len(out))
			if _, err := io.WriteString(dst, header); err != nil {
				return written, fmt.Errorf("write frame header: %w", err)
			}
			if _, err := dst.Write(out); err != nil {
				return written, fmt.Errorf("write frame: %w", err)
			}
			written += int64(HeaderSize + len(out))
		}

		switch {
		case rerr == nil:
			continue
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			return written, nil
		default:
			return written, fmt.Errorf("read plaintext: %w", rerr)
		}
	}
}

// DecryptStream reverses EncryptStream. It returns the number of plaintext
// bytes written to dst.
func DecryptStream(ctx context.Context, dst io.Writer, src io.Reader, b *Bundle) (int64, error) {
	aead, err := newAEAD(b)
	if err != nil {
		return 0, err
	}

	header := make([]byte, HeaderSize)
	var (
		frame   []byte
		plain   []byte
		written int64
	)

	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		if _, err := io.ReadFull(src, header); err != nil {
			if errors.Is(err, io.EOF) {
				return written, nil
			}
			return written, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}

		n, err := strconv.Atoi(string(header))
		if err != nil || n < TagSize {
			return written, fmt.Errorf("%w: header %q", ErrMalformedFrame, header)
		}

		if cap(frame) < n {
			frame = make([]byte, n)
		}
		frame = frame[:n]
		if _, err := io.ReadFull(src, frame); err != nil {
			return written, fmt.Errorf("%w: short frame: %v", ErrMalformedFrame, err)
		}

		plain, err = aead.Open(plain[:0], b.IV, frame, nil)
		if err != nil {
			return written, fmt.Errorf("open frame: %w", err)
		}
		if _, err := dst.Write(plain); err != nil {
			return written, fmt.Errorf("write plaintext: %w", err)
		}
		written += int64(len(plain))
	}
}
