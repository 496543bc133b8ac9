// This package contains helper functions that can be used within the entire app.
// On one hand, it includes functions of serialization and deserialization for
// the kyber curve points, scalars and threshold shares used by the seal process.
// On the other hand, it includes other handy tools for symmetric encryption and
// decryption using AES keys, and the KDF that binds a shared point to a policy ID.
package cipherutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/group/edwards25519"
	"go.dedis.ch/kyber/v3/share"
)

// Suite is the cipher suite used by the whole seal process. All the curve
// points and scalars in the app live on this suite.
var Suite = edwards25519.NewBlakeSHA256Ed25519()

// SerializePoint serializes a kyber curve point into a byte slice of length of 32.
func SerializePoint(point kyber.Point) ([]byte, error) {
	pointBytes, err := point.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize the curve point")
	}

	return pointBytes, nil
}

// DeserializePoint parses a byte slice of length of 32 into a kyber curve point.
func DeserializePoint(pointBytes []byte) (kyber.Point, error) {
	point := Suite.Point()
	if err := point.UnmarshalBinary(pointBytes); err != nil {
		return nil, errors.Wrap(err, "cannot deserialize the curve point")
	}

	return point, nil
}

// SerializeScalar serializes a kyber scalar into a byte slice of length of 32.
func SerializeScalar(scalar kyber.Scalar) ([]byte, error) {
	scalarBytes, err := scalar.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize the scalar")
	}

	return scalarBytes, nil
}

// DeserializeScalar parses a byte slice of length of 32 into a kyber scalar.
func DeserializeScalar(scalarBytes []byte) (kyber.Scalar, error) {
	scalar := Suite.Scalar()
	if err := scalar.UnmarshalBinary(scalarBytes); err != nil {
		return nil, errors.Wrap(err, "cannot deserialize the scalar")
	}

	return scalar, nil
}

// SerializePriShare serializes a private share of the master scalar into a
// byte slice of length of 36 (a little-endian uint32 index followed by the
// 32-byte scalar).
func SerializePriShare(priShare *share.PriShare) ([]byte, error) {
	scalarBytes, err := SerializeScalar(priShare.V)
	if err != nil {
		return nil, err
	}

	shareBytes := make([]byte, 4+len(scalarBytes))
	binary.LittleEndian.PutUint32(shareBytes[:4], uint32(priShare.I))
	copy(shareBytes[4:], scalarBytes)

	return shareBytes, nil
}

// DeserializePriShare parses a byte slice of length of 36 into a private share
// of the master scalar.
func DeserializePriShare(shareBytes []byte) (*share.PriShare, error) {
	if len(shareBytes) != 36 {
		return nil, fmt.Errorf("cannot deserialize the private share: expected 36 bytes, got %v", len(shareBytes))
	}

	scalar, err := DeserializeScalar(shareBytes[4:])
	if err != nil {
		return nil, err
	}

	return &share.PriShare{
		I: int(binary.LittleEndian.Uint32(shareBytes[:4])),
		V: scalar,
	}, nil
}

// DeriveSymmetricKeyBytesFromPoint derives 256 bits of information from the
// shared curve point and the policy ID. The result is used both to unseal the
// data key and as the seal mask during encryption, so a policy ID mismatch
// yields a different key and the AEAD open fails instead of silently
// decrypting with a wrong key.
func DeriveSymmetricKeyBytesFromPoint(point kyber.Point, policyID []byte) ([]byte, error) {
	pointBytes, err := SerializePoint(point)
	if err != nil {
		return nil, err
	}

	h := sha256.New()
	h.Write(pointBytes)
	h.Write(policyID)
	return h.Sum(nil), nil
}

// XORBytes XORs two byte slices of the same length into a fresh slice.
func XORBytes(a, b []byte) ([]byte, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("cannot XOR byte slices of different lengths (%v and %v)", len(a), len(b))
	}

	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i]
	}

	return out, nil
}

// EncryptBytesUsingAESKey 使用 AES 对称密钥加密数据。`aad` 作为附加认证数据参与认证但不参与加密。
func EncryptBytesUsingAESKey(b []byte, key []byte, aad []byte) (encryptedBytes []byte, err error) {
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return
	}

	aesGCM, err := cipher.NewGCM(cipherBlock)
	if err != nil {
		return
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return
	}

	encryptedBytes = aesGCM.Seal(nonce, nonce, b, aad)
	return
}

// DecryptBytesUsingAESKey 使用 AES 对称密钥解密数据。`aad` 必须与加密时提供的附加认证数据一致，否则认证失败。
func DecryptBytesUsingAESKey(b []byte, key []byte, aad []byte) (decryptedBytes []byte, err error) {
	cipherBlock, err := aes.NewCipher(key)
	if err != nil {
		return
	}

	aesGCM, err := cipher.NewGCM(cipherBlock)
	if err != nil {
		return
	}

	nonceSize := aesGCM.NonceSize()
	if len(b) < nonceSize {
		err = fmt.Errorf("密文长度太短")
		return
	}

	nonce, b := b[:nonceSize], b[nonceSize:]
	decryptedBytes, err = aesGCM.Open(nil, nonce, b, aad)
	if err != nil {
		return
	}

	return
}
