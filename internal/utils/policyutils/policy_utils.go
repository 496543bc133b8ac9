// This package implements the policy codec: the deterministic, reversible
// mapping between `(ownerAddress, nonce)` and a policy identifier (the IBE
// identity), and the serialization of encrypted envelopes whose header embeds
// the policy ID so that it can always be recovered losslessly.
package policyutils

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
)

// envelopeMagic marks the first bytes of a serialized envelope.
var envelopeMagic = []byte("SENV")

// envelopeVersion is the only envelope format version this codec understands.
const envelopeVersion byte = 1

// DerivePolicyID derives the policy identifier for the pair
// `(ownerAddress, nonce)`: the raw address bytes followed by the little-endian
// 8-byte encoding of the nonce. For a fixed address the mapping is injective
// across nonces, so distinct nonces never collide on the same policy ID.
// Callers should use monotonically increasing nonces (e.g. snowflake IDs).
func DerivePolicyID(ownerAddress string, nonce uint64) ([]byte, error) {
	addressHex := strings.TrimPrefix(ownerAddress, "0x")
	if addressHex == "" {
		return nil, errors.New("cannot derive the policy ID from an empty owner address")
	}

	addressBytes, err := hex.DecodeString(addressHex)
	if err != nil {
		return nil, errors.Wrap(err, "cannot derive the policy ID: the owner address is not a hex string")
	}

	policyID := make([]byte, len(addressBytes)+8)
	copy(policyID, addressBytes)
	binary.LittleEndian.PutUint64(policyID[len(addressBytes):], nonce)

	return policyID, nil
}

// SerializeEnvelope serializes an `EncryptedEnvelope` object into its wire
// format. All the header fields are length-prefixed so that `ParseEnvelope`
// and `ExtractPolicyID` are lossless inverses of this function.
func SerializeEnvelope(envelope *seal.EncryptedEnvelope) ([]byte, error) {
	buf := &bytes.Buffer{}

	buf.Write(envelopeMagic)
	buf.WriteByte(envelopeVersion)

	if err := writeLengthPrefixed(buf, []byte(envelope.PackageID)); err != nil {
		return nil, err
	}
	if err := writeLengthPrefixed(buf, envelope.PolicyID); err != nil {
		return nil, err
	}

	if err := binary.Write(buf, binary.LittleEndian, uint16(envelope.Threshold)); err != nil {
		return nil, errors.Wrap(err, "cannot serialize the envelope threshold")
	}

	if err := binary.Write(buf, binary.LittleEndian, uint16(len(envelope.KeyServerRefs))); err != nil {
		return nil, errors.Wrap(err, "cannot serialize the envelope key server list")
	}
	for _, ref := range envelope.KeyServerRefs {
		if err := writeLengthPrefixed(buf, []byte(ref.ID)); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, uint16(ref.Weight)); err != nil {
			return nil, errors.Wrap(err, "cannot serialize the key server weight")
		}
	}

	if err := writeLengthPrefixed(buf, envelope.EphemeralPoint); err != nil {
		return nil, err
	}
	if err := writeLengthPrefixed(buf, envelope.SealedKey); err != nil {
		return nil, err
	}

	if err := binary.Write(buf, binary.LittleEndian, uint32(len(envelope.Ciphertext))); err != nil {
		return nil, errors.Wrap(err, "cannot serialize the envelope ciphertext length")
	}
	buf.Write(envelope.Ciphertext)

	return buf.Bytes(), nil
}

// ParseEnvelope parses a serialized envelope into an `EncryptedEnvelope`
// object. The returned key server refs carry IDs and weights only; endpoints
// are deployment configuration, not part of the wire format. Fails with
// `errorcode.ErrorMalformedEnvelope` (as the cause) if the bytes are not a
// valid envelope.
func ParseEnvelope(envelopeBytes []byte) (*seal.EncryptedEnvelope, error) {
	r := bytes.NewReader(envelopeBytes)

	magic := make([]byte, len(envelopeMagic))
	if _, err := io.ReadFull(r, magic); err != nil || !bytes.Equal(magic, envelopeMagic) {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "信封魔数不正确")
	}

	version, err := r.ReadByte()
	if err != nil || version != envelopeVersion {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "信封版本不受支持")
	}

	packageIDBytes, err := readLengthPrefixed(r)
	if err != nil {
		return nil, err
	}

	policyID, err := readLengthPrefixed(r)
	if err != nil {
		return nil, err
	}
	if len(policyID) == 0 {
		// 绝不返回默认的空策略 ID
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "信封头中的策略 ID 为空")
	}

	var threshold uint16
	if err := binary.Read(r, binary.LittleEndian, &threshold); err != nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "无法解析门限值")
	}

	var numServers uint16
	if err := binary.Read(r, binary.LittleEndian, &numServers); err != nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "无法解析密钥服务器数量")
	}

	refs := make([]seal.KeyServerRef, 0, numServers)
	for i := 0; i < int(numServers); i++ {
		idBytes, err := readLengthPrefixed(r)
		if err != nil {
			return nil, err
		}

		var weight uint16
		if err := binary.Read(r, binary.LittleEndian, &weight); err != nil {
			return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "无法解析密钥服务器权重")
		}

		refs = append(refs, seal.KeyServerRef{ID: string(idBytes), Weight: int(weight)})
	}

	ephemeralPoint, err := readLengthPrefixed(r)
	if err != nil {
		return nil, err
	}

	sealedKey, err := readLengthPrefixed(r)
	if err != nil {
		return nil, err
	}

	var ciphertextLen uint32
	if err := binary.Read(r, binary.LittleEndian, &ciphertextLen); err != nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "无法解析密文长度")
	}

	ciphertext := make([]byte, ciphertextLen)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "密文长度与信封头不符")
	}

	return &seal.EncryptedEnvelope{
		PackageID:      string(packageIDBytes),
		PolicyID:       policyID,
		Threshold:      int(threshold),
		KeyServerRefs:  refs,
		EphemeralPoint: ephemeralPoint,
		SealedKey:      sealedKey,
		Ciphertext:     ciphertext,
	}, nil
}

// ExtractPolicyID parses only the envelope header and returns the embedded
// policy ID, bit-for-bit as it was at encryption time.
func ExtractPolicyID(envelopeBytes []byte) ([]byte, error) {
	envelope, err := ParseEnvelope(envelopeBytes)
	if err != nil {
		return nil, err
	}

	return envelope.PolicyID, nil
}

func writeLengthPrefixed(buf *bytes.Buffer, b []byte) error {
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(b))); err != nil {
		return errors.Wrap(err, "cannot serialize a length-prefixed envelope field")
	}

	buf.Write(b)
	return nil
}

func readLengthPrefixed(r *bytes.Reader) ([]byte, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "无法解析信封字段长度")
	}

	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, errors.Wrap(errorcode.ErrorMalformedEnvelope, "信封字段长度与内容不符")
	}

	return b, nil
}
