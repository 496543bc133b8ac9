package policyutils

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
	"github.com/tomkapa/sui-patreon-sub001/pkg/models/seal"
)

const testOwnerAddress = "0x1f2e3d4c5b6a79881f2e3d4c5b6a79881f2e3d4c"

func TestDerivePolicyID(t *testing.T) {
	// 同样的输入总是产生同样的策略 ID
	policyID1, err := DerivePolicyID(testOwnerAddress, 42)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	policyID2, err := DerivePolicyID(testOwnerAddress, 42)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, policyID1, policyID2)

	// 地址 20 字节加 nonce 8 字节
	assert.Len(t, policyID1, 28)

	// 不同的 nonce 产生不同的策略 ID
	policyID3, err := DerivePolicyID(testOwnerAddress, 43)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.NotEqual(t, policyID1, policyID3)

	// 空地址和非十六进制地址都应报错
	_, err = DerivePolicyID("", 42)
	assert.Error(t, err)

	_, err = DerivePolicyID("0xZZZZ", 42)
	assert.Error(t, err)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	policyID, err := DerivePolicyID(testOwnerAddress, 7)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	envelope := &seal.EncryptedEnvelope{
		PackageID: "0xabc123",
		PolicyID:  policyID,
		Threshold: 2,
		KeyServerRefs: []seal.KeyServerRef{
			{ID: "ks1", Weight: 1},
			{ID: "ks2", Weight: 2},
		},
		EphemeralPoint: []byte("ephemeral-point-bytes-0123456789"),
		SealedKey:      []byte("sealed-key-bytes-aaaabbbbccccddd"),
		Ciphertext:     []byte("some ciphertext"),
	}

	envelopeBytes, err := SerializeEnvelope(envelope)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	parsed, err := ParseEnvelope(envelopeBytes)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, envelope, parsed)

	// 从信封中提取的策略 ID 与加密时使用的逐比特一致
	extracted, err := ExtractPolicyID(envelopeBytes)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, policyID, extracted)
}

func TestParseEnvelopeMalformed(t *testing.T) {
	// 魔数不正确
	_, err := ParseEnvelope([]byte("XXXX not an envelope"))
	assert.Equal(t, errorcode.ErrorMalformedEnvelope, errors.Cause(err))

	// 输入比魔数还短
	_, err = ParseEnvelope([]byte("SE"))
	assert.Equal(t, errorcode.ErrorMalformedEnvelope, errors.Cause(err))

	// 信封被截断
	policyID, err := DerivePolicyID(testOwnerAddress, 7)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	envelope := &seal.EncryptedEnvelope{
		PackageID:      "0xabc123",
		PolicyID:       policyID,
		Threshold:      1,
		KeyServerRefs:  []seal.KeyServerRef{{ID: "ks1", Weight: 1}},
		EphemeralPoint: []byte("ephemeral"),
		SealedKey:      []byte("sealed"),
		Ciphertext:     []byte("ciphertext"),
	}
	envelopeBytes, err := SerializeEnvelope(envelope)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	_, err = ParseEnvelope(envelopeBytes[:len(envelopeBytes)-3])
	assert.Equal(t, errorcode.ErrorMalformedEnvelope, errors.Cause(err))

	// 空输入
	_, err = ParseEnvelope(nil)
	assert.Equal(t, errorcode.ErrorMalformedEnvelope, errors.Cause(err))
}
