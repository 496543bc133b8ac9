package sm2keyutils

import (
	"crypto/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tjfoc/gmsm/sm2"
)

func TestKeyPEMConversion(t *testing.T) {
	// Generate a key pair. Convert it all the way to PEM and then back. Check if the products are as expected.
	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	privKeyPem, err := ConvertPrivateKeyToPEM(privKey)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	parsedPrivKey, err := ConvertPEMToPrivateKey(privKeyPem)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, privKey, parsedPrivKey); !isEqual {
		t.FailNow()
	}

	pubKeyPem, err := ConvertPublicKeyToPEM(&privKey.PublicKey)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	parsedPubKey, err := ConvertPEMToPublicKey(pubKeyPem)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	if isEqual := assert.Equal(t, &privKey.PublicKey, parsedPubKey); !isEqual {
		t.FailNow()
	}
}

func TestPublicKeySerialization(t *testing.T) {
	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	pubKeyBytes := SerializePublicKey(&privKey.PublicKey)
	assert.Len(t, pubKeyBytes, 64)

	parsedPubKey, err := DeserializePublicKey(pubKeyBytes)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, privKey.PublicKey.X, parsedPubKey.X)
	assert.Equal(t, privKey.PublicKey.Y, parsedPubKey.Y)

	// 错误长度
	_, err = DeserializePublicKey(pubKeyBytes[:63])
	assert.Error(t, err)
}

func TestDeriveAddressFromPublicKey(t *testing.T) {
	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	address := DeriveAddressFromPublicKey(&privKey.PublicKey)
	assert.True(t, strings.HasPrefix(address, "0x"))
	assert.Len(t, address, 42)

	// 地址派生是确定性的
	assert.Equal(t, address, DeriveAddressFromPublicKey(&privKey.PublicKey))
}
