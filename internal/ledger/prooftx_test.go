package ledger

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/tomkapa/sui-patreon-sub001/pkg/errorcode"
)

func TestBuildAndParseAccessProof(t *testing.T) {
	memLedger := NewMemoryLedger()
	memLedger.SetObject("content-1", map[string]interface{}{"contentId": "content-1"})
	memLedger.SetObject("sub-1", map[string]interface{}{"tierId": "tier-gold"})
	memLedger.SetObject(ClockObjectRef, map[string]interface{}{"now": "2026-03-01T12:00:00Z"})

	policyID := []byte("policy-id-bytes")

	proofTx, err := BuildAccessProof(context.Background(), memLedger, "0xpkg1", policyID, "content-1", "sub-1", ClockObjectRef)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	proof, err := ParseAccessProof(proofTx)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, policyID, proof.PolicyIDArg)
	assert.Equal(t, "content-1", proof.ContentObjectRef)
	assert.Equal(t, "sub-1", proof.SubscriptionObjectRef)
	assert.Equal(t, ClockObjectRef, proof.ClockRef)
}

func TestBuildAccessProofUnresolvableRef(t *testing.T) {
	memLedger := NewMemoryLedger()
	memLedger.SetObject("content-1", map[string]interface{}{"contentId": "content-1"})
	memLedger.SetObject(ClockObjectRef, map[string]interface{}{"now": "2026-03-01T12:00:00Z"})

	// 订阅对象不存在时证明构建失败
	_, err := BuildAccessProof(context.Background(), memLedger, "0xpkg1", []byte("policy"), "content-1", "no-such-sub", ClockObjectRef)
	assert.Equal(t, errorcode.ErrorProofConstructionFailed, errors.Cause(err))

	// 空引用同样失败
	_, err = BuildAccessProof(context.Background(), memLedger, "0xpkg1", []byte("policy"), "content-1", "", ClockObjectRef)
	assert.Equal(t, errorcode.ErrorProofConstructionFailed, errors.Cause(err))
}

func TestParseAccessProofRejectsWrongTarget(t *testing.T) {
	memLedger := NewMemoryLedger()

	proofTx, err := memLedger.BuildDryRunCall("0xpkg1::subscription::some_other_function", []interface{}{"a", "b", "c", "d"})
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	_, err = ParseAccessProof(proofTx)
	assert.Error(t, err)
}

func TestDecodeRecords(t *testing.T) {
	// 经 JSON 网关传输后数值变成 float64、时间变成 RFC 3339 字符串，解码应仍然正确
	fields := map[string]interface{}{
		"contentId":        "content-1",
		"creatorAddress":   "0xabc",
		"policyNonce":      float64(314159),
		"isPublic":         true,
		"requiredTierIds":  []interface{}{"tier-gold"},
		"exclusiveBlobRef": "blob-1",
		"timestamp":        "2026-03-01T12:00:00Z",
	}

	record, err := DecodeContentRecord(fields)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, uint64(314159), record.PolicyNonce)
	assert.True(t, record.IsPublic)
	assert.Equal(t, []string{"tier-gold"}, record.RequiredTierIDs)
	assert.Equal(t, 2026, record.Timestamp.Year())

	clockNow, err := DecodeClock(map[string]interface{}{"now": "2026-03-01T12:00:00Z"})
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, 12, clockNow.Hour())

	// 缺少 now 字段的时钟对象不可用
	_, err = DecodeClock(map[string]interface{}{})
	assert.Error(t, err)
}
