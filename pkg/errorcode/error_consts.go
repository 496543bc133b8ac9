package errorcode

import "fmt"

const (
	// CodeNotFound 表示资源未找到。Service 层收到的错误中若是这样的错误信息则表示是资源未找到，而非链上网关运行出错。
	CodeNotFound = "~NOTFOUND~"
	// CodeForbidden 表示参数被理解，但无权进行操作。对解密流程而言即访问被拒绝。
	CodeForbidden = "~FORBIDDEN~"
	// CodeNotImplemented 是个在这个项目中约定俗成的代号，表示暂时未实现的功能。
	CodeNotImplemented = "~NOTIMPLEMENTED~"
	// CodeBlobNotFound 表示内容寻址 ID 在 blob 存储中无法解析。
	CodeBlobNotFound = "~BLOBNOTFOUND~"
	// CodeMalformedEnvelope 表示字节序列不是一个合法的加密信封。
	CodeMalformedEnvelope = "~MALFORMEDENVELOPE~"
	// CodeInvalidThreshold 表示加密请求中的门限值不合法。
	CodeInvalidThreshold = "~INVALIDTHRESHOLD~"
	// CodeMissingBlobReference 表示内容对象上没有专属（加密）blob 指针。
	CodeMissingBlobReference = "~MISSINGBLOBREF~"
	// CodeSessionExpired 表示会话密钥已过期或未签名。
	CodeSessionExpired = "~SESSIONEXPIRED~"
	// CodeSessionUnavailable 表示无法产生可用的会话密钥。
	CodeSessionUnavailable = "~SESSIONUNAVAILABLE~"
	// CodeInvalidSignature 表示个人消息签名无法通过验证。
	CodeInvalidSignature = "~INVALIDSIGNATURE~"
	// CodeInsufficientShares 表示不可达的密钥服务器过多，无法集齐门限所需的份额。
	CodeInsufficientShares = "~INSUFFICIENTSHARES~"
	// CodeProofConstructionFailed 表示访问证明交易所需的对象引用无法解析。
	CodeProofConstructionFailed = "~PROOFCONSTRUCTION~"
	// CodeCancelled 表示操作被调用方取消。
	CodeCancelled = "~CANCELLED~"
)

// ErrorNotFound 为使用了 `CodeNotFound` 的 error 实例
var ErrorNotFound = fmt.Errorf(CodeNotFound)

// ErrorForbidden 为使用了 `CodeForbidden` 的 error 实例
var ErrorForbidden = fmt.Errorf(CodeForbidden)

// ErrorNotImplemented 为使用了 `CodeNotImplemented` 的 error 实例
var ErrorNotImplemented = fmt.Errorf(CodeNotImplemented)

// ErrorBlobNotFound 为使用了 `CodeBlobNotFound` 的 error 实例
var ErrorBlobNotFound = fmt.Errorf(CodeBlobNotFound)

// ErrorMalformedEnvelope 为使用了 `CodeMalformedEnvelope` 的 error 实例
var ErrorMalformedEnvelope = fmt.Errorf(CodeMalformedEnvelope)

// ErrorInvalidThreshold 为使用了 `CodeInvalidThreshold` 的 error 实例
var ErrorInvalidThreshold = fmt.Errorf(CodeInvalidThreshold)

// ErrorMissingBlobReference 为使用了 `CodeMissingBlobReference` 的 error 实例
var ErrorMissingBlobReference = fmt.Errorf(CodeMissingBlobReference)

// ErrorSessionExpired 为使用了 `CodeSessionExpired` 的 error 实例
var ErrorSessionExpired = fmt.Errorf(CodeSessionExpired)

// ErrorSessionUnavailable 为使用了 `CodeSessionUnavailable` 的 error 实例
var ErrorSessionUnavailable = fmt.Errorf(CodeSessionUnavailable)

// ErrorInvalidSignature 为使用了 `CodeInvalidSignature` 的 error 实例
var ErrorInvalidSignature = fmt.Errorf(CodeInvalidSignature)

// ErrorInsufficientShares 为使用了 `CodeInsufficientShares` 的 error 实例
var ErrorInsufficientShares = fmt.Errorf(CodeInsufficientShares)

// ErrorProofConstructionFailed 为使用了 `CodeProofConstructionFailed` 的 error 实例
var ErrorProofConstructionFailed = fmt.Errorf(CodeProofConstructionFailed)

// ErrorCancelled 为使用了 `CodeCancelled` 的 error 实例
var ErrorCancelled = fmt.Errorf(CodeCancelled)
