package proof

// AccessProofTransaction 表示一笔仅用于干跑（dry-run）的访问证明交易。
// 它只被序列化后作为解密调用的证明输入，绝不会被提交执行，构建它不消耗 gas、不改变链上状态。
// 每次解密尝试都重新构建，不做持久化。
type AccessProofTransaction struct {
	PolicyIDArg           []byte `json:"policyIdArg"`           // 策略 ID 参数
	ContentObjectRef      string `json:"contentObjectRef"`      // 内容对象引用
	SubscriptionObjectRef string `json:"subscriptionObjectRef"` // 订阅对象引用
	ClockRef              string `json:"clockRef"`              // 时间源对象引用
}
