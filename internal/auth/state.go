package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
)

// StateLength 是表单 CSRF state 的固定长度。
const StateLength = 32

const stateAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// NewState 生成大小写字母组成的 CSRF state，逐字符均匀采样。
// 字母表长度 52 不能整除 256，需要拒绝采样避免取模偏差。
func NewState() (string, error) {
	out := make([]byte, StateLength)
	buf := make([]byte, 1)
	for i := 0; i < StateLength; {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("生成 state 失败: %w", err)
		}
		b := buf[0]
		if int(b) >= 256-(256%len(stateAlphabet)) {
			continue
		}
		out[i] = stateAlphabet[int(b)%len(stateAlphabet)]
		i++
	}
	return string(out), nil
}

// StateEqual 常数时间比较提交的 state 与会话中保存的 state；任一为空即不匹配。
func StateEqual(submitted string, stored string) bool {
	if submitted == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
