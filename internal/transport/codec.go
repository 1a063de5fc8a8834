package transport

import (
	"encoding/json"
	"fmt"
)

// Encode 将负载编码为 JSON 对象，供跨进程链路使用。
func Encode(p Payload) ([]byte, error) {
	if p == nil {
		p = Payload{}
	}
	data, err := json.Marshal(map[string]string(p))
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// Decode 解析 JSON 对象；非字符串的值会导致错误。
func Decode(data []byte) (Payload, error) {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if m == nil {
		m = map[string]string{}
	}
	return Payload(m), nil
}
