package bplustree

import "time"

const (
	// DefaultCapacity 是每个节点的默认容量（叶子条目数 / 内部节点分隔键数）
	DefaultCapacity = 8
	// MinCapacity is the smallest capacity for which both split paths leave
	// every resulting node non-empty.
	MinCapacity = 3
	// DefaultLockTimeout bounds every blocking latch acquisition.
	DefaultLockTimeout = 5 * time.Second
)

type putStatus int

const (
	putSuccess  putStatus = iota // 插入成功
	putNodeFull                  // 节点已满，已分裂
)

var statusNames = map[putStatus]string{
	putSuccess:  "SUCCESS",
	putNodeFull: "NODE_FULL",
}

func (s putStatus) String() string {
	if name, exists := statusNames[s]; exists {
		return name
	}
	return "UNKNOWN_STATUS"
}
