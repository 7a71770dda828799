package models

import "time"

type ServerState string

const (
	// 未运行，或者进程已退出
	StateStopped ServerState = "stopped"
	// 已启动，处于稳定等待期
	StateStarting ServerState = "starting"
	// 稳定等待期结束后进程依然存活
	StateRunning ServerState = "running"
	// 稳定等待期内进程退出或启动失败
	StateError ServerState = "error"
)

/**
 * DiscoveredProcess identifies an OS-level process found by a discovery scan
 * @property {string} pid - Process id as reported by the OS tools
 * @property {string} label - Human readable description (matched line or command line)
 */
type DiscoveredProcess struct {
	PID   string `json:"pid"`
	Label string `json:"label"`
}

// ServerStatus 应用服务器状态
type ServerStatus struct {
	State         ServerState `json:"state"`
	Pid           int         `json:"pid,omitempty"`            //受管进程PID
	StartTime     *time.Time  `json:"startTime,omitempty"`      //启动时间
	LastExitCode  *int        `json:"lastExitCode,omitempty"`   //最后一次退出码
	LastExitTime  *time.Time  `json:"lastExitTime,omitempty"`   //最后一次退出时间
	LastReason    string      `json:"lastReason,omitempty"`     //最后一次状态变化的原因
	DebugAddress  string      `json:"debugAddress"`             //JPDA地址
	DebugPortOpen bool        `json:"debugPortOpen"`            //调试端口是否可连接
	AppContext    string      `json:"appContext,omitempty"`     //应用上下文
	ContextFile   string      `json:"contextFile,omitempty"`    //上下文注册文件
}
