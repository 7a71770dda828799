package utils

import (
	"net"
	"time"
)

// CheckPortAvailable 连接失败说明端口空闲
func CheckPortAvailable(host, port string) bool {
	if host == "" || host == "*" || host == "0.0.0.0" {
		host = "localhost"
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), time.Second)
	if err != nil {
		return true
	}
	conn.Close()
	return false
}
