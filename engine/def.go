package engine

import (
	"os"
	"strings"
)

const UNREGISTERED = 0x0001
const IDLE = 0x0003
const BUSY = 0x0004

// ReadLines reads a label file, one label per line. Blank lines are dropped.
func ReadLines(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// 支持 Windows CRLF，去掉尾部的 '\r'
	raw := strings.Split(string(b), "\n")
	var lines []string
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}
