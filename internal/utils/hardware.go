package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
)

// NodeID names this server instance for audit entries and day-close
// records, e.g. "POS-A1B2C3D4". It hashes the first active MAC address and
// falls back to the hostname.
func NodeID() string {
	source := firstMAC()
	if source == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			return "POS-UNKNOWN"
		}
		source = host
	}

	hash := sha256.Sum256([]byte(source + "POS-NODE"))
	return "POS-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

func firstMAC() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, i := range interfaces {
		// first active physical interface
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			return i.HardwareAddr.String()
		}
	}
	return ""
}
