package telemetry

import (
	"net"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Identity holds the host identity fields resolved once at startup.
// They are immutable for the process lifetime.
type Identity struct {
	Host       string
	IPAddress  string
	MACAddress string
}

// ResolveIdentity determines the host's name, outbound IP address and MAC
// address. Resolution is best-effort: a host with no usable interface still
// gets an identity, with the IP falling back to loopback and the MAC left
// empty (ClientID then substitutes a generated UUID).
func ResolveIdentity() Identity {
	id := Identity{
		Host:      "unknown",
		IPAddress: "127.0.0.1",
	}

	if host, err := os.Hostname(); err == nil {
		id.Host = host
	}

	if ip := outboundIP(); ip != "" {
		id.IPAddress = ip
	}

	id.MACAddress = primaryMAC()

	return id
}

// ClientID returns the identifier this agent presents to the broker:
// the MAC address when one exists, otherwise a generated UUID.
func (id Identity) ClientID() string {
	if id.MACAddress != "" {
		return id.MACAddress
	}
	return uuid.NewString()
}

// outboundIP finds the local address the kernel would use for external
// traffic. The UDP dial never sends a packet; it only selects a route.
func outboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return ""
	}
	return addr.IP.String()
}

// primaryMAC returns the hardware address of the first non-loopback
// interface that has one, formatted as colon-separated uppercase hex.
// Returns "" when no such interface exists.
func primaryMAC() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		return strings.ToUpper(iface.HardwareAddr.String())
	}
	return ""
}
