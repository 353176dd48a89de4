package docling

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// PoolClients builds size clients for instances on consecutive ports,
// starting at the base endpoint. An endpoint without an explicit port
// yields size clients all bound to the same instance.
func PoolClients(endpoint string, size int, timeout time.Duration) []*Client {
	if size < 1 {
		size = 1
	}

	clients := make([]*Client, 0, size)
	for i := 0; i < size; i++ {
		clients = append(clients, NewClient(instanceEndpoint(endpoint, i), timeout))
	}
	return clients
}

func instanceEndpoint(endpoint string, offset int) string {
	if offset == 0 {
		return endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Port() == "" {
		return endpoint
	}

	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return endpoint
	}

	u.Host = net.JoinHostPort(u.Hostname(), fmt.Sprintf("%d", port+offset))
	return u.String()
}
