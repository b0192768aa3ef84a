package nodeutil

import (
	"fmt"
	"net"

	natpmp "github.com/jackpal/go-nat-pmp"
	"github.com/huin/goupnp/dcps/internetgateway1"

	"github.com/ground-x/blmessaging/log"
)

var natLogger = log.New("nodeutil.nat")

// MapPort attempts UPnP IGD first, then NAT-PMP, to map the broker's
// inbound TCP port on the local gateway, per SPEC_FULL.md's NAT-traversal
// domain-stack item (--nat=auto). Failure of either mechanism is logged
// and non-fatal: the broker still listens locally, it simply may not be
// reachable from outside the NAT without a manually-configured
// forwarding rule.
func MapPort(port int) {
	if err := mapUPnP(port); err == nil {
		natLogger.Info("mapped inbound port via UPnP", "port", port)
		return
	} else {
		natLogger.Warn("UPnP port mapping failed, trying NAT-PMP", "err", err)
	}
	if err := mapNATPMP(port); err == nil {
		natLogger.Info("mapped inbound port via NAT-PMP", "port", port)
		return
	} else {
		natLogger.Warn("NAT-PMP port mapping failed, continuing without a mapping", "err", err)
	}
}

func mapUPnP(port int) error {
	clients, errs, err := internetgateway1.NewWANIPConnection1Clients()
	if err != nil {
		return err
	}
	if len(clients) == 0 {
		if len(errs) > 0 {
			return errs[0]
		}
		return fmt.Errorf("nodeutil: no UPnP WANIPConnection1 clients discovered")
	}
	c := clients[0]
	return c.AddPortMapping("", uint16(port), "TCP", uint16(port), localIP().String(), true, "blmessaging", 0)
}

func mapNATPMP(port int) error {
	gw, err := defaultGateway()
	if err != nil {
		return err
	}
	client := natpmp.NewClient(gw)
	_, err = client.AddPortMapping("tcp", port, port, 0)
	return err
}

// localIP picks the first non-loopback IPv4 address, best-effort; a
// zero IP is harmless since it only affects the advertised internal
// client address in the UPnP mapping request.
func localIP() net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return net.IPv4zero
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return ip4
			}
		}
	}
	return net.IPv4zero
}

// defaultGateway guesses the LAN gateway as the ".1" host on the local
// IPv4 subnet, since this repo does not carry a routing-table reader;
// operators whose gateway does not follow that convention should rely
// on UPnP (tried first) or a manual port-forwarding rule instead.
func defaultGateway() (net.IP, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		ip4 := ipnet.IP.To4()
		if ip4 == nil {
			continue
		}
		gw := make(net.IP, len(ip4))
		copy(gw, ip4)
		gw[3] = 1
		return gw, nil
	}
	return nil, fmt.Errorf("nodeutil: no usable IPv4 interface found")
}
