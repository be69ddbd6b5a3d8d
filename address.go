package fins

import "net"

// FinsAddress identifies a FINS node: network, node and unit numbers.
type FinsAddress struct {
	Network byte
	Node    byte
	Unit    byte
}

// Address is a full device address: the FINS routing triplet plus the
// transport endpoint.
type Address struct {
	FinAddress FinsAddress
	UdpAddress *net.UDPAddr
	TcpAddress *net.TCPAddr
}

// NewAddress builds a UDP device address.
func NewAddress(ip string, port int, network, node, unit byte) Address {
	return Address{
		UdpAddress: &net.UDPAddr{
			IP:   net.ParseIP(ip),
			Port: port,
		},
		FinAddress: FinsAddress{
			Network: network,
			Node:    node,
			Unit:    unit,
		},
	}
}

// NewTCPAddress builds a TCP device address for FINS/TCP.
func NewTCPAddress(ip string, port int, network, node, unit byte) Address {
	return Address{
		TcpAddress: &net.TCPAddr{
			IP:   net.ParseIP(ip),
			Port: port,
		},
		FinAddress: FinsAddress{
			Network: network,
			Node:    node,
			Unit:    unit,
		},
	}
}

// NewLocalAddress builds an address with only the FINS triplet, letting
// the OS choose the local endpoint.
func NewLocalAddress(network, node, unit byte) Address {
	return Address{
		FinAddress: FinsAddress{
			Network: network,
			Node:    node,
			Unit:    unit,
		},
	}
}
