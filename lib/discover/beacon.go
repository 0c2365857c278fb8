package discover

import (
	"context"
	"net"
	"strconv"

	"github.com/uos-cooperation/daemon/lib/logger"
)

var log = logger.DefaultLogger.NewFacility("discover")

type received struct {
	pkt Packet
	src net.IP
}

// Beacon owns the UDP socket used to send and receive discovery
// packets: a writer goroutine draining an inbox and a reader goroutine
// filling an outbox -- kept as plain goroutines rather than folded
// into the event loop since broadcast fan-out touches every local
// interface and has no per-Machine state to serialize against.
type Beacon struct {
	conn  *net.UDPConn
	port  int
	inbox chan Packet
	recvs chan received
}

// New binds a UDP socket on port and starts its reader/writer
// goroutines. Callers drain received beacons via Recv and typically
// forward each one to Manager's onBeaconReceived handler.
func New(port int) (*Beacon, error) {
	lc := net.ListenConfig{Control: reusePortControl}
	pc, err := lc.ListenPacket(context.Background(), "udp", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn := pc.(*net.UDPConn)
	b := &Beacon{
		conn:  conn,
		port:  port,
		inbox: make(chan Packet),
		recvs: make(chan received, 16),
	}
	go b.readLoop()
	go b.writeLoop()
	return b, nil
}

// Send queues a beacon for broadcast to every local broadcast-capable
// IPv4 interface.
func (b *Beacon) Send(pkt Packet) {
	b.inbox <- pkt
}

// Recv blocks for the next beacon received from the network, along
// with the sender's IP. Packets that fail to decode (see ErrMalformed)
// are dropped by readLoop and never reach Recv.
func (b *Beacon) Recv() (Packet, net.IP) {
	r := <-b.recvs
	return r.pkt, r.src
}

// Close shuts down the socket, which ends readLoop. writeLoop keeps
// waiting on the inbox; a packet sent after Close fails to write and is
// only logged.
func (b *Beacon) Close() error {
	return b.conn.Close()
}

func (b *Beacon) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, addr, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		pkt, err := Decode(buf[:n])
		if err != nil {
			log.Debugln("dropping malformed beacon from", addr)
			continue
		}
		select {
		case b.recvs <- received{pkt: pkt, src: addr.IP}:
		default:
			log.Debugln("dropping beacon, receiver backlogged")
		}
	}
}

func (b *Beacon) writeLoop() {
	for pkt := range b.inbox {
		data := Encode(pkt)
		dsts := broadcastAddrs()
		for _, ip := range dsts {
			dst := &net.UDPAddr{IP: ip, Port: b.port}
			if _, err := b.conn.WriteTo(data, dst); err != nil {
				log.Debugln("beacon write to", dst, "failed:", err)
			}
		}
	}
}

// SendTo unicasts a beacon to a single address, used by Manager.ping
// to re-probe a specific known peer rather than broadcasting.
func (b *Beacon) SendTo(pkt Packet, ip net.IP) {
	data := Encode(pkt)
	dst := &net.UDPAddr{IP: ip, Port: b.port}
	if _, err := b.conn.WriteTo(data, dst); err != nil {
		log.Debugln("beacon unicast to", dst, "failed:", err)
	}
}

// broadcastAddrs returns the IPv4 broadcast address of every local,
// globally-routable interface, falling back to the general broadcast
// address if none is found.
func broadcastAddrs() []net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		log.Warnln("interface addresses:", err)
		return []net.IP{{0xff, 0xff, 0xff, 0xff}}
	}

	var dsts []net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || !ipnet.IP.IsGlobalUnicast() || ipnet.IP.To4() == nil {
			continue
		}
		dsts = append(dsts, broadcastOf(ipnet))
	}

	if len(dsts) == 0 {
		dsts = append(dsts, net.IP{0xff, 0xff, 0xff, 0xff})
	}
	return dsts
}

func broadcastOf(ipnet *net.IPNet) net.IP {
	ip := make(net.IP, len(ipnet.IP))
	copy(ip, ipnet.IP)
	mask := ipnet.Mask
	offset := len(ip) - len(mask)
	for i := range ip {
		if i-offset >= 0 {
			ip[i] |= ^mask[i-offset]
		}
	}
	return ip
}
