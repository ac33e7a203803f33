package classify

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
	"go.uber.org/zap"

	"github.com/yanet-platform/prefixtrie/common/go/xpacket"
	"github.com/yanet-platform/prefixtrie/filter"
)

// pcapngMagic is the block type of the pcapng Section Header Block.
var pcapngMagic = []byte{0x0a, 0x0d, 0x0d, 0x0a}

// Direction selects which address of a packet is looked up.
type Direction int

const (
	// DirectionSource looks up the source address.
	DirectionSource Direction = iota
	// DirectionDestination looks up the destination address.
	DirectionDestination
)

func (m Direction) String() string {
	if m == DirectionDestination {
		return "destination"
	}
	return "source"
}

// Stats aggregates classification results.
type Stats struct {
	// Packets is the total number of packets read.
	Packets int
	// NonIPv4 is the number of packets without an IPv4 header.
	NonIPv4 int
	// Matched is the number of IPv4 packets covered by some rule.
	Matched int
	// Actions counts IPv4 packets by resulting action.
	Actions map[filter.Action]int
}

// Option is a function that configures the classifier.
type Option func(*options)

type options struct {
	Direction Direction
	Log       *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Direction: DirectionSource,
		Log:       zap.NewNop().Sugar(),
	}
}

// WithDirection selects which packet address is classified.
func WithDirection(direction Direction) Option {
	return func(o *options) {
		o.Direction = direction
	}
}

// WithLog configures the classifier with a logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// Classifier applies a prefix filter to captured packets.
type Classifier struct {
	filter    *filter.Filter
	direction Direction
	log       *zap.SugaredLogger
}

// NewClassifier creates a new classifier over the given filter.
func NewClassifier(f *filter.Filter, options ...Option) *Classifier {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Classifier{
		filter:    f,
		direction: opts.Direction,
		log:       opts.Log,
	}
}

// ClassifyPacket looks up the packet's IPv4 address.
//
// It returns false if the packet carries no IPv4 header.
func (m *Classifier) ClassifyPacket(pkt gopacket.Packet) (filter.Verdict, bool) {
	addr, dst, ok := xpacket.IPv4Addrs(pkt)
	if !ok {
		return filter.Verdict{}, false
	}
	if m.direction == DirectionDestination {
		addr = dst
	}

	verdict, err := m.filter.Lookup(addr)
	if err != nil {
		return filter.Verdict{}, false
	}

	return verdict, true
}

// Classify reads packets in either pcap or pcapng format and aggregates
// per-action statistics.
func (m *Classifier) Classify(r io.Reader) (*Stats, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(pcapngMagic))
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	var source packetDataSource
	if bytes.Equal(magic, pcapngMagic) {
		reader, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcapng stream: %w", err)
		}
		source = reader
	} else {
		reader, err := pcapgo.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to open pcap stream: %w", err)
		}
		source = reader
	}

	m.log.Debugw("classifying packets",
		zap.Stringer("link_type", source.LinkType()),
		zap.Stringer("direction", m.direction),
	)

	stats := &Stats{
		Actions: map[filter.Action]int{},
	}
	for {
		data, _, err := source.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read packet %d: %w", stats.Packets+1, err)
		}

		stats.Packets++
		pkt := gopacket.NewPacket(data, source.LinkType(), gopacket.DecodeOptions{
			Lazy:   true,
			NoCopy: true,
		})

		verdict, ok := m.ClassifyPacket(pkt)
		if !ok {
			stats.NonIPv4++
			continue
		}

		if verdict.Matched {
			stats.Matched++
		}
		stats.Actions[verdict.Action]++
	}

	m.log.Infow("classified packets",
		zap.Int("packets", stats.Packets),
		zap.Int("matched", stats.Matched),
		zap.Int("non_ipv4", stats.NonIPv4),
	)

	return stats, nil
}

type packetDataSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}
