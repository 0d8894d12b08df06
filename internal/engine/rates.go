package engine

import (
	log "github.com/sirupsen/logrus"

	"github.com/rusenback/vitalviz/internal/model"
)

// deriveRates turns two cumulative counter readings into per-second rates.
// elapsed must be positive; callers guard that.
func deriveRates(prev, curr model.NetCounters, elapsed float64) model.Rates {
	return model.Rates{
		BytesSentPerSec:   counterRate("bytes_sent", prev.BytesSent, curr.BytesSent, elapsed),
		BytesRecvPerSec:   counterRate("bytes_recv", prev.BytesRecv, curr.BytesRecv, elapsed),
		PacketsSentPerSec: counterRate("packets_sent", prev.PacketsSent, curr.PacketsSent, elapsed),
		PacketsRecvPerSec: counterRate("packets_recv", prev.PacketsRecv, curr.PacketsRecv, elapsed),
	}
}

// counterRate clamps to zero when the counter went backwards (interface
// restart, wraparound, or a bogus reading). The clamp is logged so it can
// be told apart from a genuinely idle link.
func counterRate(name string, prev, curr uint64, elapsed float64) float64 {
	if curr < prev {
		log.Debugf("counter %s went backwards (%d -> %d), clamping rate to zero", name, prev, curr)
		return 0
	}
	return float64(curr-prev) / elapsed
}
