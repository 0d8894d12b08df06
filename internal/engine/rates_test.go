package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rusenback/vitalviz/internal/model"
)

func TestDeriveRates(t *testing.T) {
	tests := []struct {
		name    string
		prev    model.NetCounters
		curr    model.NetCounters
		elapsed float64
		want    model.Rates
	}{
		{
			name:    "steady growth over one second",
			prev:    model.NetCounters{BytesSent: 1000, BytesRecv: 500, PacketsSent: 10, PacketsRecv: 5},
			curr:    model.NetCounters{BytesSent: 3000, BytesRecv: 1500, PacketsSent: 30, PacketsRecv: 15},
			elapsed: 1,
			want:    model.Rates{BytesSentPerSec: 2000, BytesRecvPerSec: 1000, PacketsSentPerSec: 20, PacketsRecvPerSec: 10},
		},
		{
			name:    "fractional elapsed",
			prev:    model.NetCounters{BytesSent: 0},
			curr:    model.NetCounters{BytesSent: 1000},
			elapsed: 0.5,
			want:    model.Rates{BytesSentPerSec: 2000},
		},
		{
			name:    "no traffic",
			prev:    model.NetCounters{BytesSent: 4096, BytesRecv: 4096},
			curr:    model.NetCounters{BytesSent: 4096, BytesRecv: 4096},
			elapsed: 1,
			want:    model.Rates{},
		},
		{
			name:    "counter reset clamps that counter only",
			prev:    model.NetCounters{BytesSent: 5000, BytesRecv: 100},
			curr:    model.NetCounters{BytesSent: 500, BytesRecv: 300},
			elapsed: 2,
			want:    model.Rates{BytesSentPerSec: 0, BytesRecvPerSec: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := deriveRates(tt.prev, tt.curr, tt.elapsed)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got.BytesSentPerSec, 0.0)
			assert.GreaterOrEqual(t, got.BytesRecvPerSec, 0.0)
		})
	}
}

func TestCounterRateNeverNegative(t *testing.T) {
	// The largest possible decrease still reports zero, not a negative rate.
	assert.Equal(t, 0.0, counterRate("bytes_sent", ^uint64(0), 0, 1))
}
