package model

// Rates are per-second network rates derived from two consecutive samples.
// All values are non-negative; a detected counter reset reports 0 for that
// counter instead of a negative rate.
type Rates struct {
	BytesSentPerSec   float64 `json:"bytes_sent_per_sec"`
	BytesRecvPerSec   float64 `json:"bytes_recv_per_sec"`
	PacketsSentPerSec float64 `json:"packets_sent_per_sec"`
	PacketsRecvPerSec float64 `json:"packets_recv_per_sec"`
}
