package hardware

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bshepherdson/coemu/common"
)

// RNG hands out pseudo-random words. A nonzero seed makes the sequence
// repeatable.
type RNG struct {
	cpu common.CPU
	log *logrus.Entry
	r   *rand.Rand
}

func NewRNG() *RNG {
	rng := &RNG{log: deviceLog("rng")}
	rng.Reset()
	return rng
}

func (rng *RNG) DeviceDetails() (uint32, uint16, uint32) {
	return 0x13e2dc12, 1, 0
}

func (rng *RNG) Description() string { return "Random number generator" }

func (rng *RNG) Master(cpu common.CPU) { rng.cpu = cpu }
func (rng *RNG) Detach() error         { return detach(rng.cpu, rng) }
func (rng *RNG) Clock(cycles int)      {}

func (rng *RNG) Reset() {
	rng.seed(0)
}

func (rng *RNG) seed(s uint16) {
	seed := int64(s)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng.r = rand.New(rand.NewSource(seed))
}

func (rng *RNG) Receive(msg uint16) {
	switch msg {
	case 0x0000: // SET_SEED
		b := rng.cpu.ReadReg(common.RegB)
		rng.log.WithField("seed", b).Debug("seeded")
		rng.seed(b)
	case 0x0001: // GET_RANDOM
		rng.cpu.WriteReg(common.RegC, uint16(rng.r.Uint32()))
	case 0xffff: // RESET
		rng.Reset()
	}
}
