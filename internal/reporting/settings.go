package reporting

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ukydev/fleet-emissions/internal/metrics"
)

// MaxEmissionFactor is the largest grid emission factor accepted, in kg CO2/kWh.
const MaxEmissionFactor = 2.0

// ErrInvalidFactor is returned for emission factors outside 0..MaxEmissionFactor.
var ErrInvalidFactor = errors.New("invalid emission factor")

// ValidateFactor checks that f is a usable emission factor.
func ValidateFactor(f float64) error {
	if err := metrics.ValidateEmissionFactor(f); err != nil || f > MaxEmissionFactor {
		return fmt.Errorf("%w: %v (allowed 0 to %v kg CO2/kWh)", ErrInvalidFactor, f, MaxEmissionFactor)
	}
	return nil
}

// Settings holds the emission factor applied by default to reports. It is
// safe for concurrent use.
type Settings struct {
	mu     sync.RWMutex
	factor float64
}

// NewSettings creates settings with an initial emission factor.
func NewSettings(factor float64) (*Settings, error) {
	if err := ValidateFactor(factor); err != nil {
		return nil, err
	}
	return &Settings{factor: factor}, nil
}

// EmissionFactor returns the current factor.
func (s *Settings) EmissionFactor() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.factor
}

// SetEmissionFactor replaces the current factor.
func (s *Settings) SetEmissionFactor(f float64) error {
	if err := ValidateFactor(f); err != nil {
		return err
	}
	s.mu.Lock()
	s.factor = f
	s.mu.Unlock()
	return nil
}
