package service

import (
	"fmt"
	"strings"

	"github.com/okian/doorlog/internal/domain/sensor"
)

// Target indicators.
const (
	IndicatorHigh   = "H"
	IndicatorLow    = "L"
	IndicatorNormal = "N"
)

// SetTarget selects a temperature preset by indicator. The other channels
// always track their normal values.
func (s *Service) SetTarget(indicator string) error {
	indicator = strings.ToUpper(strings.TrimSpace(indicator))
	temp, ok := s.presets[indicator]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownIndicator, indicator)
	}

	s.dataMu.Lock()
	s.indicator = indicator
	s.target = sensor.Target{Temperature: temp}
	s.dataMu.Unlock()
	return nil
}

// Target returns the current sensor target.
func (s *Service) Target() sensor.Target {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.target
}

// Indicator returns the active target indicator.
func (s *Service) Indicator() string {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return s.indicator
}
