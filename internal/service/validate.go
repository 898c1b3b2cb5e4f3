package service

import (
	"errors"
	"fmt"
	"time"

	"FlightSync/internal/model"
)

// 最早可接受的年份（不含）
const minYear = 1886

var (
	ErrInvalidPeriod = errors.New("年份或月份不合法")
	ErrInvalidCount  = errors.New("月份数不合法")
	ErrFutureMonth   = errors.New("目标月份尚未到来")
)

// ValidatePeriod year > 1886 且 1 <= month <= 12
func ValidatePeriod(p model.Period) error {
	if p.Year <= minYear || p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("%w: year=%d month=%d", ErrInvalidPeriod, p.Year, p.Month)
	}
	return nil
}

// ValidateCount n > 0
func ValidateCount(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	return nil
}

// ValidateNotFuture 该月第一天须早于 now
func ValidateNotFuture(p model.Period, now time.Time) error {
	if !p.Start().Before(now) {
		return fmt.Errorf("%w: %s", ErrFutureMonth, p)
	}
	return nil
}
