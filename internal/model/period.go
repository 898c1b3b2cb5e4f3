package model

import (
	"fmt"
	"time"
)

// Period 一个 (年, 月) 数据周期
type Period struct {
	Year  int
	Month int
}

// NewPeriod 由年月构造周期
func NewPeriod(year, month int) Period {
	return Period{Year: year, Month: month}
}

// Next 下一个月
func (p Period) Next() Period {
	if p.Month >= 12 {
		return Period{Year: p.Year + 1, Month: 1}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Start 该月第一天（UTC）
func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
