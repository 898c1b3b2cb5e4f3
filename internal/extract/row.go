package extract

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FlightSync/internal/model"
)

// BTS On-Time Performance 文件的列位置（0 起始）
const (
	colFlightDate  = 5
	colOriginID    = 11
	colOriginName  = 14
	colOriginCity  = 15
	colOriginState = 16
	colDestID      = 20
	colDestName    = 23
	colDestCity    = 24
	colDestState   = 25
)

const flightDateLayout = "2006-01-02"

var (
	ErrMissingColumn = errors.New("缺少列")
	ErrBadAirportID  = errors.New("机场ID非法")
	ErrBadDate       = errors.New("航班日期非法")

	ErrUnterminatedQuote = errors.New("引号未闭合")
)

// Record 一行原始数据解析出的三个投影
type Record struct {
	Origin      *model.Airport
	Destination *model.Airport
	Flight      *model.Flight
}

// ParseRow 按固定列位置解析一行；任何一步失败整行丢弃，绝不返回部分结果
func ParseRow(fields []string) (*Record, error) {
	origin, err := parseAirport(fields, colOriginID, colOriginName, colOriginCity, colOriginState)
	if err != nil {
		return nil, fmt.Errorf("出发机场: %w", err)
	}
	dest, err := parseAirport(fields, colDestID, colDestName, colDestCity, colDestState)
	if err != nil {
		return nil, fmt.Errorf("到达机场: %w", err)
	}
	flight, err := parseFlight(fields)
	if err != nil {
		return nil, fmt.Errorf("航班: %w", err)
	}
	return &Record{Origin: origin, Destination: dest, Flight: flight}, nil
}

func parseAirport(fields []string, idCol, nameCol, cityCol, stateCol int) (*model.Airport, error) {
	id, err := intField(fields, idCol)
	if err != nil {
		return nil, err
	}
	name, err := field(fields, nameCol)
	if err != nil {
		return nil, err
	}
	city, err := field(fields, cityCol)
	if err != nil {
		return nil, err
	}
	state, err := field(fields, stateCol)
	if err != nil {
		return nil, err
	}
	return &model.Airport{
		ID:    id,
		Name:  name,
		City:  TruncateCity(city),
		State: state,
	}, nil
}

func parseFlight(fields []string) (*model.Flight, error) {
	raw, err := field(fields, colFlightDate)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(flightDateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadDate, raw)
	}
	origin, err := intField(fields, colOriginID)
	if err != nil {
		return nil, err
	}
	dest, err := intField(fields, colDestID)
	if err != nil {
		return nil, err
	}
	return &model.Flight{Date: date, Origin: origin, Destination: dest}, nil
}

// TruncateCity 取第一个逗号之前的部分，如 "Springfield, IL" → "Springfield"
func TruncateCity(raw string) string {
	if i := strings.IndexByte(raw, ','); i >= 0 {
		return raw[:i]
	}
	return raw
}

func field(fields []string, idx int) (string, error) {
	if idx >= len(fields) {
		return "", fmt.Errorf("%w: 第%d列（共%d列）", ErrMissingColumn, idx, len(fields))
	}
	return fields[idx], nil
}

func intField(fields []string, idx int) (int, error) {
	raw, err := field(fields, idx)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: 第%d列 %q", ErrBadAirportID, idx, raw)
	}
	return v, nil
}

// DropReason 丢弃原因标签（用于指标）
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingColumn):
		return "missing_column"
	case errors.Is(err, ErrBadAirportID):
		return "bad_airport_id"
	case errors.Is(err, ErrBadDate):
		return "bad_date"
	case errors.Is(err, ErrUnterminatedQuote):
		return "malformed_csv"
	default:
		return "malformed_csv"
	}
}
