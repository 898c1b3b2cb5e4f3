package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"FlightSync/internal/model"
)

// Batch 一次抽取的结果：三个按源行对齐的序列，长度始终相同
type Batch struct {
	Origins      []*model.Airport
	Destinations []*model.Airport
	Flights      []*model.Flight

	Dropped     int            // 被丢弃的数据行数
	DropReasons map[string]int // 丢弃原因 → 行数
}

func newBatch() *Batch {
	return &Batch{DropReasons: make(map[string]int)}
}

// Len 成功解析的行数
func (b *Batch) Len() int {
	return len(b.Flights)
}

func (b *Batch) add(r *Record) {
	b.Origins = append(b.Origins, r.Origin)
	b.Destinations = append(b.Destinations, r.Destination)
	b.Flights = append(b.Flights, r.Flight)
}

func (b *Batch) drop(err error) {
	b.Dropped++
	b.DropReasons[DropReason(err)]++
}

// Airports 出发/到达机场的并集，按 ID 去重（先出现者保留），按 ID 升序
func (b *Batch) Airports() []*model.Airport {
	byID := make(map[int]*model.Airport, len(b.Origins))
	for i := range b.Origins {
		for _, a := range []*model.Airport{b.Origins[i], b.Destinations[i]} {
			if _, ok := byID[a.ID]; !ok {
				byID[a.ID] = a
			}
		}
	}

	airports := make([]*model.Airport, 0, len(byID))
	for _, a := range byID {
		airports = append(airports, a)
	}
	sort.Slice(airports, func(i, j int) bool { return airports[i].ID < airports[j].ID })
	return airports
}

// ParseFile 解析本地 BTS csv 文件
func ParseFile(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer f.Close()

	batch, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("解析%s失败: %w", path, err)
	}
	return batch, nil
}

// Parse 跳过第一行（表头），其余每行交给 ParseRow；解析失败的行整行丢弃
// 未加引号字段中的零散引号按普通字符保留
func Parse(r io.Reader) (*Batch, error) {
	reader := csv.NewReader(r)
	reader.Comma = ','
	reader.FieldsPerRecord = -1 // 不校验列数，缺列由 ParseRow 判定
	reader.LazyQuotes = true

	batch := newBatch()
	header := true
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if header {
			header = false
			if err != nil && !isRowError(err) {
				return nil, err
			}
			continue
		}
		if err != nil {
			if isRowError(err) {
				batch.drop(err)
				continue
			}
			return nil, err
		}

		if err := checkUnterminated(fields); err != nil {
			batch.drop(err)
			continue
		}
		record, err := ParseRow(fields)
		if err != nil {
			batch.drop(err)
			continue
		}
		batch.add(record)
	}
	return batch, nil
}

// checkUnterminated 引号未闭合时 LazyQuotes 会把后续行吞进同一字段；BTS 字段内不含换行
func checkUnterminated(fields []string) error {
	for i, f := range fields {
		if strings.ContainsAny(f, "\r\n") {
			return fmt.Errorf("%w: 第%d列", ErrUnterminatedQuote, i)
		}
	}
	return nil
}

// isRowError csv 语法错误只影响当前行
func isRowError(err error) bool {
	var parseErr *csv.ParseError
	return errors.As(err, &parseErr)
}
