package extract

import (
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// rowWidth BTS 文件实际列数约 110
const rowWidth = 110

type testRow struct {
	date                                  string
	originID, originName, originCity      string
	originState                           string
	destID, destName, destCity, destState string
}

func (r testRow) fields() []string {
	f := make([]string, rowWidth)
	for i := range f {
		f[i] = "x"
	}
	f[colFlightDate] = r.date
	f[colOriginID] = r.originID
	f[colOriginName] = r.originName
	f[colOriginCity] = r.originCity
	f[colOriginState] = r.originState
	f[colDestID] = r.destID
	f[colDestName] = r.destName
	f[colDestCity] = r.destCity
	f[colDestState] = r.destState
	return f
}

func sampleRow() testRow {
	return testRow{
		date:     "2023-03-01",
		originID: "101", originName: "Alpha", originCity: "Apple,Town", originState: "AA",
		destID: "202", destName: "Beta", destCity: "Berry", destState: "BB",
	}
}

func headerFields() []string {
	f := make([]string, rowWidth)
	for i := range f {
		f[i] = "Col" + strings.Repeat("X", i%3)
	}
	f[colFlightDate] = "FlightDate"
	f[colOriginID] = "OriginAirportID"
	f[colDestID] = "DestAirportID"
	return f
}

// csvText 用 encoding/csv 生成带引号的 csv 文本
func csvText(t *testing.T, rows ...[]string) string {
	t.Helper()
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	require.NoError(t, w.WriteAll(rows))
	return sb.String()
}
