package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FlightSync/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// btsRow 只填充被消费的列
type btsRow struct {
	date                                string
	originID                            int
	originName, originCity, originState string
	destID                              int
	destName, destCity, destState       string
}

func (r btsRow) fields() []string {
	f := make([]string, 110)
	f[5] = r.date
	f[11] = fmt.Sprint(r.originID)
	f[14] = r.originName
	f[15] = r.originCity
	f[16] = r.originState
	f[20] = fmt.Sprint(r.destID)
	f[23] = r.destName
	f[24] = r.destCity
	f[25] = r.destState
	return f
}

func btsCSV(t *testing.T, rows ...[]string) string {
	t.Helper()
	header := make([]string, 110)
	for i := range header {
		header[i] = fmt.Sprintf("Col%d", i)
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	require.NoError(t, w.Write(header))
	require.NoError(t, w.WriteAll(rows))
	return sb.String()
}

// fakeFetcher 把预置的 csv 写到临时目录，模拟下载+解压
type fakeFetcher struct {
	dir   string
	files map[model.Period]string
	err   error
	paths []string
	calls int
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	return &fakeFetcher{dir: t.TempDir(), files: make(map[model.Period]string)}
}

func (f *fakeFetcher) Download(ctx context.Context, year, month int) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	body, ok := f.files[model.NewPeriod(year, month)]
	if !ok {
		return "", fmt.Errorf("unexpected status: 404")
	}
	path := filepath.Join(f.dir, fmt.Sprintf("bts_%d_%d.csv", year, month))
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	f.paths = append(f.paths, path)
	return path, nil
}

type flightKey struct {
	date        time.Time
	origin      int
	destination int
}

// memStore 内存版存储：主键冲突静默忽略，外键缺失整批回滚
type memStore struct {
	airports map[int]model.Airport
	flights  map[flightKey]struct{}
	calls    int
	err      error
}

func newMemStore() *memStore {
	return &memStore{
		airports: make(map[int]model.Airport),
		flights:  make(map[flightKey]struct{}),
	}
}

func (s *memStore) SaveBatch(ctx context.Context, airports []*model.Airport, flights []*model.Flight) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	staged := make(map[int]model.Airport, len(s.airports))
	for id, a := range s.airports {
		staged[id] = a
	}
	for _, a := range airports {
		if _, ok := staged[a.ID]; !ok {
			staged[a.ID] = *a
		}
	}
	newFlights := make(map[flightKey]struct{})
	for _, f := range flights {
		if _, ok := staged[f.Origin]; !ok {
			return errors.New("violates foreign key constraint")
		}
		if _, ok := staged[f.Destination]; !ok {
			return errors.New("violates foreign key constraint")
		}
		newFlights[flightKey{f.Date, f.Origin, f.Destination}] = struct{}{}
	}
	s.airports = staged
	for k := range newFlights {
		s.flights[k] = struct{}{}
	}
	return nil
}

type fakeRecorder struct {
	started  []*model.IngestRun
	finished []model.IngestRun
}

func (r *fakeRecorder) Start(ctx context.Context, run *model.IngestRun) error {
	run.RunUUID = uuid.NewString()
	r.started = append(r.started, run)
	return nil
}

func (r *fakeRecorder) Finish(ctx context.Context, run *model.IngestRun) error {
	r.finished = append(r.finished, *run)
	return nil
}

type fakeArchiver struct {
	err      error
	archived []model.Period
	flights  int
}

func (a *fakeArchiver) Archive(ctx context.Context, period model.Period, airports []*model.Airport, flights []*model.Flight) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, period)
	a.flights += len(flights)
	return nil
}
