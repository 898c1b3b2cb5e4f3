package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"FlightSync/internal/config"
	"FlightSync/internal/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// FlightRecord parquet 行：航班及其两端机场属性
type FlightRecord struct {
	Date             string `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Year             int32  `parquet:"name=year, type=INT32"`
	Month            int32  `parquet:"name=month, type=INT32"`
	Origin           int64  `parquet:"name=origin, type=INT64"`
	OriginName       string `parquet:"name=origin_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	OriginCity       string `parquet:"name=origin_city, type=BYTE_ARRAY, convertedtype=UTF8"`
	OriginState      string `parquet:"name=origin_state, type=BYTE_ARRAY, convertedtype=UTF8"`
	Destination      int64  `parquet:"name=destination, type=INT64"`
	DestinationName  string `parquet:"name=destination_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	DestinationCity  string `parquet:"name=destination_city, type=BYTE_ARRAY, convertedtype=UTF8"`
	DestinationState string `parquet:"name=destination_state, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// S3ParquetArchiver 将一个月的批次写成 snappy parquet 并上传 S3
type S3ParquetArchiver struct {
	cfg      *config.ArchiveConfig
	uploader s3manageriface.UploaderAPI
	logger   *logrus.Logger
}

func NewS3ParquetArchiver(cfg *config.ArchiveConfig, logger *logrus.Logger) (*S3ParquetArchiver, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive.bucket 未配置")
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("创建AWS会话失败: %w", err)
	}
	return newArchiver(cfg, s3manager.NewUploader(sess), logger), nil
}

func newArchiver(cfg *config.ArchiveConfig, uploader s3manageriface.UploaderAPI, logger *logrus.Logger) *S3ParquetArchiver {
	return &S3ParquetArchiver{cfg: cfg, uploader: uploader, logger: logger}
}

// ObjectKey S3 路径：{prefix}/{year}/{month}.parquet
func ObjectKey(prefix string, period model.Period) string {
	return path.Join(prefix, strconv.Itoa(period.Year), fmt.Sprintf("%02d.parquet", period.Month))
}

// Archive 实现 interfaces.Archiver
func (a *S3ParquetArchiver) Archive(ctx context.Context, period model.Period, airports []*model.Airport, flights []*model.Flight) error {
	records := BuildRecords(period, airports, flights)
	if len(records) == 0 {
		a.logger.WithField("period", period.String()).Info("批次为空，跳过归档")
		return nil
	}

	localPath := filepath.Join(a.cfg.TempDir, fmt.Sprintf("flightsync_%d_%02d_%d.parquet", period.Year, period.Month, time.Now().UnixNano()))
	if err := WriteParquet(localPath, records); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(localPath); err != nil {
			a.logger.WithError(err).Warnf("删除临时文件失败: %s", localPath)
		}
	}()

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("打开parquet文件失败: %w", err)
	}
	defer file.Close()

	key := ObjectKey(a.cfg.Prefix, period)
	result, err := a.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
		Body:   file,
		Metadata: map[string]*string{
			"record-count": aws.String(strconv.Itoa(len(records))),
			"period":       aws.String(period.String()),
		},
	})
	if err != nil {
		return fmt.Errorf("上传S3失败: %w", err)
	}
	a.logger.WithFields(logrus.Fields{
		"location": result.Location,
		"records":  len(records),
	}).Info("批次已归档")
	return nil
}

// BuildRecords 航班关联机场属性；机场缺失时属性留空
func BuildRecords(period model.Period, airports []*model.Airport, flights []*model.Flight) []FlightRecord {
	byID := make(map[int]*model.Airport, len(airports))
	for _, a := range airports {
		byID[a.ID] = a
	}
	records := make([]FlightRecord, 0, len(flights))
	for _, f := range flights {
		rec := FlightRecord{
			Date:        f.Date.Format("2006-01-02"),
			Year:        int32(period.Year),
			Month:       int32(period.Month),
			Origin:      int64(f.Origin),
			Destination: int64(f.Destination),
		}
		if o, ok := byID[f.Origin]; ok {
			rec.OriginName, rec.OriginCity, rec.OriginState = o.Name, o.City, o.State
		}
		if d, ok := byID[f.Destination]; ok {
			rec.DestinationName, rec.DestinationCity, rec.DestinationState = d.Name, d.City, d.State
		}
		records = append(records, rec)
	}
	return records
}

// WriteParquet 写本地 snappy parquet 文件，失败时删除残留文件
func WriteParquet(localPath string, records []FlightRecord) error {
	fw, err := local.NewLocalFileWriter(localPath)
	if err != nil {
		return fmt.Errorf("创建本地文件失败: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(FlightRecord), 4)
	if err != nil {
		fw.Close()
		os.Remove(localPath)
		return fmt.Errorf("创建parquet writer失败: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range records {
		if err := pw.Write(records[i]); err != nil {
			fw.Close()
			os.Remove(localPath)
			return fmt.Errorf("写入第%d条记录失败: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		os.Remove(localPath)
		return fmt.Errorf("error in WriteStop: %w", err)
	}
	if err := fw.Close(); err != nil {
		os.Remove(localPath)
		return fmt.Errorf("关闭parquet文件失败: %w", err)
	}
	return nil
}
