package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"FlightSync/internal/config"
	"FlightSync/internal/utils/httpclient"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
)

var ErrEntryNotFound = errors.New("压缩包中缺少目标文件")

// Fetcher 从 BTS PREZIP 下载月度压缩包并解压出唯一的 csv
type Fetcher struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewFetcher(cfg *config.SourceConfig, logger *logrus.Logger) *Fetcher {
	return &Fetcher{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

func (f *Fetcher) month(month int) string {
	if f.cfg.PadMonth {
		return fmt.Sprintf("%02d", month)
	}
	return strconv.Itoa(month)
}

// ArchiveName 远端压缩包名，如 On_Time_..._1987_present_2023_3.zip
func (f *Fetcher) ArchiveName(year, month int) string {
	return fmt.Sprintf("%s_%d_%s.zip", f.cfg.ArchivePrefix, year, f.month(month))
}

// EntryName 压缩包内 csv 名，如 On_Time_..._(1987_present)_2023_3.csv
func (f *Fetcher) EntryName(year, month int) string {
	return fmt.Sprintf("%s_%d_%s.csv", f.cfg.EntryPrefix, year, f.month(month))
}

// ArchiveURL 远端压缩包完整地址
func (f *Fetcher) ArchiveURL(year, month int) string {
	return strings.TrimRight(f.cfg.BaseURL, "/") + "/" + f.ArchiveName(year, month)
}

// Download 下载并解压，返回解压出的 csv 路径；不做重试，也不清理该 csv
func (f *Fetcher) Download(ctx context.Context, year, month int) (string, error) {
	if err := os.MkdirAll(f.cfg.DownloadDir, 0o755); err != nil {
		return "", fmt.Errorf("创建下载目录失败: %w", err)
	}

	archiveURL := f.ArchiveURL(year, month)
	log := f.logger.WithFields(logrus.Fields{"url": archiveURL, "year": year, "month": month})
	log.Info("开始下载BTS数据包")

	archivePath, err := f.fetchArchive(ctx, archiveURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.Remove(archivePath); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("删除临时压缩包失败")
		}
	}()

	path, err := f.unpack(archivePath, f.EntryName(year, month))
	if err != nil {
		return "", err
	}
	log.WithField("path", path).Info("BTS数据包解压完成")
	return path, nil
}

// fetchArchive 将响应体写入下载目录下的临时文件
func (f *Fetcher) fetchArchive(ctx context.Context, archiveURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return "", fmt.Errorf("构造请求失败: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("下载%s失败: %w", archiveURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.logger.Errorf("关闭响应体失败: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("下载%s失败: unexpected status: %d", archiveURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(f.cfg.DownloadDir, "bts-*.zip")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("保存压缩包失败: %w", err)
	}
	f.logger.WithField("bytes", n).Debug("压缩包下载完成")
	return tmp.Name(), nil
}

// unpack 只解压名为 entry 的文件到下载目录
func (f *Fetcher) unpack(archivePath, entry string) (string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", fmt.Errorf("打开压缩包失败: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != entry {
			continue
		}
		src, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("读取%s失败: %w", entry, err)
		}
		defer src.Close()

		dstPath := filepath.Join(f.cfg.DownloadDir, filepath.Base(entry))
		dst, err := os.Create(dstPath)
		if err != nil {
			return "", fmt.Errorf("创建%s失败: %w", dstPath, err)
		}
		_, err = io.Copy(dst, src)
		if closeErr := dst.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(dstPath)
			return "", fmt.Errorf("解压%s失败: %w", entry, err)
		}
		return dstPath, nil
	}
	return "", fmt.Errorf("%w: %s", ErrEntryNotFound, entry)
}
